package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/weiawesome/track-resolver/internal/domain"
	"github.com/weiawesome/track-resolver/internal/metrics"
	pkglog "github.com/weiawesome/track-resolver/pkg/log"
)

// stubCatalog returns canned results per filter and records every call.
type stubCatalog struct {
	mu      sync.Mutex
	results map[domain.Filter][]domain.Candidate
	errs    map[domain.Filter]error
	calls   []domain.Filter
	queries []string
}

func (s *stubCatalog) Search(ctx context.Context, query string, filter domain.Filter) ([]domain.Candidate, error) {
	s.mu.Lock()
	s.calls = append(s.calls, filter)
	s.queries = append(s.queries, query)
	s.mu.Unlock()

	if err := s.errs[filter]; err != nil {
		return nil, err
	}
	return s.results[filter], nil
}

func (s *stubCatalog) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func candidates(ids ...string) []domain.Candidate {
	out := make([]domain.Candidate, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.Candidate{VideoID: id})
	}
	return out
}

func TestResolveFallbackChain(t *testing.T) {
	tests := []struct {
		name      string
		results   map[domain.Filter][]domain.Candidate
		wantID    string
		wantErr   error
		wantCalls []domain.Filter
	}{
		{
			name: "songs hit stops after one call",
			results: map[domain.Filter][]domain.Candidate{
				domain.FilterSongs:  candidates("fJ9rUzIMcZQ", "other"),
				domain.FilterVideos: candidates("video"),
			},
			wantID:    "fJ9rUzIMcZQ",
			wantCalls: []domain.Filter{domain.FilterSongs},
		},
		{
			name: "videos used when songs empty",
			results: map[domain.Filter][]domain.Candidate{
				domain.FilterVideos:     candidates("video-1", "video-2"),
				domain.FilterUnfiltered: candidates("any"),
			},
			wantID:    "video-1",
			wantCalls: []domain.Filter{domain.FilterSongs, domain.FilterVideos},
		},
		{
			name: "unfiltered is the last resort",
			results: map[domain.Filter][]domain.Candidate{
				domain.FilterSongs:      {},
				domain.FilterVideos:     nil,
				domain.FilterUnfiltered: candidates("any-1"),
			},
			wantID:    "any-1",
			wantCalls: []domain.Filter{domain.FilterSongs, domain.FilterVideos, domain.FilterUnfiltered},
		},
		{
			name:      "all empty is not found",
			results:   map[domain.Filter][]domain.Candidate{},
			wantErr:   domain.ErrTrackNotFound,
			wantCalls: []domain.Filter{domain.FilterSongs, domain.FilterVideos, domain.FilterUnfiltered},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubCatalog{results: tt.results}
			svc := NewResolverService(stub, Options{Backend: "stub"})

			resp, err := svc.Resolve(context.Background(), "query")

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Resolve() error = %v, want %v", err, tt.wantErr)
				}
				if resp != nil {
					t.Errorf("Resolve() response = %+v, want nil", resp)
				}
			} else {
				if err != nil {
					t.Fatalf("Resolve() error = %v", err)
				}
				if resp.VideoID != tt.wantID {
					t.Errorf("VideoID = %q, want %q", resp.VideoID, tt.wantID)
				}
			}

			if len(stub.calls) != len(tt.wantCalls) {
				t.Fatalf("calls = %v, want %v", stub.calls, tt.wantCalls)
			}
			for i := range tt.wantCalls {
				if stub.calls[i] != tt.wantCalls[i] {
					t.Errorf("call %d filter = %q, want %q", i, stub.calls[i], tt.wantCalls[i])
				}
			}
		})
	}
}

func TestResolveUpstreamErrorAbortsChain(t *testing.T) {
	tests := []struct {
		name      string
		errs      map[domain.Filter]error
		results   map[domain.Filter][]domain.Candidate
		wantCalls int
		wantStage domain.Filter
	}{
		{
			name:      "songs error",
			errs:      map[domain.Filter]error{domain.FilterSongs: errors.New("connection reset by peer")},
			results:   map[domain.Filter][]domain.Candidate{domain.FilterVideos: candidates("video")},
			wantCalls: 1,
			wantStage: domain.FilterSongs,
		},
		{
			name:      "videos error after empty songs",
			errs:      map[domain.Filter]error{domain.FilterVideos: errors.New("connection reset by peer")},
			results:   map[domain.Filter][]domain.Candidate{domain.FilterUnfiltered: candidates("any")},
			wantCalls: 2,
			wantStage: domain.FilterVideos,
		},
		{
			name:      "unfiltered error",
			errs:      map[domain.Filter]error{domain.FilterUnfiltered: errors.New("connection reset by peer")},
			wantCalls: 3,
			wantStage: domain.FilterUnfiltered,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubCatalog{results: tt.results, errs: tt.errs}
			svc := NewResolverService(stub, Options{Backend: "stub"})

			resp, err := svc.Resolve(context.Background(), "query")
			if resp != nil {
				t.Errorf("Resolve() response = %+v, want nil", resp)
			}

			var upstream *domain.UpstreamError
			if !errors.As(err, &upstream) {
				t.Fatalf("Resolve() error = %v, want *domain.UpstreamError", err)
			}
			if upstream.Error() != "connection reset by peer" {
				t.Errorf("error message = %q, want cause message", upstream.Error())
			}
			if upstream.Filter != tt.wantStage {
				t.Errorf("Filter = %q, want %q", upstream.Filter, tt.wantStage)
			}
			if errors.Is(err, domain.ErrTrackNotFound) {
				t.Error("upstream error must not be reported as not found")
			}
			if got := stub.callCount(); got != tt.wantCalls {
				t.Errorf("calls = %d, want %d", got, tt.wantCalls)
			}
		})
	}
}

func TestResolveUpstreamErrorUnwraps(t *testing.T) {
	cause := fmt.Errorf("ytmusic search failed (status 429): %w", context.DeadlineExceeded)
	stub := &stubCatalog{errs: map[domain.Filter]error{domain.FilterSongs: cause}}

	_, err := NewResolverService(stub, Options{}).Resolve(context.Background(), "q")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("errors.Is(err, DeadlineExceeded) = false for %v", err)
	}
}

func TestResolvePassesQueryUnchanged(t *testing.T) {
	for _, query := range []string{"", "   ", "  Bohemian Rhapsody  ", "ÄÖÜ queen"} {
		stub := &stubCatalog{}
		_, _ = NewResolverService(stub, Options{}).Resolve(context.Background(), query)

		for i, got := range stub.queries {
			if got != query {
				t.Errorf("call %d query = %q, want %q", i, got, query)
			}
		}
		if len(stub.queries) != 3 {
			t.Errorf("query %q: calls = %d, want 3", query, len(stub.queries))
		}
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	stub := &stubCatalog{results: map[domain.Filter][]domain.Candidate{
		domain.FilterVideos: candidates("stable-id"),
	}}
	svc := NewResolverService(stub, Options{})

	first, err := svc.Resolve(context.Background(), "same query")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	for i := 0; i < 5; i++ {
		got, err := svc.Resolve(context.Background(), "same query")
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if got.VideoID != first.VideoID {
			t.Errorf("run %d VideoID = %q, want %q", i, got.VideoID, first.VideoID)
		}
	}
	// No caching: every resolution hits the catalog again.
	if got := stub.callCount(); got != 12 {
		t.Errorf("calls = %d, want 12", got)
	}
}

// blockingCatalog waits for the call deadline.
type blockingCatalog struct {
	sawDeadline bool
}

func (b *blockingCatalog) Search(ctx context.Context, query string, filter domain.Filter) ([]domain.Candidate, error) {
	_, b.sawDeadline = ctx.Deadline()
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestResolvePerCallTimeout(t *testing.T) {
	catalog := &blockingCatalog{}
	svc := NewResolverService(catalog, Options{Timeout: 20 * time.Millisecond})

	_, err := svc.Resolve(context.Background(), "slow")

	if !catalog.sawDeadline {
		t.Error("catalog call had no deadline")
	}
	var upstream *domain.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("Resolve() error = %v, want *domain.UpstreamError", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want deadline exceeded", err)
	}
}

func TestResolveConcurrentRequests(t *testing.T) {
	stub := &stubCatalog{results: map[domain.Filter][]domain.Candidate{
		domain.FilterSongs: candidates("song-id"),
	}}
	svc := NewResolverService(stub, Options{})

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := svc.Resolve(context.Background(), "concurrent")
			if err != nil {
				errs <- err
				return
			}
			if resp.VideoID != "song-id" {
				errs <- fmt.Errorf("VideoID = %q", resp.VideoID)
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
	if got := stub.callCount(); got != 20 {
		t.Errorf("calls = %d, want 20 (one per request)", got)
	}
}

func TestResolveRecordsMetrics(t *testing.T) {
	m := metrics.New()
	stub := &stubCatalog{results: map[domain.Filter][]domain.Candidate{
		domain.FilterVideos: candidates("video"),
	}}
	svc := NewResolverService(stub, Options{Backend: "stub", Metrics: m})

	if _, err := svc.Resolve(context.Background(), "q"); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if got := testutil.ToFloat64(m.SearchesTotal.WithLabelValues("stub", "songs", metrics.ResultEmpty)); got != 1 {
		t.Errorf("songs empty = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.SearchesTotal.WithLabelValues("stub", "videos", metrics.ResultHit)); got != 1 {
		t.Errorf("videos hit = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ResolutionsTotal.WithLabelValues(metrics.OutcomeFound)); got != 1 {
		t.Errorf("found = %v, want 1", got)
	}
}

func TestResolveLogsOutcome(t *testing.T) {
	tests := []struct {
		name        string
		results     map[domain.Filter][]domain.Candidate
		wantMsg     string
		wantOutcome string
	}{
		{
			name:        "found",
			results:     map[domain.Filter][]domain.Candidate{domain.FilterSongs: candidates("song-id")},
			wantMsg:     "track resolved",
			wantOutcome: metrics.OutcomeFound,
		},
		{
			name:        "not found",
			results:     map[domain.Filter][]domain.Candidate{},
			wantMsg:     "no track found",
			wantOutcome: metrics.OutcomeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			ctx := pkglog.WithLogger(context.Background(), zerolog.New(&buf).Level(zerolog.InfoLevel))

			_, _ = NewResolverService(&stubCatalog{results: tt.results}, Options{}).Resolve(ctx, "q")

			var entry map[string]interface{}
			if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
				t.Fatalf("expected one log line, got %q: %v", buf.String(), err)
			}
			if entry["message"] != tt.wantMsg {
				t.Errorf("message = %v, want %q", entry["message"], tt.wantMsg)
			}
			if entry[pkglog.FieldOutcome] != tt.wantOutcome {
				t.Errorf("%s = %v, want %q", pkglog.FieldOutcome, entry[pkglog.FieldOutcome], tt.wantOutcome)
			}
		})
	}
}
