package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/weiawesome/track-resolver/internal/domain"
	"github.com/weiawesome/track-resolver/internal/metrics"
	"github.com/weiawesome/track-resolver/internal/repository"
	"github.com/weiawesome/track-resolver/pkg/log"
)

// Options configures a resolver.
type Options struct {
	// Backend labels metrics and logs.
	Backend string
	// Timeout bounds each catalog call. Zero means no per-call deadline.
	Timeout time.Duration
	// Metrics may be nil.
	Metrics *metrics.Metrics
}

type resolverServiceImpl struct {
	repo    repository.CatalogRepository
	backend string
	timeout time.Duration
	metrics *metrics.Metrics
}

// NewResolverService creates a resolver over the given catalog.
func NewResolverService(repo repository.CatalogRepository, opts Options) ResolverService {
	return &resolverServiceImpl{
		repo:    repo,
		backend: opts.Backend,
		timeout: opts.Timeout,
		metrics: opts.Metrics,
	}
}

func (s *resolverServiceImpl) Resolve(ctx context.Context, query string) (*domain.SearchResponse, error) {
	l := log.Ctx(ctx)

	for _, filter := range domain.FilterChain {
		candidates, err := s.search(ctx, query, filter)
		if err != nil {
			s.metrics.RecordResolution(metrics.OutcomeUpstreamError)
			return nil, &domain.UpstreamError{Filter: filter, Err: err}
		}

		if len(candidates) == 0 {
			continue
		}

		best := candidates[0]
		l.Info().
			Str(log.FieldFilter, filter.String()).
			Str(log.FieldVideoID, best.VideoID).
			Str("title", best.Title).
			Str(log.FieldOutcome, metrics.OutcomeFound).
			Msg("track resolved")
		s.metrics.RecordResolution(metrics.OutcomeFound)
		return &domain.SearchResponse{VideoID: best.VideoID}, nil
	}

	l.Info().Str(log.FieldOutcome, metrics.OutcomeNotFound).Msg("no track found")
	s.metrics.RecordResolution(metrics.OutcomeNotFound)
	return nil, domain.ErrTrackNotFound
}

// search runs one catalog call under the per-call timeout.
func (s *resolverServiceImpl) search(ctx context.Context, query string, filter domain.Filter) ([]domain.Candidate, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	l := log.Ctx(ctx)
	start := time.Now()
	candidates, err := s.repo.Search(ctx, query, filter)
	elapsed := time.Since(start)

	var evt *zerolog.Event
	switch {
	case err != nil:
		s.metrics.RecordSearch(s.backend, filter.String(), metrics.ResultError, elapsed)
		evt = l.Warn().Err(err)
	case len(candidates) == 0:
		s.metrics.RecordSearch(s.backend, filter.String(), metrics.ResultEmpty, elapsed)
		evt = l.Debug()
	default:
		s.metrics.RecordSearch(s.backend, filter.String(), metrics.ResultHit, elapsed)
		evt = l.Debug()
	}
	evt.Str(log.FieldBackend, s.backend).
		Str(log.FieldFilter, filter.String()).
		Int(log.FieldCount, len(candidates)).
		Dur("elapsed", elapsed).
		Msg("catalog search")

	return candidates, err
}
