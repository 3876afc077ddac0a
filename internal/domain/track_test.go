package domain

import (
	"errors"
	"io"
	"testing"
)

func TestUpstreamErrorKeepsCauseMessage(t *testing.T) {
	cause := errors.New("HTTPSConnectionPool: read timed out")
	err := error(&UpstreamError{Filter: FilterVideos, Err: cause})

	if err.Error() != cause.Error() {
		t.Errorf("Error() = %q, want %q", err.Error(), cause.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false")
	}
	if errors.Is(err, io.EOF) {
		t.Error("errors.Is(err, io.EOF) = true")
	}
}

func TestFilterChainOrder(t *testing.T) {
	want := []Filter{FilterSongs, FilterVideos, FilterUnfiltered}
	if len(FilterChain) != len(want) {
		t.Fatalf("FilterChain = %v, want %v", FilterChain, want)
	}
	for i := range want {
		if FilterChain[i] != want[i] {
			t.Errorf("FilterChain[%d] = %q, want %q", i, FilterChain[i], want[i])
		}
	}
}
