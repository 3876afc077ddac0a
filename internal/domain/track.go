package domain

import "errors"

// Filter narrows a catalog search to one kind of result.
type Filter string

const (
	FilterSongs      Filter = "songs"
	FilterVideos     Filter = "videos"
	FilterUnfiltered Filter = "unfiltered"
)

// FilterChain is the order in which filters are tried when resolving a query.
var FilterChain = []Filter{FilterSongs, FilterVideos, FilterUnfiltered}

func (f Filter) String() string {
	return string(f)
}

// Candidate is one catalog search hit that can be played.
type Candidate struct {
	VideoID    string
	Title      string
	Artists    []string
	ResultType string // "song" | "video" | ...
}

// SearchResponse is returned when a track was found.
type SearchResponse struct {
	VideoID string `json:"videoId"`
}

// ErrTrackNotFound is returned when every filter came back empty.
var ErrTrackNotFound = errors.New("No track found")

// UpstreamError wraps a failure raised by the catalog search.
// Its message is the cause's message, unchanged.
type UpstreamError struct {
	Filter Filter
	Err    error
}

func (e *UpstreamError) Error() string {
	return e.Err.Error()
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
