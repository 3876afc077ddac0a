package service

import (
	"context"

	"github.com/weiawesome/track-resolver/internal/domain"
)

// ResolverService turns a free-text query into a playable track id.
type ResolverService interface {
	// Resolve returns domain.ErrTrackNotFound when every filter is empty and
	// a *domain.UpstreamError when the catalog fails.
	Resolve(ctx context.Context, query string) (*domain.SearchResponse, error)
}
