package repository

import (
	"context"

	"github.com/weiawesome/track-resolver/internal/domain"
)

// CatalogRepository searches an external music catalog.
// Candidates are returned in the catalog's own order, best match first.
// Implementations must be safe for concurrent use.
type CatalogRepository interface {
	Search(ctx context.Context, query string, filter domain.Filter) ([]domain.Candidate, error)
}
