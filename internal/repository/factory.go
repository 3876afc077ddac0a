package repository

import (
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/weiawesome/track-resolver/internal/config"
)

// New builds the catalog repository selected by cfg.Backend.
func New(cfg config.CatalogConfig) (CatalogRepository, error) {
	switch cfg.Backend {
	case config.BackendYTMusic:
		return NewYTMusicRepository(cfg.YTMusic, nil), nil
	case config.BackendElasticsearch:
		client, err := elasticsearch.NewClient(elasticsearch.Config{
			Addresses: cfg.Elasticsearch.Addresses,
			Username:  cfg.Elasticsearch.Username,
			Password:  cfg.Elasticsearch.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
		}
		return NewESCatalogRepository(client, cfg.Elasticsearch.Index), nil
	default:
		return nil, fmt.Errorf("unknown catalog backend %q", cfg.Backend)
	}
}
