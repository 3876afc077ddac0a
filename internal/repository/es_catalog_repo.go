package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/weiawesome/track-resolver/internal/domain"
)

// Number of hits requested per search; only the first is ever used, the rest
// show up in debug logs and the CLI.
const esSearchSize = 10

// Document "type" values per filter. Unfiltered searches carry no type clause.
var esFilterTypes = map[domain.Filter]string{
	domain.FilterSongs:  "song",
	domain.FilterVideos: "video",
}

type esCatalogRepository struct {
	client *elasticsearch.Client
	index  string
}

// NewESCatalogRepository creates a catalog repository over a self-hosted
// Elasticsearch track index.
func NewESCatalogRepository(client *elasticsearch.Client, index string) CatalogRepository {
	return &esCatalogRepository{
		client: client,
		index:  index,
	}
}

// esTrack is a document in the track index.
type esTrack struct {
	VideoID string   `json:"video_id"`
	Title   string   `json:"title"`
	Artists []string `json:"artists"`
	Type    string   `json:"type"`
}

func (r *esCatalogRepository) Search(ctx context.Context, query string, filter domain.Filter) ([]domain.Candidate, error) {
	boolQuery := map[string]interface{}{
		"must": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"title^2", "artists", "album"},
			},
		},
	}
	if typ, ok := esFilterTypes[filter]; ok {
		boolQuery["filter"] = []interface{}{
			map[string]interface{}{
				"term": map[string]interface{}{"type": typ},
			},
		}
	}

	body := map[string]interface{}{
		"size":  esSearchSize,
		"query": map[string]interface{}{"bool": boolQuery},
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	res, err := r.client.Search(
		r.client.Search.WithContext(ctx),
		r.client.Search.WithIndex(r.index),
		r.client.Search.WithBody(bytes.NewReader(data)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search tracks: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch error: %s", res.String())
	}

	var result esResponse
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	candidates := make([]domain.Candidate, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		var track esTrack
		if err := json.Unmarshal(hit.Source, &track); err != nil {
			return nil, fmt.Errorf("failed to decode track: %w", err)
		}
		if track.VideoID == "" {
			continue
		}
		candidates = append(candidates, domain.Candidate{
			VideoID:    track.VideoID,
			Title:      track.Title,
			Artists:    track.Artists,
			ResultType: track.Type,
		})
	}

	return candidates, nil
}

// esResponse is the subset of the Elasticsearch search response we read.
type esResponse struct {
	Hits struct {
		Hits []struct {
			Source json.RawMessage `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}
