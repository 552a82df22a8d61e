// Package searchindex provides the external text-search adapter.
// Clean Architecture: Adapter implementing ports.SearchIndex.
package searchindex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	elasticsearch "github.com/elastic/go-elasticsearch/v8"

	"github.com/gikalabs/localsearch-go/internal/domain/entities"
)

// ElasticAdapter implements ports.SearchIndex over Elasticsearch,
// matching the query against both filename and content fields.
// Index failures are logged and surface as an empty candidate list;
// they never propagate past the orchestrator as a panic or raw error.
type ElasticAdapter struct {
	es      *elasticsearch.Client
	timeout time.Duration
}

// NewElasticAdapter creates the adapter for the given node addresses.
func NewElasticAdapter(addresses []string, timeout time.Duration) (*ElasticAdapter, error) {
	if len(addresses) == 0 {
		addresses = []string{"http://localhost:9200"}
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: addresses})
	if err != nil {
		return nil, fmt.Errorf("creating elasticsearch client: %w", err)
	}
	return &ElasticAdapter{es: es, timeout: timeout}, nil
}

type searchQuery struct {
	Query struct {
		MultiMatch struct {
			Query  string   `json:"query"`
			Fields []string `json:"fields"`
		} `json:"multi_match"`
	} `json:"query"`
}

type searchResult struct {
	Hits struct {
		Hits []struct {
			Source struct {
				Filename string `json:"filename"`
				Content  string `json:"content"`
			} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search runs a multi_match query over filename and content and maps
// the hits to raw candidates.
func (a *ElasticAdapter) Search(ctx context.Context, query, index string) ([]entities.RawCandidate, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	var q searchQuery
	q.Query.MultiMatch.Query = query
	q.Query.MultiMatch.Fields = []string{"filename", "content"}

	body, err := json.Marshal(q)
	if err != nil {
		return nil, fmt.Errorf("marshaling query: %w", err)
	}

	res, err := a.es.Search(
		a.es.Search.WithContext(ctx),
		a.es.Search.WithIndex(index),
		a.es.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &entities.RetrievalError{Err: ctx.Err()}
		}
		log.Printf("[ERROR] Elasticsearch: search failed: %v", err)
		return []entities.RawCandidate{}, nil
	}
	defer res.Body.Close()

	if res.IsError() {
		log.Printf("[ERROR] Elasticsearch: search returned %s", res.Status())
		return []entities.RawCandidate{}, nil
	}

	var result searchResult
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		log.Printf("[ERROR] Elasticsearch: decoding response: %v", err)
		return []entities.RawCandidate{}, nil
	}

	candidates := make([]entities.RawCandidate, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		candidates = append(candidates, entities.RawCandidate{
			Title:   hit.Source.Filename,
			Content: hit.Source.Content,
			Path:    hit.Source.Filename,
		})
	}
	log.Printf("[DEBUG] Elasticsearch: %d hits for %q in index %s", len(candidates), query, index)
	return candidates, nil
}
