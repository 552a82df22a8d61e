package usecases

import (
	"context"
	"log"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gikalabs/localsearch-go/internal/domain/entities"
	"github.com/gikalabs/localsearch-go/internal/domain/ports"
)

// DefaultTopK is the number of ranked sources handed to the answer stage.
const DefaultTopK = 5

// Reranker scores synopses against the query by embedding cosine
// similarity and selects the top-K sources.
type Reranker struct {
	embedder      ports.EmbeddingService
	cache         ports.PrecomputedCache
	topK          int
	maxConcurrent int
	timeout       time.Duration
}

// NewReranker creates a Reranker with the injected embedding service
// and precomputed cache.
func NewReranker(embedder ports.EmbeddingService, cache ports.PrecomputedCache, topK, maxConcurrent int, timeout time.Duration) *Reranker {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Reranker{embedder: embedder, cache: cache, topK: topK, maxConcurrent: maxConcurrent, timeout: timeout}
}

// Rerank returns the top-K sources sorted by descending similarity to
// the query, ties broken by original retrieval order (stable sort).
// An empty synopsis list is returned unchanged. The query embedding is
// always computed fresh - queries are rarely repeated verbatim - while
// synopsis embeddings come from the cache when available.
func (r *Reranker) Rerank(ctx context.Context, query string, synopses []entities.SourceSynopsis) ([]entities.RankedSource, error) {
	if len(synopses) == 0 {
		return []entities.RankedSource{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var queryEmbedding []float32
	vectors := make([][]float32, len(synopses))

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(r.maxConcurrent)

	eg.Go(func() error {
		emb, err := r.embedder.Embed(gctx, query)
		if err != nil {
			return &entities.EmbeddingError{Err: err}
		}
		queryEmbedding = emb
		return nil
	})

	for i, syn := range synopses {
		i, syn := i, syn
		eg.Go(func() error {
			if len(syn.Embedding) > 0 {
				vectors[i] = syn.Embedding
				return nil
			}
			if emb, ok := r.cache.Embedding(syn.Path); ok {
				log.Printf("[DEBUG] Reranker: embedding cache hit for %s", syn.Path)
				vectors[i] = emb
				return nil
			}
			emb, err := r.embedder.Embed(gctx, syn.Synopsis)
			if err != nil {
				return &entities.EmbeddingError{Err: err}
			}
			vectors[i] = emb
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	ranked := make([]entities.RankedSource, len(synopses))
	for i, syn := range synopses {
		syn.Embedding = vectors[i]
		ranked[i] = entities.RankedSource{
			SourceSynopsis: syn,
			Score:          CosineSimilarity(queryEmbedding, vectors[i]),
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if len(ranked) > r.topK {
		ranked = ranked[:r.topK]
	}
	return ranked, nil
}
