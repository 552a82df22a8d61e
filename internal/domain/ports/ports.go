// Package ports defines interfaces for external dependencies.
// Clean Architecture: These are the boundaries - usecases depend on these abstractions,
// not concrete implementations. Adapters implement these interfaces.
package ports

import (
	"context"

	"github.com/gikalabs/localsearch-go/internal/domain/entities"
)

// GenerateOptions carries per-call model configuration.
// A nil Temperature means "use the model server's default"; the pipeline
// pins extraction/summarization calls to 0 and leaves the final answer
// call on whatever the caller supplied. Options are passed per call,
// never written back into a shared model handle.
type GenerateOptions struct {
	Temperature *float32
	MaxTokens   int
}

// TemperatureZero is the options value used for deterministic stages
// (rephrasing, summarization, attribute extraction).
func TemperatureZero() GenerateOptions {
	t := float32(0)
	return GenerateOptions{Temperature: &t}
}

// GenerationRequest is a fully rendered prompt for one model call:
// system instruction, structured history, and the user turn.
type GenerationRequest struct {
	System  string
	History []entities.ChatMessage
	Prompt  string
	Options GenerateOptions
}

// StreamToken represents a single chunk of a streaming model response.
type StreamToken struct {
	Content string
	Done    bool
	Error   error
}

// GenerationService produces text from a language model.
// Single Responsibility: Only generation, no embedding logic.
type GenerationService interface {
	// Complete returns the full response text in one call.
	Complete(ctx context.Context, req GenerationRequest) (string, error)

	// Stream returns the response incrementally, one token/chunk at a time.
	// The channel is closed after the Done token.
	Stream(ctx context.Context, req GenerationRequest) (<-chan StreamToken, error)
}

// EmbeddingService generates vector embeddings for text.
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts efficiently.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// SearchIndex queries the external text-search service for candidates.
// Implementations log index failures and return an empty slice rather
// than surfacing them; only context/request construction errors return.
type SearchIndex interface {
	Search(ctx context.Context, query, index string) ([]entities.RawCandidate, error)
}

// PrecomputedCache is the read-only lookup for per-source summaries and
// embeddings computed out-of-band. Lookups take the raw source path;
// implementations normalize it to the canonical cache key. A miss is a
// normal control-flow branch, not an error.
type PrecomputedCache interface {
	Summary(path string) (string, bool)
	Embedding(path string) ([]float32, bool)
}

// ImageFinder calls the external product-finder service with extracted
// attributes and returns matching image URLs.
type ImageFinder interface {
	FindProducts(ctx context.Context, attrs []entities.AttributePair) ([]string, error)
}
