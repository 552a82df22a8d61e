package usecases

import (
	"context"
	"fmt"
	"sync"

	"github.com/gikalabs/localsearch-go/internal/domain/entities"
	"github.com/gikalabs/localsearch-go/internal/domain/ports"
)

// mockLLM implements ports.GenerationService for testing.
// Complete consumes scripted responses in order; Stream replays chunks.
type mockLLM struct {
	mu           sync.Mutex
	responses    []string // consumed by Complete in call order
	streamChunks []string
	err          error
	streamErr    error

	completeCalls int
	streamCalls   int
	lastRequest   ports.GenerationRequest
	streamRequest ports.GenerationRequest
}

func (m *mockLLM) Complete(ctx context.Context, req ports.GenerationRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completeCalls++
	m.lastRequest = req
	if m.err != nil {
		return "", m.err
	}
	if len(m.responses) == 0 {
		return "mocked answer", nil
	}
	resp := m.responses[0]
	if len(m.responses) > 1 {
		m.responses = m.responses[1:]
	}
	return resp, nil
}

func (m *mockLLM) Stream(ctx context.Context, req ports.GenerationRequest) (<-chan ports.StreamToken, error) {
	m.mu.Lock()
	m.streamCalls++
	m.streamRequest = req
	chunks := m.streamChunks
	streamErr := m.streamErr
	m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}

	ch := make(chan ports.StreamToken, len(chunks)+1)
	go func() {
		defer close(ch)
		for _, c := range chunks {
			ch <- ports.StreamToken{Content: c}
		}
		if streamErr != nil {
			ch <- ports.StreamToken{Done: true, Error: streamErr}
			return
		}
		ch <- ports.StreamToken{Done: true}
	}()
	return ch, nil
}

// mockEmbedder implements ports.EmbeddingService with a fixed mapping
// from text to vector.
type mockEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32
	err     error
	calls   int
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if v, ok := m.vectors[text]; ok {
		return v, nil
	}
	return []float32{1, 0, 0}, nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := m.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// mockCache implements ports.PrecomputedCache over plain maps keyed by
// the raw path (tests treat ids as opaque).
type mockCache struct {
	summaries  map[string]string
	embeddings map[string][]float32
}

func (m *mockCache) Summary(path string) (string, bool) {
	s, ok := m.summaries[path]
	return s, ok
}

func (m *mockCache) Embedding(path string) ([]float32, bool) {
	e, ok := m.embeddings[path]
	return e, ok
}

// mockIndex implements ports.SearchIndex.
type mockIndex struct {
	candidates []entities.RawCandidate
	err        error
	calls      int
}

func (m *mockIndex) Search(ctx context.Context, query, index string) ([]entities.RawCandidate, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.candidates, nil
}

// mockFinder implements ports.ImageFinder.
type mockFinder struct {
	images []string
	err    error
	last   []entities.AttributePair
}

func (m *mockFinder) FindProducts(ctx context.Context, attrs []entities.AttributePair) ([]string, error) {
	m.last = attrs
	if m.err != nil {
		return nil, m.err
	}
	return m.images, nil
}

// questionBlock wraps q in the delimited form the rephraser expects.
func questionBlock(q string) string {
	return fmt.Sprintf("<question>\n%s\n</question>", q)
}
