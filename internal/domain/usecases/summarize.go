package usecases

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gikalabs/localsearch-go/internal/domain/entities"
	"github.com/gikalabs/localsearch-go/internal/domain/ports"
)

// DefaultMaxConcurrent bounds simultaneous external-model calls within
// a parallel batch (summarization, embedding).
const DefaultMaxConcurrent = 8

const summarizePrompt = `You are a text summarizer. You need to summarize the text provided inside the ` + "`text`" + ` XML block.
Capture the main ideas of the text without missing any crucial points. For information-dense text, use multiple paragraphs rather than compressing everything into one.
You must not include sentences like "Based on the context..." or any other introductory meta-commentary; jump directly into the summary.
You will also be given a ` + "`query`" + ` XML block which contains the user's query. Try to answer the query in the summary from the text provided.
If the query says "summarize" then just summarize the text without specifically answering the query.
Only return the summarized text without any other messages, text or XML blocks.

<query>
%s
</query>

<text>
%s
</text>
`

// Summarizer produces a synopsis per source group, consulting the
// precomputed cache before invoking the generation model.
type Summarizer struct {
	llm           ports.GenerationService
	cache         ports.PrecomputedCache
	maxConcurrent int
	timeout       time.Duration
}

// NewSummarizer creates a Summarizer. maxConcurrent caps in-flight
// generation calls for one batch; timeout bounds each individual call.
func NewSummarizer(llm ports.GenerationService, cache ports.PrecomputedCache, maxConcurrent int, timeout time.Duration) *Summarizer {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Summarizer{llm: llm, cache: cache, maxConcurrent: maxConcurrent, timeout: timeout}
}

// SummarizeAll summarizes every group as a bounded parallel batch.
// Results are correlated by index, so the returned synopses are in the
// original group order regardless of completion order.
func (s *Summarizer) SummarizeAll(ctx context.Context, groups []entities.SourceGroup, query string) ([]entities.SourceSynopsis, error) {
	synopses := make([]entities.SourceSynopsis, len(groups))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(s.maxConcurrent)
	for i, group := range groups {
		i, group := i, group
		eg.Go(func() error {
			syn, err := s.Summarize(ctx, group, query)
			if err != nil {
				return err
			}
			synopses[i] = syn
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return synopses, nil
}

// Summarize produces the synopsis for one group. A cache hit for the
// normalized source id is used verbatim with no model call; the cached
// embedding, when present, rides along for the reranker.
func (s *Summarizer) Summarize(ctx context.Context, group entities.SourceGroup, query string) (entities.SourceSynopsis, error) {
	syn := entities.SourceSynopsis{Path: group.Path, Title: group.Title}

	if cached, ok := s.cache.Summary(group.Path); ok {
		log.Printf("[DEBUG] Summarizer: cache hit for %s", group.Path)
		syn.Synopsis = cached
		if emb, ok := s.cache.Embedding(group.Path); ok {
			syn.Embedding = emb
		}
		return syn, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req := ports.GenerationRequest{
		Prompt:  fmt.Sprintf(summarizePrompt, query, group.Content),
		Options: ports.TemperatureZero(),
	}
	out, err := s.llm.Complete(ctx, req)
	if err != nil {
		return entities.SourceSynopsis{}, &entities.GenerationError{Stage: "summarize", Err: err}
	}

	syn.Synopsis = out
	return syn, nil
}
