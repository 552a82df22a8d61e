package usecases

import (
	"context"
	"log"

	"github.com/google/uuid"

	"github.com/gikalabs/localsearch-go/internal/domain/entities"
	"github.com/gikalabs/localsearch-go/internal/domain/ports"
)

// genericErrorMessage is the only error detail ever surfaced to the
// caller; full internals stay in server-side logs.
const genericErrorMessage = "An error occurred while searching local documents. Please try again later."

// Pipeline composes the answering stages end-to-end and owns the
// emitted event sequence: sources? response* (end|error).
type Pipeline struct {
	rephraser  *Rephraser
	index      ports.SearchIndex
	grouper    *Grouper
	summarizer *Summarizer
	reranker   *Reranker
	answerer   *AnswerGenerator
	indexName  string
}

// NewPipeline creates the orchestrator with all stages injected.
func NewPipeline(
	rephraser *Rephraser,
	index ports.SearchIndex,
	grouper *Grouper,
	summarizer *Summarizer,
	reranker *Reranker,
	answerer *AnswerGenerator,
	indexName string,
) *Pipeline {
	return &Pipeline{
		rephraser:  rephraser,
		index:      index,
		grouper:    grouper,
		summarizer: summarizer,
		reranker:   reranker,
		answerer:   answerer,
		indexName:  indexName,
	}
}

// Run executes the pipeline for one query and returns its event stream.
// The channel is closed after the terminal event. Cancelling ctx
// abandons in-flight work.
func (p *Pipeline) Run(ctx context.Context, query string, history []entities.ChatMessage, opts ports.GenerateOptions) <-chan entities.StreamEvent {
	events := make(chan entities.StreamEvent, 16)
	go p.run(ctx, query, history, opts, events)
	return events
}

func (p *Pipeline) run(ctx context.Context, query string, history []entities.ChatMessage, opts ports.GenerateOptions, events chan<- entities.StreamEvent) {
	defer close(events)

	runID := uuid.NewString()
	log.Printf("[INFO] pipeline %s: query %q", runID, query)

	emit := func(ev entities.StreamEvent) bool {
		select {
		case events <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}
	fail := func(stage string, err error) {
		log.Printf("[ERROR] pipeline %s: %s: %v", runID, stage, err)
		emit(entities.StreamEvent{Type: entities.EventError, Chunk: genericErrorMessage})
	}

	// REPHRASING
	standalone, needed, err := p.rephraser.Rephrase(ctx, history, query)
	if err != nil {
		fail("rephrase", err)
		return
	}

	// SHORT_CIRCUIT: no information need, answer in writing-assistant
	// mode with no sources event.
	if !needed {
		tokens, err := p.answerer.StreamWriting(ctx, query, history, opts)
		if err != nil {
			fail("answer", &entities.GenerationError{Stage: "answer", Err: err})
			return
		}
		p.relay(ctx, runID, tokens, emit, fail)
		return
	}

	// RETRIEVING
	candidates, err := p.index.Search(ctx, standalone, p.indexName)
	if err != nil {
		fail("retrieve", &entities.RetrievalError{Err: err})
		return
	}
	log.Printf("[DEBUG] pipeline %s: %d candidates for %q", runID, len(candidates), standalone)

	// GROUPING
	groups := p.grouper.Group(candidates)

	// SUMMARIZING
	synopses, err := p.summarizer.SummarizeAll(ctx, groups, standalone)
	if err != nil {
		fail("summarize", err)
		return
	}

	// RERANKING
	ranked, err := p.reranker.Rerank(ctx, standalone, synopses)
	if err != nil {
		fail("rerank", err)
		return
	}

	refs := make([]entities.SourceRef, len(ranked))
	for i, r := range ranked {
		refs[i] = entities.SourceRef{Title: r.Title, Path: r.Path}
	}
	if !emit(entities.StreamEvent{Type: entities.EventSources, Sources: refs}) {
		return
	}

	// ANSWERING
	tokens, err := p.answerer.StreamAnswer(ctx, standalone, history, ranked, opts)
	if err != nil {
		fail("answer", &entities.GenerationError{Stage: "answer", Err: err})
		return
	}
	p.relay(ctx, runID, tokens, emit, fail)
}

// relay forwards model chunks as response events and closes the
// sequence with exactly one terminal event.
func (p *Pipeline) relay(ctx context.Context, runID string, tokens <-chan ports.StreamToken, emit func(entities.StreamEvent) bool, fail func(string, error)) {
	for tok := range tokens {
		if tok.Error != nil {
			fail("answer stream", tok.Error)
			return
		}
		if tok.Content != "" {
			if !emit(entities.StreamEvent{Type: entities.EventResponse, Chunk: tok.Content}) {
				return
			}
		}
	}
	if ctx.Err() != nil {
		log.Printf("[INFO] pipeline %s: abandoned, caller gone", runID)
		return
	}
	emit(entities.StreamEvent{Type: entities.EventEnd})
	log.Printf("[OK] pipeline %s: done", runID)
}
