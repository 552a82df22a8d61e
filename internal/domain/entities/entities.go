// Package entities contains core business entities.
// These are the enterprise business rules - pure domain objects with no external dependencies.
package entities

import (
	"encoding/json"
	"fmt"
)

// ChatMessage represents a single conversation turn.
// The ordered sequence of messages forms the conversation history.
type ChatMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// RawCandidate is a single retrieval hit from the search index.
// Content may be empty; Title is used as content in that case.
type RawCandidate struct {
	Title   string
	Content string
	Path    string
}

// SourceGroup aggregates retrieval fragments that share a source path.
// Content holds the merged fragment text, paragraph-break separated.
// Fragments never exceeds the grouping cap; once a group is capped,
// further fragments for the same path open a new group.
type SourceGroup struct {
	Path      string
	Title     string
	Content   string
	Fragments int
}

// SourceSynopsis is the per-source summary produced for a SourceGroup.
// Embedding is populated when the precomputed cache held a vector for
// the source; otherwise the reranker computes one.
type SourceSynopsis struct {
	Path      string
	Title     string
	Synopsis  string
	Embedding []float32
}

// RankedSource is a SourceSynopsis with its similarity to the query.
type RankedSource struct {
	SourceSynopsis
	Score float64
}

// SourceRef is the metadata-only view of a ranked source carried by the
// "sources" stream event. Synopsis text is never sent to the caller.
type SourceRef struct {
	Title string `json:"title"`
	Path  string `json:"path"`
}

// AttributePair is one validated attribute:value extraction result.
type AttributePair struct {
	Name  string `json:"attribute"`
	Value string `json:"value"`
}

// ImageResult is the outcome of the image-lookup pipeline.
type ImageResult struct {
	Attributes []AttributePair `json:"attributes"`
	Images     []string        `json:"images"`
}

// EventType identifies the kind of a StreamEvent.
type EventType string

const (
	EventSources  EventType = "sources"
	EventResponse EventType = "response"
	EventEnd      EventType = "end"
	EventError    EventType = "error"
)

// StreamEvent is one element of the ordered event sequence a pipeline
// run emits. A valid sequence matches: sources? response* (end|error).
type StreamEvent struct {
	Type    EventType
	Chunk   string      // response text or error message
	Sources []SourceRef // set only for EventSources
}

// MarshalJSON serializes the event in the caller-facing wire format:
// {"type": ..., "data": ...} with data shaped per event kind.
func (e StreamEvent) MarshalJSON() ([]byte, error) {
	switch e.Type {
	case EventSources:
		refs := e.Sources
		if refs == nil {
			refs = []SourceRef{}
		}
		return json.Marshal(struct {
			Type EventType   `json:"type"`
			Data []SourceRef `json:"data"`
		}{e.Type, refs})
	case EventResponse, EventError:
		return json.Marshal(struct {
			Type EventType `json:"type"`
			Data string    `json:"data"`
		}{e.Type, e.Chunk})
	default:
		return json.Marshal(struct {
			Type EventType `json:"type"`
		}{e.Type})
	}
}

// ParseError indicates model output did not contain the expected
// delimited block (e.g. a missing <question> span).
type ParseError struct {
	Block  string // name of the expected block
	Output string // raw model output, for server-side logs only
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("missing or malformed <%s> block in model output", e.Block)
}

// RetrievalError indicates the search index was unreachable or errored.
type RetrievalError struct {
	Err error
}

func (e *RetrievalError) Error() string { return fmt.Sprintf("retrieval failed: %v", e.Err) }
func (e *RetrievalError) Unwrap() error { return e.Err }

// GenerationError indicates a generation-model call failed or timed out.
type GenerationError struct {
	Stage string // pipeline stage that issued the call
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed in %s: %v", e.Stage, e.Err)
}
func (e *GenerationError) Unwrap() error { return e.Err }

// EmbeddingError indicates an embedding-model call failed.
type EmbeddingError struct {
	Err error
}

func (e *EmbeddingError) Error() string { return fmt.Sprintf("embedding failed: %v", e.Err) }
func (e *EmbeddingError) Unwrap() error { return e.Err }
