package usecases

import (
	"context"
	"strings"
	"testing"

	"github.com/gikalabs/localsearch-go/internal/domain/entities"
	"github.com/gikalabs/localsearch-go/internal/domain/ports"
)

func drain(ch <-chan ports.StreamToken) string {
	var sb strings.Builder
	for tok := range ch {
		sb.WriteString(tok.Content)
	}
	return sb.String()
}

func TestAnswerGenerator_NumbersContextForCitations(t *testing.T) {
	llm := &mockLLM{streamChunks: []string{"answer"}}
	a := NewAnswerGenerator(llm)

	sources := []entities.RankedSource{
		{SourceSynopsis: entities.SourceSynopsis{Path: "a", Synopsis: "first synopsis"}},
		{SourceSynopsis: entities.SourceSynopsis{Path: "b", Synopsis: "second synopsis"}},
	}
	ch, err := a.StreamAnswer(context.Background(), "query", nil, sources, ports.GenerateOptions{})
	if err != nil {
		t.Fatalf("stream failed: %v", err)
	}
	drain(ch)

	system := llm.streamRequest.System
	if !strings.Contains(system, "1. first synopsis") {
		t.Error("context block should number the first source as 1")
	}
	if !strings.Contains(system, "2. second synopsis") {
		t.Error("context block should number the second source as 2")
	}
	if !strings.Contains(system, "[number]") {
		t.Error("system prompt should instruct citation markers")
	}
	if !strings.Contains(system, FallbackAnswer) {
		t.Error("system prompt should carry the fixed fallback sentence")
	}
}

func TestAnswerGenerator_PassesCallerOptionsUnmodified(t *testing.T) {
	llm := &mockLLM{streamChunks: []string{"x"}}
	a := NewAnswerGenerator(llm)

	temp := float32(0.7)
	opts := ports.GenerateOptions{Temperature: &temp, MaxTokens: 512}
	ch, err := a.StreamAnswer(context.Background(), "query", nil, nil, opts)
	if err != nil {
		t.Fatalf("stream failed: %v", err)
	}
	drain(ch)

	got := llm.streamRequest.Options
	if got.Temperature == nil || *got.Temperature != 0.7 {
		t.Error("caller temperature must pass through unmodified")
	}
	if got.MaxTokens != 512 {
		t.Errorf("caller max tokens must pass through, got %d", got.MaxTokens)
	}
}

func TestAnswerGenerator_ForwardsHistoryAndQuery(t *testing.T) {
	llm := &mockLLM{streamChunks: []string{"x"}}
	a := NewAnswerGenerator(llm)

	history := []entities.ChatMessage{{Role: "user", Content: "earlier turn"}}
	ch, err := a.StreamAnswer(context.Background(), "the question", history, nil, ports.GenerateOptions{})
	if err != nil {
		t.Fatalf("stream failed: %v", err)
	}
	drain(ch)

	if len(llm.streamRequest.History) != 1 || llm.streamRequest.History[0].Content != "earlier turn" {
		t.Error("history should be forwarded as structured messages")
	}
	if llm.streamRequest.Prompt != "the question" {
		t.Errorf("query should be the user turn, got %q", llm.streamRequest.Prompt)
	}
}

func TestAnswerGenerator_WritingModeHasNoContextBlock(t *testing.T) {
	llm := &mockLLM{streamChunks: []string{"x"}}
	a := NewAnswerGenerator(llm)

	ch, err := a.StreamWriting(context.Background(), "write a haiku", nil, ports.GenerateOptions{})
	if err != nil {
		t.Fatalf("stream failed: %v", err)
	}
	drain(ch)

	system := llm.streamRequest.System
	if !strings.Contains(system, "Writing Assistant") {
		t.Error("writing mode should use the writing-assistant persona")
	}
	if strings.Contains(system, "<context>") {
		t.Error("writing mode must not carry a retrieval context block")
	}
}
