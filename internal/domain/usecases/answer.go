package usecases

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gikalabs/localsearch-go/internal/domain/entities"
	"github.com/gikalabs/localsearch-go/internal/domain/ports"
)

// FallbackAnswer is the fixed response used when no relevant context
// exists for an informational query.
const FallbackAnswer = "I'm sorry, I couldn't find any relevant information on this topic in our local documents. Would you like me to search for something else?"

const answerSystemPrompt = `You are Gika, an AI model expert at answering queries based on local document storage.
Generate a response that is informative and relevant to the user's query based on provided context from our local document index.
Use an unbiased and journalistic tone in your response. Do not repeat the text verbatim.
You must not include sentences like "Based on the provided context..." or any other introductory meta-commentary; jump directly to the answer.
Your responses should be medium to long in length, informative, and relevant to the user's query. Use markdown to format your response and bullet points to list information.
Cite your sources using [number] notation at the end of each relevant sentence. The number refers to the document number in the provided context.
If you can't find relevant information, say "` + FallbackAnswer + `"

<context>
%s
</context>

Anything between the ` + "`context`" + ` tags is retrieved from our local document index and is not part of the conversation with the user. Today's date is %s`

const writingSystemPrompt = `You are Gika, an AI model who is expert at answering user's queries. You are currently set on focus mode 'Writing Assistant', this means you will be helping the user write a response to a given query.
Since you are a writing assistant, you do not perform document searches. If you think you lack information to answer the query, you can ask the user for more information or suggest them to rephrase the question.
You must not include sentences like "Based on the provided context..." or "Based on the conversation" in your response.
You do not need any introductory sentence; jump directly to the actual result of the user query.`

// AnswerGenerator renders the final cited answer as a chunk stream.
type AnswerGenerator struct {
	llm ports.GenerationService
}

// NewAnswerGenerator creates an AnswerGenerator with the injected
// generation service.
func NewAnswerGenerator(llm ports.GenerationService) *AnswerGenerator {
	return &AnswerGenerator{llm: llm}
}

// StreamAnswer generates the cited answer for an informational query.
// Ranked sources are rendered as a numbered context block whose 1-based
// indices match the [n] citation markers the model is instructed to
// emit. opts is the caller-supplied model configuration, passed through
// unmodified.
func (a *AnswerGenerator) StreamAnswer(ctx context.Context, query string, history []entities.ChatMessage, sources []entities.RankedSource, opts ports.GenerateOptions) (<-chan ports.StreamToken, error) {
	req := ports.GenerationRequest{
		System:  fmt.Sprintf(answerSystemPrompt, renderContext(sources), time.Now().Format(time.RFC3339)),
		History: history,
		Prompt:  query,
		Options: opts,
	}
	return a.llm.Stream(ctx, req)
}

// StreamWriting generates a response in writing-assistant mode: no
// retrieval, no context block. Used on the short-circuit path.
func (a *AnswerGenerator) StreamWriting(ctx context.Context, query string, history []entities.ChatMessage, opts ports.GenerateOptions) (<-chan ports.StreamToken, error) {
	req := ports.GenerationRequest{
		System:  writingSystemPrompt,
		History: history,
		Prompt:  query,
		Options: opts,
	}
	return a.llm.Stream(ctx, req)
}

// renderContext numbers each source synopsis for citation.
func renderContext(sources []entities.RankedSource) string {
	var sb strings.Builder
	for i, s := range sources {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, s.Synopsis)
	}
	return sb.String()
}
