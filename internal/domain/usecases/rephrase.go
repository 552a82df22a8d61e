package usecases

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gikalabs/localsearch-go/internal/domain/entities"
	"github.com/gikalabs/localsearch-go/internal/domain/ports"
)

// noRetrievalSentinel is the value the rephrasing model returns for
// greetings and pure writing tasks that carry no information need.
const noRetrievalSentinel = "not_needed"

const rephrasePrompt = `You are an AI question rephraser. You will be given a conversation and a follow-up question. Your task is to rephrase the follow-up question so it is a standalone question that can be used to search a local document database.
If it is a simple writing task or a greeting (unless the greeting contains a question after it) like Hi, Hello, How are you, etc., then you need to return ` + "`not_needed`" + ` as the response.
You must always return the rephrased question inside the ` + "`question`" + ` XML block.

<examples>
1. Follow up question: What is the capital of France?
Rephrased question:
<question>
Capital of France
</question>

2. Hi, how are you?
Rephrased question:
<question>
not_needed
</question>

3. Follow up question: Can you explain Docker in simple terms?
Rephrased question:
<question>
Explain Docker in simple terms
</question>
</examples>

Anything below is part of the actual conversation. Use the conversation and the follow-up question to rephrase the follow-up question as a standalone question based on the guidelines shared above.

<conversation>
%s
</conversation>

Follow up question: %s
Rephrased question:
`

// Rephraser turns (history, follow-up question) into a standalone search
// query, or signals that no retrieval is required.
type Rephraser struct {
	llm     ports.GenerationService
	timeout time.Duration
}

// NewRephraser creates a Rephraser with the injected generation service.
func NewRephraser(llm ports.GenerationService, timeout time.Duration) *Rephraser {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Rephraser{llm: llm, timeout: timeout}
}

// Rephrase returns the standalone query and whether retrieval is needed.
// The model output must carry the query inside a <question> block; a
// missing or malformed block is a ParseError, never silently replaced
// by the raw follow-up question.
func (r *Rephraser) Rephrase(ctx context.Context, history []entities.ChatMessage, query string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req := ports.GenerationRequest{
		Prompt:  fmt.Sprintf(rephrasePrompt, FormatHistory(history), query),
		Options: ports.TemperatureZero(),
	}

	out, err := r.llm.Complete(ctx, req)
	if err != nil {
		return "", false, &entities.GenerationError{Stage: "rephrase", Err: err}
	}

	question, err := ExtractBlock(out, "question")
	if err != nil {
		return "", false, err
	}

	if question == noRetrievalSentinel {
		log.Printf("[DEBUG] Rephraser: no retrieval needed for query %q", query)
		return "", false, nil
	}
	return question, true, nil
}

// ExtractBlock is a strict single-field parser: it returns the trimmed
// text between <name> and </name> in the model output. Absent or
// malformed blocks fail with a ParseError.
func ExtractBlock(output, name string) (string, error) {
	open := "<" + name + ">"
	close := "</" + name + ">"

	start := strings.Index(output, open)
	if start < 0 {
		return "", &entities.ParseError{Block: name, Output: output}
	}
	rest := output[start+len(open):]
	end := strings.Index(rest, close)
	if end < 0 {
		return "", &entities.ParseError{Block: name, Output: output}
	}
	return strings.TrimSpace(rest[:end]), nil
}

// FormatHistory renders conversation history as plain "role: content"
// lines for prompt templates.
func FormatHistory(history []entities.ChatMessage) string {
	lines := make([]string, len(history))
	for i, m := range history {
		lines[i] = m.Role + ": " + m.Content
	}
	return strings.Join(lines, "\n")
}
