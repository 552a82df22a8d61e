// Package llm provides generation-model adapters.
// Clean Architecture: Adapters implementing ports.GenerationService.
package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gikalabs/localsearch-go/internal/domain/entities"
	"github.com/gikalabs/localsearch-go/internal/domain/ports"
)

// OllamaAdapter implements ports.GenerationService using the Ollama
// chat API.
type OllamaAdapter struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewOllamaAdapter creates a new Ollama generation adapter.
func NewOllamaAdapter(baseURL, model string, timeout time.Duration) *OllamaAdapter {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3.2"
	}
	if timeout <= 0 {
		timeout = 300 * time.Second // longer timeout for streaming
	}
	return &OllamaAdapter{
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaOptions struct {
	Temperature *float32 `json:"temperature,omitempty"`
	NumPredict  int      `json:"num_predict,omitempty"`
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  *ollamaOptions  `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
}

// buildMessages renders system, history and user turn in chat order.
func buildMessages(req ports.GenerationRequest) []ollamaMessage {
	msgs := make([]ollamaMessage, 0, len(req.History)+2)
	if req.System != "" {
		msgs = append(msgs, ollamaMessage{Role: "system", Content: req.System})
	}
	for _, m := range req.History {
		msgs = append(msgs, ollamaMessage{Role: m.Role, Content: m.Content})
	}
	msgs = append(msgs, ollamaMessage{Role: "user", Content: req.Prompt})
	return msgs
}

func buildOptions(opts ports.GenerateOptions) *ollamaOptions {
	if opts.Temperature == nil && opts.MaxTokens == 0 {
		return nil
	}
	return &ollamaOptions{Temperature: opts.Temperature, NumPredict: opts.MaxTokens}
}

// Complete returns the full response text in one call.
func (a *OllamaAdapter) Complete(ctx context.Context, req ports.GenerationRequest) (string, error) {
	resp, err := a.send(ctx, req, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var chatResp ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	return chatResp.Message.Content, nil
}

// Stream produces an incremental response via Ollama's streaming API.
func (a *OllamaAdapter) Stream(ctx context.Context, req ports.GenerationRequest) (<-chan ports.StreamToken, error) {
	resp, err := a.send(ctx, req, true)
	if err != nil {
		return nil, err
	}

	ch := make(chan ports.StreamToken, 100)

	go func() {
		defer close(ch)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case <-ctx.Done():
				ch <- ports.StreamToken{Done: true, Error: ctx.Err()}
				return
			default:
			}

			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}

			var chunk ollamaChatResponse
			if err := json.Unmarshal(line, &chunk); err != nil {
				continue // skip malformed lines
			}

			ch <- ports.StreamToken{Content: chunk.Message.Content, Done: chunk.Done}
			if chunk.Done {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			ch <- ports.StreamToken{Done: true, Error: err}
		}
	}()

	return ch, nil
}

func (a *OllamaAdapter) send(ctx context.Context, req ports.GenerationRequest, stream bool) (*http.Response, error) {
	body := ollamaChatRequest{
		Model:    a.model,
		Messages: buildMessages(req),
		Stream:   stream,
		Options:  buildOptions(req.Options),
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", a.baseURL+"/api/chat", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, &entities.GenerationError{Stage: "ollama", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, &entities.GenerationError{Stage: "ollama", Err: fmt.Errorf("status %d", resp.StatusCode)}
	}
	return resp, nil
}
