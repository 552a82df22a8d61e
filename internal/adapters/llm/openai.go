package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gikalabs/localsearch-go/internal/domain/entities"
	"github.com/gikalabs/localsearch-go/internal/domain/ports"
)

// OpenAIAdapter implements ports.GenerationService against any
// OpenAI-compatible chat completions endpoint.
type OpenAIAdapter struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// OpenAIConfig configures the OpenAI-compatible generation adapter.
type OpenAIConfig struct {
	BaseURL   string
	APIKeyEnv string
	Model     string
	Timeout   time.Duration
}

// NewOpenAIAdapter creates the adapter, reading the API key from the
// configured environment variable.
func NewOpenAIAdapter(cfg OpenAIConfig) (*OpenAIAdapter, error) {
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = "OPENAI_API_KEY"
	}
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 300 * time.Second
	}
	return &OpenAIAdapter{
		baseURL: cfg.BaseURL,
		apiKey:  key,
		model:   cfg.Model,
		client:  &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type openAIChatRequest struct {
	Model       string          `json:"model"`
	Messages    []ollamaMessage `json:"messages"`
	Stream      bool            `json:"stream"`
	Temperature *float32        `json:"temperature,omitempty"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type openAIStreamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

// Complete returns the full response text in one call.
func (a *OpenAIAdapter) Complete(ctx context.Context, req ports.GenerationRequest) (string, error) {
	resp, err := a.send(ctx, req, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var chatResp openAIChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return "", &entities.GenerationError{Stage: "openai", Err: fmt.Errorf("empty choices")}
	}
	return chatResp.Choices[0].Message.Content, nil
}

// Stream produces an incremental response via server-sent events.
func (a *OpenAIAdapter) Stream(ctx context.Context, req ports.GenerationRequest) (<-chan ports.StreamToken, error) {
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

			line := strings.TrimSpace(scanner.Text())
			if !strings.HasPrefix(line, "data:") {
				continue
			}
			payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if payload == "[DONE]" {
				ch <- ports.StreamToken{Done: true}
				return
			}

			var chunk openAIStreamChunk
			if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
				continue
			}
			if len(chunk.Choices) == 0 {
				continue
			}
			ch <- ports.StreamToken{Content: chunk.Choices[0].Delta.Content}
		}
		if err := scanner.Err(); err != nil {
			ch <- ports.StreamToken{Done: true, Error: err}
			return
		}
		ch <- ports.StreamToken{Done: true}
	}()

	return ch, nil
}

func (a *OpenAIAdapter) send(ctx context.Context, req ports.GenerationRequest, stream bool) (*http.Response, error) {
	body := openAIChatRequest{
		Model:       a.model,
		Messages:    buildMessages(req),
		Stream:      stream,
		Temperature: req.Options.Temperature,
		MaxTokens:   req.Options.MaxTokens,
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", a.baseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, &entities.GenerationError{Stage: "openai", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, &entities.GenerationError{Stage: "openai", Err: fmt.Errorf("status %d", resp.StatusCode)}
	}
	return resp, nil
}
