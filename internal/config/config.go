// Package config loads the application configuration from YAML.
package config

import (
	"errors"
	"os"

	"gopkg.in/yaml.v3"
)

// OllamaConfig holds connection details for a local Ollama server.
type OllamaConfig struct {
	BaseURL     string `yaml:"base_url"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// OpenAIConfig holds connection details for an OpenAI-compatible API.
type OpenAIConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// LLMConfig selects and configures the generation-model adapter.
type LLMConfig struct {
	Type   string        `yaml:"type"` // "ollama" or "openai"
	Ollama *OllamaConfig `yaml:"ollama,omitempty"`
	OpenAI *OpenAIConfig `yaml:"openai,omitempty"`
}

// EmbedderConfig selects and configures the embedding-model adapter.
type EmbedderConfig struct {
	Type   string        `yaml:"type"` // "ollama" or "openai"
	Ollama *OllamaConfig `yaml:"ollama,omitempty"`
	OpenAI *OpenAIConfig `yaml:"openai,omitempty"`
}

// SearchConfig configures the Elasticsearch index adapter.
type SearchConfig struct {
	Addresses   []string `yaml:"addresses"`
	Index       string   `yaml:"index"`
	TimeoutSecs int      `yaml:"timeout_secs"`
}

// CacheConfig configures the precomputed summary/embedding cache.
type CacheConfig struct {
	SummariesPath  string `yaml:"summaries_path"`
	EmbeddingsPath string `yaml:"embeddings_path"`
	Root           string `yaml:"root"`
	Watch          bool   `yaml:"watch"`
}

// PipelineConfig tunes the answering pipeline.
type PipelineConfig struct {
	TopK          int `yaml:"top_k"`
	FragmentCap   int `yaml:"fragment_cap"`
	MaxConcurrent int `yaml:"max_concurrent"`
}

// ImagesConfig configures the product-finder client.
type ImagesConfig struct {
	URL         string `yaml:"url"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Addr     string         `yaml:"addr"`
	LLM      LLMConfig      `yaml:"llm"`
	Embedder EmbedderConfig `yaml:"embedder"`
	Search   SearchConfig   `yaml:"search"`
	Cache    CacheConfig    `yaml:"cache"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Images   ImagesConfig   `yaml:"images"`
}

// Load reads a config from the specified path. If the file does not
// exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.LLM.Type == "" {
		cfg.LLM.Type = "ollama"
	}
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "ollama"
	}
	if len(cfg.Search.Addresses) == 0 {
		cfg.Search.Addresses = []string{"http://localhost:9200"}
	}
	if cfg.Search.Index == "" {
		cfg.Search.Index = "knowledge"
	}
	if cfg.Search.TimeoutSecs == 0 {
		cfg.Search.TimeoutSecs = 10
	}
	if cfg.Cache.Root == "" {
		cfg.Cache.Root = "Knowledge"
	}
	if cfg.Pipeline.TopK == 0 {
		cfg.Pipeline.TopK = 5
	}
	if cfg.Pipeline.FragmentCap == 0 {
		cfg.Pipeline.FragmentCap = 10
	}
	if cfg.Pipeline.MaxConcurrent == 0 {
		cfg.Pipeline.MaxConcurrent = 8
	}
	if cfg.Images.URL == "" {
		cfg.Images.URL = "http://localhost:5000/find_products"
	}
	if cfg.Images.TimeoutSecs == 0 {
		cfg.Images.TimeoutSecs = 10
	}
}
