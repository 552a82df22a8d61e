// Command localsearch runs the document answering server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/gikalabs/localsearch-go/internal/adapters/cache"
	"github.com/gikalabs/localsearch-go/internal/adapters/embedding"
	"github.com/gikalabs/localsearch-go/internal/adapters/imagesearch"
	"github.com/gikalabs/localsearch-go/internal/adapters/llm"
	"github.com/gikalabs/localsearch-go/internal/adapters/searchindex"
	"github.com/gikalabs/localsearch-go/internal/config"
	"github.com/gikalabs/localsearch-go/internal/domain/ports"
	"github.com/gikalabs/localsearch-go/internal/domain/usecases"
	httpserver "github.com/gikalabs/localsearch-go/internal/infrastructure/http"
)

var configPath = flag.String("config", "config.yaml", "Path to the YAML config file")

func main() {
	flag.Parse()

	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err == nil {
		log.Printf("[INFO] Loaded .env")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("[ERROR] Loading config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		log.Printf("[INFO] Shutting down...")
		cancel()
	}()

	generator, err := buildGenerator(cfg)
	if err != nil {
		log.Fatalf("[ERROR] Building generation adapter: %v", err)
	}
	embedder, err := buildEmbedder(cfg)
	if err != nil {
		log.Fatalf("[ERROR] Building embedding adapter: %v", err)
	}

	index, err := searchindex.NewElasticAdapter(cfg.Search.Addresses, secs(cfg.Search.TimeoutSecs))
	if err != nil {
		log.Fatalf("[ERROR] Building search adapter: %v", err)
	}

	store, err := cache.NewFileCache(cfg.Cache.SummariesPath, cfg.Cache.EmbeddingsPath, cfg.Cache.Root)
	if err != nil {
		log.Fatalf("[ERROR] Loading cache: %v", err)
	}
	if cfg.Cache.Watch {
		go func() {
			if err := store.Watch(ctx); err != nil {
				log.Printf("[ERROR] Cache watcher stopped: %v", err)
			}
		}()
	}

	pipeline := usecases.NewPipeline(
		usecases.NewRephraser(generator, 0),
		index,
		usecases.NewGrouper(cfg.Pipeline.FragmentCap),
		usecases.NewSummarizer(generator, store, cfg.Pipeline.MaxConcurrent, 0),
		usecases.NewReranker(embedder, store, cfg.Pipeline.TopK, cfg.Pipeline.MaxConcurrent, 0),
		usecases.NewAnswerGenerator(generator),
		cfg.Search.Index,
	)

	images := usecases.NewImageSearch(
		usecases.NewAttributeExtractor(generator, 0),
		imagesearch.NewClient(cfg.Images.URL, secs(cfg.Images.TimeoutSecs)),
	)

	server := httpserver.NewServer(pipeline, images, cfg.Addr)
	if err := server.Start(ctx); err != nil {
		log.Printf("[INFO] Server stopped: %v", err)
	}
}

func buildGenerator(cfg *config.AppConfig) (ports.GenerationService, error) {
	switch cfg.LLM.Type {
	case "ollama", "":
		c := cfg.LLM.Ollama
		if c == nil {
			c = &config.OllamaConfig{}
		}
		return llm.NewOllamaAdapter(c.BaseURL, c.Model, secs(c.TimeoutSecs)), nil
	case "openai":
		c := cfg.LLM.OpenAI
		if c == nil {
			c = &config.OpenAIConfig{}
		}
		return llm.NewOpenAIAdapter(llm.OpenAIConfig{
			BaseURL:   c.BaseURL,
			APIKeyEnv: c.APIKeyEnv,
			Model:     c.Model,
			Timeout:   secs(c.TimeoutSecs),
		})
	default:
		return nil, fmt.Errorf("unknown llm type %q", cfg.LLM.Type)
	}
}

func buildEmbedder(cfg *config.AppConfig) (ports.EmbeddingService, error) {
	switch cfg.Embedder.Type {
	case "ollama", "":
		c := cfg.Embedder.Ollama
		if c == nil {
			c = &config.OllamaConfig{}
		}
		return embedding.NewOllamaAdapter(c.BaseURL, c.Model, secs(c.TimeoutSecs)), nil
	case "openai":
		c := cfg.Embedder.OpenAI
		if c == nil {
			c = &config.OpenAIConfig{}
		}
		return embedding.NewOpenAIAdapter(embedding.OpenAIConfig{
			BaseURL:   c.BaseURL,
			APIKeyEnv: c.APIKeyEnv,
			Model:     c.Model,
			Timeout:   secs(c.TimeoutSecs),
		})
	default:
		return nil, fmt.Errorf("unknown embedder type %q", cfg.Embedder.Type)
	}
}

func secs(n int) time.Duration {
	return time.Duration(n) * time.Second
}
