// Package http provides the HTTP server infrastructure.
// Clean Architecture: Framework/driver layer - outermost circle.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/gikalabs/localsearch-go/internal/domain/entities"
	"github.com/gikalabs/localsearch-go/internal/domain/ports"
)

// SearchPipeline is the answering pipeline as the server sees it.
type SearchPipeline interface {
	Run(ctx context.Context, query string, history []entities.ChatMessage, opts ports.GenerateOptions) <-chan entities.StreamEvent
}

// ImageService is the image-lookup pipeline as the server sees it.
type ImageService interface {
	Find(ctx context.Context, query string, history []entities.ChatMessage) (*entities.ImageResult, error)
}

// Server exposes the pipelines over HTTP: an SSE stream for answers,
// a JSON endpoint for image lookup, and a health check.
type Server struct {
	pipeline SearchPipeline
	images   ImageService
	addr     string
}

// NewServer creates a new HTTP server.
func NewServer(pipeline SearchPipeline, images ImageService, addr string) *Server {
	return &Server{pipeline: pipeline, images: images, addr: addr}
}

// Start runs the HTTP server until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/search/stream", s.handleSearchStream)
	mux.HandleFunc("/api/images", s.handleImages)
	mux.HandleFunc("/api/health", s.handleHealth)

	server := &http.Server{
		Addr:         s.addr,
		Handler:      corsMiddleware(loggingMiddleware(mux)),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 300 * time.Second, // longer for streaming
	}

	log.Printf("[INFO] localsearch server starting on %s", s.addr)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	return server.ListenAndServe()
}

// searchRequest is the caller's search payload. Temperature and
// MaxTokens configure only the final answer call; extraction stages
// are always pinned to temperature 0.
type searchRequest struct {
	Query       string                 `json:"query"`
	History     []entities.ChatMessage `json:"history"`
	Temperature *float32               `json:"temperature,omitempty"`
	MaxTokens   int                    `json:"max_tokens,omitempty"`
}

// handleSearchStream runs the answering pipeline and relays its event
// sequence over SSE. The client disconnecting cancels the request
// context, which abandons in-flight pipeline work.
func (s *Server) handleSearchStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Query == "" {
		http.Error(w, "Query required", http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	requestID := uuid.NewString()
	log.Printf("[INFO] request %s: search %q (%d history turns)", requestID, req.Query, len(req.History))

	opts := ports.GenerateOptions{Temperature: req.Temperature, MaxTokens: req.MaxTokens}
	events := s.pipeline.Run(r.Context(), req.Query, req.History, opts)

	for ev := range events {
		data, err := json.Marshal(ev)
		if err != nil {
			log.Printf("[ERROR] request %s: marshaling event: %v", requestID, err)
			return
		}
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
	}
	log.Printf("[INFO] request %s: stream closed", requestID)
}

// imagesRequest is the caller's image-lookup payload.
type imagesRequest struct {
	Query   string                 `json:"query"`
	History []entities.ChatMessage `json:"history"`
}

// handleImages runs attribute extraction plus product lookup and
// returns the result as a single JSON document.
func (s *Server) handleImages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req imagesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Query == "" {
		http.Error(w, "Query required", http.StatusBadRequest)
		return
	}

	requestID := uuid.NewString()
	result, err := s.images.Find(r.Context(), req.Query, req.History)
	if err != nil {
		log.Printf("[ERROR] request %s: image lookup: %v", requestID, err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{
			"message": "An error occurred while processing your request",
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// handleHealth returns server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %v", r.Method, r.URL.Path, time.Since(start))
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			return
		}
		next.ServeHTTP(w, r)
	})
}
