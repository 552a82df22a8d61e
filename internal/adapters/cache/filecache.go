// Package cache provides the precomputed summary/embedding cache.
// Clean Architecture: Adapter implementing ports.PrecomputedCache.
//
// The cache is populated out-of-band: an indexing job writes two JSON
// files (summaries, embeddings) keyed by normalized source id. At
// request time the cache is read-only; a watcher reloads the files
// when the out-of-band job rewrites them.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// DefaultRoot is the stable relative root token cache keys start at.
const DefaultRoot = "Knowledge"

// FileCache holds the precomputed per-source summaries and embeddings,
// loaded once and swapped atomically on reload.
type FileCache struct {
	mu         sync.RWMutex
	summaries  map[string]string
	embeddings map[string][]float32

	summariesPath  string
	embeddingsPath string
	root           string
}

// NewFileCache loads both cache files. A missing file is tolerated with
// a warning - the system proceeds uncached, matching the read path's
// cache-miss fallback to live computation.
func NewFileCache(summariesPath, embeddingsPath, root string) (*FileCache, error) {
	if root == "" {
		root = DefaultRoot
	}
	c := &FileCache{
		summaries:      map[string]string{},
		embeddings:     map[string][]float32{},
		summariesPath:  summariesPath,
		embeddingsPath: embeddingsPath,
		root:           root,
	}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Summary returns the cached synopsis for the normalized source id.
func (c *FileCache) Summary(path string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.summaries[NormalizeID(path, c.root)]
	return s, ok
}

// Embedding returns the cached vector for the normalized source id.
func (c *FileCache) Embedding(path string) ([]float32, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.embeddings[NormalizeID(path, c.root)]
	return e, ok
}

// Reload re-reads both cache files and swaps the maps in one step.
func (c *FileCache) Reload() error {
	summaries := map[string]string{}
	if err := loadJSON(c.summariesPath, &summaries); err != nil {
		return fmt.Errorf("loading summaries: %w", err)
	}
	embeddings := map[string][]float32{}
	if err := loadJSON(c.embeddingsPath, &embeddings); err != nil {
		return fmt.Errorf("loading embeddings: %w", err)
	}

	c.mu.Lock()
	c.summaries = summaries
	c.embeddings = embeddings
	c.mu.Unlock()

	log.Printf("[INFO] Cache: loaded %d summaries, %d embeddings", len(summaries), len(embeddings))
	return nil
}

// Watch reloads the cache whenever either backing file is rewritten.
// It blocks until ctx is cancelled; run it in its own goroutine.
func (c *FileCache) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the parent directories: populators typically replace the
	// files wholesale, which drops inode-level watches.
	dirs := map[string]struct{}{}
	for _, p := range []string{c.summariesPath, c.embeddingsPath} {
		if p != "" {
			dirs[filepath.Dir(p)] = struct{}{}
		}
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != c.summariesPath && event.Name != c.embeddingsPath {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			log.Printf("[INFO] Cache: %s changed, reloading", event.Name)
			if err := c.Reload(); err != nil {
				log.Printf("[ERROR] Cache: reload failed: %v", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("[ERROR] Cache: watcher: %v", err)
		}
	}
}

// NormalizeID strips any machine-specific path prefix down to the
// stable relative root token and unifies path separators, so keys
// match regardless of where the corpus was indexed.
func NormalizeID(path, root string) string {
	id := strings.ReplaceAll(path, "\\", "/")
	if idx := strings.Index(id, root+"/"); idx >= 0 {
		return id[idx:]
	}
	return id
}

func loadJSON(path string, v interface{}) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Printf("[INFO] Cache: %s not found, proceeding without it", path)
			return nil
		}
		return err
	}
	return json.Unmarshal(data, v)
}
