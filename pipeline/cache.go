package pipeline

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type cacheEntry struct {
	modTime  time.Time
	size     int64
	pipeline *Pipeline
}

// Cache memoizes restored pipelines by artifact path. An entry is reused only while the file's
// modification time and size are unchanged.
type Cache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	logger  zerolog.Logger
}

func NewCache(logger zerolog.Logger) *Cache {
	return &Cache{
		entries: make(map[string]cacheEntry),
		logger:  logger.With().Str("component", "model_cache").Logger(),
	}
}

// Load returns the pipeline stored at path, reading it from disk only if it is not cached or the
// file changed since it was cached
func (c *Cache) Load(path string) (*Pipeline, error) {
	if path == "" {
		return nil, ErrEmptyArtifactPath
	}
	info, err := os.Stat(path)
	if err != nil {
		c.Invalidate(path)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &ModelNotFoundError{Path: path}
		}
		return nil, fmt.Errorf("unable to stat model, %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, exists := c.entries[path]; exists && entry.modTime.Equal(info.ModTime()) && entry.size == info.Size() {
		c.logger.Debug().Str("path", path).Str("model_id", entry.pipeline.Model.ID).Msg("model cache hit")
		return entry.pipeline, nil
	}

	m, err := LoadModel(path)
	if err != nil {
		return nil, err
	}
	p, err := New(m)
	if err != nil {
		return nil, err
	}
	c.entries[path] = cacheEntry{
		modTime:  info.ModTime(),
		size:     info.Size(),
		pipeline: p,
	}
	c.logger.Debug().Str("path", path).Str("model_id", m.ID).Msg("model cache miss, loaded from disk")
	return p, nil
}

// Invalidate drops the cached pipeline for path
func (c *Cache) Invalidate(path string) {
	c.mu.Lock()
	delete(c.entries, path)
	c.mu.Unlock()
}

// Len returns the number of cached pipelines
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
