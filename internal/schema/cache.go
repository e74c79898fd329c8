package schema

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/leapstack-labs/analytics-agent/pkg/core"
)

// Cache memoizes Store.Read. Watch invalidates it when the document changes
// on disk; without Watch, call Invalidate after writing.
type Cache struct {
	store  *Store
	logger *slog.Logger

	mu       sync.RWMutex
	cached   *core.ProjectSchema
	onChange func()
}

// NewCache wraps store.
func NewCache(store *Store, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Cache{store: store, logger: logger}
}

// Get returns the cached document, reading it on a miss.
// Read errors are not cached.
func (c *Cache) Get() (*core.ProjectSchema, error) {
	c.mu.RLock()
	ps := c.cached
	c.mu.RUnlock()
	if ps != nil {
		return ps, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cached != nil {
		return c.cached, nil
	}
	ps, err := c.store.Read()
	if err != nil {
		return nil, err
	}
	c.cached = ps
	return ps, nil
}

// Invalidate drops the cached document.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.cached = nil
	c.mu.Unlock()
}

// OnChange registers fn to run after Watch invalidates the cache.
// It must be called before Watch.
func (c *Cache) OnChange(fn func()) {
	c.onChange = fn
}

// Watch invalidates the cache whenever the schema document is created,
// written, renamed or removed. It blocks until ctx is done.
func (c *Cache) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Watch the directory: atomic writes replace the file, which drops a
	// watch placed on the file itself.
	dir := filepath.Dir(c.store.Path())
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	target := filepath.Clean(c.store.Path())

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			c.Invalidate()
			c.logger.Debug("schema changed", slog.String("path", target), slog.String("op", event.Op.String()))
			if c.onChange != nil {
				c.onChange()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			c.logger.Error("schema watcher error", slog.String("error", err.Error()))
		}
	}
}
