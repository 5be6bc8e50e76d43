package generation

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher observes the generation root and reports each newly appeared
// generation directory. It is purely informational: the request pipeline
// re-discovers the latest generation on every request regardless, so a
// missed event never causes stale serving.
type Watcher struct {
	watcher *fsnotify.Watcher
	logger  *slog.Logger
	root    string

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewWatcher creates a watcher for the given generation root.
func NewWatcher(root string, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		watcher: fsw,
		logger:  logger,
		root:    root,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}, nil
}

// Watch blocks, invoking onGeneration for every new sync-N directory that
// appears under the root, until the context is cancelled or Stop is called.
// Events for anything other than a created generation directory are ignored.
func (w *Watcher) Watch(ctx context.Context, onGeneration func(Generation)) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("watcher already running")
	}
	w.running = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		close(w.doneCh)
	}()

	if err := w.watcher.Add(w.root); err != nil {
		return fmt.Errorf("failed to watch generation root %q: %w", w.root, err)
	}

	w.logger.Info("generation watcher started", "root", w.root)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("generation watcher stopped (context cancelled)")
			return nil

		case <-w.stopCh:
			w.logger.Info("generation watcher stopped")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}

			if !event.Has(fsnotify.Create) {
				continue
			}

			id, matched := ParseID(filepath.Base(event.Name))
			if !matched {
				continue
			}

			gen := Generation{ID: id, Dir: event.Name}
			w.logger.Info("new configuration generation",
				"generation", gen.ID,
				"dir", gen.Dir,
			)

			if onGeneration != nil {
				onGeneration(gen)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error("generation watcher error", "error", err)
			// Keep watching despite errors.
		}
	}
}

// Stop stops the watcher and waits for Watch to return.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return w.watcher.Close()
	}
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}
	return nil
}
