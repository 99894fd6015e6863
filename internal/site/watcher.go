package site

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"jabber.at/hp"
)

// Watcher reloads a Site when its templates, menu or translations change on
// disk. It's meant for development.
type Watcher struct {
	site     *Site
	watcher  *fsnotify.Watcher
	debounce time.Duration

	mu      sync.Mutex
	pending time.Time
	running bool

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewWatcher returns a Watcher for s, watching paths and every directory
// below them. Paths may be files or directories.
func NewWatcher(s *Site, paths ...string) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("error creating file watcher: %w", err)
	}
	w := &Watcher{
		site:     s,
		watcher:  watcher,
		debounce: 200 * time.Millisecond,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	for _, path := range paths {
		if err := w.add(path); err != nil {
			watcher.Close()
			return nil, err
		}
	}
	return w, nil
}

func (w *Watcher) add(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("error watching %q: %w", path, err)
	}
	if !info.IsDir() {
		// editors replace files on save, so watch the directory
		path = filepath.Dir(path)
	}
	return filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.watcher.Add(p); err != nil {
			return fmt.Errorf("error watching %q: %w", p, err)
		}
		return nil
	})
}

// Start watches for changes until ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	go w.run(ctx)
}

// Stop stops watching and releases the watcher. It waits for a running
// reload to finish.
func (w *Watcher) Stop() {
	w.mu.Lock()
	running := w.running
	w.running = false
	w.mu.Unlock()

	if running {
		close(w.stopCh)
		<-w.doneCh
	}
	if err := w.watcher.Close(); err != nil {
		hp.Logger(context.Background()).Error("error closing file watcher", "error", err)
	}
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			hp.Logger(ctx).ErrorContext(ctx, "file watcher error", "error", err)
		case <-ticker.C:
			w.reloadIfSettled(ctx)
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}
	hp.Logger(ctx).DebugContext(ctx, "file changed", "path", event.Name, "op", event.Op.String())
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.add(event.Name); err != nil {
				hp.Logger(ctx).ErrorContext(ctx, "error watching new directory", "path", event.Name, "error", err)
			}
		}
	}
	w.mu.Lock()
	w.pending = time.Now()
	w.mu.Unlock()
}

// reloadIfSettled reloads the Site once no change has been seen for the
// debounce duration, so saving many files at once only reloads it once.
func (w *Watcher) reloadIfSettled(ctx context.Context) {
	w.mu.Lock()
	if w.pending.IsZero() || time.Since(w.pending) < w.debounce {
		w.mu.Unlock()
		return
	}
	w.pending = time.Time{}
	w.mu.Unlock()

	if err := w.site.Reload(ctx); err != nil {
		hp.Logger(ctx).ErrorContext(ctx, "error reloading site, keeping the previous version", "error", err)
	}
}
