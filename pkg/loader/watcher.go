package loader

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultReloadDelay is how long the watcher waits for file changes to
// settle before reloading.
const DefaultReloadDelay = 500 * time.Millisecond

// ReloadFunc is called after every reload triggered by a file change.
// snap is nil when the reload failed.
type ReloadFunc func(snap *Snapshot, err error)

// Watcher reloads a store when the files behind its source change.
type Watcher struct {
	store    *Store
	source   Source
	logger   zerolog.Logger
	delay    time.Duration
	onReload ReloadFunc

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	timer   *time.Timer
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithReloadDelay sets the debounce delay.
func WithReloadDelay(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.delay = d
	}
}

// OnReload registers a callback run after each triggered reload.
func OnReload(fn ReloadFunc) WatcherOption {
	return func(w *Watcher) {
		w.onReload = fn
	}
}

// NewWatcher creates a watcher for source that reloads store.
func NewWatcher(store *Store, source Source, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		store:  store,
		source: source,
		logger: store.logger.With().Str("component", "config-watcher").Logger(),
		delay:  DefaultReloadDelay,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Watch starts watching the source's directories. Events are processed in
// the background until ctx is done or Stop is called.
func (w *Watcher) Watch(ctx context.Context) error {
	dirs := w.source.WatchDirs()
	if len(dirs) == 0 {
		return fmt.Errorf("source %s has nothing to watch", w.source.Name())
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			_ = watcher.Close()
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	w.mu.Lock()
	w.watcher = watcher
	w.mu.Unlock()

	go w.processEvents(ctx, watcher)

	w.logger.Info().
		Str("source", w.source.Name()).
		Strs("dirs", dirs).
		Msg("Started watching configuration")

	return nil
}

func (w *Watcher) processEvents(ctx context.Context, watcher *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			_ = w.Stop()
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if !w.source.Affects(event.Name) {
				continue
			}

			w.logger.Debug().
				Str("file", event.Name).
				Str("op", event.Op.String()).
				Msg("Configuration file changed")

			w.schedule(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error().Err(err).Msg("Watcher error")
		}
	}
}

// schedule debounces reloads so that a burst of events causes one reload.
func (w *Watcher) schedule(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.delay, func() {
		if ctx.Err() != nil {
			return
		}
		snap, err := w.store.Reload(ctx, w.source)
		if w.onReload != nil {
			w.onReload(snap, err)
		}
	})
}

// Stop stops watching. A pending reload is cancelled.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	if w.watcher == nil {
		return nil
	}
	err := w.watcher.Close()
	w.watcher = nil
	return err
}
