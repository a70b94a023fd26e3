package confluxer

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	// DefaultDebounce is how long the watcher waits for further changes
	// before reloading.
	DefaultDebounce = 250 * time.Millisecond

	// reloadChannelBuffer is the size of the reload event channel.
	reloadChannelBuffer = 16
)

// ReloadEvent reports the outcome of one reload triggered by the watcher.
type ReloadEvent struct {
	Path string
	Err  error
}

// Watcher rebuilds a Confluxer's model whenever its word list changes on disk.
// The file's directory is watched rather than the file itself, so editors
// that save by replacing the file are handled too.
type Watcher struct {
	cx       *Confluxer
	watcher  *fsnotify.Watcher
	debounce time.Duration
	logger   *slog.Logger
	path     string
	reloads  chan ReloadEvent
	dropped  atomic.Int64

	started   atomic.Bool
	closeOnce sync.Once
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets the quiet period after the last change before a reload.
// Default: 250ms.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithWatchLogger sets the watcher's logger. Default: the Confluxer's logger.
func WithWatchLogger(logger *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// NewWatcher creates a watcher for the current source file of cx.
func NewWatcher(cx *Confluxer, opts ...WatcherOption) (*Watcher, error) {
	path, err := filepath.Abs(cx.File())
	if err != nil {
		return nil, fmt.Errorf("could not resolve word list path: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	w := &Watcher{
		cx:       cx,
		watcher:  fsw,
		debounce: DefaultDebounce,
		logger:   cx.logger,
		path:     path,
		reloads:  make(chan ReloadEvent, reloadChannelBuffer),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Reloads returns the channel of reload events. It is closed when the watcher
// stops.
func (w *Watcher) Reloads() <-chan ReloadEvent {
	return w.reloads
}

// Dropped returns how many reload events were discarded because nobody was
// reading Reloads.
func (w *Watcher) Dropped() int64 {
	return w.dropped.Load()
}

// Start begins watching. It returns once the watch is registered; events are
// processed in a background goroutine until ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		_ = w.watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(w.path), err)
	}

	w.started.Store(true)
	go w.processEvents(ctx)

	w.logger.Info("Word list watcher started",
		"path", w.path,
		"debounce", w.debounce)
	return nil
}

// Stop stops the watcher and, once event processing has ended, closes the
// reload channel. It may be called whether or not Start was; Start must not
// be called after Stop.
func (w *Watcher) Stop() error {
	err := w.watcher.Close()
	if !w.started.Load() {
		w.closeReloads()
	}
	return err
}

func (w *Watcher) closeReloads() {
	w.closeOnce.Do(func() { close(w.reloads) })
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer w.closeReloads()

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			_ = w.watcher.Close()
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Word list watcher error", "error", err)

		case <-fire:
			fire = nil
			w.reload(ctx)
		}
	}
}

// relevant reports whether event changed the watched file's content.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return false
	}
	name, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	return name == w.path
}

func (w *Watcher) reload(ctx context.Context) {
	err := w.cx.Reload(w.path)
	if err != nil {
		w.logger.WarnContext(ctx, "Word list reload failed, keeping previous model", "path", w.path, "error", err)
	}

	select {
	case w.reloads <- ReloadEvent{Path: w.path, Err: err}:
	default:
		w.dropped.Add(1)
	}
}
