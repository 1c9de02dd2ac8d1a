package watcher

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

// TargetWatcher watches a fixed list of files. It uses fsnotify on each
// file's parent directory and falls back to polling.
type TargetWatcher struct {
	opts      Options
	paths     []string
	byAbs     map[string]string // absolute path -> path as given
	fsWatcher *fsnotify.Watcher
	poller    *PollingWatcher
	debouncer *Debouncer
	logger    *slog.Logger

	events  chan []FileEvent
	errors  chan error
	stopCh  chan struct{}
	mu      sync.RWMutex
	stopped bool

	droppedBatches atomic.Uint64
}

// New creates a watcher for paths. Nothing is watched until Start.
func New(paths []string, opts Options) (*TargetWatcher, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no files to watch")
	}
	opts = opts.WithDefaults()

	byAbs := make(map[string]string, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolve absolute path %s: %w", p, err)
		}
		byAbs[abs] = p
	}

	w := &TargetWatcher{
		opts:      opts,
		paths:     paths,
		byAbs:     byAbs,
		debouncer: NewDebouncer(opts.DebounceWindow),
		logger:    slog.Default(),
		events:    make(chan []FileEvent, opts.EventBufferSize),
		errors:    make(chan error, 10),
		stopCh:    make(chan struct{}),
	}

	if !opts.ForcePolling {
		fsw, err := fsnotify.NewWatcher()
		if err == nil {
			w.fsWatcher = fsw
		} else {
			w.logger.Debug("fsnotify unavailable, polling", slog.String("error", err.Error()))
		}
	}
	if w.fsWatcher == nil {
		w.poller = NewPollingWatcher(paths, opts.PollInterval)
	}

	return w, nil
}

// SetLogger replaces the logger used for watcher diagnostics.
func (w *TargetWatcher) SetLogger(logger *slog.Logger) {
	if logger != nil {
		w.logger = logger
	}
}

// Start watches until ctx is done or Stop is called.
func (w *TargetWatcher) Start(ctx context.Context) error {
	w.mu.RLock()
	stopped := w.stopped
	w.mu.RUnlock()
	if stopped {
		return nil
	}

	go w.forwardDebouncedEvents(ctx)

	if w.fsWatcher != nil {
		if err := w.addParents(); err != nil {
			w.logger.Warn("fsnotify watch failed, falling back to polling",
				slog.String("error", err.Error()))
			_ = w.fsWatcher.Close()
			w.mu.Lock()
			w.fsWatcher = nil
			w.poller = NewPollingWatcher(w.paths, w.opts.PollInterval)
			w.mu.Unlock()
		}
	}

	if w.fsWatcher != nil {
		return w.runFsnotify(ctx)
	}
	return w.runPolling(ctx)
}

// addParents watches each distinct parent directory once.
func (w *TargetWatcher) addParents() error {
	seen := make(map[string]bool)
	for abs := range w.byAbs {
		dir := filepath.Dir(abs)
		if seen[dir] {
			continue
		}
		seen[dir] = true
		if err := w.fsWatcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	return nil
}

func (w *TargetWatcher) runFsnotify(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			_ = w.Stop()
			return ctx.Err()
		case <-w.stopCh:
			return nil
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleFsnotifyEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.emitError(err)
		}
	}
}

func (w *TargetWatcher) runPolling(ctx context.Context) error {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-w.stopCh:
				return
			case event, ok := <-w.poller.Events():
				if !ok {
					return
				}
				w.debouncer.Add(event)
			}
		}
	}()

	err := w.poller.Start(ctx)
	if ctx.Err() != nil {
		_ = w.Stop()
	}
	return err
}

func (w *TargetWatcher) handleFsnotifyEvent(event fsnotify.Event) {
	path, ok := w.byAbs[filepath.Clean(event.Name)]
	if !ok {
		return
	}

	var op Operation
	switch {
	case event.Op&fsnotify.Create != 0:
		op = OpCreate
	case event.Op&fsnotify.Write != 0:
		op = OpModify
	case event.Op&fsnotify.Remove != 0:
		op = OpDelete
	case event.Op&fsnotify.Rename != 0:
		op = OpRename
	default:
		// Chmod
		return
	}

	w.debouncer.Add(FileEvent{
		Path:      path,
		Operation: op,
		Timestamp: time.Now(),
	})
}

func (w *TargetWatcher) forwardDebouncedEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case batch, ok := <-w.debouncer.Output():
			if !ok {
				return
			}
			if len(batch) > 0 {
				w.emitEvents(batch)
			}
		}
	}
}

// emitEvents holds the read lock across the send so Stop cannot close
// the channel underneath it.
func (w *TargetWatcher) emitEvents(batch []FileEvent) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.stopped {
		return
	}

	select {
	case w.events <- batch:
	default:
		count := w.droppedBatches.Add(1)
		w.logger.Warn("event buffer full, dropping batch",
			slog.Int("batch_size", len(batch)),
			slog.Uint64("total_dropped_batches", count),
		)
	}
}

func (w *TargetWatcher) emitError(err error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.stopped {
		return
	}

	select {
	case w.errors <- err:
	default:
	}
}

// Stop stops the watcher and closes its channels. Safe to call multiple times.
func (w *TargetWatcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}

	w.stopped = true
	close(w.stopCh)
	w.debouncer.Stop()

	if w.fsWatcher != nil {
		_ = w.fsWatcher.Close()
	}
	if w.poller != nil {
		_ = w.poller.Stop()
	}

	close(w.events)
	close(w.errors)
	return nil
}

// Events returns the channel of debounced batches.
func (w *TargetWatcher) Events() <-chan []FileEvent {
	return w.events
}

// Errors returns non-fatal watcher errors.
func (w *TargetWatcher) Errors() <-chan error {
	return w.errors
}

// WatcherType returns "fsnotify" or "polling".
func (w *TargetWatcher) WatcherType() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.fsWatcher != nil {
		return "fsnotify"
	}
	return "polling"
}

// DroppedBatches returns the number of batches dropped due to a full buffer.
func (w *TargetWatcher) DroppedBatches() uint64 {
	return w.droppedBatches.Load()
}
