package autosave

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const DefaultDebounce = 500 * time.Millisecond

type WatchOptions struct {
	Debounce time.Duration //quiet period after the last change before saving, defaults to DefaultDebounce
	Interval time.Duration //saves changed files at least this often while changes keep coming, 0 disables
	IdleGap  time.Duration //see Tracker, defaults to DefaultIdleGap
}

// Watcher submits a save to the worker whenever a watched file has changed and then stayed quiet for the debounce period.
// Parent directories are watched as well so that editors replacing the file on save are noticed.
type Watcher struct {
	worker  *Worker
	fs      *fsnotify.Watcher
	options WatchOptions
	tracker *Tracker
	logger  *zap.Logger

	mu     sync.Mutex
	files  map[string]bool //absolute paths
	dirty  map[string]bool
	timers map[string]*time.Timer

	started  bool
	stopCh   chan struct{}
	stopOnce sync.Once
	loopDone chan struct{}
}

func NewWatcher(worker *Worker, options WatchOptions, logger *zap.Logger) (*Watcher, error) {
	if options.Debounce <= 0 {
		options.Debounce = DefaultDebounce
	}
	if options.Interval < 0 {
		return nil, fmt.Errorf("negative autosave interval %s", options.Interval)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	return &Watcher{
		worker:   worker,
		fs:       fsWatcher,
		options:  options,
		tracker:  NewTracker(options.IdleGap),
		logger:   logger,
		files:    make(map[string]bool),
		dirty:    make(map[string]bool),
		timers:   make(map[string]*time.Timer),
		stopCh:   make(chan struct{}),
		loopDone: make(chan struct{}),
	}, nil
}

// Add watches the file, which must exist.
func (w *Watcher) Add(path string) error {
	absolute, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	info, err := os.Stat(absolute)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	if err := w.fs.Add(filepath.Dir(absolute)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}
	w.mu.Lock()
	w.files[absolute] = true
	w.mu.Unlock()
	w.logger.Debug("watching file", zap.String("path", absolute))
	return nil
}

// Start runs the event loop until ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return
	}
	w.started = true
	w.mu.Unlock()
	go w.watchLoop(ctx)
	w.logger.Info("autosave watcher started", zap.Duration("debounce", w.options.Debounce), zap.Duration("interval", w.options.Interval))
}

// Stop ends watching. Pending debounced saves are submitted before it returns.
// It is safe to call on a watcher that was never started.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		w.mu.Lock()
		started := w.started
		w.mu.Unlock()
		close(w.stopCh)
		if started {
			<-w.loopDone
		}
		_ = w.fs.Close()

		w.mu.Lock()
		pending := make([]string, 0, len(w.dirty))
		for path, timer := range w.timers {
			timer.Stop()
			delete(w.timers, path)
		}
		for path := range w.dirty {
			pending = append(pending, path)
		}
		w.mu.Unlock()
		for _, path := range pending {
			w.flush(context.Background(), path)
		}
		w.logger.Info("autosave watcher stopped")
	})
}

func (w *Watcher) watchLoop(ctx context.Context) {
	defer close(w.loopDone)

	var tick <-chan time.Time
	if w.options.Interval > 0 {
		ticker := time.NewTicker(w.options.Interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return

		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.changed(ctx, filepath.Clean(event.Name))

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error", zap.Error(err))

		case <-tick:
			for _, path := range w.dirtyFiles() {
				w.flush(ctx, path)
			}
		}
	}
}

func (w *Watcher) changed(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.files[path] {
		return
	}
	w.tracker.Touch(path)
	w.dirty[path] = true
	if timer, pending := w.timers[path]; pending {
		timer.Stop()
	}
	w.timers[path] = time.AfterFunc(w.options.Debounce, func() {
		w.flush(ctx, path)
	})
}

func (w *Watcher) dirtyFiles() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	paths := make([]string, 0, len(w.dirty))
	for path := range w.dirty {
		paths = append(paths, path)
	}
	return paths
}

func (w *Watcher) flush(ctx context.Context, path string) {
	w.mu.Lock()
	if !w.dirty[path] {
		w.mu.Unlock()
		return
	}
	delete(w.dirty, path)
	w.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		w.logger.Warn("changed file unreadable", zap.String("path", path), zap.Error(err))
		return
	}
	request := Request{Path: path, Content: data, TimeSpent: w.tracker.Take(path)}
	if err := w.worker.Submit(ctx, request); err != nil {
		level := zap.WarnLevel
		if errors.Is(err, ErrClosed) || errors.Is(err, context.Canceled) {
			level = zap.DebugLevel
		}
		w.logger.Log(level, "save not submitted", zap.String("path", path), zap.Error(err))
	}
}
