// Package autosave saves documents in the background: a single worker serializes all saves,
// a watcher feeds it from file system changes and a tracker attributes writing time.
package autosave

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/n2code/doctrail"
)

var ErrClosed = errors.New("autosave worker closed")

const DefaultQueueSize = 16

// Saver is the part of the doctrail API the worker needs.
type Saver interface {
	SaveTracked(path string, data []byte, timeSpent time.Duration) (doctrail.SaveResult, error)
}

type Request struct {
	Path      string
	Content   []byte
	TimeSpent time.Duration
}

type Result struct {
	Request Request
	Saved   doctrail.SaveResult
	Err     error
}

// Worker executes save requests one after another in a single goroutine, in submission order.
// Every request yields exactly one Result. Consumers must keep draining Results until it is closed.
type Worker struct {
	saver    Saver
	logger   *zap.Logger
	requests chan Request
	results  chan Result
	done     chan struct{}
	mu       sync.RWMutex //guards closed and sending on requests
	closed   bool
}

func NewWorker(saver Saver, queueSize int, logger *zap.Logger) *Worker {
	if queueSize < 1 {
		queueSize = DefaultQueueSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &Worker{
		saver:    saver,
		logger:   logger,
		requests: make(chan Request, queueSize),
		results:  make(chan Result, queueSize),
		done:     make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *Worker) run() {
	defer close(w.done)
	defer close(w.results)
	for request := range w.requests {
		saved, err := w.saver.SaveTracked(request.Path, request.Content, request.TimeSpent)
		if err != nil {
			w.logger.Warn("background save failed", zap.String("path", request.Path), zap.Error(err))
		} else {
			w.logger.Debug("background save done", zap.String("path", request.Path), zap.Int("versions", saved.Versions))
		}
		w.results <- Result{Request: request, Saved: saved, Err: err}
	}
}

// Submit queues the request, blocking while the queue is full.
func (w *Worker) Submit(ctx context.Context, request Request) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return ErrClosed
	}
	select {
	case w.requests <- request:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) Results() <-chan Result {
	return w.results
}

// Close stops accepting requests and returns once all queued ones are saved.
func (w *Worker) Close() {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.requests)
	}
	w.mu.Unlock()
	<-w.done
}
