package session

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"go.viam.com/depthcapture/logging"
)

// A task is a unit of work run on the worker goroutine.
type task func(ctx context.Context)

// worker runs tasks one at a time, in the order they were enqueued, on a single goroutine. The
// queue is unbounded: enqueue never blocks.
type worker struct {
	logger logging.Logger
	// onPanic is called on the worker goroutine when a task panics. The loop keeps going.
	onPanic func(ctx context.Context, err error)

	mu         sync.Mutex
	queue      []task
	terminated bool
	final      task

	wake chan struct{}
	done chan struct{}
}

func newWorker(logger logging.Logger, onPanic func(ctx context.Context, err error)) *worker {
	return &worker{
		logger:  logger,
		onPanic: onPanic,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

// start launches the worker goroutine. ctx is handed to every task.
func (w *worker) start(ctx context.Context) {
	goutils.PanicCapturingGo(func() {
		defer close(w.done)
		w.loop(ctx)
	})
}

// enqueue appends t to the tail of the queue. It fails with ErrStopped once terminate was called.
func (w *worker) enqueue(t task) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.terminated {
		return ErrStopped
	}
	w.queue = append(w.queue, t)
	w.signal()
	return nil
}

// terminate enqueues final as the last task. The loop exits once final has run. Only the first
// call has any effect.
func (w *worker) terminate(final task) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.terminated {
		return false
	}
	w.terminated = true
	w.final = final
	w.signal()
	return true
}

// wait blocks until the worker goroutine has exited or ctx is done.
func (w *worker) wait(ctx context.Context) error {
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// signal must be called with mu held.
func (w *worker) signal() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// next returns the task at the head of the queue, or the final task once the queue is drained
// after terminate. last is true for the final task.
func (w *worker) next() (t task, last, ok bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.queue) > 0 {
		t = w.queue[0]
		w.queue[0] = nil
		w.queue = w.queue[1:]
		return t, false, true
	}
	if w.terminated {
		return w.final, true, true
	}
	return nil, false, false
}

func (w *worker) loop(ctx context.Context) {
	for {
		t, last, ok := w.next()
		if !ok {
			<-w.wake
			continue
		}
		if t != nil {
			w.run(ctx, t)
		}
		if last {
			return
		}
	}
}

func (w *worker) run(ctx context.Context, t task) {
	defer func() {
		if r := recover(); r != nil {
			err := errors.Errorf("task panicked: %v", r)
			w.logger.Errorw("capture task panicked", "error", err)
			if w.onPanic != nil {
				w.onPanic(ctx, err)
			}
		}
	}()
	t(ctx)
}
