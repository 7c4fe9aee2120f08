package session

import (
	"sync"

	goutils "go.viam.com/utils"
	"go.uber.org/atomic"
)

// dispatcher delivers notifications from the worker to the caller's side, fire and forget, in
// the order they were posted. Notifications not yet delivered when it is closed are dropped.
type dispatcher struct {
	exec   func(func())
	closed atomic.Bool

	// Only used by the built-in executor.
	mu    sync.Mutex
	queue []func()
	wake  chan struct{}
	done  chan struct{}
}

// newDispatcher delivers through exec, or through its own goroutine if exec is nil.
func newDispatcher(exec func(func())) *dispatcher {
	d := &dispatcher{exec: exec}
	if exec == nil {
		d.wake = make(chan struct{}, 1)
		d.done = make(chan struct{})
		d.exec = d.enqueue
		goutils.PanicCapturingGo(d.loop)
	}
	return d
}

// post schedules fn. fn is skipped if the dispatcher is closed by the time it would run.
func (d *dispatcher) post(fn func()) {
	if d.closed.Load() {
		return
	}
	d.exec(func() {
		if d.closed.Load() {
			return
		}
		fn()
	})
}

// close drops pending notifications. It does not wait for a notification being delivered right
// now, so it is safe to call while one is running.
func (d *dispatcher) close() {
	if d.closed.Swap(true) {
		return
	}
	if d.done != nil {
		d.mu.Lock()
		d.queue = nil
		d.mu.Unlock()
		close(d.done)
	}
}

func (d *dispatcher) enqueue(fn func()) {
	d.mu.Lock()
	d.queue = append(d.queue, fn)
	d.mu.Unlock()
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

func (d *dispatcher) loop() {
	for {
		d.mu.Lock()
		var fn func()
		if len(d.queue) > 0 {
			fn = d.queue[0]
			d.queue[0] = nil
			d.queue = d.queue[1:]
		}
		d.mu.Unlock()

		if fn != nil {
			fn()
			continue
		}
		select {
		case <-d.wake:
		case <-d.done:
			return
		}
	}
}
