package loop

import (
	"sync"
	"sync/atomic"
)

// Dispatcher lets any goroutine request execution of work on a Loop.
// Items sent from the same goroutine run in send order. Close stops new sends
// but never preempts items that were already queued.
type Dispatcher struct {
	l    *Loop
	name string

	mu     sync.RWMutex
	closed bool

	pending atomic.Int64
}

// NewDispatcher binds a dispatcher to l.
func NewDispatcher(l *Loop, name string) *Dispatcher {
	return &Dispatcher{l: l, name: name}
}

// Send enqueues t on the loop and returns immediately. After Close it returns
// an error matching ErrDispatcherClosed and t is never invoked. If the loop
// has terminated it returns ErrLoopClosed.
func (d *Dispatcher) Send(t Task) error {
	if t == nil {
		return errNilTask
	}
	// Read lock keeps Close from returning while an enqueue is mid-flight.
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return dispatcherClosedError{name: d.name}
	}
	d.pending.Add(1)
	err := d.l.Post(func(err error) {
		defer d.pending.Add(-1)
		t(err)
	})
	if err != nil {
		d.pending.Add(-1)
		return err
	}
	return nil
}

// Close prevents further sends. It is safe to call more than once.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.l.log.Debug().Str("dispatcher", d.name).Int64("pending", d.pending.Load()).Msg("dispatcher closed")
}

// Closed reports whether Close was called.
func (d *Dispatcher) Closed() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.closed
}

// Pending returns the number of items sent but not yet executed.
func (d *Dispatcher) Pending() int { return int(d.pending.Load()) }

// Name returns the dispatcher name.
func (d *Dispatcher) Name() string { return d.name }
