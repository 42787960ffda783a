package loop

import "sync"

// Async is a wakeup handle bound to a Loop. Send schedules fn to run on the
// loop; several Sends before fn runs coalesce into a single execution. After
// Close, pending wakeups are discarded and Send fails.
type Async struct {
	l  *Loop
	fn Task

	mu      sync.Mutex
	pending bool
	closed  bool
}

// NewAsync creates a handle that runs fn on l whenever it is signaled.
func NewAsync(l *Loop, fn Task) *Async {
	return &Async{l: l, fn: fn}
}

// Send signals the handle. It never blocks.
func (a *Async) Send() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return dispatcherClosedError{name: "async"}
	}
	if a.pending {
		return nil
	}
	if err := a.l.Post(a.fire); err != nil {
		return err
	}
	a.pending = true
	return nil
}

// Close releases the handle. Safe to call from the loop, including from fn.
func (a *Async) Close() {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()
}

func (a *Async) fire(err error) {
	a.mu.Lock()
	a.pending = false
	closed := a.closed
	a.mu.Unlock()
	if closed {
		return
	}
	a.fn(err)
}
