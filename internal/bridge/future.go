package bridge

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"llamabridge/internal/loop"
)

// ErrPending is returned by Result while a future has not settled.
var ErrPending = errors.New("future pending")

// Future is the promise side of an asynchronous operation. It settles exactly
// once, on the loop, with either a value or an error.
//
// Loop tasks must not call Await, since the loop is what settles the future;
// they chain with Then instead. Any other goroutine may Await.
type Future[T any] struct {
	l       *loop.Loop
	done    chan struct{}
	settled atomic.Bool

	mu    sync.Mutex
	val   T
	err   error
	thens []func(T, error)
}

func newFuture[T any](l *loop.Loop) *Future[T] {
	return &Future[T]{l: l, done: make(chan struct{})}
}

// Rejected returns a future already settled with err.
func Rejected[T any](l *loop.Loop, err error) *Future[T] {
	f := newFuture[T](l)
	var zero T
	f.settle(zero, err)
	return f
}

// settle records the outcome and runs pending continuations. Later calls are
// ignored and report false.
func (f *Future[T]) settle(v T, err error) bool {
	f.mu.Lock()
	if f.settled.Load() {
		f.mu.Unlock()
		return false
	}
	f.val, f.err = v, err
	f.settled.Store(true)
	thens := f.thens
	f.thens = nil
	close(f.done)
	f.mu.Unlock()
	for _, cb := range thens {
		cb(v, err)
	}
	return true
}

// Then registers cb to run once the future settles. Callbacks run where the
// future settles: normally on the loop, but on the worker when the loop
// closed while the work was in flight. If the future has already settled, cb
// is posted to the loop; when the loop is gone cb runs on the calling
// goroutine instead.
func (f *Future[T]) Then(cb func(T, error)) {
	if cb == nil {
		return
	}
	f.mu.Lock()
	if !f.settled.Load() {
		f.thens = append(f.thens, cb)
		f.mu.Unlock()
		return
	}
	v, err := f.val, f.err
	f.mu.Unlock()
	if perr := f.l.Post(func(error) { cb(v, err) }); perr != nil {
		cb(v, err)
	}
}

// Await blocks until the future settles or ctx is done.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Done is closed once the future has settled.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Settled reports whether the future reached a terminal state.
func (f *Future[T]) Settled() bool { return f.settled.Load() }

// Result returns the outcome without blocking, or ErrPending.
func (f *Future[T]) Result() (T, error) {
	if !f.settled.Load() {
		var zero T
		return zero, ErrPending
	}
	return f.val, f.err
}
