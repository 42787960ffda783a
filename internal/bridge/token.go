package bridge

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// Kind is the completion style of an in-flight operation.
type Kind string

const (
	KindSync     Kind = "sync"
	KindCallback Kind = "callback"
	KindPromise  Kind = "promise"
	KindDispatch Kind = "dispatch"
	KindAsync    Kind = "async"
)

const (
	slotPending int32 = iota
	slotWriting
	slotReady
	slotConsumed
)

// token tracks one in-flight operation. Its result slot is written once
// (normally by the worker) and consumed once (normally on the loop).
type token[T any] struct {
	id    uuid.UUID
	kind  Kind
	label string
	state atomic.Int32
	val   T
	err   error
}

func newToken[T any](kind Kind, label string) *token[T] {
	inflightTokens.WithLabelValues(string(kind)).Inc()
	return &token[T]{id: uuid.New(), kind: kind, label: label}
}

// write stores the result. It returns false if a result was already written.
func (t *token[T]) write(v T, err error) bool {
	if !t.state.CompareAndSwap(slotPending, slotWriting) {
		return false
	}
	t.val, t.err = v, err
	t.state.Store(slotReady)
	return true
}

// consume returns the written result exactly once. ok is false when the slot
// is still empty or was already consumed.
func (t *token[T]) consume() (v T, err error, ok bool) {
	if !t.state.CompareAndSwap(slotReady, slotConsumed) {
		return v, nil, false
	}
	inflightTokens.WithLabelValues(string(t.kind)).Dec()
	return t.val, t.err, true
}

// abandon drops a token whose work never got queued.
func (t *token[T]) abandon() {
	if t.state.Swap(slotConsumed) != slotConsumed {
		inflightTokens.WithLabelValues(string(t.kind)).Dec()
	}
}
