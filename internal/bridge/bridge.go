// Package bridge delivers the results of background work back to the host
// loop. The same worker dispatch backs three completion styles: synchronous
// callback, loop callback and Future.
package bridge

import (
	"errors"
	"sync/atomic"

	"github.com/rs/zerolog"

	"llamabridge/internal/loop"
	"llamabridge/internal/resource"
)

// ErrNilCallback is returned when a required callback or work function is nil.
var ErrNilCallback = errors.New("callback is required")

// ReadCallback receives either the resource text or an error, never both.
type ReadCallback func(text string, err error)

// Work runs on the loop with the current shared value and returns its
// replacement.
type Work func(value int32) int32

// Options configures a Bridge.
type Options struct {
	Reader resource.Reader
	Logger *zerolog.Logger
}

// Bridge is the completion bridge bound to one loop.
type Bridge struct {
	l      *loop.Loop
	reader resource.Reader
	disp   *loop.Dispatcher
	value  atomic.Int32
	log    zerolog.Logger
}

// New creates a bridge. It owns a Dispatcher on l, released by Close.
func New(l *loop.Loop, opts Options) *Bridge {
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = opts.Logger.With().Str("component", "bridge").Logger()
	}
	return &Bridge{
		l:      l,
		reader: opts.Reader,
		disp:   loop.NewDispatcher(l, "threadsafe-case"),
		log:    log,
	}
}

// Loop returns the loop results are delivered on.
func (b *Bridge) Loop() *loop.Loop { return b.l }

// SyncCallbackRead reads name on the calling goroutine and invokes cb before
// returning. Callers on the loop should keep such reads small.
func (b *Bridge) SyncCallbackRead(name string, mgr resource.Manager, cb ReadCallback) {
	tok := newToken[string](KindSync, name)
	data, err := b.reader.Read(name, mgr)
	tok.write(string(data), err)
	text, err, _ := tok.consume()
	observe(KindSync, err)
	if cb != nil {
		cb(text, err)
	}
}

// AsyncCallbackRead reads name on a worker and invokes cb on the loop after
// this call has returned. The returned error is non-nil only when the read
// could not be queued, in which case cb is never invoked.
func (b *Bridge) AsyncCallbackRead(name string, mgr resource.Manager, cb ReadCallback) error {
	if cb == nil {
		return ErrNilCallback
	}
	tok := newToken[string](KindCallback, name)
	err := b.l.QueueWork(b.readInto(tok, name, mgr), func(err error) {
		text, rerr, ok := collect(b, tok, err)
		if !ok {
			return
		}
		cb(text, rerr)
	})
	if err != nil {
		tok.abandon()
		droppedTotal.WithLabelValues(string(KindCallback)).Inc()
		return err
	}
	return nil
}

// AsyncPromiseRead reads name on a worker and settles the returned future on
// the loop. If the read cannot be queued the future is already rejected.
func (b *Bridge) AsyncPromiseRead(name string, mgr resource.Manager) *Future[string] {
	f := newFuture[string](b.l)
	tok := newToken[string](KindPromise, name)
	err := b.l.QueueWork(b.readInto(tok, name, mgr), func(err error) {
		text, rerr, ok := collect(b, tok, err)
		if !ok {
			return
		}
		f.settle(text, rerr)
	})
	if err != nil {
		tok.abandon()
		droppedTotal.WithLabelValues(string(KindPromise)).Inc()
		f.settle("", err)
	}
	return f
}

// Run executes fn on a worker and settles the returned future on the loop.
func Run[T any](b *Bridge, label string, fn func() (T, error)) *Future[T] {
	f := newFuture[T](b.l)
	tok := newToken[T](KindPromise, label)
	err := b.l.QueueWork(func() error {
		v, err := fn()
		tok.write(v, err)
		return nil
	}, func(err error) {
		v, rerr, ok := collect(b, tok, err)
		if !ok {
			return
		}
		f.settle(v, rerr)
	})
	if err != nil {
		tok.abandon()
		var zero T
		f.settle(zero, err)
	}
	return f
}

// ThreadSafeCaseFun hands work to a worker goroutine, which sends it back to
// the loop through the bridge dispatcher. On the loop, work receives the
// shared value and its result replaces it. Work that can no longer be
// delivered is logged and dropped.
func (b *Bridge) ThreadSafeCaseFun(work Work) error {
	if work == nil {
		return ErrNilCallback
	}
	if b.disp.Closed() {
		return loop.ErrDispatcherClosed
	}
	b.l.Workers().Go(func() {
		err := b.disp.Send(func(err error) {
			if err != nil {
				b.dropped(KindDispatch, err)
				return
			}
			b.value.Store(work(b.value.Load()))
			observe(KindDispatch, nil)
		})
		if err != nil {
			b.dropped(KindDispatch, err)
		}
	})
	return nil
}

// LibUvCaseFun has the same contract as ThreadSafeCaseFun but signals the loop
// through a one-shot Async handle, closed once it fired.
func (b *Bridge) LibUvCaseFun(work Work) error {
	if work == nil {
		return ErrNilCallback
	}
	if b.l.Closed() {
		return loop.ErrLoopClosed
	}
	var a *loop.Async
	a = loop.NewAsync(b.l, func(err error) {
		defer a.Close()
		if err != nil {
			b.dropped(KindAsync, err)
			return
		}
		b.value.Store(work(b.value.Load()))
		observe(KindAsync, nil)
	})
	b.l.Workers().Go(func() {
		if err := a.Send(); err != nil {
			a.Close()
			b.dropped(KindAsync, err)
		}
	})
	return nil
}

// Value returns the shared value mutated by the case functions.
func (b *Bridge) Value() int32 { return b.value.Load() }

// Reset sets the shared value back to zero.
func (b *Bridge) Reset() { b.value.Store(0) }

// Close stops accepting case work. Already queued work still runs.
func (b *Bridge) Close() { b.disp.Close() }

func (b *Bridge) readInto(tok *token[string], name string, mgr resource.Manager) func() error {
	return func() error {
		data, err := b.reader.Read(name, mgr)
		tok.write(string(data), err)
		return nil
	}
}

// collect consumes tok inside a completion. A completion error (worker panic,
// loop closed) takes precedence over whatever the worker stored.
func collect[T any](b *Bridge, tok *token[T], cerr error) (v T, err error, ok bool) {
	if cerr != nil {
		tok.write(v, cerr)
	}
	v, err, ok = tok.consume()
	if !ok {
		b.log.Error().Str("id", tok.id.String()).Str("label", tok.label).Msg("completion without result")
		return v, nil, false
	}
	if cerr != nil {
		var zero T
		v, err = zero, cerr
	}
	observe(tok.kind, err)
	return v, err, true
}

func (b *Bridge) dropped(kind Kind, err error) {
	droppedTotal.WithLabelValues(string(kind)).Inc()
	b.log.Warn().Err(err).Str("kind", string(kind)).Msg("work dropped")
}
