package loop

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Task is a unit of work executed on the loop goroutine. A task that runs
// normally receives a nil error. A task that was still queued when the loop
// terminated is invoked with ErrLoopClosed instead, so queued work is never
// silently dropped.
type Task func(err error)

// Options configures a Loop. Zero values select defaults.
type Options struct {
	// Workers bounds how many background goroutines QueueWork may run at once.
	Workers int
	Logger  *zerolog.Logger
}

// Loop is the host's single-threaded executor. Tasks posted from any
// goroutine run one at a time, in posting order, on the goroutine that called Run.
type Loop struct {
	mu     sync.Mutex
	queue  []Task
	closed bool

	wake     chan struct{} // size 1
	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	running atomic.Bool
	inTask  atomic.Bool

	workers *Workers
	log     zerolog.Logger
}

// New constructs a Loop. The loop does not execute anything until Run is called.
func New(opts Options) *Loop {
	n := opts.Workers
	if n <= 0 {
		n = runtime.NumCPU()
	}
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = opts.Logger.With().Str("component", "loop").Logger()
	}
	return &Loop{
		wake:    make(chan struct{}, 1),
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
		workers: NewWorkers(n, log),
		log:     log,
	}
}

// Run executes queued tasks until Stop is called or ctx is canceled. Tasks
// still queued at that point are failed with ErrLoopClosed before Run returns.
// Run may be called only once.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return errors.New("loop: already running")
	}
	defer close(l.done)
	for {
		select {
		case <-l.stopCh:
			l.drain()
			return nil
		case <-ctx.Done():
			l.drain()
			return ctx.Err()
		default:
		}

		batch := l.take()
		if len(batch) > 0 {
			for _, t := range batch {
				l.exec(t, nil)
			}
			continue
		}

		select {
		case <-l.wake:
		case <-l.stopCh:
			l.drain()
			return nil
		case <-ctx.Done():
			l.drain()
			return ctx.Err()
		}
	}
}

// Post enqueues t for execution on the loop. It never blocks. Once the loop
// has terminated it returns ErrLoopClosed and t is not retained.
func (l *Loop) Post(t Task) error {
	if t == nil {
		return errNilTask
	}
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrLoopClosed
	}
	l.queue = append(l.queue, t)
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
	return nil
}

// Stop asks the loop to terminate. It does not wait; use Done for that.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() { close(l.stopCh) })
}

// Done is closed when Run has returned.
func (l *Loop) Done() <-chan struct{} { return l.done }

// Closed reports whether the loop stopped accepting tasks.
func (l *Loop) Closed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

// InLoop reports whether a loop task is executing right now.
func (l *Loop) InLoop() bool { return l.inTask.Load() }

// Pending returns the number of queued, not yet executed tasks.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// Workers returns the pool used by QueueWork.
func (l *Loop) Workers() *Workers { return l.workers }

func (l *Loop) take() []Task {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return nil
	}
	batch := l.queue
	l.queue = nil
	return batch
}

// drain closes the queue and fails whatever is left in it.
func (l *Loop) drain() {
	l.mu.Lock()
	l.closed = true
	rest := l.queue
	l.queue = nil
	l.mu.Unlock()
	if len(rest) > 0 {
		l.log.Debug().Int("pending", len(rest)).Msg("failing queued tasks")
	}
	for _, t := range rest {
		l.exec(t, ErrLoopClosed)
	}
}

func (l *Loop) exec(t Task, err error) {
	l.inTask.Store(true)
	defer l.inTask.Store(false)
	defer func() {
		if r := recover(); r != nil {
			l.log.Error().Str("panic", fmt.Sprint(r)).Msg("loop task panicked")
		}
	}()
	t(err)
}
