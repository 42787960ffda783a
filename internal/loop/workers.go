package loop

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

// Workers runs blocking work off the loop. Go never blocks the caller; at
// most n functions execute at the same time and the rest wait for a slot.
type Workers struct {
	sem *semaphore.Weighted
	wg  sync.WaitGroup
	log zerolog.Logger
}

// NewWorkers returns a pool that runs at most n functions concurrently.
func NewWorkers(n int, log zerolog.Logger) *Workers {
	if n <= 0 {
		n = 1
	}
	return &Workers{sem: semaphore.NewWeighted(int64(n)), log: log}
}

// Go schedules fn on a worker goroutine.
func (w *Workers) Go(fn func()) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		// Background context: Acquire only fails on cancellation.
		_ = w.sem.Acquire(context.Background(), 1)
		defer w.sem.Release(1)
		fn()
	}()
}

// Wait blocks until every scheduled function has returned.
func (w *Workers) Wait() { w.wg.Wait() }

// QueueWork runs execute on a worker and then complete on the loop. complete
// receives the panic of execute as an error, if any. If the loop terminated
// before completion could be queued, complete is invoked on the worker with
// ErrLoopClosed. QueueWork itself fails only when the loop is already closed.
func (l *Loop) QueueWork(execute func() error, complete Task) error {
	if execute == nil || complete == nil {
		return errNilTask
	}
	if l.Closed() {
		return ErrLoopClosed
	}
	l.workers.Go(func() {
		err := safeExecute(execute)
		perr := l.Post(func(lerr error) {
			if lerr != nil {
				complete(lerr)
				return
			}
			complete(err)
		})
		if perr != nil {
			l.log.Warn().Err(perr).Msg("work finished after loop closed")
			complete(perr)
		}
	})
	return nil
}

func safeExecute(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("work panicked: %v", r)
		}
	}()
	return fn()
}
