package loop

import "errors"

// ErrLoopClosed is reported to tasks that were still queued when the loop
// terminated, and returned by Post once the loop no longer accepts work.
var ErrLoopClosed = errors.New("loop closed")

// ErrDispatcherClosed is returned by Send after the dispatcher was closed.
var ErrDispatcherClosed = errors.New("dispatcher closed")

// dispatcherClosedError carries the dispatcher name for log context.
type dispatcherClosedError struct{ name string }

func (e dispatcherClosedError) Error() string {
	if e.name == "" {
		return ErrDispatcherClosed.Error()
	}
	return "dispatcher closed: " + e.name
}

func (e dispatcherClosedError) Is(target error) bool { return target == ErrDispatcherClosed }

// IsClosed reports whether err means the work could not reach the loop,
// either because the dispatcher or the loop itself is closed. Callers may log
// and drop such work; it is never fatal.
func IsClosed(err error) bool {
	return errors.Is(err, ErrDispatcherClosed) || errors.Is(err, ErrLoopClosed)
}

var errNilTask = errors.New("loop: nil task")
