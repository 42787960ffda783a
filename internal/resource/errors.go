package resource

import "errors"

// Error kinds surfaced to completion callbacks and futures.
var (
	ErrNotFound    = errors.New("resource not found")
	ErrUnavailable = errors.New("resource manager unavailable")
	ErrIO          = errors.New("resource read failed")
)

// readError ties a failure to the resource name. It matches both its kind
// (ErrNotFound, ErrIO, ...) and the underlying cause with errors.Is.
type readError struct {
	name string
	kind error
	err  error
}

func (e *readError) Error() string {
	if e.err == nil {
		return e.kind.Error() + ": " + e.name
	}
	return e.kind.Error() + ": " + e.name + ": " + e.err.Error()
}

func (e *readError) Unwrap() []error {
	if e.err == nil {
		return []error{e.kind}
	}
	return []error{e.kind, e.err}
}

// IsNotFound reports whether err indicates a missing resource.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsUnavailable reports whether err indicates that no resource manager was supplied.
func IsUnavailable(err error) bool { return errors.Is(err, ErrUnavailable) }

// IsIO reports whether err indicates a read failure on an existing resource.
func IsIO(err error) bool { return errors.Is(err, ErrIO) }
