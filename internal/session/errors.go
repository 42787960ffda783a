package session

import (
	"errors"
	"fmt"
)

var (
	// ErrModelAlreadyLoaded is returned by Load while a model is loaded or loading.
	ErrModelAlreadyLoaded = errors.New("model already loaded")
	// ErrModelNotLoaded is returned by generation calls while no model is loaded.
	ErrModelNotLoaded = errors.New("model not loaded")
	// ErrBusy is returned when the generation slot stayed taken for MaxWait.
	ErrBusy = errors.New("too busy: generation in progress")
	// ErrDependencyUnavailable signals that the binary was built without llama support.
	ErrDependencyUnavailable = errors.New("llama support not built (missing 'llama' build tag)")
	// ErrModelUnloading is returned by Load while an unload waits for a running generation.
	ErrModelUnloading = errors.New("model unloading")
	// ErrClosed is returned by Load and generation calls after Close.
	ErrClosed = errors.New("session closed")
	// ErrEmptyOutput is the cause of a GenerationFailure when the engine produced no text.
	ErrEmptyOutput = errors.New("engine produced no text")
)

// loadError is a ModelLoadFailure: bad path, unsupported format, out of memory.
type loadError struct {
	path string
	err  error
}

func (e *loadError) Error() string {
	return fmt.Sprintf("failed to load model from %s: %v", e.path, e.err)
}

func (e *loadError) Unwrap() error { return e.err }

// generationError is a GenerationFailure reported by the engine.
type generationError struct{ err error }

func (e *generationError) Error() string { return "generation failed: " + e.err.Error() }

func (e *generationError) Unwrap() error { return e.err }

// IsLoadFailure reports whether err came from the engine failing to load a model.
func IsLoadFailure(err error) bool {
	var le *loadError
	return errors.As(err, &le)
}

// IsGenerationFailure reports whether err came from a failed generation.
func IsGenerationFailure(err error) bool {
	var ge *generationError
	return errors.As(err, &ge)
}

// IsNotLoaded reports whether err is ErrModelNotLoaded.
func IsNotLoaded(err error) bool { return errors.Is(err, ErrModelNotLoaded) }

// IsAlreadyLoaded reports whether err is ErrModelAlreadyLoaded.
func IsAlreadyLoaded(err error) bool { return errors.Is(err, ErrModelAlreadyLoaded) }

// IsBusy reports whether err indicates backpressure (429 over HTTP).
func IsUnloading(err error) bool { return errors.Is(err, ErrModelUnloading) }

func IsClosed(err error) bool { return errors.Is(err, ErrClosed) }

func IsBusy(err error) bool { return errors.Is(err, ErrBusy) }

// IsDependencyUnavailable reports whether err indicates a missing runtime dependency.
func IsDependencyUnavailable(err error) bool { return errors.Is(err, ErrDependencyUnavailable) }
