// Package host is the boundary surface of llamabridge: one method per exported
// operation, returning plain values, booleans and sentinels the way a
// scripting host expects. Failures never panic across the boundary; they
// surface through callbacks, futures or the boolean plus GetLastError pair.
package host

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/multierr"

	"llamabridge/internal/bridge"
	"llamabridge/internal/loop"
	"llamabridge/internal/registry"
	"llamabridge/internal/resource"
	"llamabridge/internal/session"
	"llamabridge/pkg/types"
)

// ErrDestroyed is returned by model operations attempted after Destroy and
// recorded as the last error. It is the session's ErrClosed.
var ErrDestroyed = session.ErrClosed

// Options configures Exports. Zero values take defaults.
type Options struct {
	// Workers bounds concurrent background work; default 4.
	Workers int
	// Resources is used when a read passes a nil manager.
	Resources resource.Manager
	// MaxResourceBytes caps a single resource read.
	MaxResourceBytes int64
	// ModelsDir is scanned by ListModels.
	ModelsDir string
	// GenerateTimeout bounds GenerateText and ChatCompletion; zero means none.
	GenerateTimeout time.Duration
	Session         session.Config
	Logger          *zerolog.Logger
}

// GenerateArgs are the optional arguments of GenerateText. Zero fields take
// the session defaults.
type GenerateArgs struct {
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// Exports owns the loop, the completion bridge and the model session.
type Exports struct {
	l         *loop.Loop
	b         *bridge.Bridge
	s         *session.Session
	resources resource.Manager
	modelsDir string
	timeout   time.Duration
	log       zerolog.Logger

	stopLoop    context.CancelFunc
	loopErr     chan error
	destroyOnce sync.Once
	destroyErr  error
	destroyed   chan struct{}
}

// New starts a loop on its own goroutine and returns the exports bound to it.
func New(opts Options) *Exports {
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}
	l := loop.New(loop.Options{Workers: opts.Workers, Logger: &log})
	if opts.Session.Logger == nil {
		opts.Session.Logger = &log
	}
	ctx, cancel := context.WithCancel(context.Background())
	e := &Exports{
		l:         l,
		b:         bridge.New(l, bridge.Options{Reader: resource.Reader{MaxBytes: opts.MaxResourceBytes}, Logger: &log}),
		s:         session.New(opts.Session),
		resources: opts.Resources,
		modelsDir: opts.ModelsDir,
		timeout:   opts.GenerateTimeout,
		log:       log.With().Str("component", "host").Logger(),
		stopLoop:  cancel,
		loopErr:   make(chan error, 1),
		destroyed: make(chan struct{}),
	}
	go func() { e.loopErr <- l.Run(ctx) }()
	return e
}

// Loop returns the host loop.
func (e *Exports) Loop() *loop.Loop { return e.l }

// Session returns the model session.
func (e *Exports) Session() *session.Session { return e.s }

func (e *Exports) manager(mgr resource.Manager) resource.Manager {
	if mgr != nil {
		return mgr
	}
	return e.resources
}

// SyncCallbackRead reads name on the calling goroutine and calls cb before returning.
func (e *Exports) SyncCallbackRead(name string, mgr resource.Manager, cb bridge.ReadCallback) {
	e.b.SyncCallbackRead(name, e.manager(mgr), cb)
}

// AsyncCallbackRead reads name on a worker and calls cb later on the loop.
func (e *Exports) AsyncCallbackRead(name string, mgr resource.Manager, cb bridge.ReadCallback) error {
	return e.b.AsyncCallbackRead(name, e.manager(mgr), cb)
}

// AsyncPromiseRead reads name on a worker and settles the future on the loop.
func (e *Exports) AsyncPromiseRead(name string, mgr resource.Manager) *bridge.Future[string] {
	return e.b.AsyncPromiseRead(name, e.manager(mgr))
}

// ThreadSafeCaseFun runs work on the loop through the dispatcher.
func (e *Exports) ThreadSafeCaseFun(work bridge.Work) error { return e.b.ThreadSafeCaseFun(work) }

// LibUvCaseFun runs work on the loop through a one-shot async handle.
func (e *Exports) LibUvCaseFun(work bridge.Work) error { return e.b.LibUvCaseFun(work) }

// CaseValue returns the value shared by the case functions.
func (e *Exports) CaseValue() int32 { return e.b.Value() }

// LoadModel loads path with optional context size and thread count. It
// returns false on failure; GetLastError has the reason. After Destroy it
// always fails with ErrDestroyed.
func (e *Exports) LoadModel(path string, args ...int) bool {
	var opts session.LoadOptions
	if len(args) > 0 {
		opts.ContextSize = args[0]
	}
	if len(args) > 1 {
		opts.Threads = args[1]
	}
	return e.s.Load(context.Background(), path, opts) == nil
}

// UnloadModel releases the model. Calling it while unloaded is a no-op.
func (e *Exports) UnloadModel() {
	if err := e.s.Unload(); err != nil {
		e.log.Warn().Err(err).Msg("unload")
	}
}

// IsModelLoaded never blocks.
func (e *Exports) IsModelLoaded() bool { return e.s.IsLoaded() }

// GenerateText returns the completion for prompt, or "" on failure.
func (e *Exports) GenerateText(prompt string, args GenerateArgs) string {
	ctx, cancel := e.genContext()
	defer cancel()
	text, _ := e.s.Generate(ctx, prompt, args.options())
	return text
}

// ChatCompletion answers input with the chat history as context and an
// optional system prompt. It returns "" on failure.
func (e *Exports) ChatCompletion(input string, system ...string) string {
	ctx, cancel := e.genContext()
	defer cancel()
	text, _ := e.s.Chat(ctx, input, firstOf(system))
	return text
}

// GenerateTextAsync runs GenerateText on a worker and settles the future on the loop.
func (e *Exports) GenerateTextAsync(prompt string, args GenerateArgs) *bridge.Future[string] {
	if e.isDestroyed() {
		// The closed session refuses without touching the engine and records the error.
		_, err := e.s.Generate(context.Background(), prompt, args.options())
		return bridge.Rejected[string](e.l, err)
	}
	return bridge.Run(e.b, "generate", func() (string, error) {
		ctx, cancel := e.genContext()
		defer cancel()
		return e.s.Generate(ctx, prompt, args.options())
	})
}

// ChatCompletionAsync runs ChatCompletion on a worker and settles the future on the loop.
func (e *Exports) ChatCompletionAsync(input string, system ...string) *bridge.Future[string] {
	sys := firstOf(system)
	if e.isDestroyed() {
		_, err := e.s.Chat(context.Background(), input, sys)
		return bridge.Rejected[string](e.l, err)
	}
	return bridge.Run(e.b, "chat", func() (string, error) {
		ctx, cancel := e.genContext()
		defer cancel()
		return e.s.Chat(ctx, input, sys)
	})
}

// ClearChatHistory empties the chat history.
func (e *Exports) ClearChatHistory() { e.s.ClearHistory() }

// ChatHistory returns a copy of the chat history.
func (e *Exports) ChatHistory() []session.Turn { return e.s.History() }

// GetModelInfo describes the loaded model or returns session.NoModelInfo.
func (e *Exports) GetModelInfo() string { return e.s.Info() }

// GetLastError returns the most recent session error, or "".
func (e *Exports) GetLastError() string { return e.s.LastError() }

// ListModels scans the configured models directory.
func (e *Exports) ListModels() ([]types.Model, error) {
	if e.modelsDir == "" {
		return nil, nil
	}
	return registry.LoadDir(e.modelsDir)
}

func (e *Exports) isDestroyed() bool {
	select {
	case <-e.destroyed:
		return true
	default:
		return false
	}
}

// Ready reports whether the host is running and a model is loaded.
func (e *Exports) Ready() bool {
	return !e.isDestroyed() && !e.l.Closed() && e.s.IsLoaded()
}

// Destroy tears everything down: it resets the case value, unloads the model,
// closes the dispatcher, stops the loop and waits for workers. Only the first
// call does anything; later calls return the same result.
func (e *Exports) Destroy() error {
	e.destroyOnce.Do(func() {
		close(e.destroyed)
		e.b.Reset()
		var errs error
		if err := e.s.Close(); err != nil {
			errs = multierr.Append(errs, err)
		}
		e.b.Close()
		e.l.Stop()
		select {
		case err := <-e.loopErr:
			if err != nil && !errors.Is(err, context.Canceled) {
				errs = multierr.Append(errs, err)
			}
		case <-time.After(5 * time.Second):
			errs = multierr.Append(errs, errors.New("loop did not stop"))
		}
		e.stopLoop()
		e.l.Workers().Wait()
		e.destroyErr = errs
		if errs != nil {
			e.log.Error().Err(errs).Msg("destroy")
		} else {
			e.log.Debug().Msg("destroyed")
		}
	})
	return e.destroyErr
}

func (e *Exports) genContext() (context.Context, context.CancelFunc) {
	if e.timeout > 0 {
		return context.WithTimeout(context.Background(), e.timeout)
	}
	return context.WithCancel(context.Background())
}

func (a GenerateArgs) options() session.GenerateOptions {
	return session.GenerateOptions{MaxTokens: a.MaxTokens, Temperature: a.Temperature, TopP: a.TopP}
}

func firstOf(s []string) string {
	if len(s) > 0 {
		return s[0]
	}
	return ""
}
