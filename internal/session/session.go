package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// State is the load state of a Session.
type State int32

const (
	StateUnloaded State = iota
	StateLoading
	StateLoaded
	StateUnloading
)

func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateUnloading:
		return "unloading"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// NoModelInfo is what Info returns while no model is loaded.
const NoModelInfo = "No model loaded"

// Config configures a Session. Zero values take defaults.
type Config struct {
	// Engine loads models; defaults to the llama engine of this build.
	Engine Engine
	// HistoryWindow is the number of trailing turns rendered into chat prompts.
	HistoryWindow int
	// MaxWait bounds the wait for the generation slot. Zero waits until the
	// slot frees or the context ends.
	MaxWait   time.Duration
	Logger    *zerolog.Logger
	Publisher EventPublisher
}

type loadedModel struct {
	h    Handle
	info HandleInfo
}

// Session is the single model session of the process.
type Session struct {
	engine  Engine
	window  int
	maxWait time.Duration
	log     zerolog.Logger
	pub     EventPublisher

	state     atomic.Int32
	closed    atomic.Bool
	model     atomic.Pointer[loadedModel]
	info      atomic.Value // string
	lastError atomic.Value // string

	// lifeMu serializes load against unload.
	lifeMu sync.Mutex
	// slot admits one generation at a time.
	slot chan struct{}
	// chatMu keeps each (user, assistant) append atomic across chats.
	chatMu sync.Mutex

	histMu  sync.Mutex
	history []Turn
}

// New returns an unloaded session.
func New(cfg Config) *Session {
	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = cfg.Logger.With().Str("component", "session").Logger()
	}
	s := &Session{
		engine:  cfg.Engine,
		window:  zn(cfg.HistoryWindow, DefaultHistoryWindow),
		maxWait: cfg.MaxWait,
		log:     log,
		pub:     cfg.Publisher,
		slot:    make(chan struct{}, 1),
	}
	if s.engine == nil {
		s.engine = NewLlamaEngine(log)
	}
	if s.pub == nil {
		s.pub = noopPublisher{}
	}
	s.info.Store(NoModelInfo)
	s.lastError.Store("")
	return s
}

// LlamaBuilt reports whether this binary carries the go-llama.cpp engine.
func LlamaBuilt() bool { return llamaBuilt }

// SetEventPublisher replaces the event sink. Not safe to call concurrently
// with other methods.
func (s *Session) SetEventPublisher(p EventPublisher) {
	if p == nil {
		p = noopPublisher{}
	}
	s.pub = p
}

// Load loads the model at path. It fails fast with ErrModelAlreadyLoaded
// while another model is loaded or loading, with ErrModelUnloading while an
// unload drains, and with ErrClosed after Close.
func (s *Session) Load(ctx context.Context, path string, opts LoadOptions) error {
	if err := s.admitLoad(); err != nil {
		return s.fail(err)
	}
	if err := ctx.Err(); err != nil {
		return s.fail(err)
	}
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()
	if s.closed.Load() {
		return s.fail(ErrClosed)
	}
	if !s.state.CompareAndSwap(int32(StateUnloaded), int32(StateLoading)) {
		err := s.admitLoad()
		if err == nil {
			err = ErrModelAlreadyLoaded
		}
		return s.fail(err)
	}

	opts = opts.withDefaults()
	s.pub.Publish(Event{Name: "load_start", Model: path, Fields: map[string]any{"ctx": opts.ContextSize, "threads": opts.Threads}})
	start := time.Now()
	h, err := s.engine.Load(path, opts)
	if err == nil && h == nil {
		err = fmt.Errorf("engine returned no handle")
	}
	if err != nil {
		s.state.Store(int32(StateUnloaded))
		err = &loadError{path: path, err: err}
		s.pub.Publish(Event{Name: "load_error", Model: path, Fields: map[string]any{"error": err.Error()}})
		return s.fail(err)
	}

	info := h.Describe()
	if info.Path == "" {
		info.Path = path
	}
	if info.ContextSize == 0 {
		info.ContextSize = opts.ContextSize
	}
	if info.Threads == 0 {
		info.Threads = opts.Threads
	}
	s.model.Store(&loadedModel{h: h, info: info})
	s.info.Store(describe(info))
	s.state.Store(int32(StateLoaded))
	modelLoaded.Set(1)
	s.log.Info().Str("path", path).Dur("took", time.Since(start)).Msg("model loaded")
	s.pub.Publish(Event{Name: "load_done", Model: path, Fields: map[string]any{"duration_ms": time.Since(start).Milliseconds()}})
	return nil
}

// Unload releases the loaded model. It waits for an in-flight generation to
// finish and is a no-op while unloaded. While it waits the state is
// StateUnloading: IsLoaded reports false, new generations fail with
// ErrModelNotLoaded and loads fail with ErrModelUnloading. History is kept.
func (s *Session) Unload() error {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()
	if !s.state.CompareAndSwap(int32(StateLoaded), int32(StateUnloading)) {
		return nil
	}
	m := s.model.Load()
	path := ""
	if m != nil {
		path = m.info.Path
	}
	s.pub.Publish(Event{Name: "unload_start", Model: path})

	s.slot <- struct{}{}
	s.model.Store(nil)
	s.info.Store(NoModelInfo)
	s.state.Store(int32(StateUnloaded))
	<-s.slot
	modelLoaded.Set(0)

	var err error
	if m != nil {
		if cerr := m.h.Close(); cerr != nil {
			err = fmt.Errorf("close model %s: %w", path, cerr)
			s.setLastError(err)
		}
	}
	s.log.Info().Str("path", path).Msg("model unloaded")
	s.pub.Publish(Event{Name: "unload_done", Model: path})
	return err
}

// IsLoaded reports whether a model is loaded. It never blocks.
func (s *Session) IsLoaded() bool { return State(s.state.Load()) == StateLoaded }

// State returns the current load state.
func (s *Session) State() State { return State(s.state.Load()) }

// Info describes the loaded model, or returns NoModelInfo.
func (s *Session) Info() string { return s.info.Load().(string) }

// LastError returns the message of the most recent failure, or "".
// Successful calls never clear it.
func (s *Session) LastError() string { return s.lastError.Load().(string) }

// Path returns the path of the loaded model, or "".
func (s *Session) Path() string {
	if m := s.model.Load(); m != nil {
		return m.info.Path
	}
	return ""
}

// Status is a point-in-time snapshot of the session.
type Status struct {
	State     State
	Path      string
	Info      string
	LastError string
	History   int
}

// Status returns a snapshot without waiting on loads or generations.
func (s *Session) Status() Status {
	s.histMu.Lock()
	n := len(s.history)
	s.histMu.Unlock()
	return Status{
		State:     s.State(),
		Path:      s.Path(),
		Info:      s.Info(),
		LastError: s.LastError(),
		History:   n,
	}
}

// Generate runs one completion. On failure it records LastError and returns
// "" with the error. It does not touch chat history.
func (s *Session) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	return s.generate(ctx, "generate", prompt, opts.withDefaults())
}

func (s *Session) generate(ctx context.Context, kind, prompt string, opts GenerateOptions) (string, error) {
	if s.closed.Load() {
		return "", s.fail(ErrClosed)
	}
	if !s.IsLoaded() {
		s.pub.Publish(Event{Name: "generate_error", Fields: map[string]any{"kind": kind, "error": ErrModelNotLoaded.Error()}})
		return "", s.fail(ErrModelNotLoaded)
	}
	release, err := s.acquire(ctx)
	if err != nil {
		s.pub.Publish(Event{Name: "generate_error", Model: s.Path(), Fields: map[string]any{"kind": kind, "error": err.Error()}})
		return "", s.fail(err)
	}
	defer release()
	m := s.model.Load()
	if m == nil || !s.IsLoaded() {
		return "", s.fail(ErrModelNotLoaded)
	}

	s.pub.Publish(Event{Name: "generate_start", Model: m.info.Path, Fields: map[string]any{"kind": kind, "max_tokens": opts.MaxTokens}})
	start := time.Now()
	text, err := m.h.Generate(ctx, prompt, opts)
	if err == nil && text == "" {
		err = ErrEmptyOutput
	}
	took := time.Since(start)
	if err != nil {
		generationDuration.WithLabelValues(kind, "error").Observe(took.Seconds())
		err = &generationError{err: err}
		s.pub.Publish(Event{Name: "generate_error", Model: m.info.Path, Fields: map[string]any{"kind": kind, "error": err.Error()}})
		return "", s.fail(err)
	}
	generationDuration.WithLabelValues(kind, "ok").Observe(took.Seconds())
	s.log.Debug().Str("kind", kind).Int("chars", len(text)).Dur("took", took).Msg("generation done")
	s.pub.Publish(Event{Name: "generate_done", Model: m.info.Path, Fields: map[string]any{"kind": kind, "duration_ms": took.Milliseconds()}})
	return text, nil
}

// acquire takes the generation slot and returns its release func.
func (s *Session) acquire(ctx context.Context) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	release := func() { <-s.slot }
	select {
	case s.slot <- struct{}{}:
		return release, nil
	default:
	}
	var timeout <-chan time.Time
	if s.maxWait > 0 {
		timer := time.NewTimer(s.maxWait)
		defer timer.Stop()
		timeout = timer.C
	}
	select {
	case s.slot <- struct{}{}:
		return release, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timeout:
		busyTotal.Inc()
		return nil, ErrBusy
	}
}

// Close unloads the model and drops the chat history. Later loads and
// generations fail with ErrClosed.
func (s *Session) Close() error {
	s.closed.Store(true)
	err := s.Unload()
	s.histMu.Lock()
	s.history = nil
	s.histMu.Unlock()
	return err
}

// admitLoad returns why a load cannot start right now, or nil.
func (s *Session) admitLoad() error {
	if s.closed.Load() {
		return ErrClosed
	}
	switch State(s.state.Load()) {
	case StateUnloaded:
		return nil
	case StateUnloading:
		return ErrModelUnloading
	}
	return ErrModelAlreadyLoaded
}

func (s *Session) fail(err error) error {
	s.setLastError(err)
	return err
}

func (s *Session) setLastError(err error) {
	s.lastError.Store(err.Error())
	s.log.Warn().Err(err).Msg("session error")
}

func describe(info HandleInfo) string {
	var b strings.Builder
	b.WriteString("Model loaded: Yes\n")
	fmt.Fprintf(&b, "Model path: %s\n", info.Path)
	fmt.Fprintf(&b, "Context size: %d\n", info.ContextSize)
	fmt.Fprintf(&b, "Threads: %d\n", info.Threads)
	if info.VocabSize > 0 {
		fmt.Fprintf(&b, "Vocabulary size: %d\n", info.VocabSize)
	}
	return b.String()
}
