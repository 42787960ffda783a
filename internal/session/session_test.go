package session

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestLoadGenerateScenario(t *testing.T) {
	e := &fakeEngine{}
	s := newTestSession(t, e, Config{})
	if err := s.Load(context.Background(), "model.gguf", LoadOptions{ContextSize: 2048, Threads: 4}); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !s.IsLoaded() {
		t.Fatalf("expected loaded")
	}
	out, err := s.Generate(testCtx(t), "Hello", GenerateOptions{MaxTokens: 50, Temperature: 0.7, TopP: 0.9})
	if err != nil || out == "" {
		t.Fatalf("Generate = %q, %v", out, err)
	}
	if s.LastError() != "" {
		t.Fatalf("LastError = %q, want empty", s.LastError())
	}
	_, opts, _, _ := e.lastHandle().snapshot()
	got := opts[0]
	if got.MaxTokens != 50 || got.Temperature != 0.7 || got.TopP != 0.9 {
		t.Fatalf("options not passed through: %+v", got)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	e := &fakeEngine{}
	s := newTestSession(t, e, Config{})
	mustLoad(t, s, "model.gguf")
	if lo := e.loadOpts[0]; lo.ContextSize != DefaultContextSize || lo.Threads != DefaultThreads {
		t.Fatalf("load defaults: %+v", lo)
	}
	if _, err := s.Generate(testCtx(t), "x", GenerateOptions{}); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	_, opts, _, _ := e.lastHandle().snapshot()
	if o := opts[0]; o.MaxTokens != DefaultMaxTokens || o.Temperature != DefaultTemperature || o.TopP != DefaultTopP {
		t.Fatalf("generate defaults: %+v", o)
	}
}

func TestLoadFailure(t *testing.T) {
	s := newTestSession(t, &fakeEngine{}, Config{})
	err := s.Load(context.Background(), "bad.gguf", LoadOptions{})
	if err == nil || !IsLoadFailure(err) {
		t.Fatalf("want load failure, got %v", err)
	}
	if s.LastError() == "" {
		t.Fatalf("LastError must be set")
	}
	if s.IsLoaded() || s.State() != StateUnloaded {
		t.Fatalf("state = %v, want unloaded", s.State())
	}
	if s.Info() != NoModelInfo {
		t.Fatalf("Info = %q", s.Info())
	}
	// A failed load leaves the session usable.
	mustLoad(t, s, "good.gguf")
}

func TestLoadWhileLoadedFailsFast(t *testing.T) {
	e := &fakeEngine{}
	s := newTestSession(t, e, Config{})
	mustLoad(t, s, "a.gguf")
	err := s.Load(context.Background(), "b.gguf", LoadOptions{})
	if !IsAlreadyLoaded(err) {
		t.Fatalf("want ErrModelAlreadyLoaded, got %v", err)
	}
	if len(e.loads) != 1 {
		t.Fatalf("engine must not be touched, loads=%v", e.loads)
	}
	if s.Path() != "a.gguf" || !s.IsLoaded() {
		t.Fatalf("first model must stay loaded")
	}
	if !strings.Contains(s.LastError(), "already loaded") {
		t.Fatalf("LastError = %q", s.LastError())
	}
}

func TestUnloadIdempotent(t *testing.T) {
	e := &fakeEngine{}
	s := newTestSession(t, e, Config{})
	if err := s.Unload(); err != nil {
		t.Fatalf("Unload while unloaded: %v", err)
	}
	mustLoad(t, s, "m.gguf")
	h := e.lastHandle()
	if err := s.Unload(); err != nil {
		t.Fatalf("Unload: %v", err)
	}
	if s.IsLoaded() {
		t.Fatalf("expected unloaded right after Unload")
	}
	if err := s.Unload(); err != nil {
		t.Fatalf("second Unload: %v", err)
	}
	if _, _, closed, _ := h.snapshot(); closed != 1 {
		t.Fatalf("handle closed %d times, want 1", closed)
	}
	if s.State() != StateUnloaded || s.Info() != NoModelInfo || s.Path() != "" {
		t.Fatalf("unexpected status after unload: %+v", s.Status())
	}
	// Reload after unload.
	mustLoad(t, s, "m2.gguf")
	if s.Path() != "m2.gguf" {
		t.Fatalf("Path = %q", s.Path())
	}
}

func TestGenerateWhileUnloaded(t *testing.T) {
	s := newTestSession(t, &fakeEngine{}, Config{})
	out, err := s.Generate(testCtx(t), "hi", GenerateOptions{})
	if out != "" || !IsNotLoaded(err) {
		t.Fatalf("Generate = %q, %v", out, err)
	}
	if s.LastError() != ErrModelNotLoaded.Error() {
		t.Fatalf("LastError = %q", s.LastError())
	}
	if len(s.History()) != 0 {
		t.Fatalf("history must be untouched")
	}
}

func TestLastErrorSurvivesSuccess(t *testing.T) {
	s := newTestSession(t, &fakeEngine{}, Config{})
	_, _ = s.Generate(testCtx(t), "x", GenerateOptions{})
	mustLoad(t, s, "m.gguf")
	if _, err := s.Generate(testCtx(t), "x", GenerateOptions{}); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if s.LastError() != ErrModelNotLoaded.Error() {
		t.Fatalf("stale LastError must persist, got %q", s.LastError())
	}
}

func TestGenerateEngineFailure(t *testing.T) {
	boom := errors.New("decode failed")
	e := &fakeEngine{reply: func(string) (string, error) { return "partial", boom }}
	s := newTestSession(t, e, Config{})
	mustLoad(t, s, "m.gguf")
	out, err := s.Generate(testCtx(t), "x", GenerateOptions{})
	if out != "" || !IsGenerationFailure(err) || !errors.Is(err, boom) {
		t.Fatalf("Generate = %q, %v", out, err)
	}
	if !strings.Contains(s.LastError(), "decode failed") {
		t.Fatalf("LastError = %q", s.LastError())
	}
}

func TestGenerateEmptyOutputIsFailure(t *testing.T) {
	e := &fakeEngine{reply: func(string) (string, error) { return "", nil }}
	s := newTestSession(t, e, Config{})
	mustLoad(t, s, "m.gguf")
	_, err := s.Generate(testCtx(t), "x", GenerateOptions{})
	if !errors.Is(err, ErrEmptyOutput) {
		t.Fatalf("want ErrEmptyOutput, got %v", err)
	}
}

func TestGenerateStreamsTokens(t *testing.T) {
	e := &fakeEngine{tokens: []string{"a", "b", "c"}, reply: func(string) (string, error) { return "abc", nil }}
	s := newTestSession(t, e, Config{})
	mustLoad(t, s, "m.gguf")
	var got []string
	out, err := s.Generate(testCtx(t), "x", GenerateOptions{OnToken: func(tok string) error {
		got = append(got, tok)
		return nil
	}})
	if err != nil || out != "abc" || strings.Join(got, "") != "abc" {
		t.Fatalf("out=%q err=%v tokens=%v", out, err, got)
	}
}

func TestInfo(t *testing.T) {
	s := newTestSession(t, &fakeEngine{}, Config{})
	if s.Info() != NoModelInfo {
		t.Fatalf("Info = %q", s.Info())
	}
	if err := s.Load(context.Background(), "m.gguf", LoadOptions{ContextSize: 512, Threads: 2}); err != nil {
		t.Fatalf("Load: %v", err)
	}
	info := s.Info()
	for _, want := range []string{"Model loaded: Yes", "Context size: 512", "Threads: 2", "Vocabulary size: 32000", "m.gguf"} {
		if !strings.Contains(info, want) {
			t.Fatalf("Info %q missing %q", info, want)
		}
	}
}

func TestLoadCanceledContext(t *testing.T) {
	e := &fakeEngine{}
	s := newTestSession(t, e, Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Load(ctx, "m.gguf", LoadOptions{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
	if len(e.loads) != 0 || s.IsLoaded() {
		t.Fatalf("canceled load must not reach the engine")
	}
}

func TestEventsPublished(t *testing.T) {
	pub := NewMemoryPublisher()
	s := newTestSession(t, &fakeEngine{}, Config{Publisher: pub})
	_ = s.Load(context.Background(), "bad.gguf", LoadOptions{})
	mustLoad(t, s, "m.gguf")
	if _, err := s.Generate(testCtx(t), "x", GenerateOptions{}); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	s.ClearHistory()
	if err := s.Unload(); err != nil {
		t.Fatalf("Unload: %v", err)
	}
	want := []string{"load_start", "load_error", "load_start", "load_done", "generate_start", "generate_done", "history_cleared", "unload_start", "unload_done"}
	got := pub.Names()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("events = %v, want %v", got, want)
	}
}

func TestStateString(t *testing.T) {
	if StateLoaded.String() != "loaded" || StateUnloading.String() != "unloading" || State(9).String() != "state(9)" {
		t.Fatalf("unexpected state names")
	}
}

func TestCloseRefusesLaterWork(t *testing.T) {
	e := &fakeEngine{}
	s := newTestSession(t, e, Config{})
	mustLoad(t, s, "m.gguf")
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if h := e.lastHandle(); h != nil {
		if _, _, closed, _ := h.snapshot(); closed != 1 {
			t.Fatalf("handle closed %d times", closed)
		}
	}
	if err := s.Load(testCtx(t), "m.gguf", LoadOptions{}); !IsClosed(err) {
		t.Fatalf("Load after Close: want ErrClosed, got %v", err)
	}
	if s.IsLoaded() {
		t.Fatalf("Load after Close must not load")
	}
	if _, err := s.Generate(testCtx(t), "hi", GenerateOptions{}); !IsClosed(err) {
		t.Fatalf("Generate after Close: want ErrClosed, got %v", err)
	}
	if _, err := s.Chat(testCtx(t), "hi", ""); !IsClosed(err) {
		t.Fatalf("Chat after Close: want ErrClosed, got %v", err)
	}
	if s.LastError() != ErrClosed.Error() {
		t.Fatalf("LastError = %q", s.LastError())
	}
}
