package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeEngine is an in-memory Engine used by the tests.
type fakeEngine struct {
	mu       sync.Mutex
	loadErr  error
	loads    []string
	loadOpts []LoadOptions
	handles  []*fakeHandle

	// reply computes the generated text; defaults to "re: <last user input>".
	reply  func(prompt string) (string, error)
	tokens []string
	// gate, when set, blocks each Generate until it is closed or receives.
	gate    chan struct{}
	started chan struct{}
}

func (e *fakeEngine) Load(path string, opts LoadOptions) (Handle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loads = append(e.loads, path)
	e.loadOpts = append(e.loadOpts, opts)
	if e.loadErr != nil {
		return nil, e.loadErr
	}
	if strings.HasPrefix(path, "bad") {
		return nil, errors.New("unsupported format")
	}
	h := &fakeHandle{e: e, info: HandleInfo{Path: path, ContextSize: opts.ContextSize, Threads: opts.Threads, VocabSize: 32000}}
	e.handles = append(e.handles, h)
	return h, nil
}

func (e *fakeEngine) lastHandle() *fakeHandle {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.handles) == 0 {
		return nil
	}
	return e.handles[len(e.handles)-1]
}

type fakeHandle struct {
	e    *fakeEngine
	info HandleInfo

	mu      sync.Mutex
	prompts []string
	opts    []GenerateOptions
	closed  int
	active  int
	overlap bool
}

func (h *fakeHandle) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	h.mu.Lock()
	h.prompts = append(h.prompts, prompt)
	h.opts = append(h.opts, opts)
	h.active++
	if h.active > 1 {
		h.overlap = true
	}
	closed := h.closed > 0
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		h.active--
		h.mu.Unlock()
	}()
	if closed {
		return "", errors.New("generate on closed handle")
	}
	if h.e.started != nil {
		h.e.started <- struct{}{}
	}
	if h.e.gate != nil {
		select {
		case <-h.e.gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	for _, tok := range h.e.tokens {
		if opts.OnToken != nil {
			if err := opts.OnToken(tok); err != nil {
				return "", err
			}
		}
	}
	if h.e.reply != nil {
		return h.e.reply(prompt)
	}
	return "re: " + lastUserInput(prompt), nil
}

func (h *fakeHandle) Describe() HandleInfo { return h.info }

func (h *fakeHandle) Close() error {
	h.mu.Lock()
	h.closed++
	h.mu.Unlock()
	return nil
}

func (h *fakeHandle) snapshot() (prompts []string, opts []GenerateOptions, closed int, overlap bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.prompts...), append([]GenerateOptions(nil), h.opts...), h.closed, h.overlap
}

func newTestSession(t *testing.T, e *fakeEngine, cfg Config) *Session {
	t.Helper()
	cfg.Engine = e
	s := New(cfg)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func mustLoad(t *testing.T, s *Session, path string) {
	t.Helper()
	if err := s.Load(context.Background(), path, LoadOptions{}); err != nil {
		t.Fatalf("Load(%q): %v", path, err)
	}
}

// testCtx returns a context with a short timeout, canceled on test cleanup.
func testCtx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return c
}

func waitFor(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("timeout waiting for %s", what)
	}
}

// lastUserInput returns the text of the final "User:" line of a prompt, or
// the whole prompt for plain generations.
func lastUserInput(prompt string) string {
	i := strings.LastIndex(prompt, "User: ")
	if i < 0 {
		return prompt
	}
	rest := prompt[i+len("User: "):]
	if j := strings.IndexByte(rest, '\n'); j >= 0 {
		rest = rest[:j]
	}
	return rest
}
