package host

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"llamabridge/internal/resource"
	"llamabridge/internal/session"
)

// fakeEngine loads any path not starting with "bad" and answers every prompt
// with "reply to <last line>".
type fakeEngine struct {
	mu    sync.Mutex
	loads []session.LoadOptions
}

func (e *fakeEngine) Load(path string, opts session.LoadOptions) (session.Handle, error) {
	e.mu.Lock()
	e.loads = append(e.loads, opts)
	e.mu.Unlock()
	if strings.HasPrefix(path, "bad") {
		return nil, errors.New("unsupported format")
	}
	return fakeHandle{info: session.HandleInfo{Path: path, ContextSize: opts.ContextSize, Threads: opts.Threads}}, nil
}

type fakeHandle struct{ info session.HandleInfo }

func (h fakeHandle) Generate(ctx context.Context, prompt string, opts session.GenerateOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	lines := strings.Split(strings.TrimSpace(prompt), "\n")
	last := lines[len(lines)-1]
	if len(lines) > 1 && strings.HasPrefix(last, "Assistant:") {
		last = lines[len(lines)-2]
	}
	return "reply to " + last, nil
}

func (h fakeHandle) Describe() session.HandleInfo { return h.info }
func (h fakeHandle) Close() error                 { return nil }

func newTestExports(t *testing.T, opts Options) (*Exports, *fakeEngine) {
	t.Helper()
	e := &fakeEngine{}
	opts.Session.Engine = e
	if opts.Resources == nil {
		opts.Resources = resource.NewStatic(map[string][]byte{"hello.txt": []byte("Hello, world!")})
	}
	x := New(opts)
	t.Cleanup(func() {
		if err := x.Destroy(); err != nil {
			t.Errorf("Destroy: %v", err)
		}
	})
	return x, e
}
