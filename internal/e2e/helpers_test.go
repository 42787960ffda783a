package e2e

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"llamabridge/internal/host"
	"llamabridge/internal/httpapi"
	"llamabridge/internal/resource"
	"llamabridge/internal/session"
)

// createTempModelsDir creates a temporary directory populated with empty .gguf files
// and returns the directory path and the list of model IDs (filenames).
func createTempModelsDir(t *testing.T, names ...string) (string, []string) {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		p := filepath.Join(dir, n)
		if err := os.WriteFile(p, []byte(""), 0o644); err != nil {
			t.Fatalf("write temp model %s: %v", p, err)
		}
	}
	return dir, names
}

// gateEngine loads any path. Its generations echo the last prompt line as
// tokens and, when gate is set, block until gate is closed.
type gateEngine struct {
	gate    chan struct{}
	started chan struct{}
	once    sync.Once
}

func (e *gateEngine) Load(path string, opts session.LoadOptions) (session.Handle, error) {
	return &gateHandle{e: e, info: session.HandleInfo{Path: path, ContextSize: opts.ContextSize, Threads: opts.Threads}}, nil
}

type gateHandle struct {
	e    *gateEngine
	info session.HandleInfo
}

func (h *gateHandle) Generate(ctx context.Context, prompt string, opts session.GenerateOptions) (string, error) {
	if h.e.started != nil {
		h.e.once.Do(func() { close(h.e.started) })
	}
	if h.e.gate != nil {
		select {
		case <-h.e.gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	lines := strings.Split(strings.TrimSpace(prompt), "\n")
	words := strings.Fields(lines[len(lines)-1])
	for _, w := range words {
		if opts.OnToken != nil {
			if err := opts.OnToken(w + " "); err != nil {
				return "", err
			}
		}
	}
	return strings.Join(words, " ") + " ", nil
}

func (h *gateHandle) Describe() session.HandleInfo { return h.info }
func (h *gateHandle) Close() error                 { return nil }

type serverOpts struct {
	modelsDir string
	resources resource.Manager
	engine    session.Engine
	maxWait   time.Duration
}

func newServer(t *testing.T, o serverOpts) (*httptest.Server, *host.Exports) {
	t.Helper()
	if o.engine == nil {
		o.engine = &gateEngine{}
	}
	x := host.New(host.Options{
		Resources: o.resources,
		ModelsDir: o.modelsDir,
		Session:   session.Config{Engine: o.engine, MaxWait: o.maxWait},
	})
	srv := httptest.NewServer(httpapi.NewMux(host.NewService(x, session.LoadOptions{})))
	t.Cleanup(func() {
		srv.Close()
		if err := x.Destroy(); err != nil {
			t.Errorf("Destroy: %v", err)
		}
	})
	return srv, x
}

func httpGet(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp, b
}

func httpPostJSON(t *testing.T, url, body string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp, b
}
