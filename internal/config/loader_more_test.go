package config

import (
	"errors"
	"io/fs"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileKeepsNotExist(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("missing file: got %v, want fs.ErrNotExist", err)
	}
}

func TestLoadRejectsMalformedFiles(t *testing.T) {
	cases := []struct {
		name, body string
	}{
		{"syntax.yaml", "model: tiny.gguf\n: dangling\n"},
		{"type.yml", "threads: many\n"},
		{"syntax.json", `{"model": "tiny.gguf", "threads": }`},
		{"type.json", `{"max_wait_ms": "soon"}`},
		{"syntax.toml", "model = \"tiny.gguf\"\nthreads\n"},
		{"type.toml", "cors_origins = 3\n"},
	}
	d := t.TempDir()
	for _, c := range cases {
		if _, err := Load(writeTempFile(t, d, c.name, c.body)); err == nil {
			t.Fatalf("%s: expected decode error", c.name)
		}
	}
}

func TestLoadExtensionIsCaseInsensitive(t *testing.T) {
	p := writeTempFile(t, t.TempDir(), "CFG.YML", "history_window: 4\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HistoryWindow != 4 {
		t.Fatalf("HistoryWindow = %d", cfg.HistoryWindow)
	}
}
