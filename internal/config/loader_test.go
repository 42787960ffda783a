package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestLoadYAML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.yaml", `addr: :9999
models_dir: /tmp
resources_dir: /res
model: tiny.gguf
context_size: 1024
threads: 2
max_wait_ms: 250
history_window: 10
cors_enabled: true
cors_origins: ["http://localhost:3000"]
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9999" || cfg.ModelsDir != "/tmp" || cfg.ResourcesDir != "/res" || cfg.Model != "tiny.gguf" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if cfg.ContextSize != 1024 || cfg.Threads != 2 || cfg.HistoryWindow != 10 || cfg.MaxWait() != 250*time.Millisecond {
		t.Fatalf("unexpected numbers: %+v", cfg)
	}
	if !cfg.CORSEnabled || len(cfg.CORSOrigins) != 1 {
		t.Fatalf("unexpected cors: %+v", cfg)
	}
}

func TestLoadJSON(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.json", `{"addr":":7070","models_dir":"/m","workers":8,"max_resource_bytes":4096,"generate_timeout_s":30,"log_level":"debug"}`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":7070" || cfg.ModelsDir != "/m" || cfg.Workers != 8 || cfg.MaxResourceBytes != 4096 || cfg.LogLevel != "debug" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if cfg.GenerateTimeout() != 30*time.Second {
		t.Fatalf("GenerateTimeout = %v", cfg.GenerateTimeout())
	}
}

func TestLoadTOML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.toml", "addr=\":8081\"\nmodels_dir=\"/x\"\nthreads=6\nmax_body_bytes=2048\ncors_methods=[\"GET\",\"POST\"]\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":8081" || cfg.ModelsDir != "/x" || cfg.Threads != 6 || cfg.MaxBodyBytes != 2048 || len(cfg.CORSMethods) != 2 {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error on empty path")
	}
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.txt", "not supported")
	if _, err := Load(p); err == nil {
		t.Fatalf("expected unsupported extension error")
	}
}

func TestWithDefaults(t *testing.T) {
	c := Config{Threads: 12}.WithDefaults()
	if c.Addr != DefaultAddr || c.ContextSize != DefaultContextSize || c.Workers != DefaultWorkers || c.LogLevel != DefaultLogLevel {
		t.Fatalf("defaults not applied: %+v", c)
	}
	if c.Threads != 12 {
		t.Fatalf("set value overwritten: %d", c.Threads)
	}
	if c.MaxBodyBytes != DefaultMaxBodyBytes {
		t.Fatalf("MaxBodyBytes = %d", c.MaxBodyBytes)
	}
}

func TestValidate(t *testing.T) {
	if err := (Config{}).Validate(); err != nil {
		t.Fatalf("zero config must validate: %v", err)
	}
	if err := (Config{MaxWaitMS: -1, HistoryWindow: -2}).Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}
