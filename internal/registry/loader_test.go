package registry

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"llamabridge/pkg/types"
)

func TestGGUFScanner_ScanFiltersGGUF(t *testing.T) {
	dir := t.TempDir()
	// create files
	files := []string{
		"a.gguf",
		"b.GGUF", // case-insensitive
		"not-model.txt",
		"model.bin",
	}
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(dir, f), []byte(""), 0o644); err != nil {
			t.Fatalf("write temp file: %v", err)
		}
	}
	s := NewGGUFScanner()
	models, err := s.Scan(dir)
	if err != nil {
		t.Fatalf("scan error: %v", err)
	}
	if len(models) != 2 {
		t.Fatalf("expected 2 models, got %d", len(models))
	}
	// ensure IDs are filenames
	ids := []string{models[0].ID, models[1].ID}
	for _, id := range ids {
		if !strings.HasSuffix(strings.ToLower(id), ".gguf") {
			t.Fatalf("id not gguf: %s", id)
		}
	}
}

func TestGGUFScanner_ExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home dir on this platform: %v", err)
	}
	// create temporary directory under home
	hTmp, err := os.MkdirTemp(home, "llamabridge-registry-*")
	if err != nil {
		t.Skipf("cannot create temp under home: %v", err)
	}
	defer os.RemoveAll(hTmp)
	// create a gguf file inside it
	if err := os.WriteFile(filepath.Join(hTmp, "x.gguf"), []byte(""), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	// build path with ~ prefix
	var tildePath string
	if runtime.GOOS == "windows" {
		// On Windows, home might contain drive; ExpandHome still handles ~/<rest>
		tildePath = filepath.Join("~", filepath.Base(hTmp))
	} else {
		tildePath = "~/" + filepath.Base(hTmp)
	}
	s := NewGGUFScanner()
	models, err := s.Scan(tildePath)
	if err != nil {
		t.Fatalf("scan error: %v", err)
	}
	if len(models) != 1 || models[0].ID != "x.gguf" {
		t.Fatalf("unexpected models: %+v", models)
	}
}

func TestLoadDirWrapper(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "m.gguf"), []byte(""), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	models, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(models) != 1 || models[0].ID != "m.gguf" {
		t.Fatalf("unexpected: %+v", models)
	}
}

func TestScanSortsAndParsesQuant(t *testing.T) {
	dir := t.TempDir()
	for _, f := range []string{"z-model.Q4_K_M.gguf", "a-model-f16.gguf", "plain.gguf"} {
		if err := os.WriteFile(filepath.Join(dir, f), []byte(""), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.gguf"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	models, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(models) != 3 {
		t.Fatalf("expected 3 models, got %+v", models)
	}
	want := map[string]string{"a-model-f16.gguf": "F16", "plain.gguf": "", "z-model.Q4_K_M.gguf": "Q4_K_M"}
	for i, m := range models {
		if q, ok := want[m.ID]; !ok || q != m.Quant {
			t.Fatalf("model %d: %+v", i, m)
		}
		if !filepath.IsAbs(m.Path) {
			t.Fatalf("path not absolute: %s", m.Path)
		}
	}
	if models[0].ID != "a-model-f16.gguf" || models[2].ID != "z-model.Q4_K_M.gguf" {
		t.Fatalf("not sorted: %+v", models)
	}
}

func TestScanMissingDir(t *testing.T) {
	if _, err := LoadDir(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatalf("expected error for missing dir")
	}
}

func TestResolve(t *testing.T) {
	models := []types.Model{{ID: "tiny.gguf", Path: "/models/tiny.gguf"}}
	if p, err := Resolve(models, "tiny.gguf"); err != nil || p != "/models/tiny.gguf" {
		t.Fatalf("by id: %q %v", p, err)
	}
	if p, err := Resolve(models, "tiny"); err != nil || p != "/models/tiny.gguf" {
		t.Fatalf("by stem: %q %v", p, err)
	}
	p, err := Resolve(models, "other.gguf")
	if err != nil || !filepath.IsAbs(p) || filepath.Base(p) != "other.gguf" {
		t.Fatalf("by path: %q %v", p, err)
	}
	if _, err := Resolve(models, " "); err == nil {
		t.Fatalf("expected error for empty ref")
	}
}
