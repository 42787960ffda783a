// Package registry discovers GGUF model files on disk.
package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"llamabridge/internal/common/fsutil"
	"llamabridge/pkg/types"
)

// GGUFScanner lists *.gguf files of a directory as models.
type GGUFScanner struct{}

func NewGGUFScanner() *GGUFScanner { return &GGUFScanner{} }

// Scan returns the models found directly under dir, sorted by ID.
// ID and Name are the file name; Path is absolute; Quant is parsed from the name when present.
func (GGUFScanner) Scan(dir string) ([]types.Model, error) {
	abs, err := fsutil.ResolveDir(dir)
	if err != nil {
		return nil, fmt.Errorf("models dir: %w", err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var models []types.Model
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(strings.ToLower(name), ".gguf") {
			continue
		}
		models = append(models, types.Model{
			ID:    name,
			Name:  name,
			Path:  filepath.Join(abs, name),
			Quant: quantOf(name),
		})
	}
	sort.Slice(models, func(i, j int) bool { return models[i].ID < models[j].ID })
	return models, nil
}

// LoadDir scans dir with the default scanner.
func LoadDir(dir string) ([]types.Model, error) { return NewGGUFScanner().Scan(dir) }

// Resolve maps ref to a model path. ref may be a model ID from models or a
// file path; IDs win.
func Resolve(models []types.Model, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("empty model reference")
	}
	for _, m := range models {
		if m.ID == ref || strings.EqualFold(strings.TrimSuffix(m.ID, filepath.Ext(m.ID)), ref) {
			return m.Path, nil
		}
	}
	return fsutil.ResolveFile(ref)
}

// quantOf extracts a quantization tag such as Q4_K_M or F16 from a file name.
func quantOf(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	parts := strings.FieldsFunc(base, func(r rune) bool { return r == '.' || r == '-' })
	for i := len(parts) - 1; i >= 0; i-- {
		p := strings.ToUpper(parts[i])
		switch {
		case p == "F16" || p == "F32" || p == "BF16":
			return p
		case len(p) >= 2 && p[0] == 'Q' && isDigit(p[1]):
			return p
		case len(p) >= 3 && strings.HasPrefix(p, "IQ") && isDigit(p[2]):
			return p
		}
	}
	return ""
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
