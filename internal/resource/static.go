package resource

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"sync"
)

// Static is an in-memory Manager, handy for embedding small bundles and tests.
type Static struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewStatic returns a manager serving a copy of files.
func NewStatic(files map[string][]byte) *Static {
	s := &Static{files: make(map[string][]byte, len(files))}
	for k, v := range files {
		s.files[k] = append([]byte(nil), v...)
	}
	return s
}

// Put adds or replaces a resource.
func (s *Static) Put(name string, data []byte) {
	s.mu.Lock()
	s.files[name] = append([]byte(nil), data...)
	s.mu.Unlock()
}

// Open implements Manager.
func (s *Static) Open(name string) (io.ReadCloser, error) {
	s.mu.RLock()
	b, ok := s.files[name]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, fs.ErrNotExist)
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}
