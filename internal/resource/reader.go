// Package resource reads bundled resource files through an external resource
// manager and normalizes its failures into ErrNotFound, ErrUnavailable and ErrIO.
package resource

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
)

// DefaultMaxBytes caps a single resource read.
const DefaultMaxBytes = 50000

// chunkSize is the read granularity against the manager.
const chunkSize = 100

// Manager yields raw bytes for a logical resource name. Open must return an
// error matching fs.ErrNotExist or ErrNotFound when the name is unknown.
type Manager interface {
	Open(name string) (io.ReadCloser, error)
}

// Reader is the stateless adapter between callers and a Manager.
// The zero value uses DefaultMaxBytes.
type Reader struct {
	MaxBytes int64
}

// Read reads name from mgr with default limits.
func Read(name string, mgr Manager) ([]byte, error) { return Reader{}.Read(name, mgr) }

// Read opens name on mgr and returns its full content.
func (r Reader) Read(name string, mgr Manager) ([]byte, error) {
	if mgr == nil {
		return nil, &readError{name: name, kind: ErrUnavailable}
	}
	if strings.TrimSpace(name) == "" {
		return nil, &readError{name: name, kind: ErrNotFound, err: errors.New("empty name")}
	}
	rc, err := mgr.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, ErrNotFound) {
			return nil, &readError{name: name, kind: ErrNotFound, err: err}
		}
		if errors.Is(err, ErrUnavailable) {
			return nil, &readError{name: name, kind: ErrUnavailable, err: err}
		}
		return nil, &readError{name: name, kind: ErrIO, err: err}
	}
	defer rc.Close()

	limit := r.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	var out bytes.Buffer
	chunk := make([]byte, chunkSize)
	for {
		n, err := rc.Read(chunk)
		if n > 0 {
			if int64(out.Len()+n) > limit {
				return nil, &readError{name: name, kind: ErrIO, err: fmt.Errorf("exceeds limit of %d bytes", limit)}
			}
			out.Write(chunk[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &readError{name: name, kind: ErrIO, err: err}
		}
	}
	return out.Bytes(), nil
}
