package resource

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"llamabridge/internal/common/fsutil"
)

// DirManager serves resources from a directory. A name that has no plain
// file is looked up as "<name>.zst" and then "<name>.gz" and decompressed on read.
type DirManager struct {
	root string
}

// NewDirManager returns a manager rooted at dir ('~' is expanded).
func NewDirManager(dir string) (*DirManager, error) {
	root, err := fsutil.ResolveDir(dir)
	if err != nil {
		return nil, fmt.Errorf("resources dir: %w", err)
	}
	return &DirManager{root: root}, nil
}

// Root returns the absolute resource directory.
func (m *DirManager) Root() string { return m.root }

// Open implements Manager.
func (m *DirManager) Open(name string) (io.ReadCloser, error) {
	if !filepath.IsLocal(filepath.FromSlash(name)) {
		return nil, fmt.Errorf("%w: invalid name %q", ErrNotFound, name)
	}
	p := filepath.Join(m.root, filepath.FromSlash(name))
	f, err := openRegular(p)
	if err == nil {
		return f, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	if f, err := openRegular(p + ".zst"); err == nil {
		dec, derr := zstd.NewReader(f)
		if derr != nil {
			_ = f.Close()
			return nil, derr
		}
		return &decodedFile{Reader: dec, closeFn: func() error { dec.Close(); return f.Close() }}, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	if f, err := openRegular(p + ".gz"); err == nil {
		zr, zerr := gzip.NewReader(f)
		if zerr != nil {
			_ = f.Close()
			return nil, zerr
		}
		return &decodedFile{Reader: zr, closeFn: func() error {
			cerr := zr.Close()
			if ferr := f.Close(); cerr == nil {
				cerr = ferr
			}
			return cerr
		}}, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return nil, fmt.Errorf("%s: %w", name, fs.ErrNotExist)
}

// List returns the logical names of all resources, compressed ones without
// their suffix, sorted.
func (m *DirManager) List() ([]string, error) {
	seen := make(map[string]struct{})
	err := filepath.WalkDir(m.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(m.root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		rel = strings.TrimSuffix(strings.TrimSuffix(rel, ".zst"), ".gz")
		seen[rel] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out, nil
}

func openRegular(p string) (*os.File, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if fi.IsDir() {
		_ = f.Close()
		return nil, fmt.Errorf("%s: %w", p, fs.ErrNotExist)
	}
	return f, nil
}

type decodedFile struct {
	io.Reader
	closeFn func() error
}

func (d *decodedFile) Close() error { return d.closeFn() }
