package archive

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/newthinker/replay/internal/core"
)

// LocalFS stores objects as files below a root directory
type LocalFS struct {
	root string
}

// NewLocalFS creates root if needed
func NewLocalFS(root string) (*LocalFS, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, fmt.Errorf("creating archive root: %w", err))
	}
	return &LocalFS{root: root}, nil
}

func (l *LocalFS) file(key string) (string, error) {
	k, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(l.root, filepath.FromSlash(k)), nil
}

// Location returns the file path for key
func (l *LocalFS) Location(key string) string {
	p, err := l.file(key)
	if err != nil {
		return l.root
	}
	return p
}

// Put writes data atomically via a temp file and rename
func (l *LocalFS) Put(ctx context.Context, key string, data []byte, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := l.file(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return core.WrapError(core.ErrStorageFailed, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(p), ".put-*")
	if err != nil {
		return core.WrapError(core.ErrStorageFailed, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return core.WrapError(core.ErrStorageFailed, err)
	}
	if err := tmp.Close(); err != nil {
		return core.WrapError(core.ErrStorageFailed, err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return core.WrapError(core.ErrStorageFailed, err)
	}
	return nil
}

// Get reads the file for key
func (l *LocalFS) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := l.file(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, err)
	}
	return data, nil
}

// List walks the tree below prefix. A missing prefix yields no keys.
func (l *LocalFS) List(ctx context.Context, prefix string) ([]string, error) {
	start := l.root
	if strings.Trim(prefix, "/") != "" {
		p, err := l.file(prefix)
		if err != nil {
			return nil, err
		}
		start = p
	}

	keys := []string{}
	err := filepath.WalkDir(start, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".put-") {
			return nil
		}
		rel, err := filepath.Rel(l.root, p)
		if err != nil {
			return err
		}
		keys = append(keys, filepath.ToSlash(rel))
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, err)
	}
	sort.Strings(keys)
	return keys, nil
}

// Exists reports whether a file exists for key
func (l *LocalFS) Exists(_ context.Context, key string) (bool, error) {
	p, err := l.file(key)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, core.WrapError(core.ErrStorageFailed, err)
	}
	return true, nil
}

// Delete removes the file for key; a missing file is not an error
func (l *LocalFS) Delete(_ context.Context, key string) error {
	p, err := l.file(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return core.WrapError(core.ErrStorageFailed, err)
	}
	return nil
}
