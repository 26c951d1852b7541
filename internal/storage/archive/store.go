// Package archive persists run artifacts (reports, ledgers, equity curves)
// to a local directory or an S3-compatible bucket.
package archive

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/newthinker/replay/internal/core"
)

// ErrNotFound is returned by Get when no object exists at the key
var ErrNotFound = errors.New("archive: object not found")

// Store is a flat key/value object store. Keys use forward slashes.
type Store interface {
	// Put stores data under key, replacing any previous object
	Put(ctx context.Context, key string, data []byte, contentType string) error

	// Get returns the object at key or ErrNotFound
	Get(ctx context.Context, key string) ([]byte, error)

	// List returns the keys under prefix in lexical order
	List(ctx context.Context, prefix string) ([]string, error)

	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error

	// Location describes where key ends up, for logs and reports
	Location(key string) string
}

// Backend names accepted by New
const (
	BackendLocalFS = "localfs"
	BackendS3      = "s3"
)

// Options select and configure a backend
type Options struct {
	Backend string
	Path    string // localfs root
	S3      S3Config
}

// New builds the store named by opts.Backend
func New(opts Options) (Store, error) {
	switch opts.Backend {
	case BackendLocalFS, "":
		if opts.Path == "" {
			return nil, core.WrapError(core.ErrConfigMissing, errors.New("archive path is required for localfs"))
		}
		return NewLocalFS(opts.Path)
	case BackendS3:
		return NewS3(opts.S3)
	default:
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown archive backend %q", opts.Backend))
	}
}

// cleanKey normalizes key and rejects anything that would escape the root
func cleanKey(key string) (string, error) {
	k := path.Clean("/" + strings.ReplaceAll(key, "\\", "/"))
	k = strings.TrimPrefix(k, "/")
	if k == "" || k == "." {
		return "", core.WrapError(core.ErrStorageFailed, fmt.Errorf("invalid key %q", key))
	}
	return k, nil
}

// RunKey returns the key of a run artifact, e.g. runs/<id>/report.json
func RunKey(runID, name string) string {
	return path.Join("runs", runID, name)
}
