// internal/storage/paste/localfs.go
package paste

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/newthinker/rbin/internal/core"
)

// LocalFS implements Backend with one file per paste in a single directory.
//
// Content is written to a hidden temporary file, synced, and then published
// with a hard link. link(2) fails with EEXIST when the target exists, which
// makes publishing an atomic exclusive create: a paste is either absent or
// complete, and an existing paste is never overwritten. A crash mid-write can
// leave a stray ".*.tmp" file behind; those names are never valid ids.
type LocalFS struct {
	basePath string
}

// NewLocalFS creates a new LocalFS backend rooted at basePath, creating the
// directory if needed.
func NewLocalFS(basePath string) (*LocalFS, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, core.WrapError(core.ErrStartup, fmt.Errorf("creating paste directory %q: %w", basePath, err))
	}
	info, err := os.Stat(basePath)
	if err != nil {
		return nil, core.WrapError(core.ErrStartup, fmt.Errorf("checking paste directory %q: %w", basePath, err))
	}
	if !info.IsDir() {
		return nil, core.WrapError(core.ErrStartup, fmt.Errorf("paste directory %q is not a directory", basePath))
	}
	return &LocalFS{basePath: basePath}, nil
}

// Path returns the root directory.
func (l *LocalFS) Path() string {
	return l.basePath
}

func (l *LocalFS) fullPath(id string) (string, error) {
	if id == "" || strings.HasPrefix(id, ".") || strings.ContainsAny(id, `/\`) {
		return "", core.WrapError(core.ErrInvalidIdentifier, fmt.Errorf("%q is not a plain file name", id))
	}
	return filepath.Join(l.basePath, id), nil
}

func (l *LocalFS) Create(ctx context.Context, id string, content []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target, err := l.fullPath(id)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(l.basePath, "."+id+".*.tmp")
	if err != nil {
		return core.WrapError(core.ErrStorageIO, fmt.Errorf("creating temp file: %w", err))
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return core.WrapError(core.ErrStorageIO, fmt.Errorf("writing %s: %w", id, err))
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return core.WrapError(core.ErrStorageIO, fmt.Errorf("syncing %s: %w", id, err))
	}
	if err := tmp.Close(); err != nil {
		return core.WrapError(core.ErrStorageIO, fmt.Errorf("closing %s: %w", id, err))
	}
	// CreateTemp uses 0600; pastes are world readable like any served file.
	if err := os.Chmod(tmpName, 0644); err != nil {
		return core.WrapError(core.ErrStorageIO, fmt.Errorf("chmod %s: %w", id, err))
	}

	if err := os.Link(tmpName, target); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%s: %w", id, ErrExists)
		}
		return core.WrapError(core.ErrStorageIO, fmt.Errorf("publishing %s: %w", id, err))
	}

	syncDir(l.basePath)
	return nil
}

func (l *LocalFS) Read(ctx context.Context, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := l.fullPath(id)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, core.WrapError(core.ErrNotFound, fmt.Errorf("%s", id))
		}
		return nil, core.WrapError(core.ErrStorageIO, fmt.Errorf("reading %s: %w", id, err))
	}
	return data, nil
}

// syncDir flushes the directory entry for a new link. Not every platform
// supports fsync on a directory, so failures are ignored; the file data
// itself was already synced.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}
