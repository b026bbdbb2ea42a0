// internal/storage/paste/localfs_test.go
package paste

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/newthinker/rbin/internal/core"
)

func TestLocalFS_ImplementsBackend(t *testing.T) {
	var _ Backend = (*LocalFS)(nil)
}

func TestNewLocalFS_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "pastes")

	fs, err := NewLocalFS(dir)
	if err != nil {
		t.Fatalf("NewLocalFS: %v", err)
	}
	if fs.Path() != dir {
		t.Errorf("got path %q, want %q", fs.Path(), dir)
	}

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if !info.IsDir() {
		t.Error("expected a directory")
	}
}

func TestNewLocalFS_FileInTheWay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pastes")
	if err := os.WriteFile(path, []byte("not a dir"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := NewLocalFS(path)
	if !errors.Is(err, core.ErrStartup) {
		t.Errorf("expected startup failure, got %v", err)
	}
}

func TestLocalFS_FileLayout(t *testing.T) {
	dir := t.TempDir()
	fs, _ := NewLocalFS(dir)
	ctx := context.Background()

	if err := fs.Create(ctx, "aBcDeF", []byte("data")); err != nil {
		t.Fatalf("Create: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("expected exactly one file, got %v", names)
	}
	if entries[0].Name() != "aBcDeF" {
		t.Errorf("expected file named after the id, got %q", entries[0].Name())
	}

	data, err := os.ReadFile(filepath.Join(dir, "aBcDeF"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "data" {
		t.Errorf("got %q, want %q", data, "data")
	}

	if runtime.GOOS != "windows" {
		info, _ := entries[0].Info()
		if perm := info.Mode().Perm(); perm != 0644 {
			t.Errorf("expected mode 0644, got %o", perm)
		}
	}
}

func TestLocalFS_CollisionLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	fs, _ := NewLocalFS(dir)
	ctx := context.Background()

	fs.Create(ctx, "aBcDeF", []byte("first"))
	fs.Create(ctx, "aBcDeF", []byte("second"))

	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestLocalFS_RejectsPathLikeIDs(t *testing.T) {
	dir := t.TempDir()
	fs, _ := NewLocalFS(dir)
	ctx := context.Background()

	for _, id := range []string{"", "../x", "a/b", `a\b`, ".hidden", ".."} {
		if err := fs.Create(ctx, id, []byte("x")); !errors.Is(err, core.ErrInvalidIdentifier) {
			t.Errorf("Create(%q): expected invalid identifier, got %v", id, err)
		}
		if _, err := fs.Read(ctx, id); !errors.Is(err, core.ErrInvalidIdentifier) {
			t.Errorf("Read(%q): expected invalid identifier, got %v", id, err)
		}
	}
}

func TestLocalFS_ReadDirectoryIsStorageIO(t *testing.T) {
	dir := t.TempDir()
	fs, _ := NewLocalFS(dir)

	if err := os.Mkdir(filepath.Join(dir, "subdir"), 0755); err != nil {
		t.Fatal(err)
	}

	_, err := fs.Read(context.Background(), "subdir")
	if !errors.Is(err, core.ErrStorageIO) {
		t.Errorf("expected storage failure, got %v", err)
	}
}

func TestLocalFS_MissingDirectoryIsStorageIO(t *testing.T) {
	dir := t.TempDir()
	fs, _ := NewLocalFS(dir)

	// Removed behind the service's back after startup.
	if err := os.RemoveAll(dir); err != nil {
		t.Fatal(err)
	}

	err := fs.Create(context.Background(), "aBcDeF", []byte("x"))
	if !errors.Is(err, core.ErrStorageIO) {
		t.Errorf("expected storage failure, got %v", err)
	}
}

func TestLocalFS_CancelledContext(t *testing.T) {
	fs, _ := NewLocalFS(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := fs.Create(ctx, "aBcDeF", []byte("x")); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
