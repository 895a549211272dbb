// internal/storage/localfs_test.go
package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/newthinker/folio/internal/core"
)

func TestLocalFS_ImplementsStore(t *testing.T) {
	var _ Store = (*LocalFS)(nil)
}

func TestLocalFS_PutGet(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewLocalFS(dir, "https://example.com/uploads/")
	if err != nil {
		t.Fatalf("NewLocalFS: %v", err)
	}

	ctx := context.Background()
	data := []byte("test data")

	url, err := fs.Put(ctx, "images/photo.png", data, "image/png")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if url != "https://example.com/uploads/images/photo.png" {
		t.Errorf("unexpected url %q", url)
	}

	if _, err := os.Stat(filepath.Join(dir, "images", "photo.png")); err != nil {
		t.Errorf("expected file on disk: %v", err)
	}

	got, err := fs.Get(ctx, "images/photo.png")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if string(got) != string(data) {
		t.Errorf("got %q, want %q", got, data)
	}
}

func TestLocalFS_GetMissing(t *testing.T) {
	fs, _ := NewLocalFS(t.TempDir(), "/uploads")

	_, err := fs.Get(context.Background(), "missing.txt")
	if !errors.Is(err, core.ErrObjectNotFound) {
		t.Errorf("expected ErrObjectNotFound, got %v", err)
	}
}

func TestLocalFS_Exists(t *testing.T) {
	dir := t.TempDir()
	fs, _ := NewLocalFS(dir, "/uploads")
	ctx := context.Background()

	exists, _ := fs.Exists(ctx, "nonexistent.txt")
	if exists {
		t.Error("expected false for nonexistent file")
	}

	fs.Put(ctx, "exists.txt", []byte("data"), "text/plain")
	exists, _ = fs.Exists(ctx, "exists.txt")
	if !exists {
		t.Error("expected true for existing file")
	}
}

func TestLocalFS_Delete(t *testing.T) {
	dir := t.TempDir()
	fs, _ := NewLocalFS(dir, "/uploads")
	ctx := context.Background()

	fs.Put(ctx, "delete.txt", []byte("data"), "text/plain")
	if err := fs.Delete(ctx, "delete.txt"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	exists, _ := fs.Exists(ctx, "delete.txt")
	if exists {
		t.Error("file should be deleted")
	}

	if err := fs.Delete(ctx, "delete.txt"); err != nil {
		t.Errorf("second delete should be a no-op, got %v", err)
	}
}

func TestLocalFS_RejectsEscapingKeys(t *testing.T) {
	dir := t.TempDir()
	fs, _ := NewLocalFS(filepath.Join(dir, "store"), "/uploads")

	_, err := fs.Put(context.Background(), "../outside.txt", []byte("x"), "")
	if !errors.Is(err, core.ErrInvalidKey) {
		t.Errorf("expected ErrInvalidKey, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "outside.txt")); statErr == nil {
		t.Error("file written outside the store")
	}
}
