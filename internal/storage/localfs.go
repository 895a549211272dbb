// internal/storage/localfs.go
package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/newthinker/folio/internal/core"
)

// LocalFS implements Store for local filesystem
type LocalFS struct {
	basePath string
	baseURL  string
}

// NewLocalFS creates a new LocalFS store. Objects are served under baseURL.
func NewLocalFS(basePath, baseURL string) (*LocalFS, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("creating base path: %w", err)
	}
	return &LocalFS{
		basePath: basePath,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
	}, nil
}

// Root returns the directory objects are written under.
func (l *LocalFS) Root() string {
	return l.basePath
}

func (l *LocalFS) fullPath(key string) string {
	return filepath.Join(l.basePath, filepath.FromSlash(key))
}

func (l *LocalFS) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	fullPath := l.fullPath(key)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", core.WrapError(core.ErrStorageFailed, fmt.Errorf("creating directories: %w", err))
	}
	if err := os.WriteFile(fullPath, data, 0644); err != nil {
		return "", core.WrapError(core.ErrStorageFailed, err)
	}
	return l.URL(key), nil
}

func (l *LocalFS) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(l.fullPath(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, core.WrapError(core.ErrObjectNotFound, err)
	}
	if err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, err)
	}
	return data, nil
}

func (l *LocalFS) Exists(ctx context.Context, key string) (bool, error) {
	if err := ValidateKey(key); err != nil {
		return false, err
	}
	_, err := os.Stat(l.fullPath(key))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}

// Delete removes key. Deleting a missing object is not an error.
func (l *LocalFS) Delete(ctx context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	err := os.Remove(l.fullPath(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return core.WrapError(core.ErrStorageFailed, err)
	}
	return nil
}

func (l *LocalFS) URL(key string) string {
	return l.baseURL + "/" + key
}
