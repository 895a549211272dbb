// internal/storage/interface.go
package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/newthinker/folio/internal/core"
)

// Store defines the interface for public object storage backends
type Store interface {
	// Put stores data under key and returns its public URL
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)

	// Get retrieves the object stored under key
	Get(ctx context.Context, key string) ([]byte, error)

	// Exists checks if an object exists under key
	Exists(ctx context.Context, key string) (bool, error)

	// Delete removes the object stored under key
	Delete(ctx context.Context, key string) error

	// URL returns the public URL of key
	URL(key string) string
}

// ValidateKey rejects keys that are empty, absolute or climb out of the
// store with "..".
func ValidateKey(key string) error {
	if key == "" {
		return core.WrapError(core.ErrInvalidKey, fmt.Errorf("key is empty"))
	}
	if strings.HasPrefix(key, "/") || strings.HasPrefix(key, "\\") {
		return core.WrapError(core.ErrInvalidKey, fmt.Errorf("key %q is absolute", key))
	}
	for _, seg := range strings.FieldsFunc(key, func(r rune) bool { return r == '/' || r == '\\' }) {
		if seg == ".." {
			return core.WrapError(core.ErrInvalidKey, fmt.Errorf("key %q escapes the store", key))
		}
	}
	return nil
}
