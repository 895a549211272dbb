// internal/api/handler/api/uploads.go
package api

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/newthinker/folio/internal/api/response"
	"github.com/newthinker/folio/internal/core"
	"github.com/newthinker/folio/internal/storage"
)

// DefaultMaxUploadBytes bounds upload bodies when no limit is configured.
const DefaultMaxUploadBytes = 10 << 20

// ObjectStore defines the interface needed from the object store.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// UploadHandler handles object upload API requests.
type UploadHandler struct {
	store    ObjectStore
	maxBytes int64
}

// NewUploadHandler creates a new upload handler.
func NewUploadHandler(store ObjectStore, maxBytes int64) *UploadHandler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &UploadHandler{store: store, maxBytes: maxBytes}
}

// Upload stores the raw request body under the "key" query parameter.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if err := storage.ValidateKey(key); err != nil {
		response.Fail(w, err)
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(w, http.StatusRequestEntityTooLarge, core.WrapError(core.ErrValidation, err))
			return
		}
		response.Fail(w, core.WrapError(core.ErrValidation, err))
		return
	}
	if len(data) == 0 {
		response.Fail(w, core.WrapError(core.ErrValidation, errors.New("empty body")))
		return
	}

	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	url, err := h.store.Put(r.Context(), key, data, contentType)
	if err != nil {
		response.Fail(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, map[string]any{
		"key": key,
		"url": url,
	})
}
