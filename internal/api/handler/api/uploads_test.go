// internal/api/handler/api/uploads_test.go
package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type fakeStore struct {
	key         string
	data        []byte
	contentType string
}

func (f *fakeStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	f.key, f.data, f.contentType = key, data, contentType
	return "https://cdn.example.com/" + key, nil
}

func TestUploadHandler_Upload(t *testing.T) {
	store := &fakeStore{}
	handler := NewUploadHandler(store, 0)

	req := httptest.NewRequest("POST", "/api/uploads?key=docs/cv.pdf", bytes.NewBufferString("%PDF-1.4"))
	req.Header.Set("Content-Type", "application/pdf")
	w := httptest.NewRecorder()

	handler.Upload(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	data := dataOf(t, w)
	if data["url"] != "https://cdn.example.com/docs/cv.pdf" {
		t.Errorf("unexpected url %v", data["url"])
	}
	if store.contentType != "application/pdf" || string(store.data) != "%PDF-1.4" {
		t.Errorf("unexpected stored object %q %q", store.contentType, store.data)
	}
}

func TestUploadHandler_DetectsContentType(t *testing.T) {
	store := &fakeStore{}
	handler := NewUploadHandler(store, 0)

	req := httptest.NewRequest("POST", "/api/uploads?key=notes.txt", bytes.NewBufferString("plain words"))
	w := httptest.NewRecorder()
	handler.Upload(w, req)

	if !strings.HasPrefix(store.contentType, "text/plain") {
		t.Errorf("expected detected text/plain, got %q", store.contentType)
	}
}

func TestUploadHandler_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		target string
		body   string
		status int
	}{
		{"missing key", "/api/uploads", "data", http.StatusBadRequest},
		{"escaping key", "/api/uploads?key=../etc/passwd", "data", http.StatusBadRequest},
		{"empty body", "/api/uploads?key=a.txt", "", http.StatusBadRequest},
		{"too large", "/api/uploads?key=a.txt", strings.Repeat("x", 64), http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			handler := NewUploadHandler(store, 32)

			req := httptest.NewRequest("POST", tt.target, bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()
			handler.Upload(w, req)

			if w.Code != tt.status {
				t.Errorf("expected %d, got %d", tt.status, w.Code)
			}
			if store.key != "" {
				t.Error("nothing should be stored")
			}
		})
	}
}
