// internal/api/server_test.go
package api

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/newthinker/folio/internal/llm"
	"github.com/newthinker/folio/internal/metrics"
	"github.com/newthinker/folio/internal/storage"
	"go.uber.org/zap"
)

type stubRouter struct{}

func (stubRouter) Defaults() (llm.ModelID, llm.ModelID) {
	return llm.DefaultChatModel, llm.DefaultGroundedModel
}

func (stubRouter) ChatCompletion(ctx context.Context, messages []llm.Message, model llm.ModelID, opts llm.Options) (string, error) {
	return "pong", nil
}

func (stubRouter) GeminiWebResponse(ctx context.Context, messages []llm.Message, model llm.ModelID, ground bool) (*llm.GroundedResult, error) {
	return &llm.GroundedResult{Text: "pong"}, nil
}

func newTestServer(t *testing.T, cfg Config, deps Dependencies) *Server {
	t.Helper()
	srv, err := NewServer(cfg, deps, zap.NewNop())
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	return srv
}

func serve(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func TestServer_Health(t *testing.T) {
	srv := newTestServer(t, Config{Host: "localhost"}, Dependencies{})

	w := serve(srv, httptest.NewRequest("GET", "/api/health", nil))

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected request id header")
	}
}

func TestServer_APIAuth_Required(t *testing.T) {
	srv := newTestServer(t, Config{APIKey: "test-key"}, Dependencies{Router: stubRouter{}})

	w := serve(srv, httptest.NewRequest("GET", "/api/ai/models", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without key, got %d", w.Code)
	}
}

func TestServer_APIAuth_ValidKey(t *testing.T) {
	srv := newTestServer(t, Config{APIKey: "test-key"}, Dependencies{Router: stubRouter{}})

	req := httptest.NewRequest("POST", "/api/ai/chat", strings.NewReader(`{"messages":[{"role":"user","content":"ping"}]}`))
	req.Header.Set("X-API-Key", "test-key")
	w := serve(srv, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200 with key, got %d: %s", w.Code, w.Body.String())
	}
}

func TestServer_APIAuth_Disabled(t *testing.T) {
	srv := newTestServer(t, Config{}, Dependencies{Router: stubRouter{}})

	w := serve(srv, httptest.NewRequest("GET", "/api/ai/models", nil))
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 with disabled auth, got %d", w.Code)
	}
}

func TestServer_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, Config{}, Dependencies{Router: stubRouter{}})

	w := serve(srv, httptest.NewRequest("GET", "/api/ai/chat", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", w.Code)
	}
}

func TestServer_UnwiredRoutes(t *testing.T) {
	srv := newTestServer(t, Config{}, Dependencies{})

	w := serve(srv, httptest.NewRequest("POST", "/api/contact", strings.NewReader(`{}`)))
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unwired contact route, got %d", w.Code)
	}
}

func TestServer_UploadAndServe(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewLocalFS(dir, "/uploads")
	if err != nil {
		t.Fatal(err)
	}

	srv := newTestServer(t, Config{
		UploadsDir:    dir,
		UploadsPrefix: "/uploads",
	}, Dependencies{Store: store})

	req := httptest.NewRequest("POST", "/api/uploads?key=notes/hello.txt", bytes.NewBufferString("hello"))
	req.Header.Set("Content-Type", "text/plain")
	w := serve(srv, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"/uploads/notes/hello.txt"`) {
		t.Errorf("expected object url in body, got %s", w.Body.String())
	}

	w = serve(srv, httptest.NewRequest("GET", "/uploads/notes/hello.txt", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 serving upload, got %d", w.Code)
	}
	if body, _ := io.ReadAll(w.Body); string(body) != "hello" {
		t.Errorf("expected uploaded content, got %q", body)
	}
}

func TestServer_UploadsPrefixMustBeAbsolute(t *testing.T) {
	_, err := NewServer(Config{UploadsDir: t.TempDir(), UploadsPrefix: "uploads"}, Dependencies{}, zap.NewNop())
	if err == nil {
		t.Error("expected error for relative uploads prefix")
	}
}

func TestServer_Metrics(t *testing.T) {
	reg := metrics.NewRegistry()
	srv := newTestServer(t, Config{MetricsPath: "/metrics"}, Dependencies{
		Router:  stubRouter{},
		Metrics: reg,
	})

	serve(srv, httptest.NewRequest("GET", "/api/health", nil))

	w := serve(srv, httptest.NewRequest("GET", "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "http_requests_total") {
		t.Error("expected http metrics in exposition")
	}
}
