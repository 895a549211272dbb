package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/newthinker/folio/internal/auth"
	"github.com/newthinker/folio/internal/config"
	"github.com/newthinker/folio/internal/llm"
	"github.com/newthinker/folio/internal/llm/router"
	"github.com/newthinker/folio/internal/mailer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type outbox struct {
	mu   sync.Mutex
	msgs []mailer.Message
}

func (o *outbox) Send(ctx context.Context, msg mailer.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.msgs = append(o.msgs, msg)
	return nil
}

func (o *outbox) bySubject(prefix string) []mailer.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []mailer.Message
	for _, m := range o.msgs {
		if strings.HasPrefix(m.Subject, prefix) {
			out = append(out, m)
		}
	}
	return out
}

type echoChat struct{}

func (echoChat) Name() string { return "echo" }

func (echoChat) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	return &llm.ChatResponse{Content: req.Model + ": " + req.Messages[len(req.Messages)-1].Content}, nil
}

func testConfig(t *testing.T) *config.Config {
	cfg := config.Defaults()
	cfg.Storage.Path = t.TempDir()
	cfg.Contact.To = "owner@example.com"
	cfg.Events.StepBackoff = 0
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) (*App, *outbox, http.Handler) {
	t.Helper()
	box := &outbox{}
	a, err := New(cfg, zap.NewNop(),
		WithSender(box),
		WithBackends(router.Backends{OpenAI: echoChat{}, Anthropic: echoChat{}}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	srv, err := a.Server()
	require.NoError(t, err)
	return a, box, srv.Handler()
}

func do(h http.Handler, method, target, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestNew_Defaults(t *testing.T) {
	a, err := New(testConfig(t), nil)
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.Router())
	assert.NotNil(t, a.Store())
	assert.NotNil(t, a.Metrics())
	assert.ElementsMatch(t, []string{"message/send", "user/registered"}, a.Bus().Events())
}

func TestNew_UnknownStorage(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Type = "ftp"

	_, err := New(cfg, nil)
	assert.Error(t, err)
}

func TestApp_ChatUsesConfiguredDefault(t *testing.T) {
	cfg := testConfig(t)
	cfg.LLM.DefaultModel = "SONNET"
	_, _, h := newTestApp(t, cfg)

	w := do(h, "POST", "/api/ai/chat", `{"messages":[{"role":"user","content":"hi"}]}`)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "claude-3-5-sonnet-20241022: hi")

	w = do(h, "GET", "/api/ai/models", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"default":"SONNET"`)
}

func TestApp_SignInFlow(t *testing.T) {
	a, box, h := newTestApp(t, testConfig(t))

	w := do(h, "POST", "/api/auth/signin", `{"email":"Ada@Example.com"}`)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	links := box.bySubject("Sign in")
	require.Len(t, links, 1)
	link := regexp.MustCompile(`http\S+`).FindString(links[0].Body)
	require.NotEmpty(t, link)
	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, auth.VerifyPath, u.Path)

	w = do(h, "GET", u.RequestURI(), "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)

	w = do(h, "GET", "/api/auth/session", "", cookies[0])
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"email":"ada@example.com"`)

	// the welcome email is sent by the user/registered function
	a.Bus().Wait()
	welcome := box.bySubject("Welcome")
	require.Len(t, welcome, 1)
	assert.Equal(t, []string{"ada@example.com"}, welcome[0].To)

	w = do(h, "POST", "/api/auth/signout", "", cookies[0])
	require.Equal(t, http.StatusOK, w.Code)
	w = do(h, "GET", "/api/auth/session", "", cookies[0])
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestApp_Contact(t *testing.T) {
	a, box, h := newTestApp(t, testConfig(t))

	w := do(h, "POST", "/api/contact",
		`{"name":"Grace","email":"grace@example.com","subject":"Hello","message":"Nice site"}`)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	a.Bus().Wait()

	sent := box.bySubject("Contact: ")
	require.Len(t, sent, 1)
	assert.Equal(t, []string{"owner@example.com"}, sent[0].To)
	assert.Equal(t, "grace@example.com", sent[0].ReplyTo)
}

func TestApp_UploadServedLocally(t *testing.T) {
	_, _, h := newTestApp(t, testConfig(t))

	w := do(h, "POST", "/api/uploads?key=a/b.txt", "payload")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(h, "GET", "/uploads/a/b.txt", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "payload", w.Body.String())

	w = do(h, "GET", "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `folio_uploads_total{status="ok"} 1`)
}
