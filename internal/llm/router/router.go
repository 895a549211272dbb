// Package router dispatches model requests to the backend that serves them
// and normalizes the responses.
package router

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/newthinker/folio/internal/core"
	"github.com/newthinker/folio/internal/llm"
	"go.uber.org/zap"
)

// Recorder receives one observation per routed request.
type Recorder interface {
	RecordLLMRequest(model, backend, status string, duration float64)
}

// Backends are the provider handles a Router dispatches to. A nil backend
// makes its routes fail at call time.
type Backends struct {
	OpenAI     llm.ChatProvider
	Perplexity llm.ChatProvider
	Anthropic  llm.ChatProvider
	Gemini     llm.GroundedProvider
}

// Router maps model ids to backends. It holds no mutable state and is safe
// for concurrent use.
type Router struct {
	chat     map[llm.Backend]llm.ChatProvider
	grounded llm.GroundedProvider
	logger   *zap.Logger
	recorder Recorder

	defaultChat     llm.ModelID
	defaultGrounded llm.ModelID
}

// New creates a router over the given backends. logger and rec may be nil.
func New(b Backends, logger *zap.Logger, rec Recorder) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	chat := make(map[llm.Backend]llm.ChatProvider, 3)
	if b.OpenAI != nil {
		chat[llm.BackendOpenAI] = b.OpenAI
	}
	if b.Perplexity != nil {
		chat[llm.BackendPerplexity] = b.Perplexity
	}
	if b.Anthropic != nil {
		chat[llm.BackendAnthropic] = b.Anthropic
	}
	return &Router{
		chat:     chat,
		grounded: b.Gemini,
		logger:   logger.Named("llm_router"),
		recorder: rec,

		defaultChat:     llm.DefaultChatModel,
		defaultGrounded: llm.DefaultGroundedModel,
	}
}

// WithDefaults replaces the models used when a request names none. Empty
// arguments keep the current default.
func (r *Router) WithDefaults(chat, grounded llm.ModelID) *Router {
	if chat != "" {
		r.defaultChat = chat
	}
	if grounded != "" {
		r.defaultGrounded = grounded
	}
	return r
}

// Defaults returns the models used when a request names none.
func (r *Router) Defaults() (chat, grounded llm.ModelID) {
	return r.defaultChat, r.defaultGrounded
}

// ChatCompletion returns the text of one completion for messages. An empty
// model selects the chat default, llm.DefaultChatModel unless overridden.
// Gemini-backed models go through the grounded path with grounding off and
// only the text is kept. Errors are logged once and returned unchanged.
func (r *Router) ChatCompletion(ctx context.Context, messages []llm.Message, model llm.ModelID, opts llm.Options) (string, error) {
	if model == "" {
		model = r.defaultChat
	}

	start := time.Now()
	text, backend, err := r.chatCompletion(ctx, messages, model, opts)
	r.record(model, backend, err, start)
	if err != nil {
		r.logger.Error("chat completion failed",
			zap.String("model", string(model)),
			zap.String("backend", string(backend)),
			zap.Error(err),
		)
		return "", err
	}
	return text, nil
}

// GeminiWebResponse generates a grounded answer. An empty model selects the
// grounded default. Messages are flattened into one prompt, one
// content per line, and roles are dropped.
func (r *Router) GeminiWebResponse(ctx context.Context, messages []llm.Message, model llm.ModelID, ground bool) (*llm.GroundedResult, error) {
	if model == "" {
		model = r.defaultGrounded
	}

	start := time.Now()
	res, err := r.geminiWebResponse(ctx, messages, model, ground)
	r.record(model, llm.BackendGemini, err, start)
	if err != nil {
		r.logger.Error("grounded generation failed",
			zap.String("model", string(model)),
			zap.Bool("ground", ground),
			zap.Error(err),
		)
		return nil, err
	}
	return res, nil
}

func (r *Router) chatCompletion(ctx context.Context, messages []llm.Message, model llm.ModelID, opts llm.Options) (string, llm.Backend, error) {
	route, err := llm.Resolve(model)
	if err != nil {
		return "", "", err
	}
	if len(messages) == 0 {
		return "", route.Backend, core.ErrNoMessages
	}

	if route.Backend == llm.BackendGemini {
		res, err := r.generate(ctx, messages, route, false)
		if err != nil {
			return "", route.Backend, err
		}
		return res.Text, route.Backend, nil
	}

	provider, ok := r.chat[route.Backend]
	if !ok {
		return "", route.Backend, core.WrapError(core.ErrProviderFailed,
			fmt.Errorf("no %s backend configured", route.Backend))
	}

	resp, err := provider.Chat(ctx, llm.ChatRequest{
		Model:    route.Model,
		Messages: messages,
		Options:  opts,
	})
	if err != nil {
		return "", route.Backend, err
	}
	if resp == nil {
		return "", route.Backend, nil
	}
	return resp.Content, route.Backend, nil
}

func (r *Router) geminiWebResponse(ctx context.Context, messages []llm.Message, model llm.ModelID, ground bool) (*llm.GroundedResult, error) {
	route, err := llm.Resolve(model)
	if err != nil {
		return nil, err
	}
	if len(messages) == 0 {
		return nil, core.ErrNoMessages
	}
	return r.generate(ctx, messages, route, ground)
}

// generate sends route.Model to the grounded backend whatever the route's
// backend is; callers choose gemini models.
func (r *Router) generate(ctx context.Context, messages []llm.Message, route llm.Route, ground bool) (*llm.GroundedResult, error) {
	if r.grounded == nil {
		return nil, core.WrapError(core.ErrProviderFailed,
			fmt.Errorf("no %s backend configured", llm.BackendGemini))
	}

	res, err := r.grounded.Generate(ctx, llm.GenerateRequest{
		Model:  route.Model,
		Prompt: flatten(messages),
		Ground: ground,
	})
	if err != nil {
		return nil, err
	}
	if res == nil {
		res = &llm.GroundedResult{}
	}
	if !ground {
		res.SourceLink = ""
	}
	return res, nil
}

func flatten(messages []llm.Message) string {
	parts := make([]string, len(messages))
	for i, m := range messages {
		parts[i] = m.Content
	}
	return strings.Join(parts, "\n")
}

func (r *Router) record(model llm.ModelID, backend llm.Backend, err error, start time.Time) {
	if r.recorder == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	b := string(backend)
	if b == "" {
		b = "none"
	}
	r.recorder.RecordLLMRequest(string(model), b, status, time.Since(start).Seconds())
}
