// internal/api/handler/api/ai.go
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/newthinker/folio/internal/api/response"
	"github.com/newthinker/folio/internal/core"
	"github.com/newthinker/folio/internal/llm"
)

// ModelRouter defines the interface needed from the model router.
type ModelRouter interface {
	ChatCompletion(ctx context.Context, messages []llm.Message, model llm.ModelID, opts llm.Options) (string, error)
	GeminiWebResponse(ctx context.Context, messages []llm.Message, model llm.ModelID, ground bool) (*llm.GroundedResult, error)
	Defaults() (chat, grounded llm.ModelID)
}

// AIHandler handles text generation API requests.
type AIHandler struct {
	router ModelRouter
}

// NewAIHandler creates a new AI handler.
func NewAIHandler(router ModelRouter) *AIHandler {
	return &AIHandler{router: router}
}

// ChatRequest is the request body for a chat completion.
type ChatRequest struct {
	Messages []llm.Message `json:"messages"`
	Model    string        `json:"model,omitempty"`
	Options  llm.Options   `json:"options,omitempty"`
}

// GroundedRequest is the request body for a grounded answer.
type GroundedRequest struct {
	Messages []llm.Message `json:"messages"`
	Model    string        `json:"model,omitempty"`
	Ground   *bool         `json:"ground,omitempty"`
}

// ParseJSONRequest is the request body for JSON extraction.
type ParseJSONRequest struct {
	Response string `json:"response"`
}

// Chat returns one completion for the conversation.
func (h *AIHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := decodeBody(w, r, &req); err != nil {
		response.Fail(w, err)
		return
	}
	model, err := parseRequest(req.Model, req.Messages)
	if err != nil {
		response.Fail(w, err)
		return
	}

	text, err := h.router.ChatCompletion(r.Context(), req.Messages, model, req.Options)
	if err != nil {
		response.Fail(w, providerError(err))
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"text": text,
	})
}

// Grounded returns a web-grounded answer. Grounding is on unless the body
// sets "ground": false.
func (h *AIHandler) Grounded(w http.ResponseWriter, r *http.Request) {
	var req GroundedRequest
	if err := decodeBody(w, r, &req); err != nil {
		response.Fail(w, err)
		return
	}
	model, err := parseRequest(req.Model, req.Messages)
	if err != nil {
		response.Fail(w, err)
		return
	}
	ground := req.Ground == nil || *req.Ground

	res, err := h.router.GeminiWebResponse(r.Context(), req.Messages, model, ground)
	if err != nil {
		response.Fail(w, providerError(err))
		return
	}

	response.JSON(w, http.StatusOK, res)
}

// ParseJSON extracts JSON from model output.
func (h *AIHandler) ParseJSON(w http.ResponseWriter, r *http.Request) {
	var req ParseJSONRequest
	if err := decodeBody(w, r, &req); err != nil {
		response.Fail(w, err)
		return
	}

	value, err := llm.ParseJSON(req.Response)
	if err != nil {
		response.Fail(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"value": value,
	})
}

// Models lists the accepted model ids.
func (h *AIHandler) Models(w http.ResponseWriter, r *http.Request) {
	chat, grounded := h.router.Defaults()
	response.JSON(w, http.StatusOK, map[string]any{
		"models":   llm.Models(),
		"default":  chat,
		"grounded": grounded,
	})
}

// parseRequest validates roles and resolves the model id. An empty model is
// passed through so the router applies its default.
func parseRequest(model string, messages []llm.Message) (llm.ModelID, error) {
	for i, m := range messages {
		if !m.Role.Valid() {
			return "", core.WrapError(core.ErrValidation,
				fmt.Errorf("messages[%d]: unknown role %q", i, m.Role))
		}
	}
	if model == "" {
		return "", nil
	}
	return llm.ParseModelID(model)
}

// providerError marks errors that did not come from folio itself as
// upstream failures.
func providerError(err error) error {
	var coreErr *core.Error
	if errors.As(err, &coreErr) {
		return err
	}
	return core.WrapError(core.ErrProviderFailed, err)
}
