package llm

import (
	"fmt"
	"sort"
	"strings"

	"github.com/newthinker/folio/internal/core"
)

// ModelID is the symbolic key callers use to select a model.
type ModelID string

const (
	O1                  ModelID = "O1"
	GPT4O               ModelID = "GPT_4O"
	GPT4OMini           ModelID = "GPT_4O_MINI"
	Sonnet              ModelID = "SONNET"
	PerplexitySmall     ModelID = "PERPLEXITY_SMALL"
	PerplexityLarge     ModelID = "PERPLEXITY_LARGE"
	GeminiFlashWeb      ModelID = "GEMINI_FLASH_WEB"
	GeminiFlashThinking ModelID = "GEMINI_FLASH_THINKING"
)

const (
	// DefaultChatModel is used by chat completions when no model is given.
	DefaultChatModel = O1
	// DefaultGroundedModel is used by grounded generation when no model is given.
	DefaultGroundedModel = GeminiFlashWeb
)

// Backend names a provider family that can serve a route.
type Backend string

const (
	BackendOpenAI     Backend = "openai"
	BackendPerplexity Backend = "perplexity"
	BackendAnthropic  Backend = "anthropic"
	BackendGemini     Backend = "gemini"
)

// Route is the resolved destination of a ModelID.
type Route struct {
	Backend Backend
	Model   string
}

var routes = map[ModelID]Route{
	O1:                  {Backend: BackendOpenAI, Model: "o1-2024-12-17"},
	GPT4O:               {Backend: BackendOpenAI, Model: "gpt-4o"},
	GPT4OMini:           {Backend: BackendOpenAI, Model: "gpt-4o-mini"},
	Sonnet:              {Backend: BackendAnthropic, Model: "claude-3-5-sonnet-20241022"},
	PerplexitySmall:     {Backend: BackendPerplexity, Model: "sonar"},
	PerplexityLarge:     {Backend: BackendPerplexity, Model: "sonar-pro"},
	GeminiFlashWeb:      {Backend: BackendGemini, Model: "gemini-2.0-flash-exp"},
	GeminiFlashThinking: {Backend: BackendGemini, Model: "gemini-2.0-flash-thinking-exp-01-21"},
}

// Resolve maps id to its route. Unknown ids return ErrUnknownModel.
func Resolve(id ModelID) (Route, error) {
	r, ok := routes[id]
	if !ok {
		return Route{}, core.WrapError(core.ErrUnknownModel, fmt.Errorf("model %q", id))
	}
	return r, nil
}

// ParseModelID accepts a model id in any case, e.g. "sonnet" or "GPT_4O".
func ParseModelID(s string) (ModelID, error) {
	id := ModelID(strings.ToUpper(strings.TrimSpace(s)))
	if _, err := Resolve(id); err != nil {
		return "", err
	}
	return id, nil
}

// Models returns all known model ids in sorted order.
func Models() []ModelID {
	ids := make([]ModelID, 0, len(routes))
	for id := range routes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
