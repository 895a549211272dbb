package llm

import "context"

// ChatProvider is a backend that serves chat-completion requests.
type ChatProvider interface {
	Name() string
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// GroundedProvider is a backend that generates content from a single prompt,
// optionally augmented with web search.
type GroundedProvider interface {
	Name() string
	Generate(ctx context.Context, req GenerateRequest) (*GroundedResult, error)
}

// Role is the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleSystem    Role = "system"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleSystem, RoleAssistant:
		return true
	}
	return false
}

// Message represents a chat message
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Options carries optional generation parameters. Zero values are not sent.
type Options struct {
	MaxTokens       int      `json:"max_tokens,omitempty"`
	Temperature     *float32 `json:"temperature,omitempty"`
	TopP            *float32 `json:"top_p,omitempty"`
	Stop            []string `json:"stop,omitempty"`
	Seed            *int     `json:"seed,omitempty"`
	User            string   `json:"user,omitempty"`
	ReasoningEffort string   `json:"reasoning_effort,omitempty"`
	JSONMode        bool     `json:"json_mode,omitempty"`
}

// ChatRequest holds the request parameters
type ChatRequest struct {
	Model    string
	Messages []Message
	Options  Options
}

// ChatResponse holds the response from the LLM
type ChatResponse struct {
	Content      string
	Usage        Usage
	FinishReason string
}

// Usage tracks token consumption
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// GenerateRequest is a single-prompt generation request.
type GenerateRequest struct {
	Model  string
	Prompt string
	Ground bool
}

// GroundedResult is generated text plus an optional rendered source fragment.
// SourceLink is empty when grounding was not requested or the provider
// returned no grounding metadata; the two cases are indistinguishable.
type GroundedResult struct {
	Text       string `json:"text"`
	SourceLink string `json:"source_link,omitempty"`
}
