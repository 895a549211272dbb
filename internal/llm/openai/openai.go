// internal/llm/openai/openai.go
package openai

import (
	"context"
	"fmt"
	"net/url"

	"github.com/newthinker/folio/internal/llm"
	"github.com/sashabaranov/go-openai"
)

// PerplexityBaseURL is the OpenAI-compatible endpoint of Perplexity.
const PerplexityBaseURL = "https://api.perplexity.ai"

// Config configures one OpenAI-compatible backend.
type Config struct {
	// Name identifies the backend in logs and metrics.
	Name    string
	APIKey  string
	BaseURL string
	// LegacyMaxTokens sends max_tokens instead of max_completion_tokens,
	// for servers that do not know the newer field.
	LegacyMaxTokens bool
}

// Provider implements llm.ChatProvider for any OpenAI-compatible server.
type Provider struct {
	client          *openai.Client
	name            string
	legacyMaxTokens bool
}

// New creates a new OpenAI-compatible provider. An empty API key is accepted;
// the server rejects the call when it is used.
func New(cfg Config) (*Provider, error) {
	if cfg.Name == "" {
		cfg.Name = "openai"
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
			return nil, fmt.Errorf("invalid base URL %q: %w", cfg.BaseURL, err)
		}
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Provider{
		client:          openai.NewClientWithConfig(clientCfg),
		name:            cfg.Name,
		legacyMaxTokens: cfg.LegacyMaxTokens,
	}, nil
}

// NewPerplexity creates a provider pointed at Perplexity.
func NewPerplexity(apiKey, baseURL string) (*Provider, error) {
	if baseURL == "" {
		baseURL = PerplexityBaseURL
	}
	return New(Config{
		Name:            "perplexity",
		APIKey:          apiKey,
		BaseURL:         baseURL,
		LegacyMaxTokens: true,
	})
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return p.name
}

// Chat sends one non-streaming chat completion request.
func (p *Provider) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	resp, err := p.client.CreateChatCompletion(ctx, p.buildRequest(req))
	if err != nil {
		return nil, fmt.Errorf("%s API error: %w", p.name, err)
	}

	content := ""
	finishReason := ""
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
		finishReason = string(resp.Choices[0].FinishReason)
	}

	return &llm.ChatResponse{
		Content: content,
		Usage: llm.Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
		FinishReason: finishReason,
	}, nil
}

func (p *Provider) buildRequest(req llm.ChatRequest) openai.ChatCompletionRequest {
	messages := make([]openai.ChatCompletionMessage, len(req.Messages))
	for i, m := range req.Messages {
		messages[i] = openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		}
	}

	chatReq := openai.ChatCompletionRequest{
		Model:    req.Model,
		Messages: messages,
	}

	// options are merged over the base request
	opts := req.Options
	if opts.MaxTokens > 0 {
		if p.legacyMaxTokens {
			chatReq.MaxTokens = opts.MaxTokens
		} else {
			chatReq.MaxCompletionTokens = opts.MaxTokens
		}
	}
	if opts.Temperature != nil {
		chatReq.Temperature = *opts.Temperature
	}
	if opts.TopP != nil {
		chatReq.TopP = *opts.TopP
	}
	if len(opts.Stop) > 0 {
		chatReq.Stop = opts.Stop
	}
	if opts.Seed != nil {
		chatReq.Seed = opts.Seed
	}
	if opts.User != "" {
		chatReq.User = opts.User
	}
	if opts.ReasoningEffort != "" {
		chatReq.ReasoningEffort = opts.ReasoningEffort
	}
	if opts.JSONMode {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	return chatReq
}
