// internal/llm/factory/factory.go
package factory

import (
	"fmt"

	"github.com/newthinker/folio/internal/config"
	"github.com/newthinker/folio/internal/llm"
	"github.com/newthinker/folio/internal/llm/claude"
	"github.com/newthinker/folio/internal/llm/gemini"
	"github.com/newthinker/folio/internal/llm/openai"
	"github.com/newthinker/folio/internal/llm/router"
	"go.uber.org/zap"
)

// NewBackends creates every model backend from configuration. Missing API keys
// are not an error here; the backend rejects the call instead.
func NewBackends(cfg config.LLMConfig) (router.Backends, error) {
	oa, err := openai.New(openai.Config{
		Name:    "openai",
		APIKey:  cfg.OpenAI.APIKey,
		BaseURL: cfg.OpenAI.BaseURL,
	})
	if err != nil {
		return router.Backends{}, fmt.Errorf("openai backend: %w", err)
	}

	pplx, err := openai.NewPerplexity(cfg.Perplexity.APIKey, cfg.Perplexity.BaseURL)
	if err != nil {
		return router.Backends{}, fmt.Errorf("perplexity backend: %w", err)
	}

	cl, err := claude.New(cfg.Anthropic.APIKey, cfg.Anthropic.BaseURL)
	if err != nil {
		return router.Backends{}, fmt.Errorf("anthropic backend: %w", err)
	}

	return router.Backends{
		OpenAI:     oa,
		Perplexity: pplx,
		Anthropic:  cl,
		Gemini:     gemini.New(cfg.Gemini.APIKey, cfg.Gemini.BaseURL),
	}, nil
}

// New creates a router over backends built from configuration, with the
// configured default models.
func New(cfg config.LLMConfig, logger *zap.Logger, rec router.Recorder) (*router.Router, error) {
	b, err := NewBackends(cfg)
	if err != nil {
		return nil, err
	}
	return FromBackends(b, cfg, logger, rec)
}

// FromBackends creates a router over b with the configured default models.
func FromBackends(b router.Backends, cfg config.LLMConfig, logger *zap.Logger, rec router.Recorder) (*router.Router, error) {
	chat, err := parseDefault(cfg.DefaultModel)
	if err != nil {
		return nil, fmt.Errorf("default model: %w", err)
	}
	grounded, err := parseDefault(cfg.GroundedModel)
	if err != nil {
		return nil, fmt.Errorf("grounded model: %w", err)
	}
	return router.New(b, logger, rec).WithDefaults(chat, grounded), nil
}

func parseDefault(s string) (llm.ModelID, error) {
	if s == "" {
		return "", nil
	}
	return llm.ParseModelID(s)
}
