// Package gemini serves grounded generation through Google's Gemini API.
package gemini

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/newthinker/folio/internal/llm"
	"google.golang.org/genai"
)

// generateFunc issues one GenerateContent call.
type generateFunc func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)

// Provider implements llm.GroundedProvider. The underlying client is created
// on first use so missing credentials surface as a call error.
type Provider struct {
	cfg genai.ClientConfig

	mu       sync.Mutex
	client   *genai.Client
	generate generateFunc
}

// New creates a new Gemini provider.
func New(apiKey, endpoint string) *Provider {
	cfg := genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if endpoint != "" {
		cfg.HTTPOptions.BaseURL = endpoint
	}
	p := &Provider{cfg: cfg}
	p.generate = p.generateContent
	return p
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "gemini"
}

// Generate sends the prompt as a single user turn. When req.Ground is set the
// Google Search tool is attached.
func (p *Provider) Generate(ctx context.Context, req llm.GenerateRequest) (*llm.GroundedResult, error) {
	config := &genai.GenerateContentConfig{}
	if req.Ground {
		config.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}

	resp, err := p.generate(ctx, req.Model, genai.Text(req.Prompt), config)
	if err != nil {
		return nil, fmt.Errorf("gemini API error: %w", err)
	}
	return toResult(resp, req.Ground), nil
}

func (p *Provider) generateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	client, err := p.getClient(ctx)
	if err != nil {
		return nil, err
	}
	return client.Models.GenerateContent(ctx, model, contents, config)
}

func (p *Provider) getClient(ctx context.Context) (*genai.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client != nil {
		return p.client, nil
	}
	cfg := p.cfg
	client, err := genai.NewClient(ctx, &cfg)
	if err != nil {
		return nil, fmt.Errorf("creating client: %w", err)
	}
	p.client = client
	return client, nil
}

// toResult extracts the first candidate's text and, when grounding was
// requested, its rendered search entry point.
func toResult(resp *genai.GenerateContentResponse, ground bool) *llm.GroundedResult {
	result := &llm.GroundedResult{}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return result
	}

	cand := resp.Candidates[0]
	if cand.Content != nil {
		var sb strings.Builder
		for _, part := range cand.Content.Parts {
			if part == nil || part.Thought {
				continue
			}
			sb.WriteString(part.Text)
		}
		result.Text = sb.String()
	}

	if ground && cand.GroundingMetadata != nil && cand.GroundingMetadata.SearchEntryPoint != nil {
		result.SourceLink = cand.GroundingMetadata.SearchEntryPoint.RenderedContent
	}

	return result
}
