package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/newthinker/folio/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestProvider_ImplementsInterface(t *testing.T) {
	var _ llm.GroundedProvider = (*Provider)(nil)
}

func groundedResponse(text, rendered string) *genai.GenerateContentResponse {
	cand := &genai.Candidate{
		Content: &genai.Content{Role: "model", Parts: []*genai.Part{{Text: text}}},
	}
	if rendered != "" {
		cand.GroundingMetadata = &genai.GroundingMetadata{
			SearchEntryPoint: &genai.SearchEntryPoint{RenderedContent: rendered},
		}
	}
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{cand}}
}

func promptOf(t *testing.T, contents []*genai.Content) string {
	t.Helper()
	require.Len(t, contents, 1)
	require.Len(t, contents[0].Parts, 1)
	assert.Equal(t, "user", contents[0].Role)
	return contents[0].Parts[0].Text
}

func TestNew_ConfiguresGeminiAPI(t *testing.T) {
	p := New("key", "https://proxy.example.com")

	assert.Equal(t, "key", p.cfg.APIKey)
	assert.Equal(t, genai.BackendGeminiAPI, p.cfg.Backend)
	assert.Equal(t, "https://proxy.example.com", p.cfg.HTTPOptions.BaseURL)
	assert.Equal(t, "gemini", p.Name())
}

func TestGenerate_AttachesSearchToolWhenGrounded(t *testing.T) {
	var gotConfig *genai.GenerateContentConfig
	var gotModel, gotPrompt string
	p := New("key", "")
	p.generate = func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
		gotModel, gotConfig, gotPrompt = model, config, promptOf(t, contents)
		return groundedResponse("answer", "<div>sources</div>"), nil
	}

	res, err := p.Generate(context.Background(), llm.GenerateRequest{
		Model:  "gemini-2.0-flash-exp",
		Prompt: "what's new in AI?",
		Ground: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "answer", res.Text)
	assert.Equal(t, "<div>sources</div>", res.SourceLink)
	assert.Equal(t, "gemini-2.0-flash-exp", gotModel)
	assert.Equal(t, "what's new in AI?", gotPrompt)
	require.NotNil(t, gotConfig)
	require.Len(t, gotConfig.Tools, 1)
	assert.NotNil(t, gotConfig.Tools[0].GoogleSearch)
}

func TestGenerate_NoToolsWhenUngrounded(t *testing.T) {
	var gotConfig *genai.GenerateContentConfig
	p := New("key", "")
	p.generate = func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
		gotConfig = config
		return groundedResponse("answer", "<div>sources</div>"), nil
	}

	res, err := p.Generate(context.Background(), llm.GenerateRequest{Model: "m", Prompt: "p"})
	require.NoError(t, err)
	require.NotNil(t, gotConfig)
	assert.Empty(t, gotConfig.Tools)
	assert.Empty(t, res.SourceLink, "source link must not be populated without grounding")
}

func TestGenerate_ErrorChainPreserved(t *testing.T) {
	sentinel := errors.New("quota exceeded")
	p := New("key", "")
	p.generate = func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
		return nil, sentinel
	}

	_, err := p.Generate(context.Background(), llm.GenerateRequest{Model: "m", Prompt: "p", Ground: true})
	assert.ErrorIs(t, err, sentinel)
}

func TestToResult(t *testing.T) {
	tests := []struct {
		name     string
		resp     *genai.GenerateContentResponse
		ground   bool
		wantText string
		wantLink string
	}{
		{
			name:   "nil response",
			resp:   nil,
			ground: true,
		},
		{
			name:   "no candidates",
			resp:   &genai.GenerateContentResponse{},
			ground: true,
		},
		{
			name:     "grounded without metadata",
			resp:     groundedResponse("plain", ""),
			ground:   true,
			wantText: "plain",
		},
		{
			name: "grounded with empty entry point",
			resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
				Content:           &genai.Content{Parts: []*genai.Part{{Text: "x"}}},
				GroundingMetadata: &genai.GroundingMetadata{},
			}}},
			ground:   true,
			wantText: "x",
		},
		{
			name: "multiple text parts",
			resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []*genai.Part{{Text: "a"}, nil, {Text: "b"}}},
			}}},
			wantText: "ab",
		},
		{
			name: "thought parts skipped",
			resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []*genai.Part{{Text: "thinking", Thought: true}, {Text: "answer"}}},
			}}},
			wantText: "answer",
		},
		{
			name:     "metadata ignored when not grounding",
			resp:     groundedResponse("t", "<a>link</a>"),
			ground:   false,
			wantText: "t",
		},
		{
			name:     "metadata surfaced when grounding",
			resp:     groundedResponse("t", "<a>link</a>"),
			ground:   true,
			wantText: "t",
			wantLink: "<a>link</a>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := toResult(tt.resp, tt.ground)
			assert.Equal(t, tt.wantText, got.Text)
			assert.Equal(t, tt.wantLink, got.SourceLink)
		})
	}
}
