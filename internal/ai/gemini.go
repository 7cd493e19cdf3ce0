package ai

import (
	"context"
	"errors"
	"fmt"

	"ext_builder_server/config"
	"ext_builder_server/internal/ai/prompts"
	"ext_builder_server/internal/types"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-3-pro-preview"

var errMissingAPIKey = errors.New("missing API key")

// GeminiOptions configures GeminiGenerator.
type GeminiOptions struct {
	APIKey         string
	Model          string
	ThinkingBudget int32
	// BaseURL overrides the API endpoint; empty means the public Gemini API.
	BaseURL string
}

// GeminiGenerator calls the Gemini API with a strict response schema.
// Without an API key it is still usable: every call fails as an auth error.
type GeminiGenerator struct {
	client         *genai.Client // nil when no key is configured
	model          string
	thinkingBudget int32
}

func NewGeminiGenerator(ctx context.Context, opts GeminiOptions) (*GeminiGenerator, error) {
	model := opts.Model
	if model == "" {
		model = defaultGeminiModel
	}
	g := &GeminiGenerator{model: model, thinkingBudget: opts.ThinkingBudget}
	if opts.APIKey == "" {
		return g, nil
	}

	cc := &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
		APIKey:  opts.APIKey,
	}
	if opts.BaseURL != "" {
		cc.HTTPOptions.BaseURL = opts.BaseURL
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	g.client = client
	return g, nil
}

func (g *GeminiGenerator) Provider() string { return config.ProviderGemini }

// GenerateExtension issues exactly one GenerateContent call.
func (g *GeminiGenerator) GenerateExtension(ctx context.Context, prompt string) (types.ExtensionResult, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(prompts.GetExtensionPrompt(prompt), genai.RoleUser),
	}
	cfg := geminiContentConfig(g.thinkingBudget)

	return generate(ctx, g.Provider(), func(ctx context.Context) (string, error) {
		if g.client == nil {
			return "", errMissingAPIKey
		}
		resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
		if err != nil {
			return "", err
		}
		return resp.Text(), nil
	})
}

func geminiContentConfig(thinkingBudget int32) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: prompts.SystemInstruction}},
		},
		ResponseMIMEType: "application/json",
		ResponseSchema:   geminiResponseSchema(),
	}
	if thinkingBudget > 0 {
		cfg.ThinkingConfig = &genai.ThinkingConfig{
			ThinkingBudget: genai.Ptr(thinkingBudget),
		}
	}
	return cfg
}

func geminiResponseSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"name":        {Type: genai.TypeString, Description: prompts.NameDescription},
			"description": {Type: genai.TypeString, Description: prompts.DescDescription},
			"files": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"path":    {Type: genai.TypeString, Description: prompts.PathDescription},
						"content": {Type: genai.TypeString, Description: prompts.ContentDescription},
					},
					Required: []string{"path", "content"},
				},
			},
		},
		Required: []string{"name", "description", "files"},
	}
}
