package ai

import (
	"context"

	"ext_builder_server/config"
	"ext_builder_server/internal/ai/prompts"
	"ext_builder_server/internal/types"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
)

// OpenAIOptions configures OpenAIGenerator.
type OpenAIOptions struct {
	APIKey  string
	Model   string
	BaseURL string // optional OpenAI-compatible endpoint
}

// OpenAIGenerator calls a chat completion endpoint with a JSON schema
// response format.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

func NewOpenAIGenerator(opts OpenAIOptions) *OpenAIGenerator {
	clientConfig := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		clientConfig.BaseURL = opts.BaseURL
	}
	model := opts.Model
	if model == "" {
		model = openai.GPT4o
	}
	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
	}
}

func (g *OpenAIGenerator) Provider() string { return config.ProviderOpenAI }

// GenerateExtension issues exactly one chat completion call.
func (g *OpenAIGenerator) GenerateExtension(ctx context.Context, prompt string) (types.ExtensionResult, error) {
	req := openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompts.SystemInstruction},
			{Role: openai.ChatMessageRoleUser, Content: prompts.GetExtensionPrompt(prompt)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   prompts.SchemaName,
				Schema: openAIResponseSchema(),
				Strict: true,
			},
		},
		Temperature: 0.3, // Lower temperature for more predictable code generation
	}

	return generate(ctx, g.Provider(), func(ctx context.Context) (string, error) {
		resp, err := g.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return "", err
		}
		if len(resp.Choices) == 0 {
			return "", nil
		}
		return resp.Choices[0].Message.Content, nil
	})
}

func openAIResponseSchema() *jsonschema.Definition {
	return &jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"name":        {Type: jsonschema.String, Description: prompts.NameDescription},
			"description": {Type: jsonschema.String, Description: prompts.DescDescription},
			"files": {
				Type: jsonschema.Array,
				Items: &jsonschema.Definition{
					Type: jsonschema.Object,
					Properties: map[string]jsonschema.Definition{
						"path":    {Type: jsonschema.String, Description: prompts.PathDescription},
						"content": {Type: jsonschema.String, Description: prompts.ContentDescription},
					},
					Required:             []string{"path", "content"},
					AdditionalProperties: false,
				},
			},
		},
		Required:             []string{"name", "description", "files"},
		AdditionalProperties: false,
	}
}
