package ai

import (
	"context"
	"fmt"

	"ext_builder_server/config"
	"ext_builder_server/internal/types"
)

// Generator turns a user prompt into a complete extension file set.
type Generator interface {
	GenerateExtension(ctx context.Context, prompt string) (types.ExtensionResult, error)
	// Provider names the backing service, used as a metrics label.
	Provider() string
}

// GenerationError is returned for every failed generation: transport, auth,
// quota, empty body, malformed JSON or schema mismatch.
type GenerationError struct {
	// Message is safe to show to the user. It may be empty, in which case
	// the caller picks its own default.
	Message string
	// Kind is one of the utils.Kind* labels.
	Kind string
	Err  error
}

func (e *GenerationError) Error() string {
	switch {
	case e.Err != nil && e.Message != "":
		return fmt.Sprintf("generation failed (%s): %s: %v", e.Kind, e.Message, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("generation failed (%s): %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("generation failed (%s): %s", e.Kind, e.Message)
	}
}

func (e *GenerationError) Unwrap() error { return e.Err }

// UserMessage returns only the human-readable part, without the cause.
func (e *GenerationError) UserMessage() string { return e.Message }

// NewGenerator builds the generator selected by cfg.AIProvider.
func NewGenerator(ctx context.Context, cfg config.Config) (Generator, error) {
	switch cfg.AIProvider {
	case config.ProviderGemini:
		return NewGeminiGenerator(ctx, GeminiOptions{
			APIKey:         cfg.GeminiKey(),
			Model:          cfg.GeminiModel,
			ThinkingBudget: cfg.ThinkingBudget,
		})
	case config.ProviderOpenAI:
		return NewOpenAIGenerator(OpenAIOptions{
			APIKey:  cfg.OpenAIKey,
			Model:   cfg.OpenAIModel,
			BaseURL: cfg.OpenAIBaseURL,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported AI provider %q", cfg.AIProvider)
	}
}
