package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"ext_builder_server/internal/metrics"
	"ext_builder_server/internal/types"
	"ext_builder_server/internal/utils"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
)

// User-facing messages for failures that carry no provider message.
const (
	msgEmptyResponse   = "Không nhận được phản hồi từ AI."
	msgInvalidResponse = "Phản hồi từ AI không đúng định dạng yêu cầu."
)

// completionFunc performs exactly one provider call and returns the raw text.
type completionFunc func(ctx context.Context) (string, error)

// generate runs one provider call and turns its text into a validated result.
// Every failure comes back as *GenerationError.
func generate(ctx context.Context, provider string, call completionFunc) (types.ExtensionResult, error) {
	requestID := uuid.NewString()
	log.Printf("Generating extension via %s (request %s)", provider, requestID)

	metrics.IncGenerationRequest(provider)
	metrics.IncGenerationsInFlight()
	defer metrics.DecGenerationsInFlight()
	start := time.Now()

	fail := func(gerr *GenerationError) (types.ExtensionResult, error) {
		metrics.ObserveGeneration(provider, metrics.OutcomeFailure, time.Since(start))
		metrics.IncGenerationFailure(gerr.Kind)
		log.Printf("ERROR: generation %s via %s failed: %v", requestID, provider, gerr)
		return types.ExtensionResult{}, gerr
	}

	llmOutput, err := call(ctx)
	if err != nil {
		return fail(&GenerationError{
			Message: apiErrorMessage(err),
			Kind:    utils.ClassifyError(err),
			Err:     fmt.Errorf("%s call failed: %w", provider, err),
		})
	}
	log.Printf("LLM raw output for request %s: %d bytes", requestID, len(llmOutput))

	result, err := ParseExtensionResult(llmOutput)
	if err != nil {
		var gerr *GenerationError
		if errors.As(err, &gerr) {
			return fail(gerr)
		}
		return fail(&GenerationError{Kind: utils.KindInvalidResponse, Err: err})
	}

	metrics.ObserveGeneration(provider, metrics.OutcomeSuccess, time.Since(start))
	log.Printf("Generation %s produced %q with %d files", requestID, result.Name, len(result.Files))
	return result, nil
}

// ParseExtensionResult decodes the model's text and checks it against the
// result schema. Failures are *GenerationError.
func ParseExtensionResult(llmOutput string) (types.ExtensionResult, error) {
	cleanedOutput := strings.TrimSpace(llmOutput)
	if cleanedOutput == "" {
		return types.ExtensionResult{}, &GenerationError{
			Message: msgEmptyResponse,
			Kind:    utils.KindEmptyResponse,
			Err:     errors.New("empty response body"),
		}
	}
	cleanedOutput = stripCodeFence(cleanedOutput)

	var wire types.WireResult
	if err := json.Unmarshal([]byte(cleanedOutput), &wire); err != nil {
		return types.ExtensionResult{}, &GenerationError{
			Message: msgInvalidResponse,
			Kind:    utils.KindInvalidResponse,
			Err:     fmt.Errorf("failed to parse LLM JSON output: %w", err),
		}
	}
	if err := wire.Validate(); err != nil {
		return types.ExtensionResult{}, &GenerationError{
			Message: msgInvalidResponse,
			Kind:    utils.KindInvalidResponse,
			Err:     err,
		}
	}
	return wire.Result(), nil
}

// stripCodeFence removes a Markdown ```json fence some models add even in
// JSON mode.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// apiErrorMessage extracts the provider's own human-readable message, if any.
func apiErrorMessage(err error) string {
	var openAIErr *openai.APIError
	if errors.As(err, &openAIErr) {
		return openAIErr.Message
	}
	var genaiErr genai.APIError
	if errors.As(err, &genaiErr) {
		return genaiErr.Message
	}
	var genaiPtrErr *genai.APIError
	if errors.As(err, &genaiPtrErr) {
		return genaiPtrErr.Message
	}
	return ""
}
