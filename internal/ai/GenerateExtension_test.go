package ai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ext_builder_server/internal/ai/prompts"
	"ext_builder_server/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const darkModeJSON = `{
  "name": "Dark Mode Toggle",
  "description": "Bật/tắt chế độ tối cho mọi trang web.",
  "files": [
    {"path": "manifest.json", "content": "{\"manifest_version\": 3}"},
    {"path": "popup.html", "content": "<button id=\"t\">Toggle</button>"},
    {"path": "popup.js", "content": "document.getElementById('t')"}
  ]
}`

func TestParseExtensionResult_Valid(t *testing.T) {
	res, err := ParseExtensionResult(darkModeJSON)
	require.NoError(t, err)

	assert.Equal(t, "Dark Mode Toggle", res.Name)
	require.Len(t, res.Files, 3)
	assert.Equal(t, "manifest.json", res.Files[0].Path)
	assert.Equal(t, `{"manifest_version": 3}`, res.Files[0].Content)
}

func TestParseExtensionResult_CodeFence(t *testing.T) {
	res, err := ParseExtensionResult("```json\n" + darkModeJSON + "\n```")
	require.NoError(t, err)
	assert.Equal(t, "Dark Mode Toggle", res.Name)
}

func TestParseExtensionResult_Failures(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantKind string
		wantMsg  string
	}{
		{"empty", "", utils.KindEmptyResponse, msgEmptyResponse},
		{"whitespace", "  \n\t", utils.KindEmptyResponse, msgEmptyResponse},
		{"not json", "Here is your extension!", utils.KindInvalidResponse, msgInvalidResponse},
		{"truncated", `{"name": "X", "files": [`, utils.KindInvalidResponse, msgInvalidResponse},
		{"missing files", `{"name": "X", "description": "Y"}`, utils.KindInvalidResponse, msgInvalidResponse},
		{"file missing content", `{"name": "X", "description": "Y", "files": [{"path": "a.js"}]}`, utils.KindInvalidResponse, msgInvalidResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseExtensionResult(tt.raw)
			require.Error(t, err)

			var gerr *GenerationError
			require.True(t, errors.As(err, &gerr))
			assert.Equal(t, tt.wantKind, gerr.Kind)
			assert.Equal(t, tt.wantMsg, gerr.UserMessage())
		})
	}
}

func TestGenerationError_Error(t *testing.T) {
	cause := errors.New("boom")
	err := &GenerationError{Message: "oops", Kind: utils.KindUpstream, Err: cause}

	assert.Contains(t, err.Error(), "boom")
	assert.Contains(t, err.Error(), utils.KindUpstream)
	assert.Equal(t, "oops", err.UserMessage())
	assert.ErrorIs(t, err, cause)
}

func chatCompletionBody(content string) string {
	body, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1,
		"model":   "gpt-4o",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": "stop",
		}},
	})
	return string(body)
}

func TestOpenAIGenerator_Success(t *testing.T) {
	var calls int
	var gotRequest map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotRequest)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, chatCompletionBody(darkModeJSON))
	}))
	defer srv.Close()

	gen := NewOpenAIGenerator(OpenAIOptions{APIKey: "test", BaseURL: srv.URL + "/v1"})
	res, err := gen.GenerateExtension(context.Background(), "Dark mode toggle")
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, "Dark Mode Toggle", res.Name)
	assert.Len(t, res.Files, 3)

	format, ok := gotRequest["response_format"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "json_schema", format["type"])
	messages, ok := gotRequest["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	user := messages[1].(map[string]any)
	assert.Equal(t, prompts.GetExtensionPrompt("Dark mode toggle"), user["content"])
}

func TestOpenAIGenerator_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error": {"message": "Incorrect API key provided", "type": "invalid_request_error"}}`)
	}))
	defer srv.Close()

	gen := NewOpenAIGenerator(OpenAIOptions{APIKey: "bad", BaseURL: srv.URL + "/v1"})
	_, err := gen.GenerateExtension(context.Background(), "anything")
	require.Error(t, err)

	var gerr *GenerationError
	require.True(t, errors.As(err, &gerr))
	assert.Equal(t, utils.KindAuth, gerr.Kind)
	assert.Equal(t, "Incorrect API key provided", gerr.UserMessage())
}

func TestOpenAIGenerator_InvalidPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, chatCompletionBody(`{"name": "X"}`))
	}))
	defer srv.Close()

	gen := NewOpenAIGenerator(OpenAIOptions{APIKey: "test", BaseURL: srv.URL + "/v1"})
	_, err := gen.GenerateExtension(context.Background(), "anything")

	var gerr *GenerationError
	require.True(t, errors.As(err, &gerr))
	assert.Equal(t, utils.KindInvalidResponse, gerr.Kind)
}

func TestGeminiGenerator_Success(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Contains(t, r.URL.Path, ":generateContent")
		body, _ := json.Marshal(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"role":  "model",
					"parts": []map[string]any{{"text": darkModeJSON}},
				},
				"finishReason": "STOP",
			}},
		})
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	gen, err := NewGeminiGenerator(context.Background(), GeminiOptions{
		APIKey:         "test",
		ThinkingBudget: 10000,
		BaseURL:        srv.URL,
	})
	require.NoError(t, err)

	res, err := gen.GenerateExtension(context.Background(), "Dark mode toggle")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "Dark Mode Toggle", res.Name)
	assert.Len(t, res.Files, 3)
}

func TestGeminiGenerator_MissingKey(t *testing.T) {
	gen, err := NewGeminiGenerator(context.Background(), GeminiOptions{})
	require.NoError(t, err)

	_, err = gen.GenerateExtension(context.Background(), "anything")
	require.Error(t, err)

	var gerr *GenerationError
	require.True(t, errors.As(err, &gerr))
	assert.Equal(t, utils.KindAuth, gerr.Kind)
	assert.ErrorIs(t, err, errMissingAPIKey)
}

func TestGeminiContentConfig(t *testing.T) {
	cfg := geminiContentConfig(0)
	assert.Nil(t, cfg.ThinkingConfig)
	assert.Equal(t, "application/json", cfg.ResponseMIMEType)
	assert.ElementsMatch(t, []string{"name", "description", "files"}, cfg.ResponseSchema.Required)

	cfg = geminiContentConfig(10000)
	require.NotNil(t, cfg.ThinkingConfig)
	require.NotNil(t, cfg.ThinkingConfig.ThinkingBudget)
	assert.Equal(t, int32(10000), *cfg.ThinkingConfig.ThinkingBudget)
}
