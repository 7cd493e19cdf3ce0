package utils

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
)

// Failure kinds reported by ClassifyError.
const (
	KindAuth            = "auth"
	KindRateLimit       = "rate_limit"
	KindUpstream        = "upstream"
	KindTimeout         = "timeout"
	KindEmptyResponse   = "empty_response"
	KindInvalidResponse = "invalid_response"
	KindUnknown         = "unknown"
)

// ClassifyError gives a coarse label for a failed provider call. It is used
// for logs and metrics only; generation is never retried.
func ClassifyError(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}

	var openAIErr *openai.APIError
	if errors.As(err, &openAIErr) {
		return kindFromStatus(openAIErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return kindFromStatus(reqErr.HTTPStatusCode)
	}
	var genaiErr genai.APIError
	if errors.As(err, &genaiErr) {
		return kindFromStatus(genaiErr.Code)
	}
	var genaiPtrErr *genai.APIError
	if errors.As(err, &genaiPtrErr) {
		return kindFromStatus(genaiPtrErr.Code)
	}

	errMsg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errMsg, "rate limit"), strings.Contains(errMsg, "quota"):
		return KindRateLimit
	case strings.Contains(errMsg, "api key"), strings.Contains(errMsg, "unauthorized"):
		return KindAuth
	case strings.Contains(errMsg, "timeout"), strings.Contains(errMsg, "deadline exceeded"):
		return KindTimeout
	case strings.Contains(errMsg, "connection reset by peer"), strings.Contains(errMsg, "connection refused"):
		return KindUpstream
	}
	return KindUnknown
}

func kindFromStatus(code int) string {
	switch {
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return KindAuth
	case code == http.StatusTooManyRequests:
		return KindRateLimit
	case code == http.StatusGatewayTimeout, code == http.StatusRequestTimeout:
		return KindTimeout
	case code >= 500:
		return KindUpstream
	case code == http.StatusBadRequest:
		// Gemini answers 400 for a missing or malformed key.
		return KindAuth
	}
	return KindUnknown
}

// DetermineFileType gives a display label for a generated extension file.
func DetermineFileType(filename string) string {
	lowerFilename := strings.ToLower(filename)
	base := filepath.Base(lowerFilename)
	if base == "manifest.json" {
		return "Manifest"
	}
	if base == "readme" || base == "license" {
		return "Text"
	}

	switch filepath.Ext(lowerFilename) {
	case ".html", ".htm":
		return "HTML"
	case ".css":
		return "CSS"
	case ".js", ".mjs":
		return "JavaScript"
	case ".ts":
		return "TypeScript"
	case ".json":
		return "JSON"
	case ".md":
		return "Markdown"
	case ".txt":
		return "Text"
	case ".svg":
		return "SVG"
	case ".png", ".jpg", ".jpeg", ".gif", ".webp", ".ico":
		return "Image"
	}
	return "Unknown"
}
