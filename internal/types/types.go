package types

import (
	"fmt"
	"path"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ExtensionFile is one generated file of an extension.
type ExtensionFile struct {
	Path    string `json:"path"`    // e.g. "manifest.json", "src/popup.js"
	Content string `json:"content"` // may be empty
}

// ExtensionResult is the structure expected from the LLM for a whole extension.
type ExtensionResult struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Files       []ExtensionFile `json:"files"`
}

// RequestStatus is the lifecycle state of a generation request.
type RequestStatus string

const (
	StatusIdle       RequestStatus = "IDLE"
	StatusGenerating RequestStatus = "GENERATING"
	StatusSuccess    RequestStatus = "SUCCESS"
	StatusError      RequestStatus = "ERROR"
)

// WireResult mirrors ExtensionResult with pointer fields so that a missing
// key can be told apart from an empty string. It is the decode target for
// raw model output; convert it with Result after a successful Validate.
type WireResult struct {
	Name        *string    `json:"name" validate:"required"`
	Description *string    `json:"description" validate:"required"`
	Files       []WireFile `json:"files" validate:"required,min=1,dive"`
}

type WireFile struct {
	Path    *string `json:"path" validate:"required,extpath"`
	Content *string `json:"content" validate:"required"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("extpath", func(fl validator.FieldLevel) bool {
		return IsValidFilePath(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// IsValidFilePath reports whether p is a non-empty, clean, relative,
// forward-slash path that stays inside the extension root.
func IsValidFilePath(p string) bool {
	if p == "" || strings.ContainsRune(p, '\\') || strings.HasPrefix(p, "/") {
		return false
	}
	if path.Clean(p) != p {
		return false
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." || seg == "." {
			return false
		}
	}
	return true
}

// Validate checks the decoded payload against the result schema.
func (w *WireResult) Validate() error {
	if err := validate.Struct(w); err != nil {
		return fmt.Errorf("result does not match schema: %w", err)
	}
	seen := make(map[string]struct{}, len(w.Files))
	for _, f := range w.Files {
		if _, dup := seen[*f.Path]; dup {
			return fmt.Errorf("result does not match schema: duplicate file path %q", *f.Path)
		}
		seen[*f.Path] = struct{}{}
	}
	return nil
}

// Result converts a validated payload into an ExtensionResult.
func (w *WireResult) Result() ExtensionResult {
	res := ExtensionResult{
		Name:        *w.Name,
		Description: *w.Description,
		Files:       make([]ExtensionFile, 0, len(w.Files)),
	}
	for _, f := range w.Files {
		res.Files = append(res.Files, ExtensionFile{Path: *f.Path, Content: *f.Content})
	}
	return res
}

// Validate applies the same schema rules to an already built result.
func (r ExtensionResult) Validate() error {
	w := WireResult{
		Name:        &r.Name,
		Description: &r.Description,
	}
	if r.Files != nil {
		w.Files = make([]WireFile, 0, len(r.Files))
		for i := range r.Files {
			f := r.Files[i]
			w.Files = append(w.Files, WireFile{Path: &f.Path, Content: &f.Content})
		}
	}
	return w.Validate()
}
