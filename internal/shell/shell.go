package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	"ext_builder_server/internal/ai"
	"ext_builder_server/internal/export"
	"ext_builder_server/internal/types"
)

// Generator is the part of ai.Generator the shell needs.
type Generator interface {
	GenerateExtension(ctx context.Context, prompt string) (types.ExtensionResult, error)
}

// Shell owns the state of one user's session and drives the generator.
// It is safe for concurrent use; at most one generation runs at a time.
type Shell struct {
	gen Generator

	mu    sync.Mutex
	state State
}

func New(gen Generator) *Shell {
	return &Shell{gen: gen, state: InitialState()}
}

// Snapshot returns a copy of the current state.
func (s *Shell) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetPrompt updates the prompt text without submitting it.
func (s *Shell) SetPrompt(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Prompt = text
}

// Submit runs one generation for promptText and blocks until it finishes.
// It returns false without doing anything when the prompt is blank or a
// generation is already in flight.
func (s *Shell) Submit(ctx context.Context, promptText string) bool {
	_, ok := s.Generate(ctx, promptText)
	return ok
}

// Generate is Submit returning the state recorded by this generation. A
// later submission on the same shell does not change what is returned.
func (s *Shell) Generate(ctx context.Context, promptText string) (State, bool) {
	done, ok := s.Start(ctx, promptText)
	if !ok {
		return State{}, false
	}
	return <-done, true
}

// Start is Submit without the wait: the state is Generating when Start
// returns true. done yields the state recorded for the outcome, then closes.
func (s *Shell) Start(ctx context.Context, promptText string) (done <-chan State, ok bool) {
	s.mu.Lock()
	if !s.state.CanSubmit(promptText) {
		s.mu.Unlock()
		return nil, false
	}
	s.state = Reduce(s.state, Submitted{Prompt: promptText})
	s.mu.Unlock()

	ch := make(chan State, 1)
	go func() {
		defer close(ch)
		ch <- s.finish(s.gen.GenerateExtension(ctx, promptText))
	}()
	return ch, true
}

func (s *Shell) finish(result types.ExtensionResult, err error) State {
	var ev Event
	if err != nil {
		log.Printf("ERROR: generation failed: %v", err)
		ev = Failed{Message: userMessage(err)}
	} else {
		ev = Succeeded{Result: result}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Reduce(s.state, ev)
	return s.state
}

// ExportAsZip writes the current result as a zip archive to w and returns
// the download file name. ok is false, and nothing is written, when there
// is no result.
func (s *Shell) ExportAsZip(w io.Writer) (filename string, ok bool, err error) {
	s.mu.Lock()
	res := s.state.Result
	s.mu.Unlock()
	if res == nil {
		return "", false, nil
	}

	err = export.WriteZip(w, *res)
	s.recordExport(err)
	if err != nil {
		return "", true, fmt.Errorf("zip export failed: %w", err)
	}
	return export.ArchiveName(res.Name), true, nil
}

// ExportUnpacked writes the current result into a folder under dir.
func (s *Shell) ExportUnpacked(ctx context.Context, dir string) (target string, ok bool, err error) {
	s.mu.Lock()
	res := s.state.Result
	s.mu.Unlock()
	if res == nil {
		return "", false, nil
	}

	target, err = export.WriteUnpacked(ctx, dir, *res)
	s.recordExport(err)
	if err != nil {
		return "", true, fmt.Errorf("unpacked export failed: %w", err)
	}
	return target, true, nil
}

func (s *Shell) recordExport(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		log.Printf("ERROR: export failed: %v", err)
		s.state = Reduce(s.state, ExportFailed{Message: "Không thể xuất tệp: " + err.Error()})
		return
	}
	s.state = Reduce(s.state, Exported{})
}

// userMessage picks what the error banner shows for err.
func userMessage(err error) string {
	var gerr *ai.GenerationError
	if errors.As(err, &gerr) {
		return gerr.UserMessage() // may be empty; Reduce falls back to the default
	}
	return ""
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
