package shell

import "ext_builder_server/internal/types"

// DefaultErrorMessage is shown when a failure carries no message of its own.
const DefaultErrorMessage = "Có lỗi xảy ra trong quá trình tạo mã."

// State is the whole request-lifecycle state of one shell.
type State struct {
	Prompt string                 `json:"prompt"`
	Status types.RequestStatus    `json:"status"`
	Result *types.ExtensionResult `json:"result,omitempty"`
	Error  string                 `json:"error,omitempty"`
	// ExportError reports the last failed export. It is cleared by the next
	// successful export or a new submission.
	ExportError string `json:"exportError,omitempty"`
}

// InitialState is the Idle state with nothing generated.
func InitialState() State {
	return State{Status: types.StatusIdle}
}

// Event is an input to Reduce.
type Event interface{ isEvent() }

// Submitted starts a generation for Prompt.
type Submitted struct{ Prompt string }

// Succeeded carries a validated result.
type Succeeded struct{ Result types.ExtensionResult }

// Failed carries the message to show in the error banner.
type Failed struct{ Message string }

// ExportFailed carries the message of a failed export.
type ExportFailed struct{ Message string }

// Exported clears a previous export failure.
type Exported struct{}

func (Submitted) isEvent()    {}
func (Succeeded) isEvent()    {}
func (Failed) isEvent()       {}
func (ExportFailed) isEvent() {}
func (Exported) isEvent()     {}

// Reduce returns the state after ev. It performs no I/O and never mutates s.
// Events that make no sense in the current status leave the state unchanged.
func Reduce(s State, ev Event) State {
	switch ev := ev.(type) {
	case Submitted:
		if s.Status == types.StatusGenerating || isBlank(ev.Prompt) {
			return s
		}
		s.Prompt = ev.Prompt
		s.Status = types.StatusGenerating
		s.Error = ""
		s.ExportError = ""
	case Succeeded:
		if s.Status != types.StatusGenerating {
			return s
		}
		res := cloneResult(ev.Result)
		s.Result = &res
		s.Status = types.StatusSuccess
		s.Error = ""
	case Failed:
		if s.Status != types.StatusGenerating {
			return s
		}
		s.Status = types.StatusError
		s.Error = ev.Message
		if s.Error == "" {
			s.Error = DefaultErrorMessage
		}
	case ExportFailed:
		if s.Result == nil {
			return s
		}
		s.ExportError = ev.Message
		if s.ExportError == "" {
			s.ExportError = DefaultErrorMessage
		}
	case Exported:
		s.ExportError = ""
	}
	return s
}

// CanSubmit reports whether Submit would start a generation for prompt.
func (s State) CanSubmit(prompt string) bool {
	return s.Status != types.StatusGenerating && !isBlank(prompt)
}

func cloneResult(r types.ExtensionResult) types.ExtensionResult {
	files := make([]types.ExtensionFile, len(r.Files))
	copy(files, r.Files)
	r.Files = files
	return r
}
