package viewer

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"ext_builder_server/internal/types"
	"ext_builder_server/internal/utils"

	"github.com/atotto/clipboard"
)

// DefaultCopiedDelay is how long the "copied" indicator stays on.
const DefaultCopiedDelay = 2 * time.Second

var (
	ErrNoFiles         = errors.New("viewer needs at least one file")
	ErrIndexOutOfRange = errors.New("file index out of range")
	ErrNoClipboard     = errors.New("no clipboard available")
)

// Clipboard receives copied file content.
type Clipboard interface {
	WriteAll(text string) error
}

// SystemClipboard writes to the host clipboard.
type SystemClipboard struct{}

func (SystemClipboard) WriteAll(text string) error { return clipboard.WriteAll(text) }

// Viewer pages through the files of one result. A new file list means a new
// Viewer, so selection always starts at index 0.
type Viewer struct {
	files       []types.ExtensionFile
	clip        Clipboard
	copiedDelay time.Duration

	mu       sync.Mutex
	active   int
	copied   bool
	copyTick uint64 // bumped on every copy so stale timers do nothing
	timer    *time.Timer
}

type Option func(*Viewer)

// WithCopiedDelay overrides DefaultCopiedDelay.
func WithCopiedDelay(d time.Duration) Option {
	return func(v *Viewer) { v.copiedDelay = d }
}

// New builds a viewer over files. clip may be nil for read-only rendering.
func New(files []types.ExtensionFile, clip Clipboard, opts ...Option) (*Viewer, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	v := &Viewer{
		files:       files,
		clip:        clip,
		copiedDelay: DefaultCopiedDelay,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

func (v *Viewer) Files() []types.ExtensionFile { return v.files }

func (v *Viewer) Len() int { return len(v.files) }

// SelectFile makes files[i] the active file.
func (v *Viewer) SelectFile(i int) error {
	if i < 0 || i >= len(v.files) {
		return fmt.Errorf("%w: %d (have %d files)", ErrIndexOutOfRange, i, len(v.files))
	}
	v.mu.Lock()
	v.active = i
	v.mu.Unlock()
	return nil
}

func (v *Viewer) ActiveIndex() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.active
}

func (v *Viewer) Active() types.ExtensionFile {
	return v.files[v.ActiveIndex()]
}

// ActiveKind labels the active file's language.
func (v *Viewer) ActiveKind() string {
	return utils.DetermineFileType(v.Active().Path)
}

// Copied reports whether the "copied" indicator is currently on.
func (v *Viewer) Copied() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.copied
}

// CopyActiveFileContent writes the active file's content to the clipboard
// and turns the "copied" indicator on for the configured delay. Copying
// again restarts the delay.
func (v *Viewer) CopyActiveFileContent() error {
	if v.clip == nil {
		return ErrNoClipboard
	}
	content := v.Active().Content
	if err := v.clip.WriteAll(content); err != nil {
		return fmt.Errorf("failed to copy to clipboard: %w", err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.copied = true
	v.copyTick++
	tick := v.copyTick
	if v.timer != nil {
		v.timer.Stop()
	}
	v.timer = time.AfterFunc(v.copiedDelay, func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		if v.copyTick == tick {
			v.copied = false
		}
	})
	return nil
}

// Close stops a pending indicator timer.
func (v *Viewer) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.timer != nil {
		v.timer.Stop()
	}
}
