package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ext_builder_server/internal/shell"
	"ext_builder_server/internal/types"
	"ext_builder_server/internal/viewer"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
)

type focus int

const (
	focusPrompt focus = iota
	focusFiles
)

// Messages for async operations
type generationDoneMsg struct{}

type copiedResetMsg struct{}

type exportDoneMsg struct {
	what string // "zip" or "folder"
	path string
	err  error
}

// Options configures the terminal front end.
type Options struct {
	OutDir      string
	Clipboard   viewer.Clipboard
	CopiedDelay time.Duration
	// Timeout bounds one generation; zero means no bound.
	Timeout time.Duration
}

// Model is the bubbletea model driving one shell.
type Model struct {
	ctx  context.Context
	sh   *shell.Shell
	opts Options

	textarea textarea.Model
	spinner  spinner.Model
	styles   *Styles

	focus      focus
	viewer     *viewer.Viewer
	viewerFor  *types.ExtensionResult // result the viewer was built for
	scroll     int
	statusLine string

	width  int
	height int
}

func New(ctx context.Context, sh *shell.Shell, opts Options) Model {
	if opts.CopiedDelay <= 0 {
		opts.CopiedDelay = viewer.DefaultCopiedDelay
	}
	if opts.Clipboard == nil {
		opts.Clipboard = viewer.SystemClipboard{}
	}

	ta := textarea.New()
	ta.Placeholder = "Ví dụ: Tạo một extension thay đổi màu nền của trang web hiện tại thành màu xanh dương khi nhấn vào icon..."
	ta.ShowLineNumbers = false
	ta.SetHeight(4)
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("ctrl+j"))
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		ctx:      ctx,
		sh:       sh,
		opts:     opts,
		textarea: ta,
		spinner:  sp,
		styles:   NewStyles(),
		focus:    focusPrompt,
		height:   30,
		width:    100,
	}
}

func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

func (m Model) generating() bool {
	return m.sh.Snapshot().Status == types.StatusGenerating
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.textarea.SetWidth(max(20, msg.Width-4))
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.closeViewer()
			return m, tea.Quit
		}
		if m.focus == focusPrompt {
			return m.updatePrompt(msg)
		}
		return m.updateFiles(msg)

	case spinner.TickMsg:
		if !m.generating() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case generationDoneMsg:
		m.syncViewer()
		st := m.sh.Snapshot()
		if st.Status == types.StatusSuccess {
			m.focus = focusFiles
			m.textarea.Blur()
			m.statusLine = ""
		} else {
			m.focus = focusPrompt
			m.textarea.Focus()
		}
		return m, nil

	case copiedResetMsg:
		return m, nil

	case exportDoneMsg:
		if msg.err != nil {
			m.statusLine = m.styles.Error.Render(fmt.Sprintf("Xuất %s thất bại: %v", msg.what, msg.err))
		} else {
			m.statusLine = m.styles.Success.Render(fmt.Sprintf("Đã lưu %s: %s", msg.what, msg.path))
		}
		return m, nil
	}

	if m.focus == focusPrompt {
		var cmd tea.Cmd
		m.textarea, cmd = m.textarea.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		return m.submit()
	case "esc", "tab":
		if m.viewer != nil {
			m.focus = focusFiles
			m.textarea.Blur()
		}
		return m, nil
	}
	if m.generating() {
		return m, nil
	}
	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	m.sh.SetPrompt(m.textarea.Value())
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	ctx := m.ctx
	var cancel context.CancelFunc = func() {}
	if m.opts.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, m.opts.Timeout)
	}
	done, ok := m.sh.Start(ctx, m.textarea.Value())
	if !ok {
		cancel()
		return m, nil
	}
	m.statusLine = ""
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		<-done
		cancel()
		return generationDoneMsg{}
	})
}

func (m Model) updateFiles(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		m.closeViewer()
		return m, tea.Quit
	case "n", "tab":
		m.focus = focusPrompt
		m.textarea.Focus()
		return m, textarea.Blink
	}
	if m.viewer == nil {
		return m, nil
	}

	switch msg.String() {
	case "up", "k":
		if err := m.viewer.SelectFile(m.viewer.ActiveIndex() - 1); err == nil {
			m.scroll = 0
		}
	case "down", "j":
		if err := m.viewer.SelectFile(m.viewer.ActiveIndex() + 1); err == nil {
			m.scroll = 0
		}
	case "pgdown", "ctrl+d":
		m.scroll += m.contentHeight() / 2
	case "pgup", "ctrl+u":
		m.scroll = max(0, m.scroll-m.contentHeight()/2)
	case "c":
		if err := m.viewer.CopyActiveFileContent(); err != nil {
			m.statusLine = m.styles.Error.Render(err.Error())
			return m, nil
		}
		m.statusLine = ""
		return m, tea.Tick(m.opts.CopiedDelay+50*time.Millisecond, func(time.Time) tea.Msg {
			return copiedResetMsg{}
		})
	case "z":
		return m, m.exportZip()
	case "u":
		return m, m.exportUnpacked()
	}
	return m, nil
}

func (m Model) exportZip() tea.Cmd {
	sh, dir := m.sh, m.opts.OutDir
	return func() tea.Msg {
		st := sh.Snapshot()
		if st.Result == nil {
			return nil
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return exportDoneMsg{what: "zip", err: err}
		}
		tmp, err := os.CreateTemp(dir, ".export-*.zip")
		if err != nil {
			return exportDoneMsg{what: "zip", err: err}
		}
		defer os.Remove(tmp.Name()) // no-op after a successful rename

		name, ok, err := sh.ExportAsZip(tmp)
		if closeErr := tmp.Close(); err == nil {
			err = closeErr
		}
		if !ok || err != nil {
			return exportDoneMsg{what: "zip", err: err}
		}
		target := filepath.Join(dir, filepath.Base(name))
		if filepath.Dir(target) != filepath.Clean(dir) {
			return exportDoneMsg{what: "zip", err: fmt.Errorf("archive name %q escapes %s", name, dir)}
		}
		if err := os.Rename(tmp.Name(), target); err != nil {
			return exportDoneMsg{what: "zip", err: err}
		}
		return exportDoneMsg{what: "zip", path: target}
	}
}

func (m Model) exportUnpacked() tea.Cmd {
	ctx, sh, dir := m.ctx, m.sh, m.opts.OutDir
	return func() tea.Msg {
		target, ok, err := sh.ExportUnpacked(ctx, dir)
		if !ok {
			return nil
		}
		return exportDoneMsg{what: "folder", path: target, err: err}
	}
}

// syncViewer replaces the viewer when the shell holds a different result.
func (m *Model) syncViewer() {
	st := m.sh.Snapshot()
	if st.Result == nil || st.Result == m.viewerFor {
		return
	}
	v, err := viewer.New(st.Result.Files, m.opts.Clipboard, viewer.WithCopiedDelay(m.opts.CopiedDelay))
	if err != nil {
		m.statusLine = m.styles.Error.Render(err.Error())
		return
	}
	m.closeViewer()
	m.viewer = v
	m.viewerFor = st.Result
	m.scroll = 0
}

func (m *Model) closeViewer() {
	if m.viewer != nil {
		m.viewer.Close()
	}
}

func (m Model) contentHeight() int {
	return max(5, m.height-16)
}

func (m Model) View() string {
	var b strings.Builder
	st := m.sh.Snapshot()

	b.WriteString(m.styles.Title.Render("Chrome Extension AI Builder") + "\n")
	b.WriteString(m.styles.Dim.Render("Nhập ý tưởng của bạn, AI sẽ tạo ra mã nguồn Chrome Extension hoàn chỉnh (Manifest V3).") + "\n\n")

	b.WriteString(m.textarea.View() + "\n")
	if st.Status == types.StatusGenerating {
		b.WriteString(m.spinner.View() + " Đang tạo mã...\n")
	}
	if st.Status == types.StatusError && st.Error != "" {
		b.WriteString(m.styles.Error.Render("Lỗi! "+st.Error) + "\n")
	}
	if st.ExportError != "" {
		b.WriteString(m.styles.Error.Render(st.ExportError) + "\n")
	}

	if st.Result != nil && m.viewer != nil {
		b.WriteString("\n" + m.styles.Accent.Render(st.Result.Name) + "\n")
		b.WriteString(m.styles.Dim.Render(st.Result.Description) + "\n\n")
		b.WriteString(m.renderViewer())
	}

	if m.statusLine != "" {
		b.WriteString("\n" + m.statusLine + "\n")
	}
	b.WriteString("\n" + m.styles.Dim.Render(m.help()) + "\n")
	return b.String()
}

func (m Model) renderViewer() string {
	var list strings.Builder
	for i, f := range m.viewer.Files() {
		if i == m.viewer.ActiveIndex() {
			list.WriteString(m.styles.Selected.Render("▸ "+f.Path) + "\n")
		} else {
			list.WriteString("  " + f.Path + "\n")
		}
	}

	active := m.viewer.Active()
	copyLabel := "[c] Sao chép mã"
	if m.viewer.Copied() {
		copyLabel = m.styles.Success.Render("Đã sao chép!")
	}
	header := fmt.Sprintf("%s · %s   %s", active.Path, m.viewer.ActiveKind(), copyLabel)

	lines := strings.Split(active.Content, "\n")
	start := min(m.scroll, max(0, len(lines)-1))
	end := min(len(lines), start+m.contentHeight())
	body := m.styles.Code.Render(strings.Join(lines[start:end], "\n"))

	return m.styles.Files.Render(list.String()) + "\n" + m.styles.Header.Render(header) + "\n" + body + "\n"
}

func (m Model) help() string {
	if m.focus == focusPrompt {
		return "enter: tạo • ctrl+j: xuống dòng • tab: xem tệp • ctrl+c: thoát"
	}
	return "↑/↓: chọn tệp • pgup/pgdn: cuộn • c: sao chép • z: lưu .zip • u: lưu thư mục • n: yêu cầu mới • q: thoát"
}
