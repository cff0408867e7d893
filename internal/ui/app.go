// Package ui provides the Bubble Tea scanner view: it wires capture events
// into a scan session and renders the outcome.
package ui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"github.com/organicai/scanner/internal/capture"
	"github.com/organicai/scanner/internal/domain"
	"github.com/organicai/scanner/internal/scan"
)

// Capturer is the part of the capture component the view drives
type Capturer interface {
	Mode() capture.Mode
	SetMode(ctx context.Context, mode capture.Mode) error
	Snapshot(ctx context.Context) error
	CaptureFile(path string) error
}

// Options configures the UI.
type Options struct {
	Context      context.Context
	Capturer     Capturer
	Orchestrator *scan.Orchestrator
	// Tokens delivers captured tokens; see TokenChannel
	Tokens <-chan string
	Theme  Theme
}

// Model is the root application state for Bubble Tea.
type Model struct {
	ctx          context.Context
	capturer     Capturer
	orchestrator *scan.Orchestrator
	tokens       <-chan string
	styles       Styles

	mode     capture.Mode
	snap     scan.Snapshot
	notice   string
	spinner  spinner.Model
	picking  bool
	filePath textinput.Model
	width    int
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	theme := opts.Theme
	if theme == (Theme{}) {
		theme = DefaultTheme
	}
	styles := theme.Styles()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Title

	input := textinput.New()
	input.Placeholder = "path/to/label.jpg"
	input.Prompt = "File: "
	input.CharLimit = 4096

	mode := capture.ModeCamera
	if opts.Capturer != nil {
		mode = opts.Capturer.Mode()
	}

	return Model{
		ctx:          ctx,
		capturer:     opts.Capturer,
		orchestrator: opts.Orchestrator,
		tokens:       opts.Tokens,
		styles:       styles,
		mode:         mode,
		spinner:      sp,
		filePath:     input,
	}
}

// TokenChannel returns a channel for the view and an emitter for the capture
// component. Emission never blocks; a token arriving while one is still
// pending is dropped.
func TokenChannel() (<-chan string, capture.Emit) {
	ch := make(chan string, 1)
	return ch, func(token string) {
		select {
		case ch <- token:
		default:
			log.Warn().Msg("capture dropped, previous capture still pending")
		}
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForToken(m.tokens), m.spinner.Tick)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.picking {
			return m.handlePickerKey(msg)
		}
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tokenMsg:
		return m.handleToken(string(msg))

	case scanDoneMsg:
		m.snap = scan.Snapshot(msg)
		return m, nil

	case modeMsg:
		m.mode = msg.mode
		if msg.err != nil {
			m.notice = describeError(msg.err)
		}
		return m, nil

	case captureErrMsg:
		m.notice = describeError(msg.err)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// handleKey processes keyboard input outside the file prompt.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "c":
		return m.switchMode(capture.ModeCamera)

	case "b":
		return m.switchMode(capture.ModeBarcode)

	case " ", "enter":
		if m.snap.Busy() {
			m.notice = "Analysis in progress"
			return m, nil
		}
		if m.mode != capture.ModeCamera {
			m.notice = "Switch to camera mode (c) to take a photo"
			return m, nil
		}
		m.notice = ""
		return m, snapshotCmd(m.ctx, m.capturer)

	case "f":
		if m.snap.Busy() {
			m.notice = "Analysis in progress"
			return m, nil
		}
		m.notice = ""
		m.picking = true
		m.filePath.SetValue("")
		return m, m.filePath.Focus()

	case "r":
		return m.reset()
	}

	return m, nil
}

// handlePickerKey routes keys to the file prompt.
func (m Model) handlePickerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.picking = false
		m.filePath.Blur()
		return m, nil

	case tea.KeyEnter:
		path := strings.TrimSpace(m.filePath.Value())
		m.picking = false
		m.filePath.Blur()
		if path == "" {
			return m, nil
		}
		return m, captureFileCmd(m.capturer, path)
	}

	var cmd tea.Cmd
	m.filePath, cmd = m.filePath.Update(msg)
	return m, cmd
}

func (m Model) switchMode(mode capture.Mode) (tea.Model, tea.Cmd) {
	if m.snap.Busy() {
		m.notice = "Analysis in progress"
		return m, nil
	}
	m.notice = ""
	return m, setModeCmd(m.ctx, m.capturer, mode)
}

// handleToken starts a scan for a captured token.
func (m Model) handleToken(token string) (tea.Model, tea.Cmd) {
	next := waitForToken(m.tokens)

	if err := m.orchestrator.Start(token); err != nil {
		m.notice = describeError(err)
		return m, next
	}

	m.notice = ""
	m.snap = m.orchestrator.Session().Snapshot()
	return m, tea.Batch(next, runScanCmd(m.ctx, m.orchestrator), m.spinner.Tick)
}

// reset returns to Idle from Result or Failed ("Scan Another" / "Try Again").
// Barcode mode starts decoding again.
func (m Model) reset() (tea.Model, tea.Cmd) {
	if m.snap.State != scan.StateResult && m.snap.State != scan.StateFailed {
		return m, nil
	}
	if err := m.orchestrator.Reset(); err != nil {
		m.notice = describeError(err)
		return m, nil
	}
	m.snap = m.orchestrator.Session().Snapshot()
	m.notice = ""
	if m.mode == capture.ModeBarcode {
		return m, setModeCmd(m.ctx, m.capturer, capture.ModeBarcode)
	}
	return m, nil
}

func describeError(err error) string {
	switch {
	case errors.Is(err, domain.ErrScanInProgress):
		return "Analysis in progress"
	case errors.Is(err, domain.ErrDeviceBusy):
		return "Camera is busy"
	case errors.Is(err, capture.ErrWrongMode):
		return "Not available in this mode"
	default:
		return err.Error()
	}
}

// Messages

type tokenMsg string

type scanDoneMsg scan.Snapshot

type modeMsg struct {
	mode capture.Mode
	err  error
}

type captureErrMsg struct{ err error }

// Commands

func waitForToken(tokens <-chan string) tea.Cmd {
	if tokens == nil {
		return nil
	}
	return func() tea.Msg {
		token, ok := <-tokens
		if !ok {
			return nil
		}
		return tokenMsg(token)
	}
}

func runScanCmd(ctx context.Context, o *scan.Orchestrator) tea.Cmd {
	return func() tea.Msg {
		return scanDoneMsg(o.Run(ctx))
	}
}

func setModeCmd(ctx context.Context, c Capturer, mode capture.Mode) tea.Cmd {
	return func() tea.Msg {
		return modeMsg{mode: mode, err: c.SetMode(ctx, mode)}
	}
}

func snapshotCmd(ctx context.Context, c Capturer) tea.Cmd {
	return func() tea.Msg {
		if err := c.Snapshot(ctx); err != nil {
			return captureErrMsg{err: err}
		}
		return nil
	}
}

func captureFileCmd(c Capturer, path string) tea.Cmd {
	return func() tea.Msg {
		if err := c.CaptureFile(path); err != nil {
			return captureErrMsg{err: err}
		}
		return nil
	}
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	return err
}
