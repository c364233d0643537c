// ABOUTME: Bubbletea model for the visualizer TUI
// ABOUTME: Shows the live frame with a status bar and maps keys to pipeline controls
package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Resonate-Protocol/resonate-visualizer/internal/capture"
	"github.com/Resonate-Protocol/resonate-visualizer/internal/pipeline"
	"github.com/Resonate-Protocol/resonate-visualizer/internal/synth"
)

// statusLines is the height reserved below the frame
const statusLines = 3

// Controller is the part of the coordinator the TUI drives
type Controller interface {
	TogglePlay() error
	StartRecording() error
	StopRecording()
	Settings() synth.Settings
	SetSettings(synth.Settings) error
	SetVolume(level int)
	SetMuted(muted bool)
	Status() pipeline.Status
	Artifact() (*capture.Artifact, bool)
}

// Palette is cycled by the color key
var Palette = []synth.Color{
	{R: 0xef, G: 0x44, B: 0x44},
	{R: 0xf9, G: 0x73, B: 0x16},
	{R: 0xea, G: 0xb3, B: 0x08},
	{R: 0x22, G: 0xc5, B: 0x5e},
	{R: 0x06, G: 0xb6, B: 0xd4},
	{R: 0x3b, G: 0x82, B: 0xf6},
	{R: 0x8b, G: 0x5c, B: 0xf6},
	{R: 0xec, G: 0x48, B: 0x99},
}

type tickMsg time.Time

type savedMsg struct {
	path string
	err  error
}

// Model represents the TUI state
type Model struct {
	ctrl      Controller
	viewport  *Viewport
	outputDir string

	frame   string
	status  pipeline.Status
	notice  string
	isError bool

	width    int
	height   int
	quitting bool
}

// NewModel creates a model driving ctrl
func NewModel(ctrl Controller, viewport *Viewport, outputDir string) Model {
	return Model{
		ctrl:      ctrl,
		viewport:  viewport,
		outputDir: outputDir,
		status:    ctrl.Status(),
	}
}

// Init starts the status refresh tick
func (m Model) Init() tea.Cmd {
	return tickEvery()
}

func tickEvery() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.viewport != nil {
			m.viewport.SetCells(msg.Width, msg.Height-statusLines)
		}
	case FrameMsg:
		m.frame = string(msg)
	case StatusMsg:
		m.status = pipeline.Status(msg)
	case tickMsg:
		m.status = m.ctrl.Status()
		return m, tickEvery()
	case savedMsg:
		if msg.err != nil {
			m.setError(msg.err)
		} else {
			m.setNotice("saved " + msg.path)
		}
	}
	return m, nil
}

func (m *Model) setNotice(s string) {
	m.notice = s
	m.isError = false
}

func (m *Model) setError(err error) {
	m.notice = err.Error()
	m.isError = true
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case " ", "space":
		if err := m.ctrl.TogglePlay(); err != nil {
			m.setError(err)
		} else {
			m.notice = ""
		}
	case "r":
		switch m.status.Recording {
		case capture.Active:
			m.ctrl.StopRecording()
			m.setNotice("finalizing recording...")
		case capture.Finalizing:
			m.setNotice("still finalizing")
		default:
			if err := m.ctrl.StartRecording(); err != nil {
				m.setError(err)
			} else {
				m.setNotice("recording")
			}
		}
	case "tab":
		s := m.ctrl.Settings()
		s.Style = s.Style.Next()
		m.applySettings(s)
	case "+", "=":
		s := m.ctrl.Settings()
		s.Sensitivity++
		m.applySettings(s)
	case "-", "_":
		s := m.ctrl.Settings()
		s.Sensitivity--
		m.applySettings(s)
	case "c":
		s := m.ctrl.Settings()
		s.Color = nextColor(s.Color)
		m.applySettings(s)
	case "]":
		m.ctrl.SetVolume(m.status.Volume + 5)
	case "[":
		m.ctrl.SetVolume(m.status.Volume - 5)
	case "m":
		m.ctrl.SetMuted(!m.status.Muted)
	case "s":
		a, ok := m.ctrl.Artifact()
		if !ok {
			m.setNotice("no finished recording to save")
			return m, nil
		}
		dir := m.outputDir
		return m, func() tea.Msg {
			path, err := a.Save(dir)
			return savedMsg{path: path, err: err}
		}
	}
	m.status = m.ctrl.Status()
	return m, nil
}

func (m *Model) applySettings(s synth.Settings) {
	if err := m.ctrl.SetSettings(s); err != nil {
		m.setError(err)
		return
	}
	m.notice = ""
}

func nextColor(c synth.Color) synth.Color {
	for i, p := range Palette {
		if p == c {
			return Palette[(i+1)%len(Palette)]
		}
	}
	return Palette[0]
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	labelStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	recStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	helpStyle   = lipgloss.NewStyle().Faint(true)
)

// View renders the TUI
func (m Model) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var b strings.Builder
	if m.frame != "" {
		b.WriteString(m.frame)
		b.WriteString("\n")
	}
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(m.renderNotice())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("space:Play/Pause  r:Record  s:Save  tab:Style  +/-:Sensitivity  c:Color  [/]:Volume  m:Mute  q:Quit"))
	return b.String()
}

func (m Model) renderStatus() string {
	st := m.status
	track := "no track"
	if st.Track != "" {
		track = st.Track
	}
	state := "paused"
	switch {
	case !st.Loaded:
		state = "stopped"
	case st.Ended:
		state = "ended"
	case st.Playing:
		state = "playing"
	}

	muted := ""
	if st.Muted {
		muted = " (muted)"
	}

	parts := []string{
		titleStyle.Render("Resonate Visualizer"),
		labelStyle.Render("Track: ") + valueStyle.Render(truncate(track, 32)),
		valueStyle.Render(fmt.Sprintf("%s %s", state, formatPosition(st.Position))),
		labelStyle.Render("Style: ") + valueStyle.Render(st.Settings.Style.String()),
		lipgloss.NewStyle().Foreground(lipgloss.Color(st.Settings.Color.Hex())).Render("■ " + st.Settings.Color.Hex()),
		labelStyle.Render("Sens: ") + valueStyle.Render(fmt.Sprintf("%d", st.Settings.Sensitivity)),
		labelStyle.Render("Vol: ") + valueStyle.Render(fmt.Sprintf("%d%%%s", st.Volume, muted)),
	}
	if r := m.renderRecording(); r != "" {
		parts = append(parts, r)
	}
	return strings.Join(parts, "  ")
}

func (m Model) renderRecording() string {
	st := m.status
	switch st.Recording {
	case capture.Active:
		return recStyle.Render(fmt.Sprintf("● REC %s", formatPosition(st.RecordingStats.AudioDuration)))
	case capture.Finalizing:
		return noticeStyle.Render("finalizing...")
	case capture.Complete:
		if st.ArtifactName != "" {
			return valueStyle.Render(fmt.Sprintf("ready: %s (%s)", st.ArtifactName, formatBytes(st.RecordingStats.Bytes)))
		}
		if st.RecordingErr != nil {
			return errorStyle.Render("recording failed")
		}
	}
	return ""
}

func (m Model) renderNotice() string {
	if m.notice == "" {
		return ""
	}
	if m.isError {
		return errorStyle.Render(m.notice)
	}
	return noticeStyle.Render(m.notice)
}

func formatPosition(d time.Duration) string {
	d = d.Round(time.Second)
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}

func formatBytes(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

func truncate(s string, length int) string {
	r := []rune(s)
	if len(r) <= length {
		return s
	}
	return string(r[:length-3]) + "..."
}
