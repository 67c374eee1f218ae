package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/erparts/avplay/internal/demux"
	"github.com/erparts/avplay/internal/session"
	"github.com/erparts/avplay/internal/visualizer"
)

// TUI is the Bubble Tea model driving -nodisp console playback: Game's key
// bindings except page up/down seeking, rendered as a status line, a playback-position
// progress bar, and a VU meter instead of a window.
type TUI struct {
	state    *session.State
	meter    *visualizer.VUMeter
	width    int
	quitting bool

	keys     keyMap
	styles   styles
	progress progress.Model
}

// keyMap documents every binding handleKey understands, in the same
// declarative style bubbles/key uses for its own widgets' help text.
type keyMap struct {
	Quit        key.Binding
	PlayPause   key.Binding
	Mute        key.Binding
	Sync        key.Binding
	Step        key.Binding
	VolumeUp    key.Binding
	VolumeDown  key.Binding
	SeekBack    key.Binding
	SeekForward key.Binding
	CycleVideo  key.Binding
	CycleAudio  key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Quit:        key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
		PlayPause:   key.NewBinding(key.WithKeys(" ", "p"), key.WithHelp("space", "play/pause")),
		Mute:        key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "mute")),
		Sync:        key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "cycle sync")),
		Step:        key.NewBinding(key.WithKeys("."), key.WithHelp(".", "step frame")),
		VolumeUp:    key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "volume up")),
		VolumeDown:  key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "volume down")),
		SeekBack:    key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "seek back")),
		SeekForward: key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "seek forward")),
		CycleVideo:  key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "cycle video stream")),
		CycleAudio:  key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "cycle audio stream")),
	}
}

type styles struct {
	header lipgloss.Style
	bar    lipgloss.Style
}

func newStyles() styles {
	return styles{
		header: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		bar:    lipgloss.NewStyle().Foreground(lipgloss.Color("86")),
	}
}

// NewTUI builds a TUI model for st, sampling meter for the VU-meter line.
func NewTUI(st *session.State, ring *visualizer.RingBuffer) TUI {
	return TUI{
		state:    st,
		meter:    visualizer.NewVUMeter(ring),
		width:    80,
		keys:     newKeyMap(),
		styles:   newStyles(),
		progress: progress.New(progress.WithDefaultGradient()),
	}
}

type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m TUI) Init() tea.Cmd { return tickCmd() }

func (m TUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progress.Width = msg.Width - 2
		return m, nil
	case tickMsg:
		select {
		case <-m.state.Done():
			m.quitting = true
			return m, tea.Quit
		default:
		}
		return m, tickCmd()
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m TUI) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.state.Quit()
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.PlayPause):
		m.state.TogglePause()
	case key.Matches(msg, m.keys.Mute):
		m.state.ToggleMute()
	case key.Matches(msg, m.keys.Sync):
		m.state.CycleSyncMaster()
	case key.Matches(msg, m.keys.Step):
		m.state.StepFrame()
	case key.Matches(msg, m.keys.VolumeUp):
		m.state.AdjustVolume(1)
	case key.Matches(msg, m.keys.VolumeDown):
		m.state.AdjustVolume(-1)
	case key.Matches(msg, m.keys.SeekBack):
		m.state.SeekRelative(-m.state.DefaultSeekStep())
	case key.Matches(msg, m.keys.SeekForward):
		m.state.SeekRelative(m.state.DefaultSeekStep())
	case key.Matches(msg, m.keys.CycleVideo):
		_ = m.state.CycleStream(demux.StreamVideo)
	case key.Matches(msg, m.keys.CycleAudio):
		_ = m.state.CycleStream(demux.StreamAudio)
	}
	return m, nil
}

func (m TUI) View() string {
	if m.quitting {
		return "\n"
	}
	header := m.styles.header.Render(fmt.Sprintf("avplay [%s]", m.state.PlaybackState()))
	status := m.state.StatusLine()

	var bar string
	if m.meter != nil {
		bar = m.styles.bar.Render(m.meter.Bar(4096, 40))
	}

	var posBar string
	if total := m.state.Duration(); total > 0 {
		ratio := m.state.Position().Seconds() / total.Seconds()
		posBar = m.progress.ViewAs(clampRatio(ratio))
	}

	return fmt.Sprintf("%s\n%s\n%s\n%s\n", header, status, posBar, bar)
}

func clampRatio(r float64) float64 {
	if r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}
