// ABOUTME: Bubbletea model for the demo player TUI
// ABOUTME: Shows stream format, state and playback position
package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Model represents the TUI state
type Model struct {
	// Device
	deviceName string
	format     string
	sampleRate int
	channels   int

	// Playback
	state         string
	position      int64
	bufferSize    int
	framesWritten int64
	framesRead    int64

	// Source
	sourceName string

	// Dimensions
	width  int
	height int
}

// StatusMsg updates TUI state
type StatusMsg struct {
	DeviceName    string
	Format        string
	SampleRate    int
	Channels      int
	State         string
	Position      int64
	BufferSize    int
	FramesWritten int64
	FramesRead    int64
	SourceName    string
}

// QuitMsg asks the program to exit
type QuitMsg struct{}

// NewModel creates a new TUI model
func NewModel() Model {
	return Model{state: "idle"}
}

// Run starts the TUI
func Run() (*tea.Program, error) {
	p := tea.NewProgram(NewModel(), tea.WithAltScreen())
	return p, nil
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
	case QuitMsg:
		return m, tea.Quit
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	s := m.renderHeader()
	s += m.renderStream()
	s += m.renderPosition()
	s += m.renderHelp()
	return s
}

// renderHeader renders the device line
func (m Model) renderHeader() string {
	device := m.deviceName
	if device == "" {
		device = "(no device)"
	}
	return fmt.Sprintf(`┌─ PCM Bridge Player ──────────────────────────────────┐
│ Device: %-45s│
├──────────────────────────────────────────────────────┤
`, truncate(device, 45))
}

// renderStream renders format and source info
func (m Model) renderStream() string {
	if m.format == "" {
		return "│ No stream                                            │\n"
	}

	s := fmt.Sprintf("│ Format: %s %dHz %s%-24s│\n",
		m.format, m.sampleRate, channelName(m.channels), "")
	s += fmt.Sprintf("│ Source: %-45s│\n", truncate(m.sourceName, 45))
	s += fmt.Sprintf("│ State:  %-45s│\n", m.state)
	return s
}

// renderPosition renders the circular position and frame counters
func (m Model) renderPosition() string {
	bar := ""
	if m.bufferSize > 0 {
		bar = renderBar(int(m.position), m.bufferSize, 20)
	}
	return fmt.Sprintf("│ Buffer: [%s] %6d/%-6d frames%-5s│\n"+
		"│ Frames: written %-12d read %-12d    │\n",
		bar, m.position, m.bufferSize, "",
		m.framesWritten, m.framesRead)
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	return `├──────────────────────────────────────────────────────┤
│ q:Quit                                               │
└──────────────────────────────────────────────────────┘
`
}

// applyStatus updates model from status message
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.DeviceName != "" {
		m.deviceName = msg.DeviceName
	}
	if msg.Format != "" {
		m.format = msg.Format
		m.sampleRate = msg.SampleRate
		m.channels = msg.Channels
	}
	if msg.State != "" {
		m.state = msg.State
	}
	if msg.SourceName != "" {
		m.sourceName = msg.SourceName
	}
	if msg.BufferSize != 0 {
		m.bufferSize = msg.BufferSize
	}
	m.position = msg.Position
	if msg.FramesWritten != 0 {
		m.framesWritten = msg.FramesWritten
	}
	if msg.FramesRead != 0 {
		m.framesRead = msg.FramesRead
	}
}

// Utility functions
func renderBar(value, max, width int) string {
	filled := (value * width) / max
	bar := ""
	for i := 0; i < width; i++ {
		if i < filled {
			bar += "█"
		} else {
			bar += "░"
		}
	}
	return bar
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	if length <= 3 {
		return s[:length]
	}
	return s[:length-3] + "..."
}

func channelName(channels int) string {
	switch channels {
	case 1:
		return "mono"
	case 2:
		return "stereo"
	default:
		return fmt.Sprintf("%dch", channels)
	}
}
