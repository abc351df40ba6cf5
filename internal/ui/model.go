// ABOUTME: Bubbletea model for player TUI
// ABOUTME: Shows connection state, stream format, buffer stats and discovered servers
package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/WiFiAudioLink/wifiaudiolink-go/pkg/audio"
	"github.com/WiFiAudioLink/wifiaudiolink-go/pkg/discovery"
	"github.com/WiFiAudioLink/wifiaudiolink-go/pkg/stream"
)

// refreshInterval is how often stats are re-read
const refreshInterval = 500 * time.Millisecond

// Model represents the TUI state
type Model struct {
	// Connection
	state   stream.State
	server  string
	lastErr string

	// Stream
	format   audio.Format
	capacity int

	// Stats
	stats     stream.Stats
	statsFunc func() stream.Stats

	servers []discovery.ServerRecord

	controls  *Controls
	showDebug bool
	quitting  bool

	// Dimensions
	width  int
	height int
}

// Options seeds a new player model
type Options struct {
	Server   string
	Format   audio.Format
	Capacity int // jitter buffer frames
	Stats    func() stream.Stats
	Controls *Controls
}

// NewModel creates a new TUI model
func NewModel(opts Options) Model {
	return Model{
		state:     stream.StateIdle,
		server:    opts.Server,
		format:    opts.Format,
		capacity:  opts.Capacity,
		statsFunc: opts.Stats,
		controls:  opts.Controls,
	}
}

type tickMsg time.Time

func tickEvery() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tickEvery()
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tickMsg:
		if m.statsFunc != nil {
			m.stats = m.statsFunc()
		}
		return m, tickEvery()
	case StateMsg:
		m.state = stream.State(msg)
		if m.state == stream.StateStreaming {
			m.lastErr = ""
		}
	case ErrorMsg:
		if msg.Err != nil {
			m.lastErr = msg.Err.Error()
		}
	case ServerMsg:
		m.addServer(discovery.ServerRecord(msg))
	case StatusMsg:
		m.applyStatus(msg)
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.quitting {
		return "Stopping player...\n"
	}
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("WiFiAudioLink Player"))
	b.WriteString("\n\n")
	m.renderConnection(&b)
	m.renderStats(&b)
	m.renderServers(&b)
	if m.showDebug {
		m.renderDebug(&b)
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("r:Reconnect  d:Debug  q:Quit"))
	return b.String()
}

func field(b *strings.Builder, name, value string) {
	b.WriteString(headerStyle.Render(name + ": "))
	b.WriteString(valueStyle.Render(value))
	b.WriteString("\n")
}

func (m Model) renderConnection(b *strings.Builder) {
	b.WriteString(headerStyle.Render("State: "))
	b.WriteString(stateStyle(m.state).Render(m.state.String()))
	b.WriteString("\n")

	server := m.server
	if server == "" {
		server = "(discovering)"
	}
	field(b, "Server", server)

	if m.format.Codec != "" {
		field(b, "Format", fmt.Sprintf("%s %dHz %s", m.format.Codec, m.format.SampleRate, channelName(m.format.Channels)))
	}
	if m.lastErr != "" {
		b.WriteString(errorStyle.Render("Error: " + truncate(m.lastErr, 60)))
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func (m Model) renderStats(b *strings.Builder) {
	b.WriteString(sectionStyle.Render("Buffer"))
	b.WriteString("\n")
	capacity := m.capacity
	if capacity <= 0 {
		capacity = 1
	}
	depth := m.stats.BufferDepth
	if depth > capacity {
		depth = capacity
	}
	field(b, "  Depth", fmt.Sprintf("[%s] %d/%d frames", renderBar(depth, capacity, 12), m.stats.BufferDepth, m.capacity))
	field(b, "  Frames", fmt.Sprintf("RX %d  Played %d  Evicted %d", m.stats.Received, m.stats.Played, m.stats.Evicted))
	field(b, "  Faults", fmt.Sprintf("Decode %d  Sink resets %d  Reconnects %d",
		m.stats.DecodeFailures, m.stats.SinkResets, m.stats.Reconnects))
	b.WriteString("\n")
}

func (m Model) renderServers(b *strings.Builder) {
	b.WriteString(sectionStyle.Render(fmt.Sprintf("Discovered Servers (%d)", len(m.servers))))
	b.WriteString("\n")
	if len(m.servers) == 0 {
		b.WriteString(valueStyle.Render("  None yet"))
		b.WriteString("\n")
		return
	}
	for _, rec := range m.servers {
		lock := ""
		if rec.Credential != "" {
			lock = " (password)"
		}
		b.WriteString(fmt.Sprintf("  • %s", truncate(rec.Name, 32)))
		b.WriteString(valueStyle.Render(fmt.Sprintf(" %s%s", rec.Key(), lock)))
		b.WriteString("\n")
	}
}

func (m Model) renderDebug(b *strings.Builder) {
	b.WriteString("\n")
	b.WriteString(sectionStyle.Render("Debug"))
	b.WriteString("\n")
	field(b, "  Sessions", fmt.Sprintf("%d", m.stats.Sessions))
	field(b, "  Window", fmt.Sprintf("%dx%d", m.width, m.height))
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		m.controls.signal(m.controls.quitChan())
		return m, tea.Quit
	case "r":
		m.controls.signal(m.controls.reconnectChan())
	case "d":
		m.showDebug = !m.showDebug
	}

	return m, nil
}

func (m *Model) addServer(rec discovery.ServerRecord) {
	for _, known := range m.servers {
		if known.Key() == rec.Key() {
			return
		}
	}
	m.servers = append(m.servers, rec)
}

// applyStatus updates model from status message
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.Server != "" {
		m.server = msg.Server
	}
	if msg.Format.Codec != "" {
		m.format = msg.Format
	}
	if msg.Capacity > 0 {
		m.capacity = msg.Capacity
	}
}

// StateMsg reports a connection state change
type StateMsg stream.State

// ErrorMsg reports a session failure
type ErrorMsg struct{ Err error }

// ServerMsg reports a discovered server
type ServerMsg discovery.ServerRecord

// StatusMsg updates the connection target
type StatusMsg struct {
	Server   string
	Format   audio.Format
	Capacity int
}

// Utility functions
func renderBar(value, max, width int) string {
	if max <= 0 {
		return strings.Repeat("░", width)
	}
	filled := (value * width) / max
	var bar strings.Builder
	for i := 0; i < width; i++ {
		if i < filled {
			bar.WriteString("█")
		} else {
			bar.WriteString("░")
		}
	}
	return bar.String()
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}

func channelName(channels int) string {
	if channels == 1 {
		return "Mono"
	}
	return "Stereo"
}
