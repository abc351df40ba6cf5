// ABOUTME: Server status view for the companion streaming server
// ABOUTME: Shows name, port, format, source and connected players
package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/WiFiAudioLink/wifiaudiolink-go/pkg/server"
)

// ServerSource is satisfied by *server.Server
type ServerSource interface {
	Clients() []string
	Stats() server.Stats
}

// ServerOptions seeds a server view
type ServerOptions struct {
	Name     string
	Port     int
	Format   string
	Source   string
	Server   ServerSource
	Controls *Controls
}

// ServerModel is the bubbletea model for the server view
type ServerModel struct {
	opts      ServerOptions
	clients   []string
	stats     server.Stats
	startTime time.Time
	quitting  bool
}

// NewServerModel creates a server view model
func NewServerModel(opts ServerOptions) ServerModel {
	return ServerModel{opts: opts, startTime: time.Now()}
}

func (m ServerModel) Init() tea.Cmd {
	return tickEvery()
}

func (m ServerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			m.quitting = true
			m.opts.Controls.signal(m.opts.Controls.quitChan())
			return m, tea.Quit
		}
	case tickMsg:
		if m.opts.Server != nil {
			m.clients = m.opts.Server.Clients()
			m.stats = m.opts.Server.Stats()
		}
		return m, tickEvery()
	}
	return m, nil
}

func (m ServerModel) View() string {
	if m.quitting {
		return "Shutting down server...\n"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("WiFiAudioLink Server"))
	b.WriteString("\n\n")

	field(&b, "Server", m.opts.Name)
	field(&b, "Port", fmt.Sprintf("%d", m.opts.Port))
	field(&b, "Format", m.opts.Format)
	field(&b, "Playing", m.opts.Source)
	field(&b, "Uptime", time.Since(m.startTime).Round(time.Second).String())
	field(&b, "Chunks", fmt.Sprintf("%d sent  %d dropped  %d raw fallback  %d denied",
		m.stats.Chunks, m.stats.Dropped, m.stats.Fallback, m.stats.Denied))
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render(fmt.Sprintf("Connected Players (%d)", len(m.clients))))
	b.WriteString("\n")
	if len(m.clients) == 0 {
		b.WriteString(valueStyle.Render("  No players connected"))
		b.WriteString("\n")
	}
	for _, id := range m.clients {
		b.WriteString(fmt.Sprintf("  • %s\n", id))
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("Press 'q' or Ctrl+C to quit"))
	return b.String()
}
