// ABOUTME: TUI initialization and control
// ABOUTME: Wraps bubbletea programs and bridges stream events into them
package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/WiFiAudioLink/wifiaudiolink-go/pkg/stream"
)

// Controls carries key presses from the TUI back to the caller
type Controls struct {
	Reconnect chan struct{}
	Quit      chan struct{}
}

// NewControls creates a new control handler
func NewControls() *Controls {
	return &Controls{
		Reconnect: make(chan struct{}, 1),
		Quit:      make(chan struct{}, 1),
	}
}

func (c *Controls) reconnectChan() chan struct{} {
	if c == nil {
		return nil
	}
	return c.Reconnect
}

func (c *Controls) quitChan() chan struct{} {
	if c == nil {
		return nil
	}
	return c.Quit
}

// signal never blocks; a pending signal absorbs repeats.
func (c *Controls) signal(ch chan struct{}) {
	if ch == nil {
		return
	}
	select {
	case ch <- struct{}{}:
	default:
	}
}

// Sender is satisfied by *tea.Program
type Sender interface {
	Send(msg tea.Msg)
}

// Bridge forwards stream lifecycle events to a running program. It
// implements stream.Listener and stream.StateListener.
type Bridge struct {
	Program Sender
}

func (b Bridge) OnConnected()    {}
func (b Bridge) OnDisconnected() {}

func (b Bridge) OnError(err error) {
	b.Program.Send(ErrorMsg{Err: err})
}

func (b Bridge) OnStateChange(state stream.State) {
	b.Program.Send(StateMsg(state))
}

// NewPlayer creates the player program
func NewPlayer(opts Options) *tea.Program {
	return tea.NewProgram(NewModel(opts), tea.WithAltScreen())
}

// NewServer creates the server status program
func NewServer(opts ServerOptions) *tea.Program {
	return tea.NewProgram(NewServerModel(opts), tea.WithAltScreen())
}
