// ABOUTME: Tests for TUI model and state management
// ABOUTME: Tests state updates, key handling, stats refresh and rendering
package ui

import (
	"errors"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WiFiAudioLink/wifiaudiolink-go/pkg/audio"
	"github.com/WiFiAudioLink/wifiaudiolink-go/pkg/discovery"
	"github.com/WiFiAudioLink/wifiaudiolink-go/pkg/server"
	"github.com/WiFiAudioLink/wifiaudiolink-go/pkg/stream"
)

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m tea.Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)
	return model
}

func TestNewModel(t *testing.T) {
	model := NewModel(Options{Server: "10.0.0.2:8765", Capacity: 12})

	assert.Equal(t, stream.StateIdle, model.state)
	assert.Equal(t, "10.0.0.2:8765", model.server)
	assert.False(t, model.showDebug)
	assert.Equal(t, "Loading...", model.View())
}

func TestStateAndErrorMessages(t *testing.T) {
	model := NewModel(Options{})

	model = update(t, model, ErrorMsg{Err: errors.New("connection refused")})
	model = update(t, model, StateMsg(stream.StateFailed))
	assert.Equal(t, stream.StateFailed, model.state)
	assert.Equal(t, "connection refused", model.lastErr)

	model = update(t, model, StateMsg(stream.StateStreaming))
	assert.Equal(t, stream.StateStreaming, model.state)
	assert.Empty(t, model.lastErr)
}

func TestServerMessagesAreDeduplicated(t *testing.T) {
	model := NewModel(Options{})
	rec := discovery.ServerRecord{Address: "10.0.0.5", Port: 8765, Name: "Den"}

	model = update(t, model, ServerMsg(rec))
	model = update(t, model, ServerMsg(rec))
	rec.Port = 8767
	model = update(t, model, ServerMsg(rec))

	assert.Len(t, model.servers, 2)
}

func TestStatusMsg(t *testing.T) {
	model := NewModel(Options{})
	format := audio.Format{Codec: audio.CodecOpus, SampleRate: 48000, Channels: 2}

	model = update(t, model, StatusMsg{Server: "Den", Format: format, Capacity: 20})
	assert.Equal(t, "Den", model.server)
	assert.Equal(t, format, model.format)
	assert.Equal(t, 20, model.capacity)

	model = update(t, model, StatusMsg{})
	assert.Equal(t, "Den", model.server)
}

func TestTickRefreshesStats(t *testing.T) {
	model := NewModel(Options{Stats: func() stream.Stats {
		return stream.Stats{Received: 10, Played: 8, BufferDepth: 2}
	}})

	next, cmd := model.Update(tickMsg(time.Now()))
	assert.NotNil(t, cmd)
	assert.Equal(t, uint64(10), next.(Model).stats.Received)
}

func TestKeys(t *testing.T) {
	controls := NewControls()
	model := NewModel(Options{Controls: controls})

	model = update(t, model, key("d"))
	assert.True(t, model.showDebug)

	model = update(t, model, key("r"))
	model = update(t, model, key("r"))
	assert.Len(t, controls.Reconnect, 1)

	next, cmd := model.Update(key("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.True(t, next.(Model).quitting)
	assert.Len(t, controls.Quit, 1)
}

func TestKeysWithoutControls(t *testing.T) {
	model := NewModel(Options{})
	assert.NotPanics(t, func() {
		model = update(t, model, key("r"))
		model.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	})
}

func TestView(t *testing.T) {
	model := NewModel(Options{
		Server:   "Den (10.0.0.5:8765)",
		Format:   audio.Format{Codec: audio.CodecRaw, SampleRate: 48000, Channels: 1},
		Capacity: 12,
		Stats: func() stream.Stats {
			return stream.Stats{Received: 42, Played: 40, Evicted: 1, Reconnects: 3, BufferDepth: 6}
		},
	})
	model = update(t, model, tea.WindowSizeMsg{Width: 80, Height: 24})
	model = update(t, model, tickMsg(time.Now()))
	model = update(t, model, StateMsg(stream.StateStreaming))
	model = update(t, model, ServerMsg(discovery.ServerRecord{Address: "10.0.0.5", Port: 8765, Name: "Den", Credential: "x"}))

	view := model.View()
	assert.Contains(t, view, "WiFiAudioLink Player")
	assert.Contains(t, view, "streaming")
	assert.Contains(t, view, "raw 48000Hz Mono")
	assert.Contains(t, view, "6/12 frames")
	assert.Contains(t, view, "RX 42")
	assert.Contains(t, view, "Reconnects 3")
	assert.Contains(t, view, "10.0.0.5:8765 (password)")
}

func TestRenderBar(t *testing.T) {
	assert.Equal(t, "██░░", renderBar(2, 4, 4))
	assert.Equal(t, "░░░░", renderBar(0, 4, 4))
	assert.Equal(t, "░░", renderBar(1, 0, 2))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}

type recordingSender struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (r *recordingSender) Send(msg tea.Msg) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

func TestBridge(t *testing.T) {
	sender := &recordingSender{}
	var listener stream.Listener = Bridge{Program: sender}

	listener.OnConnected()
	listener.OnDisconnected()
	listener.OnError(stream.ErrStreamClosed)
	listener.(stream.StateListener).OnStateChange(stream.StateConnecting)

	assert.Equal(t, []tea.Msg{ErrorMsg{Err: stream.ErrStreamClosed}, StateMsg(stream.StateConnecting)}, sender.msgs)
}

type fakeServer struct{}

func (fakeServer) Clients() []string { return []string{"a1", "b2"} }
func (fakeServer) Stats() server.Stats {
	return server.Stats{Clients: 2, Chunks: 100, Dropped: 4}
}

func TestServerModel(t *testing.T) {
	controls := NewControls()
	model := NewServerModel(ServerOptions{
		Name:     "Den",
		Port:     8765,
		Format:   "raw 48000Hz 2ch",
		Source:   "Test Tone 440 Hz",
		Server:   fakeServer{},
		Controls: controls,
	})

	next, cmd := model.Update(tickMsg(time.Now()))
	assert.NotNil(t, cmd)
	view := next.View()
	assert.Contains(t, view, "WiFiAudioLink Server")
	assert.Contains(t, view, "Connected Players (2)")
	assert.Contains(t, view, "100 sent  4 dropped")
	assert.Contains(t, view, "Test Tone 440 Hz")

	next, _ = next.Update(key("q"))
	assert.Equal(t, "Shutting down server...\n", next.View())
	assert.Len(t, controls.Quit, 1)
}
