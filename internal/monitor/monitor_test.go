// ABOUTME: Tests for the HTTP monitor
// ABOUTME: Verifies websocket event delivery, status JSON and metrics exposure
package monitor

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/WiFiAudioLink/wifiaudiolink-go/pkg/stream"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedStats struct{ s stream.Stats }

func (f fixedStats) Stats() stream.Stats { return f.s }

func TestMonitorImplementsListeners(t *testing.T) {
	var _ stream.Listener = (*Monitor)(nil)
	var _ stream.StateListener = (*Monitor)(nil)
}

func TestEventsWebsocket(t *testing.T) {
	m := New(fixedStats{})
	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return m.Subscribers() == 1 }, time.Second, time.Millisecond)

	m.OnStateChange(stream.StateConnecting)
	m.OnConnected()
	m.OnError(errors.New("stream closed: EOF"))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got []Event
	for i := 0; i < 3; i++ {
		var ev Event
		require.NoError(t, conn.ReadJSON(&ev))
		got = append(got, ev)
	}

	assert.Equal(t, EventState, got[0].Type)
	assert.Equal(t, "connecting", got[0].State)
	assert.Equal(t, EventConnected, got[1].Type)
	assert.Equal(t, EventError, got[2].Type)
	assert.Equal(t, "stream closed: EOF", got[2].Error)
	assert.False(t, got[2].Time.IsZero())
}

func TestSubscriberRemovedOnClose(t *testing.T) {
	m := New(fixedStats{})
	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return m.Subscribers() == 1 }, time.Second, time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return m.Subscribers() == 0 }, 2*time.Second, 5*time.Millisecond)

	// Broadcasting with no subscribers is a no-op.
	m.OnDisconnected()
}

func TestStatusEndpoint(t *testing.T) {
	m := New(fixedStats{s: stream.Stats{Received: 7, Played: 6, Reconnects: 1, State: stream.StateStreaming}})
	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()

	var status statusResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Equal(t, "streaming", status.State)
	assert.Equal(t, uint64(7), status.Received)
	assert.Equal(t, uint64(1), status.Reconnects)
}

func TestMetricsEndpoint(t *testing.T) {
	m := New(fixedStats{s: stream.Stats{SinkResets: 4}})
	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "wifiaudiolink_player_sink_resets_total 4")
}
