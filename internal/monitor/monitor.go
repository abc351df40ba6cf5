// ABOUTME: HTTP monitor for an external UI
// ABOUTME: Streams lifecycle events over websocket and serves stats and Prometheus metrics
package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/WiFiAudioLink/wifiaudiolink-go/internal/metrics"
	"github.com/WiFiAudioLink/wifiaudiolink-go/pkg/stream"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// Event types sent on /events.
const (
	EventConnected    = "connected"
	EventDisconnected = "disconnected"
	EventError        = "error"
	EventState        = "state"
)

const writeDeadline = 10 * time.Second

// Event is one lifecycle notification as sent to subscribers
type Event struct {
	Type  string    `json:"type"`
	State string    `json:"state,omitempty"`
	Error string    `json:"error,omitempty"`
	Time  time.Time `json:"time"`
}

type subscriber struct {
	id   string
	conn *websocket.Conn
	send chan Event
}

// Monitor fans lifecycle events out to websocket subscribers. It implements
// stream.Listener and stream.StateListener.
type Monitor struct {
	source     metrics.StatsSource
	collector  *metrics.PlayerCollector
	upgrader   websocket.Upgrader
	mux        *http.ServeMux
	httpServer *http.Server

	mu          sync.RWMutex
	subscribers map[string]*subscriber
	wg          sync.WaitGroup
}

// New creates a monitor for source.
func New(source metrics.StatsSource) *Monitor {
	m := &Monitor{
		source:    source,
		collector: metrics.NewPlayerCollector("", source),
		mux:       http.NewServeMux(),
		upgrader: websocket.Upgrader{
			// Local network tool; any origin may watch.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		subscribers: make(map[string]*subscriber),
	}

	m.mux.HandleFunc("/events", m.handleEvents)
	m.mux.HandleFunc("/status", m.handleStatus)
	m.mux.Handle("/metrics", promhttp.HandlerFor(m.collector.Registry(), promhttp.HandlerOpts{}))
	return m
}

// Handler returns the monitor's HTTP routes.
func (m *Monitor) Handler() http.Handler {
	return m.mux
}

// Start listens on addr and serves until Shutdown.
func (m *Monitor) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	m.httpServer = &http.Server{Handler: m.mux, ReadHeaderTimeout: 5 * time.Second}

	log.WithFields(log.Fields{
		"component": "monitor",
		"addr":      ln.Addr().String(),
	}).Info("Monitor listening")

	go func() {
		if err := m.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).WithField("component", "monitor").Error("monitor server failed")
		}
	}()
	return nil
}

// Shutdown stops the HTTP server and disconnects subscribers.
func (m *Monitor) Shutdown(ctx context.Context) error {
	var err error
	if m.httpServer != nil {
		err = m.httpServer.Shutdown(ctx)
	}

	m.mu.Lock()
	for id, sub := range m.subscribers {
		close(sub.send)
		delete(m.subscribers, id)
	}
	m.mu.Unlock()

	m.wg.Wait()
	return err
}

// OnConnected implements stream.Listener
func (m *Monitor) OnConnected() {
	m.broadcast(Event{Type: EventConnected})
}

// OnDisconnected implements stream.Listener
func (m *Monitor) OnDisconnected() {
	m.broadcast(Event{Type: EventDisconnected})
}

// OnError implements stream.Listener
func (m *Monitor) OnError(err error) {
	m.broadcast(Event{Type: EventError, Error: err.Error()})
}

// OnStateChange implements stream.StateListener
func (m *Monitor) OnStateChange(state stream.State) {
	m.broadcast(Event{Type: EventState, State: state.String()})
}

// Subscribers returns the number of connected websocket clients.
func (m *Monitor) Subscribers() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscribers)
}

// broadcast queues ev for every subscriber; slow subscribers miss events.
func (m *Monitor) broadcast(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.subscribers {
		select {
		case sub.send <- ev:
		default:
			log.WithField("subscriber", sub.id[:8]).Debug("monitor subscriber too slow, dropping event")
		}
	}
}

func (m *Monitor) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).WithField("component", "monitor").Warn("websocket upgrade failed")
		return
	}

	sub := &subscriber{
		id:   uuid.New().String(),
		conn: conn,
		send: make(chan Event, 32),
	}

	m.mu.Lock()
	m.subscribers[sub.id] = sub
	m.mu.Unlock()

	m.wg.Add(1)
	go m.writeLoop(sub)

	// Drain client frames so close and pong frames are processed.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	m.mu.Lock()
	if _, ok := m.subscribers[sub.id]; ok {
		close(sub.send)
		delete(m.subscribers, sub.id)
	}
	m.mu.Unlock()
}

func (m *Monitor) writeLoop(sub *subscriber) {
	defer m.wg.Done()
	defer sub.conn.Close()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-sub.send:
			if !ok {
				_ = sub.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(time.Second))
				return
			}
			sub.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := sub.conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			if err := sub.conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeDeadline)); err != nil {
				return
			}
		}
	}
}

// statusResponse is the /status payload
type statusResponse struct {
	State          string `json:"state"`
	Received       uint64 `json:"received"`
	Played         uint64 `json:"played"`
	Evicted        uint64 `json:"evicted"`
	DecodeFailures uint64 `json:"decode_failures"`
	SinkResets     uint64 `json:"sink_resets"`
	Reconnects     uint64 `json:"reconnects"`
	BufferDepth    int    `json:"buffer_depth"`
}

func (m *Monitor) handleStatus(w http.ResponseWriter, r *http.Request) {
	s := m.source.Stats()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(statusResponse{
		State:          s.State.String(),
		Received:       s.Received,
		Played:         s.Played,
		Evicted:        s.Evicted,
		DecodeFailures: s.DecodeFailures,
		SinkResets:     s.SinkResets,
		Reconnects:     s.Reconnects,
		BufferDepth:    s.BufferDepth,
	})
}
