// ABOUTME: Reconnecting stream client
// ABOUTME: Supervises one session at a time and restarts it after a fixed backoff
package stream

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/WiFiAudioLink/wifiaudiolink-go/pkg/jitter"
	log "github.com/sirupsen/logrus"
)

// Stats contains playback statistics across every session of a client
type Stats struct {
	Received       uint64 // frames pushed into jitter buffers
	Played         uint64 // frames written to the sink
	Evicted        uint64 // frames dropped by the jitter buffer
	DecodeFailures uint64
	SinkResets     uint64
	Sessions       uint64 // sessions started
	Reconnects     uint64 // sessions started by the retry loop
	BufferDepth    int    // frames queued in the active session
	State          State
}

// Client owns zero or one active session and keeps it alive.
type Client struct {
	listener Listener
	backoff  time.Duration

	mu       sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
	draining []chan struct{} // loops stopped but not yet unwound
	session  *Session
	config   SessionConfig

	stats      counters
	sessions   atomic.Uint64
	reconnects atomic.Uint64
	finished   jitter.Stats // buffer stats of ended sessions
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithBackoff sets the delay between a failed session and the next attempt.
func WithBackoff(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.backoff = d
		}
	}
}

// NewClient creates a client reporting to listener, which may be nil.
func NewClient(listener Listener, opts ...ClientOption) *Client {
	if listener == nil {
		listener = nopListener{}
	}
	c := &Client{
		listener: listener,
		backoff:  DefaultBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start begins streaming with config. It does nothing if a session is
// already active.
func (c *Client) Start(config SessionConfig) error {
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid session config: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.done = make(chan struct{})
	c.config = config

	go c.supervise(ctx, config, c.done)
	return nil
}

// Stop asks the active session and the retry loop to end and releases
// ownership, so a following Start begins a fresh loop. It does not wait for
// the old loop to unwind and is safe to call from a Listener callback or
// when nothing is running. Use Wait to block until teardown is complete.
func (c *Client) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel == nil {
		return
	}
	c.cancel()
	c.draining = append(c.draining, c.done)
	c.cancel = nil
	c.done = nil
	c.session = nil
}

// Wait blocks until every loop ended by Stop has closed its session and
// sink. Calling it from a Listener callback deadlocks.
func (c *Client) Wait() {
	c.mu.Lock()
	draining := append([]chan struct{}(nil), c.draining...)
	c.mu.Unlock()

	for _, done := range draining {
		<-done
	}
}

// Active reports whether the client owns a running retry loop.
func (c *Client) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancel != nil
}

// Config returns the config passed to the last Start.
func (c *Client) Config() SessionConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.config
}

// State returns the state of the current session, or Idle.
func (c *Client) State() State {
	c.mu.Lock()
	s := c.session
	c.mu.Unlock()
	if s == nil {
		return StateIdle
	}
	return s.State()
}

// Stats returns a snapshot of playback counters.
func (c *Client) Stats() Stats {
	c.mu.Lock()
	s := c.session
	finished := c.finished
	c.mu.Unlock()

	var live jitter.Stats
	state := StateIdle
	if s != nil {
		live = s.BufferStats()
		state = s.State()
	}

	return Stats{
		Received:       finished.Pushed + live.Pushed,
		Played:         c.stats.played.Load(),
		Evicted:        finished.Evicted + live.Evicted,
		DecodeFailures: c.stats.decodeFailures.Load(),
		SinkResets:     c.stats.sinkResets.Load(),
		Sessions:       c.sessions.Load(),
		Reconnects:     c.reconnects.Load(),
		BufferDepth:    live.Depth,
		State:          state,
	}
}

// supervise runs sessions back to back until ctx is cancelled.
func (c *Client) supervise(ctx context.Context, config SessionConfig, done chan struct{}) {
	defer func() {
		c.mu.Lock()
		for i, d := range c.draining {
			if d == done {
				c.draining = append(c.draining[:i], c.draining[i+1:]...)
				break
			}
		}
		c.mu.Unlock()
		close(done)
	}()

	logger := log.WithFields(log.Fields{
		"component": "client",
		"server":    fmt.Sprintf("%s:%d", config.Host, config.Port),
	})

	for attempt := 0; ; attempt++ {
		c.mu.Lock()
		if ctx.Err() != nil {
			c.mu.Unlock()
			return
		}
		session := newSession(config, c.listener, &c.stats)
		c.session = session
		c.mu.Unlock()

		if attempt > 0 {
			c.reconnects.Add(1)
			logger.Infof("Reconnecting (attempt %d)", attempt)
		}
		c.sessions.Add(1)

		err := session.Run(ctx)

		c.mu.Lock()
		bs := session.BufferStats()
		c.finished.Pushed += bs.Pushed
		c.finished.Popped += bs.Popped
		c.finished.Evicted += bs.Evicted
		if c.session == session {
			c.session = nil
		}
		c.mu.Unlock()

		if ctx.Err() != nil {
			// Run reports Idle itself unless the stop raced a failure.
			if session.State() != StateIdle {
				if sl, ok := c.listener.(StateListener); ok {
					sl.OnStateChange(StateIdle)
				}
			}
			return
		}
		if err == nil {
			// Session ended without a fault or a stop request; treat as a
			// dropped stream and retry.
			logger.Warn("session ended unexpectedly")
		}

		logger.WithError(err).Infof("Retrying in %s", c.backoff)
		select {
		case <-ctx.Done():
			if sl, ok := c.listener.(StateListener); ok {
				sl.OnStateChange(StateIdle)
			}
			return
		case <-time.After(c.backoff):
		}
	}
}
