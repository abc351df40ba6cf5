// ABOUTME: Stream session state machine
// ABOUTME: One connect, authenticate and stream attempt running reader and pump together
package stream

import (
	"context"
	"fmt"
	"sync"

	"github.com/WiFiAudioLink/wifiaudiolink-go/pkg/audio/decode"
	"github.com/WiFiAudioLink/wifiaudiolink-go/pkg/jitter"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Session runs one connection attempt. Create it with NewSession, drive it
// with Run and end it early with Stop.
type Session struct {
	id       string
	config   SessionConfig
	listener Listener
	stats    *counters
	logger   *log.Entry

	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	state State
	err   error
	buf   *jitter.Buffer
}

// NewSession creates an idle session. listener may be nil.
func NewSession(config SessionConfig, listener Listener) *Session {
	return newSession(config, listener, &counters{})
}

func newSession(config SessionConfig, listener Listener, stats *counters) *Session {
	if listener == nil {
		listener = nopListener{}
	}
	config = config.withDefaults()
	id := uuid.New().String()
	ctx, cancel := context.WithCancel(context.Background())

	return &Session{
		id:       id,
		config:   config,
		listener: listener,
		stats:    stats,
		ctx:      ctx,
		cancel:   cancel,
		state:    StateIdle,
		logger: log.WithFields(log.Fields{
			"component": "session",
			"session":   id[:8],
			"server":    fmt.Sprintf("%s:%d", config.Host, config.Port),
		}),
	}
}

// ID returns the session identifier used in logs and events.
func (s *Session) ID() string {
	return s.id
}

// State returns the current connection state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the failure reason once the session is Failed.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// BufferStats returns the jitter buffer counters, zero before streaming.
func (s *Session) BufferStats() jitter.Stats {
	s.mu.Lock()
	buf := s.buf
	s.mu.Unlock()
	if buf == nil {
		return jitter.Stats{}
	}
	return buf.Stats()
}

// Stop asks the session to end without an error reason. Safe to call at
// any time and more than once.
func (s *Session) Stop() {
	s.cancel()
}

func (s *Session) stopped() bool {
	return s.ctx.Err() != nil
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()

	s.logger.Debugf("state -> %s", state)
	if sl, ok := s.listener.(StateListener); ok {
		sl.OnStateChange(state)
	}
}

// fail records reason and moves to Failed.
func (s *Session) fail(reason error) error {
	s.mu.Lock()
	s.err = reason
	s.mu.Unlock()

	s.logger.WithError(reason).Warn("session failed")
	s.setState(StateFailed)
	s.listener.OnError(reason)
	return reason
}

// Run connects, authenticates and streams until a fault or Stop. It returns
// nil when stopped intentionally and the failure reason otherwise.
func (s *Session) Run(ctx context.Context) error {
	// Parent cancellation stops the session like Stop does.
	stopOnParent := context.AfterFunc(ctx, s.cancel)
	defer stopOnParent()
	defer s.cancel()

	cfg := s.config
	format := cfg.Format()

	s.setState(StateConnecting)
	s.logger.Info("Connecting")

	var decoder decode.Decoder
	if format.Compressed() {
		d, err := cfg.NewDecoder(format)
		if err != nil {
			return s.fail(fmt.Errorf("%w: %w", ErrDecodeFailed, err))
		}
		decoder = d
		defer decoder.Close()
	}

	reader, err := Dial(s.ctx, cfg.Host, cfg.Port, cfg.ConnectTimeout)
	if err != nil {
		if s.stopped() {
			s.setState(StateIdle)
			return nil
		}
		return s.fail(err)
	}
	defer reader.Close()

	// Closing the socket is the only way to interrupt a blocked read.
	unblock := context.AfterFunc(s.ctx, func() { reader.Close() })
	defer unblock()

	if cfg.Credential != "" {
		s.setState(StateAuthenticating)
		if err := reader.Authenticate(cfg.Credential, cfg.AuthTimeout); err != nil {
			if s.stopped() {
				s.setState(StateIdle)
				return nil
			}
			return s.fail(err)
		}
	}

	buf := jitter.New(cfg.BufferCapacity)
	s.mu.Lock()
	s.buf = buf
	s.mu.Unlock()

	pump := NewPump(buf, format, decoder, cfg.Output, cfg.PollInterval)
	pump.stats = s.stats
	pump.logger = s.logger.WithField("component", "pump")

	s.setState(StateStreaming)
	s.logger.WithField("codec", format.Codec).Info("Streaming")
	s.listener.OnConnected()

	g, gctx := errgroup.WithContext(s.ctx)
	closeOnFault := context.AfterFunc(gctx, func() { reader.Close() })
	defer closeOnFault()

	g.Go(func() error { return reader.Run(gctx, buf) })
	g.Go(func() error { return pump.Run(gctx) })

	runErr := g.Wait()

	s.setState(StateDisconnecting)
	reader.Close()
	s.listener.OnDisconnected()

	if runErr == nil {
		s.logger.Info("Disconnected")
		s.setState(StateIdle)
		return nil
	}
	return s.fail(runErr)
}
