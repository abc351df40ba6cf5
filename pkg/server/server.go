// ABOUTME: TCP streaming server with password handshake
// ABOUTME: Paces a source, encodes chunks and writes length-prefixed frames
package server

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/WiFiAudioLink/wifiaudiolink-go/pkg/audio"
	"github.com/WiFiAudioLink/wifiaudiolink-go/pkg/audio/encode"
	"github.com/WiFiAudioLink/wifiaudiolink-go/pkg/discovery"
	"github.com/WiFiAudioLink/wifiaudiolink-go/pkg/server/source"
)

var (
	replyOK     = []byte("OK")
	replyDenied = []byte("DENIED")

	// ErrAlreadyListening is returned by Listen on a bound server
	ErrAlreadyListening = errors.New("server already listening")
)

// Stats is a snapshot of server counters
type Stats struct {
	Clients  int
	Chunks   uint64 // chunks produced by the pacing loop
	Dropped  uint64 // per-player frames dropped for slow players
	Fallback uint64 // chunks sent as raw PCM after an encode failure
	Denied   uint64 // players rejected by the handshake
}

// Server streams one source to any number of players
type Server struct {
	config   Config
	serverID string
	logger   *log.Entry

	hub     *hub
	encoder encode.Encoder
	source  source.Source
	frames  int // PCM frames per chunk

	mu       sync.Mutex
	listener net.Listener

	chunks   atomic.Uint64
	fallback atomic.Uint64
	denied   atomic.Uint64
}

// New creates a server. The encoder and source are created here so format
// problems surface before anything binds.
func New(config Config) (*Server, error) {
	config = config.withDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	enc, err := encode.New(config.Format)
	if err != nil {
		return nil, fmt.Errorf("failed to create encoder: %w", err)
	}

	frames := config.ChunkFrames
	if opus, ok := enc.(*encode.OpusEncoder); ok {
		frames = opus.FrameSize()
	}

	src := config.Source
	if src == nil {
		src = source.NewTone(source.DefaultToneHz, config.Format.SampleRate, config.Format.Channels)
	}

	id := uuid.New().String()
	return &Server{
		config:   config,
		serverID: id,
		logger: log.WithFields(log.Fields{
			"component": "server",
			"server":    config.Name,
		}),
		hub:     newHub(),
		encoder: enc,
		source:  source.Fit(src, config.Format),
		frames:  frames,
	}, nil
}

// ID returns the unique server instance id
func (s *Server) ID() string {
	return s.serverID
}

// Config returns the effective configuration
func (s *Server) Config() Config {
	return s.config
}

// ChunkDuration is the playback time covered by one chunk
func (s *Server) ChunkDuration() time.Duration {
	return time.Duration(s.frames) * time.Second / time.Duration(s.config.Format.SampleRate)
}

// Listen binds the TCP data port. Run calls it when needed.
func (s *Server) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return ErrAlreadyListening
	}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.config.Port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", s.config.Port, err)
	}
	s.listener = ln
	return nil
}

// Addr returns the bound data address, or nil before Listen
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Port returns the bound data port, or the configured port before Listen
func (s *Server) Port() int {
	if addr, ok := s.Addr().(*net.TCPAddr); ok {
		return addr.Port
	}
	return s.config.Port
}

// Clients returns the ids of connected players
func (s *Server) Clients() []string {
	ids := s.hub.ids()
	sort.Strings(ids)
	return ids
}

// Stats returns a snapshot of server counters
func (s *Server) Stats() Stats {
	return Stats{
		Clients:  s.hub.count(),
		Chunks:   s.chunks.Load(),
		Dropped:  s.hub.dropped.Load(),
		Fallback: s.fallback.Load(),
		Denied:   s.denied.Load(),
	}
}

// Run serves until ctx is done. It closes the listener, source and encoder
// on return.
func (s *Server) Run(ctx context.Context) error {
	if s.Addr() == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}
	defer s.encoder.Close()
	defer s.source.Close()

	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()

	s.logger.WithFields(log.Fields{
		"id":     s.serverID,
		"addr":   ln.Addr().String(),
		"format": s.config.Format.String(),
		"source": s.source.Name(),
	}).Info("Server starting")

	if s.config.MDNS {
		adv, err := discovery.Advertise(s.config.Name, s.Port(), s.config.Password)
		if err != nil {
			s.logger.WithError(err).Warn("Failed to start mDNS advertisement")
		} else {
			defer adv.Shutdown()
		}
	}

	g, ctx := errgroup.WithContext(ctx)

	var conns sync.WaitGroup
	g.Go(func() error {
		<-ctx.Done()
		return ln.Close()
	})
	g.Go(func() error {
		return s.acceptLoop(ctx, ln, &conns)
	})
	g.Go(func() error {
		return s.paceLoop(ctx)
	})
	if s.config.Announce {
		target := s.config.AnnounceTarget
		if target == nil {
			target = &net.UDPAddr{IP: net.IPv4bcast, Port: s.config.DiscoveryPort}
		}
		b := &discovery.Broadcaster{
			Name:       s.config.Name,
			Port:       s.Port(),
			Credential: s.config.Password,
			Interval:   s.config.AnnounceInterval,
			Target:     target,
		}
		g.Go(func() error {
			return b.Run(ctx)
		})
	}

	err := g.Wait()
	conns.Wait()

	s.mu.Lock()
	s.listener = nil
	s.mu.Unlock()

	s.logger.Info("Server stopped")
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener, conns *sync.WaitGroup) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accept failed: %w", err)
		}

		conns.Add(1)
		go func() {
			defer conns.Done()
			s.handleConn(ctx, conn)
		}()
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	id := uuid.New().String()
	logger := s.logger.WithFields(log.Fields{
		"client": id,
		"remote": conn.RemoteAddr().String(),
	})
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if s.config.Password != "" {
		if !s.authenticate(conn) {
			s.denied.Add(1)
			logger.Warn("Player denied")
			return
		}
	}

	if tcp, ok := conn.(*net.TCPConn); ok {
		_ = tcp.SetNoDelay(true)
	}

	sub := s.hub.subscribe(id)
	defer s.hub.unsubscribe(sub)
	logger.Info("Player connected")

	if err := s.writeLoop(ctx, conn, sub); err != nil && ctx.Err() == nil {
		logger.WithError(err).Info("Player disconnected")
		return
	}
	logger.Debug("Player connection closed")
}

// authenticate reads one password message and answers OK or DENIED.
func (s *Server) authenticate(conn net.Conn) bool {
	_ = conn.SetDeadline(time.Now().Add(s.config.AuthTimeout))
	defer conn.SetDeadline(time.Time{})

	buf := make([]byte, maxAuthMessage)
	n, err := conn.Read(buf)
	if err != nil || n == 0 {
		return false
	}

	if string(bytes.TrimSpace(buf[:n])) != s.config.Password {
		_, _ = conn.Write(replyDenied)
		return false
	}
	_, err = conn.Write(replyOK)
	return err == nil
}

func (s *Server) writeLoop(ctx context.Context, conn net.Conn, sub *subscriber) error {
	writeTimeout := 4 * s.ChunkDuration()
	if writeTimeout < time.Second {
		writeTimeout = time.Second
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-sub.done:
			return nil
		case frame := <-sub.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if _, err := conn.Write(frame); err != nil {
				return err
			}
		}
	}
}

// paceLoop reads one chunk per chunk duration, encodes it and publishes the
// framed payload.
func (s *Server) paceLoop(ctx context.Context) error {
	pcm := make([]int16, s.frames*s.config.Format.Channels)
	ticker := time.NewTicker(s.ChunkDuration())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		n, err := s.source.Read(pcm)
		if err != nil {
			return fmt.Errorf("source read failed: %w", err)
		}
		if n == 0 {
			continue
		}
		s.chunks.Add(1)

		if s.hub.count() == 0 {
			continue
		}
		s.hub.publish(s.frame(pcm[:n]))
	}
}

// frame encodes one chunk and prepends the big-endian length. An encode
// failure sends the chunk as raw PCM instead.
func (s *Server) frame(pcm []int16) []byte {
	payload, err := s.encoder.Encode(pcm)
	if err != nil || len(payload) > maxFrame {
		s.fallback.Add(1)
		s.logger.WithError(err).Debug("encode failed, sending raw PCM")
		payload = audio.Int16ToBytes(pcm)
	}

	out := make([]byte, 2+len(payload))
	binary.BigEndian.PutUint16(out, uint16(len(payload)))
	copy(out[2:], payload)
	return out
}
