// ABOUTME: Tests for the session state machine
// ABOUTME: Drives sessions against fake servers and checks states and events
package stream

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/WiFiAudioLink/wifiaudiolink-go/pkg/audio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(port int, sinks *recordingSinks) SessionConfig {
	return SessionConfig{
		Host:         "127.0.0.1",
		Port:         port,
		Codec:        audio.CodecRaw,
		SampleRate:   48000,
		Channels:     2,
		PollInterval: 5 * time.Millisecond,
		AuthTimeout:  500 * time.Millisecond,
		Output:       sinks.opener(),
	}
}

func runSession(s *Session) chan error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(context.Background()) }()
	return errCh
}

func waitErr(t *testing.T, errCh chan error) error {
	t.Helper()
	select {
	case err := <-errCh:
		return err
	case <-time.After(3 * time.Second):
		t.Fatal("session did not finish")
		return nil
	}
}

func TestSession_DeniedNeverStreams(t *testing.T) {
	srv := newFakeServer(t, func(conn net.Conn) {
		acceptCredential(conn, "right")
	})
	sinks := &recordingSinks{}
	l := &recordingListener{}

	cfg := testConfig(srv.port, sinks)
	cfg.Credential = "wrong"
	s := NewSession(cfg, l)

	err := waitErr(t, runSession(s))
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
	assert.Equal(t, StateFailed, s.State())
	assert.ErrorIs(t, s.Err(), ErrAuthenticationFailed)

	assert.Equal(t, []State{StateConnecting, StateAuthenticating, StateFailed}, l.States())
	assert.NotContains(t, l.States(), StateStreaming)
	assert.Equal(t, 0, l.Connected())
	assert.Len(t, l.Errors(), 1)
	assert.Equal(t, 0, sinks.Opens())
}

func TestSession_AuthenticatedStreamThenStop(t *testing.T) {
	release := make(chan struct{})
	srv := newFakeServer(t, func(conn net.Conn) {
		if !acceptCredential(conn, "secret") {
			return
		}
		for _, p := range []string{"f1", "f2", "f3"} {
			conn.Write(encodeFrame([]byte(p)))
		}
		<-release
	})
	defer close(release)

	sinks := &recordingSinks{}
	l := &recordingListener{}
	cfg := testConfig(srv.port, sinks)
	cfg.Credential = "secret"
	s := NewSession(cfg, l)
	errCh := runSession(s)

	require.Eventually(t, func() bool { return len(sinks.Written()) == 3 }, 2*time.Second, time.Millisecond)
	assert.Equal(t, StateStreaming, s.State())
	assert.Equal(t, uint64(3), s.BufferStats().Pushed)

	s.Stop()
	assert.NoError(t, waitErr(t, errCh))

	assert.Equal(t, []string{"f1", "f2", "f3"}, sinks.Written())
	assert.Equal(t, StateIdle, s.State())
	assert.Nil(t, s.Err())
	assert.Equal(t, []State{
		StateConnecting, StateAuthenticating, StateStreaming, StateDisconnecting, StateIdle,
	}, l.States())
	assert.Equal(t, 1, l.Connected())
	assert.Equal(t, 1, l.Disconnected())
	assert.Empty(t, l.Errors())
}

func TestSession_NoCredentialSkipsHandshake(t *testing.T) {
	srv := newFakeServer(t, func(conn net.Conn) {
		conn.Write(encodeFrame([]byte("pcm")))
	})
	sinks := &recordingSinks{}
	l := &recordingListener{}
	s := NewSession(testConfig(srv.port, sinks), l)

	err := waitErr(t, runSession(s))
	assert.ErrorIs(t, err, ErrStreamClosed)
	assert.NotContains(t, l.States(), StateAuthenticating)
	assert.Contains(t, l.States(), StateStreaming)
}

func TestSession_PeerCloseFails(t *testing.T) {
	srv := newFakeServer(t, func(conn net.Conn) {
		conn.Write(encodeFrame([]byte("ok")))
		conn.Write([]byte{0, 50, 1, 2, 3})
	})
	sinks := &recordingSinks{}
	l := &recordingListener{}
	s := NewSession(testConfig(srv.port, sinks), l)

	err := waitErr(t, runSession(s))
	assert.ErrorIs(t, err, ErrStreamClosed)
	assert.Equal(t, StateFailed, s.State())

	states := l.States()
	assert.Equal(t, []State{StateConnecting, StateStreaming, StateDisconnecting, StateFailed}, states)
	assert.Equal(t, 1, l.Connected())
	assert.Equal(t, 1, l.Disconnected())
	require.Len(t, l.Errors(), 1)
	assert.ErrorIs(t, l.Errors()[0], ErrStreamClosed)
}

func TestSession_ConnectFailed(t *testing.T) {
	l := &recordingListener{}
	s := NewSession(testConfig(closedPort(t), &recordingSinks{}), l)

	err := waitErr(t, runSession(s))
	assert.ErrorIs(t, err, ErrConnectFailed)
	assert.Equal(t, []State{StateConnecting, StateFailed}, l.States())
}

func TestSession_StopUnblocksAuthentication(t *testing.T) {
	release := make(chan struct{})
	srv := newFakeServer(t, func(conn net.Conn) {
		<-release
	})
	defer close(release)

	l := &recordingListener{}
	cfg := testConfig(srv.port, &recordingSinks{})
	cfg.Credential = "pw"
	cfg.AuthTimeout = 10 * time.Second
	s := NewSession(cfg, l)
	errCh := runSession(s)

	require.Eventually(t, func() bool { return s.State() == StateAuthenticating }, time.Second, time.Millisecond)
	s.Stop()

	assert.NoError(t, waitErr(t, errCh))
	assert.Equal(t, StateIdle, s.State())
	assert.Empty(t, l.Errors())
}

func TestSession_ParentContextStops(t *testing.T) {
	release := make(chan struct{})
	srv := newFakeServer(t, func(conn net.Conn) {
		<-release
	})
	defer close(release)

	s := NewSession(testConfig(srv.port, &recordingSinks{}), nil)
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return s.State() == StateStreaming }, time.Second, time.Millisecond)
	cancel()

	assert.NoError(t, waitErr(t, errCh))
	assert.Equal(t, StateIdle, s.State())
}

func TestSession_DecoderErrorFails(t *testing.T) {
	cfg := testConfig(closedPort(t), &recordingSinks{})
	cfg.Codec = audio.CodecG722 // 48kHz stereo is not a valid G.722 stream

	s := NewSession(cfg, nil)
	err := waitErr(t, runSession(s))
	assert.ErrorIs(t, err, ErrDecodeFailed)
	assert.Equal(t, StateFailed, s.State())
}
