// ABOUTME: Shared fakes for stream tests
// ABOUTME: In-process TCP servers, recording sinks and listeners
package stream

import (
	"encoding/binary"
	"errors"
	"net"
	"sync"
	"testing"

	"github.com/WiFiAudioLink/wifiaudiolink-go/pkg/audio"
	"github.com/WiFiAudioLink/wifiaudiolink-go/pkg/audio/output"
	"github.com/stretchr/testify/require"
)

// fakeServer accepts connections on loopback and hands each to handle.
type fakeServer struct {
	ln   net.Listener
	wg   sync.WaitGroup
	port int
}

func newFakeServer(t *testing.T, handle func(conn net.Conn)) *fakeServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := &fakeServer{ln: ln, port: ln.Addr().(*net.TCPAddr).Port}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				defer conn.Close()
				handle(conn)
			}()
		}
	}()
	t.Cleanup(func() {
		ln.Close()
		s.wg.Wait()
	})
	return s
}

// closedPort returns a loopback port with nothing listening on it.
func closedPort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()
	return port
}

func stopAndWait(c *Client) {
	c.Stop()
	c.Wait()
}

func encodeFrame(payload []byte) []byte {
	out := make([]byte, 2+len(payload))
	binary.BigEndian.PutUint16(out, uint16(len(payload)))
	copy(out[2:], payload)
	return out
}

// acceptCredential reads the credential and replies OK when it matches.
func acceptCredential(conn net.Conn, want string) bool {
	buf := make([]byte, 128)
	n, err := conn.Read(buf)
	if err != nil {
		return false
	}
	if string(buf[:n]) != want {
		conn.Write([]byte("DENIED"))
		return false
	}
	_, err = conn.Write([]byte("OK"))
	return err == nil
}

var errSinkBroken = errors.New("device gone")

// recordingSinks is an output.Opener whose sinks record every write.
type recordingSinks struct {
	mu       sync.Mutex
	opens    int
	openErrs int // fail this many opens first
	failOn   map[int]bool
	writes   int
	written  [][]byte
	negative bool

	sinks         []*recordingSink
	formats       []audio.Format
	openWhileLive int // opens made while an earlier sink was still open
}

func (r *recordingSinks) opener() output.Opener {
	return func(format audio.Format) (output.Output, error) {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.openErrs > 0 {
			r.openErrs--
			return nil, errors.New("no device")
		}
		for _, prev := range r.sinks {
			if !prev.closed {
				r.openWhileLive++
			}
		}
		r.opens++
		r.formats = append(r.formats, format)
		sink := &recordingSink{owner: r}
		r.sinks = append(r.sinks, sink)
		return sink, nil
	}
}

// Formats returns the format passed to every successful open, in order.
func (r *recordingSinks) Formats() []audio.Format {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]audio.Format(nil), r.formats...)
}

// Closed reports how many opened sinks were closed.
func (r *recordingSinks) Closed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.sinks {
		if s.closed {
			n++
		}
	}
	return n
}

func (r *recordingSinks) OpenWhileLive() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.openWhileLive
}

func (r *recordingSinks) Opens() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.opens
}

func (r *recordingSinks) Written() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.written))
	for i, w := range r.written {
		out[i] = string(w)
	}
	return out
}

type recordingSink struct {
	owner  *recordingSinks
	closed bool
}

func (s *recordingSink) Open(audio.Format) error { return nil }

func (s *recordingSink) Write(pcm []byte) (int, error) {
	r := s.owner
	r.mu.Lock()
	defer r.mu.Unlock()

	r.writes++
	if r.failOn[r.writes] {
		if r.negative {
			return -1, nil
		}
		return 0, errSinkBroken
	}
	r.written = append(r.written, append([]byte(nil), pcm...))
	return len(pcm), nil
}

func (s *recordingSink) Close() error {
	s.owner.mu.Lock()
	s.closed = true
	s.owner.mu.Unlock()
	return nil
}

// recordingListener captures lifecycle events.
type recordingListener struct {
	mu           sync.Mutex
	connected    int
	disconnected int
	errs         []error
	states       []State
}

func (l *recordingListener) OnConnected() {
	l.mu.Lock()
	l.connected++
	l.mu.Unlock()
}

func (l *recordingListener) OnDisconnected() {
	l.mu.Lock()
	l.disconnected++
	l.mu.Unlock()
}

func (l *recordingListener) OnError(err error) {
	l.mu.Lock()
	l.errs = append(l.errs, err)
	l.mu.Unlock()
}

func (l *recordingListener) OnStateChange(state State) {
	l.mu.Lock()
	l.states = append(l.states, state)
	l.mu.Unlock()
}

func (l *recordingListener) Connected() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.connected
}

func (l *recordingListener) Disconnected() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.disconnected
}

func (l *recordingListener) Errors() []error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]error(nil), l.errs...)
}

func (l *recordingListener) States() []State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]State(nil), l.states...)
}
