// ABOUTME: Framed TCP reader
// ABOUTME: Connects, performs the credential handshake and reads length-prefixed frames
package stream

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/WiFiAudioLink/wifiaudiolink-go/pkg/jitter"
	log "github.com/sirupsen/logrus"
)

// AuthOK is the token a server reply must start with to accept a credential.
var AuthOK = []byte("OK")

// authReplySize bounds a single handshake reply read.
const authReplySize = 16

// Reader owns one server connection.
type Reader struct {
	conn      net.Conn
	src       io.Reader // conn, preceded by stream bytes that arrived with the reply
	header    [2]byte
	closeOnce sync.Once
}

// NewReader wraps an established connection.
func NewReader(conn net.Conn) *Reader {
	return &Reader{conn: conn, src: conn}
}

// Dial opens a TCP connection to host:port, giving up after timeout.
func Dial(ctx context.Context, host string, port int, timeout time.Duration) (*Reader, error) {
	dialer := net.Dialer{Timeout: timeout}
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrConnectFailed, addr, err)
	}

	if tcp, ok := conn.(*net.TCPConn); ok {
		_ = tcp.SetNoDelay(true)
	}
	return NewReader(conn), nil
}

// Authenticate sends credential and waits up to timeout for a reply that
// starts with OK. A line ending after the token is discarded. Any other bytes
// that arrived with the reply are the start of the stream and are kept for
// ReadFrame.
func (r *Reader) Authenticate(credential string, timeout time.Duration) error {
	if err := r.conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		return fmt.Errorf("%w: %w", ErrAuthenticationFailed, err)
	}
	defer r.conn.SetDeadline(time.Time{})

	if _, err := r.conn.Write([]byte(credential)); err != nil {
		return fmt.Errorf("%w: send credential: %w", ErrAuthenticationFailed, err)
	}

	reply := make([]byte, authReplySize)
	n := 0
	for n < len(AuthOK) && bytes.HasPrefix(AuthOK, reply[:n]) {
		m, err := r.conn.Read(reply[n:])
		n += m
		if err != nil {
			if n == 0 {
				return fmt.Errorf("%w: no reply: %w", ErrAuthenticationFailed, err)
			}
			break
		}
	}

	if !bytes.HasPrefix(reply[:n], AuthOK) {
		return fmt.Errorf("%w: server replied %q", ErrAuthenticationFailed, bytes.TrimSpace(reply[:n]))
	}

	rest := reply[len(AuthOK):n]
	if len(bytes.Trim(rest, "\r\n")) == 0 {
		return nil
	}
	r.src = io.MultiReader(bytes.NewReader(rest), r.conn)
	return nil
}

// ReadFrame blocks until one complete frame has arrived. Zero-length frames
// are skipped. Each returned slice is newly allocated.
func (r *Reader) ReadFrame() ([]byte, error) {
	for {
		if _, err := io.ReadFull(r.src, r.header[:]); err != nil {
			return nil, fmt.Errorf("%w: read length: %w", ErrStreamClosed, err)
		}

		length := binary.BigEndian.Uint16(r.header[:])
		if length == 0 {
			continue
		}

		frame := make([]byte, length)
		if _, err := io.ReadFull(r.src, frame); err != nil {
			return nil, fmt.Errorf("%w: read %d byte payload: %w", ErrStreamClosed, length, err)
		}
		return frame, nil
	}
}

// Run reads frames into buf until the connection fails or ctx is done.
// It returns nil only when ctx ended the loop.
func (r *Reader) Run(ctx context.Context, buf *jitter.Buffer) error {
	for {
		frame, err := r.ReadFrame()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		if err := buf.Push(frame); err != nil {
			return err
		}
		log.WithField("bytes", len(frame)).Trace("frame received")

		if ctx.Err() != nil {
			return nil
		}
	}
}

// RemoteAddr returns the server address.
func (r *Reader) RemoteAddr() net.Addr {
	return r.conn.RemoteAddr()
}

// Close closes the connection, unblocking any pending read.
func (r *Reader) Close() error {
	var err error
	r.closeOnce.Do(func() {
		err = r.conn.Close()
		if errors.Is(err, net.ErrClosed) {
			err = nil
		}
	})
	return err
}
