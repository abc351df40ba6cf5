// ABOUTME: Error taxonomy for the streaming engine
// ABOUTME: Session-fatal and locally recovered error kinds
package stream

import "errors"

// Session-fatal errors. They end the current session and trigger a reconnect.
var (
	ErrConnectFailed        = errors.New("connect failed")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrStreamClosed         = errors.New("stream closed")
)

// Locally recovered errors. The pump skips the frame or resets the sink.
var (
	ErrDecodeFailed = errors.New("decode failed")
	ErrSinkFailed   = errors.New("sink failed")
)

// Fatal reports whether err ends a session.
func Fatal(err error) bool {
	return errors.Is(err, ErrConnectFailed) ||
		errors.Is(err, ErrAuthenticationFailed) ||
		errors.Is(err, ErrStreamClosed)
}
