// ABOUTME: Connection state machine states
// ABOUTME: Lifecycle of one streaming session
package stream

// State is the connection state of a session
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateAuthenticating
	StateStreaming
	StateDisconnecting
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateStreaming:
		return "streaming"
	case StateDisconnecting:
		return "disconnecting"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
