// ABOUTME: Lifecycle listener interfaces
// ABOUTME: How sessions and the client report connection events to a UI
package stream

// Listener receives lifecycle events from a Client. Calls come from the
// client's goroutines and must not block for long.
type Listener interface {
	OnConnected()
	OnDisconnected()
	OnError(err error)
}

// StateListener is optionally implemented by a Listener that wants every
// state transition, not just the three lifecycle events.
type StateListener interface {
	OnStateChange(state State)
}

// ListenerFuncs adapts plain functions to Listener and StateListener.
// Nil fields are skipped.
type ListenerFuncs struct {
	Connected    func()
	Disconnected func()
	Error        func(err error)
	StateChange  func(state State)
}

func (l ListenerFuncs) OnConnected() {
	if l.Connected != nil {
		l.Connected()
	}
}

func (l ListenerFuncs) OnDisconnected() {
	if l.Disconnected != nil {
		l.Disconnected()
	}
}

func (l ListenerFuncs) OnError(err error) {
	if l.Error != nil {
		l.Error(err)
	}
}

func (l ListenerFuncs) OnStateChange(state State) {
	if l.StateChange != nil {
		l.StateChange(state)
	}
}

// Multi fans events out to several listeners in order.
type Multi []Listener

func (m Multi) OnConnected() {
	for _, l := range m {
		l.OnConnected()
	}
}

func (m Multi) OnDisconnected() {
	for _, l := range m {
		l.OnDisconnected()
	}
}

func (m Multi) OnError(err error) {
	for _, l := range m {
		l.OnError(err)
	}
}

func (m Multi) OnStateChange(state State) {
	for _, l := range m {
		if sl, ok := l.(StateListener); ok {
			sl.OnStateChange(state)
		}
	}
}

type nopListener struct{}

func (nopListener) OnConnected()    {}
func (nopListener) OnDisconnected() {}
func (nopListener) OnError(error)   {}
