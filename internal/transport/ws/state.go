package ws

import "encoding/json"

// State is the lifecycle of a Session's connection.
type State int

const (
	// StateDisconnected: never opened, or closed.
	StateDisconnected State = iota
	// StateConnecting: opened, first connection not yet established.
	StateConnecting
	// StateConnected: a connection is established; sends are delivered.
	StateConnected
	// StateReconnecting: the connection dropped and is being re-established.
	StateReconnecting
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

// EventStateChange is the Event name used for connection state transitions.
// It cannot collide with server events, which are plain identifiers.
const EventStateChange = "$state"

// Event is one item on the Session's inbound channel: either a server
// frame (Name is the server event name) or a state transition.
type Event struct {
	Name  string
	Data  json.RawMessage
	State State
}

// Handler reacts to a dispatched Event.
type Handler func(Event)
