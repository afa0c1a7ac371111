package proto

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrMalformedFrame is returned when a frame payload does not match its event.
var ErrMalformedFrame = errors.New("malformed frame")

// Frame is the envelope for every websocket message in either direction.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

const (
	// Outbound events (client to server).
	EventJoin        = "join"
	EventSendMessage = "send_message"

	// Inbound events (server to client).
	EventLoadMessages   = "load_messages"
	EventReceiveMessage = "receive_message"
	EventUserJoined     = "user_joined"
	EventUserLeft       = "user_left"
)

// SendMessageData is the payload of an outbound chat message.
// The server assigns id and timestamp.
type SendMessageData struct {
	Username string `json:"username"`
	Text     string `json:"text"`
}

// MessageData is a chat message as pushed by the server.
type MessageData struct {
	ID        ID        `json:"id"`
	Username  string    `json:"username"`
	Text      string    `json:"text"`
	Timestamp Timestamp `json:"timestamp"`
}

// UsersData carries the full membership snapshot of user_joined/user_left.
type UsersData struct {
	Users []string `json:"users"`
}

// NewFrame marshals data into a frame for the given event.
func NewFrame(event string, data any) (Frame, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Frame{}, fmt.Errorf("marshal %s: %w", event, err)
	}
	return Frame{Event: event, Data: raw}, nil
}

// Decode unmarshals the frame payload into v.
func (f Frame) Decode(v any) error {
	if len(f.Data) == 0 {
		return fmt.Errorf("%w: %s has no data", ErrMalformedFrame, f.Event)
	}
	if err := json.Unmarshal(f.Data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedFrame, f.Event, err)
	}
	return nil
}

// ID is a server-assigned message identifier. Servers send either JSON
// strings or numbers; both are kept in textual form.
type ID string

// UnmarshalJSON accepts a JSON string, number or null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*id = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("id: %w", err)
		}
		*id = ID(n.String())
		return nil
	}
}

// Timestamp is the server acceptance time of a message. It decodes from an
// RFC 3339 string or from unix milliseconds.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON accepts an RFC 3339 string, unix milliseconds or null.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		ts.Time = time.Time{}
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			ts.Time = time.Time{}
			return nil
		}
		parsed, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("timestamp: %w", err)
		}
		ts.Time = parsed
		return nil
	default:
		var ms float64
		if err := json.Unmarshal(data, &ms); err != nil {
			return fmt.Errorf("timestamp: %w", err)
		}
		ts.Time = time.UnixMilli(int64(ms))
		return nil
	}
}

// MarshalJSON encodes the timestamp as an RFC 3339 string in UTC.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(ts.UTC().Format(time.RFC3339Nano))
}
