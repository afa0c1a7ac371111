package core

import (
	"time"

	"github.com/vovakirdan/wirechat-client/internal/proto"
)

// Message is a chat message accepted by the server.
type Message struct {
	ID        string
	Username  string
	Text      string
	Timestamp time.Time
}

func messageFromProto(m proto.MessageData) Message {
	return Message{
		ID:        string(m.ID),
		Username:  m.Username,
		Text:      m.Text,
		Timestamp: m.Timestamp.Time,
	}
}
