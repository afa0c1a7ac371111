package http

import (
	"time"

	"github.com/vovakirdan/wirechat-client/internal/core"
)

// StateResponse describes identity and connectivity.
type StateResponse struct {
	Username   string `json:"username"`
	Joined     bool   `json:"joined"`
	Phase      string `json:"phase"`
	Connection string `json:"connection"`
}

// RosterResponse lists online participants.
type RosterResponse struct {
	Users []string `json:"users"`
}

// MessageResponse is one log entry. Own marks messages sent by the local user.
type MessageResponse struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	Text      string     `json:"text"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
	Own       bool       `json:"own"`
}

// MessagesResponse is the log in arrival order.
type MessagesResponse struct {
	Messages []MessageResponse `json:"messages"`
}

func stateFromStatus(s core.Status) StateResponse {
	return StateResponse{
		Username:   s.Username,
		Joined:     s.Joined,
		Phase:      s.Phase.String(),
		Connection: s.Connection.String(),
	}
}

func messagesFromLog(log []core.Message, self core.Status) MessagesResponse {
	out := make([]MessageResponse, 0, len(log))
	for _, m := range log {
		resp := MessageResponse{
			ID:       m.ID,
			Username: m.Username,
			Text:     m.Text,
			Own:      self.Joined && m.Username == self.Username,
		}
		if !m.Timestamp.IsZero() {
			ts := m.Timestamp
			resp.Timestamp = &ts
		}
		out = append(out, resp)
	}
	return MessagesResponse{Messages: out}
}
