package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/vovakirdan/wirechat-client/internal/config"
	"github.com/vovakirdan/wirechat-client/internal/core"
	"github.com/vovakirdan/wirechat-client/internal/transport/ws"
)

type fakeChat struct {
	mu       sync.Mutex
	status   core.Status
	roster   []string
	messages []core.Message
	joins    []string
	sent     []string
}

func (f *fakeChat) Status() core.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *fakeChat) Roster() []string { return f.roster }

func (f *fakeChat) Messages() []core.Message { return f.messages }

func (f *fakeChat) AttemptJoin(_ context.Context, name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if name == "" || f.status.Joined {
		return false
	}
	f.joins = append(f.joins, name)
	f.status.Joined = true
	f.status.Username = name
	return true
}

func (f *fakeChat) SubmitMessage(_ context.Context, text string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if text == "" {
		return false
	}
	f.sent = append(f.sent, text)
	return true
}

func newTestRouter(t *testing.T, chat Chat, perMinute int) http.Handler {
	t.Helper()

	cfg := config.Default()
	cfg.MessagesPerMinute = perMinute
	return NewRouter(chat, cfg, nil)
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	return resp
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(t, &fakeChat{}, 0)

	resp := doJSON(t, router, http.MethodGet, "/health", "")
	if resp.Code != http.StatusOK || resp.Body.String() != "ok" {
		t.Fatalf("unexpected health response: %d %q", resp.Code, resp.Body.String())
	}
}

func TestStateAndRoster(t *testing.T) {
	chat := &fakeChat{
		status: core.Status{Username: "alice", Joined: true, Phase: core.PhaseSynced, Connection: ws.StateConnected},
		roster: []string{"alice", "bob"},
	}
	router := newTestRouter(t, chat, 0)

	resp := doJSON(t, router, http.MethodGet, "/api/state", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.Code)
	}
	var state StateResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &state); err != nil {
		t.Fatalf("unmarshal state: %v", err)
	}
	if state.Username != "alice" || !state.Joined || state.Phase != "synced" || state.Connection != "connected" {
		t.Fatalf("unexpected state: %+v", state)
	}

	resp = doJSON(t, router, http.MethodGet, "/api/roster", "")
	var roster RosterResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &roster); err != nil {
		t.Fatalf("unmarshal roster: %v", err)
	}
	if len(roster.Users) != 2 || roster.Users[1] != "bob" {
		t.Fatalf("unexpected roster: %+v", roster)
	}
}

func TestMessagesMarkOwn(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	chat := &fakeChat{
		status: core.Status{Username: "alice", Joined: true},
		messages: []core.Message{
			{ID: "1", Username: "bob", Text: "hi", Timestamp: ts},
			{ID: "2", Username: "alice", Text: "hello"},
		},
	}
	router := newTestRouter(t, chat, 0)

	resp := doJSON(t, router, http.MethodGet, "/api/messages", "")
	var body MessagesResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal messages: %v", err)
	}
	if len(body.Messages) != 2 {
		t.Fatalf("unexpected messages: %+v", body)
	}
	if body.Messages[0].Own || !body.Messages[1].Own {
		t.Fatalf("own flag wrong: %+v", body.Messages)
	}
	if body.Messages[0].Timestamp == nil || !body.Messages[0].Timestamp.Equal(ts) {
		t.Fatalf("unexpected timestamp: %v", body.Messages[0].Timestamp)
	}
	if body.Messages[1].Timestamp != nil {
		t.Fatal("zero timestamp should be omitted")
	}
}

func TestJoinAndSubmitAreSilentOnBlank(t *testing.T) {
	chat := &fakeChat{}
	router := newTestRouter(t, chat, 0)

	resp := doJSON(t, router, http.MethodPost, "/api/join", `{"username":""}`)
	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.Code)
	}
	var action ActionResponse
	_ = json.Unmarshal(resp.Body.Bytes(), &action)
	if action.Accepted {
		t.Fatal("blank join reported as accepted")
	}

	resp = doJSON(t, router, http.MethodPost, "/api/join", `{"username":"alice"}`)
	_ = json.Unmarshal(resp.Body.Bytes(), &action)
	if !action.Accepted || len(chat.joins) != 1 {
		t.Fatalf("join not forwarded: %+v %v", action, chat.joins)
	}

	resp = doJSON(t, router, http.MethodPost, "/api/messages", `{"text":"hi"}`)
	_ = json.Unmarshal(resp.Body.Bytes(), &action)
	if resp.Code != http.StatusAccepted || !action.Accepted || len(chat.sent) != 1 {
		t.Fatalf("submit not forwarded: %d %+v", resp.Code, action)
	}

	resp = doJSON(t, router, http.MethodPost, "/api/messages", `not json`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad body, got %d", resp.Code)
	}
}

func TestSubmitRateLimited(t *testing.T) {
	chat := &fakeChat{status: core.Status{Joined: true, Username: "alice"}}
	router := newTestRouter(t, chat, 2)

	for i := 0; i < 2; i++ {
		if resp := doJSON(t, router, http.MethodPost, "/api/messages", `{"text":"hi"}`); resp.Code != http.StatusAccepted {
			t.Fatalf("request %d: unexpected status %d", i, resp.Code)
		}
	}
	if resp := doJSON(t, router, http.MethodPost, "/api/messages", `{"text":"hi"}`); resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp.Code)
	}
	if len(chat.sent) != 2 {
		t.Fatalf("limited message was forwarded: %v", chat.sent)
	}
}

func TestRateLimiterWindowResets(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := newRateLimiter(1)
	rl.now = func() time.Time { return now }

	if !rl.allow() || rl.allow() {
		t.Fatal("limit not enforced inside window")
	}
	now = now.Add(time.Minute)
	if !rl.allow() {
		t.Fatal("window did not reset")
	}
}
