package core

import (
	"context"
	"testing"
	"time"

	"github.com/vovakirdan/wirechat-client/internal/transport/ws"
	"github.com/vovakirdan/wirechat-client/internal/transport/ws/wstest"
)

type harness struct {
	ctrl    *Controller
	session *ws.Session
	dialer  *wstest.Dialer
}

// startHarness runs a controller over a session dialing the given conns.
// With no conns every dial is refused until the test queues one.
func startHarness(t *testing.T, conns ...*wstest.Conn) *harness {
	t.Helper()

	opts := ws.DefaultOptions()
	opts.ReconnectInitial = 5 * time.Millisecond
	opts.ReconnectMax = 20 * time.Millisecond

	dialer := wstest.NewDialer(conns...)
	session := ws.NewSession(dialer, opts, nil)
	ctrl := NewController(session, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	done := make(chan error, 1)
	go func() { done <- ctrl.Run(ctx) }()

	if err := session.Open(ctx, "ws://chat.test/ws"); err != nil {
		t.Fatalf("open session: %v", err)
	}

	t.Cleanup(func() {
		_ = session.Close()
		cancel()
		<-done
	})

	return &harness{ctrl: ctrl, session: session, dialer: dialer}
}

func (h *harness) waitConnected(t *testing.T) {
	t.Helper()
	waitFor(t, "connected", func() bool { return h.ctrl.Status().Connection == ws.StateConnected })
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func equalNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func messageIDs(messages []Message) []string {
	ids := make([]string, 0, len(messages))
	for _, m := range messages {
		ids = append(ids, m.ID)
	}
	return ids
}
