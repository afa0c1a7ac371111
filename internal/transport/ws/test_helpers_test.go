package ws_test

import (
	"testing"
	"time"

	"github.com/vovakirdan/wirechat-client/internal/transport/ws"
)

func fastOptions() ws.Options {
	opts := ws.DefaultOptions()
	opts.DialTimeout = time.Second
	opts.ReconnectInitial = 5 * time.Millisecond
	opts.ReconnectMax = 20 * time.Millisecond
	return opts
}

func mustEvent(t *testing.T, ch <-chan ws.Event) ws.Event {
	t.Helper()

	select {
	case ev, ok := <-ch:
		if !ok {
			t.Fatal("event channel closed")
		}
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
	}
	return ws.Event{}
}

func mustState(t *testing.T, ch <-chan ws.Event, want ws.State) {
	t.Helper()

	ev := mustEvent(t, ch)
	if ev.Name != ws.EventStateChange || ev.State != want {
		t.Fatalf("expected state %s, got %+v", want, ev)
	}
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
