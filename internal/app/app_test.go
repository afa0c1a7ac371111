package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vovakirdan/wirechat-client/internal/config"
	"github.com/vovakirdan/wirechat-client/internal/core"
	"github.com/vovakirdan/wirechat-client/internal/proto"
	"github.com/vovakirdan/wirechat-client/internal/transport/ws/wstest"
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Endpoint = "ws://chat.test/ws"
	cfg.ReconnectInitial = 5 * time.Millisecond
	cfg.ReconnectMax = 20 * time.Millisecond
	return cfg
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

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Endpoint = ""

	if _, err := NewWithDialer(cfg, wstest.NewDialer(), nil); err == nil {
		t.Fatal("expected config error")
	}
}

func TestRunAutoJoinsAndClosesOnCancel(t *testing.T) {
	conn := wstest.NewConn()
	cfg := testConfig()
	cfg.Username = "alice"

	application, err := NewWithDialer(cfg, wstest.NewDialer(conn), nil)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- application.Run(ctx) }()

	waitFor(t, "join frame", func() bool { return len(conn.Written()) == 1 })
	written := conn.Written()
	if written[0].Event != proto.EventJoin || string(written[0].Data) != `"alice"` {
		t.Fatalf("unexpected frame: %+v", written[0])
	}

	conn.PushRaw(proto.EventLoadMessages, `[{"id":"1","username":"bob","text":"welcome"}]`)
	ctrl := application.Controller()
	waitFor(t, "synced", func() bool { return ctrl.Status().Phase == core.PhaseSynced })

	cancel()
	select {
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Fatalf("run returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("run did not return after cancel")
	}
	if !conn.Closed() {
		t.Fatal("connection left open after run")
	}
}
