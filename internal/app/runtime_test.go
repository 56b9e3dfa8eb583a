package app

import (
	"log/slog"
	"testing"
)

func TestNotificationHubReplaysFromCursor(t *testing.T) {
	h := NewNotificationHub(10)
	h.Publish("a", nil)
	h.Publish("b", nil)
	h.Publish("c", nil)

	replay, _, cancel := h.Subscribe(1)
	defer cancel()
	if len(replay) != 2 || replay[0].Method != "b" || replay[1].Method != "c" {
		t.Fatalf("unexpected replay: %+v", replay)
	}
}

func TestNotificationHubBoundsHistory(t *testing.T) {
	h := NewNotificationHub(2)
	for i := 0; i < 5; i++ {
		h.Publish("evt", i)
	}
	if got := h.BacklogSize(); got != 2 {
		t.Fatalf("expected backlog=2, got %d", got)
	}
}

func TestNotificationHubDeliversToSubscribers(t *testing.T) {
	h := NewNotificationHub(4)
	_, ch, cancel := h.Subscribe(0)
	defer cancel()

	h.Publish("bridge.ready", nil)
	evt, ok := <-ch
	if !ok {
		t.Fatal("expected open channel")
	}
	if evt.Method != "bridge.ready" || evt.Seq != 1 {
		t.Fatalf("unexpected event: %+v", evt)
	}
}

func TestNotificationHubCancelClosesChannel(t *testing.T) {
	h := NewNotificationHub(4)
	_, ch, cancel := h.Subscribe(0)
	cancel()
	cancel()
	if _, ok := <-ch; ok {
		t.Fatal("expected closed channel after cancel")
	}
}

func TestHostRuntimeActivateOnce(t *testing.T) {
	r := NewHostRuntime()
	if r.IsReady() {
		t.Fatal("expected not ready initially")
	}
	if !r.TryActivate() {
		t.Fatal("expected first activation to succeed")
	}
	if r.TryActivate() {
		t.Fatal("expected second activation to be a no-op")
	}
	if ready, startedAt := r.Snapshot(); !ready || startedAt.IsZero() {
		t.Fatalf("expected ready with start time, got ready=%v startedAt=%v", ready, startedAt)
	}
	if !r.Deactivate() {
		t.Fatal("expected deactivate to succeed")
	}
	if ready, startedAt := r.Snapshot(); ready || !startedAt.IsZero() {
		t.Fatalf("expected cleared snapshot after deactivate, got ready=%v startedAt=%v", ready, startedAt)
	}
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for raw, want := range cases {
		if got := ParseLogLevel(raw); got != want {
			t.Fatalf("ParseLogLevel(%q): expected %v, got %v", raw, want, got)
		}
	}
}
