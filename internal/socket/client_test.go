package socket

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/queuewatch/queuewatch/internal/api"
	"github.com/queuewatch/queuewatch/internal/state"
)

// fakeBackend serves /ws and runs script once per accepted connection.
type fakeBackend struct {
	upgrader websocket.Upgrader
	sessions atomic.Int32
	script   func(n int, conn *websocket.Conn)
}

func newFakeBackend(t *testing.T, script func(n int, conn *websocket.Conn)) (*httptest.Server, *fakeBackend) {
	t.Helper()
	fb := &fakeBackend{script: script}
	r := chi.NewRouter()
	r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := fb.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		fb.script(int(fb.sessions.Add(1)), conn)
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, fb
}

func send(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()
	frame := envelopeFrame(t, event, data, "")
	raw, err := json.Marshal(frame)
	if err != nil {
		t.Errorf("marshal frame: %v", err)
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, raw); err != nil {
		t.Errorf("write %s: %v", event, err)
	}
}

func drain(conn *websocket.Conn, into chan<- Frame) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if into == nil {
			continue
		}
		if f, err := DecodeFrame(raw); err == nil {
			into <- f
		}
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func startClient(t *testing.T, srv *httptest.Server, f *fixture, opts ...Option) *Client {
	t.Helper()
	base, err := api.ParseBaseURL(srv.URL)
	if err != nil {
		t.Fatalf("ParseBaseURL: %v", err)
	}
	wsURL, err := WebsocketURL(base, "/ws")
	if err != nil {
		t.Fatalf("WebsocketURL: %v", err)
	}
	opts = append([]Option{
		WithBackOff(func() backoff.BackOff { return backoff.NewConstantBackOff(10 * time.Millisecond) }),
		WithClientMetrics(f.metrics),
		WithClientLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}, opts...)
	c := NewClient(wsURL, f.d, opts...)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Run returned error: %v", err)
			}
		case <-time.After(3 * time.Second):
			t.Errorf("Run did not stop after cancel")
		}
	})
	return c
}

func TestWebsocketURL(t *testing.T) {
	tests := []struct {
		base string
		path string
		want string
	}{
		{"http://127.0.0.1:8081", "/ws", "ws://127.0.0.1:8081/ws"},
		{"https://example.com/tube/", "socket", "wss://example.com/tube/socket"},
		{"http://host:1", "", "ws://host:1/ws"},
	}
	for _, tt := range tests {
		u, err := url.Parse(tt.base)
		if err != nil {
			t.Fatalf("url.Parse: %v", err)
		}
		got, err := WebsocketURL(u, tt.path)
		if err != nil || got != tt.want {
			t.Fatalf("WebsocketURL(%q, %q) = %q, %v; want %q", tt.base, tt.path, got, err, tt.want)
		}
	}
	if _, err := WebsocketURL(&url.URL{Scheme: "ftp", Host: "x"}, "/ws"); err == nil {
		t.Fatalf("WebsocketURL(ftp) returned nil error")
	}
}

func TestClient_SnapshotSupersedesBufferedChanges(t *testing.T) {
	srv, _ := newFakeBackend(t, func(n int, conn *websocket.Conn) {
		send(t, conn, "added", map[string]any{"_id": "abc", "title": "early"})
		send(t, conn, "updated", map[string]any{"_id": "def", "status": "downloading", "percent": 10})
		send(t, conn, "log_info", map[string]any{"message": "server restarted"})
		send(t, conn, "connected", map[string]any{
			"queue": map[string]any{},
			"done": map[string]any{
				"abc": map[string]any{"status": "finished"},
				"def": map[string]any{"status": "finished", "percent": 100},
			},
		})
		send(t, conn, "added", map[string]any{"_id": "ghi", "title": "late"})
		drain(conn, nil)
	})
	f := newFixture(t)
	startClient(t, srv, f)

	waitFor(t, "post-snapshot item", func() bool { return f.store.Has(state.Queue, "ghi") })
	snap := f.store.Snapshot()
	if !snap.Synced {
		t.Fatalf("store not marked synced after snapshot")
	}
	for _, id := range []string{"abc", "def"} {
		if _, inQueue := snap.Queue[id]; inQueue {
			t.Fatalf("%s in queue and history after resync", id)
		}
	}
	if def := snap.History["def"]; def.Status != "finished" || def.Percent != 100 {
		t.Fatalf("history def = %+v, want snapshot copy", def)
	}
	if len(snap.Queue) != 1 {
		t.Fatalf("queue = %v, want only the post-snapshot item", snap.Queue)
	}

	if got := testutil.ToFloat64(f.metrics.events.WithLabelValues("added", outcomeBuffered)); got != 1 {
		t.Fatalf("buffered added events = %v, want 1", got)
	}
	if got := testutil.ToFloat64(f.metrics.events.WithLabelValues("updated", outcomeDropped)); got != 1 {
		t.Fatalf("superseded updated events = %v, want 1", got)
	}
	if got := testutil.ToFloat64(f.metrics.events.WithLabelValues("log_info", outcomeApplied)); got != 1 {
		t.Fatalf("replayed notices = %v, want 1", got)
	}
}

func TestClient_BufferEvictsOldest(t *testing.T) {
	srv, _ := newFakeBackend(t, func(n int, conn *websocket.Conn) {
		for _, msg := range []string{"one", "two", "three"} {
			send(t, conn, "log_warning", map[string]any{"message": msg})
		}
		send(t, conn, "connected", map[string]any{"queue": map[string]any{}, "done": map[string]any{}})
		drain(conn, nil)
	})
	f := newFixture(t)
	startClient(t, srv, f, WithBufferLimit(2))

	waitFor(t, "replayed notices", func() bool {
		return testutil.ToFloat64(f.metrics.events.WithLabelValues("log_warning", outcomeApplied)) == 2
	})
	if got := testutil.ToFloat64(f.metrics.events.WithLabelValues("log_warning", outcomeEvicted)); got != 1 {
		t.Fatalf("evicted = %v, want 1", got)
	}
	if f.notes.Len() != 2 {
		t.Fatalf("notifications = %d, want the two newest notices", f.notes.Len())
	}
}

func TestClient_UnknownEventsShareOneLabel(t *testing.T) {
	srv, _ := newFakeBackend(t, func(n int, conn *websocket.Conn) {
		send(t, conn, "sneaky_1", map[string]any{})
		send(t, conn, "connected", map[string]any{"queue": map[string]any{}, "done": map[string]any{}})
		send(t, conn, "sneaky_2", map[string]any{})
		drain(conn, nil)
	})
	f := newFixture(t)
	startClient(t, srv, f)

	waitFor(t, "unknown events dropped", func() bool {
		return testutil.ToFloat64(f.metrics.events.WithLabelValues(unknownEvent, outcomeDropped)) == 2
	})
	if n := testutil.CollectAndCount(f.metrics.events); n != 2 {
		t.Fatalf("event series = %d, want unknown/dropped and connected/applied only", n)
	}
}

func TestClient_ReconnectResyncsFromSnapshot(t *testing.T) {
	srv, fb := newFakeBackend(t, func(n int, conn *websocket.Conn) {
		if n == 1 {
			send(t, conn, "connected", map[string]any{
				"queue": map[string]any{"old": map[string]any{"status": "downloading"}},
				"done":  map[string]any{},
			})
			return // drop the connection
		}
		send(t, conn, "connected", map[string]any{
			"queue": map[string]any{"new": map[string]any{"status": "pending"}},
			"done":  map[string]any{"old": map[string]any{"status": "finished"}},
		})
		drain(conn, nil)
	})
	f := newFixture(t)
	startClient(t, srv, f)

	waitFor(t, "second snapshot", func() bool {
		return f.store.Has(state.Queue, "new") && f.store.Has(state.History, "old")
	})
	if f.store.Has(state.Queue, "old") {
		t.Fatalf("stale queue entry survived the resync")
	}
	if fb.sessions.Load() < 2 {
		t.Fatalf("sessions = %d, want reconnect", fb.sessions.Load())
	}
	if testutil.ToFloat64(f.metrics.reconnects) < 1 {
		t.Fatalf("reconnect counter not incremented")
	}
	waitFor(t, "connected flag", f.store.Connected)
}

func TestClient_Emit(t *testing.T) {
	received := make(chan Frame, 4)
	srv, _ := newFakeBackend(t, func(n int, conn *websocket.Conn) {
		send(t, conn, "connected", map[string]any{"queue": map[string]any{}, "done": map[string]any{}})
		drain(conn, received)
	})
	f := newFixture(t)

	offline := NewClient("ws://127.0.0.1:1/ws", f.d)
	if err := offline.Emit(context.Background(), "pause", nil); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("Emit offline = %v, want ErrNotConnected", err)
	}

	c := startClient(t, srv, f)
	waitFor(t, "connection", c.Connected)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := c.Emit(ctx, "item_cancel", []string{"abc"}); err != nil {
		t.Fatalf("Emit returned error: %v", err)
	}

	select {
	case frame := <-received:
		if frame.Event != "item_cancel" {
			t.Fatalf("event = %q, want item_cancel", frame.Event)
		}
		env, err := frame.Envelope()
		if err != nil {
			t.Fatalf("Envelope: %v", err)
		}
		var ids []string
		if err := env.Decode(&ids); err != nil || len(ids) != 1 || ids[0] != "abc" {
			t.Fatalf("payload = %v, %v; want [abc]", ids, err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("server did not receive the emitted frame")
	}
}
