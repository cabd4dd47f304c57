package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub()
	go h.Run()
	t.Cleanup(h.Stop)
	return h
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitForClients(t *testing.T, h *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.ClientCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("client count = %d, want %d", h.ClientCount(), want)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestBroadcastEventReachesClient(t *testing.T) {
	h := startHub(t)
	server := httptest.NewServer(http.HandlerFunc(h.ServeWs))
	defer server.Close()

	conn := dial(t, server)
	waitForClients(t, h, 1)

	if !h.BroadcastEvent(Event{Type: EventStateChanged, Data: map[string]int{"level": 7}}) {
		t.Fatal("BroadcastEvent() = false on running hub")
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read broadcast: %v", err)
	}

	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if ev.Type != EventStateChanged {
		t.Errorf("event type = %q, want %q", ev.Type, EventStateChanged)
	}
}

func TestStopDisconnectsClients(t *testing.T) {
	h := startHub(t)
	server := httptest.NewServer(http.HandlerFunc(h.ServeWs))
	defer server.Close()

	dial(t, server)
	waitForClients(t, h, 1)

	h.Stop()
	waitForClients(t, h, 0)

	if !h.IsStopped() {
		t.Error("IsStopped() = false after Stop")
	}
	if h.BroadcastEvent(Event{Type: EventMetaUpdated}) {
		t.Error("BroadcastEvent() = true on stopped hub")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	h := startHub(t)
	h.Stop()
	h.Stop()
}

func TestServeWsAfterStop(t *testing.T) {
	h := NewHub()
	go h.Run()
	h.Stop()

	// Let Run observe done before serving.
	deadline := time.Now().Add(2 * time.Second)
	for !h.IsStopped() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	rec := httptest.NewRecorder()
	h.ServeWs(rec, httptest.NewRequest(http.MethodGet, "/ws", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("ServeWs after stop = %d, want 503", rec.Code)
	}
}
