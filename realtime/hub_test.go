package realtime

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialHub(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("unexpected dial error: %v", err)
	}
	return conn
}

func TestHubBroadcastRoundTrip(t *testing.T) {
	h := NewHub()
	go h.Run()
	defer h.Stop()

	srv := httptest.NewServer(http.HandlerFunc(h.ServeWS))
	defer srv.Close()

	conn := dialHub(t, srv)
	defer conn.Close()

	waitFor(t, func() bool { return h.ClientCount() == 1 }, "WebSocket registration")

	h.Broadcast("event_fired", map[string]interface{}{
		"symbol":     "AAPL",
		"event_type": "VWAP_CROSS_UP",
	})

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("unexpected read error: %v", err)
	}

	var env Envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		t.Fatalf("unexpected unmarshal error: %v", err)
	}
	if env.Event != "event_fired" {
		t.Errorf("expected event 'event_fired', got %q", env.Event)
	}
	payload, ok := env.Payload.(map[string]interface{})
	if !ok {
		t.Fatalf("expected map payload, got %T", env.Payload)
	}
	if payload["symbol"] != "AAPL" {
		t.Errorf("expected symbol AAPL, got %v", payload["symbol"])
	}
	if payload["event_type"] != "VWAP_CROSS_UP" {
		t.Errorf("expected event_type VWAP_CROSS_UP, got %v", payload["event_type"])
	}
}

func TestHubUnregistersOnClientClose(t *testing.T) {
	h := NewHub()
	go h.Run()
	defer h.Stop()

	srv := httptest.NewServer(http.HandlerFunc(h.ServeWS))
	defer srv.Close()

	conn := dialHub(t, srv)
	waitFor(t, func() bool { return h.ClientCount() == 1 }, "WebSocket registration")

	conn.Close()
	waitFor(t, func() bool { return h.ClientCount() == 0 }, "WebSocket removal")
}

func TestHubStopDisconnectsClients(t *testing.T) {
	h := NewHub()
	go h.Run()

	srv := httptest.NewServer(http.HandlerFunc(h.ServeWS))
	defer srv.Close()

	conn := dialHub(t, srv)
	defer conn.Close()
	waitFor(t, func() bool { return h.ClientCount() == 1 }, "WebSocket registration")

	h.Stop()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("expected connection to close after hub stop")
	}
	if got := h.ClientCount(); got != 0 {
		t.Errorf("expected 0 clients after stop, got %d", got)
	}
}

func TestHubBroadcastAfterStopDoesNotBlock(t *testing.T) {
	h := NewHub()
	go h.Run()
	h.Stop()

	done := make(chan struct{})
	go func() {
		for i := 0; i < cap(h.broadcast)+10; i++ {
			h.Broadcast("event_fired", map[string]interface{}{"n": i})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("expected Broadcast to return immediately after stop")
	}
}
