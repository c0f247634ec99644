package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dormwatch/dormwatch/internal/monitor"
)

func dialEvents(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("failed to dial events endpoint: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readStatus(t *testing.T, conn *websocket.Conn) monitor.Status {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read status message: %v", err)
	}

	var status monitor.Status
	if err := json.Unmarshal(payload, &status); err != nil {
		t.Fatalf("status message is not valid JSON: %v\nPayload: %s", err, payload)
	}
	return status
}

func TestEventsHandler_SendsCurrentStateOnConnect(t *testing.T) {
	mon := testMonitor(t, testDirectory(t), stubMatcher{})
	hub := NewHub()
	go hub.Run()

	handler := NewEventsHandler(hub, mon)
	server := httptest.NewServer(http.HandlerFunc(handler.Serve))
	defer server.Close()

	conn := dialEvents(t, server)

	status := readStatus(t, conn)
	if status.State != monitor.StateIdle {
		t.Errorf("expected the idle snapshot on connect, got %s", status.State)
	}
}

func TestEventsHandler_BroadcastReachesViewers(t *testing.T) {
	mon := testMonitor(t, testDirectory(t), stubMatcher{})
	hub := NewHub()
	go hub.Run()

	handler := NewEventsHandler(hub, mon)
	server := httptest.NewServer(http.HandlerFunc(handler.Serve))
	defer server.Close()

	conn := dialEvents(t, server)
	readStatus(t, conn) // connect snapshot

	// Registration races the broadcast; wait until the hub sees the viewer.
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if hub.ClientCount() != 1 {
		t.Fatal("viewer never registered with the hub")
	}

	hub.BroadcastStatus(monitor.Status{State: monitor.StateLive})

	status := readStatus(t, conn)
	if status.State != monitor.StateLive {
		t.Errorf("expected the broadcast state, got %s", status.State)
	}
}

func TestHub_BroadcastWithoutViewersDoesNotBlock(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	// The queue absorbs updates even with nobody connected; the sampling
	// loop must never stall on the hub.
	for i := 0; i < 100; i++ {
		hub.BroadcastStatus(monitor.Status{State: monitor.StateMonitoring})
	}

	if hub.ClientCount() != 0 {
		t.Errorf("expected no viewers, got %d", hub.ClientCount())
	}
}
