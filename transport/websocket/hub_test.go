package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func newTestClient(hub *Hub, topic string) *Client {
	return &Client{
		hub:   hub,
		topic: topic,
		send:  make(chan []byte, 256),
	}
}

func receive(t *testing.T, client *Client) Message {
	t.Helper()
	select {
	case data := <-client.send:
		var message Message
		if err := json.Unmarshal(data, &message); err != nil {
			t.Fatalf("Failed to unmarshal message: %v", err)
		}
		return message
	case <-time.After(100 * time.Millisecond):
		t.Fatal("No message received within timeout")
	}
	return Message{}
}

func TestNewHub(t *testing.T) {
	hub := NewHub()

	if hub == nil {
		t.Fatal("NewHub() returned nil")
	}
	if hub.topics == nil {
		t.Error("Hub topics map is nil")
	}
	if hub.broadcast == nil || hub.register == nil || hub.unregister == nil {
		t.Error("Hub channels not initialised")
	}
}

func TestHubRegisterUnregister(t *testing.T) {
	hub := NewHub()

	client1 := newTestClient(hub, "classic")
	client2 := newTestClient(hub, "classic")

	hub.registerClient(client1)
	hub.registerClient(client2)

	if hub.ClientCount("classic") != 2 {
		t.Errorf("Expected 2 clients, got %d", hub.ClientCount("classic"))
	}

	hub.unregisterClient(client1)
	if hub.ClientCount("classic") != 1 {
		t.Errorf("Expected 1 client remaining, got %d", hub.ClientCount("classic"))
	}

	// Unregistering twice must not close the channel again
	hub.unregisterClient(client1)

	hub.unregisterClient(client2)
	if _, exists := hub.topics["classic"]; exists {
		t.Error("Topic should have been cleaned up after last client unregistered")
	}
}

func TestHubBroadcastByTopic(t *testing.T) {
	hub := NewHub()

	classic := newTestClient(hub, "classic")
	walled := newTestClient(hub, "walled")
	all := newTestClient(hub, AllTopics)

	hub.registerClient(classic)
	hub.registerClient(walled)
	hub.registerClient(all)

	hub.broadcastMessage(&Message{Topic: "classic", Event: "step", RunID: "r1", Data: map[string]int{"index": 1}})

	message := receive(t, classic)
	if message.Topic != "classic" || message.Event != "step" || message.RunID != "r1" {
		t.Errorf("Unexpected message: %+v", message)
	}

	if got := receive(t, all); got.Event != "step" {
		t.Errorf("Expected wildcard subscriber to get the step, got %+v", got)
	}

	select {
	case <-walled.send:
		t.Error("Client on another topic should not receive the event")
	default:
	}
}

func TestHubSlowClientDropped(t *testing.T) {
	hub := NewHub()

	slow := &Client{hub: hub, topic: "classic", send: make(chan []byte)}
	hub.registerClient(slow)

	hub.broadcastMessage(&Message{Topic: "classic", Event: "step"})

	if hub.ClientCount("classic") != 0 {
		t.Error("Expected the slow client to be dropped")
	}
}

func TestPublishRunEvent(t *testing.T) {
	hub := NewHub()

	hub.PublishRunEvent("classic", "run_started", "r1", "payload")

	select {
	case message := <-hub.broadcast:
		if message.Topic != "classic" || message.Event != "run_started" || message.RunID != "r1" {
			t.Errorf("Unexpected message: %+v", message)
		}
		if message.Data != "payload" {
			t.Errorf("Expected data 'payload', got %v", message.Data)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("No broadcast message queued")
	}
}

func TestPublishRunEventNeverBlocks(t *testing.T) {
	hub := NewHub()

	done := make(chan struct{})
	go func() {
		// Hub not running: the queue fills and the rest are dropped
		for i := 0; i < broadcastBuffer+10; i++ {
			hub.PublishRunEvent("classic", "step", "r1", i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("PublishRunEvent blocked")
	}
}

func startServer(t *testing.T) (*Hub, *httptest.Server, context.CancelFunc) {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, r.URL.Query().Get("config"))
	}))
	return hub, server, cancel
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestWebSocketLifecycle(t *testing.T) {
	hub, server, cancel := startServer(t)
	defer cancel()
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "?config=classic"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}

	waitFor(t, func() bool { return hub.ClientCount("classic") == 1 })

	conn.Close()

	waitFor(t, func() bool { return hub.ClientCount("classic") == 0 })
}

func TestWebSocketReceivesEvents(t *testing.T) {
	hub, server, cancel := startServer(t)
	defer cancel()
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "?config=classic"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	defer conn.Close()

	waitFor(t, func() bool { return hub.ClientCount("classic") == 1 })

	hub.PublishRunEvent("classic", "step", "r1", map[string]int{"index": 1})
	hub.PublishRunEvent("classic", "run_finished", "r1", nil)

	conn.SetReadDeadline(time.Now().Add(time.Second))
	for _, want := range []string{"step", "run_finished"} {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("Failed to read WebSocket message: %v", err)
		}

		var message Message
		if err := json.Unmarshal(data, &message); err != nil {
			t.Fatalf("Failed to unmarshal message: %v", err)
		}
		if message.Event != want {
			t.Errorf("Expected event %s, got %s", want, message.Event)
		}
		if message.RunID != "r1" {
			t.Errorf("Expected run r1, got %s", message.RunID)
		}
	}
}

func TestHubShutdownClosesClients(t *testing.T) {
	hub, server, cancel := startServer(t)
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	defer conn.Close()

	waitFor(t, func() bool { return hub.ClientCount(AllTopics) == 1 })

	cancel()

	waitFor(t, func() bool { return hub.ClientCount(AllTopics) == 0 })

	conn.SetReadDeadline(time.Now().Add(time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("Expected the connection to be closed after shutdown")
	}
}
