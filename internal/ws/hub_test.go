package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/kiwari-pos/storefront/internal/enum"
	"github.com/kiwari-pos/storefront/internal/notify"
	"go.uber.org/goleak"
)

// mockClient creates a client for testing without a real WebSocket connection
func mockClient(hub *Hub, sessionID uuid.UUID) *Client {
	return &Client{
		hub:       hub,
		sessionID: sessionID,
		send:      make(chan []byte, 256),
	}
}

// startHub runs a hub until the test ends and checks it leaves no goroutines.
func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-hub.done
		goleak.VerifyNone(t)
	})
	return hub
}

func TestHubRegistration(t *testing.T) {
	hub := startHub(t)

	sessionID := uuid.New()
	client := mockClient(hub, sessionID)

	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	if hub.Connected(sessionID) != 1 {
		t.Fatal("client not registered in session room")
	}
}

func TestHubCleanupEmptyRoom(t *testing.T) {
	hub := startHub(t)

	sessionID := uuid.New()
	client1 := mockClient(hub, sessionID)
	client2 := mockClient(hub, sessionID)

	hub.register <- client1
	hub.register <- client2
	time.Sleep(10 * time.Millisecond)

	if n := hub.Connected(sessionID); n != 2 {
		t.Fatalf("expected 2 clients, got %d", n)
	}

	hub.unregister <- client1
	time.Sleep(10 * time.Millisecond)

	if n := hub.Connected(sessionID); n != 1 {
		t.Fatalf("expected 1 client after first unregister, got %d", n)
	}

	hub.unregister <- client2
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()
	if hub.rooms[sessionID] != nil {
		t.Fatal("room should be deleted when last client unregisters")
	}
}

func TestBroadcastToSingleSession(t *testing.T) {
	hub := startHub(t)

	session1 := uuid.New()
	session2 := uuid.New()
	client1 := mockClient(hub, session1)
	client2 := mockClient(hub, session2)

	hub.register <- client1
	hub.register <- client2
	time.Sleep(10 * time.Millisecond)

	testPayload := json.RawMessage(`{"level":"success","message":"Order updated"}`)
	hub.BroadcastToSession(session1, Event{Type: enum.EventNotification, Payload: testPayload})

	select {
	case msg := <-client1.send:
		var received Event
		if err := json.Unmarshal(msg, &received); err != nil {
			t.Fatalf("failed to unmarshal message: %v", err)
		}
		if received.Type != enum.EventNotification {
			t.Errorf("expected type %q, got %q", enum.EventNotification, received.Type)
		}
		if string(received.Payload) != string(testPayload) {
			t.Errorf("expected payload '%s', got '%s'", testPayload, received.Payload)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("client1 did not receive message")
	}

	select {
	case <-client2.send:
		t.Fatal("client2 should not have received message for different session")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestNotifierReachesEveryTab(t *testing.T) {
	hub := startHub(t)

	sessionID := uuid.New()
	tabs := []*Client{mockClient(hub, sessionID), mockClient(hub, sessionID)}
	for _, c := range tabs {
		hub.register <- c
	}
	time.Sleep(10 * time.Millisecond)

	hub.Notifier(sessionID).Notify(context.Background(), notify.Error("Unable to update order"))

	for i, c := range tabs {
		select {
		case msg := <-c.send:
			var received struct {
				Type    string              `json:"type"`
				Payload notify.Notification `json:"payload"`
			}
			if err := json.Unmarshal(msg, &received); err != nil {
				t.Fatalf("tab%d: unmarshal: %v", i+1, err)
			}
			if received.Payload != notify.Error("Unable to update order") {
				t.Errorf("tab%d: unexpected payload %+v", i+1, received.Payload)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("tab%d did not receive notification", i+1)
		}
	}
}

func TestBroadcastToSessionWithoutTabs(t *testing.T) {
	hub := startHub(t)

	client := mockClient(hub, uuid.New())
	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	hub.BroadcastToSession(uuid.New(), Event{Type: enum.EventNotification, Payload: json.RawMessage(`{}`)})

	select {
	case <-client.send:
		t.Fatal("client should not receive message for different session")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	hub := NewHub(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	sessionID := uuid.New()
	client := mockClient(hub, sessionID)
	hub.register <- client

	cancel()
	<-hub.done

	if _, ok := <-client.send; ok {
		t.Fatal("send channel should be closed after shutdown")
	}
	if hub.join(mockClient(hub, sessionID)) {
		t.Fatal("join should fail on a stopped hub")
	}

	// Neither call may block once the hub is stopped.
	hub.BroadcastToSession(sessionID, Event{Type: enum.EventNotification})
	hub.leave(client)

	goleak.VerifyNone(t)
}

func TestServeWSDeliversNotifications(t *testing.T) {
	hub := NewHub(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	sessionID := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWS(hub, sessionID, w, r)
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(time.Second)
	for hub.Connected(sessionID) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("connection never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	hub.Notifier(sessionID).Notify(context.Background(), notify.Success("Order updated"))

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(msg), `"type":"notification"`) || !strings.Contains(string(msg), "Order updated") {
		t.Errorf("unexpected message %s", msg)
	}
}

func TestCheckOrigin(t *testing.T) {
	u := newUpgrader([]string{"https://shop.example.com"})

	cases := []struct {
		origin, host string
		want         bool
	}{
		{"", "edge:8081", true},
		{"https://shop.example.com", "edge:8081", true},
		{"https://evil.example.com", "edge:8081", false},
		{"http://edge:8081", "edge:8081", true},
	}
	for _, tc := range cases {
		r := httptest.NewRequest(http.MethodGet, "/ws/notifications", nil)
		r.Host = tc.host
		if tc.origin != "" {
			r.Header.Set("Origin", tc.origin)
		}
		if got := u.CheckOrigin(r); got != tc.want {
			t.Errorf("origin %q: got %v, want %v", tc.origin, got, tc.want)
		}
	}
}
