package events

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/modelmatrix/ava-console/internal/service/session"
)

func setupHub(t *testing.T) (*Hub, *websocket.Conn) {
	t.Helper()
	hub := NewHub()
	r := chi.NewRouter()
	hub.RegisterRoutes(r)
	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return hub, conn
}

func TestHubBroadcastsEvents(t *testing.T) {
	hub, conn := setupHub(t)

	// The subscription is registered during the upgrade handshake, but give
	// the server goroutine a beat before publishing.
	deadline := time.Now().Add(2 * time.Second)
	published := false
	var got session.Event
	for time.Now().Before(deadline) {
		if !published {
			hub.Publish(session.Event{Type: session.EventMessageAppended, SessionID: "s1", MessageID: "m1"})
			published = true
		}
		conn.SetReadDeadline(time.Now().Add(time.Second))
		if err := conn.ReadJSON(&got); err == nil {
			break
		}
		published = false
	}

	if got.Type != session.EventMessageAppended || got.SessionID != "s1" || got.MessageID != "m1" {
		t.Fatalf("unexpected event: %+v", got)
	}
}

func TestPublishWithoutClients(t *testing.T) {
	hub := NewHub()
	// Must not panic or block.
	hub.Publish(session.Event{Type: session.EventSessionCreated, SessionID: "s1"})
}
