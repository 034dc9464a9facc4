package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, hub *Hub) (*httptest.Server, string) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWS(hub, zerolog.Nop(), w, r)
	}))
	t.Cleanup(server.Close)
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	return server, wsURL
}

func dial(t *testing.T, wsURL string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestBroadcastReachesSubscribers(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	_, wsURL := newTestServer(t, hub)

	conn := dial(t, wsURL)

	// Registration goes through the hub loop; give it a moment.
	time.Sleep(50 * time.Millisecond)

	hub.Broadcast(Event{Type: EventOrdersChanged})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, message, err := conn.ReadMessage()
	require.NoError(t, err)

	var event Event
	require.NoError(t, json.Unmarshal(message, &event))
	assert.Equal(t, EventOrdersChanged, event.Type)
}

func TestBroadcastReachesAllClients(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	_, wsURL := newTestServer(t, hub)

	first := dial(t, wsURL)
	second := dial(t, wsURL)
	time.Sleep(50 * time.Millisecond)

	hub.Broadcast(Event{Type: EventMenusChanged})

	for _, conn := range []*websocket.Conn{first, second} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, message, err := conn.ReadMessage()
		require.NoError(t, err)

		var event Event
		require.NoError(t, json.Unmarshal(message, &event))
		assert.Equal(t, EventMenusChanged, event.Type)
	}
}

func TestDisconnectedClientIsUnregistered(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	_, wsURL := newTestServer(t, hub)

	conn := dial(t, wsURL)
	time.Sleep(50 * time.Millisecond)
	conn.Close()
	time.Sleep(100 * time.Millisecond)

	hub.mu.RLock()
	count := len(hub.clients)
	hub.mu.RUnlock()
	assert.Equal(t, 0, count)
}

func TestBroadcastWithoutClientsDoesNotBlock(t *testing.T) {
	hub := NewHub()
	// No Run loop, no clients: Broadcast must still return promptly.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 500; i++ {
			hub.Broadcast(Event{Type: EventOrdersChanged})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Broadcast blocked with no consumers")
	}
}
