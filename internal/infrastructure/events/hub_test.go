package events

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/bekkerfineart/gallery/internal/ports"
)

func startHub(t *testing.T) (*Hub, *httptest.Server, context.CancelFunc, <-chan error) {
	t.Helper()
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hub.RunWithContext(ctx) }()

	upgrader := Upgrader(nil)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.ServeWS(upgrader, w, r)
	}))
	return hub, srv, cancel, done
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestHub_BroadcastsChanges(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub, srv, cancel, done := startHub(t)
	defer srv.Close()
	defer func() {
		cancel()
		<-done
	}()

	a := dial(t, srv)
	defer a.Close()
	b := dial(t, srv)
	defer b.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 10*time.Millisecond)

	hub.Publish(ports.ChangeEvent{Collection: "artworks", Action: ports.ChangeUpdate, ID: "w001", Timestamp: time.Now().UTC()})

	for _, conn := range []*websocket.Conn{a, b} {
		msg := readMessage(t, conn)
		assert.Equal(t, MessageTypeChange, msg.Type)

		var event ports.ChangeEvent
		require.NoError(t, json.Unmarshal(msg.Data, &event))
		assert.Equal(t, "artworks", event.Collection)
		assert.Equal(t, ports.ChangeUpdate, event.Action)
		assert.Equal(t, "w001", event.ID)
	}
}

func TestHub_PingPong(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub, srv, cancel, done := startHub(t)
	defer srv.Close()
	defer func() {
		cancel()
		<-done
	}()

	conn := dial(t, srv)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)))
	assert.Equal(t, MessageTypePong, readMessage(t, conn).Type)
}

func TestHub_ClientDisconnect(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub, srv, cancel, done := startHub(t)
	defer srv.Close()
	defer func() {
		cancel()
		<-done
	}()

	conn := dial(t, srv)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_ShutdownClosesClients(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub, srv, cancel, done := startHub(t)
	defer srv.Close()

	conn := dial(t, srv)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Equal(t, 0, hub.ClientCount())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}

func TestHub_PublishNeverBlocks(t *testing.T) {
	hub := NewHub(nil)
	finished := make(chan struct{})
	go func() {
		for i := 0; i < broadcastBuffer*2; i++ {
			hub.Publish(ports.ChangeEvent{Collection: "sales", Action: ports.ChangeCreate})
		}
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked without a running hub")
	}
}
