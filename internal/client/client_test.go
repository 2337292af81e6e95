package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abhayaj247/plexidraw-hub/internal/domain"
)

// fakeHub is a minimal server side: it accepts connections, records every
// inbound envelope, and lets the test drop connections at will.
type fakeHub struct {
	ts       *httptest.Server
	conns    chan *ws.Conn
	messages chan domain.Envelope
}

func newFakeHub(t *testing.T) *fakeHub {
	t.Helper()

	hub := &fakeHub{
		conns:    make(chan *ws.Conn, 16),
		messages: make(chan domain.Envelope, 64),
	}

	upgrader := ws.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	hub.ts = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.conns <- conn
		for {
			var env domain.Envelope
			if err := conn.ReadJSON(&env); err != nil {
				return
			}
			hub.messages <- env
		}
	}))
	t.Cleanup(hub.ts.Close)

	return hub
}

func (h *fakeHub) url() string {
	return "ws" + strings.TrimPrefix(h.ts.URL, "http")
}

func (h *fakeHub) nextConn(t *testing.T) *ws.Conn {
	t.Helper()
	select {
	case conn := <-h.conns:
		return conn
	case <-time.After(2 * time.Second):
		t.Fatal("no connection arrived")
		return nil
	}
}

func (h *fakeHub) nextMessage(t *testing.T) domain.Envelope {
	t.Helper()
	select {
	case env := <-h.messages:
		return env
	case <-time.After(2 * time.Second):
		t.Fatal("no message arrived")
		return domain.Envelope{}
	}
}

func TestClient_JoinsRoomOnOpen(t *testing.T) {
	hub := newFakeHub(t)

	c := New(Config{URL: hub.url(), Room: "42", Clock: clockwork.NewFakeClock()})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	join := hub.nextMessage(t)
	assert.Equal(t, domain.EventJoinRoom, join.Type)
	assert.Equal(t, domain.RoomID("42"), join.RoomID)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestClient_ReconnectsAfterFixedDelay(t *testing.T) {
	hub := newFakeHub(t)
	clock := clockwork.NewFakeClock()

	c := New(Config{URL: hub.url(), Room: "42", Clock: clock})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	first := hub.nextConn(t)
	hub.nextMessage(t) // join

	// Server drops the connection; the client must arm exactly one timer.
	first.Close()
	clock.BlockUntil(1)
	clock.Advance(5 * time.Second)

	hub.nextConn(t)
	rejoin := hub.nextMessage(t)
	assert.Equal(t, domain.EventJoinRoom, rejoin.Type)
}

func TestClient_RepeatedDialFailuresReArmDelay(t *testing.T) {
	// Point the client at a closed server.
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := "ws" + strings.TrimPrefix(dead.URL, "http")
	dead.Close()

	clock := clockwork.NewFakeClock()
	c := New(Config{URL: url, Room: "42", Clock: clock})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	// Each failed dial arms the fixed delay again.
	clock.BlockUntil(1)
	clock.Advance(5 * time.Second)
	clock.BlockUntil(1)
	clock.Advance(5 * time.Second)
	clock.BlockUntil(1)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestClient_DeliversEvents(t *testing.T) {
	hub := newFakeHub(t)

	events := make(chan domain.ServerEvent, 1)
	c := New(Config{
		URL:     hub.url(),
		Room:    "42",
		Clock:   clockwork.NewFakeClock(),
		OnEvent: func(ev domain.ServerEvent) { events <- ev },
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	conn := hub.nextConn(t)
	hub.nextMessage(t) // join

	require.NoError(t, conn.WriteJSON(domain.ServerEvent{
		Type:    domain.EventChat,
		RoomID:  "42",
		Message: "welcome",
	}))

	select {
	case ev := <-events:
		assert.Equal(t, "welcome", ev.Message)
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}
}

func TestClient_SendHelpers(t *testing.T) {
	hub := newFakeHub(t)

	c := New(Config{URL: hub.url(), Room: "42", Clock: clockwork.NewFakeClock()})

	// Not connected yet.
	require.ErrorIs(t, c.SendChat("too early"), ErrNotConnected)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	hub.nextMessage(t) // join

	require.NoError(t, c.SendChat("hello"))
	chat := hub.nextMessage(t)
	assert.Equal(t, domain.EventChat, chat.Type)
	assert.Equal(t, "hello", chat.Message)

	require.NoError(t, c.SendDrawingCreate(domain.DrawingElement{ClientTempID: "temp-1", Type: "rectangle"}))
	create := hub.nextMessage(t)
	require.NotNil(t, create.Drawing)
	assert.Equal(t, "temp-1", create.Drawing.ClientTempID)

	require.NoError(t, c.SendDrawingDelete("abc"))
	del := hub.nextMessage(t)
	assert.Equal(t, "abc", del.DrawingID)
}

func TestClient_CancelDuringDelayStops(t *testing.T) {
	hub := newFakeHub(t)
	clock := clockwork.NewFakeClock()

	c := New(Config{URL: hub.url(), Room: "42", Clock: clock})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	conn := hub.nextConn(t)
	hub.nextMessage(t)
	conn.Close()

	clock.BlockUntil(1)
	cancel()

	require.ErrorIs(t, <-done, context.Canceled)
	assert.Empty(t, hub.conns, "no reconnect after cancellation")
}

func TestClient_DefaultDelay(t *testing.T) {
	c := New(Config{URL: "ws://localhost"})
	assert.Equal(t, 5*time.Second, c.cfg.ReconnectDelay)
}

func TestClient_BadURL(t *testing.T) {
	c := New(Config{URL: "://bad", Clock: clockwork.NewFakeClock()})
	assert.Error(t, c.runConnection(context.Background()))
}
