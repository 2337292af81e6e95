// Package client implements the whiteboard's WebSocket client side: a
// connection that joins its room on open, delivers decoded events to a
// handler, and reconnects with a fixed delay when the transport dies.
package client

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/Abhayaj247/plexidraw-hub/internal/domain"
)

// ErrNotConnected is returned by send helpers while the transport is down.
var ErrNotConnected = errors.New("not connected")

const defaultReconnectDelay = 5 * time.Second

type Config struct {
	// URL is the ws:// or wss:// endpoint.
	URL string
	// Token is the optional credential appended as a query parameter.
	// Empty means connect as a guest.
	Token string
	// Room is joined automatically every time the connection opens.
	Room domain.RoomID
	// ReconnectDelay is the fixed wait between a lost connection and the
	// next attempt. Defaults to 5 seconds.
	ReconnectDelay time.Duration
	// OnEvent receives every decoded server event. May be nil.
	OnEvent func(domain.ServerEvent)

	Clock  clockwork.Clock
	Dialer *websocket.Dialer
}

type Client struct {
	cfg Config

	mu   sync.Mutex
	conn *websocket.Conn
}

func New(cfg Config) *Client {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = defaultReconnectDelay
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Dialer == nil {
		cfg.Dialer = websocket.DefaultDialer
	}
	return &Client{cfg: cfg}
}

// Run connects and keeps the connection alive until ctx is cancelled.
// Every lost connection schedules exactly one reconnect attempt after the
// configured delay; a failed attempt re-arms the same delay.
func (c *Client) Run(ctx context.Context) error {
	for {
		err := c.runConnection(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		slog.Warn("connection lost, reconnecting",
			"error", err,
			"delay", c.cfg.ReconnectDelay,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.cfg.Clock.After(c.cfg.ReconnectDelay):
		}
	}
}

func (c *Client) runConnection(ctx context.Context) error {
	endpoint, err := c.endpoint()
	if err != nil {
		return err
	}

	conn, _, err := c.cfg.Dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return err
	}

	c.setConn(conn)
	defer c.setConn(nil)
	defer conn.Close()

	// Unblock the read loop when the caller cancels.
	watcherDone := make(chan struct{})
	defer close(watcherDone)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-watcherDone:
		}
	}()

	if err := c.send(domain.Envelope{Type: domain.EventJoinRoom, RoomID: c.cfg.Room}); err != nil {
		return err
	}

	for {
		var event domain.ServerEvent
		if err := conn.ReadJSON(&event); err != nil {
			return err
		}
		if c.cfg.OnEvent != nil {
			c.cfg.OnEvent(event)
		}
	}
}

func (c *Client) endpoint() (string, error) {
	u, err := url.Parse(c.cfg.URL)
	if err != nil {
		return "", err
	}
	if c.cfg.Token != "" {
		q := u.Query()
		q.Set("token", c.cfg.Token)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func (c *Client) setConn(conn *websocket.Conn) {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
}

func (c *Client) send(env domain.Envelope) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return ErrNotConnected
	}
	return c.conn.WriteJSON(env)
}

func (c *Client) SendChat(message string) error {
	return c.send(domain.Envelope{
		Type:    domain.EventChat,
		RoomID:  c.cfg.Room,
		Message: message,
	})
}

func (c *Client) SendDrawingCreate(el domain.DrawingElement) error {
	return c.send(domain.Envelope{
		Type:    domain.EventDrawingCreate,
		RoomID:  c.cfg.Room,
		Drawing: &el,
	})
}

func (c *Client) SendDrawingUpdate(el domain.DrawingElement) error {
	return c.send(domain.Envelope{
		Type:    domain.EventDrawingUpdate,
		RoomID:  c.cfg.Room,
		Drawing: &el,
	})
}

func (c *Client) SendDrawingDelete(drawingID string) error {
	return c.send(domain.Envelope{
		Type:      domain.EventDrawingDelete,
		RoomID:    c.cfg.Room,
		DrawingID: drawingID,
	})
}
