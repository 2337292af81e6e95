package hub

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/gorilla/websocket"

	"github.com/Abhayaj247/plexidraw-hub/internal/domain"
	"github.com/Abhayaj247/plexidraw-hub/internal/metrics"
)

// Conn is one registered client connection. The reader goroutine (Run)
// processes this connection's messages strictly in arrival order; a
// persistence call suspends only this connection's handling, never the
// hub loop or other connections.
type Conn struct {
	hub       *Hub
	ws        *websocket.Conn
	principal domain.Principal
	writer    *clientWriter
	log       *slog.Logger
}

// Principal returns the validated identity attached to this connection.
func (c *Conn) Principal() domain.Principal {
	return c.principal
}

// Run reads messages until the transport dies, then unregisters the
// connection exactly once so it is promptly excluded from future
// broadcasts.
func (c *Conn) Run() {
	defer c.hub.Unregister(c)

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		c.handleMessage(data)
	}
}

func (c *Conn) handleMessage(data []byte) {
	var env domain.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		// Malformed input is dropped, never surfaced to the client.
		c.log.Debug("Dropping malformed message", "error", err)
		metrics.MalformedMessagesTotal.Inc()
		return
	}

	switch env.Type {
	case domain.EventJoinRoom:
		if env.RoomID == "" {
			return
		}
		metrics.MessagesTotal.WithLabelValues(env.Type).Inc()
		c.hub.Join(c, env.RoomID)
	case domain.EventLeaveRoom:
		room := env.TargetRoom()
		if room == "" {
			return
		}
		metrics.MessagesTotal.WithLabelValues(env.Type).Inc()
		c.hub.Leave(c, room)
	case domain.EventChat:
		metrics.MessagesTotal.WithLabelValues(env.Type).Inc()
		c.handleChat(env)
	case domain.EventDrawingCreate:
		metrics.MessagesTotal.WithLabelValues(env.Type).Inc()
		c.handleDrawingCreate(env)
	case domain.EventDrawingUpdate:
		metrics.MessagesTotal.WithLabelValues(env.Type).Inc()
		c.handleDrawingUpdate(env)
	case domain.EventDrawingDelete:
		metrics.MessagesTotal.WithLabelValues(env.Type).Inc()
		c.handleDrawingDelete(env)
	default:
		c.log.Debug("Dropping message with unknown type", "type", env.Type)
		metrics.MalformedMessagesTotal.Inc()
	}
}

func (c *Conn) handleChat(env domain.Envelope) {
	if env.RoomID == "" || env.Message == "" {
		return
	}
	ctx := context.Background()

	name := c.hub.names.Resolve(c.principal)

	// Guest chat stays ephemeral: a guest's random ID must never become a
	// foreign key in the durable chat table.
	if c.principal.Authenticated() {
		if err := c.hub.gateway.CreateChat(ctx, env.RoomID, c.principal.ID, env.Message); err != nil {
			c.log.Error("Failed to persist chat message", "room_id", string(env.RoomID), "error", err)
			metrics.PersistFailuresTotal.WithLabelValues("create_chat").Inc()
		}
	}

	c.hub.Broadcast(env.RoomID, domain.ServerEvent{
		Type:              domain.EventChat,
		RoomID:            env.RoomID,
		Message:           env.Message,
		SenderDisplayName: name,
	})
}

func (c *Conn) handleDrawingCreate(env domain.Envelope) {
	if env.RoomID == "" || env.Drawing == nil {
		return
	}
	ctx := context.Background()

	el := *env.Drawing
	tempID := el.ClientTempID
	if tempID == "" {
		// Older clients put the optimistic ID in the id field.
		tempID = el.ID
	}

	out := el
	if c.principal.Authenticated() {
		created, err := c.hub.gateway.CreateDrawing(ctx, env.RoomID, c.principal.ID, el)
		if err != nil {
			// Degraded mode: the live view still converges on the
			// client's element even if durability failed.
			c.log.Error("Failed to persist drawing", "room_id", string(env.RoomID), "error", err)
			metrics.PersistFailuresTotal.WithLabelValues("create_drawing").Inc()
		} else {
			out = created
		}
	}
	out.ClientTempID = tempID

	c.hub.Broadcast(env.RoomID, domain.ServerEvent{
		Type:    domain.EventDrawingCreate,
		RoomID:  env.RoomID,
		Drawing: &out,
	})
}

func (c *Conn) handleDrawingUpdate(env domain.Envelope) {
	if env.RoomID == "" || env.Drawing == nil {
		return
	}
	ctx := context.Background()

	el := *env.Drawing
	out := el
	if c.principal.Authenticated() && el.ID != "" {
		updated, err := c.hub.gateway.UpdateDrawing(ctx, el.ID, el)
		if err != nil {
			c.log.Error("Failed to persist drawing update", "drawing_id", el.ID, "error", err)
			metrics.PersistFailuresTotal.WithLabelValues("update_drawing").Inc()
		} else {
			out = updated
		}
	}

	c.hub.Broadcast(env.RoomID, domain.ServerEvent{
		Type:    domain.EventDrawingUpdate,
		RoomID:  env.RoomID,
		Drawing: &out,
	})
}

// handleDrawingDelete always broadcasts the deletion, even when the
// durable store could not be reached: clients converge to "deleted" and
// durability catches up on its own terms. Deleting an element that is
// already gone is not an error.
func (c *Conn) handleDrawingDelete(env domain.Envelope) {
	if env.RoomID == "" || env.DrawingID == "" {
		return
	}
	ctx := context.Background()

	if err := c.hub.gateway.DeleteDrawing(ctx, env.DrawingID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		c.log.Error("Failed to delete drawing", "drawing_id", env.DrawingID, "error", err)
		metrics.PersistFailuresTotal.WithLabelValues("delete_drawing").Inc()
	}

	c.hub.Broadcast(env.RoomID, domain.ServerEvent{
		Type:      domain.EventDrawingDelete,
		RoomID:    env.RoomID,
		DrawingID: env.DrawingID,
	})
}
