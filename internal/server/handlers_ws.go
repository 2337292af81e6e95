package server

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/Abhayaj247/plexidraw-hub/internal/metrics"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Browser clients connect from a separately hosted frontend.
		return true
	},
}

// handleWebSocket runs the connection handshake: rate limit, capacity
// check, upgrade, credential validation, then the reader loop until the
// transport dies. Credential rejection closes the socket without an
// application message, matching what reconnecting clients expect.
func (s *Server) handleWebSocket(c echo.Context) error {
	ip := c.RealIP()

	ok, reason := s.limits.Acquire(ip)
	if !ok {
		slog.Warn("connection rejected", "reason", string(reason), "ip", ip)
		metrics.ConnectionsTotal.WithLabelValues(string(reason)).Inc()
		return c.NoContent(http.StatusTooManyRequests)
	}
	defer s.limits.Release()

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err, "ip", ip)
		metrics.ConnectionsTotal.WithLabelValues("upgrade_failed").Inc()
		return nil
	}

	principal, err := s.validator.Validate(c.QueryParam("token"))
	if err != nil {
		slog.Info("credential rejected", "error", err, "ip", ip)
		metrics.ConnectionsTotal.WithLabelValues("invalid_credential").Inc()
		ws.Close()
		return nil
	}

	// The hub's registry accounts for accepted and capacity-rejected
	// connections itself.
	conn, err := s.hub.Register(principal, ws)
	if err != nil {
		slog.Warn("hub registration failed", "error", err, "principal_id", principal.ID)
		return nil
	}

	// Blocks until the transport dies; Run unregisters on exit.
	conn.Run()

	return nil
}
