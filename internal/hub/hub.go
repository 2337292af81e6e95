// Package hub implements the realtime room-broadcast core: a connection
// registry, a room router, and the event fan-out loop.
//
// All registry state is owned by a single goroutine and mutated only
// through the command channel, so membership reads and writes never race.
// Each connection additionally gets a reader goroutine (which may suspend
// on persistence calls without blocking anyone else) and a writer
// goroutine (so one slow recipient never delays the rest of a room).
package hub

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/Abhayaj247/plexidraw-hub/internal/domain"
	"github.com/Abhayaj247/plexidraw-hub/internal/logging"
	"github.com/Abhayaj247/plexidraw-hub/internal/metrics"
)

const (
	commandTimeout = 5 * time.Second
	stopTimeout    = 10 * time.Second
)

// NameResolver resolves the display name broadcast with chat messages.
type NameResolver interface {
	Resolve(principal domain.Principal) string
}

type roomSet map[domain.RoomID]struct{}

// --- Command types ---

type hubCmd interface{ hubCmd() }

type baseCmd struct{}

func (baseCmd) hubCmd() {}

type registerCmd struct {
	baseCmd
	conn  *Conn
	errCh chan error
}

type unregisterCmd struct {
	baseCmd
	conn *Conn
}

type joinCmd struct {
	baseCmd
	conn *Conn
	room domain.RoomID
}

type leaveCmd struct {
	baseCmd
	conn *Conn
	room domain.RoomID
}

type broadcastCmd struct {
	baseCmd
	room domain.RoomID
	data []byte
}

type roomCountCmd struct {
	baseCmd
	room    domain.RoomID
	replyCh chan int
}

type connCountCmd struct {
	baseCmd
	replyCh chan int
}

type stopCmd struct{ baseCmd }

// --- Hub ---

// Hub is the broadcast actor. Its run goroutine exclusively owns the
// connection registry and the derived per-room member counts.
type Hub struct {
	cmdCh          chan hubCmd
	conns          map[*Conn]roomSet
	roomCounts     map[domain.RoomID]int
	gateway        domain.Gateway
	names          NameResolver
	clock          clockwork.Clock
	maxConnections int
	maxRoomClients int
	done           chan struct{}
}

// New creates and starts a hub. maxConnections caps the registry size;
// maxRoomClients caps membership per room; zero disables either cap.
func New(gateway domain.Gateway, names NameResolver, clock clockwork.Clock, maxConnections, maxRoomClients int) *Hub {
	h := &Hub{
		cmdCh:          make(chan hubCmd, 256),
		conns:          make(map[*Conn]roomSet),
		roomCounts:     make(map[domain.RoomID]int),
		gateway:        gateway,
		names:          names,
		clock:          clock,
		maxConnections: maxConnections,
		maxRoomClients: maxRoomClients,
		done:           make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	defer close(h.done)

	for cmd := range h.cmdCh {
		switch c := cmd.(type) {
		case registerCmd:
			h.handleRegister(c)
		case unregisterCmd:
			h.handleUnregister(c.conn)
		case joinCmd:
			h.handleJoin(c.conn, c.room)
		case leaveCmd:
			h.handleLeave(c.conn, c.room)
		case broadcastCmd:
			h.handleBroadcast(c.room, c.data)
		case roomCountCmd:
			c.replyCh <- h.roomCounts[c.room]
		case connCountCmd:
			c.replyCh <- len(h.conns)
		case stopCmd:
			h.handleStop()
			return
		default:
			slog.Warn("Hub received unknown command type", "command_type", fmt.Sprintf("%T", cmd))
		}
	}
}

func (h *Hub) handleRegister(c registerCmd) {
	if h.maxConnections > 0 && len(h.conns) >= h.maxConnections {
		slog.Warn("Rejecting connection: max connections reached", "max_connections", h.maxConnections)
		metrics.ConnectionsTotal.WithLabelValues("rejected_capacity").Inc()
		c.conn.ws.Close()
		c.errCh <- fmt.Errorf("max connections (%d) reached", h.maxConnections)
		return
	}

	c.conn.writer = newClientWriter(c.conn.ws, h.clock)
	h.conns[c.conn] = make(roomSet)

	metrics.ConnectionsActive.Set(float64(len(h.conns)))
	metrics.ConnectionsTotal.WithLabelValues("accepted").Inc()

	slog.Debug("Connection registered",
		"principal_kind", string(c.conn.principal.Kind),
		"principal_id", c.conn.principal.ID,
		"total_connections", len(h.conns),
	)
	c.errCh <- nil
}

// handleUnregister removes a connection and all of its memberships. Safe
// to call for a connection that never completed registration, and runs at
// most once per connection because the registry lookup guards it.
func (h *Hub) handleUnregister(conn *Conn) {
	rooms, exists := h.conns[conn]
	if !exists {
		return
	}

	for room := range rooms {
		h.decrRoomCount(room)
	}
	conn.writer.stop()
	delete(h.conns, conn)

	metrics.ConnectionsActive.Set(float64(len(h.conns)))
	slog.Debug("Connection unregistered",
		"principal_id", conn.principal.ID,
		"remaining_connections", len(h.conns),
	)
}

func (h *Hub) handleJoin(conn *Conn, room domain.RoomID) {
	rooms, exists := h.conns[conn]
	if !exists {
		return
	}
	if _, member := rooms[room]; member {
		// Joining twice is the same as joining once.
		return
	}
	if h.maxRoomClients > 0 && h.roomCounts[room] >= h.maxRoomClients {
		slog.Warn("Ignoring join: room is full",
			"room_id", string(room),
			"max_room_clients", h.maxRoomClients,
		)
		return
	}

	rooms[room] = struct{}{}
	if h.roomCounts[room] == 0 {
		metrics.RoomsActive.Set(float64(len(h.roomCounts) + 1))
	}
	h.roomCounts[room]++
	slog.Debug("Joined room", "room_id", string(room), "principal_id", conn.principal.ID, "members", h.roomCounts[room])
}

// handleLeave removes exactly the named room from the connection's
// membership set; every other membership is untouched.
func (h *Hub) handleLeave(conn *Conn, room domain.RoomID) {
	rooms, exists := h.conns[conn]
	if !exists {
		return
	}
	if _, member := rooms[room]; !member {
		return
	}

	delete(rooms, room)
	h.decrRoomCount(room)
	slog.Debug("Left room", "room_id", string(room), "principal_id", conn.principal.ID)
}

func (h *Hub) decrRoomCount(room domain.RoomID) {
	h.roomCounts[room]--
	if h.roomCounts[room] <= 0 {
		delete(h.roomCounts, room)
		metrics.RoomsActive.Set(float64(len(h.roomCounts)))
	}
}

// handleBroadcast fans data out to every member of the room, including
// the sender. Sends are non-blocking: a member whose buffer is full is
// marked slow and evicted after the loop so one bad recipient never
// stalls delivery to the rest.
func (h *Hub) handleBroadcast(room domain.RoomID, data []byte) {
	var slow []*Conn
	recipients := 0

	for conn, rooms := range h.conns {
		if _, member := rooms[room]; !member {
			continue
		}
		recipients++
		select {
		case conn.writer.sendCh <- data:
		default:
			slow = append(slow, conn)
		}
	}

	metrics.BroadcastFanout.Observe(float64(recipients))

	for _, conn := range slow {
		slog.Warn("Disconnecting slow client", "room_id", string(room), "principal_id", conn.principal.ID)
		metrics.SlowClientsEvicted.Inc()
		h.handleUnregister(conn)
	}
}

func (h *Hub) handleStop() {
	total := len(h.conns)
	slog.Info("Hub shutting down", "connections", total)

	for conn := range h.conns {
		conn.writer.stopGraceful("Server shutting down")
		delete(h.conns, conn)
	}
	h.roomCounts = make(map[domain.RoomID]int)
	metrics.ConnectionsActive.Set(0)
	metrics.RoomsActive.Set(0)

	slog.Info("Hub shutdown complete", "disconnected_connections", total)
}

// --- Public API ---

// Register adds a validated connection to the registry and returns its
// handle. The returned Conn is not a member of any room until the client
// sends join_room. On error the underlying socket is already closed.
func (h *Hub) Register(principal domain.Principal, ws *websocket.Conn) (*Conn, error) {
	conn := &Conn{
		hub:       h,
		ws:        ws,
		principal: principal,
		log:       logging.WithPrincipal(string(principal.Kind), principal.ID),
	}

	errCh := make(chan error, 1)
	h.cmdCh <- registerCmd{conn: conn, errCh: errCh}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case err := <-errCh:
		if err != nil {
			return nil, err
		}
		return conn, nil
	case <-timer.Chan():
		return nil, fmt.Errorf("register command timed out after %v", commandTimeout)
	}
}

// Unregister removes a connection. Calling it for a connection that was
// never registered, or twice for the same connection, is a no-op.
func (h *Hub) Unregister(conn *Conn) {
	h.cmdCh <- unregisterCmd{conn: conn}
}

// Join adds the connection to a room. Idempotent.
func (h *Hub) Join(conn *Conn, room domain.RoomID) {
	h.cmdCh <- joinCmd{conn: conn, room: room}
}

// Leave removes the connection from a room. Removes only that room.
func (h *Hub) Leave(conn *Conn, room domain.RoomID) {
	h.cmdCh <- leaveCmd{conn: conn, room: room}
}

// Broadcast fans an event out to the current members of a room.
func (h *Hub) Broadcast(room domain.RoomID, event domain.ServerEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("Failed to marshal broadcast event", "error", err)
		return
	}
	h.cmdCh <- broadcastCmd{room: room, data: data}
}

// RoomCount returns the number of connections currently in a room, or -1
// if the query times out.
func (h *Hub) RoomCount(room domain.RoomID) int {
	replyCh := make(chan int, 1)
	h.cmdCh <- roomCountCmd{room: room, replyCh: replyCh}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case count := <-replyCh:
		return count
	case <-timer.Chan():
		slog.Warn("RoomCount timed out", "timeout", commandTimeout)
		return -1
	}
}

// ConnectionCount returns the registry size, or -1 on timeout.
func (h *Hub) ConnectionCount() int {
	replyCh := make(chan int, 1)
	h.cmdCh <- connCountCmd{replyCh: replyCh}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case count := <-replyCh:
		return count
	case <-timer.Chan():
		slog.Warn("ConnectionCount timed out", "timeout", commandTimeout)
		return -1
	}
}

// Stop shuts the hub down, closing every client connection. Blocks until
// the run goroutine has exited or the stop timeout is reached.
func (h *Hub) Stop() {
	h.cmdCh <- stopCmd{}

	timer := h.clock.NewTimer(stopTimeout)
	defer timer.Stop()

	select {
	case <-h.done:
		slog.Info("Hub stopped gracefully")
	case <-timer.Chan():
		slog.Warn("Hub stop timeout exceeded", "timeout", stopTimeout)
	}
}
