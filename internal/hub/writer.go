package hub

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/Abhayaj247/plexidraw-hub/internal/metrics"
)

const (
	writeDeadline     = 5 * time.Second
	pingInterval      = 30 * time.Second
	pongDeadline      = 60 * time.Second
	messageBufferSize = 16
)

// clientWriter serializes all writes to a single WebSocket connection.
// Broadcast delivery goes through the buffered send channel; keepalive
// pings ride the same goroutine so no two writes ever race.
type clientWriter struct {
	conn     *websocket.Conn
	clock    clockwork.Clock
	sendCh   chan []byte
	doneCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func newClientWriter(conn *websocket.Conn, clock clockwork.Clock) *clientWriter {
	cw := &clientWriter{
		conn:   conn,
		clock:  clock,
		sendCh: make(chan []byte, messageBufferSize),
		doneCh: make(chan struct{}),
	}
	cw.configurePongHandler()
	cw.wg.Add(1)
	go cw.run()
	return cw
}

func (cw *clientWriter) run() {
	ticker := cw.clock.NewTicker(pingInterval)
	defer ticker.Stop()
	defer cw.wg.Done()

	for {
		select {
		case msg, ok := <-cw.sendCh:
			if !ok {
				return
			}
			cw.updateWriteDeadline()
			if err := cw.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.Chan():
			cw.updateWriteDeadline()
			if err := cw.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				metrics.WebSocketPingFailures.Inc()
				return
			}
		case <-cw.doneCh:
			return
		}
	}
}

func (cw *clientWriter) stop() {
	cw.stopOnce.Do(func() {
		close(cw.doneCh)
		_ = cw.conn.Close()
	})
	cw.wg.Wait()
}

// stopGraceful sends a close frame with reason before closing. The run
// goroutine must have exited before the frame is written, otherwise two
// goroutines would write to the connection concurrently.
func (cw *clientWriter) stopGraceful(reason string) {
	cw.stopOnce.Do(func() {
		close(cw.doneCh)
		cw.wg.Wait()

		closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
		cw.updateWriteDeadline()
		_ = cw.conn.WriteMessage(websocket.CloseMessage, closeMsg)
		_ = cw.conn.Close()
	})
	cw.wg.Wait()
}

func (cw *clientWriter) configurePongHandler() {
	cw.updateReadDeadline()
	cw.conn.SetPongHandler(func(string) error {
		cw.updateReadDeadline()
		return nil
	})
}

func (cw *clientWriter) updateWriteDeadline() {
	_ = cw.conn.SetWriteDeadline(cw.clock.Now().Add(writeDeadline))
}

func (cw *clientWriter) updateReadDeadline() {
	_ = cw.conn.SetReadDeadline(cw.clock.Now().Add(pongDeadline))
}
