// Command roomtail connects to a hub, joins one room, and prints every
// event it receives. Useful for watching a whiteboard session from a
// terminal and for smoke-testing a deployment.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Abhayaj247/plexidraw-hub/internal/client"
	"github.com/Abhayaj247/plexidraw-hub/internal/domain"
	"github.com/Abhayaj247/plexidraw-hub/internal/logging"
)

func main() {
	var (
		url   = flag.String("url", "ws://localhost:8080/ws", "hub WebSocket endpoint")
		room  = flag.String("room", "", "room to join (required)")
		token = flag.String("token", "", "JWT credential; empty connects as guest")
	)
	flag.Parse()

	logging.InitLogger("info", "text")

	if *room == "" {
		fmt.Fprintln(os.Stderr, "usage: roomtail -room <id> [-url ws://...] [-token <jwt>]")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := client.New(client.Config{
		URL:     *url,
		Token:   *token,
		Room:    domain.RoomID(*room),
		OnEvent: printEvent,
	})

	slog.Info("Tailing room", "room", *room, "url", *url)
	if err := c.Run(ctx); err != nil && ctx.Err() == nil {
		slog.Error("Client stopped", "error", err)
		os.Exit(1)
	}
}

func printEvent(ev domain.ServerEvent) {
	switch ev.Type {
	case domain.EventChat:
		fmt.Printf("[%s] %s: %s\n", ev.RoomID, ev.SenderDisplayName, ev.Message)
	case domain.EventDrawingCreate, domain.EventDrawingUpdate:
		if ev.Drawing != nil {
			fmt.Printf("[%s] %s %s id=%s at (%.0f,%.0f)\n",
				ev.RoomID, ev.Type, ev.Drawing.Type, ev.Drawing.ID, ev.Drawing.X, ev.Drawing.Y)
		}
	case domain.EventDrawingDelete:
		fmt.Printf("[%s] %s id=%s\n", ev.RoomID, ev.Type, ev.DrawingID)
	default:
		fmt.Printf("[%s] %s\n", ev.RoomID, ev.Type)
	}
}
