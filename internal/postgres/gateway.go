package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Abhayaj247/plexidraw-hub/internal/domain"
)

// Gateway persists chat messages and drawing elements. Drawing payloads
// are stored as JSONB so the hub never needs a schema migration when the
// drawing tools grow a new style attribute.
type Gateway struct {
	pool *pgxpool.Pool
}

func NewGateway(pool *pgxpool.Pool) *Gateway {
	return &Gateway{pool: pool}
}

func (g *Gateway) CreateChat(ctx context.Context, roomID domain.RoomID, senderID, message string) error {
	_, err := g.pool.Exec(ctx, `
		INSERT INTO chats (room_id, user_id, message, created_at)
		VALUES ($1, $2, $3, NOW())
	`, string(roomID), senderID, message)
	if err != nil {
		return fmt.Errorf("failed to insert chat: %w", err)
	}
	return nil
}

func (g *Gateway) CreateDrawing(ctx context.Context, roomID domain.RoomID, userID string, el domain.DrawingElement) (domain.DrawingElement, error) {
	stored := el.WithoutClientFields()
	data, err := json.Marshal(stored)
	if err != nil {
		return domain.DrawingElement{}, fmt.Errorf("failed to encode drawing: %w", err)
	}

	var id uuid.UUID
	err = g.pool.QueryRow(ctx, `
		INSERT INTO drawings (room_id, user_id, data, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING id
	`, string(roomID), userID, data).Scan(&id)
	if err != nil {
		return domain.DrawingElement{}, fmt.Errorf("failed to insert drawing: %w", err)
	}

	stored.ID = id.String()
	return stored, nil
}

func (g *Gateway) UpdateDrawing(ctx context.Context, id string, el domain.DrawingElement) (domain.DrawingElement, error) {
	drawingID, err := uuid.Parse(id)
	if err != nil {
		// Optimistic temp IDs never reach the table.
		return domain.DrawingElement{}, domain.ErrNotFound
	}

	stored := el.WithoutClientFields()
	data, err := json.Marshal(stored)
	if err != nil {
		return domain.DrawingElement{}, fmt.Errorf("failed to encode drawing: %w", err)
	}

	err = g.pool.QueryRow(ctx, `
		UPDATE drawings
		SET data = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING id
	`, data, drawingID).Scan(&drawingID)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.DrawingElement{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.DrawingElement{}, fmt.Errorf("failed to update drawing: %w", err)
	}

	stored.ID = drawingID.String()
	return stored, nil
}

func (g *Gateway) DeleteDrawing(ctx context.Context, id string) error {
	drawingID, err := uuid.Parse(id)
	if err != nil {
		return domain.ErrNotFound
	}

	tag, err := g.pool.Exec(ctx, `DELETE FROM drawings WHERE id = $1`, drawingID)
	if err != nil {
		return fmt.Errorf("failed to delete drawing: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (g *Gateway) DisplayName(ctx context.Context, userID string) (string, error) {
	var username string
	err := g.pool.QueryRow(ctx, `SELECT username FROM users WHERE id = $1`, userID).Scan(&username)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up display name: %w", err)
	}
	return username, nil
}

var _ domain.Gateway = (*Gateway)(nil)
