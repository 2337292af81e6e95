package domain

import (
	"context"
	"errors"
)

// Sentinel errors shared across the persistence boundary.
var (
	// ErrNotFound indicates the referenced row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnavailable indicates the persistence store cannot be reached
	// right now (e.g. the circuit breaker is open). The hub degrades to
	// live-only broadcasting when it sees this.
	ErrUnavailable = errors.New("persistence unavailable")
)

// PrincipalKind distinguishes verified users from ephemeral guests.
type PrincipalKind string

const (
	PrincipalGuest         PrincipalKind = "guest"
	PrincipalAuthenticated PrincipalKind = "authenticated"
)

// Principal is the validated identity attached to a connection. Guests get
// a process-local random ID minted at connect time; authenticated
// principals carry the verified user ID from their credential.
type Principal struct {
	Kind PrincipalKind
	ID   string
}

// Authenticated reports whether the principal holds a verified identity.
// Only authenticated principals may own durable rows: a guest ID must
// never be written as a foreign key into the user table.
func (p Principal) Authenticated() bool {
	return p.Kind == PrincipalAuthenticated
}

// Gateway is the durable store for chat messages and drawing elements.
// It is consulted by the hub but owned by the CRUD service, which also
// owns the schema.
type Gateway interface {
	CreateChat(ctx context.Context, roomID RoomID, senderID, message string) error
	CreateDrawing(ctx context.Context, roomID RoomID, userID string, el DrawingElement) (DrawingElement, error)
	UpdateDrawing(ctx context.Context, id string, el DrawingElement) (DrawingElement, error)
	// DeleteDrawing returns ErrNotFound when no row matches; callers treat
	// that as a successful idempotent delete.
	DeleteDrawing(ctx context.Context, id string) error
	// DisplayName returns ErrNotFound when the user has no profile row.
	DisplayName(ctx context.Context, userID string) (string, error)
}
