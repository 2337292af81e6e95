package postgres

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/Abhayaj247/plexidraw-hub/internal/domain"
	"github.com/Abhayaj247/plexidraw-hub/internal/metrics"
)

const (
	breakerFailureThreshold = 5
	breakerOpenTimeout      = 30 * time.Second
)

// BreakerGateway wraps a gateway with a circuit breaker. When the store
// is down, consecutive failures open the circuit and every call fails
// fast with domain.ErrUnavailable instead of stacking up on a dead
// connection pool. ErrNotFound counts as success: an absent row is an
// answer, not an outage.
type BreakerGateway struct {
	next domain.Gateway
	cb   *gobreaker.CircuitBreaker
}

func NewBreakerGateway(next domain.Gateway) *BreakerGateway {
	settings := gobreaker.Settings{
		Name:    "persistence",
		Timeout: breakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailureThreshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, domain.ErrNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("persistence circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
			metrics.GatewayBreakerStateChanges.WithLabelValues(to.String()).Inc()
		},
	}

	return &BreakerGateway{
		next: next,
		cb:   gobreaker.NewCircuitBreaker(settings),
	}
}

func (b *BreakerGateway) execute(op func() (any, error)) (any, error) {
	res, err := b.cb.Execute(op)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, domain.ErrUnavailable
	}
	return res, err
}

func (b *BreakerGateway) CreateChat(ctx context.Context, roomID domain.RoomID, senderID, message string) error {
	_, err := b.execute(func() (any, error) {
		return nil, b.next.CreateChat(ctx, roomID, senderID, message)
	})
	return err
}

func (b *BreakerGateway) CreateDrawing(ctx context.Context, roomID domain.RoomID, userID string, el domain.DrawingElement) (domain.DrawingElement, error) {
	res, err := b.execute(func() (any, error) {
		return b.next.CreateDrawing(ctx, roomID, userID, el)
	})
	if err != nil {
		return domain.DrawingElement{}, err
	}
	return res.(domain.DrawingElement), nil
}

func (b *BreakerGateway) UpdateDrawing(ctx context.Context, id string, el domain.DrawingElement) (domain.DrawingElement, error) {
	res, err := b.execute(func() (any, error) {
		return b.next.UpdateDrawing(ctx, id, el)
	})
	if err != nil {
		return domain.DrawingElement{}, err
	}
	return res.(domain.DrawingElement), nil
}

func (b *BreakerGateway) DeleteDrawing(ctx context.Context, id string) error {
	_, err := b.execute(func() (any, error) {
		return nil, b.next.DeleteDrawing(ctx, id)
	})
	return err
}

func (b *BreakerGateway) DisplayName(ctx context.Context, userID string) (string, error) {
	res, err := b.execute(func() (any, error) {
		return b.next.DisplayName(ctx, userID)
	})
	if err != nil {
		return "", err
	}
	return res.(string), nil
}

// State exposes the breaker state for readiness reporting and tests.
func (b *BreakerGateway) State() gobreaker.State {
	return b.cb.State()
}

var _ domain.Gateway = (*BreakerGateway)(nil)
