package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abhayaj247/plexidraw-hub/internal/domain"
)

type stubGateway struct {
	err   error
	calls int
}

func (s *stubGateway) CreateChat(context.Context, domain.RoomID, string, string) error {
	s.calls++
	return s.err
}

func (s *stubGateway) CreateDrawing(_ context.Context, _ domain.RoomID, _ string, el domain.DrawingElement) (domain.DrawingElement, error) {
	s.calls++
	return el, s.err
}

func (s *stubGateway) UpdateDrawing(_ context.Context, _ string, el domain.DrawingElement) (domain.DrawingElement, error) {
	s.calls++
	return el, s.err
}

func (s *stubGateway) DeleteDrawing(context.Context, string) error {
	s.calls++
	return s.err
}

func (s *stubGateway) DisplayName(context.Context, string) (string, error) {
	s.calls++
	return "alice", s.err
}

func TestBreaker_PassesThroughWhileClosed(t *testing.T) {
	stub := &stubGateway{}
	gw := NewBreakerGateway(stub)
	ctx := context.Background()

	name, err := gw.DisplayName(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "alice", name)

	el, err := gw.CreateDrawing(ctx, "42", "user-1", domain.DrawingElement{Type: "rectangle"})
	require.NoError(t, err)
	assert.Equal(t, "rectangle", el.Type)
	assert.Equal(t, gobreaker.StateClosed, gw.State())
}

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	stub := &stubGateway{err: errors.New("connection refused")}
	gw := NewBreakerGateway(stub)
	ctx := context.Background()

	for i := 0; i < breakerFailureThreshold; i++ {
		err := gw.CreateChat(ctx, "42", "user-1", "hello")
		require.Error(t, err)
		require.NotErrorIs(t, err, domain.ErrUnavailable, "failures below the threshold must surface the real error")
	}
	require.Equal(t, gobreaker.StateOpen, gw.State())

	callsBefore := stub.calls
	err := gw.CreateChat(ctx, "42", "user-1", "hello")
	assert.ErrorIs(t, err, domain.ErrUnavailable)
	assert.Equal(t, callsBefore, stub.calls, "open circuit must not reach the store")
}

func TestBreaker_NotFoundCountsAsSuccess(t *testing.T) {
	stub := &stubGateway{err: domain.ErrNotFound}
	gw := NewBreakerGateway(stub)
	ctx := context.Background()

	for i := 0; i < breakerFailureThreshold*2; i++ {
		err := gw.DeleteDrawing(ctx, "b2f1f9e2-9f51-4f0a-8c7c-0a4f1f4a5d6e")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	}
	assert.Equal(t, gobreaker.StateClosed, gw.State())
}

func TestBreaker_SuccessResetsFailureStreak(t *testing.T) {
	stub := &stubGateway{err: errors.New("connection refused")}
	gw := NewBreakerGateway(stub)
	ctx := context.Background()

	for i := 0; i < breakerFailureThreshold-1; i++ {
		require.Error(t, gw.CreateChat(ctx, "42", "user-1", "hello"))
	}

	stub.err = nil
	require.NoError(t, gw.CreateChat(ctx, "42", "user-1", "hello"))

	stub.err = errors.New("connection refused")
	for i := 0; i < breakerFailureThreshold-1; i++ {
		require.Error(t, gw.CreateChat(ctx, "42", "user-1", "hello"))
	}
	assert.Equal(t, gobreaker.StateClosed, gw.State())
}
