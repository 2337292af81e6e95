package displayname

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abhayaj247/plexidraw-hub/internal/domain"
)

type fakeLookup struct {
	names map[string]string
	calls atomic.Int32
}

func (f *fakeLookup) DisplayName(_ context.Context, userID string) (string, error) {
	f.calls.Add(1)
	name, ok := f.names[userID]
	if !ok {
		return "", domain.ErrNotFound
	}
	return name, nil
}

func TestResolve_GuestShortCircuits(t *testing.T) {
	lookup := &fakeLookup{}
	svc := NewService(lookup, NewMemoryCache(time.Minute, clockwork.NewFakeClock()))

	name := svc.Resolve(domain.Principal{Kind: domain.PrincipalGuest, ID: "guest_ab12cd34e"})

	assert.Equal(t, "guest_ab12cd34e", name)
	assert.Equal(t, int32(0), lookup.calls.Load(), "guests must never hit the gateway")
}

func TestResolve_CachesAuthenticatedLookups(t *testing.T) {
	lookup := &fakeLookup{names: map[string]string{"user-1": "alice"}}
	clock := clockwork.NewFakeClock()
	svc := NewService(lookup, NewMemoryCache(time.Minute, clock))
	p := domain.Principal{Kind: domain.PrincipalAuthenticated, ID: "user-1"}

	require.Equal(t, "alice", svc.Resolve(p))
	require.Equal(t, "alice", svc.Resolve(p))
	assert.Equal(t, int32(1), lookup.calls.Load(), "second resolve should be served from cache")

	clock.Advance(2 * time.Minute)
	require.Equal(t, "alice", svc.Resolve(p))
	assert.Equal(t, int32(2), lookup.calls.Load(), "expired entry should trigger a fresh lookup")
}

func TestResolve_FallsBackToIDWhenAbsent(t *testing.T) {
	lookup := &fakeLookup{}
	svc := NewService(lookup, NewMemoryCache(time.Minute, clockwork.NewFakeClock()))
	p := domain.Principal{Kind: domain.PrincipalAuthenticated, ID: "user-2"}

	assert.Equal(t, "user-2", svc.Resolve(p))

	// Absence is not cached: a user who signs up mid-session gets their
	// name on the next message.
	assert.Equal(t, "user-2", svc.Resolve(p))
	assert.Equal(t, int32(2), lookup.calls.Load())
}
