// Package displayname resolves the sender name attached to chat
// broadcasts. Guests resolve to their own ephemeral ID; authenticated
// users resolve through a TTL cache in front of the persistence gateway,
// with concurrent misses for the same user collapsed into one lookup.
package displayname

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Abhayaj247/plexidraw-hub/internal/domain"
	"github.com/Abhayaj247/plexidraw-hub/internal/metrics"
)

// Cache is a TTL'd user-id → display-name store. Implementations treat
// every failure as a miss; the cache is an optimization, never a source
// of truth.
type Cache interface {
	Get(ctx context.Context, userID string) (string, bool)
	Set(ctx context.Context, userID, name string)
}

// Lookup is the slice of the persistence gateway the service needs.
type Lookup interface {
	DisplayName(ctx context.Context, userID string) (string, error)
}

type Service struct {
	lookup  Lookup
	cache   Cache
	timeout time.Duration
	group   singleflight.Group
}

const lookupTimeout = 2 * time.Second

func NewService(lookup Lookup, cache Cache) *Service {
	return &Service{
		lookup:  lookup,
		cache:   cache,
		timeout: lookupTimeout,
	}
}

// Resolve returns the display name to broadcast for a principal. Lookup
// failures never fail the message: the principal ID is always an
// acceptable fallback.
func (s *Service) Resolve(principal domain.Principal) string {
	if !principal.Authenticated() {
		return principal.ID
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if name, ok := s.cache.Get(ctx, principal.ID); ok {
		metrics.DisplayNameCacheHits.Inc()
		return name
	}
	metrics.DisplayNameCacheMisses.Inc()

	v, err, _ := s.group.Do(principal.ID, func() (any, error) {
		name, err := s.lookup.DisplayName(ctx, principal.ID)
		if err != nil {
			return nil, err
		}
		s.cache.Set(ctx, principal.ID, name)
		return name, nil
	})
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			slog.Warn("Display name lookup failed", "user_id", principal.ID, "error", err)
		}
		return principal.ID
	}

	return v.(string)
}
