// Package identity turns an optional bearer credential into a Principal.
// Absence of a credential is always valid (guests are welcome); a supplied
// credential that fails verification rejects the connection.
package identity

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Abhayaj247/plexidraw-hub/internal/domain"
)

// ErrInvalidCredential is returned when a supplied credential fails
// signature or expiry verification, or lacks the expected subject claim.
var ErrInvalidCredential = errors.New("invalid credential")

type claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// Validator verifies HS256 bearer tokens issued by the account service.
type Validator struct {
	secret []byte
}

func NewValidator(secret string) *Validator {
	return &Validator{secret: []byte(secret)}
}

// Validate runs exactly once per connection attempt, at handshake time.
// A token that expires after validation does not retroactively close the
// connection; that staleness window is accepted.
func (v *Validator) Validate(credential string) (domain.Principal, error) {
	if credential == "" {
		return domain.Principal{Kind: domain.PrincipalGuest, ID: newGuestID()}, nil
	}

	token, err := jwt.ParseWithClaims(credential, &claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidCredential
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return domain.Principal{}, ErrInvalidCredential
	}

	c, ok := token.Claims.(*claims)
	if !ok || c.UserID == "" {
		return domain.Principal{}, ErrInvalidCredential
	}

	return domain.Principal{Kind: domain.PrincipalAuthenticated, ID: c.UserID}, nil
}

// newGuestID mints a process-local random guest identifier. Guest IDs are
// valid only for the lifetime of one connection and are never used as
// foreign keys into the durable user table.
func newGuestID() string {
	return "guest_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
}
