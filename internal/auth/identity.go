package auth

import (
	"context"
	"errors"
	"time"
)

// ErrInvalidToken is returned by verifiers when the provider rejects the
// token. Any other verifier error means the provider could not be asked.
var ErrInvalidToken = errors.New("invalid token")

// Identity is the verified caller as reported by the identity provider.
// ExpiresAt is when the token it was read from stops being valid; zero when
// unknown.
type Identity struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expiresAt,omitzero"`
}

// Expired reports whether the token behind id is no longer valid at now.
func (id Identity) Expired(now time.Time) bool {
	return !id.ExpiresAt.IsZero() && !now.Before(id.ExpiresAt)
}

type Verifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

type ctxKey string

const identityKey ctxKey = "identity"

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}
