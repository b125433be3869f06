package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"dextrack/internal/apperr"
	"dextrack/internal/http/response"
)

// RequireAuth rejects requests without a verifiable bearer token and stores
// the caller's Identity in the request context.
func RequireAuth(v Verifier, log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				response.Err(w, r, apperr.Unauthenticated("missing bearer token", nil))
				return
			}

			id, err := v.Verify(r.Context(), token)
			if err != nil {
				if errors.Is(err, ErrInvalidToken) {
					log.Debug().Err(err).Msg("token rejected")
					response.Err(w, r, apperr.Unauthenticated("invalid token", err))
					return
				}
				response.Err(w, r, apperr.Internal("identity provider unavailable", err))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// bearerToken extracts the token from an Authorization header. The scheme
// is matched case-insensitively.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// OwnerPolicy decides whether the caller may act on another user's data.
type OwnerPolicy struct {
	ElevatedRoles []string
}

func (p OwnerPolicy) Elevated(id Identity) bool {
	if id.Role == "" {
		return false
	}
	for _, r := range p.ElevatedRoles {
		if r == id.Role {
			return true
		}
	}
	return false
}

// Check passes when target is empty, is the caller, or the caller is elevated.
func (p OwnerPolicy) Check(id Identity, target string) error {
	if target == "" || target == id.ID || p.Elevated(id) {
		return nil
	}
	return apperr.Forbidden("cannot access another user's data")
}

// RequireParam applies Check to the chi URL parameter named param.
func (p OwnerPolicy) RequireParam(param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok {
				response.Err(w, r, apperr.Unauthenticated("missing identity", nil))
				return
			}
			if err := p.Check(id, chi.URLParam(r, param)); err != nil {
				response.Err(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
