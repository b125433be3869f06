package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"dextrack/internal/apperr"
	"dextrack/internal/auth"
)

// UserParam is the URL parameter naming the user a request acts on.
const UserParam = "userId"

// targetUser resolves whose data the request touches: the {userId} path
// parameter, else a userId in the body, else the caller. Anyone other than
// the caller requires an elevated role.
func targetUser(r *http.Request, owner auth.OwnerPolicy, bodyUserID string) (string, error) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		return "", apperr.Unauthenticated("missing identity", nil)
	}

	target := chi.URLParam(r, UserParam)
	switch {
	case target == "":
		target = bodyUserID
	case bodyUserID != "" && bodyUserID != target:
		return "", apperr.Validation("request validation failed", apperr.FieldError{
			Field:   "userId",
			Message: "userId does not match the user in the path",
		})
	}

	if target == "" {
		return id.ID, nil
	}
	if err := owner.Check(id, target); err != nil {
		return "", err
	}
	return target, nil
}
