package handler

import (
	"net/http"

	"dextrack/internal/apperr"
	"dextrack/internal/auth"
	"dextrack/internal/http/response"
)

type MeHandler struct {
	Owner auth.OwnerPolicy
}

type meDTO struct {
	auth.Identity
	Elevated bool `json:"elevated"`
}

func (h *MeHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		response.Err(w, r, apperr.Unauthenticated("missing identity", nil))
		return
	}
	response.Data(w, r, http.StatusOK, meDTO{Identity: id, Elevated: h.Owner.Elevated(id)})
}
