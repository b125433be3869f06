package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"dextrack/internal/auth"
	"dextrack/internal/claims"
	"dextrack/internal/http/response"
	"dextrack/internal/validate"
)

type ClaimStore interface {
	List(ctx context.Context, userID string) ([]claims.Claim, error)
	Get(ctx context.Context, userID, eventKey string) (claims.Claim, error)
	Set(ctx context.Context, userID, eventKey string, claimed bool) (claims.Claim, error)
	Delete(ctx context.Context, userID, eventKey string) error
}

type ClaimHandler struct {
	Store ClaimStore
	Valid *validate.Validator
	Owner auth.OwnerPolicy
}

func (h *ClaimHandler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{eventKey}", h.Get)
	r.Put("/{eventKey}", h.Put)
	r.Delete("/{eventKey}", h.Delete)
}

type eventKeyParams struct {
	EventKey string `json:"eventKey" validate:"required,key"`
}

type putClaimReq struct {
	UserID  string `json:"userId" validate:"omitempty,max=128"`
	Claimed *bool  `json:"claimed" validate:"required"`
}

func (h *ClaimHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := targetUser(r, h.Owner, "")
	if err != nil {
		response.Err(w, r, err)
		return
	}

	out, err := h.Store.List(r.Context(), userID)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	if out == nil {
		out = []claims.Claim{}
	}
	response.Data(w, r, http.StatusOK, out)
}

func (h *ClaimHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := targetUser(r, h.Owner, "")
	if err != nil {
		response.Err(w, r, err)
		return
	}
	p := eventKeyParams{EventKey: chi.URLParam(r, "eventKey")}
	if err := h.Valid.Struct(p); err != nil {
		response.Err(w, r, err)
		return
	}

	c, err := h.Store.Get(r.Context(), userID, p.EventKey)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, r, http.StatusOK, c)
}

func (h *ClaimHandler) Put(w http.ResponseWriter, r *http.Request) {
	var req putClaimReq
	decodeErr := h.Valid.DecodeJSON(r, &req)
	p := eventKeyParams{EventKey: chi.URLParam(r, "eventKey")}
	if err := validate.Join(decodeErr, h.Valid.Struct(p)); err != nil {
		response.Err(w, r, err)
		return
	}
	userID, err := targetUser(r, h.Owner, req.UserID)
	if err != nil {
		response.Err(w, r, err)
		return
	}

	c, err := h.Store.Set(r.Context(), userID, p.EventKey, *req.Claimed)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, r, http.StatusOK, c)
}

func (h *ClaimHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := targetUser(r, h.Owner, "")
	if err != nil {
		response.Err(w, r, err)
		return
	}
	p := eventKeyParams{EventKey: chi.URLParam(r, "eventKey")}
	if err := h.Valid.Struct(p); err != nil {
		response.Err(w, r, err)
		return
	}

	if err := h.Store.Delete(r.Context(), userID, p.EventKey); err != nil {
		response.Err(w, r, err)
		return
	}
	response.Message(w, r, http.StatusOK, "claim deleted")
}
