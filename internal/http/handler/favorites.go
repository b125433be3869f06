package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"dextrack/internal/auth"
	"dextrack/internal/favorites"
	"dextrack/internal/http/response"
	"dextrack/internal/validate"
)

type FavoriteStore interface {
	List(ctx context.Context, userID string) ([]favorites.Favorite, error)
	Get(ctx context.Context, userID, featureKey string) (favorites.Favorite, bool, error)
	Put(ctx context.Context, userID, featureKey string, title *string) (favorites.Favorite, error)
	Delete(ctx context.Context, userID, featureKey string) error
}

type FavoriteHandler struct {
	Store FavoriteStore
	Valid *validate.Validator
	Owner auth.OwnerPolicy
}

func (h *FavoriteHandler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{featureKey}", h.Get)
	r.Put("/{featureKey}", h.Put)
	r.Delete("/{featureKey}", h.Delete)
}

type featureKeyParams struct {
	FeatureKey string `json:"featureKey" validate:"required,key"`
}

type putFavoriteReq struct {
	UserID string  `json:"userId" validate:"omitempty,max=128"`
	Title  *string `json:"title" validate:"omitempty,max=200"`
}

// favoriteDTO always carries a favorited flag so an absent favorite still
// renders.
type favoriteDTO struct {
	FeatureKey string     `json:"featureKey"`
	Favorited  bool       `json:"favorited"`
	Title      *string    `json:"title"`
	CreatedAt  *time.Time `json:"createdAt,omitempty"`
	UpdatedAt  *time.Time `json:"updatedAt,omitempty"`
}

func toFavoriteDTO(f favorites.Favorite) favoriteDTO {
	return favoriteDTO{
		FeatureKey: f.FeatureKey,
		Favorited:  true,
		Title:      f.Title,
		CreatedAt:  &f.CreatedAt,
		UpdatedAt:  &f.UpdatedAt,
	}
}

func (h *FavoriteHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := targetUser(r, h.Owner, "")
	if err != nil {
		response.Err(w, r, err)
		return
	}

	favs, err := h.Store.List(r.Context(), userID)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	out := make([]favoriteDTO, 0, len(favs))
	for _, f := range favs {
		out = append(out, toFavoriteDTO(f))
	}
	response.Data(w, r, http.StatusOK, out)
}

func (h *FavoriteHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := targetUser(r, h.Owner, "")
	if err != nil {
		response.Err(w, r, err)
		return
	}
	p := featureKeyParams{FeatureKey: chi.URLParam(r, "featureKey")}
	if err := h.Valid.Struct(p); err != nil {
		response.Err(w, r, err)
		return
	}

	f, found, err := h.Store.Get(r.Context(), userID, p.FeatureKey)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	if !found {
		response.Data(w, r, http.StatusOK, favoriteDTO{FeatureKey: p.FeatureKey})
		return
	}
	response.Data(w, r, http.StatusOK, toFavoriteDTO(f))
}

func (h *FavoriteHandler) Put(w http.ResponseWriter, r *http.Request) {
	var req putFavoriteReq
	decodeErr := h.Valid.DecodeJSON(r, &req)
	p := featureKeyParams{FeatureKey: chi.URLParam(r, "featureKey")}
	if err := validate.Join(decodeErr, h.Valid.Struct(p)); err != nil {
		response.Err(w, r, err)
		return
	}
	userID, err := targetUser(r, h.Owner, req.UserID)
	if err != nil {
		response.Err(w, r, err)
		return
	}

	f, err := h.Store.Put(r.Context(), userID, p.FeatureKey, req.Title)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, r, http.StatusOK, toFavoriteDTO(f))
}

func (h *FavoriteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := targetUser(r, h.Owner, "")
	if err != nil {
		response.Err(w, r, err)
		return
	}
	p := featureKeyParams{FeatureKey: chi.URLParam(r, "featureKey")}
	if err := h.Valid.Struct(p); err != nil {
		response.Err(w, r, err)
		return
	}

	if err := h.Store.Delete(r.Context(), userID, p.FeatureKey); err != nil {
		response.Err(w, r, err)
		return
	}
	response.Message(w, r, http.StatusOK, "favorite deleted")
}
