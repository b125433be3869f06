package handler

import (
	"net/http"

	"github.com/go-chi/render"
)

type HealthHandler struct {
	Service string
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]any{
		"ok":      true,
		"service": h.Service,
	})
}
