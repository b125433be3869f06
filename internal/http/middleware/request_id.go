package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"dextrack/internal/http/response"
)

// RequestID echoes the caller's X-Request-Id or assigns a new one.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(response.HeaderXRequestID)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(response.HeaderXRequestID, id)
		next.ServeHTTP(w, r)
	})
}
