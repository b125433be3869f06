package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemote_Verify(t *testing.T) {
	exp := time.Now().Add(10 * time.Minute).Truncate(time.Second)
	jwtToken, err := NewJWT("provider-secret", "", "").Sign(Identity{ID: "user-3"}, time.Until(exp))
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/user" || r.Header.Get("apikey") != "anon-key" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch r.Header.Get("Authorization") {
		case "Bearer good":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"user-1","email":"ash@example.com","role":"authenticated"}`))
		case "Bearer admin":
			_, _ = w.Write([]byte(`{"id":"user-2","email":"oak@example.com","role":"authenticated","app_metadata":{"role":"admin"}}`))
		case "Bearer broken":
			w.WriteHeader(http.StatusBadGateway)
		case "Bearer " + jwtToken:
			_, _ = w.Write([]byte(`{"id":"user-3"}`))
		case "Bearer empty":
			_, _ = w.Write([]byte(`{}`))
		default:
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
	defer srv.Close()

	v := NewRemote(srv.URL+"/", "anon-key", time.Second)
	ctx := context.Background()

	t.Run("valid_token", func(t *testing.T) {
		id, err := v.Verify(ctx, "good")
		require.NoError(t, err)
		assert.Equal(t, Identity{ID: "user-1", Email: "ash@example.com", Role: "authenticated"}, id)
	})

	t.Run("app_metadata_role_wins", func(t *testing.T) {
		id, err := v.Verify(ctx, "admin")
		require.NoError(t, err)
		assert.Equal(t, "admin", id.Role)
	})

	t.Run("expiry_read_from_jwt_token", func(t *testing.T) {
		id, err := v.Verify(ctx, jwtToken)
		require.NoError(t, err)
		assert.Equal(t, "user-3", id.ID)
		assert.WithinDuration(t, exp, id.ExpiresAt, time.Second)

		opaque, err := v.Verify(ctx, "good")
		require.NoError(t, err)
		assert.True(t, opaque.ExpiresAt.IsZero())
	})

	t.Run("rejected_token", func(t *testing.T) {
		_, err := v.Verify(ctx, "bad")
		assert.True(t, errors.Is(err, ErrInvalidToken))
	})

	t.Run("provider_failure_is_not_a_rejection", func(t *testing.T) {
		_, err := v.Verify(ctx, "broken")
		require.Error(t, err)
		assert.False(t, errors.Is(err, ErrInvalidToken))
	})

	t.Run("missing_user_id", func(t *testing.T) {
		_, err := v.Verify(ctx, "empty")
		assert.True(t, errors.Is(err, ErrInvalidToken))
	})

	t.Run("unreachable_provider", func(t *testing.T) {
		dead := NewRemote("http://127.0.0.1:1", "", 200*time.Millisecond)
		_, err := dead.Verify(ctx, "good")
		require.Error(t, err)
		assert.False(t, errors.Is(err, ErrInvalidToken))
	})
}
