package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/dex")
		t.Setenv("JWT_SECRET", "secret")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "dextrack", cfg.ServiceName)
		assert.Equal(t, ":8080", cfg.HTTPAddr)
		assert.Equal(t, AuthModeJWT, cfg.AuthMode)
		assert.Equal(t, []string{"service_role", "admin"}, cfg.ElevatedRoles)
		assert.Equal(t, time.Minute, cfg.IdentityCacheTTL)
		assert.Equal(t, 500, cfg.BatchMaxItems)
		assert.Equal(t, int64(1<<20), cfg.MaxBodyBytes)
		assert.True(t, cfg.DBAutoMigrate)
		assert.False(t, cfg.StripUnknownFields)
		assert.Empty(t, cfg.CORSAllowedOrigins)
	})

	t.Run("overrides_and_bad_values_fall_back", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/dex")
		t.Setenv("JWT_SECRET", "secret")
		t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
		t.Setenv("RL_IP_LIMIT", "not-a-number")
		t.Setenv("IDENTITY_CACHE_TTL", "2m")
		t.Setenv("VALIDATION_STRIP_UNKNOWN", "true")
		t.Setenv("BATCH_MAX_ITEMS", "-3")
		t.Setenv("MAX_BODY_BYTES", "0")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
		assert.Equal(t, 300, cfg.RLLimit)
		assert.Equal(t, 2*time.Minute, cfg.IdentityCacheTTL)
		assert.True(t, cfg.StripUnknownFields)
		assert.Equal(t, 500, cfg.BatchMaxItems)
		assert.Equal(t, int64(1<<20), cfg.MaxBodyBytes)
	})

	t.Run("missing_database_url", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "")
		t.Setenv("JWT_SECRET", "secret")

		_, err := Load()
		assert.ErrorContains(t, err, "DATABASE_URL")
	})

	t.Run("jwt_mode_requires_secret", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/dex")
		t.Setenv("JWT_SECRET", "")

		_, err := Load()
		assert.ErrorContains(t, err, "JWT_SECRET")
	})

	t.Run("remote_mode_requires_identity_url", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/dex")
		t.Setenv("AUTH_MODE", "remote")
		t.Setenv("IDENTITY_URL", "")

		_, err := Load()
		assert.ErrorContains(t, err, "IDENTITY_URL")
	})

	t.Run("remote_mode_trims_trailing_slash", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/dex")
		t.Setenv("AUTH_MODE", "REMOTE")
		t.Setenv("IDENTITY_URL", "https://id.example/")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, AuthModeRemote, cfg.AuthMode)
		assert.Equal(t, "https://id.example", cfg.IdentityURL)
	})

	t.Run("unknown_auth_mode", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/dex")
		t.Setenv("AUTH_MODE", "magic")

		_, err := Load()
		assert.ErrorContains(t, err, "AUTH_MODE")
	})
}
