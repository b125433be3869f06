package claims

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dextrack/internal/db/dbtest"
)

func newRepo(t *testing.T, now time.Time) *Repo {
	t.Helper()
	return &Repo{
		DB:  dbtest.Open(t, Migrate),
		Log: zerolog.Nop(),
		Now: func() time.Time { return now },
	}
}

func TestRepo_Claims(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 10, 16, 9, 30, 0, 0, time.UTC)
	repo := newRepo(t, now)

	t.Run("missing_claim_reads_unclaimed", func(t *testing.T) {
		c, err := repo.Get(ctx, "user-1", "mystery-gift-01")
		require.NoError(t, err)
		assert.False(t, c.Claimed)
		assert.Nil(t, c.ClaimedAt)
		assert.Equal(t, "mystery-gift-01", c.EventKey)
	})

	t.Run("claim_stamps_claimed_at", func(t *testing.T) {
		c, err := repo.Set(ctx, "user-1", "mystery-gift-01", true)
		require.NoError(t, err)
		assert.True(t, c.Claimed)
		require.NotNil(t, c.ClaimedAt)
		assert.True(t, c.ClaimedAt.Equal(now))
	})

	t.Run("unclaim_clears_claimed_at_and_keeps_one_row", func(t *testing.T) {
		c, err := repo.Set(ctx, "user-1", "mystery-gift-01", false)
		require.NoError(t, err)
		assert.False(t, c.Claimed)
		assert.Nil(t, c.ClaimedAt)

		all, err := repo.List(ctx, "user-1")
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("list_is_per_user", func(t *testing.T) {
		_, err := repo.Set(ctx, "user-2", "mystery-gift-02", true)
		require.NoError(t, err)

		all, err := repo.List(ctx, "user-2")
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, "mystery-gift-02", all[0].EventKey)
	})

	t.Run("delete_is_idempotent", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, "user-2", "mystery-gift-02"))
		require.NoError(t, repo.Delete(ctx, "user-2", "mystery-gift-02"))

		c, err := repo.Get(ctx, "user-2", "mystery-gift-02")
		require.NoError(t, err)
		assert.False(t, c.Claimed)
	})
}
