package auth

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingVerifier struct {
	calls atomic.Int32
	id    Identity
	err   error
}

func (v *countingVerifier) Verify(context.Context, string) (Identity, error) {
	v.calls.Add(1)
	return v.id, v.err
}

func newCached(t *testing.T, inner Verifier) (*Cached, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return &Cached{Inner: inner, RDB: rdb, TTL: time.Minute, Log: zerolog.Nop()}, mr
}

func TestCached_Verify(t *testing.T) {
	ctx := context.Background()

	t.Run("second_call_is_served_from_cache", func(t *testing.T) {
		inner := &countingVerifier{id: Identity{ID: "user-1", Role: "authenticated"}}
		c, mr := newCached(t, inner)

		for i := 0; i < 3; i++ {
			id, err := c.Verify(ctx, "tok")
			require.NoError(t, err)
			assert.Equal(t, "user-1", id.ID)
		}
		assert.Equal(t, int32(1), inner.calls.Load())

		key := cacheKey("tok")
		assert.True(t, mr.Exists(key))
		assert.NotContains(t, key, "tok")
		assert.Equal(t, time.Minute, mr.TTL(key))
	})

	t.Run("entries_expire", func(t *testing.T) {
		inner := &countingVerifier{id: Identity{ID: "user-1"}}
		c, mr := newCached(t, inner)

		_, err := c.Verify(ctx, "tok")
		require.NoError(t, err)
		mr.FastForward(2 * time.Minute)
		_, err = c.Verify(ctx, "tok")
		require.NoError(t, err)

		assert.Equal(t, int32(2), inner.calls.Load())
	})

	t.Run("rejections_are_not_cached", func(t *testing.T) {
		inner := &countingVerifier{err: ErrInvalidToken}
		c, mr := newCached(t, inner)

		for i := 0; i < 2; i++ {
			_, err := c.Verify(ctx, "tok")
			assert.True(t, errors.Is(err, ErrInvalidToken))
		}
		assert.Equal(t, int32(2), inner.calls.Load())
		assert.False(t, mr.Exists(cacheKey("tok")))
	})

	t.Run("entry_never_outlives_the_token", func(t *testing.T) {
		inner := &countingVerifier{id: Identity{ID: "user-1", ExpiresAt: time.Now().Add(10 * time.Second)}}
		c, mr := newCached(t, inner)

		_, err := c.Verify(ctx, "tok")
		require.NoError(t, err)

		ttl := mr.TTL(cacheKey("tok"))
		assert.Greater(t, ttl, time.Duration(0))
		assert.LessOrEqual(t, ttl, 10*time.Second)
	})

	t.Run("token_inside_leeway_is_not_cached", func(t *testing.T) {
		j := NewJWT("test-secret", "", "")
		tok, err := j.Sign(Identity{ID: "user-1"}, -29*time.Second)
		require.NoError(t, err)

		c, mr := newCached(t, j)
		id, err := c.Verify(ctx, tok)
		require.NoError(t, err)
		assert.Equal(t, "user-1", id.ID)
		assert.False(t, mr.Exists(cacheKey(tok)))

		// once the leeway is gone the token is rejected, not served from cache
		time.Sleep(2 * time.Second)
		_, err = c.Verify(ctx, tok)
		assert.True(t, errors.Is(err, ErrInvalidToken))
	})

	t.Run("expired_entry_is_reverified", func(t *testing.T) {
		inner := &countingVerifier{err: ErrInvalidToken}
		c, mr := newCached(t, inner)

		now := time.Now()
		c.Now = func() time.Time { return now }
		raw, err := json.Marshal(Identity{ID: "user-1", ExpiresAt: now.Add(-time.Second)})
		require.NoError(t, err)
		require.NoError(t, mr.Set(cacheKey("tok"), string(raw)))

		_, err = c.Verify(ctx, "tok")
		assert.True(t, errors.Is(err, ErrInvalidToken))
		assert.Equal(t, int32(1), inner.calls.Load())
		assert.False(t, mr.Exists(cacheKey("tok")))
	})

	t.Run("redis_down_falls_through", func(t *testing.T) {
		inner := &countingVerifier{id: Identity{ID: "user-1"}}
		c, mr := newCached(t, inner)
		mr.Close()

		id, err := c.Verify(ctx, "tok")
		require.NoError(t, err)
		assert.Equal(t, "user-1", id.ID)
	})

	t.Run("corrupt_entry_is_reverified", func(t *testing.T) {
		inner := &countingVerifier{id: Identity{ID: "user-1"}}
		c, mr := newCached(t, inner)
		require.NoError(t, mr.Set(cacheKey("tok"), "not json"))

		id, err := c.Verify(ctx, "tok")
		require.NoError(t, err)
		assert.Equal(t, "user-1", id.ID)
		assert.Equal(t, int32(1), inner.calls.Load())
	})
}
