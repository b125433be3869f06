package auth

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/blake2b"

	"dextrack/internal/metrics"
)

const cacheKeyPrefix = "dextrack:identity:"

// Cached remembers verified identities in Redis so repeat requests skip the
// provider round trip. An entry lives for TTL or until the token expires,
// whichever comes first. Rejections are never cached. When Redis is
// unavailable every call goes to Inner.
type Cached struct {
	Inner Verifier
	RDB   *redis.Client
	TTL   time.Duration
	Log   zerolog.Logger

	// Now defaults to time.Now.
	Now func() time.Time
}

func (c *Cached) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// entryTTL bounds the cache lifetime by the token's own expiry.
func (c *Cached) entryTTL(id Identity) time.Duration {
	ttl := c.TTL
	if !id.ExpiresAt.IsZero() {
		ttl = min(ttl, id.ExpiresAt.Sub(c.now()))
	}
	return ttl
}

func cacheKey(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

func (c *Cached) Verify(ctx context.Context, token string) (Identity, error) {
	key := cacheKey(token)

	raw, err := c.RDB.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var id Identity
		jerr := json.Unmarshal(raw, &id)
		switch {
		case jerr != nil || id.ID == "":
			metrics.IdentityCacheTotal.WithLabelValues("error").Inc()
		case id.Expired(c.now()):
			metrics.IdentityCacheTotal.WithLabelValues("expired").Inc()
			if derr := c.RDB.Del(ctx, key).Err(); derr != nil {
				c.Log.Warn().Err(derr).Msg("identity cache evict failed")
			}
		default:
			metrics.IdentityCacheTotal.WithLabelValues("hit").Inc()
			return id, nil
		}
	case errors.Is(err, redis.Nil):
		metrics.IdentityCacheTotal.WithLabelValues("miss").Inc()
	default:
		metrics.IdentityCacheTotal.WithLabelValues("error").Inc()
		c.Log.Warn().Err(err).Msg("identity cache read failed")
	}

	id, err := c.Inner.Verify(ctx, token)
	if err != nil {
		return Identity{}, err
	}

	ttl := c.entryTTL(id)
	if ttl <= 0 {
		return id, nil
	}
	if b, err := json.Marshal(id); err == nil {
		if err := c.RDB.Set(ctx, key, b, ttl).Err(); err != nil {
			c.Log.Warn().Err(err).Msg("identity cache write failed")
		}
	}
	return id, nil
}
