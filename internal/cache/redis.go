// Package cache wraps Redis for the affinity list cache and password reset
// codes.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/emilythestrangee/cheffry/backend/internal/config"
)

// MaxResetAttempts is how many wrong codes a user may submit before the
// pending code is discarded.
const MaxResetAttempts = 5

type RedisCache struct {
	Client       *redis.Client
	affinityTTL  time.Duration
	resetCodeTTL time.Duration
}

// NewRedisCache initializes the Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg config.RedisConfig) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Addr,
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	if cfg.DB != 0 {
		opts.DB = cfg.DB
	}
	return NewWithClient(redis.NewClient(opts), cfg)
}

func NewWithClient(client *redis.Client, cfg config.RedisConfig) *RedisCache {
	c := &RedisCache{
		Client:       client,
		affinityTTL:  cfg.AffinityTTL,
		resetCodeTTL: cfg.ResetCodeTTL,
	}
	if c.affinityTTL <= 0 {
		c.affinityTTL = 10 * time.Minute
	}
	if c.resetCodeTTL <= 0 {
		c.resetCodeTTL = 15 * time.Minute
	}
	return c
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.Client.Close()
}

func affinityKey(userID string) string { return "affinity:" + userID }
func resetKey(userID string) string    { return "reset:" + userID }
func attemptsKey(userID string) string { return "reset_attempts:" + userID }

// GetAffinity returns the cached country ranking for a user. ok is false on
// a cache miss.
func (c *RedisCache) GetAffinity(ctx context.Context, userID string) ([]string, bool, error) {
	val, err := c.Client.Get(ctx, affinityKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, err
	}
	var countries []string
	if err := json.Unmarshal(val, &countries); err != nil {
		// corrupt entry, treat as miss
		_ = c.Client.Del(ctx, affinityKey(userID)).Err()
		return nil, false, nil
	}
	return countries, true, nil
}

func (c *RedisCache) SetAffinity(ctx context.Context, userID string, countries []string) error {
	if countries == nil {
		countries = []string{}
	}
	data, err := json.Marshal(countries)
	if err != nil {
		return err
	}
	return c.Client.Set(ctx, affinityKey(userID), data, c.affinityTTL).Err()
}

func (c *RedisCache) InvalidateAffinity(ctx context.Context, userID string) error {
	return c.Client.Del(ctx, affinityKey(userID)).Err()
}

// SetResetCode stores a pending password reset code, replacing any earlier
// one and clearing the failed attempt counter.
func (c *RedisCache) SetResetCode(ctx context.Context, userID, code string) error {
	_, err := c.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, resetKey(userID), code, c.resetCodeTTL)
		pipe.Del(ctx, attemptsKey(userID))
		return nil
	})
	return err
}

// consumeResetScript checks a reset code and counts the attempt in one
// step. KEYS: code, attempts. ARGV: guess, attempts ttl in ms, max attempts.
// Returns 1 on a match, 0 otherwise.
var consumeResetScript = redis.NewScript(`
local stored = redis.call('GET', KEYS[1])
if not stored then
  return 0
end
local n = redis.call('INCR', KEYS[2])
if n == 1 then
  redis.call('PEXPIRE', KEYS[2], ARGV[2])
end
if n > tonumber(ARGV[3]) then
  redis.call('DEL', KEYS[1], KEYS[2])
  return 0
end
if stored == ARGV[1] then
  redis.call('DEL', KEYS[1], KEYS[2])
  return 1
end
if n >= tonumber(ARGV[3]) then
  redis.call('DEL', KEYS[1], KEYS[2])
end
return 0
`)

// ConsumeResetCode reports whether code matches the pending code for the
// user. A match deletes the code. Every guess counts toward
// MaxResetAttempts, and the code is deleted once they are used up.
func (c *RedisCache) ConsumeResetCode(ctx context.Context, userID, code string) (bool, error) {
	keys := []string{resetKey(userID), attemptsKey(userID)}
	n, err := consumeResetScript.Run(ctx, c.Client, keys, code, c.resetCodeTTL.Milliseconds(), MaxResetAttempts).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
