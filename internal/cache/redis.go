// Package cache keeps pipeline results and per-media run locks in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"voice-complaint-go/internal/config"
	"voice-complaint-go/internal/types"
)

// ErrMiss is returned when a key holds no value.
var ErrMiss = errors.New("cache: miss")

// unlockScript deletes the lock only while it still holds the caller's token.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

const (
	resultPrefix = "voice:result:"
	lockPrefix   = "voice:lock:"
)

type Cache struct {
	client    *redis.Client
	resultTTL time.Duration
	lockTTL   time.Duration
}

func NewCache(client *redis.Client, resultTTL, lockTTL time.Duration) *Cache {
	return &Cache{client: client, resultTTL: resultTTL, lockTTL: lockTTL}
}

// Open connects to Redis and pings it.
func Open(ctx context.Context, cfg config.RedisConfig) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return NewCache(client, cfg.ResultTTL, cfg.LockTTL), nil
}

func (c *Cache) Client() *redis.Client { return c.client }

func (c *Cache) Close() error { return c.client.Close() }

func (c *Cache) Ping(ctx context.Context) error { return c.client.Ping(ctx).Err() }

func (c *Cache) Get(ctx context.Context, key string, dest interface{}) error {
	val, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return fmt.Errorf("cache get %s: %w", key, err)
	}
	return json.Unmarshal([]byte(val), dest)
}

func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal value: %w", err)
	}
	return c.client.Set(ctx, key, data, ttl).Err()
}

func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	return c.client.Del(ctx, keys...).Err()
}

// GetResult returns the envelope stored for a media id.
func (c *Cache) GetResult(ctx context.Context, mediaID string) (types.Envelope, error) {
	var env types.Envelope
	err := c.Get(ctx, resultPrefix+mediaID, &env)
	return env, err
}

func (c *Cache) SaveResult(ctx context.Context, mediaID string, env types.Envelope) error {
	return c.Set(ctx, resultPrefix+mediaID, env, c.resultTTL)
}

// Lock claims the run slot of a media id and returns the token that owns
// it. ok is false when another run holds the slot. The lock expires on its
// own after the lock TTL.
func (c *Cache) Lock(ctx context.Context, mediaID string) (token string, ok bool, err error) {
	token = uuid.NewString()
	ok, err = c.client.SetNX(ctx, lockPrefix+mediaID, token, c.lockTTL).Result()
	if err != nil {
		return "", false, fmt.Errorf("lock %s: %w", mediaID, err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// Unlock releases the lock if token still owns it. A lock that expired and
// was claimed by another run is left alone.
func (c *Cache) Unlock(ctx context.Context, mediaID, token string) error {
	if err := unlockScript.Run(ctx, c.client, []string{lockPrefix + mediaID}, token).Err(); err != nil {
		return fmt.Errorf("unlock %s: %w", mediaID, err)
	}
	return nil
}
