// Package cache implements the response cache on Redis with cache-aside
// discipline. Store faults never fail a request: reads degrade to a
// miss and writes to a no-op.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/DegrassiAaron/meepleai/internal/config"
)

// DefaultTTL applies when the configured TTL is zero or negative.
const DefaultTTL = 24 * time.Hour

type Store interface {
	// Get loads the entry for key into dest. A missing key, a store
	// fault, or a decode failure all report a plain miss.
	Get(ctx context.Context, key string, dest any) bool

	// Set stores value under key with the given TTL. Failures are
	// logged and swallowed.
	Set(ctx context.Context, key string, value any, ttl time.Duration)

	// InvalidateGame removes every endpoint's entries for the game.
	InvalidateGame(ctx context.Context, gameID string) error

	// InvalidateEndpoint removes one endpoint's entries for the game,
	// leaving the other endpoints untouched.
	InvalidateEndpoint(ctx context.Context, gameID, endpoint string) error
}

type Redis struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewRedis(cfg *config.RedisConfig) (*Redis, error) {
	if cfg.URL == "" {
		return nil, errors.New("redis cache requires a URL")
	}

	opts, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redis cache: invalid URL: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Redis{
		client: goredis.NewClient(opts),
		ttl:    ttl,
	}, nil
}

// TTL reports the configured entry lifetime.
func (r *Redis) TTL() time.Duration {
	return r.ttl
}

func (r *Redis) Get(ctx context.Context, key string, dest any) bool {
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			slog.Warn("Cache read failed, treating as miss", "key", key, "error", err)
		}
		return false
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		slog.Warn("Cache entry undecodable, treating as miss", "key", key, "error", err)
		return false
	}

	return true
}

func (r *Redis) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = r.ttl
	}

	raw, err := json.Marshal(value)
	if err != nil {
		slog.Warn("Cache write skipped, value not serializable", "key", key, "error", err)
		return
	}

	if err := r.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		slog.Warn("Cache write failed, continuing without cache", "key", key, "error", err)
	}
}

func (r *Redis) InvalidateGame(ctx context.Context, gameID string) error {
	return r.deleteByPattern(ctx, gamePattern(gameID))
}

func (r *Redis) InvalidateEndpoint(ctx context.Context, gameID, endpoint string) error {
	return r.deleteByPattern(ctx, endpointPattern(endpoint, gameID))
}

// deleteByPattern collects all matching keys first and deletes them in a
// single DEL, so a concurrent reader sees the group disappear at once.
func (r *Redis) deleteByPattern(ctx context.Context, pattern string) error {
	var keys []string

	iter := r.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("cache scan %q: %w", pattern, err)
	}

	if len(keys) == 0 {
		return nil
	}

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache delete %q: %w", pattern, err)
	}

	slog.Info("Cache invalidated", "pattern", pattern, "keys", len(keys))
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}

var _ Store = (*Redis)(nil)
