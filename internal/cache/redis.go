// Package cache provides an optional Redis mirror for school lookups,
// so discovery passes on different hosts share biography results.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Config holds Redis connection settings
type Config struct {
	Addr     string
	Password string
	DB       int
}

// RedisCache mirrors resolved school lookups. A school is permanent
// biographical fact, so entries are stored without expiry.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects and pings; callers treat a failure here as
// "continue without the mirror", not a fatal error.
func NewRedisCache(cfg Config) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisCache{client: client}, nil
}

// Close closes the Redis connection
func (rc *RedisCache) Close() error {
	return rc.client.Close()
}

func schoolKey(playerID int) string {
	return fmt.Sprintf("alumni:school:%d", playerID)
}

// GetSchool retrieves a mirrored school lookup. An empty string value
// is a valid hit (player with no recorded college).
func (rc *RedisCache) GetSchool(ctx context.Context, playerID int) (string, bool) {
	val, err := rc.client.Get(ctx, schoolKey(playerID)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Debug().Err(err).Int("player_id", playerID).Msg("Redis school lookup failed")
		}
		return "", false
	}
	return val, true
}

// SetSchool mirrors a resolved school lookup. Failures are logged and
// ignored; the durable file cache remains authoritative.
func (rc *RedisCache) SetSchool(ctx context.Context, playerID int, school string) {
	if err := rc.client.Set(ctx, schoolKey(playerID), school, 0).Err(); err != nil {
		log.Debug().Err(err).Int("player_id", playerID).Msg("Failed to mirror school lookup to redis")
	}
}
