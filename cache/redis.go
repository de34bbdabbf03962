package cache

import (
	"context"
	"fmt"
	"time"

	"soundreview/config"

	"github.com/go-redis/redis/v8"
)

// ConnectRedis opens the Redis connection used by the comment cache.
// Returns nil without error when no Redis host is configured; the cache then
// degrades to the database path.
func ConnectRedis(cfg *config.Config) (*redis.Client, error) {
	if cfg.RedisHost == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}
