package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/inkboard/board-renderer/internal/config"
	"github.com/inkboard/board-renderer/pkg/models"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// stopDataKey is the single cache slot for the board's fetched data.
const stopDataKey = "board:stopdata"

// Cache stores fetched stop data between board polls so the upstream
// transit API is not hit on every device refresh.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCache creates a Redis-backed stop data cache and verifies the
// connection.
func NewCache(cfg *config.RedisConfig, ttl time.Duration, logger *zap.Logger) (*Cache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Connected to Redis",
		zap.String("addr", cfg.Addr),
		zap.Duration("stop_data_ttl", ttl))

	return &Cache{
		client: rdb,
		ttl:    ttl,
		logger: logger,
	}, nil
}

// NewCacheFromClient wraps an existing client, used by tests.
func NewCacheFromClient(client *redis.Client, ttl time.Duration, logger *zap.Logger) *Cache {
	return &Cache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Ping tests the Redis connection.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// GetStopData retrieves the cached stop data. The second return value
// is false when the slot is empty or expired.
func (c *Cache) GetStopData(ctx context.Context) (models.StopData, bool, error) {
	result, err := c.client.Get(ctx, stopDataKey).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get %s from Redis: %w", stopDataKey, err)
	}

	var stops models.StopData
	if err := json.Unmarshal([]byte(result), &stops); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached stop data: %w", err)
	}

	return stops, true, nil
}

// SetStopData stores stop data with the configured TTL.
func (c *Cache) SetStopData(ctx context.Context, stops models.StopData) error {
	body, err := json.Marshal(stops)
	if err != nil {
		return fmt.Errorf("failed to marshal stop data: %w", err)
	}

	if err := c.client.Set(ctx, stopDataKey, body, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set %s in Redis: %w", stopDataKey, err)
	}

	c.logger.Debug("Cached stop data",
		zap.Int("bytes", len(body)),
		zap.Duration("ttl", c.ttl))

	return nil
}
