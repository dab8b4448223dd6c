package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"PriceScope/internal/model"
)

// RedisConfig configures RedisForecastCache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisForecastCache keeps serialized forecasts in Redis strings with a TTL.
type RedisForecastCache struct {
	client *redis.Client
	prefix string
}

// NewRedisForecastCache creates the cache and pings the server.
func NewRedisForecastCache(ctx context.Context, cfg RedisConfig) (*RedisForecastCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 2 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisForecastCache{client: client, prefix: "pricescope:forecast:"}, nil
}

func (c *RedisForecastCache) Get(ctx context.Context, key string) ([]model.Forecast, bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	var out []model.Forecast
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, false, fmt.Errorf("decode cached forecast: %w", err)
	}
	return out, true, nil
}

func (c *RedisForecastCache) Put(ctx context.Context, key string, forecasts []model.Forecast, ttl time.Duration) error {
	data, err := json.Marshal(forecasts)
	if err != nil {
		return fmt.Errorf("encode forecast: %w", err)
	}
	if err := c.client.Set(ctx, c.prefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (c *RedisForecastCache) Close() error {
	return c.client.Close()
}
