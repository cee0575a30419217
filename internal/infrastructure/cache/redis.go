package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/sensei-service/sensei_service/internal/infrastructure/config"
	"github.com/sensei-service/sensei_service/pkg/metrics"
)

// Cache is a thin Redis wrapper with key prefixing
type Cache struct {
	client     *redis.Client
	logger     *zap.Logger
	prefix     string
	defaultTTL time.Duration
}

// New connects to Redis and returns a Cache
func New(cfg config.RedisConfig, logger *zap.Logger) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Cache{
		client:     client,
		logger:     logger,
		prefix:     "sensei:",
		defaultTTL: time.Hour,
	}, nil
}

// Get returns the cached value, or "" on a miss
func (c *Cache) Get(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, c.prefix+key).Result()
	if err == redis.Nil {
		metrics.CacheOperationsTotal.WithLabelValues("get", "miss").Inc()
		return "", nil
	}
	if err != nil {
		metrics.CacheOperationsTotal.WithLabelValues("get", "error").Inc()
		return "", err
	}
	metrics.CacheOperationsTotal.WithLabelValues("get", "hit").Inc()
	return val, nil
}

// Set stores a value; a zero ttl falls back to the default
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.defaultTTL
	}
	err := c.client.Set(ctx, c.prefix+key, value, ttl).Err()
	if err != nil {
		metrics.CacheOperationsTotal.WithLabelValues("set", "error").Inc()
		return err
	}
	metrics.CacheOperationsTotal.WithLabelValues("set", "ok").Inc()
	return nil
}

// Close releases the underlying connection pool
func (c *Cache) Close() error {
	return c.client.Close()
}
