package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"whos-got-my-order/internal/floor/app/core"
	"whos-got-my-order/internal/floor/config"
	"whos-got-my-order/internal/floor/domain/models"
)

// MetricsCache keeps staff metrics snapshots in Redis under
// staff_metrics:<id> with a TTL. Misses and connection failures degrade to
// store reads; the cache is never the source of truth.
type MetricsCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis. Returns nil (and no error) when the server is
// unreachable so callers run without a cache.
func New(cfg *config.Redis) *MetricsCache {
	if cfg == nil || cfg.Addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil
	}
	return &MetricsCache{client: client, ttl: core.MetricsCacheTTL}
}

func key(staffID string) string {
	return fmt.Sprintf("staff_metrics:%s", staffID)
}

func (c *MetricsCache) GetMetrics(ctx context.Context, staffID string) (*models.StaffMetrics, error) {
	raw, err := c.client.Get(ctx, key(staffID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var m models.StaffMetrics
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *MetricsCache) SetMetrics(ctx context.Context, staffID string, m models.StaffMetrics) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key(staffID), raw, c.ttl).Err()
}

func (c *MetricsCache) Close() error {
	return c.client.Close()
}

var _ core.MetricsCache = (*MetricsCache)(nil)
