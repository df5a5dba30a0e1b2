// Package cache provides a read-through snapshot cache keyed by rounded
// coordinates. A failing cache never fails a query: every error is
// logged and treated as a miss.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/enviweather/envi-advisor/internal/weather"
	"github.com/enviweather/envi-advisor/pkg/logger"
)

// DefaultTTL bounds how stale a cached snapshot may get.
const DefaultTTL = 10 * time.Minute

// SnapshotCache is the read-through cache the advisor consults before
// hitting the condition source. A nil cache is valid and means caching
// is disabled.
type SnapshotCache interface {
	// Get returns the cached snapshot for the coordinates, if fresh.
	Get(ctx context.Context, lat, lon float64) (weather.Snapshot, bool)

	// Put stores the snapshot. Failures are absorbed.
	Put(ctx context.Context, snap weather.Snapshot)
}

// RedisConfig configures the Redis-backed cache.
type RedisConfig struct {
	// Client is required.
	Client *redis.Client

	// TTL is optional; DefaultTTL applies when zero.
	TTL time.Duration

	// Logger is required.
	Logger logger.Logger
}

// RedisSnapshotCache caches snapshots in Redis as JSON documents.
type RedisSnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
	log    logger.Logger
}

// NewRedisCache validates the configuration and creates the cache.
func NewRedisCache(config RedisConfig) (*RedisSnapshotCache, error) {
	if config.Client == nil {
		return nil, errors.New("redis client is required")
	}
	if config.Logger == nil {
		return nil, errors.New("logger is required")
	}
	ttl := config.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisSnapshotCache{
		client: config.Client,
		ttl:    ttl,
		log:    config.Logger,
	}, nil
}

// Get returns the cached snapshot for the coordinates. Connection and
// decoding problems surface as misses.
func (c *RedisSnapshotCache) Get(ctx context.Context, lat, lon float64) (weather.Snapshot, bool) {
	key := snapshotKey(lat, lon)

	data, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return weather.Snapshot{}, false
	}
	if err != nil {
		c.log.Warn("Snapshot cache read failed, treating as miss",
			logger.StringField("key", key),
			logger.ErrorField(err))
		return weather.Snapshot{}, false
	}

	var snap weather.Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		c.log.Warn("Snapshot cache entry is unreadable, treating as miss",
			logger.StringField("key", key),
			logger.ErrorField(err))
		return weather.Snapshot{}, false
	}
	return snap, true
}

// Put stores the snapshot under its coordinate key with the cache TTL.
func (c *RedisSnapshotCache) Put(ctx context.Context, snap weather.Snapshot) {
	key := snapshotKey(snap.Latitude, snap.Longitude)

	data, err := json.Marshal(snap)
	if err != nil {
		c.log.Warn("Snapshot cache serialization failed",
			logger.StringField("key", key),
			logger.ErrorField(err))
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.log.Warn("Snapshot cache write failed",
			logger.StringField("key", key),
			logger.ErrorField(err))
	}
}

// snapshotKey rounds coordinates to three decimals (roughly 100 m), so
// nearby lookups share an entry.
func snapshotKey(lat, lon float64) string {
	return fmt.Sprintf("wx:%.3f:%.3f", lat, lon)
}
