package checkers

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisChecker pings a Redis server.
type RedisChecker struct {
	client *redis.Client
	name   string
}

// NewRedisChecker builds a checker for the given client. An empty name
// defaults to "redis".
func NewRedisChecker(client *redis.Client, name string) *RedisChecker {
	if name == "" {
		name = "redis"
	}
	return &RedisChecker{client: client, name: name}
}

func (r *RedisChecker) Name() string { return r.name }

// Check fails when the ping does not come back.
func (r *RedisChecker) Check(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}
