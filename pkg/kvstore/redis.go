package kvstore

import (
	"context"
	"errors"
	"time"
)

// RedisClient is the slice of pkg/redis.Client the adapter needs.
type RedisClient interface {
	Lookup(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// Redis stores values as plain strings. Every write refreshes the TTL, so an
// idle cart expires ttl after its last mutation.
type Redis struct {
	client RedisClient
	ttl    time.Duration
}

func NewRedis(client RedisClient, ttl time.Duration) (*Redis, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	return &Redis{client: client, ttl: ttl}, nil
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	return r.client.Lookup(ctx, key)
}

func (r *Redis) Set(ctx context.Context, key, value string) error {
	return r.client.Set(ctx, key, value, r.ttl)
}
