package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/dtroode/weave-server/internal/model"
)

// Internal adapter interface to enable mocking without a real Redis server.
type redisAPI interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

// Wrapper to adapt *redis.Client to redisAPI.
type redisClientWrapper struct{ c *redis.Client }

func (w redisClientWrapper) Get(ctx context.Context, key string) ([]byte, error) {
	return w.c.Get(ctx, key).Bytes()
}
func (w redisClientWrapper) Set(ctx context.Context, key string, value []byte) error {
	return w.c.Set(ctx, key, value, 0).Err()
}
func (w redisClientWrapper) Del(ctx context.Context, key string) error {
	return w.c.Del(ctx, key).Err()
}
func (w redisClientWrapper) Ping(ctx context.Context) error {
	return w.c.Ping(ctx).Err()
}

var _ model.Cache = (*Client)(nil)

// Client is the cache backend used by the hot key overlay.
type Client struct {
	api redisAPI
}

// NewClient creates a cache client over a real *redis.Client.
func NewClient(client *redis.Client) *Client {
	return NewClientWithAPI(redisClientWrapper{c: client})
}

// NewClientWithAPI allows injecting a mockable API (used in tests).
func NewClientWithAPI(api redisAPI) *Client {
	return &Client{api: api}
}

// Dial connects to addr and returns the client together with the underlying
// connection so the caller can close it.
func Dial(addr, password string, db int) (*Client, *redis.Client) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return NewClient(rdb), rdb
}

// Get returns the value under key or model.ErrCacheMiss.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := c.api.Get(ctx, key)
	if errors.Is(err, redis.Nil) {
		return nil, model.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get key: %w", err)
	}
	return value, nil
}

// Set stores value under key without expiry.
func (c *Client) Set(ctx context.Context, key string, value []byte) error {
	if err := c.api.Set(ctx, key, value); err != nil {
		return fmt.Errorf("failed to set key: %w", err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (c *Client) Delete(ctx context.Context, key string) error {
	if err := c.api.Del(ctx, key); err != nil {
		return fmt.Errorf("failed to delete key: %w", err)
	}
	return nil
}

// Ping checks connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.api.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping cache: %w", err)
	}
	return nil
}
