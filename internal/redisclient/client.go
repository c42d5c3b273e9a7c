package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Client records handled webhook deliveries so provider retries can be
// acknowledged without touching the ledger again.
type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client and checks connectivity
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// MarkDelivered stores a delivery key with TTL
func (c *Client) MarkDelivered(ctx context.Context, key string, ttl time.Duration) error {
	return c.rdb.Set(ctx, deliveryKey(key), time.Now().Unix(), ttl).Err()
}

// Delivered checks if a delivery key exists
func (c *Client) Delivered(ctx context.Context, key string) (bool, error) {
	result, err := c.rdb.Exists(ctx, deliveryKey(key)).Result()
	if err != nil {
		return false, err
	}
	return result > 0, nil
}

func deliveryKey(key string) string {
	return fmt.Sprintf("webhook:delivery:%s", key)
}
