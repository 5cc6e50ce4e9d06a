package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"clearance/internal/ports"
	"clearance/internal/rawtree"
)

const keyPrefix = "clearance:record:"

// Connect opens a client and checks it with a ping.
func Connect(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// Cache stores raw record bodies as JSON with a fixed TTL.
type Cache struct {
	client goredis.Cmdable
	ttl    time.Duration
}

func NewCache(client goredis.Cmdable, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) Get(ctx context.Context, key string) (ports.Record, bool, error) {
	data, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return ports.Record{}, false, nil
	}
	if err != nil {
		return ports.Record{}, false, fmt.Errorf("cache get %s: %w", key, err)
	}
	body, err := rawtree.Parse(data)
	if err != nil {
		// A corrupt entry is treated as a miss and overwritten on the next put.
		return ports.Record{}, false, nil
	}
	return ports.Record{Key: key, Body: body}, true, nil
}

func (c *Cache) Put(ctx context.Context, rec ports.Record) error {
	data, err := rec.Body.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode record %s: %w", rec.Key, err)
	}
	if err := c.client.Set(ctx, keyPrefix+rec.Key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache put %s: %w", rec.Key, err)
	}
	return nil
}
