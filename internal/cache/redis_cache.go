package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"

	"posadmin/internal/domain"
)

type RedisSuggestionCache struct {
	client *redis.Client
}

func NewRedisSuggestionCache(addr string, password string, db int) *RedisSuggestionCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisSuggestionCache{client: client}
}

func (c *RedisSuggestionCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisSuggestionCache) Close() error {
	return c.client.Close()
}

func (c *RedisSuggestionCache) Get(ctx context.Context, key string) (*domain.ReorderSuggestionResponse, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var resp domain.ReorderSuggestionResponse
	if err := json.Unmarshal([]byte(val), &resp); err != nil {
		return nil, false, err
	}
	return &resp, true, nil
}

func (c *RedisSuggestionCache) Set(ctx context.Context, key string, value *domain.ReorderSuggestionResponse, ttl time.Duration) error {
	if value == nil {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, payload, ttl).Err()
}

func (c *RedisSuggestionCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}
