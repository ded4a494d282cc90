package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// MenuCache stores the composed, sorted section list of a cafe.
type MenuCache interface {
	Get(ctx context.Context, cafeID uint) ([]MenuSection, bool, error)
	Set(ctx context.Context, cafeID uint, sections []MenuSection) error
	Invalidate(ctx context.Context, cafeID uint) error
}

type RedisMenuCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisMenuCache(client *redis.Client, ttl time.Duration) *RedisMenuCache {
	return &RedisMenuCache{Client: client, TTL: ttl}
}

func (c *RedisMenuCache) Key(cafeID uint) string {
	return "cafe_menu:" + strconv.FormatUint(uint64(cafeID), 10)
}

func (c *RedisMenuCache) Get(ctx context.Context, cafeID uint) ([]MenuSection, bool, error) {
	raw, err := c.Client.Get(ctx, c.Key(cafeID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var sections []MenuSection
	if err := json.Unmarshal(raw, &sections); err != nil {
		return nil, false, fmt.Errorf("decode cached menu %d: %w", cafeID, err)
	}
	return sections, true, nil
}

func (c *RedisMenuCache) Set(ctx context.Context, cafeID uint, sections []MenuSection) error {
	raw, err := json.Marshal(sections)
	if err != nil {
		return err
	}
	return c.Client.Set(ctx, c.Key(cafeID), raw, c.TTL).Err()
}

func (c *RedisMenuCache) Invalidate(ctx context.Context, cafeID uint) error {
	return c.Client.Del(ctx, c.Key(cafeID)).Err()
}
