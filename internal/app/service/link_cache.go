package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/DemoMacro/jumpstats/internal/app/model"
	"github.com/redis/go-redis/v9"
)

// LinkCache is the key-value store for resolved link projections, keyed by
// (domainName, shortCode). Get returns (nil, nil) on a miss.
type LinkCache interface {
	Get(ctx context.Context, domainName, shortCode string) (*model.CachedLink, error)
	Set(ctx context.Context, link *model.CachedLink) error
	Remove(ctx context.Context, domainName, shortCode string) error
}

type redisLinkCache struct {
	client     *redis.Client
	defaultTTL time.Duration
}

// NewRedisLinkCache returns a Redis-backed LinkCache. Entries are JSON values
// with a per-key TTL; expiry is Redis's own, no eviction loop runs here.
func NewRedisLinkCache(client *redis.Client, defaultTTL time.Duration) LinkCache {
	if defaultTTL <= 0 {
		defaultTTL = time.Hour
	}
	return &redisLinkCache{client: client, defaultTTL: defaultTTL}
}

func cacheKey(domainName, shortCode string) string {
	return fmt.Sprintf("link:%s:%s", domainName, shortCode)
}

func (c *redisLinkCache) Get(ctx context.Context, domainName, shortCode string) (*model.CachedLink, error) {
	data, err := c.client.Get(ctx, cacheKey(domainName, shortCode)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("cache get: %w", err)
	}

	var link model.CachedLink
	if err := json.Unmarshal(data, &link); err != nil {
		return nil, fmt.Errorf("cache decode: %w", err)
	}
	return &link, nil
}

// Set writes the projection under its own domain name. The TTL is clamped to
// min(defaultTTL, time until expiry) so an entry can never outlive its link;
// nothing is written once that clamp reaches zero.
func (c *redisLinkCache) Set(ctx context.Context, link *model.CachedLink) error {
	ttl := clampTTL(c.defaultTTL, link.ExpiresAt, time.Now())
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(link)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	if err := c.client.Set(ctx, cacheKey(link.DomainName, link.ShortCode), data, ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

func (c *redisLinkCache) Remove(ctx context.Context, domainName, shortCode string) error {
	if err := c.client.Del(ctx, cacheKey(domainName, shortCode)).Err(); err != nil {
		return fmt.Errorf("cache remove: %w", err)
	}
	return nil
}

func clampTTL(defaultTTL time.Duration, expiresAt *time.Time, now time.Time) time.Duration {
	if expiresAt == nil {
		return defaultTTL
	}
	untilExpiry := expiresAt.Sub(now)
	if untilExpiry < defaultTTL {
		return untilExpiry
	}
	return defaultTTL
}
