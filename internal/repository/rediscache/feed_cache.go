package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"campusevents/internal/domain"
)

const (
	generationKey = "feed:gen" // bumped on every feed write; old pages age out by TTL
	pageKeyFormat = "feed:g%d:p%d:s%d"
)

// FeedCache caches feed pages in Redis keyed by a generation counter.
type FeedCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewFeedCache returns a domain.FeedCache storing pages for ttl.
func NewFeedCache(client *redis.Client, ttl time.Duration) *FeedCache {
	return &FeedCache{client: client, ttl: ttl}
}

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (c *FeedCache) generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *FeedCache) pageKey(ctx context.Context, p domain.PaginationParams) (string, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		return "", fmt.Errorf("read feed generation: %w", err)
	}
	return fmt.Sprintf(pageKeyFormat, gen, p.Page, p.PageSize), nil
}

func (c *FeedCache) Get(ctx context.Context, p domain.PaginationParams) ([]*domain.Event, bool, error) {
	key, err := c.pageKey(ctx, p)
	if err != nil {
		return nil, false, err
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get feed page: %w", err)
	}
	var events []*domain.Event
	if err := json.Unmarshal(raw, &events); err != nil {
		return nil, false, fmt.Errorf("decode feed page: %w", err)
	}
	return events, true, nil
}

func (c *FeedCache) Set(ctx context.Context, p domain.PaginationParams, events []*domain.Event) error {
	key, err := c.pageKey(ctx, p)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("encode feed page: %w", err)
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("set feed page: %w", err)
	}
	return nil
}

// Invalidate moves every reader to a fresh generation.
func (c *FeedCache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, generationKey).Err(); err != nil {
		return fmt.Errorf("bump feed generation: %w", err)
	}
	return nil
}

var _ domain.FeedCache = (*FeedCache)(nil)
