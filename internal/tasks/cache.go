package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ListCache keeps recent list results in Redis for a short TTL. Every
// mutation bumps the owner's version counter, which is part of each list
// key, so stale entries simply stop being addressable and expire on their
// own. A nil cache disables caching.
type ListCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewListCache constructs a ListCache.
func NewListCache(client *redis.Client, ttl time.Duration) *ListCache {
	return &ListCache{client: client, ttl: ttl}
}

func (c *ListCache) versionKey(ownerID string) string {
	return "tasks:ver:" + ownerID
}

func (c *ListCache) listKey(ctx context.Context, filter ListFilter) (string, error) {
	version, err := c.client.Get(ctx, c.versionKey(filter.OwnerID)).Int64()
	if err != nil && err != redis.Nil {
		return "", err
	}
	return fmt.Sprintf("tasks:list:%s:%d:%s:%s:%d:%d",
		filter.OwnerID, version, filter.Status, filter.Search, filter.Limit, filter.Offset), nil
}

// Get returns a cached page for the filter, if present.
func (c *ListCache) Get(ctx context.Context, filter ListFilter) (*Page, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	key, err := c.listKey(ctx, filter)
	if err != nil {
		return nil, false
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var page Page
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, false
	}
	return &page, true
}

// Set stores a page for the filter.
func (c *ListCache) Set(ctx context.Context, filter ListFilter, page *Page) {
	if c == nil || c.client == nil {
		return
	}
	key, err := c.listKey(ctx, filter)
	if err != nil {
		return
	}
	data, err := json.Marshal(page)
	if err != nil {
		return
	}
	c.client.Set(ctx, key, data, c.ttl)
}

// Invalidate drops all cached pages for the owner by bumping the version.
func (c *ListCache) Invalidate(ctx context.Context, ownerID string) {
	if c == nil || c.client == nil {
		return
	}
	c.client.Incr(ctx, c.versionKey(ownerID))
}
