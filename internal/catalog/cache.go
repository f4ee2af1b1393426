package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/saeedalam/nodewise/pkg/types"
)

// CacheKey holds the JSON-encoded node type list.
const CacheKey = "node_types"

// Cache shares a fetched catalog between processes. Get reports ok=false on
// a miss.
type Cache interface {
	Get(ctx context.Context) (nodes []types.NodeDescriptor, ok bool, err error)
	Put(ctx context.Context, nodes []types.NodeDescriptor, ttl time.Duration) error
}

// NopCache never hits and drops writes.
type NopCache struct{}

func (NopCache) Get(context.Context) ([]types.NodeDescriptor, bool, error) { return nil, false, nil }

func (NopCache) Put(context.Context, []types.NodeDescriptor, time.Duration) error { return nil }

// RedisCache stores the catalog under a single expiring key.
type RedisCache struct {
	client redis.UniversalClient
	key    string
}

// NewRedisCache creates a cache on client. keyPrefix is prepended to
// CacheKey.
func NewRedisCache(client redis.UniversalClient, keyPrefix string) *RedisCache {
	return &RedisCache{client: client, key: keyPrefix + CacheKey}
}

func (c *RedisCache) Get(ctx context.Context) ([]types.NodeDescriptor, bool, error) {
	data, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading %s: %w", c.key, err)
	}
	var nodes []types.NodeDescriptor
	if err := json.Unmarshal(data, &nodes); err != nil {
		return nil, false, fmt.Errorf("decoding %s: %w", c.key, err)
	}
	return nodes, true, nil
}

func (c *RedisCache) Put(ctx context.Context, nodes []types.NodeDescriptor, ttl time.Duration) error {
	data, err := json.Marshal(nodes)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, c.key, data, ttl).Err(); err != nil {
		return fmt.Errorf("writing %s: %w", c.key, err)
	}
	return nil
}
