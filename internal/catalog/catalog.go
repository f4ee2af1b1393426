// Package catalog keeps the set of available node types. The current
// generation is an immutable Snapshot swapped atomically on refresh, so
// concurrent readers always see one consistent catalog and fuzzy index.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/saeedalam/nodewise/internal/logging"
	"github.com/saeedalam/nodewise/pkg/types"
)

// DefaultTTL is how long a loaded catalog is considered fresh.
const DefaultTTL = time.Hour

// ErrSourceUnavailable is returned when neither the cache nor the source
// could provide a catalog and no earlier snapshot exists.
var ErrSourceUnavailable = errors.New("node catalog source unavailable")

// Options tune a Catalog. Zero values pick defaults.
type Options struct {
	TTL    time.Duration
	Logger *slog.Logger
	Now    func() time.Time
}

// Catalog loads node types from a Source, through an optional Cache, and
// serves the latest good Snapshot.
type Catalog struct {
	source Source
	cache  Cache
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex // serializes loads
	current atomic.Pointer[Snapshot]
}

// New creates an empty catalog. cache may be nil.
func New(source Source, cache Cache, opts Options) *Catalog {
	if cache == nil {
		cache = NopCache{}
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Logger == nil {
		opts.Logger = logging.New("catalog")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Catalog{
		source: source,
		cache:  cache,
		ttl:    opts.TTL,
		logger: opts.Logger,
		now:    opts.Now,
	}
}

// Load makes sure a fresh snapshot is available. It is a no-op while the
// current snapshot is younger than the TTL. Failures after the first
// successful load are logged and the previous snapshot stays in service.
func (c *Catalog) Load(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s := c.current.Load(); s != nil && c.now().Sub(s.LoadedAt()) < c.ttl {
		return nil
	}
	return c.reload(ctx, true)
}

// Refresh reloads from the source regardless of the current snapshot's age
// and of the cache, then rewrites the cache.
func (c *Catalog) Refresh(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reload(ctx, false)
}

func (c *Catalog) reload(ctx context.Context, useCache bool) error {
	nodes, origin, err := c.fetch(ctx, useCache)
	if err != nil {
		prev := c.current.Load()
		if prev == nil {
			refreshTotal.WithLabelValues("failed").Inc()
			return fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
		}
		refreshTotal.WithLabelValues("degraded").Inc()
		c.logger.Warn("degraded catalog refresh, serving previous snapshot",
			"error", err,
			"snapshot_age", c.now().Sub(prev.LoadedAt()).Round(time.Second),
			"nodes", prev.Len())
		return nil
	}

	snap := NewSnapshot(nodes, c.now(), origin, c.logger)
	c.current.Store(snap)
	refreshTotal.WithLabelValues("ok").Inc()
	nodesLoaded.Set(float64(snap.Len()))
	c.logger.Info("catalog loaded", "nodes", snap.Len(), "origin", origin)
	return nil
}

func (c *Catalog) fetch(ctx context.Context, useCache bool) ([]types.NodeDescriptor, string, error) {
	if useCache {
		nodes, ok, err := c.cache.Get(ctx)
		switch {
		case err != nil:
			c.logger.Warn("catalog cache read failed", "error", err)
		case ok && len(nodes) > 0:
			return nodes, "cache", nil
		}
	}

	nodes, err := c.source.Fetch(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("fetching node types from %s: %w", c.source.Name(), err)
	}
	if len(nodes) == 0 {
		return nil, "", fmt.Errorf("source %s returned no node types", c.source.Name())
	}
	if err := c.cache.Put(ctx, nodes, c.ttl); err != nil {
		c.logger.Warn("catalog cache write failed", "error", err)
	}
	return nodes, "source", nil
}

// Snapshot returns the current generation, or nil before the first load.
func (c *Catalog) Snapshot() *Snapshot {
	return c.current.Load()
}

// Loaded reports whether a snapshot is available.
func (c *Catalog) Loaded() bool {
	return c.current.Load() != nil
}

// All returns every node of the current snapshot.
func (c *Catalog) All() []types.NodeDescriptor {
	if s := c.current.Load(); s != nil {
		return s.All()
	}
	return nil
}

// Find looks up a node by name in the current snapshot.
func (c *Catalog) Find(name string) (*types.NodeDescriptor, bool) {
	if s := c.current.Load(); s != nil {
		return s.Find(name)
	}
	return nil, false
}

// TTL returns the configured freshness window.
func (c *Catalog) TTL() time.Duration {
	return c.ttl
}
