// Package recommend ranks catalog nodes for a natural-language requirement
// by merging five strategies: exact match, fuzzy and semantic similarity,
// co-occurrence with nodes already in the workflow, global popularity and
// workflow patterns.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/saeedalam/nodewise/internal/catalog"
	"github.com/saeedalam/nodewise/internal/logging"
	"github.com/saeedalam/nodewise/pkg/types"
)

// NodeCatalog is the catalog view the engine reads.
type NodeCatalog interface {
	Load(ctx context.Context) error
	Snapshot() *catalog.Snapshot
}

// UsageStats is the usage evidence the engine reads.
type UsageStats interface {
	Load(ctx context.Context) error
	UsageOf(name string) int64
	ComboOf(a, b string) int64
	TopUsage(limit int) []types.UsageCount
	ComplementaryOf(ctx context.Context, name string, limit int) []string
	ExamplesOf(ctx context.Context, name string) []string
}

// PatternSource serves node lists per workflow type or use case.
type PatternSource interface {
	Load(ctx context.Context) error
	PatternOf(key string) []string
}

// Options tune an Engine. Zero values pick defaults.
type Options struct {
	// DefaultLimit replaces non-positive limits. Defaults to DefaultLimit.
	DefaultLimit int
	// Parallel runs the strategies concurrently.
	Parallel bool
	Logger   *slog.Logger
}

// Engine produces ranked recommendations. It is safe for concurrent use.
type Engine struct {
	catalog  NodeCatalog
	stats    UsageStats
	patterns PatternSource
	opts     Options
	logger   *slog.Logger

	initMu sync.Mutex
	ready  atomic.Bool
}

// New wires an engine over its data sources. The engine is unusable until
// Initialize succeeds.
func New(cat NodeCatalog, usage UsageStats, patterns PatternSource, opts Options) *Engine {
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = DefaultLimit
	}
	if opts.Logger == nil {
		opts.Logger = logging.New("engine")
	}
	return &Engine{
		catalog:  cat,
		stats:    usage,
		patterns: patterns,
		opts:     opts,
		logger:   opts.Logger,
	}
}

// Initialize performs the first load of the catalog, the usage stats and the
// patterns. Any of them failing leaves the engine uninitialized and returns
// an error matching ErrSourceUnavailable. Calling it again once ready is a
// no-op.
func (e *Engine) Initialize(ctx context.Context) error {
	e.initMu.Lock()
	defer e.initMu.Unlock()

	if e.ready.Load() {
		return nil
	}

	start := time.Now()
	loads := []struct {
		name string
		load func(context.Context) error
	}{
		{"catalog", e.catalog.Load},
		{"stats", e.stats.Load},
		{"patterns", e.patterns.Load},
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, l := range loads {
		g.Go(func() error {
			if err := l.load(gctx); err != nil {
				if errors.Is(err, ErrSourceUnavailable) {
					return fmt.Errorf("loading %s: %w", l.name, err)
				}
				return fmt.Errorf("loading %s: %w: %w", l.name, ErrSourceUnavailable, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if e.catalog.Snapshot() == nil {
		return fmt.Errorf("loading catalog: %w", ErrSourceUnavailable)
	}

	e.ready.Store(true)
	e.logger.Info("recommendation engine ready",
		"nodes", e.catalog.Snapshot().Len(),
		"parallel", e.opts.Parallel,
		"duration", time.Since(start).Round(time.Millisecond))
	return nil
}

// IsReady reports whether Initialize has completed.
func (e *Engine) IsReady() bool {
	return e.ready.Load()
}

// RecommendNodes returns at most limit recommendations for requirement,
// sorted by score. A non-positive limit uses the configured default.
func (e *Engine) RecommendNodes(ctx context.Context, requirement string, rctx types.RecommendationContext, limit int) ([]types.Recommendation, error) {
	if !e.ready.Load() {
		requestsTotal.WithLabelValues("not_initialized").Inc()
		return nil, ErrNotInitialized
	}
	requirement = strings.TrimSpace(requirement)
	if requirement == "" {
		requestsTotal.WithLabelValues("invalid").Inc()
		return nil, ErrInvalidRequirement
	}
	if limit <= 0 {
		limit = e.opts.DefaultLimit
	}

	start := time.Now()
	logger := e.logger.With("request_id", uuid.NewString())
	defer func() { requestDuration.Observe(time.Since(start).Seconds()) }()

	if err := ctx.Err(); err != nil {
		return nil, e.cancelled(logger, err)
	}

	req := newRequest(requirement, rctx, e.catalog.Snapshot())
	partials := e.runStrategies(ctx, req)
	if err := ctx.Err(); err != nil {
		return nil, e.cancelled(logger, err)
	}

	results := Merge(partials, limit)
	for i := range results {
		results[i].UsageExamples = e.stats.ExamplesOf(ctx, results[i].Node.Name)
	}
	if err := ctx.Err(); err != nil {
		return nil, e.cancelled(logger, err)
	}

	requestsTotal.WithLabelValues("ok").Inc()
	logger.Debug("recommendations produced",
		"requirement", requirement,
		"results", len(results),
		"duration", time.Since(start))
	return results, nil
}

// runStrategies fills one slot per strategy so the merge order never
// depends on completion order.
func (e *Engine) runStrategies(ctx context.Context, req *request) [][]types.Recommendation {
	partials := make([][]types.Recommendation, len(strategies))

	if !e.opts.Parallel {
		for i, s := range strategies {
			if ctx.Err() != nil {
				break
			}
			partials[i] = s.run(ctx, e, req)
			strategyCandidates.WithLabelValues(s.name).Add(float64(len(partials[i])))
		}
		return partials
	}

	var g errgroup.Group
	for i, s := range strategies {
		g.Go(func() error {
			partials[i] = s.run(ctx, e, req)
			strategyCandidates.WithLabelValues(s.name).Add(float64(len(partials[i])))
			return nil
		})
	}
	_ = g.Wait()
	return partials
}

func (e *Engine) cancelled(logger *slog.Logger, err error) error {
	requestsTotal.WithLabelValues("cancelled").Inc()
	logger.Debug("recommendation request cancelled", "error", err)
	return fmt.Errorf("%w: %w", ErrCancelled, err)
}
