package stats

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/saeedalam/nodewise/internal/logging"
	"github.com/saeedalam/nodewise/pkg/types"
)

type counters struct {
	usage    map[string]int64
	combos   map[string]int64
	ranked   []types.UsageCount // usage, count desc then name asc
	loadedAt time.Time
}

// Store serves usage and co-occurrence evidence.
type Store struct {
	backend Reader
	logger  *slog.Logger

	mu      sync.Mutex // serializes loads
	current atomic.Pointer[counters]
}

// NewStore creates a store over backend. logger may be nil.
func NewStore(backend Reader, logger *slog.Logger) *Store {
	if logger == nil {
		logger = logging.New("stats")
	}
	return &Store{backend: backend, logger: logger}
}

// Load snapshots the usage and combo counters. Once a snapshot exists,
// failures are logged and the old counters stay in service.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	usage, err := s.backend.UsageCounts(ctx)
	if err == nil {
		var combos map[string]int64
		combos, err = s.backend.ComboCounts(ctx)
		if err == nil {
			c := &counters{usage: usage, combos: combos, ranked: rank(usage), loadedAt: time.Now()}
			s.current.Store(c)
			s.logger.Info("usage stats loaded", "nodes", len(usage), "combos", len(combos))
			return nil
		}
	}

	if s.current.Load() == nil {
		return fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	degradedReads.WithLabelValues("counters").Inc()
	s.logger.Warn("degraded stats refresh, serving previous counters", "error", err)
	return nil
}

// Loaded reports whether counters are available.
func (s *Store) Loaded() bool {
	return s.current.Load() != nil
}

func rank(usage map[string]int64) []types.UsageCount {
	ranked := make([]types.UsageCount, 0, len(usage))
	for name, n := range usage {
		ranked = append(ranked, types.UsageCount{Name: name, Count: n})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Name < ranked[j].Name
	})
	return ranked
}

// UsageOf returns the usage counter of a node, 0 when unknown.
func (s *Store) UsageOf(name string) int64 {
	if c := s.current.Load(); c != nil {
		return c.usage[name]
	}
	return 0
}

// ComboOf returns how often b was placed together with a.
func (s *Store) ComboOf(a, b string) int64 {
	if c := s.current.Load(); c != nil {
		return c.combos[ComboPair(a, b)]
	}
	return 0
}

// TopUsage returns the limit most used nodes, most used first.
func (s *Store) TopUsage(limit int) []types.UsageCount {
	c := s.current.Load()
	if c == nil {
		return nil
	}
	if limit > len(c.ranked) || limit <= 0 {
		limit = len(c.ranked)
	}
	out := make([]types.UsageCount, limit)
	copy(out, c.ranked[:limit])
	return out
}

// ComplementaryOf returns up to limit node names most often used with name.
func (s *Store) ComplementaryOf(ctx context.Context, name string, limit int) []string {
	if limit <= 0 || limit > MaxComplementary {
		limit = MaxComplementary
	}
	names, err := s.backend.Complementary(ctx, name, limit)
	if err != nil {
		s.degraded(ctx, "complementary", name, err)
		return nil
	}
	if len(names) > limit {
		names = names[:limit]
	}
	return names
}

// ExamplesOf returns at most MaxExamples usage examples for name.
func (s *Store) ExamplesOf(ctx context.Context, name string) []string {
	examples, err := s.backend.Examples(ctx, name, MaxExamples)
	if err != nil {
		s.degraded(ctx, "examples", name, err)
		return nil
	}
	if len(examples) > MaxExamples {
		examples = examples[:MaxExamples]
	}
	return examples
}

func (s *Store) degraded(ctx context.Context, read, name string, err error) {
	if ctx.Err() != nil {
		return
	}
	degradedReads.WithLabelValues(read).Inc()
	s.logger.Warn("stats read failed", "read", read, "node", name,
		"error", fmt.Errorf("%w: %w", ErrDegradedRead, err))
}

// =============================================================================
// PATTERNS
// =============================================================================

// PatternStore serves node lists characteristic of a workflow type or use
// case.
type PatternStore struct {
	backend Reader
	logger  *slog.Logger

	mu      sync.Mutex
	current atomic.Pointer[map[string][]string]
}

// NewPatternStore creates a pattern store over backend. logger may be nil.
func NewPatternStore(backend Reader, logger *slog.Logger) *PatternStore {
	if logger == nil {
		logger = logging.New("patterns")
	}
	return &PatternStore{backend: backend, logger: logger}
}

// Load snapshots every pattern. Failures after the first load keep the old
// patterns.
func (p *PatternStore) Load(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	patterns, err := p.backend.Patterns(ctx)
	if err != nil {
		if p.current.Load() == nil {
			return fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
		}
		degradedReads.WithLabelValues("patterns").Inc()
		p.logger.Warn("degraded pattern refresh, serving previous patterns", "error", err)
		return nil
	}
	p.current.Store(&patterns)
	p.logger.Info("workflow patterns loaded", "patterns", len(patterns))
	return nil
}

// Loaded reports whether patterns are available.
func (p *PatternStore) Loaded() bool {
	return p.current.Load() != nil
}

// PatternOf returns the node list stored under key, or nil.
func (p *PatternStore) PatternOf(key string) []string {
	m := p.current.Load()
	if m == nil {
		return nil
	}
	return (*m)[key]
}

// Keys lists the known pattern keys in order.
func (p *PatternStore) Keys() []string {
	m := p.current.Load()
	if m == nil {
		return nil
	}
	keys := make([]string, 0, len(*m))
	for k := range *m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
