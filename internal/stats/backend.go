// Package stats holds the usage evidence the recommender ranks with:
// per-node usage counters, pairwise co-occurrence counters, workflow
// patterns, complementary node lists and usage examples.
//
// Counters and patterns are snapshotted in memory by Load; complementary
// lists and examples are read live. Every read is best-effort: a failing
// backend yields an empty answer and a logged ErrDegradedRead.
package stats

import (
	"context"
	"errors"
)

// Key names shared by every backend that exposes them (Redis uses them as
// keys, SQLite as table concepts).
const (
	UsageKey         = "node_usage_stats"
	ComboKey         = "node_combo_stats"
	PatternsKey      = "workflow_patterns"
	ComplementaryKey = "complementary:"
	ExamplesKey      = "usage_examples:"
	ComboRankKey     = "combo_rank:"
)

// Limits applied to live list reads.
const (
	MaxExamples      = 3
	MaxComplementary = 10
	// DefaultPatternKey is used when no workflow type or use case matches.
	DefaultPatternKey = "general"
)

// ErrDegradedRead marks a stats read that failed and was answered with an
// empty result.
var ErrDegradedRead = errors.New("degraded stats read")

// ErrSourceUnavailable is returned by Load when the backend cannot be read
// and nothing was loaded before.
var ErrSourceUnavailable = errors.New("stats source unavailable")

// ComboPair builds the "A+B" key of an ordered pair.
func ComboPair(a, b string) string {
	return a + "+" + b
}

// Reader is the read side of a stats backend.
type Reader interface {
	UsageCounts(ctx context.Context) (map[string]int64, error)
	ComboCounts(ctx context.Context) (map[string]int64, error)
	Patterns(ctx context.Context) (map[string][]string, error)
	Complementary(ctx context.Context, name string, limit int) ([]string, error)
	Examples(ctx context.Context, name string, limit int) ([]string, error)
}

// Writer is the ingestion side of a stats backend.
type Writer interface {
	IncrUsage(ctx context.Context, name string, delta int64) error
	// IncrCombo bumps the a+b counter and keeps a's complementary list
	// ordered by count.
	IncrCombo(ctx context.Context, a, b string, delta int64) error
	AddExample(ctx context.Context, name, example string) error
	SetPattern(ctx context.Context, key string, nodes []string) error
}

// Backend is a complete stats store.
type Backend interface {
	Reader
	Writer
	Close() error
}
