package stats

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryBackend keeps everything in process memory. It is used by tests and
// by the "memory" backend setting for throwaway runs.
type MemoryBackend struct {
	mu       sync.RWMutex
	usage    map[string]int64
	combos   map[string]int64
	patterns map[string][]string
	examples map[string][]string // most recent first
}

// NewMemoryBackend returns an empty backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		usage:    make(map[string]int64),
		combos:   make(map[string]int64),
		patterns: make(map[string][]string),
		examples: make(map[string][]string),
	}
}

func (m *MemoryBackend) UsageCounts(context.Context) (map[string]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyCounts(m.usage), nil
}

func (m *MemoryBackend) ComboCounts(context.Context) (map[string]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyCounts(m.combos), nil
}

func (m *MemoryBackend) Patterns(context.Context) (map[string][]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string][]string, len(m.patterns))
	for k, v := range m.patterns {
		out[k] = append([]string(nil), v...)
	}
	return out, nil
}

func (m *MemoryBackend) Complementary(_ context.Context, name string, limit int) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	prefix := name + "+"
	var partners []partner
	for pair, n := range m.combos {
		if b, ok := strings.CutPrefix(pair, prefix); ok && n > 0 {
			partners = append(partners, partner{name: b, count: n})
		}
	}
	return topPartners(partners, limit), nil
}

func (m *MemoryBackend) Examples(_ context.Context, name string, limit int) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ex := m.examples[name]
	if len(ex) > limit {
		ex = ex[:limit]
	}
	return append([]string(nil), ex...), nil
}

func (m *MemoryBackend) IncrUsage(_ context.Context, name string, delta int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.usage[name] += delta
	return nil
}

func (m *MemoryBackend) IncrCombo(_ context.Context, a, b string, delta int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.combos[ComboPair(a, b)] += delta
	return nil
}

func (m *MemoryBackend) AddExample(_ context.Context, name, example string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.examples[name] = append([]string{example}, m.examples[name]...)
	if len(m.examples[name]) > maxStoredExamples {
		m.examples[name] = m.examples[name][:maxStoredExamples]
	}
	return nil
}

func (m *MemoryBackend) SetPattern(_ context.Context, key string, nodes []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.patterns[key] = append([]string(nil), nodes...)
	return nil
}

func (m *MemoryBackend) Close() error { return nil }

func copyCounts(in map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// maxStoredExamples bounds how many examples a backend keeps per node.
const maxStoredExamples = 10

type partner struct {
	name  string
	count int64
}

// topPartners orders partners by count desc, then name, and keeps limit.
func topPartners(partners []partner, limit int) []string {
	sort.Slice(partners, func(i, j int) bool {
		if partners[i].count != partners[j].count {
			return partners[i].count > partners[j].count
		}
		return partners[i].name < partners[j].name
	})
	if limit > 0 && len(partners) > limit {
		partners = partners[:limit]
	}
	names := make([]string, len(partners))
	for i, p := range partners {
		names[i] = p.name
	}
	return names
}
