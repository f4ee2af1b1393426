package catalog

import (
	"log/slog"
	"time"

	"github.com/saeedalam/nodewise/internal/search"
	"github.com/saeedalam/nodewise/pkg/types"
)

// Snapshot is one immutable generation of the catalog together with the
// fuzzy index built over it. Readers holding a Snapshot never observe a
// later refresh.
type Snapshot struct {
	nodes    []types.NodeDescriptor
	byName   map[string]int
	index    *search.FuzzyIndex
	loadedAt time.Time
	origin   string
}

// NewSnapshot copies nodes into a new snapshot. Nodes without a name are
// skipped and only the first descriptor of a repeated name is kept.
func NewSnapshot(nodes []types.NodeDescriptor, loadedAt time.Time, origin string, logger *slog.Logger) *Snapshot {
	s := &Snapshot{
		nodes:    make([]types.NodeDescriptor, 0, len(nodes)),
		byName:   make(map[string]int, len(nodes)),
		loadedAt: loadedAt,
		origin:   origin,
	}
	dropped := 0
	for _, n := range nodes {
		if n.Name == "" {
			dropped++
			continue
		}
		if _, dup := s.byName[n.Name]; dup {
			dropped++
			continue
		}
		s.byName[n.Name] = len(s.nodes)
		s.nodes = append(s.nodes, n)
	}
	if dropped > 0 && logger != nil {
		logger.Warn("dropped unnamed or duplicate node types", "dropped", dropped, "kept", len(s.nodes))
	}
	s.index = search.NewFuzzyIndex(s.nodes)
	return s
}

// All returns the snapshot's descriptors in source order. The slice is
// shared and must not be modified.
func (s *Snapshot) All() []types.NodeDescriptor {
	return s.nodes
}

// Find looks a descriptor up by name.
func (s *Snapshot) Find(name string) (*types.NodeDescriptor, bool) {
	i, ok := s.byName[name]
	if !ok {
		return nil, false
	}
	return &s.nodes[i], true
}

// Index returns the fuzzy index over this snapshot.
func (s *Snapshot) Index() *search.FuzzyIndex {
	return s.index
}

// Len returns the number of descriptors.
func (s *Snapshot) Len() int {
	return len(s.nodes)
}

// LoadedAt is when the snapshot was built.
func (s *Snapshot) LoadedAt() time.Time {
	return s.loadedAt
}

// Origin tells whether the data came from the cache or the source.
func (s *Snapshot) Origin() string {
	return s.origin
}
