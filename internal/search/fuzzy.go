package search

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/saeedalam/nodewise/pkg/types"
)

// DefaultFuzzyThreshold is the distance a field must stay below to count as
// a match. Every returned node has a combined distance below it as well.
const DefaultFuzzyThreshold = 0.6

// Field identifies a searchable descriptor field.
type Field int

const (
	FieldName Field = iota
	FieldDisplayName
	FieldDescription
	FieldCategories
	FieldAliases
	numFields
)

// FieldWeights holds the relative weight of each field.
type FieldWeights [numFields]float64

// DefaultFieldWeights weights identity fields above free text.
var DefaultFieldWeights = FieldWeights{
	FieldName:        0.3,
	FieldDisplayName: 0.3,
	FieldDescription: 0.2,
	FieldCategories:  0.1,
	FieldAliases:     0.1,
}

// FuzzyMatch is one search hit. Distance is in [0,1] with 0 a perfect match;
// Similarity is 1 - Distance.
type FuzzyMatch struct {
	Node       *types.NodeDescriptor
	Distance   float64
	Similarity float64
}

type indexedNode struct {
	node   *types.NodeDescriptor
	fields [numFields][]string // normalized values per field
}

// FuzzyIndex is a weighted multi-field fuzzy matcher over a fixed set of
// nodes. It is immutable after construction and safe for concurrent use.
type FuzzyIndex struct {
	entries   []indexedNode
	weights   FieldWeights
	threshold float64
}

// NewFuzzyIndex indexes nodes with the default weights and threshold. The
// index keeps pointers into nodes, which must not be modified afterwards.
func NewFuzzyIndex(nodes []types.NodeDescriptor) *FuzzyIndex {
	return NewFuzzyIndexWithOptions(nodes, DefaultFieldWeights, DefaultFuzzyThreshold)
}

// NewFuzzyIndexWithOptions indexes nodes with custom weights and threshold.
func NewFuzzyIndexWithOptions(nodes []types.NodeDescriptor, weights FieldWeights, threshold float64) *FuzzyIndex {
	idx := &FuzzyIndex{
		entries:   make([]indexedNode, len(nodes)),
		weights:   weights,
		threshold: threshold,
	}
	for i := range nodes {
		n := &nodes[i]
		e := indexedNode{node: n}
		e.fields[FieldName] = normalizeAll(n.Name)
		e.fields[FieldDisplayName] = normalizeAll(n.DisplayName)
		e.fields[FieldDescription] = normalizeAll(n.Description)
		e.fields[FieldCategories] = normalizeAll(n.Categories...)
		e.fields[FieldAliases] = normalizeAll(n.Aliases...)
		idx.entries[i] = e
	}
	return idx
}

func normalizeAll(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if nv := normalize(v); nv != "" {
			out = append(out, nv)
		}
	}
	return out
}

// Len returns the number of indexed nodes.
func (idx *FuzzyIndex) Len() int {
	return len(idx.entries)
}

// Search returns up to limit nodes matching query, best first. Ties keep
// index order. A limit <= 0 returns every match.
func (idx *FuzzyIndex) Search(query string, limit int) []FuzzyMatch {
	q := normalize(query)
	if q == "" {
		return nil
	}
	qTokens := strings.Count(q, " ") + 1

	var matches []FuzzyMatch
	for i := range idx.entries {
		e := &idx.entries[i]
		d, ok := idx.score(q, qTokens, e)
		if !ok {
			continue
		}
		matches = append(matches, FuzzyMatch{Node: e.node, Distance: d, Similarity: 1 - d})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// score combines the distances of the matched fields into their
// weight-normalized geometric mean. Fields at or above the threshold are
// ignored; a node with no matched field is not a match.
func (idx *FuzzyIndex) score(q string, qTokens int, e *indexedNode) (float64, bool) {
	var logSum, weightSum float64
	zero := false
	for f := Field(0); f < numFields; f++ {
		w := idx.weights[f]
		if w <= 0 || len(e.fields[f]) == 0 {
			continue
		}
		d := 1.0
		for _, v := range e.fields[f] {
			d = math.Min(d, FieldDistance(q, qTokens, v))
		}
		if d >= idx.threshold {
			continue
		}
		weightSum += w
		if d == 0 {
			zero = true
			continue
		}
		logSum += w * math.Log(d)
	}
	if weightSum == 0 {
		return 0, false
	}
	if zero {
		return 0, true
	}
	return math.Exp(logSum / weightSum), true
}

// FieldDistance is the normalized edit/containment distance between a
// normalized query of qTokens tokens and a normalized field value. It is 0
// when the value contains the query, otherwise the smallest normalized
// Levenshtein distance between the query and either the whole value or any
// run of qTokens consecutive value tokens.
func FieldDistance(q string, qTokens int, value string) float64 {
	if q == "" || value == "" {
		return 1
	}
	if strings.Contains(value, q) {
		return 0
	}

	best := editDistance(q, value)
	tokens := strings.Split(value, " ")
	if len(tokens) <= qTokens {
		return best
	}
	for i := 0; i+qTokens <= len(tokens); i++ {
		window := strings.Join(tokens[i:i+qTokens], " ")
		if d := editDistance(q, window); d < best {
			best = d
		}
	}
	return best
}

func editDistance(a, b string) float64 {
	longest := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > longest {
		longest = n
	}
	if longest == 0 {
		return 0
	}
	return float64(levenshtein.ComputeDistance(a, b)) / float64(longest)
}
