package recommend

import (
	"math"
	"sort"

	"github.com/saeedalam/nodewise/pkg/types"
)

// DefaultLimit is the result size used when no positive limit is given.
const DefaultLimit = 10

// Merge combines strategy outputs given in priority order. Entries are
// deduplicated by node name keeping the higher score; on a tie the first
// seen entry stays. A replaced entry keeps the position where its node was
// first seen. The result is sorted by score descending with ties in
// discovery order and truncated to limit (DefaultLimit when limit <= 0).
func Merge(partials [][]types.Recommendation, limit int) []types.Recommendation {
	if limit <= 0 {
		limit = DefaultLimit
	}

	var merged []types.Recommendation
	seen := make(map[string]int)
	for _, partial := range partials {
		for _, rec := range partial {
			rec.Score = clamp(rec.Score)
			if i, ok := seen[rec.Node.Name]; ok {
				if rec.Score > merged[i].Score {
					merged[i] = rec
				}
				continue
			}
			seen[rec.Node.Name] = len(merged)
			merged = append(merged, rec)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score > merged[j].Score
	})
	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}

func clamp(score float64) float64 {
	switch {
	case score < 0 || math.IsNaN(score):
		return 0
	case score > 1:
		return 1
	}
	return score
}
