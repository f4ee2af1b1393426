package recommend

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/saeedalam/nodewise/pkg/types"
)

func rec(name string, score float64, category types.Category) types.Recommendation {
	return types.Recommendation{
		Node:     types.NodeDescriptor{Name: name},
		Score:    score,
		Category: category,
	}
}

func names(recs []types.Recommendation) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Node.Name
	}
	return out
}

// ===== MERGE TESTS =====

func TestMergeKeepsHigherScore(t *testing.T) {
	got := Merge([][]types.Recommendation{
		{rec("A", 0.4, types.CategorySimilar)},
		{rec("B", 0.5, types.CategoryComplementary), rec("A", 0.9, types.CategoryPopular)},
	}, 10)

	assert.Equal(t, []string{"A", "B"}, names(got))
	assert.Equal(t, 0.9, got[0].Score)
	assert.Equal(t, types.CategoryPopular, got[0].Category)
}

func TestMergeFirstSeenWinsTies(t *testing.T) {
	got := Merge([][]types.Recommendation{
		{rec("A", 0.7, types.CategoryExactMatch)},
		{rec("A", 0.7, types.CategoryComplementary)},
	}, 10)

	assert.Len(t, got, 1)
	assert.Equal(t, types.CategoryExactMatch, got[0].Category)
}

func TestMergeTiesFollowStrategyOrder(t *testing.T) {
	got := Merge([][]types.Recommendation{
		{rec("Exact", 0.5, types.CategoryExactMatch)},
		{rec("Similar", 0.5, types.CategorySimilar)},
		{rec("Comp", 0.8, types.CategoryComplementary)},
		{rec("Popular", 0.5, types.CategoryPopular)},
		{rec("Pattern", 0.5, types.CategoryComplementary)},
	}, 10)

	assert.Equal(t, []string{"Comp", "Exact", "Similar", "Popular", "Pattern"}, names(got))
}

func TestMergeReplacedEntryKeepsPosition(t *testing.T) {
	got := Merge([][]types.Recommendation{
		{rec("A", 0.2, types.CategorySimilar), rec("B", 0.6, types.CategorySimilar)},
		{rec("A", 0.6, types.CategoryPopular)},
	}, 10)

	assert.Equal(t, []string{"A", "B"}, names(got))
}

func TestMergeLimit(t *testing.T) {
	var partial []types.Recommendation
	for i := 0; i < 15; i++ {
		partial = append(partial, rec(string(rune('A'+i)), float64(i)/20, types.CategoryPopular))
	}

	assert.Len(t, Merge([][]types.Recommendation{partial}, 3), 3)
	assert.Len(t, Merge([][]types.Recommendation{partial}, 0), DefaultLimit)
	assert.Len(t, Merge([][]types.Recommendation{partial}, -1), DefaultLimit)
	assert.Equal(t, "O", Merge([][]types.Recommendation{partial}, 1)[0].Node.Name)
}

func TestMergeClampsScores(t *testing.T) {
	got := Merge([][]types.Recommendation{
		{rec("High", 1.3, types.CategoryPopular), rec("Low", -0.2, types.CategoryPopular)},
	}, 10)

	assert.Equal(t, 1.0, got[0].Score)
	assert.Equal(t, 0.0, got[1].Score)
}

func TestMergeEmpty(t *testing.T) {
	assert.Empty(t, Merge(nil, 10))
	assert.Empty(t, Merge([][]types.Recommendation{nil, {}, nil}, 10))
}
