package recommend

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/saeedalam/nodewise/internal/catalog"
	"github.com/saeedalam/nodewise/internal/search"
	"github.com/saeedalam/nodewise/internal/stats"
	"github.com/saeedalam/nodewise/pkg/types"
)

// Strategy tuning.
const (
	ExactScore           = 1.0
	AliasScore           = 0.9
	SimilarCandidates    = 20
	SimilarThreshold     = 0.3
	ComboNormalizer      = 100.0
	PopularCandidates    = 20
	UsageNormalizer      = 1000.0
	WorkflowTypeBoost    = 1.2
	ComplexityBoost      = 1.1
	PatternScore         = 0.7
	complementaryPerNode = stats.MaxComplementary
)

// request is the read-only input shared by every strategy of one call.
type request struct {
	requirement string
	lowered     string
	rctx        types.RecommendationContext
	current     map[string]bool
	snap        *catalog.Snapshot
}

func newRequest(requirement string, rctx types.RecommendationContext, snap *catalog.Snapshot) *request {
	req := &request{
		requirement: requirement,
		lowered:     strings.ToLower(requirement),
		rctx:        rctx,
		current:     make(map[string]bool, len(rctx.CurrentNodes)),
		snap:        snap,
	}
	for _, n := range rctx.CurrentNodes {
		if n = strings.TrimSpace(n); n != "" {
			req.current[n] = true
		}
	}
	return req
}

// currentNodes returns the distinct current node names in caller order.
func (r *request) currentNodes() []string {
	var out []string
	seen := make(map[string]bool, len(r.current))
	for _, n := range r.rctx.CurrentNodes {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

type strategy struct {
	name string
	run  func(ctx context.Context, e *Engine, req *request) []types.Recommendation
}

// strategies in merge priority order.
var strategies = []strategy{
	{name: "exact", run: exactMatches},
	{name: "similar", run: similarNodes},
	{name: "complementary", run: complementaryNodes},
	{name: "popular", run: popularNodes},
	{name: "pattern", run: patternNodes},
}

func recommendation(n *types.NodeDescriptor, score float64, category types.Category, reason string) types.Recommendation {
	return types.Recommendation{
		Node:     *n,
		Score:    clamp(score),
		Reason:   reason,
		Category: category,
	}
}

// exactMatches scores nodes whose name or display name contains the
// requirement, plus one entry per alias containing it.
func exactMatches(_ context.Context, _ *Engine, req *request) []types.Recommendation {
	var out []types.Recommendation
	nodes := req.snap.All()
	for i := range nodes {
		n := &nodes[i]
		if strings.Contains(strings.ToLower(n.Name), req.lowered) ||
			strings.Contains(strings.ToLower(n.DisplayName), req.lowered) {
			out = append(out, recommendation(n, ExactScore, types.CategoryExactMatch,
				fmt.Sprintf("Exact match for %q", req.requirement)))
		}
		for _, alias := range n.Aliases {
			if strings.Contains(strings.ToLower(alias), req.lowered) {
				out = append(out, recommendation(n, AliasScore, types.CategoryExactMatch,
					fmt.Sprintf("Matches alias %q", alias)))
			}
		}
	}
	return out
}

// blendSimilarity averages the fuzzy and semantic scores and reports
// whether the blend clears SimilarThreshold.
func blendSimilarity(fuzzy, semantic float64) (float64, bool) {
	score := (fuzzy + semantic) / 2
	return score, score > SimilarThreshold
}

func similarNodes(_ context.Context, _ *Engine, req *request) []types.Recommendation {
	var out []types.Recommendation
	for _, m := range req.snap.Index().Search(req.requirement, SimilarCandidates) {
		score, ok := blendSimilarity(m.Similarity, search.NodeSimilarity(req.requirement, m.Node))
		if !ok {
			continue
		}
		out = append(out, recommendation(m.Node, score, types.CategorySimilar,
			fmt.Sprintf("Similar functionality to %q", req.requirement)))
	}
	return out
}

func complementaryNodes(ctx context.Context, e *Engine, req *request) []types.Recommendation {
	var out []types.Recommendation
	for _, cur := range req.currentNodes() {
		for _, name := range e.stats.ComplementaryOf(ctx, cur, complementaryPerNode) {
			if req.current[name] {
				continue
			}
			n, ok := req.snap.Find(name)
			if !ok {
				continue
			}
			score := math.Min(float64(e.stats.ComboOf(cur, name))/ComboNormalizer, 1)
			out = append(out, recommendation(n, score, types.CategoryComplementary,
				"Often used together with "+cur))
		}
	}
	return out
}

func popularNodes(_ context.Context, e *Engine, req *request) []types.Recommendation {
	var out []types.Recommendation
	for _, u := range e.stats.TopUsage(PopularCandidates) {
		n, ok := req.snap.Find(u.Name)
		if !ok {
			continue
		}
		score := math.Min(float64(u.Count)/UsageNormalizer, 1)
		if wt := req.rctx.WorkflowType; wt != "" && n.HasCategory(wt) {
			score *= WorkflowTypeBoost
		}
		if c := req.rctx.Complexity; c != "" && c.Matches(n.PropertyCount()) {
			score *= ComplexityBoost
		}
		out = append(out, recommendation(n, score, types.CategoryPopular,
			fmt.Sprintf("Popular choice (used %d times)", u.Count)))
	}
	return out
}

// patternKey picks the first of workflow type, use case and the default key
// that has a stored pattern.
func patternKey(p PatternSource, rctx types.RecommendationContext) (string, []string) {
	for _, key := range []string{rctx.WorkflowType, rctx.UseCase, stats.DefaultPatternKey} {
		if key == "" {
			continue
		}
		if nodes := p.PatternOf(key); len(nodes) > 0 {
			return key, nodes
		}
	}
	return "", nil
}

func patternNodes(_ context.Context, e *Engine, req *request) []types.Recommendation {
	if req.rctx.WorkflowType == "" && req.rctx.UseCase == "" {
		return nil
	}
	key, names := patternKey(e.patterns, req.rctx)

	var out []types.Recommendation
	for _, name := range names {
		n, ok := req.snap.Find(name)
		if !ok {
			continue
		}
		out = append(out, recommendation(n, PatternScore, types.CategoryComplementary,
			fmt.Sprintf("Common in %s workflows", key)))
	}
	return out
}
