package recommend

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saeedalam/nodewise/internal/catalog"
	"github.com/saeedalam/nodewise/internal/logging"
	"github.com/saeedalam/nodewise/internal/stats"
	"github.com/saeedalam/nodewise/pkg/types"
)

func props(n int) []types.NodeProperty {
	out := make([]types.NodeProperty, n)
	for i := range out {
		out[i] = types.NodeProperty{Name: fmt.Sprintf("p%d", i), Type: types.PropertyString}
	}
	return out
}

func fixtureNodes() []types.NodeDescriptor {
	return []types.NodeDescriptor{
		{
			Name:        "HttpRequest",
			DisplayName: "HTTP Request",
			Description: "Makes an HTTP request and returns the response data",
			Categories:  []string{"Development", "Core Nodes"},
			Aliases:     []string{"API", "Fetch", "curl"},
			Properties:  props(6),
		},
		{
			Name:        "Slack",
			DisplayName: "Slack",
			Description: "Consume Slack API",
			Categories:  []string{"Communication"},
			Aliases:     []string{"chat", "message"},
			Properties:  props(12),
		},
		{
			Name:        "EmailSend",
			DisplayName: "Send Email",
			Description: "Sends an email using SMTP protocol",
			Categories:  []string{"Communication", "Core Nodes"},
			Aliases:     []string{"smtp", "mail"},
			Properties:  props(4),
		},
		{
			Name:        "Webhook",
			DisplayName: "Webhook",
			Description: "Starts the workflow when a webhook is called",
			Categories:  []string{"Core Nodes", "automation"},
			Properties:  props(2),
		},
		{
			Name:        "Schedule",
			DisplayName: "Schedule Trigger",
			Description: "Triggers the workflow on a fixed interval",
			Categories:  []string{"Core Nodes"},
			Properties:  props(1),
		},
	}
}

func fixtureBackend(t *testing.T) *stats.MemoryBackend {
	t.Helper()
	ctx := context.Background()
	b := stats.NewMemoryBackend()
	require.NoError(t, b.IncrUsage(ctx, "Webhook", 800))
	require.NoError(t, b.IncrUsage(ctx, "HttpRequest", 500))
	require.NoError(t, b.IncrUsage(ctx, "Slack", 50))
	require.NoError(t, b.IncrUsage(ctx, "Retired", 900))
	require.NoError(t, b.IncrCombo(ctx, "Slack", "EmailSend", 50))
	require.NoError(t, b.IncrCombo(ctx, "Slack", "HttpRequest", 20))
	require.NoError(t, b.IncrCombo(ctx, "Slack", "Retired", 70))
	require.NoError(t, b.SetPattern(ctx, "automation", []string{"Schedule", "HttpRequest"}))
	require.NoError(t, b.SetPattern(ctx, stats.DefaultPatternKey, []string{"Slack"}))
	for _, ex := range []string{"Daily sync", "Lead capture", "Status page", "Issue triage"} {
		require.NoError(t, b.AddExample(ctx, "HttpRequest", ex))
	}
	return b
}

type engineDeps struct {
	catalog  *catalog.Catalog
	stats    *stats.Store
	patterns *stats.PatternStore
}

func newDeps(t *testing.T, source catalog.Source, backend stats.Reader) engineDeps {
	t.Helper()
	return engineDeps{
		catalog:  catalog.New(source, nil, catalog.Options{Logger: logging.Discard()}),
		stats:    stats.NewStore(backend, logging.Discard()),
		patterns: stats.NewPatternStore(backend, logging.Discard()),
	}
}

func newTestEngine(t *testing.T, parallel bool) *Engine {
	t.Helper()
	deps := newDeps(t, &catalog.StaticSource{Nodes: fixtureNodes()}, fixtureBackend(t))
	e := New(deps.catalog, deps.stats, deps.patterns, Options{Parallel: parallel, Logger: logging.Discard()})
	require.NoError(t, e.Initialize(context.Background()))
	return e
}

func find(recs []types.Recommendation, name string) (types.Recommendation, bool) {
	for _, r := range recs {
		if r.Node.Name == name {
			return r, true
		}
	}
	return types.Recommendation{}, false
}

// ===== LIFECYCLE TESTS =====

func TestRecommendBeforeInitialize(t *testing.T) {
	deps := newDeps(t, &catalog.StaticSource{Nodes: fixtureNodes()}, fixtureBackend(t))
	e := New(deps.catalog, deps.stats, deps.patterns, Options{Logger: logging.Discard()})

	assert.False(t, e.IsReady())
	recs, err := e.RecommendNodes(context.Background(), "http request", types.RecommendationContext{}, 10)
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.Nil(t, recs)
}

func TestInitializeCatalogUnavailable(t *testing.T) {
	deps := newDeps(t, &catalog.StaticSource{Err: errors.New("connection refused")}, fixtureBackend(t))
	e := New(deps.catalog, deps.stats, deps.patterns, Options{Logger: logging.Discard()})

	err := e.Initialize(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSourceUnavailable)
	assert.False(t, e.IsReady())

	_, err = e.RecommendNodes(context.Background(), "slack", types.RecommendationContext{}, 10)
	assert.ErrorIs(t, err, ErrNotInitialized)
}

type brokenPatterns struct{}

func (brokenPatterns) Load(context.Context) error { return errors.New("redis: connection refused") }
func (brokenPatterns) PatternOf(string) []string { return nil }

func TestInitializePatternsUnavailable(t *testing.T) {
	deps := newDeps(t, &catalog.StaticSource{Nodes: fixtureNodes()}, fixtureBackend(t))
	e := New(deps.catalog, deps.stats, brokenPatterns{}, Options{Logger: logging.Discard()})

	err := e.Initialize(context.Background())
	assert.ErrorIs(t, err, ErrSourceUnavailable)
	assert.False(t, e.IsReady())
}

func TestInitializeIsIdempotent(t *testing.T) {
	e := newTestEngine(t, false)
	assert.True(t, e.IsReady())
	assert.NoError(t, e.Initialize(context.Background()))
}

func TestRecommendRejectsBlankRequirement(t *testing.T) {
	e := newTestEngine(t, false)
	for _, req := range []string{"", "   ", "\t\n"} {
		recs, err := e.RecommendNodes(context.Background(), req, types.RecommendationContext{}, 10)
		assert.ErrorIs(t, err, ErrInvalidRequirement, "requirement %q", req)
		assert.Nil(t, recs)
	}
}

func TestRecommendCancelled(t *testing.T) {
	e := newTestEngine(t, true)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	recs, err := e.RecommendNodes(ctx, "slack", types.RecommendationContext{}, 10)
	assert.ErrorIs(t, err, ErrCancelled)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, recs)
}

// ===== STRATEGY TESTS =====

func TestExactMatch(t *testing.T) {
	e := newTestEngine(t, false)
	recs, err := e.RecommendNodes(context.Background(), "http request", types.RecommendationContext{}, 10)
	require.NoError(t, err)
	require.NotEmpty(t, recs)

	assert.Equal(t, "HttpRequest", recs[0].Node.Name)
	assert.Equal(t, 1.0, recs[0].Score)
	assert.Equal(t, types.CategoryExactMatch, recs[0].Category)
	assert.Equal(t, `Exact match for "http request"`, recs[0].Reason)
}

func TestAliasMatch(t *testing.T) {
	e := newTestEngine(t, false)
	recs, err := e.RecommendNodes(context.Background(), "fetch", types.RecommendationContext{}, 10)
	require.NoError(t, err)

	rec, ok := find(recs, "HttpRequest")
	require.True(t, ok)
	assert.Equal(t, 0.9, rec.Score)
	assert.Equal(t, types.CategoryExactMatch, rec.Category)
	assert.Equal(t, `Matches alias "Fetch"`, rec.Reason)
}

func TestComplementary(t *testing.T) {
	e := newTestEngine(t, false)
	rctx := types.RecommendationContext{CurrentNodes: []string{"Slack"}}
	recs, err := e.RecommendNodes(context.Background(), "webhook", rctx, 10)
	require.NoError(t, err)

	rec, ok := find(recs, "EmailSend")
	require.True(t, ok)
	assert.Equal(t, 0.5, rec.Score)
	assert.Equal(t, types.CategoryComplementary, rec.Category)
	assert.Equal(t, "Often used together with Slack", rec.Reason)

	if rec, ok := find(recs, "Slack"); ok {
		assert.NotEqual(t, types.CategoryComplementary, rec.Category, "current nodes are never suggested as complementary")
	}
	_, ok = find(recs, "Retired")
	assert.False(t, ok, "nodes missing from the catalog are skipped")
}

func TestPopularWorkflowTypeBoost(t *testing.T) {
	e := newTestEngine(t, false)
	rctx := types.RecommendationContext{WorkflowType: "automation"}
	recs, err := e.RecommendNodes(context.Background(), "schedule", rctx, 10)
	require.NoError(t, err)

	rec, ok := find(recs, "Webhook")
	require.True(t, ok)
	assert.InDelta(t, 0.96, rec.Score, 1e-9)
	assert.Equal(t, types.CategoryPopular, rec.Category)
	assert.Equal(t, "Popular choice (used 800 times)", rec.Reason)
}

func TestPopularBoostsAreClamped(t *testing.T) {
	e := newTestEngine(t, false)

	rctx := types.RecommendationContext{Complexity: types.ComplexitySimple}
	recs, err := e.RecommendNodes(context.Background(), "schedule", rctx, 10)
	require.NoError(t, err)
	rec, ok := find(recs, "Webhook")
	require.True(t, ok)
	assert.InDelta(t, 0.88, rec.Score, 1e-9)

	rctx.WorkflowType = "automation"
	recs, err = e.RecommendNodes(context.Background(), "schedule", rctx, 10)
	require.NoError(t, err)
	rec, ok = find(recs, "Webhook")
	require.True(t, ok)
	assert.Equal(t, 1.0, rec.Score)
}

func TestPatternStrategy(t *testing.T) {
	e := newTestEngine(t, false)
	ctx := context.Background()

	recs, err := e.RecommendNodes(ctx, "webhook", types.RecommendationContext{UseCase: "automation"}, 10)
	require.NoError(t, err)
	rec, ok := find(recs, "Schedule")
	require.True(t, ok)
	assert.Equal(t, 0.7, rec.Score)
	assert.Equal(t, types.CategoryComplementary, rec.Category)
	assert.Equal(t, "Common in automation workflows", rec.Reason)

	recs, err = e.RecommendNodes(ctx, "webhook", types.RecommendationContext{WorkflowType: "marketing"}, 10)
	require.NoError(t, err)
	rec, ok = find(recs, "Slack")
	require.True(t, ok)
	assert.Equal(t, 0.7, rec.Score)
	assert.Equal(t, "Common in general workflows", rec.Reason)

	recs, err = e.RecommendNodes(ctx, "webhook", types.RecommendationContext{}, 10)
	require.NoError(t, err)
	_, ok = find(recs, "Schedule")
	assert.False(t, ok, "patterns need a workflow type or use case")
}

func TestBlendSimilarityThreshold(t *testing.T) {
	tests := []struct {
		fuzzy, semantic float64
		want            float64
		keep            bool
	}{
		{0.6, 0.0, 0.3, false},
		{0.4, 0.0, 0.2, false},
		{0.8, 0.0, 0.4, true},
		{1.0, 0.5, 0.75, true},
	}
	for _, tt := range tests {
		got, keep := blendSimilarity(tt.fuzzy, tt.semantic)
		assert.InDelta(t, tt.want, got, 1e-12)
		assert.Equal(t, tt.keep, keep, "blend(%v, %v)", tt.fuzzy, tt.semantic)
	}
}

func TestUsageExamplesAttached(t *testing.T) {
	e := newTestEngine(t, false)
	recs, err := e.RecommendNodes(context.Background(), "http request", types.RecommendationContext{}, 10)
	require.NoError(t, err)

	rec, ok := find(recs, "HttpRequest")
	require.True(t, ok)
	assert.Equal(t, []string{"Issue triage", "Status page", "Lead capture"}, rec.UsageExamples)
}

// ===== RESULT INVARIANT TESTS =====

func invariantCases() []struct {
	requirement string
	rctx        types.RecommendationContext
} {
	return []struct {
		requirement string
		rctx        types.RecommendationContext
	}{
		{"http request", types.RecommendationContext{}},
		{"send an email", types.RecommendationContext{CurrentNodes: []string{"Slack", "Webhook"}}},
		{"slak", types.RecommendationContext{WorkflowType: "automation", Complexity: types.ComplexityMedium}},
		{"core nodes", types.RecommendationContext{UseCase: "automation", CurrentNodes: []string{"Slack"}}},
		{"trigger the workflow", types.RecommendationContext{WorkflowType: "automation", Complexity: types.ComplexitySimple}},
		{"zzzzzz", types.RecommendationContext{}},
	}
}

func TestResultInvariants(t *testing.T) {
	e := newTestEngine(t, false)
	for _, tc := range invariantCases() {
		for _, limit := range []int{1, 2, 3, 10} {
			recs, err := e.RecommendNodes(context.Background(), tc.requirement, tc.rctx, limit)
			require.NoError(t, err)
			assert.LessOrEqual(t, len(recs), limit)

			seen := make(map[string]bool)
			for i, r := range recs {
				assert.GreaterOrEqual(t, r.Score, 0.0)
				assert.LessOrEqual(t, r.Score, 1.0)
				assert.False(t, seen[r.Node.Name], "duplicate %s for %q", r.Node.Name, tc.requirement)
				seen[r.Node.Name] = true
				assert.LessOrEqual(t, len(r.UsageExamples), stats.MaxExamples)
				if i > 0 {
					assert.GreaterOrEqual(t, recs[i-1].Score, r.Score)
				}
			}
		}
	}
}

func TestRecommendIsIdempotent(t *testing.T) {
	e := newTestEngine(t, true)
	for _, tc := range invariantCases() {
		first, err := e.RecommendNodes(context.Background(), tc.requirement, tc.rctx, 10)
		require.NoError(t, err)
		second, err := e.RecommendNodes(context.Background(), tc.requirement, tc.rctx, 10)
		require.NoError(t, err)
		if diff := cmp.Diff(first, second); diff != "" {
			t.Errorf("%q: repeated call differs (-first +second):\n%s", tc.requirement, diff)
		}
	}
}

func TestParallelMatchesSequential(t *testing.T) {
	seq := newTestEngine(t, false)
	par := newTestEngine(t, true)
	for _, tc := range invariantCases() {
		want, err := seq.RecommendNodes(context.Background(), tc.requirement, tc.rctx, 10)
		require.NoError(t, err)
		got, err := par.RecommendNodes(context.Background(), tc.requirement, tc.rctx, 10)
		require.NoError(t, err)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("%q: parallel differs (-sequential +parallel):\n%s", tc.requirement, diff)
		}
	}
}

func TestDefaultLimit(t *testing.T) {
	deps := newDeps(t, &catalog.StaticSource{Nodes: fixtureNodes()}, fixtureBackend(t))
	e := New(deps.catalog, deps.stats, deps.patterns, Options{DefaultLimit: 2, Logger: logging.Discard()})
	require.NoError(t, e.Initialize(context.Background()))

	rctx := types.RecommendationContext{WorkflowType: "automation", CurrentNodes: []string{"Slack"}}
	recs, err := e.RecommendNodes(context.Background(), "core nodes", rctx, 0)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestConcurrentRequests(t *testing.T) {
	e := newTestEngine(t, true)
	want, err := e.RecommendNodes(context.Background(), "send an email", types.RecommendationContext{CurrentNodes: []string{"Slack"}}, 10)
	require.NoError(t, err)

	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			got, err := e.RecommendNodes(context.Background(), "send an email", types.RecommendationContext{CurrentNodes: []string{"Slack"}}, 10)
			if err == nil && !cmp.Equal(want, got) {
				err = errors.New("concurrent result differs")
			}
			errs <- err
		}()
	}
	for i := 0; i < 8; i++ {
		assert.NoError(t, <-errs)
	}
}
