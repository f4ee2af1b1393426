package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/saeedalam/nodewise/pkg/types"
)

var (
	recCurrent      []string
	recWorkflowType string
	recIndustry     string
	recUseCase      string
	recComplexity   string
	recLimit        int
	recJSON         bool
)

var recommendCmd = &cobra.Command{
	Use:   "recommend <requirement>",
	Short: "Recommend nodes for a requirement",
	Long: `Rank catalog nodes for a plain-language requirement.

Context flags refine the ranking: nodes already in the workflow pull in
nodes usually combined with them, the workflow type and use case select a
workflow pattern and boost popular nodes of that category.

Example:
  nodewise recommend "send an email"
  nodewise recommend "notify the team" --current Slack,Webhook
  nodewise recommend "sync contacts" --workflow-type automation --complexity simple --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRecommend,
}

func init() {
	f := recommendCmd.Flags()
	f.StringSliceVarP(&recCurrent, "current", "c", nil, "Nodes already in the workflow")
	f.StringVar(&recWorkflowType, "workflow-type", "", "Target workflow type")
	f.StringVar(&recIndustry, "industry", "", "Industry of the workflow")
	f.StringVar(&recUseCase, "use-case", "", "Use case of the workflow")
	f.StringVar(&recComplexity, "complexity", "", "Desired complexity: simple, medium, complex")
	f.IntVarP(&recLimit, "limit", "l", 0, "Max results (default engine.default_limit)")
	f.BoolVar(&recJSON, "json", false, "Print results as JSON")
}

func recommendationContext() (types.RecommendationContext, error) {
	rctx := types.RecommendationContext{
		CurrentNodes: recCurrent,
		WorkflowType: recWorkflowType,
		Industry:     recIndustry,
		UseCase:      recUseCase,
		Complexity:   types.Complexity(strings.ToLower(recComplexity)),
	}
	if rctx.Complexity != "" && !rctx.Complexity.Valid() {
		return rctx, fmt.Errorf("unknown complexity %q", recComplexity)
	}
	return rctx, nil
}

func runRecommend(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	rctx, err := recommendationContext()
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.engine.Initialize(ctx); err != nil {
		return err
	}

	recs, err := a.engine.RecommendNodes(ctx, strings.Join(args, " "), rctx, recLimit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if recJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(recs)
	}
	printRecommendations(out, recs)
	return nil
}

func printRecommendations(out io.Writer, recs []types.Recommendation) {
	if len(recs) == 0 {
		fmt.Fprintln(out, "No recommendations.")
		return
	}
	for i, r := range recs {
		fmt.Fprintf(out, "%2d. %-24s %.2f  [%s]\n", i+1, r.Node.Name, r.Score, r.Category)
		fmt.Fprintf(out, "    %s\n", r.Reason)
		if r.Node.DisplayName != "" && r.Node.DisplayName != r.Node.Name {
			fmt.Fprintf(out, "    %s\n", r.Node.DisplayName)
		}
		if len(r.UsageExamples) > 0 {
			fmt.Fprintf(out, "    Used in: %s\n", strings.Join(r.UsageExamples, ", "))
		}
	}
}
