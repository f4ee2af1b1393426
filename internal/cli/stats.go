package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/saeedalam/nodewise/pkg/types"
)

var statsTopLimit int

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Record and inspect usage statistics",
	Long: `Record and inspect the usage statistics behind recommendations.

Statistics are kept in the configured backend (redis, sqlite or memory).`,
}

var statsRecordCmd = &cobra.Command{
	Use:   "record <workflow.json>...",
	Short: "Learn usage and combinations from exported workflows",
	Long: `Count every node type of each workflow, every pair of node types used
together, and remember the workflow name as a usage example.

Files may hold a single workflow or a list of workflows, as JSON or YAML.

Example:
  nodewise stats record exports/*.json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runStatsRecord,
}

var statsPatternCmd = &cobra.Command{
	Use:   "pattern <key> <node>...",
	Short: "Store the nodes typical of a workflow type or use case",
	Long: `Store the node list recommended for a workflow type or use case.
The key "general" is used when nothing more specific matches.

Example:
  nodewise stats pattern automation Schedule HttpRequest Set`,
	Args: cobra.MinimumNArgs(2),
	RunE: runStatsPattern,
}

var statsTopCmd = &cobra.Command{
	Use:   "top",
	Short: "Show the most used nodes",
	Args:  cobra.NoArgs,
	RunE:  runStatsTop,
}

func init() {
	statsTopCmd.Flags().IntVarP(&statsTopLimit, "limit", "l", 20, "Number of nodes to show")
	statsCmd.AddCommand(statsRecordCmd)
	statsCmd.AddCommand(statsPatternCmd)
	statsCmd.AddCommand(statsTopCmd)
}

// readWorkflows decodes a file holding one workflow or a list of them.
func readWorkflows(path string) ([]types.Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".yaml" || ext == ".yml" {
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		if data, err = json.Marshal(doc); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var wfs []types.Workflow
		if err := json.Unmarshal(data, &wfs); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		return wfs, nil
	}
	var wf types.Workflow
	if err := json.Unmarshal(data, &wf); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return []types.Workflow{wf}, nil
}

func runStatsRecord(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	rec := a.recorder()
	out := cmd.OutOrStdout()
	recorded := 0
	var errs []error
	for _, path := range args {
		wfs, err := readWorkflows(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for i := range wfs {
			if err := rec.RecordWorkflow(ctx, &wfs[i]); err != nil {
				errs = append(errs, fmt.Errorf("%s: %s: %w", path, wfs[i].Name, err))
				continue
			}
			recorded++
			fmt.Fprintf(out, "Recorded %q (%d node types)\n", wfs[i].Name, len(wfs[i].NodeTypes()))
		}
	}

	fmt.Fprintf(out, "\nTotal: %d workflows recorded\n", recorded)
	return errors.Join(errs...)
}

func runStatsPattern(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.recorder().SetPattern(ctx, args[0], args[1:]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Pattern %q: %s\n", args[0], strings.Join(args[1:], ", "))
	return nil
}

func runStatsTop(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.stats.Load(ctx); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	top := a.stats.TopUsage(statsTopLimit)
	if len(top) == 0 {
		fmt.Fprintln(out, "No usage recorded yet.")
		return nil
	}
	for i, u := range top {
		fmt.Fprintf(out, "%3d. %-28s %d\n", i+1, u.Name, u.Count)
	}
	return nil
}
