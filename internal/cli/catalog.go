package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var catalogFilter string

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect and refresh the node catalog",
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog nodes",
	Long: `List the nodes of the catalog, optionally filtered by category.

Example:
  nodewise catalog list
  nodewise catalog list --category "Core Nodes"`,
	Args: cobra.NoArgs,
	RunE: runCatalogList,
}

var catalogRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Fetch the catalog from its source and update the cache",
	Args:  cobra.NoArgs,
	RunE:  runCatalogRefresh,
}

func init() {
	catalogListCmd.Flags().StringVar(&catalogFilter, "category", "", "Only list nodes in this category")
	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogRefreshCmd)
}

func runCatalogList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.catalog.Load(ctx); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	count := 0
	for _, n := range a.catalog.All() {
		if catalogFilter != "" && !n.HasCategory(catalogFilter) {
			continue
		}
		count++
		fmt.Fprintf(out, "%-28s %-28s %s\n", n.Name, n.DisplayName, strings.Join(n.Categories, ", "))
	}
	fmt.Fprintf(out, "\nTotal: %d nodes\n", count)
	return nil
}

func runCatalogRefresh(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.catalog.Refresh(ctx); err != nil {
		return err
	}
	snap := a.catalog.Snapshot()
	fmt.Fprintf(cmd.OutOrStdout(), "Catalog refreshed: %d nodes from %s\n", snap.Len(), snap.Origin())
	return nil
}
