package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/saeedalam/nodewise/internal/config"
	"github.com/saeedalam/nodewise/internal/logging"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string
	cfg       *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "nodewise",
	Short: "Node recommendations for workflow automation",
	Long: `nodewise - Node Recommendations for Workflow Builders

nodewise suggests which automation nodes to add next. It ranks the node
catalog against a plain-language requirement using exact matches, fuzzy and
stemmed-text similarity, nodes usually combined with the ones already in
the workflow, global popularity and known workflow patterns.

Quick Start:
  nodewise catalog refresh             Load the node catalog
  nodewise stats record wf.json        Learn from an exported workflow
  nodewise recommend "send an email"   Get ranked suggestions
  nodewise shell                       Interactive session`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "Config file (default: ./nodewise.yaml or $HOME/.config/nodewise/nodewise.yaml)")
	pf.StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	pf.StringVar(&logFormat, "log-format", "text", "Log format: text or json")
	pf.String("catalog-source", "", "Node catalog file or URL")
	pf.String("stats-backend", "", "Stats backend: redis, sqlite or memory")
	pf.String("redis-addr", "", "Redis address")
	pf.String("sqlite-path", "", "SQLite database path")

	rootCmd.AddCommand(recommendCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(shellCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig merges file, environment and flags, then sets up logging.
func loadConfig(cmd *cobra.Command, args []string) error {
	if cmd == versionCmd {
		return nil
	}
	loaded, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	level, err := logging.ParseLevel(loaded.Log.Level)
	if err != nil {
		return err
	}
	logging.Init(level, loaded.Log.Format, cmd.ErrOrStderr())
	cfg = loaded
	return nil
}
