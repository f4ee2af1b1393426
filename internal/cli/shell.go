package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/saeedalam/nodewise/internal/recommend"
	"github.com/saeedalam/nodewise/internal/worker"
	"github.com/saeedalam/nodewise/pkg/types"
)

var shellMetricsAddr string

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Interactive recommendation session",
	Long: `Start an interactive session. Each line is a requirement; lines starting
with ":" change the workflow context. The catalog and statistics are
refreshed in the background while the session runs.

Commands:
  :current A,B       Nodes already in the workflow
  :type <name>       Workflow type
  :usecase <name>    Use case
  :industry <name>   Industry
  :complexity <c>    simple, medium or complex
  :limit <n>         Number of results
  :context           Show the current context
  :reset             Clear the context
  :status            Show background refresh status
  :quit              Leave the shell

Example:
  nodewise shell --metrics-addr :9090`,
	Args: cobra.NoArgs,
	RunE: runShell,
}

func init() {
	shellCmd.Flags().StringVar(&shellMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
}

// shellSession is the mutable state of one interactive session.
type shellSession struct {
	engine  *recommend.Engine
	workers *worker.Manager
	rctx    types.RecommendationContext
	limit   int
}

func runShell(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.engine.Initialize(ctx); err != nil {
		return err
	}

	workers := a.refresher()
	if err := workers.Start(); err != nil {
		return err
	}
	defer workers.Stop()

	if shellMetricsAddr != "" {
		srv := metricsServer(shellMetricsAddr)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("metrics server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		a.logger.Info("serving metrics", "addr", shellMetricsAddr)
	}

	s := &shellSession{engine: a.engine, workers: workers}
	return s.run(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
}

func metricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// run reads lines until EOF, :quit or cancellation.
func (s *shellSession) run(ctx context.Context, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	fmt.Fprintln(out, "nodewise shell. Type a requirement, :help for commands.")
	for {
		fmt.Fprint(out, "nodewise> ")
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return nil
		case line, ok := <-lines:
			if !ok {
				fmt.Fprintln(out)
				return nil
			}
			if s.handle(ctx, line, out) {
				return nil
			}
		}
	}
}

// handle processes one input line and reports whether the session ends.
func (s *shellSession) handle(ctx context.Context, line string, out io.Writer) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if !strings.HasPrefix(line, ":") {
		recs, err := s.engine.RecommendNodes(ctx, line, s.rctx, s.limit)
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			return false
		}
		printRecommendations(out, recs)
		return false
	}

	name, arg, _ := strings.Cut(line[1:], " ")
	arg = strings.TrimSpace(arg)
	switch name {
	case "quit", "exit", "q":
		return true
	case "help", "h":
		fmt.Fprintln(out, "Commands: :current :type :usecase :industry :complexity :limit :context :reset :status :quit")
	case "current":
		s.rctx.CurrentNodes = splitList(arg)
	case "type":
		s.rctx.WorkflowType = arg
	case "usecase":
		s.rctx.UseCase = arg
	case "industry":
		s.rctx.Industry = arg
	case "complexity":
		c := types.Complexity(strings.ToLower(arg))
		if c != "" && !c.Valid() {
			fmt.Fprintf(out, "Error: unknown complexity %q\n", arg)
			return false
		}
		s.rctx.Complexity = c
	case "limit":
		n, err := strconv.Atoi(arg)
		if err != nil || n < 0 {
			fmt.Fprintf(out, "Error: invalid limit %q\n", arg)
			return false
		}
		s.limit = n
	case "context":
		fmt.Fprintf(out, "current=%s type=%q usecase=%q industry=%q complexity=%q limit=%d\n",
			strings.Join(s.rctx.CurrentNodes, ","), s.rctx.WorkflowType, s.rctx.UseCase,
			s.rctx.Industry, s.rctx.Complexity, s.limit)
	case "reset":
		s.rctx = types.RecommendationContext{}
		s.limit = 0
	case "status":
		if s.workers == nil {
			fmt.Fprintln(out, "Background refresh disabled")
			return false
		}
		st := s.workers.GetStats()
		fmt.Fprintf(out, "catalog refreshes=%d stats refreshes=%d errors=%d\n",
			st.CatalogRefreshes, st.StatsRefreshes, st.ErrorCount)
		if st.LastError != "" {
			fmt.Fprintf(out, "last error: %s\n", st.LastError)
		}
	default:
		fmt.Fprintf(out, "Unknown command %q, try :help\n", name)
	}
	return false
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
