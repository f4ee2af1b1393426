package stats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/saeedalam/nodewise/internal/logging"
	"github.com/saeedalam/nodewise/pkg/types"
)

// Recorder turns observed workflows into usage evidence.
type Recorder struct {
	writer Writer
	logger *slog.Logger
}

// NewRecorder creates a recorder writing to w. logger may be nil.
func NewRecorder(w Writer, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = logging.New("recorder")
	}
	return &Recorder{writer: w, logger: logger}
}

// RecordWorkflow counts every enabled node type of wf once, counts every
// ordered pair of distinct types and stores the workflow name as a usage
// example of each type. All writes are attempted; failures are joined.
func (r *Recorder) RecordWorkflow(ctx context.Context, wf *types.Workflow) error {
	if wf == nil {
		return nil
	}
	nodeTypes := wf.NodeTypes()
	if len(nodeTypes) == 0 {
		return nil
	}

	var errs []error
	for _, t := range nodeTypes {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.writer.IncrUsage(ctx, t, 1); err != nil {
			errs = append(errs, fmt.Errorf("usage %s: %w", t, err))
		}
		for _, other := range nodeTypes {
			if other == t {
				continue
			}
			if err := r.writer.IncrCombo(ctx, t, other, 1); err != nil {
				errs = append(errs, fmt.Errorf("combo %s: %w", ComboPair(t, other), err))
			}
		}
		if name := strings.TrimSpace(wf.Name); name != "" {
			if err := r.writer.AddExample(ctx, t, name); err != nil {
				errs = append(errs, fmt.Errorf("example %s: %w", t, err))
			}
		}
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}
	r.logger.Debug("workflow recorded", "workflow", wf.Name, "types", len(nodeTypes))
	return nil
}

// SetPattern stores the node list characteristic of key.
func (r *Recorder) SetPattern(ctx context.Context, key string, nodes []string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("pattern key is required")
	}
	cleaned := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if n = strings.TrimSpace(n); n != "" {
			cleaned = append(cleaned, n)
		}
	}
	if err := r.writer.SetPattern(ctx, key, cleaned); err != nil {
		return fmt.Errorf("storing pattern %s: %w", key, err)
	}
	return nil
}
