// Package pipeline sequences the transform run: discover the raw snapshot,
// resolve the watermark, normalize, enrich, aggregate and write the two
// output artifacts. Steps run synchronously in a fixed order; the first
// failure aborts the run and propagates with stage context.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Step is a single unit of the run. Steps communicate through State and must
// be side-effect free until they succeed.
type Step interface {
	// ID returns the unique identifier for this step
	ID() string

	// Name returns the human-readable name for this step
	Name() string

	// Run executes the step against the shared run state
	Run(ctx context.Context, state *State) error
}

// Runner executes steps sequentially
type Runner struct {
	steps  []Step
	logger *slog.Logger
}

// NewRunner creates a runner over the given steps
func NewRunner(logger *slog.Logger, steps ...Step) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{steps: steps, logger: logger}
}

// Run executes every step in order and returns the final state. The returned
// error wraps the failing step's ID so the orchestrator can diagnose which
// stage broke the run.
func (r *Runner) Run(ctx context.Context) (*State, error) {
	state := &State{}

	for _, step := range r.steps {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("run cancelled before step %s: %w", step.ID(), ctx.Err())
		default:
		}

		r.logger.InfoContext(ctx, "step started",
			slog.String("step", step.ID()),
			slog.String("name", step.Name()))

		start := time.Now()
		if err := step.Run(ctx, state); err != nil {
			r.logger.ErrorContext(ctx, "step failed",
				slog.String("step", step.ID()),
				slog.Duration("elapsed", time.Since(start)),
				slog.Any("error", err))
			return nil, fmt.Errorf("step %s: %w", step.ID(), err)
		}

		r.logger.InfoContext(ctx, "step completed",
			slog.String("step", step.ID()),
			slog.Duration("elapsed", time.Since(start)))
	}

	return state, nil
}
