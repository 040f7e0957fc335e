package domain

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"example.com/stravahook/internal/observability"
)

// Runner processes a single activity.
type Runner interface {
	Process(ctx context.Context, activityID int64) (Result, error)
}

// Dispatcher runs activity processing in the background, detached from the request that triggered it.
type Dispatcher struct {
	ctx    context.Context
	runner Runner
	logger *slog.Logger
	wg     sync.WaitGroup
}

// NewDispatcher constructs a Dispatcher. Work inherits values, not cancellation, from ctx.
func NewDispatcher(ctx context.Context, runner Runner, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		ctx:    context.WithoutCancel(ctx),
		runner: runner,
		logger: logger,
	}
}

// Submit starts processing and returns immediately. The outcome is only visible in logs and metrics.
func (d *Dispatcher) Submit(activityID int64) string {
	jobID := uuid.NewString()

	d.wg.Add(1)
	observability.IncInFlight()
	go func() {
		defer d.wg.Done()
		defer observability.DecInFlight()

		result, err := d.runner.Process(d.ctx, activityID)
		d.logger.DebugContext(d.ctx, "activity job finished",
			"job_id", jobID,
			"activity_id", activityID,
			"outcome", result.Outcome,
			"failed", err != nil,
		)
	}()
	return jobID
}

// Wait blocks until every submitted job has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
