package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/edgepredict/simulation-service/internal/domain"
	"github.com/edgepredict/simulation-service/internal/engine"
	"github.com/edgepredict/simulation-service/internal/observability"
	"github.com/edgepredict/simulation-service/internal/queue"
	"github.com/edgepredict/simulation-service/internal/repository"
)

// maxStderrLength bounds stored diagnostics to avoid unbounded growth.
const maxStderrLength = 500

// WorkspaceManager is the slice of workspace behavior the executor needs.
type WorkspaceManager interface {
	Remove(jobID string) error
}

// Executor consumes dispatched simulation tasks, runs the engine and
// reconciles terminal state. Errors are absorbed into job status; the
// message loop never crashes.
type Executor struct {
	jobs             repository.SimulationRepository
	workspaces       WorkspaceManager
	runner           engine.Runner
	metrics          *observability.Metrics
	logger           *zap.Logger
	retainWorkspaces bool
}

// NewExecutor builds an executor.
func NewExecutor(
	jobs repository.SimulationRepository,
	workspaces WorkspaceManager,
	runner engine.Runner,
	metrics *observability.Metrics,
	logger *zap.Logger,
	retainWorkspaces bool,
) *Executor {
	return &Executor{
		jobs:             jobs,
		workspaces:       workspaces,
		runner:           runner,
		metrics:          metrics,
		logger:           logger,
		retainWorkspaces: retainWorkspaces,
	}
}

// Run consumes the queue until the context is cancelled.
func (e *Executor) Run(ctx context.Context, q *queue.Queue, dequeueTimeout time.Duration) {
	e.logger.Info("worker loop started")
	for {
		select {
		case <-ctx.Done():
			e.logger.Info("worker loop stopped")
			return
		default:
		}

		task, ok, err := q.Dequeue(ctx, dequeueTimeout)
		if err != nil {
			if ctx.Err() != nil {
				e.logger.Info("worker loop stopped")
				return
			}
			e.logger.Error("dequeue failed", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		if !ok {
			continue
		}
		e.Process(ctx, *task)
	}
}

// Process handles one dispatched task end to end. Workspace reclamation is
// guaranteed regardless of outcome unless debug retention is configured.
func (e *Executor) Process(ctx context.Context, task queue.Task) {
	logger := e.logger.With(zap.String("job_id", task.JobID))

	sim, err := e.jobs.GetByID(ctx, task.JobID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			logger.Warn("dispatched job not found; dropping task")
		} else {
			logger.Error("load job failed; dropping task", zap.Error(err))
		}
		return
	}
	if sim.Status.Terminal() {
		logger.Info("job already terminal; dropping redelivered task",
			zap.String("status", string(sim.Status)))
		return
	}

	claimed, err := e.jobs.ClaimRunning(ctx, task.JobID)
	if err != nil {
		logger.Error("claim failed; dropping task", zap.Error(err))
		return
	}
	if !claimed {
		// Another worker holds or finished this job.
		logger.Info("claim lost; dropping redelivered task")
		return
	}

	defer e.reclaim(task.JobID, logger)

	result, err := e.runner.Run(ctx, task.WorkspacePath)
	if err != nil {
		e.fail(ctx, task.JobID, fmt.Sprintf("engine invocation error: %v", err), logger)
		return
	}

	switch {
	case result.TimedOut:
		e.fail(ctx, task.JobID, "simulation timed out", logger)

	case result.ExitCode == 0:
		output, readErr := engine.ReadOutput(task.WorkspacePath)
		if readErr != nil {
			if errors.Is(readErr, engine.ErrOutputMissing) {
				e.fail(ctx, task.JobID, "engine exited 0 but output artifact missing", logger)
			} else {
				e.fail(ctx, task.JobID, fmt.Sprintf("engine output unreadable: %v", readErr), logger)
			}
			return
		}
		if err := e.jobs.MarkCompleted(ctx, task.JobID, output); err != nil {
			logger.Error("CRITICAL: failed to persist COMPLETED status", zap.Error(err))
			return
		}
		e.metrics.RecordJobOutcome(string(domain.SimulationStatusCompleted))
		logger.Info("simulation completed")

	default:
		detail := fmt.Sprintf("engine exited with code %d: %s",
			result.ExitCode, truncate(result.Stderr, maxStderrLength))
		e.fail(ctx, task.JobID, detail, logger)
	}
}

// fail is best-effort: if even the FAILED update fails, log critically but
// never propagate.
func (e *Executor) fail(ctx context.Context, jobID, detail string, logger *zap.Logger) {
	logger.Warn("simulation failed", zap.String("detail", detail))
	if err := e.jobs.MarkFailed(ctx, jobID, detail); err != nil {
		logger.Error("CRITICAL: failed to persist FAILED status", zap.Error(err))
		return
	}
	e.metrics.RecordJobOutcome(string(domain.SimulationStatusFailed))
}

func (e *Executor) reclaim(jobID string, logger *zap.Logger) {
	if e.retainWorkspaces {
		logger.Info("retaining workspace for debugging")
		return
	}
	if err := e.workspaces.Remove(jobID); err != nil {
		logger.Error("workspace cleanup failed", zap.Error(err))
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
