package worker

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edgepredict/simulation-service/internal/domain"
	"github.com/edgepredict/simulation-service/internal/engine"
	"github.com/edgepredict/simulation-service/internal/observability"
	"github.com/edgepredict/simulation-service/internal/queue"
	"github.com/edgepredict/simulation-service/internal/workspace"
)

// fakeJobsRepo tracks status transitions in memory with the same monotonic
// guards the SQL layer enforces.
type fakeJobsRepo struct {
	sims map[string]*domain.Simulation

	claimDenied bool
}

func newFakeJobsRepo(sims ...*domain.Simulation) *fakeJobsRepo {
	repo := &fakeJobsRepo{sims: map[string]*domain.Simulation{}}
	for _, s := range sims {
		repo.sims[s.ID] = s
	}
	return repo
}

func (r *fakeJobsRepo) Create(_ context.Context, sim *domain.Simulation) error {
	r.sims[sim.ID] = sim
	return nil
}

func (r *fakeJobsRepo) GetByID(_ context.Context, id string) (*domain.Simulation, error) {
	sim, ok := r.sims[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *sim
	return &copied, nil
}

func (r *fakeJobsRepo) ListByOwner(context.Context, string, int, int) ([]domain.Simulation, error) {
	return nil, nil
}

func (r *fakeJobsRepo) List(context.Context, int, int) ([]domain.Simulation, error) {
	return nil, nil
}

func (r *fakeJobsRepo) SetTool(context.Context, string, string) error { return nil }

func (r *fakeJobsRepo) ClaimRunning(_ context.Context, id string) (bool, error) {
	if r.claimDenied {
		return false, nil
	}
	sim, ok := r.sims[id]
	if !ok || sim.Status != domain.SimulationStatusPending {
		return false, nil
	}
	sim.Status = domain.SimulationStatusRunning
	return true, nil
}

func (r *fakeJobsRepo) MarkCompleted(_ context.Context, id string, results string) error {
	sim, ok := r.sims[id]
	if !ok || sim.Status != domain.SimulationStatusRunning {
		return pgx.ErrNoRows
	}
	sim.Status = domain.SimulationStatusCompleted
	sim.Results = &results
	return nil
}

func (r *fakeJobsRepo) MarkFailed(_ context.Context, id string, detail string) error {
	sim, ok := r.sims[id]
	if !ok || sim.Status.Terminal() {
		return pgx.ErrNoRows
	}
	sim.Status = domain.SimulationStatusFailed
	sim.FailureDetail = &detail
	return nil
}

func (r *fakeJobsRepo) SetResults(_ context.Context, id string, results string) error {
	sim, ok := r.sims[id]
	if !ok {
		return pgx.ErrNoRows
	}
	sim.Results = &results
	return nil
}

func (r *fakeJobsRepo) Delete(_ context.Context, id string) error {
	delete(r.sims, id)
	return nil
}

// fakeRunner returns a canned result and records invocations.
type fakeRunner struct {
	result *engine.Result
	err    error
	calls  int
}

func (f *fakeRunner) Run(context.Context, string) (*engine.Result, error) {
	f.calls++
	return f.result, f.err
}

// fakeWorkspaces records reclaimed job ids.
type fakeWorkspaces struct {
	removed []string
}

func (f *fakeWorkspaces) Remove(jobID string) error {
	f.removed = append(f.removed, jobID)
	return nil
}

func pendingSim(id string) *domain.Simulation {
	return &domain.Simulation{ID: id, Status: domain.SimulationStatusPending}
}

func newTestExecutor(jobs *fakeJobsRepo, runner *fakeRunner, workspaces *fakeWorkspaces) *Executor {
	return NewExecutor(jobs, workspaces, runner, observability.NewMetrics(), zap.NewNop(), false)
}

func writeOutput(t *testing.T, dir, blob string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, workspace.OutputFileName), []byte(blob), 0o644))
}

func TestProcessCompletesOnCleanExit(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeOutput(t, dir, `{"max_temperature": 812.4}`)

	jobs := newFakeJobsRepo(pendingSim("job-1"))
	runner := &fakeRunner{result: &engine.Result{ExitCode: 0}}
	workspaces := &fakeWorkspaces{}

	exec := newTestExecutor(jobs, runner, workspaces)
	exec.Process(context.Background(), queue.Task{JobID: "job-1", WorkspacePath: dir})

	sim := jobs.sims["job-1"]
	require.Equal(t, domain.SimulationStatusCompleted, sim.Status)
	require.NotNil(t, sim.Results)
	require.JSONEq(t, `{"max_temperature": 812.4}`, *sim.Results)
	require.Equal(t, []string{"job-1"}, workspaces.removed)
}

func TestProcessFailsWhenOutputMissing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	jobs := newFakeJobsRepo(pendingSim("job-1"))
	runner := &fakeRunner{result: &engine.Result{ExitCode: 0}}
	workspaces := &fakeWorkspaces{}

	exec := newTestExecutor(jobs, runner, workspaces)
	exec.Process(context.Background(), queue.Task{JobID: "job-1", WorkspacePath: dir})

	sim := jobs.sims["job-1"]
	require.Equal(t, domain.SimulationStatusFailed, sim.Status)
	require.NotNil(t, sim.FailureDetail)
	require.Contains(t, *sim.FailureDetail, "output artifact missing")
	require.Equal(t, []string{"job-1"}, workspaces.removed)
}

func TestProcessFailsOnNonzeroExitWithTruncatedStderr(t *testing.T) {
	t.Parallel()

	jobs := newFakeJobsRepo(pendingSim("job-1"))
	runner := &fakeRunner{result: &engine.Result{
		ExitCode: 137,
		Stderr:   strings.Repeat("x", 2000),
	}}
	workspaces := &fakeWorkspaces{}

	exec := newTestExecutor(jobs, runner, workspaces)
	exec.Process(context.Background(), queue.Task{JobID: "job-1", WorkspacePath: t.TempDir()})

	sim := jobs.sims["job-1"]
	require.Equal(t, domain.SimulationStatusFailed, sim.Status)
	require.Contains(t, *sim.FailureDetail, "engine exited with code 137")
	require.LessOrEqual(t, len(*sim.FailureDetail), maxStderrLength+len("engine exited with code 137: "))
}

func TestProcessFailsOnTimeout(t *testing.T) {
	t.Parallel()

	jobs := newFakeJobsRepo(pendingSim("job-1"))
	runner := &fakeRunner{result: &engine.Result{ExitCode: -1, TimedOut: true}}
	workspaces := &fakeWorkspaces{}

	exec := newTestExecutor(jobs, runner, workspaces)
	exec.Process(context.Background(), queue.Task{JobID: "job-1", WorkspacePath: t.TempDir()})

	sim := jobs.sims["job-1"]
	require.Equal(t, domain.SimulationStatusFailed, sim.Status)
	require.Equal(t, "simulation timed out", *sim.FailureDetail)
}

func TestProcessDropsUnknownJob(t *testing.T) {
	t.Parallel()

	jobs := newFakeJobsRepo()
	runner := &fakeRunner{result: &engine.Result{ExitCode: 0}}
	workspaces := &fakeWorkspaces{}

	exec := newTestExecutor(jobs, runner, workspaces)
	exec.Process(context.Background(), queue.Task{JobID: "ghost", WorkspacePath: t.TempDir()})

	require.Zero(t, runner.calls)
	require.Empty(t, workspaces.removed)
}

func TestProcessDropsRedeliveredTerminalJob(t *testing.T) {
	t.Parallel()

	results := `{"done": true}`
	jobs := newFakeJobsRepo(&domain.Simulation{
		ID:      "job-1",
		Status:  domain.SimulationStatusCompleted,
		Results: &results,
	})
	runner := &fakeRunner{result: &engine.Result{ExitCode: 1}}
	workspaces := &fakeWorkspaces{}

	exec := newTestExecutor(jobs, runner, workspaces)
	exec.Process(context.Background(), queue.Task{JobID: "job-1", WorkspacePath: t.TempDir()})

	// The redelivery must not run the engine or regress the record.
	require.Zero(t, runner.calls)
	require.Equal(t, domain.SimulationStatusCompleted, jobs.sims["job-1"].Status)
	require.Equal(t, results, *jobs.sims["job-1"].Results)
}

func TestProcessDropsWhenClaimLost(t *testing.T) {
	t.Parallel()

	jobs := newFakeJobsRepo(pendingSim("job-1"))
	jobs.claimDenied = true
	runner := &fakeRunner{result: &engine.Result{ExitCode: 0}}
	workspaces := &fakeWorkspaces{}

	exec := newTestExecutor(jobs, runner, workspaces)
	exec.Process(context.Background(), queue.Task{JobID: "job-1", WorkspacePath: t.TempDir()})

	require.Zero(t, runner.calls)
	require.Empty(t, workspaces.removed)
}

func TestProcessRetainsWorkspaceWhenConfigured(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeOutput(t, dir, `{}`)

	jobs := newFakeJobsRepo(pendingSim("job-1"))
	runner := &fakeRunner{result: &engine.Result{ExitCode: 0}}
	workspaces := &fakeWorkspaces{}

	exec := NewExecutor(jobs, workspaces, runner, observability.NewMetrics(), zap.NewNop(), true)
	exec.Process(context.Background(), queue.Task{JobID: "job-1", WorkspacePath: dir})

	require.Equal(t, domain.SimulationStatusCompleted, jobs.sims["job-1"].Status)
	require.Empty(t, workspaces.removed)
}
