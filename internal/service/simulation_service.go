package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/edgepredict/simulation-service/internal/analysis"
	"github.com/edgepredict/simulation-service/internal/auth"
	"github.com/edgepredict/simulation-service/internal/domain"
	"github.com/edgepredict/simulation-service/internal/queue"
	"github.com/edgepredict/simulation-service/internal/repository"
	"github.com/edgepredict/simulation-service/internal/storage"
	"github.com/edgepredict/simulation-service/internal/workspace"
	apperrors "github.com/edgepredict/simulation-service/pkg/util"
)

// GeometryUpload carries an uploaded tool geometry file.
type GeometryUpload struct {
	Filename string
	Content  io.Reader
}

// SubmitInput is one simulation submission. Exactly one of ToolID or Upload
// must be supplied.
type SubmitInput struct {
	Name             string
	Description      string
	SimulationParams string
	PhysicsParams    string
	MaterialParams   string
	CFDParams        string
	ToolID           *string
	Upload           *GeometryUpload
}

// ProgressReport is the client-facing progress shape.
type ProgressReport struct {
	Status             string  `json:"status"`
	ProgressPercentage float64 `json:"progress_percentage"`
	Detail             string  `json:"detail,omitempty"`
}

// SimulationService owns the job submission, dispatch and tracking pipeline.
type SimulationService struct {
	jobs       repository.SimulationRepository
	tools      repository.ToolRepository
	store      storage.ObjectStore
	workspaces *workspace.Manager
	queue      *queue.Queue
	analyzer   *analysis.Analyzer
	logger     *zap.Logger
}

// NewSimulationService builds the service.
func NewSimulationService(
	jobs repository.SimulationRepository,
	tools repository.ToolRepository,
	store storage.ObjectStore,
	workspaces *workspace.Manager,
	q *queue.Queue,
	analyzer *analysis.Analyzer,
	logger *zap.Logger,
) *SimulationService {
	return &SimulationService{
		jobs:       jobs,
		tools:      tools,
		store:      store,
		workspaces: workspaces,
		queue:      q,
		analyzer:   analyzer,
		logger:     logger,
	}
}

// Submit validates the request, creates the PENDING record, prepares the
// workspace and hands the job to the dispatch queue. Build or dispatch
// failures are reconciled into a FAILED record with no orphaned workspace and
// surfaced synchronously to the caller.
func (s *SimulationService) Submit(ctx context.Context, user *domain.User, in SubmitInput) (*domain.Simulation, error) {
	if in.Name == "" {
		return nil, apperrors.NewValidationError("name required", nil)
	}
	if (in.ToolID == nil) == (in.Upload == nil) {
		return nil, apperrors.NewValidationError("exactly one of tool_id or tool_file must be supplied", nil)
	}
	for field, blob := range map[string]string{
		"simulation_parameters": in.SimulationParams,
		"physics_parameters":    in.PhysicsParams,
		"material_properties":   in.MaterialParams,
	} {
		if blob == "" || !json.Valid([]byte(blob)) {
			return nil, apperrors.NewValidationError(
				fmt.Sprintf("%s must be a JSON object", field),
				map[string]any{"field": field})
		}
	}
	// A malformed CFD blob is tolerated downstream, not rejected here.

	tool, err := s.resolveTool(ctx, user, in)
	if err != nil {
		return nil, err
	}

	sim := &domain.Simulation{
		Name:             in.Name,
		Description:      in.Description,
		OwnerID:          user.ID,
		ToolID:           &tool.ID,
		SimulationParams: in.SimulationParams,
		PhysicsParams:    in.PhysicsParams,
		MaterialParams:   in.MaterialParams,
		CFDParams:        in.CFDParams,
		Status:           domain.SimulationStatusPending,
	}
	if err := s.jobs.Create(ctx, sim); err != nil {
		return nil, err
	}

	wsPath, err := s.buildWorkspace(ctx, sim, tool, in)
	if err != nil {
		return nil, err
	}

	if err := s.queue.Enqueue(ctx, queue.Task{JobID: sim.ID, WorkspacePath: wsPath}); err != nil {
		// No silent orphan PENDING jobs: reclaim the workspace, force FAILED
		// and surface the dispatch failure to the caller.
		_ = s.workspaces.Remove(sim.ID)
		s.markFailed(ctx, sim.ID, "dispatch failed: work queue unavailable")
		return nil, apperrors.NewDependencyFailed("failed to dispatch simulation", err)
	}

	s.logger.Info("simulation dispatched",
		zap.String("job_id", sim.ID),
		zap.String("owner_id", user.ID))
	return sim, nil
}

func (s *SimulationService) resolveTool(ctx context.Context, user *domain.User, in SubmitInput) (*domain.Tool, error) {
	if in.ToolID != nil {
		tool, err := s.tools.GetByID(ctx, *in.ToolID)
		if err != nil {
			if err == pgx.ErrNoRows {
				return nil, apperrors.NewNotFound("tool", map[string]any{"tool_id": *in.ToolID})
			}
			return nil, err
		}
		if err := auth.AuthorizeOwnerOrAdmin(user, tool.OwnerID); err != nil {
			return nil, err
		}
		return tool, nil
	}

	key := storage.NewKey(in.Upload.Filename)
	if err := s.store.Save(ctx, key, in.Upload.Content); err != nil {
		return nil, apperrors.NewDependencyFailed("failed to store uploaded geometry", err)
	}
	tool := &domain.Tool{
		Name:       in.Name + " (Uploaded)",
		StorageKey: key,
		OwnerID:    user.ID,
	}
	if err := s.tools.Create(ctx, tool); err != nil {
		return nil, err
	}
	return tool, nil
}

func (s *SimulationService) buildWorkspace(ctx context.Context, sim *domain.Simulation, tool *domain.Tool, in SubmitInput) (string, error) {
	geometry, err := s.store.Open(ctx, tool.StorageKey)
	if err != nil {
		s.markFailed(ctx, sim.ID, "workspace build failed: geometry unavailable")
		return "", apperrors.NewDependencyFailed("failed to read tool geometry", err)
	}
	defer geometry.Close()

	wsPath, err := s.workspaces.Build(sim.ID, geometry, workspace.BuildInput{
		SimulationParams: in.SimulationParams,
		PhysicsParams:    in.PhysicsParams,
		MaterialParams:   in.MaterialParams,
		CFDParams:        in.CFDParams,
	})
	if err != nil {
		// The builder already rolled back the partial directory.
		s.markFailed(ctx, sim.ID, "workspace build failed")
		return "", apperrors.NewDependencyFailed("failed to prepare run workspace", err)
	}
	return wsPath, nil
}

func (s *SimulationService) markFailed(ctx context.Context, jobID, detail string) {
	if err := s.jobs.MarkFailed(ctx, jobID, detail); err != nil {
		s.logger.Error("failed to reconcile job state", zap.String("job_id", jobID), zap.Error(err))
	}
}

// Get returns one simulation after an ownership check.
func (s *SimulationService) Get(ctx context.Context, user *domain.User, id string) (*domain.Simulation, error) {
	sim, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("simulation", nil)
		}
		return nil, err
	}
	if err := auth.AuthorizeOwnerOrAdmin(user, sim.OwnerID); err != nil {
		return nil, err
	}
	return sim, nil
}

// List returns the caller's simulations; admins see all.
func (s *SimulationService) List(ctx context.Context, user *domain.User, limit, offset int) ([]domain.Simulation, error) {
	if user.IsAdmin {
		return s.jobs.List(ctx, limit, offset)
	}
	return s.jobs.ListByOwner(ctx, user.ID, limit, offset)
}

// Delete removes a simulation record and any workspace remnants.
func (s *SimulationService) Delete(ctx context.Context, user *domain.User, id string) error {
	if _, err := s.Get(ctx, user, id); err != nil {
		return err
	}
	if err := s.jobs.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.workspaces.Remove(id); err != nil {
		s.logger.Warn("failed to remove workspace remnants", zap.String("job_id", id), zap.Error(err))
	}
	return nil
}

// Progress reports best-effort progress for a job. Terminal states answer
// without touching the filesystem; otherwise the engine's side-channel
// artifact is consulted, tolerating its absence or concurrent deletion.
func (s *SimulationService) Progress(ctx context.Context, user *domain.User, id string) (*ProgressReport, error) {
	sim, err := s.Get(ctx, user, id)
	if err != nil {
		return nil, err
	}

	switch sim.Status {
	case domain.SimulationStatusCompleted:
		return &ProgressReport{Status: string(sim.Status), ProgressPercentage: 100}, nil
	case domain.SimulationStatusFailed:
		report := &ProgressReport{Status: string(sim.Status)}
		if sim.FailureDetail != nil {
			report.Detail = *sim.FailureDetail
		}
		return report, nil
	}

	progress, present := s.workspaces.ReadProgress(id)
	if !present {
		return &ProgressReport{Status: "STARTING"}, nil
	}
	if progress == nil {
		return &ProgressReport{Status: "RUNNING"}, nil
	}
	return &ProgressReport{
		Status:             progress.Status,
		ProgressPercentage: progress.ProgressPercentage,
		Detail:             progress.Detail,
	}, nil
}

// Analyze produces (or returns the cached) narrative analysis for a job.
func (s *SimulationService) Analyze(ctx context.Context, user *domain.User, id string) (string, error) {
	sim, err := s.Get(ctx, user, id)
	if err != nil {
		return "", err
	}
	return s.analyzer.Analyze(ctx, sim)
}
