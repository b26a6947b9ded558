package service

import (
	"context"
	"io"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/edgepredict/simulation-service/internal/auth"
	"github.com/edgepredict/simulation-service/internal/domain"
	"github.com/edgepredict/simulation-service/internal/repository"
	"github.com/edgepredict/simulation-service/internal/storage"
	apperrors "github.com/edgepredict/simulation-service/pkg/util"
)

// ToolService manages the cutting-tool library.
type ToolService struct {
	tools  repository.ToolRepository
	store  storage.ObjectStore
	logger *zap.Logger
}

// NewToolService builds the service.
func NewToolService(tools repository.ToolRepository, store storage.ObjectStore, logger *zap.Logger) *ToolService {
	return &ToolService{tools: tools, store: store, logger: logger}
}

// Create stores the uploaded geometry and records the tool.
func (s *ToolService) Create(ctx context.Context, user *domain.User, name, toolType, filename string, content io.Reader) (*domain.Tool, error) {
	if name == "" {
		return nil, apperrors.NewValidationError("name required", nil)
	}

	key := storage.NewKey(filename)
	if err := s.store.Save(ctx, key, content); err != nil {
		return nil, apperrors.NewDependencyFailed("failed to store geometry file", err)
	}

	tool := &domain.Tool{
		Name:       name,
		ToolType:   toolType,
		StorageKey: key,
		OwnerID:    user.ID,
	}
	if err := s.tools.Create(ctx, tool); err != nil {
		_ = s.store.Delete(ctx, key)
		return nil, err
	}
	return tool, nil
}

// Get returns one tool after an ownership check.
func (s *ToolService) Get(ctx context.Context, user *domain.User, id string) (*domain.Tool, error) {
	tool, err := s.tools.GetByID(ctx, id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("tool", nil)
		}
		return nil, err
	}
	if err := auth.AuthorizeOwnerOrAdmin(user, tool.OwnerID); err != nil {
		return nil, err
	}
	return tool, nil
}

// List returns the caller's tools.
func (s *ToolService) List(ctx context.Context, user *domain.User, limit, offset int) ([]domain.Tool, error) {
	return s.tools.ListByOwner(ctx, user.ID, limit, offset)
}

// OpenGeometry streams the backing geometry file.
func (s *ToolService) OpenGeometry(ctx context.Context, user *domain.User, id string) (io.ReadCloser, *domain.Tool, error) {
	tool, err := s.Get(ctx, user, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.store.Open(ctx, tool.StorageKey)
	if err != nil {
		return nil, nil, apperrors.NewNotFound("tool file", nil)
	}
	return rc, tool, nil
}

// Delete removes the tool record and its backing file.
func (s *ToolService) Delete(ctx context.Context, user *domain.User, id string) error {
	tool, err := s.Get(ctx, user, id)
	if err != nil {
		return err
	}
	if err := s.tools.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, tool.StorageKey); err != nil {
		s.logger.Warn("failed to delete geometry file",
			zap.String("tool_id", id),
			zap.String("storage_key", tool.StorageKey),
			zap.Error(err))
	}
	return nil
}
