package service

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"

	"github.com/edgepredict/simulation-service/internal/auth"
	"github.com/edgepredict/simulation-service/internal/domain"
	"github.com/edgepredict/simulation-service/internal/repository"
	apperrors "github.com/edgepredict/simulation-service/pkg/util"
)

// MaterialService manages the material library.
type MaterialService struct {
	materials repository.MaterialRepository
}

// NewMaterialService builds the service.
func NewMaterialService(materials repository.MaterialRepository) *MaterialService {
	return &MaterialService{materials: materials}
}

// Create records a new immutable material definition. The property bag must
// at minimum be a JSON object.
func (s *MaterialService) Create(ctx context.Context, user *domain.User, name, properties string) (*domain.Material, error) {
	if name == "" {
		return nil, apperrors.NewValidationError("name required", nil)
	}
	var bag map[string]any
	if err := json.Unmarshal([]byte(properties), &bag); err != nil {
		return nil, apperrors.NewValidationError("properties must be a JSON object", nil)
	}

	material := &domain.Material{
		Name:       name,
		Properties: properties,
		OwnerID:    user.ID,
	}
	if err := s.materials.Create(ctx, material); err != nil {
		return nil, err
	}
	return material, nil
}

// List returns the caller's materials.
func (s *MaterialService) List(ctx context.Context, user *domain.User, limit, offset int) ([]domain.Material, error) {
	return s.materials.ListByOwner(ctx, user.ID, limit, offset)
}

// Delete removes a material after an ownership check.
func (s *MaterialService) Delete(ctx context.Context, user *domain.User, id string) error {
	material, err := s.materials.GetByID(ctx, id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewNotFound("material", nil)
		}
		return err
	}
	if err := auth.AuthorizeOwnerOrAdmin(user, material.OwnerID); err != nil {
		return err
	}
	return s.materials.Delete(ctx, id)
}
