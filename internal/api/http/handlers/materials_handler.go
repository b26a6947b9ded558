package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/edgepredict/simulation-service/internal/api/dto"
	"github.com/edgepredict/simulation-service/internal/auth"
	"github.com/edgepredict/simulation-service/internal/domain"
	"github.com/edgepredict/simulation-service/internal/service"
	apperrors "github.com/edgepredict/simulation-service/pkg/util"
)

// MaterialsHandler exposes the material property library over HTTP.
type MaterialsHandler struct {
	materials *service.MaterialService
}

// NewMaterialsHandler constructs handler.
func NewMaterialsHandler(materials *service.MaterialService) *MaterialsHandler {
	return &MaterialsHandler{materials: materials}
}

// Create handles POST /materials.
func (h *MaterialsHandler) Create(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.CreateMaterialRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	material, err := h.materials.Create(c.Context(), user, req.Name, req.Properties)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": materialSummary(material)})
}

// List handles GET /materials.
func (h *MaterialsHandler) List(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	limit, offset := pagination(c)

	materials, err := h.materials.List(c.Context(), user, limit, offset)
	if err != nil {
		return err
	}

	out := make([]dto.MaterialSummary, 0, len(materials))
	for i := range materials {
		out = append(out, materialSummary(&materials[i]))
	}
	return c.JSON(fiber.Map{"data": out})
}

// Delete handles DELETE /materials/:id.
func (h *MaterialsHandler) Delete(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	if err := h.materials.Delete(c.Context(), user, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func materialSummary(material *domain.Material) dto.MaterialSummary {
	return dto.MaterialSummary{
		ID:         material.ID,
		Name:       material.Name,
		Properties: material.Properties,
		OwnerID:    material.OwnerID,
		CreatedAt:  material.CreatedAt,
	}
}
