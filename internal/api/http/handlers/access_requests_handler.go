package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/edgepredict/simulation-service/internal/api/dto"
	"github.com/edgepredict/simulation-service/internal/service"
	apperrors "github.com/edgepredict/simulation-service/pkg/util"
)

// AccessRequestsHandler exposes the public onboarding endpoint.
type AccessRequestsHandler struct {
	admin *service.AdminService
}

// NewAccessRequestsHandler constructs handler.
func NewAccessRequestsHandler(admin *service.AdminService) *AccessRequestsHandler {
	return &AccessRequestsHandler{admin: admin}
}

// Submit handles POST /access-requests.
func (h *AccessRequestsHandler) Submit(c *fiber.Ctx) error {
	var req dto.AccessRequestCreate
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Name == "" {
		return apperrors.NewValidationError("email and name required", nil)
	}

	created, err := h.admin.SubmitAccessRequest(c.Context(), req.Email, req.Name, req.Company)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": accessRequestSummary(created)})
}
