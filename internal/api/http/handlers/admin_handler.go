package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/edgepredict/simulation-service/internal/api/dto"
	"github.com/edgepredict/simulation-service/internal/domain"
	"github.com/edgepredict/simulation-service/internal/service"
	apperrors "github.com/edgepredict/simulation-service/pkg/util"
)

// AdminHandler exposes account administration and onboarding review.
type AdminHandler struct {
	admin *service.AdminService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(admin *service.AdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

// ListUsers handles GET /admin/users.
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	limit, offset := pagination(c)

	users, err := h.admin.ListUsers(c.Context(), limit, offset)
	if err != nil {
		return err
	}

	out := make([]dto.UserSummary, 0, len(users))
	for i := range users {
		out = append(out, userSummary(&users[i]))
	}
	return c.JSON(fiber.Map{"data": out})
}

// CreateUser handles POST /admin/users.
func (h *AdminHandler) CreateUser(c *fiber.Ctx) error {
	var req dto.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	user, err := h.admin.CreateUser(c.Context(), req.Email, req.Password, req.IsAdmin, req.SubscriptionExpiry)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": userSummary(user)})
}

// UpdateUser handles PATCH /admin/users/:id.
func (h *AdminHandler) UpdateUser(c *fiber.Ctx) error {
	var req dto.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, err := h.admin.UpdateUser(c.Context(), c.Params("id"), service.UserUpdate{
		IsAdmin:            req.IsAdmin,
		SubscriptionExpiry: req.SubscriptionExpiry,
		ClearExpiry:        req.ClearExpiry,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userSummary(user)})
}

// DeleteUser handles DELETE /admin/users/:id.
func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	if err := h.admin.DeleteUser(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ResetUserPassword handles POST /admin/users/:id/password-reset.
func (h *AdminHandler) ResetUserPassword(c *fiber.Ctx) error {
	if err := h.admin.ResetUserPassword(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "sent"}})
}

// ListAccessRequests handles GET /admin/access-requests.
func (h *AdminHandler) ListAccessRequests(c *fiber.Ctx) error {
	limit, offset := pagination(c)

	var status *domain.AccessRequestStatus
	if raw := c.Query("status"); raw != "" {
		s := domain.AccessRequestStatus(raw)
		switch s {
		case domain.AccessRequestPending, domain.AccessRequestApproved, domain.AccessRequestRejected:
			status = &s
		default:
			return apperrors.NewValidationError("unknown status filter", map[string]any{"status": raw})
		}
	}

	requests, err := h.admin.ListAccessRequests(c.Context(), status, limit, offset)
	if err != nil {
		return err
	}

	out := make([]dto.AccessRequestSummary, 0, len(requests))
	for i := range requests {
		out = append(out, accessRequestSummary(&requests[i]))
	}
	return c.JSON(fiber.Map{"data": out})
}

// ApproveAccessRequest handles POST /admin/access-requests/:id/approve.
func (h *AdminHandler) ApproveAccessRequest(c *fiber.Ctx) error {
	user, err := h.admin.ApproveAccessRequest(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userSummary(user)})
}

// RejectAccessRequest handles POST /admin/access-requests/:id/reject.
func (h *AdminHandler) RejectAccessRequest(c *fiber.Ctx) error {
	if err := h.admin.RejectAccessRequest(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "rejected"}})
}

func userSummary(user *domain.User) dto.UserSummary {
	return dto.UserSummary{
		ID:                 user.ID,
		Email:              user.Email,
		IsAdmin:            user.IsAdmin,
		SubscriptionExpiry: user.SubscriptionExpiry,
		CreatedAt:          user.CreatedAt,
	}
}

func accessRequestSummary(req *domain.AccessRequest) dto.AccessRequestSummary {
	return dto.AccessRequestSummary{
		ID:        req.ID,
		Email:     req.Email,
		Name:      req.Name,
		Company:   req.Company,
		Status:    string(req.Status),
		CreatedAt: req.CreatedAt,
	}
}
