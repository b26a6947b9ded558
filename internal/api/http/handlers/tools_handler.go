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

// ToolsHandler exposes the tool geometry library over HTTP.
type ToolsHandler struct {
	tools *service.ToolService
}

// NewToolsHandler constructs handler.
func NewToolsHandler(tools *service.ToolService) *ToolsHandler {
	return &ToolsHandler{tools: tools}
}

// Create handles POST /tools (multipart: name, tool_type, tool_file).
func (h *ToolsHandler) Create(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	fileHeader, err := c.FormFile("tool_file")
	if err != nil {
		return apperrors.NewValidationError("tool_file upload required", nil)
	}
	f, err := fileHeader.Open()
	if err != nil {
		return apperrors.NewValidationError("unreadable tool_file upload", nil)
	}
	defer f.Close()

	tool, err := h.tools.Create(c.Context(), user, c.FormValue("name"), c.FormValue("tool_type"), fileHeader.Filename, f)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": toolSummary(tool)})
}

// List handles GET /tools.
func (h *ToolsHandler) List(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	limit, offset := pagination(c)

	tools, err := h.tools.List(c.Context(), user, limit, offset)
	if err != nil {
		return err
	}

	out := make([]dto.ToolSummary, 0, len(tools))
	for i := range tools {
		out = append(out, toolSummary(&tools[i]))
	}
	return c.JSON(fiber.Map{"data": out})
}

// Get handles GET /tools/:id.
func (h *ToolsHandler) Get(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	tool, err := h.tools.Get(c.Context(), user, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": toolSummary(tool)})
}

// Download handles GET /tools/:id/file and streams the stored geometry.
func (h *ToolsHandler) Download(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	rc, tool, err := h.tools.OpenGeometry(c.Context(), user, c.Params("id"))
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, "application/octet-stream")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+tool.Name+`.stl"`)
	return c.SendStream(rc)
}

// Delete handles DELETE /tools/:id.
func (h *ToolsHandler) Delete(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	if err := h.tools.Delete(c.Context(), user, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func toolSummary(tool *domain.Tool) dto.ToolSummary {
	return dto.ToolSummary{
		ID:        tool.ID,
		Name:      tool.Name,
		ToolType:  tool.ToolType,
		OwnerID:   tool.OwnerID,
		CreatedAt: tool.CreatedAt,
	}
}
