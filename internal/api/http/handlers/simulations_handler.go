package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/edgepredict/simulation-service/internal/api/dto"
	"github.com/edgepredict/simulation-service/internal/auth"
	"github.com/edgepredict/simulation-service/internal/domain"
	"github.com/edgepredict/simulation-service/internal/service"
	apperrors "github.com/edgepredict/simulation-service/pkg/util"
)

// SimulationsHandler exposes the simulation job pipeline over HTTP.
type SimulationsHandler struct {
	simulations *service.SimulationService
}

// NewSimulationsHandler constructs handler.
func NewSimulationsHandler(simulations *service.SimulationService) *SimulationsHandler {
	return &SimulationsHandler{simulations: simulations}
}

// Submit handles POST /simulations. The request is multipart: textual
// parameter blocks plus either a tool_id reference or a tool_file upload.
func (h *SimulationsHandler) Submit(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	in := service.SubmitInput{
		Name:             c.FormValue("name"),
		Description:      c.FormValue("description"),
		SimulationParams: c.FormValue("simulation_parameters"),
		PhysicsParams:    c.FormValue("physics_parameters"),
		MaterialParams:   c.FormValue("material_properties"),
		CFDParams:        c.FormValue("cfd_parameters"),
	}
	if toolID := c.FormValue("tool_id"); toolID != "" {
		in.ToolID = &toolID
	}

	if fileHeader, err := c.FormFile("tool_file"); err == nil && fileHeader != nil {
		f, err := fileHeader.Open()
		if err != nil {
			return apperrors.NewValidationError("unreadable tool_file upload", nil)
		}
		defer f.Close()
		in.Upload = &service.GeometryUpload{Filename: fileHeader.Filename, Content: f}
	}

	sim, err := h.simulations.Submit(c.Context(), user, in)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": simulationDetail(sim)})
}

// List handles GET /simulations.
func (h *SimulationsHandler) List(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	limit, offset := pagination(c)

	sims, err := h.simulations.List(c.Context(), user, limit, offset)
	if err != nil {
		return err
	}

	out := make([]dto.SimulationSummary, 0, len(sims))
	for i := range sims {
		out = append(out, simulationSummary(&sims[i]))
	}
	return c.JSON(fiber.Map{"data": out})
}

// Get handles GET /simulations/:id.
func (h *SimulationsHandler) Get(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	sim, err := h.simulations.Get(c.Context(), user, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": simulationDetail(sim)})
}

// Delete handles DELETE /simulations/:id.
func (h *SimulationsHandler) Delete(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	if err := h.simulations.Delete(c.Context(), user, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Progress handles GET /simulations/:id/progress.
func (h *SimulationsHandler) Progress(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	report, err := h.simulations.Progress(c.Context(), user, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": report})
}

// Analyze handles POST /simulations/:id/analyze.
func (h *SimulationsHandler) Analyze(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	analysis, err := h.simulations.Analyze(c.Context(), user, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.AnalysisResponse{Analysis: analysis}})
}

func simulationSummary(sim *domain.Simulation) dto.SimulationSummary {
	return dto.SimulationSummary{
		ID:            sim.ID,
		Name:          sim.Name,
		Description:   sim.Description,
		OwnerID:       sim.OwnerID,
		ToolID:        sim.ToolID,
		Status:        string(sim.Status),
		FailureDetail: sim.FailureDetail,
		CreatedAt:     sim.CreatedAt,
		UpdatedAt:     sim.UpdatedAt,
	}
}

func simulationDetail(sim *domain.Simulation) dto.SimulationDetail {
	return dto.SimulationDetail{
		SimulationSummary: simulationSummary(sim),
		Results:           sim.Results,
	}
}

// pagination reads limit/offset query params with sane fallbacks.
func pagination(c *fiber.Ctx) (int, int) {
	limit, err := strconv.Atoi(c.Query("limit", "50"))
	if err != nil {
		limit = 50
	}
	offset, err := strconv.Atoi(c.Query("offset", "0"))
	if err != nil {
		offset = 0
	}
	return limit, offset
}
