package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/ticketdesk/ticketdesk/internal/api/dto"
	"github.com/ticketdesk/ticketdesk/internal/service"
	apperrors "github.com/ticketdesk/ticketdesk/pkg/util/errorutil"
)

// DashboardsHandler exposes dashboard configuration.
type DashboardsHandler struct {
	dashboards *service.DashboardService
}

// NewDashboardsHandler constructs handler.
func NewDashboardsHandler(dashboards *service.DashboardService) *DashboardsHandler {
	return &DashboardsHandler{dashboards: dashboards}
}

// Create POST /dashboards.
func (h *DashboardsHandler) Create(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.CreateDashboardRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	dash, err := h.dashboards.Create(c.Context(), actor, req.Name, req.ChannelID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.DashboardFromDomain(dash)})
}

// List GET /dashboards.
func (h *DashboardsHandler) List(c *fiber.Ctx) error {
	dashboards := h.dashboards.List()
	items := make([]dto.DashboardResponse, 0, len(dashboards))
	for i := range dashboards {
		items = append(items, dto.DashboardFromDomain(&dashboards[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /dashboards/:identifier.
func (h *DashboardsHandler) Get(c *fiber.Ctx) error {
	dash, err := h.dashboards.Get(c.Params("identifier"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.DashboardFromDomain(dash)})
}

// AddButton POST /dashboards/:identifier/buttons.
func (h *DashboardsHandler) AddButton(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.AddButtonRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	dash, err := h.dashboards.AddButton(c.Context(), actor, c.Params("identifier"), service.ButtonInput{
		Label:        req.Label,
		Emoji:        req.Emoji,
		Type:         req.Type,
		LogChannelID: req.LogChannelID,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.DashboardFromDomain(dash)})
}

// RemoveButton DELETE /dashboards/:identifier/buttons/:button. Reports
// whether anything was actually removed so the gateway can distinguish
// "not found" from "removed".
func (h *DashboardsHandler) RemoveButton(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	removed, err := h.dashboards.RemoveButton(c.Context(), actor, c.Params("identifier"), c.Params("button"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"removed": removed}})
}
