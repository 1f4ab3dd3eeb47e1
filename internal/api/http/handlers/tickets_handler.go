package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/ticketdesk/ticketdesk/internal/api/dto"
	"github.com/ticketdesk/ticketdesk/internal/auth"
	"github.com/ticketdesk/ticketdesk/internal/service"
	apperrors "github.com/ticketdesk/ticketdesk/pkg/util/errorutil"
)

// TicketsHandler exposes the ticket lifecycle operations to the gateway.
type TicketsHandler struct {
	tickets *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets *service.TicketService) *TicketsHandler {
	return &TicketsHandler{tickets: tickets}
}

func actorFrom(c *fiber.Ctx) (service.Actor, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return service.Actor{}, fiber.NewError(http.StatusUnauthorized, "actor required")
	}
	return service.Actor{ID: principal.ActorID, Roles: principal.Roles}, nil
}

// Create POST /tickets.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.tickets.Create(c.Context(), actor, service.TicketCreateInput{
		ChannelID:    req.ChannelID,
		Type:         req.Type,
		Details:      req.Details,
		DashboardID:  req.DashboardID,
		ButtonID:     req.ButtonID,
		LogChannelID: req.LogChannelID,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.TicketFromDomain(ticket)})
}

// Get GET /tickets/:channelID.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	ticket, err := h.tickets.Get(c.Params("channelID"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketFromDomain(ticket)})
}

// Claim POST /tickets/:channelID/claim.
func (h *TicketsHandler) Claim(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	ticket, err := h.tickets.Claim(c.Context(), actor, c.Params("channelID"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketFromDomain(ticket)})
}

// Unclaim POST /tickets/:channelID/unclaim.
func (h *TicketsHandler) Unclaim(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	ticket, err := h.tickets.Unclaim(c.Context(), actor, c.Params("channelID"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketFromDomain(ticket)})
}

// Transfer POST /tickets/:channelID/transfer.
func (h *TicketsHandler) Transfer(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.TransferRequest
	if err := c.BodyParser(&req); err != nil || req.TargetID == "" {
		return apperrors.NewValidationError("target_id required", nil)
	}
	ticket, err := h.tickets.Transfer(c.Context(), actor, c.Params("channelID"), req.TargetID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketFromDomain(ticket)})
}

// ChangeStatus POST /tickets/:channelID/status.
func (h *TicketsHandler) ChangeStatus(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.ChangeStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.tickets.ChangeStatus(c.Context(), actor, c.Params("channelID"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketFromDomain(ticket)})
}

// AddTag POST /tickets/:channelID/tags.
func (h *TicketsHandler) AddTag(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.TagRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.tickets.AddTag(c.Context(), actor, c.Params("channelID"), req.Tag)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketFromDomain(ticket)})
}

// RemoveTag DELETE /tickets/:channelID/tags/:tag.
func (h *TicketsHandler) RemoveTag(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	ticket, err := h.tickets.RemoveTag(c.Context(), actor, c.Params("channelID"), c.Params("tag"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketFromDomain(ticket)})
}

// Close POST /tickets/:channelID/close.
func (h *TicketsHandler) Close(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.CloseRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	reason := req.Reason
	if reason == "" {
		reason = "closed on request"
	}
	ticket, err := h.tickets.Close(c.Context(), &actor, c.Params("channelID"), reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketFromDomain(ticket)})
}

// RecordActivity POST /tickets/:channelID/activity. The gateway calls
// this for every inbound participant message.
func (h *TicketsHandler) RecordActivity(c *fiber.Ctx) error {
	if err := h.tickets.RecordActivity(c.Context(), c.Params("channelID")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// AddNote POST /tickets/:channelID/notes.
func (h *TicketsHandler) AddNote(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.NoteRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.tickets.AddInternalNote(c.Context(), actor, c.Params("channelID"), req.Note)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketFromDomain(ticket)})
}
