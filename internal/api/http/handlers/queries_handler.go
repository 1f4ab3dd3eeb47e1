package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ticketdesk/ticketdesk/internal/api/dto"
	"github.com/ticketdesk/ticketdesk/internal/domain"
	"github.com/ticketdesk/ticketdesk/internal/service"
	apperrors "github.com/ticketdesk/ticketdesk/pkg/util/errorutil"
)

// QueriesHandler exposes read-only ticket queries.
type QueriesHandler struct {
	queries *service.QueryService
}

// NewQueriesHandler constructs handler.
func NewQueriesHandler(queries *service.QueryService) *QueriesHandler {
	return &QueriesHandler{queries: queries}
}

// Search GET /queries/tickets.
func (h *QueriesHandler) Search(c *fiber.Ctx) error {
	filter := service.TicketFilter{Limit: 15}
	if v := c.Query("user_id"); v != "" {
		filter.UserID = &v
	}
	if v := c.Query("assigned_to"); v != "" {
		filter.AssignedTo = &v
	}
	if v := c.Query("type"); v != "" {
		t := domain.TicketType(v)
		if !t.IsValid() {
			return apperrors.NewValidationError("unsupported ticket type", map[string]any{"type": v})
		}
		filter.Type = &t
	}
	if v := c.Query("status"); v != "" {
		status := domain.TicketStatus(v)
		if !status.IsValid() {
			return apperrors.NewValidationError("unsupported status", map[string]any{"status": v})
		}
		filter.Status = &status
	}
	if v := c.Query("tag"); v != "" {
		filter.Tag = &v
	}
	if v := c.Query("from"); v != "" {
		from, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return apperrors.NewValidationError("invalid from timestamp", nil)
		}
		filter.CreatedFrom = &from
	}
	if v := c.Query("to"); v != "" {
		to, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return apperrors.NewValidationError("invalid to timestamp", nil)
		}
		filter.CreatedTo = &to
	}

	results := h.queries.Search(filter)
	items := make([]dto.TicketResponse, 0, len(results))
	for _, ticket := range results {
		items = append(items, dto.TicketFromDomain(ticket))
	}
	return c.JSON(fiber.Map{"data": items})
}

// MemberTickets GET /queries/members/:userID/tickets.
func (h *QueriesHandler) MemberTickets(c *fiber.Ctx) error {
	summary := h.queries.TicketsForMember(c.Params("userID"))
	open := make([]dto.TicketResponse, 0, len(summary.Open))
	for _, ticket := range summary.Open {
		open = append(open, dto.TicketFromDomain(ticket))
	}
	closed := make([]dto.TicketResponse, 0, len(summary.RecentlyClosed))
	for _, ticket := range summary.RecentlyClosed {
		closed = append(closed, dto.TicketFromDomain(ticket))
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"open":            open,
		"recently_closed": closed,
	}})
}

// StaffProfile GET /queries/staff/:staffID/profile.
func (h *QueriesHandler) StaffProfile(c *fiber.Ctx) error {
	profile := h.queries.ProfileForStaff(c.Params("staffID"))
	return c.JSON(fiber.Map{"data": fiber.Map{
		"staff_id": profile.StaffID,
		"assigned": profile.Assigned,
		"closed":   profile.Closed,
	}})
}

// StatusReport GET /queries/reports?range=day|week|month.
func (h *QueriesHandler) StatusReport(c *fiber.Ctx) error {
	var window time.Duration
	switch c.Query("range", "day") {
	case "day":
		window = 24 * time.Hour
	case "week":
		window = 7 * 24 * time.Hour
	case "month":
		window = 30 * 24 * time.Hour
	default:
		return apperrors.NewValidationError("range must be day, week, or month", nil)
	}
	return c.JSON(fiber.Map{"data": h.queries.StatusReport(window)})
}
