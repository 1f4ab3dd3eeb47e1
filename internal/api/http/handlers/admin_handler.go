package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/ticketdesk/ticketdesk/internal/api/dto"
	"github.com/ticketdesk/ticketdesk/internal/domain"
	"github.com/ticketdesk/ticketdesk/internal/service"
	apperrors "github.com/ticketdesk/ticketdesk/pkg/util/errorutil"
)

// AdminHandler exposes settings, role-link, and ban operations.
type AdminHandler struct {
	settings *service.SettingsService
	policy   *service.AccessPolicy
}

// NewAdminHandler constructs handler.
func NewAdminHandler(settings *service.SettingsService, policy *service.AccessPolicy) *AdminHandler {
	return &AdminHandler{settings: settings, policy: policy}
}

// InitialSetup POST /admin/setup.
func (h *AdminHandler) InitialSetup(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.InitialSetupRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.settings.InitialSetup(c.Context(), actor, service.InitialSetupInput{
		AdminRoleID:         req.AdminRoleID,
		MainChannelID:       req.MainChannelID,
		DefaultLogChannelID: req.DefaultLogChannelID,
		ConfigLogChannelID:  req.ConfigLogChannelID,
		HelpChannelID:       req.HelpChannelID,
		EnabledTypes:        req.EnabledTypes,
	}); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.settings.Current()})
}

// UpdateClaim PUT /admin/settings/claim.
func (h *AdminHandler) UpdateClaim(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.ClaimSettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.settings.UpdateClaim(c.Context(), actor, domain.ClaimSettings{
		HideAfterClaim:       req.HideAfterClaim,
		AllowManagersViewAll: req.AllowManagersViewAll,
	}); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.settings.Current()})
}

// UpdateAutoClose PUT /admin/settings/autoclose.
func (h *AdminHandler) UpdateAutoClose(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.AutoCloseSettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.settings.UpdateAutoClose(c.Context(), actor, domain.AutoCloseSettings{
		ReminderAfterMinutes: req.ReminderAfterMinutes,
		CloseAfterMinutes:    req.CloseAfterMinutes,
		Escalate:             req.Escalate,
	}); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.settings.Current()})
}

// UpdateReminders PUT /admin/settings/reminders.
func (h *AdminHandler) UpdateReminders(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.ReminderSettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.settings.UpdateReminders(c.Context(), actor, domain.ReminderSettings{
		FirstReminderMinutes: req.FirstReminderMinutes,
		MaxReminders:         req.MaxReminders,
	}); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.settings.Current()})
}

// UpdateLimits PUT /admin/settings/limits.
func (h *AdminHandler) UpdateLimits(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.LimitsRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.settings.UpdateLimits(c.Context(), actor, domain.SpamSettings{
		DailyLimit:      req.DailyLimit,
		CooldownMinutes: req.CooldownMinutes,
	}); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.settings.Current()})
}

// SwitchMode PUT /admin/settings/mode.
func (h *AdminHandler) SwitchMode(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.ModeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.settings.SwitchMode(c.Context(), actor, req.Mode); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.settings.Current()})
}

// LinkRole POST /admin/roles.
func (h *AdminHandler) LinkRole(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.RoleLinkRequest
	if err := c.BodyParser(&req); err != nil || req.RoleID == "" {
		return apperrors.NewValidationError("type and role_id required", nil)
	}
	if err := h.policy.LinkRole(c.Context(), actor, req.Type, req.RoleID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.policy.RolesForType(req.Type)})
}

// UnlinkRole DELETE /admin/roles/:type/:roleID.
func (h *AdminHandler) UnlinkRole(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	ticketType := domain.TicketType(c.Params("type"))
	if err := h.policy.UnlinkRole(c.Context(), actor, ticketType, c.Params("roleID")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.policy.RolesForType(ticketType)})
}

// ListRoles GET /admin/roles/:type.
func (h *AdminHandler) ListRoles(c *fiber.Ctx) error {
	ticketType := domain.TicketType(c.Params("type"))
	if !ticketType.IsValid() {
		return apperrors.NewValidationError("unsupported ticket type", map[string]any{"type": ticketType})
	}
	return c.JSON(fiber.Map{"data": h.policy.RolesForType(ticketType)})
}

// BanUser POST /admin/bans.
func (h *AdminHandler) BanUser(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.BanRequest
	if err := c.BodyParser(&req); err != nil || req.UserID == "" {
		return apperrors.NewValidationError("user_id required", nil)
	}
	if err := h.policy.BanUser(c.Context(), actor, req.UserID, req.Reason); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// UnbanUser DELETE /admin/bans/:userID.
func (h *AdminHandler) UnbanUser(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	if err := h.policy.UnbanUser(c.Context(), actor, c.Params("userID")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ListBanned GET /admin/bans.
func (h *AdminHandler) ListBanned(c *fiber.Ctx) error {
	banned := h.policy.ListBanned()
	items := make([]dto.BanResponse, 0, len(banned))
	for userID, record := range banned {
		items = append(items, dto.BanResponse{
			UserID:   userID,
			Reason:   record.Reason,
			BannedBy: record.BannedBy,
			BannedAt: record.BannedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}
