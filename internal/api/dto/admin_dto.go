package dto

import (
	"time"

	"github.com/ticketdesk/ticketdesk/internal/domain"
)

// InitialSetupRequest payload.
type InitialSetupRequest struct {
	AdminRoleID         string              `json:"admin_role_id"`
	MainChannelID       string              `json:"main_channel_id"`
	DefaultLogChannelID *string             `json:"default_log_channel_id"`
	ConfigLogChannelID  *string             `json:"config_log_channel_id"`
	HelpChannelID       *string             `json:"help_channel_id"`
	EnabledTypes        []domain.TicketType `json:"enabled_types"`
}

// ClaimSettingsRequest payload.
type ClaimSettingsRequest struct {
	HideAfterClaim       bool `json:"hide_after_claim"`
	AllowManagersViewAll bool `json:"allow_managers_view_all"`
}

// AutoCloseSettingsRequest payload.
type AutoCloseSettingsRequest struct {
	ReminderAfterMinutes int  `json:"reminder_after_minutes"`
	CloseAfterMinutes    int  `json:"close_after_minutes"`
	Escalate             bool `json:"escalate"`
}

// ReminderSettingsRequest payload.
type ReminderSettingsRequest struct {
	FirstReminderMinutes int `json:"first_reminder_minutes"`
	MaxReminders         int `json:"max_reminders"`
}

// LimitsRequest payload.
type LimitsRequest struct {
	DailyLimit      int `json:"daily_limit"`
	CooldownMinutes int `json:"cooldown_minutes"`
}

// ModeRequest payload.
type ModeRequest struct {
	Mode domain.SystemMode `json:"mode"`
}

// RoleLinkRequest payload.
type RoleLinkRequest struct {
	Type   domain.TicketType `json:"type"`
	RoleID string            `json:"role_id"`
}

// BanRequest payload.
type BanRequest struct {
	UserID string `json:"user_id"`
	Reason string `json:"reason"`
}

// BanResponse is one ban-list entry.
type BanResponse struct {
	UserID   string    `json:"user_id"`
	Reason   string    `json:"reason"`
	BannedBy string    `json:"banned_by"`
	BannedAt time.Time `json:"banned_at"`
}
