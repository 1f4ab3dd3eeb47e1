package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ticketdesk/ticketdesk/internal/domain"
	"github.com/ticketdesk/ticketdesk/internal/events"
	"github.com/ticketdesk/ticketdesk/internal/state"
	apperrors "github.com/ticketdesk/ticketdesk/pkg/util/errorutil"
)

// SettingsService mutates the singleton settings record. Every change
// emits a config-changed event carrying the audit-log instruction.
type SettingsService struct {
	store      *state.Store
	dispatcher events.Dispatcher
	now        func() time.Time
}

// NewSettingsService constructs the service.
func NewSettingsService(store *state.Store, dispatcher events.Dispatcher) *SettingsService {
	return &SettingsService{store: store, dispatcher: dispatcher, now: time.Now}
}

// InitialSetupInput is the one-shot bootstrap configuration.
type InitialSetupInput struct {
	AdminRoleID         string
	MainChannelID       string
	DefaultLogChannelID *string
	ConfigLogChannelID  *string
	HelpChannelID       *string
	EnabledTypes        []domain.TicketType
}

// InitialSetup stores the base configuration. An empty EnabledTypes list
// enables every supported type.
func (s *SettingsService) InitialSetup(ctx context.Context, actor Actor, input InitialSetupInput) error {
	if input.AdminRoleID == "" || input.MainChannelID == "" {
		return apperrors.NewValidationError("admin_role_id and main_channel_id required", nil)
	}
	enabled := make([]domain.TicketType, 0, len(input.EnabledTypes))
	for _, t := range input.EnabledTypes {
		if !t.IsValid() {
			return apperrors.NewValidationError("unsupported ticket type", map[string]any{"type": t})
		}
		enabled = append(enabled, t)
	}
	if len(enabled) == 0 {
		enabled = append(enabled, domain.TicketTypes...)
	}

	_, err := s.store.Commit(ctx, func(st *domain.State) error {
		st.Settings.AdminRoleID = &input.AdminRoleID
		st.Settings.MainChannelID = &input.MainChannelID
		st.Settings.DefaultLogChannelID = input.DefaultLogChannelID
		st.Settings.ConfigLogChannelID = input.ConfigLogChannelID
		st.Settings.HelpChannelID = input.HelpChannelID
		st.Settings.EnabledTypes = enabled
		return nil
	})
	if err != nil {
		return err
	}

	s.publishConfigChange(ctx, actor.ID,
		fmt.Sprintf("initial setup: admin role %s, main channel %s, %d enabled types",
			input.AdminRoleID, input.MainChannelID, len(enabled)))
	return nil
}

// UpdateClaim sets claim visibility behavior.
func (s *SettingsService) UpdateClaim(ctx context.Context, actor Actor, claim domain.ClaimSettings) error {
	_, err := s.store.Commit(ctx, func(st *domain.State) error {
		st.Settings.Claim = claim
		return nil
	})
	if err != nil {
		return err
	}
	s.publishConfigChange(ctx, actor.ID,
		fmt.Sprintf("claim settings updated (hide_after_claim=%t, managers_view_all=%t)",
			claim.HideAfterClaim, claim.AllowManagersViewAll))
	return nil
}

// UpdateAutoClose sets the inactivity sweep thresholds. Changes apply
// from the next tick onward.
func (s *SettingsService) UpdateAutoClose(ctx context.Context, actor Actor, autoClose domain.AutoCloseSettings) error {
	if autoClose.ReminderAfterMinutes <= 0 || autoClose.CloseAfterMinutes <= 0 {
		return apperrors.NewValidationError("auto-close thresholds must be positive minutes", nil)
	}
	_, err := s.store.Commit(ctx, func(st *domain.State) error {
		st.Settings.AutoClose = autoClose
		return nil
	})
	if err != nil {
		return err
	}
	s.publishConfigChange(ctx, actor.ID,
		fmt.Sprintf("auto-close settings updated (reminder %dm, close %dm, escalate=%t)",
			autoClose.ReminderAfterMinutes, autoClose.CloseAfterMinutes, autoClose.Escalate))
	return nil
}

// UpdateReminders sets the reminder cadence.
func (s *SettingsService) UpdateReminders(ctx context.Context, actor Actor, reminders domain.ReminderSettings) error {
	if reminders.FirstReminderMinutes <= 0 || reminders.MaxReminders <= 0 {
		return apperrors.NewValidationError("reminder settings must be positive", nil)
	}
	_, err := s.store.Commit(ctx, func(st *domain.State) error {
		st.Settings.Reminders = reminders
		return nil
	})
	if err != nil {
		return err
	}
	s.publishConfigChange(ctx, actor.ID,
		fmt.Sprintf("reminder settings updated (first %dm, max %d)",
			reminders.FirstReminderMinutes, reminders.MaxReminders))
	return nil
}

// UpdateLimits sets the spam thresholds. Applies to the next rate-limit
// check only; no retroactive re-evaluation.
func (s *SettingsService) UpdateLimits(ctx context.Context, actor Actor, spam domain.SpamSettings) error {
	if spam.DailyLimit <= 0 || spam.CooldownMinutes < 0 {
		return apperrors.NewValidationError("spam limits must be positive", nil)
	}
	_, err := s.store.Commit(ctx, func(st *domain.State) error {
		st.Settings.Spam = spam
		return nil
	})
	if err != nil {
		return err
	}
	s.publishConfigChange(ctx, actor.ID,
		fmt.Sprintf("spam limits updated (daily %d, cooldown %dm)", spam.DailyLimit, spam.CooldownMinutes))
	return nil
}

// SwitchMode toggles the operating mode.
func (s *SettingsService) SwitchMode(ctx context.Context, actor Actor, mode domain.SystemMode) error {
	if !mode.IsValid() {
		return apperrors.NewValidationError("unsupported mode", map[string]any{"mode": mode})
	}
	_, err := s.store.Commit(ctx, func(st *domain.State) error {
		st.Settings.Mode = mode
		return nil
	})
	if err != nil {
		return err
	}
	s.publishConfigChange(ctx, actor.ID, fmt.Sprintf("system mode switched to %s", mode))
	return nil
}

// Current returns the committed settings record.
func (s *SettingsService) Current() domain.Settings {
	return s.store.Read().Settings
}

func (s *SettingsService) publishConfigChange(ctx context.Context, actorID, description string) {
	if s.dispatcher == nil {
		return
	}
	st := s.store.Read()
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventConfigChanged,
		Actor:     &actorID,
		Timestamp: s.now(),
		Payload: events.ConfigChangedPayload{
			Description:  description,
			LogChannelID: st.Settings.ConfigLogChannelID,
		},
	})
}
