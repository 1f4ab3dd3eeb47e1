package domain

import (
	"strings"
	"time"
)

// SystemMode enumerates the operating modes of the ticket system.
type SystemMode string

const (
	ModeNormal      SystemMode = "NORMAL"
	ModeMaintenance SystemMode = "MAINTENANCE"
)

// IsValid reports whether the mode is a member of the fixed enum.
func (m SystemMode) IsValid() bool {
	return m == ModeNormal || m == ModeMaintenance
}

// ClaimSettings control ticket claim visibility behavior.
type ClaimSettings struct {
	HideAfterClaim       bool `json:"hide_after_claim"`
	AllowManagersViewAll bool `json:"allow_managers_view_all"`
}

// AutoCloseSettings control the inactivity auto-close sweep.
type AutoCloseSettings struct {
	ReminderAfterMinutes int  `json:"reminder_after_minutes"`
	CloseAfterMinutes    int  `json:"close_after_minutes"`
	Escalate             bool `json:"escalate"`
}

// ReminderSettings control inactivity reminders.
type ReminderSettings struct {
	FirstReminderMinutes int `json:"first_reminder_minutes"`
	MaxReminders         int `json:"max_reminders"`
}

// SpamSettings bound how often a member may open tickets.
type SpamSettings struct {
	DailyLimit      int `json:"daily_limit"`
	CooldownMinutes int `json:"cooldown_minutes"`
}

// Settings is the singleton configuration record, mutable only through
// explicit settings operations.
type Settings struct {
	AdminRoleID         *string           `json:"admin_role_id,omitempty"`
	MainChannelID       *string           `json:"main_channel_id,omitempty"`
	HelpChannelID       *string           `json:"help_channel_id,omitempty"`
	ConfigLogChannelID  *string           `json:"config_log_channel_id,omitempty"`
	DefaultLogChannelID *string           `json:"default_log_channel_id,omitempty"`
	EnabledTypes        []TicketType      `json:"enabled_types"`
	Claim               ClaimSettings     `json:"claim"`
	AutoClose           AutoCloseSettings `json:"auto_close"`
	Reminders           ReminderSettings  `json:"reminders"`
	Spam                SpamSettings      `json:"spam"`
	Mode                SystemMode        `json:"mode"`
}

// TypeEnabled reports whether members may open tickets of the given type.
func (s *Settings) TypeEnabled(t TicketType) bool {
	for _, enabled := range s.EnabledTypes {
		if enabled == t {
			return true
		}
	}
	return false
}

// BanRecord marks a member excluded from opening tickets.
type BanRecord struct {
	Reason   string    `json:"reason"`
	BannedBy string    `json:"banned_by"`
	BannedAt time.Time `json:"banned_at"`
}

// SpamRecord tracks a member's recent ticket opens for rate limiting.
type SpamRecord struct {
	Opened       []time.Time `json:"opened"`
	LastOpenedAt *time.Time  `json:"last_opened_at,omitempty"`
}

// State is the single root aggregate. It is only ever mutated through the
// store's copy-mutate-commit cycle; callers holding a snapshot must treat
// it as read-only.
type State struct {
	Dashboards  []Dashboard             `json:"dashboards"`
	TypeRoles   map[TicketType][]string `json:"type_roles"`
	Tickets     map[string]*Ticket      `json:"tickets"`
	Settings    Settings                `json:"settings"`
	BannedUsers map[string]BanRecord    `json:"banned_users"`
	SpamTracker map[string]*SpamRecord  `json:"spam_tracker"`
}

// DefaultSettings returns the initial configuration applied to fresh state
// and merged under loaded snapshots that predate newer fields.
func DefaultSettings() Settings {
	return Settings{
		EnabledTypes: append([]TicketType(nil), TicketTypes...),
		Claim: ClaimSettings{
			HideAfterClaim:       false,
			AllowManagersViewAll: true,
		},
		AutoClose: AutoCloseSettings{
			ReminderAfterMinutes: 60,
			CloseAfterMinutes:    180,
			Escalate:             true,
		},
		Reminders: ReminderSettings{
			FirstReminderMinutes: 45,
			MaxReminders:         2,
		},
		Spam: SpamSettings{
			DailyLimit:      3,
			CooldownMinutes: 15,
		},
		Mode: ModeNormal,
	}
}

// NewState builds an empty aggregate with default settings.
func NewState() *State {
	return &State{
		Dashboards:  []Dashboard{},
		TypeRoles:   map[TicketType][]string{},
		Tickets:     map[string]*Ticket{},
		Settings:    DefaultSettings(),
		BannedUsers: map[string]BanRecord{},
		SpamTracker: map[string]*SpamRecord{},
	}
}

// Normalize fills nil collections after deserialization so loaded
// snapshots from older documents behave like fresh state.
func (s *State) Normalize() {
	if s.Dashboards == nil {
		s.Dashboards = []Dashboard{}
	}
	if s.TypeRoles == nil {
		s.TypeRoles = map[TicketType][]string{}
	}
	if s.Tickets == nil {
		s.Tickets = map[string]*Ticket{}
	}
	if s.BannedUsers == nil {
		s.BannedUsers = map[string]BanRecord{}
	}
	if s.SpamTracker == nil {
		s.SpamTracker = map[string]*SpamRecord{}
	}
	if len(s.Settings.EnabledTypes) == 0 {
		s.Settings.EnabledTypes = append([]TicketType(nil), TicketTypes...)
	}
	if !s.Settings.Mode.IsValid() {
		s.Settings.Mode = ModeNormal
	}
	defaults := DefaultSettings()
	if s.Settings.AutoClose.ReminderAfterMinutes == 0 {
		s.Settings.AutoClose.ReminderAfterMinutes = defaults.AutoClose.ReminderAfterMinutes
	}
	if s.Settings.AutoClose.CloseAfterMinutes == 0 {
		s.Settings.AutoClose.CloseAfterMinutes = defaults.AutoClose.CloseAfterMinutes
	}
	if s.Settings.Reminders.FirstReminderMinutes == 0 {
		s.Settings.Reminders.FirstReminderMinutes = defaults.Reminders.FirstReminderMinutes
	}
	if s.Settings.Reminders.MaxReminders == 0 {
		s.Settings.Reminders.MaxReminders = defaults.Reminders.MaxReminders
	}
	if s.Settings.Spam.DailyLimit == 0 {
		s.Settings.Spam.DailyLimit = defaults.Spam.DailyLimit
	}
	if s.Settings.Spam.CooldownMinutes == 0 {
		s.Settings.Spam.CooldownMinutes = defaults.Spam.CooldownMinutes
	}
}

// Clone produces a deep, isolated copy of the whole aggregate.
func (s *State) Clone() *State {
	clone := &State{
		Dashboards:  make([]Dashboard, len(s.Dashboards)),
		TypeRoles:   make(map[TicketType][]string, len(s.TypeRoles)),
		Tickets:     make(map[string]*Ticket, len(s.Tickets)),
		Settings:    s.Settings,
		BannedUsers: make(map[string]BanRecord, len(s.BannedUsers)),
		SpamTracker: make(map[string]*SpamRecord, len(s.SpamTracker)),
	}
	for i := range s.Dashboards {
		clone.Dashboards[i] = *s.Dashboards[i].Clone()
	}
	for t, roles := range s.TypeRoles {
		clone.TypeRoles[t] = append([]string(nil), roles...)
	}
	for channelID, ticket := range s.Tickets {
		clone.Tickets[channelID] = ticket.Clone()
	}
	clone.Settings.AdminRoleID = copyStringPtr(s.Settings.AdminRoleID)
	clone.Settings.MainChannelID = copyStringPtr(s.Settings.MainChannelID)
	clone.Settings.HelpChannelID = copyStringPtr(s.Settings.HelpChannelID)
	clone.Settings.ConfigLogChannelID = copyStringPtr(s.Settings.ConfigLogChannelID)
	clone.Settings.DefaultLogChannelID = copyStringPtr(s.Settings.DefaultLogChannelID)
	clone.Settings.EnabledTypes = append([]TicketType(nil), s.Settings.EnabledTypes...)
	for userID, record := range s.BannedUsers {
		clone.BannedUsers[userID] = record
	}
	for userID, record := range s.SpamTracker {
		cloned := &SpamRecord{
			Opened:       append([]time.Time(nil), record.Opened...),
			LastOpenedAt: copyTimePtr(record.LastOpenedAt),
		}
		clone.SpamTracker[userID] = cloned
	}
	return clone
}

// FindDashboard resolves a dashboard by id or case-insensitive name.
func (s *State) FindDashboard(identifier string) *Dashboard {
	for i := range s.Dashboards {
		dash := &s.Dashboards[i]
		if dash.ID == identifier || strings.EqualFold(dash.Name, identifier) {
			return dash
		}
	}
	return nil
}

// FindOpenTicketByUser returns the user's non-closed ticket, if any. At
// most one exists.
func (s *State) FindOpenTicketByUser(userID string) *Ticket {
	for _, ticket := range s.Tickets {
		if ticket.UserID == userID && !ticket.IsClosed() {
			return ticket
		}
	}
	return nil
}
