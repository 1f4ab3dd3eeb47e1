package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen          TicketStatus = "OPEN"
	TicketStatusUnderReview   TicketStatus = "UNDER_REVIEW"
	TicketStatusProcessing    TicketStatus = "PROCESSING"
	TicketStatusAwaitingReply TicketStatus = "AWAITING_MEMBER_REPLY"
	TicketStatusFrozen        TicketStatus = "FROZEN"
	TicketStatusClosed        TicketStatus = "CLOSED"
)

// TicketStatuses lists every valid status value.
var TicketStatuses = []TicketStatus{
	TicketStatusOpen,
	TicketStatusUnderReview,
	TicketStatusProcessing,
	TicketStatusAwaitingReply,
	TicketStatusFrozen,
	TicketStatusClosed,
}

// IsValid reports whether the status is a member of the fixed enum.
func (s TicketStatus) IsValid() bool {
	for _, candidate := range TicketStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// TicketType enumerates the fixed support categories members can open.
type TicketType string

const (
	TypeGeneralInquiry     TicketType = "GENERAL_INQUIRY"
	TypeTechnicalHelp      TicketType = "TECHNICAL_HELP"
	TypeComplaint          TicketType = "COMPLAINT"
	TypeIncidentReport     TicketType = "INCIDENT_REPORT"
	TypeCompensationClaim  TicketType = "COMPENSATION_CLAIM"
	TypeGeneralComplaint   TicketType = "GENERAL_COMPLAINT"
	TypeTechSupport        TicketType = "TECH_SUPPORT"
	TypeJusticeApplication TicketType = "JUSTICE_APPLICATION"
	TypeHealthApplication  TicketType = "HEALTH_APPLICATION"
	TypePoliceApplication  TicketType = "POLICE_APPLICATION"
	TypeBanAppeal          TicketType = "BAN_APPEAL"
	TypeGangInquiry        TicketType = "GANG_INQUIRY"
)

// TicketTypes lists every valid ticket type.
var TicketTypes = []TicketType{
	TypeGeneralInquiry,
	TypeTechnicalHelp,
	TypeComplaint,
	TypeIncidentReport,
	TypeCompensationClaim,
	TypeGeneralComplaint,
	TypeTechSupport,
	TypeJusticeApplication,
	TypeHealthApplication,
	TypePoliceApplication,
	TypeBanAppeal,
	TypeGangInquiry,
}

// IsValid reports whether the type is a member of the fixed enum.
func (t TicketType) IsValid() bool {
	for _, candidate := range TicketTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// TimelineAction tags a timeline entry with the operation that produced it.
type TimelineAction string

const (
	ActionOpened       TimelineAction = "OPENED"
	ActionClaimed      TimelineAction = "CLAIMED"
	ActionUnclaimed    TimelineAction = "UNCLAIMED"
	ActionTransferred  TimelineAction = "TRANSFERRED"
	ActionStatusChange TimelineAction = "STATUS_CHANGED"
	ActionTagAdded     TimelineAction = "TAG_ADDED"
	ActionTagRemoved   TimelineAction = "TAG_REMOVED"
	ActionClosed       TimelineAction = "CLOSED"
	ActionReminder     TimelineAction = "REMINDER"
	ActionInternalNote TimelineAction = "INTERNAL_NOTE"
)

// TimelineEntry is one append-only audit record on a ticket. Actor is nil
// for system-initiated entries such as auto-close and reminders.
type TimelineEntry struct {
	At     time.Time      `json:"at"`
	Actor  *string        `json:"actor,omitempty"`
	Action TimelineAction `json:"action"`
	Note   string         `json:"note,omitempty"`
}

// Ticket is the aggregate for one support case. ChannelID is the stable
// key into the hosting chat surface and doubles as the lookup key in
// State.Tickets.
type Ticket struct {
	ID             string          `json:"id"`
	ChannelID      string          `json:"channel_id"`
	UserID         string          `json:"user_id"`
	Type           TicketType      `json:"type"`
	Details        string          `json:"details"`
	Status         TicketStatus    `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	LastActivityAt time.Time       `json:"last_activity_at"`
	ClosedAt       *time.Time      `json:"closed_at,omitempty"`
	AssignedTo     *string         `json:"assigned_to,omitempty"`
	DashboardID    *string         `json:"dashboard_id,omitempty"`
	ButtonID       *string         `json:"button_id,omitempty"`
	LogChannelID   *string         `json:"log_channel_id,omitempty"`
	Tags           []string        `json:"tags"`
	RemindersSent  int             `json:"reminders_sent"`
	LastReminderAt *time.Time      `json:"last_reminder_at,omitempty"`
	Timeline       []TimelineEntry `json:"timeline"`
}

// IsClosed reports whether the ticket reached its terminal state.
func (t *Ticket) IsClosed() bool {
	return t.Status == TicketStatusClosed
}

// AppendTimeline records an audit entry; every mutating operation appends
// exactly one.
func (t *Ticket) AppendTimeline(at time.Time, actor *string, action TimelineAction, note string) {
	t.Timeline = append(t.Timeline, TimelineEntry{At: at, Actor: actor, Action: action, Note: note})
}

// Clone returns a deep copy of the ticket.
func (t *Ticket) Clone() *Ticket {
	clone := *t
	clone.ClosedAt = copyTimePtr(t.ClosedAt)
	clone.LastReminderAt = copyTimePtr(t.LastReminderAt)
	clone.AssignedTo = copyStringPtr(t.AssignedTo)
	clone.DashboardID = copyStringPtr(t.DashboardID)
	clone.ButtonID = copyStringPtr(t.ButtonID)
	clone.LogChannelID = copyStringPtr(t.LogChannelID)
	clone.Tags = append([]string(nil), t.Tags...)
	clone.Timeline = make([]TimelineEntry, len(t.Timeline))
	for i, entry := range t.Timeline {
		clone.Timeline[i] = entry
		clone.Timeline[i].Actor = copyStringPtr(entry.Actor)
	}
	return &clone
}

func copyTimePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func copyStringPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
