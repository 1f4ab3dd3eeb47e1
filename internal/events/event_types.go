package events

import (
	"time"

	"github.com/ticketdesk/ticketdesk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketOpened        EventType = "ticket_opened"
	EventTicketClaimed       EventType = "ticket_claimed"
	EventTicketUnclaimed     EventType = "ticket_unclaimed"
	EventTicketTransferred   EventType = "ticket_transferred"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketClosed        EventType = "ticket_closed"
	EventTicketReminder      EventType = "ticket_reminder"
	EventConfigChanged       EventType = "config_changed"
)

// Event represents a domain event emitted by services. Actor is nil for
// system-initiated events such as auto-close.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	ChannelID string      `json:"channel_id,omitempty"`
	Actor     *string     `json:"actor,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketOpenedPayload payload.
type TicketOpenedPayload struct {
	TicketID     string            `json:"ticket_id"`
	UserID       string            `json:"user_id"`
	Type         domain.TicketType `json:"type"`
	LogChannelID *string           `json:"log_channel_id,omitempty"`
}

// TicketClaimedPayload payload.
type TicketClaimedPayload struct {
	AssignedTo string `json:"assigned_to"`
}

// TicketTransferredPayload payload.
type TicketTransferredPayload struct {
	From *string `json:"from,omitempty"`
	To   string  `json:"to"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// TicketClosedPayload payload. The consumer must restrict channel
// visibility and notify participants; the core only records the close.
type TicketClosedPayload struct {
	UserID       string  `json:"user_id"`
	Reason       string  `json:"reason"`
	LogChannelID *string `json:"log_channel_id,omitempty"`
}

// TicketReminderPayload payload.
type TicketReminderPayload struct {
	UserID        string            `json:"user_id"`
	Type          domain.TicketType `json:"type"`
	RemindersSent int               `json:"reminders_sent"`
}

// ConfigChangedPayload payload carrying the audit-log instruction for the
// external logging collaborator.
type ConfigChangedPayload struct {
	Description  string  `json:"description"`
	LogChannelID *string `json:"log_channel_id,omitempty"`
}
