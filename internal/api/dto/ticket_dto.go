package dto

import (
	"time"

	"github.com/ticketdesk/ticketdesk/internal/domain"
)

// CreateTicketRequest payload. ChannelID is the channel the gateway
// provisioned for the ticket; dashboard/button carry provenance when the
// ticket came from a dashboard button.
type CreateTicketRequest struct {
	ChannelID    string            `json:"channel_id"`
	Type         domain.TicketType `json:"type"`
	Details      string            `json:"details"`
	DashboardID  *string           `json:"dashboard_id"`
	ButtonID     *string           `json:"button_id"`
	LogChannelID *string           `json:"log_channel_id"`
}

// TransferRequest payload.
type TransferRequest struct {
	TargetID string `json:"target_id"`
}

// ChangeStatusRequest payload.
type ChangeStatusRequest struct {
	Status domain.TicketStatus `json:"status"`
}

// TagRequest payload.
type TagRequest struct {
	Tag string `json:"tag"`
}

// CloseRequest payload.
type CloseRequest struct {
	Reason string `json:"reason"`
}

// NoteRequest payload.
type NoteRequest struct {
	Note string `json:"note"`
}

// TimelineEntryResponse is one audit record.
type TimelineEntryResponse struct {
	At     time.Time             `json:"at"`
	Actor  *string               `json:"actor,omitempty"`
	Action domain.TimelineAction `json:"action"`
	Note   string                `json:"note,omitempty"`
}

// TicketResponse is the full ticket record the caller re-renders from.
type TicketResponse struct {
	ID             string                  `json:"id"`
	ChannelID      string                  `json:"channel_id"`
	UserID         string                  `json:"user_id"`
	Type           domain.TicketType       `json:"type"`
	Details        string                  `json:"details"`
	Status         domain.TicketStatus     `json:"status"`
	CreatedAt      time.Time               `json:"created_at"`
	LastActivityAt time.Time               `json:"last_activity_at"`
	ClosedAt       *time.Time              `json:"closed_at,omitempty"`
	AssignedTo     *string                 `json:"assigned_to,omitempty"`
	LogChannelID   *string                 `json:"log_channel_id,omitempty"`
	Tags           []string                `json:"tags"`
	RemindersSent  int                     `json:"reminders_sent"`
	Timeline       []TimelineEntryResponse `json:"timeline"`
}

// TicketFromDomain maps a domain ticket onto the response shape.
func TicketFromDomain(ticket *domain.Ticket) TicketResponse {
	timeline := make([]TimelineEntryResponse, 0, len(ticket.Timeline))
	for _, entry := range ticket.Timeline {
		timeline = append(timeline, TimelineEntryResponse{
			At:     entry.At,
			Actor:  entry.Actor,
			Action: entry.Action,
			Note:   entry.Note,
		})
	}
	return TicketResponse{
		ID:             ticket.ID,
		ChannelID:      ticket.ChannelID,
		UserID:         ticket.UserID,
		Type:           ticket.Type,
		Details:        ticket.Details,
		Status:         ticket.Status,
		CreatedAt:      ticket.CreatedAt,
		LastActivityAt: ticket.LastActivityAt,
		ClosedAt:       ticket.ClosedAt,
		AssignedTo:     ticket.AssignedTo,
		LogChannelID:   ticket.LogChannelID,
		Tags:           ticket.Tags,
		RemindersSent:  ticket.RemindersSent,
		Timeline:       timeline,
	}
}
