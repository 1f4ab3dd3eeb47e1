package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ticketdesk/ticketdesk/internal/domain"
	"github.com/ticketdesk/ticketdesk/internal/events"
	"github.com/ticketdesk/ticketdesk/internal/state"
	apperrors "github.com/ticketdesk/ticketdesk/pkg/util/errorutil"
)

// TicketService implements the ticket state machine: every operation is
// one atomic store commit plus a timeline append.
type TicketService struct {
	store      *state.Store
	dispatcher events.Dispatcher
	now        func() time.Time
}

// NewTicketService constructs the service.
func NewTicketService(store *state.Store, dispatcher events.Dispatcher) *TicketService {
	return &TicketService{store: store, dispatcher: dispatcher, now: time.Now}
}

// TicketCreateInput describes ticket creation payload. ChannelID is the
// dedicated channel the gateway provisioned for the ticket. DashboardID
// and ButtonID carry provenance when the ticket was opened from a
// dashboard button; LogChannelID optionally overrides the default log
// channel (the button override, resolved by the caller for
// command-originated tickets).
type TicketCreateInput struct {
	ChannelID    string
	Type         domain.TicketType
	Details      string
	DashboardID  *string
	ButtonID     *string
	LogChannelID *string
}

// Create allocates a new open ticket after the full precondition chain:
// supported and enabled type, actor not banned, no existing non-closed
// ticket, and rate limit clearance. The rate-limit record and the ticket
// insert land in the same commit.
func (s *TicketService) Create(ctx context.Context, actor Actor, input TicketCreateInput) (*domain.Ticket, error) {
	if !input.Type.IsValid() {
		return nil, apperrors.NewValidationError("unsupported ticket type", map[string]any{"type": input.Type})
	}
	if strings.TrimSpace(input.ChannelID) == "" {
		return nil, apperrors.NewValidationError("channel_id required", nil)
	}

	now := s.now()
	var created *domain.Ticket
	next, err := s.store.Commit(ctx, func(st *domain.State) error {
		if !st.Settings.TypeEnabled(input.Type) {
			return apperrors.NewValidationError("ticket type is not enabled", map[string]any{"type": input.Type})
		}
		if ban, banned := st.BannedUsers[actor.ID]; banned {
			return apperrors.NewPolicyDenied(apperrors.CodeBanned,
				"you are banned from opening tickets", map[string]any{"reason": ban.Reason})
		}
		if existing := st.FindOpenTicketByUser(actor.ID); existing != nil {
			return apperrors.NewPolicyDenied(apperrors.CodeDuplicateOpen,
				"you already have an open ticket", map[string]any{"channel_id": existing.ChannelID})
		}
		if _, exists := st.Tickets[input.ChannelID]; exists {
			return apperrors.NewValidationError("channel already hosts a ticket", map[string]any{"channel_id": input.ChannelID})
		}
		if err := applyRateLimit(st, actor.ID, now); err != nil {
			return err
		}

		logChannel := resolveLogChannel(st, input)
		ticket := &domain.Ticket{
			ID:             uuid.NewString(),
			ChannelID:      input.ChannelID,
			UserID:         actor.ID,
			Type:           input.Type,
			Details:        strings.TrimSpace(input.Details),
			Status:         domain.TicketStatusOpen,
			CreatedAt:      now,
			LastActivityAt: now,
			DashboardID:    input.DashboardID,
			ButtonID:       input.ButtonID,
			LogChannelID:   logChannel,
			Tags:           []string{},
			Timeline:       []domain.TimelineEntry{},
		}
		ticket.AppendTimeline(now, &actor.ID, domain.ActionOpened, "ticket created")
		st.Tickets[input.ChannelID] = ticket
		created = ticket
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:      events.EventTicketOpened,
		ChannelID: created.ChannelID,
		Actor:     &actor.ID,
		Payload: events.TicketOpenedPayload{
			TicketID:     created.ID,
			UserID:       created.UserID,
			Type:         created.Type,
			LogChannelID: created.LogChannelID,
		},
	})
	return next.Tickets[created.ChannelID], nil
}

// Claim assigns the acting staff member to an unclaimed ticket. A claim
// against a ticket someone else holds is a distinct conflict denial, not
// an overwrite and not a silent success.
func (s *TicketService) Claim(ctx context.Context, actor Actor, channelID string) (*domain.Ticket, error) {
	next, err := s.store.Commit(ctx, func(st *domain.State) error {
		ticket, err := findTicket(st, channelID)
		if err != nil {
			return err
		}
		if !canAct(st, actor, ticket.Type) {
			return apperrors.NewPolicyDenied(apperrors.CodeAccessDenied,
				"you may not claim this ticket", nil)
		}
		if ticket.AssignedTo != nil && *ticket.AssignedTo != actor.ID {
			return apperrors.NewPolicyDenied(apperrors.CodeClaimConflict,
				"ticket is already claimed", map[string]any{"assigned_to": *ticket.AssignedTo})
		}
		ticket.AssignedTo = &actor.ID
		ticket.AppendTimeline(s.now(), &actor.ID, domain.ActionClaimed, "ticket claimed")
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:      events.EventTicketClaimed,
		ChannelID: channelID,
		Actor:     &actor.ID,
		Payload:   events.TicketClaimedPayload{AssignedTo: actor.ID},
	})
	return next.Tickets[channelID], nil
}

// Unclaim clears the assignee. Allowed for the current assignee or anyone
// with type-level access.
func (s *TicketService) Unclaim(ctx context.Context, actor Actor, channelID string) (*domain.Ticket, error) {
	next, err := s.store.Commit(ctx, func(st *domain.State) error {
		ticket, err := findTicket(st, channelID)
		if err != nil {
			return err
		}
		assignedToActor := ticket.AssignedTo != nil && *ticket.AssignedTo == actor.ID
		if !assignedToActor && !canAct(st, actor, ticket.Type) {
			return apperrors.NewPolicyDenied(apperrors.CodeAccessDenied,
				"you may not unclaim this ticket", nil)
		}
		ticket.AssignedTo = nil
		ticket.AppendTimeline(s.now(), &actor.ID, domain.ActionUnclaimed, "claim released")
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:      events.EventTicketUnclaimed,
		ChannelID: channelID,
		Actor:     &actor.ID,
	})
	return next.Tickets[channelID], nil
}

// Transfer reassigns the ticket to the given staff member regardless of
// the current assignee. Privileged override, so it requires type access.
func (s *TicketService) Transfer(ctx context.Context, actor Actor, channelID, targetID string) (*domain.Ticket, error) {
	var previous *string
	next, err := s.store.Commit(ctx, func(st *domain.State) error {
		ticket, err := findTicket(st, channelID)
		if err != nil {
			return err
		}
		if !canAct(st, actor, ticket.Type) {
			return apperrors.NewPolicyDenied(apperrors.CodeAccessDenied,
				"you may not transfer this ticket", nil)
		}
		previous = ticket.AssignedTo
		ticket.AssignedTo = &targetID
		ticket.AppendTimeline(s.now(), &actor.ID, domain.ActionTransferred, fmt.Sprintf("transferred to %s", targetID))
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:      events.EventTicketTransferred,
		ChannelID: channelID,
		Actor:     &actor.ID,
		Payload:   events.TicketTransferredPayload{From: previous, To: targetID},
	})
	return next.Tickets[channelID], nil
}

// ChangeStatus moves the ticket to another non-terminal status. Closing
// goes through Close, which owns the terminal transition.
func (s *TicketService) ChangeStatus(ctx context.Context, actor Actor, channelID string, status domain.TicketStatus) (*domain.Ticket, error) {
	if !status.IsValid() {
		return nil, apperrors.NewValidationError("unsupported status", map[string]any{"status": status})
	}
	if status == domain.TicketStatusClosed {
		return nil, apperrors.NewValidationError("use the close operation to close a ticket", nil)
	}

	var oldStatus domain.TicketStatus
	next, err := s.store.Commit(ctx, func(st *domain.State) error {
		ticket, err := findTicket(st, channelID)
		if err != nil {
			return err
		}
		if !canAct(st, actor, ticket.Type) {
			return apperrors.NewPolicyDenied(apperrors.CodeAccessDenied,
				"you may not change this ticket's status", nil)
		}
		if ticket.IsClosed() {
			return apperrors.NewValidationError("ticket is closed", nil)
		}
		oldStatus = ticket.Status
		ticket.Status = status
		ticket.AppendTimeline(s.now(), &actor.ID, domain.ActionStatusChange, string(status))
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:      events.EventTicketStatusChanged,
		ChannelID: channelID,
		Actor:     &actor.ID,
		Payload:   events.TicketStatusChangedPayload{OldStatus: oldStatus, NewStatus: status},
	})
	return next.Tickets[channelID], nil
}

// AddTag inserts a tag. Idempotent: an already-present tag leaves the
// ticket untouched and commits nothing.
func (s *TicketService) AddTag(ctx context.Context, actor Actor, channelID, tag string) (*domain.Ticket, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return nil, apperrors.NewValidationError("tag required", nil)
	}
	if ticket, err := findTicket(s.store.Read(), channelID); err != nil {
		return nil, err
	} else if hasTag(ticket, tag) {
		return ticket, nil
	}

	next, err := s.store.Commit(ctx, func(st *domain.State) error {
		ticket, err := findTicket(st, channelID)
		if err != nil {
			return err
		}
		if hasTag(ticket, tag) {
			return nil
		}
		ticket.Tags = append(ticket.Tags, tag)
		ticket.AppendTimeline(s.now(), &actor.ID, domain.ActionTagAdded, tag)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return next.Tickets[channelID], nil
}

// RemoveTag removes a tag. Removing an absent tag is a no-op, not an
// error.
func (s *TicketService) RemoveTag(ctx context.Context, actor Actor, channelID, tag string) (*domain.Ticket, error) {
	if ticket, err := findTicket(s.store.Read(), channelID); err != nil {
		return nil, err
	} else if !hasTag(ticket, tag) {
		return ticket, nil
	}

	next, err := s.store.Commit(ctx, func(st *domain.State) error {
		ticket, err := findTicket(st, channelID)
		if err != nil {
			return err
		}
		filtered := ticket.Tags[:0]
		for _, existing := range ticket.Tags {
			if existing != tag {
				filtered = append(filtered, existing)
			}
		}
		if len(filtered) == len(ticket.Tags) {
			return nil
		}
		ticket.Tags = filtered
		ticket.AppendTimeline(s.now(), &actor.ID, domain.ActionTagRemoved, tag)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return next.Tickets[channelID], nil
}

// Close moves the ticket to its terminal state and stamps ClosedAt once.
// Idempotent: closing a closed ticket changes nothing. A nil actor means
// system-initiated (auto-close); a non-nil actor must be the owner or
// hold type access. The caller is responsible for the external follow-up
// (restricting channel visibility, notifying participants).
func (s *TicketService) Close(ctx context.Context, actor *Actor, channelID, reason string) (*domain.Ticket, error) {
	current, err := findTicket(s.store.Read(), channelID)
	if err != nil {
		return nil, err
	}
	if current.IsClosed() {
		return current, nil
	}

	now := s.now()
	var closed *domain.Ticket
	next, err := s.store.Commit(ctx, func(st *domain.State) error {
		ticket, err := findTicket(st, channelID)
		if err != nil {
			return err
		}
		if ticket.IsClosed() {
			return nil
		}
		if actor != nil && actor.ID != ticket.UserID && !canAct(st, *actor, ticket.Type) {
			return apperrors.NewPolicyDenied(apperrors.CodeAccessDenied,
				"you may not close this ticket", nil)
		}
		ticket.Status = domain.TicketStatusClosed
		ticket.ClosedAt = &now
		ticket.LastActivityAt = now
		var actorID *string
		if actor != nil {
			actorID = &actor.ID
		}
		ticket.AppendTimeline(now, actorID, domain.ActionClosed, reason)
		closed = ticket
		return nil
	})
	if err != nil {
		return nil, err
	}
	if closed == nil {
		// lost the race to a concurrent close; nothing left to do
		return next.Tickets[channelID], nil
	}

	var actorID *string
	if actor != nil {
		actorID = &actor.ID
	}
	s.publish(ctx, events.Event{
		Type:      events.EventTicketClosed,
		ChannelID: channelID,
		Actor:     actorID,
		Payload: events.TicketClosedPayload{
			UserID:       closed.UserID,
			Reason:       reason,
			LogChannelID: closed.LogChannelID,
		},
	})
	return next.Tickets[channelID], nil
}

// RecordActivity refreshes LastActivityAt on inbound participant activity,
// resetting the auto-close inactivity clock. Messages arrive constantly,
// so this is the one mutation that skips the timeline.
func (s *TicketService) RecordActivity(ctx context.Context, channelID string) error {
	if _, err := findTicket(s.store.Read(), channelID); err != nil {
		return err
	}
	_, err := s.store.Commit(ctx, func(st *domain.State) error {
		ticket, err := findTicket(st, channelID)
		if err != nil {
			return err
		}
		if ticket.IsClosed() {
			return nil
		}
		ticket.LastActivityAt = s.now()
		return nil
	})
	return err
}

// MarkReminded increments the reminder counter and stamps the reminder
// time; invoked by the auto-close sweep after it decides a reminder is
// due.
func (s *TicketService) MarkReminded(ctx context.Context, channelID string) (*domain.Ticket, error) {
	now := s.now()
	var reminded *domain.Ticket
	next, err := s.store.Commit(ctx, func(st *domain.State) error {
		ticket, err := findTicket(st, channelID)
		if err != nil {
			return err
		}
		ticket.RemindersSent++
		ticket.LastReminderAt = &now
		ticket.AppendTimeline(now, nil, domain.ActionReminder, "inactivity reminder sent")
		reminded = ticket
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:      events.EventTicketReminder,
		ChannelID: channelID,
		Payload: events.TicketReminderPayload{
			UserID:        reminded.UserID,
			Type:          reminded.Type,
			RemindersSent: reminded.RemindersSent,
		},
	})
	return next.Tickets[channelID], nil
}

// AddInternalNote appends a staff-only note to the timeline.
func (s *TicketService) AddInternalNote(ctx context.Context, actor Actor, channelID, note string) (*domain.Ticket, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		return nil, apperrors.NewValidationError("note required", nil)
	}
	next, err := s.store.Commit(ctx, func(st *domain.State) error {
		ticket, err := findTicket(st, channelID)
		if err != nil {
			return err
		}
		if !canAct(st, actor, ticket.Type) {
			return apperrors.NewPolicyDenied(apperrors.CodeAccessDenied,
				"internal notes are staff-only", nil)
		}
		ticket.AppendTimeline(s.now(), &actor.ID, domain.ActionInternalNote, note)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return next.Tickets[channelID], nil
}

// Get returns the ticket hosted in the given channel.
func (s *TicketService) Get(channelID string) (*domain.Ticket, error) {
	return findTicket(s.store.Read(), channelID)
}

func findTicket(st *domain.State, channelID string) (*domain.Ticket, error) {
	ticket, ok := st.Tickets[channelID]
	if !ok {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"channel_id": channelID})
	}
	return ticket, nil
}

func hasTag(ticket *domain.Ticket, tag string) bool {
	for _, existing := range ticket.Tags {
		if existing == tag {
			return true
		}
	}
	return false
}

func resolveLogChannel(st *domain.State, input TicketCreateInput) *string {
	if input.LogChannelID != nil {
		return input.LogChannelID
	}
	if input.DashboardID != nil && input.ButtonID != nil {
		if dash := st.FindDashboard(*input.DashboardID); dash != nil {
			if button := dash.FindButton(*input.ButtonID); button != nil && button.LogChannelID != nil {
				return button.LogChannelID
			}
		}
	}
	return st.Settings.DefaultLogChannelID
}

func (s *TicketService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
