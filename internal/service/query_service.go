package service

import (
	"sort"
	"time"

	"github.com/ticketdesk/ticketdesk/internal/domain"
	"github.com/ticketdesk/ticketdesk/internal/state"
)

// QueryService answers read-only questions over the committed snapshot.
type QueryService struct {
	store *state.Store
	now   func() time.Time
}

// NewQueryService constructs the service.
func NewQueryService(store *state.Store) *QueryService {
	return &QueryService{store: store, now: time.Now}
}

// TicketFilter narrows a search; nil/empty fields match everything.
type TicketFilter struct {
	UserID      *string
	AssignedTo  *string
	Type        *domain.TicketType
	Status      *domain.TicketStatus
	Tag         *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
}

// Search returns tickets matching the filter, newest first.
func (s *QueryService) Search(filter TicketFilter) []*domain.Ticket {
	st := s.store.Read()
	matched := make([]*domain.Ticket, 0)
	for _, ticket := range st.Tickets {
		if filter.UserID != nil && ticket.UserID != *filter.UserID {
			continue
		}
		if filter.AssignedTo != nil && (ticket.AssignedTo == nil || *ticket.AssignedTo != *filter.AssignedTo) {
			continue
		}
		if filter.Type != nil && ticket.Type != *filter.Type {
			continue
		}
		if filter.Status != nil && ticket.Status != *filter.Status {
			continue
		}
		if filter.Tag != nil && !hasTag(ticket, *filter.Tag) {
			continue
		}
		if filter.CreatedFrom != nil && ticket.CreatedAt.Before(*filter.CreatedFrom) {
			continue
		}
		if filter.CreatedTo != nil && ticket.CreatedAt.After(*filter.CreatedTo) {
			continue
		}
		matched = append(matched, ticket)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched
}

// MemberTickets summarizes a member's tickets: the open one (if any) and
// the five most recently closed.
type MemberTickets struct {
	Open           []*domain.Ticket
	RecentlyClosed []*domain.Ticket
}

// TicketsForMember returns the member's open and recently closed tickets.
func (s *QueryService) TicketsForMember(userID string) MemberTickets {
	st := s.store.Read()
	var result MemberTickets
	for _, ticket := range st.Tickets {
		if ticket.UserID != userID {
			continue
		}
		if ticket.IsClosed() {
			result.RecentlyClosed = append(result.RecentlyClosed, ticket)
		} else {
			result.Open = append(result.Open, ticket)
		}
	}
	sort.Slice(result.RecentlyClosed, func(i, j int) bool {
		a, b := result.RecentlyClosed[i].ClosedAt, result.RecentlyClosed[j].ClosedAt
		if a == nil || b == nil {
			return b == nil
		}
		return a.After(*b)
	})
	if len(result.RecentlyClosed) > 5 {
		result.RecentlyClosed = result.RecentlyClosed[:5]
	}
	return result
}

// SupportProfile summarizes one staff member's workload.
type SupportProfile struct {
	StaffID  string
	Assigned int
	Closed   int
}

// ProfileForStaff counts tickets assigned to a staff member and how many
// of those are closed.
func (s *QueryService) ProfileForStaff(staffID string) SupportProfile {
	st := s.store.Read()
	profile := SupportProfile{StaffID: staffID}
	for _, ticket := range st.Tickets {
		if ticket.AssignedTo == nil || *ticket.AssignedTo != staffID {
			continue
		}
		profile.Assigned++
		if ticket.IsClosed() {
			profile.Closed++
		}
	}
	return profile
}

// StatusReport counts tickets per status created within the window.
func (s *QueryService) StatusReport(window time.Duration) map[domain.TicketStatus]int {
	st := s.store.Read()
	cutoff := s.now().Add(-window)
	report := make(map[domain.TicketStatus]int, len(domain.TicketStatuses))
	for _, status := range domain.TicketStatuses {
		report[status] = 0
	}
	for _, ticket := range st.Tickets {
		if ticket.CreatedAt.Before(cutoff) {
			continue
		}
		report[ticket.Status]++
	}
	return report
}
