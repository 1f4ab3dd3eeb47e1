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

// Actor identifies the authenticated caller: a platform user id plus the
// role ids the platform reports for them. Role membership itself is
// delegated to the host platform.
type Actor struct {
	ID    string
	Roles []string
}

// hasRole reports whether the actor holds the given role id.
func (a Actor) hasRole(roleID string) bool {
	for _, role := range a.Roles {
		if role == roleID {
			return true
		}
	}
	return false
}

// AccessPolicy resolves whether an actor may act on a ticket type, and
// owns the role-link and ban configuration behind that decision.
type AccessPolicy struct {
	store      *state.Store
	dispatcher events.Dispatcher
	now        func() time.Time
}

// NewAccessPolicy constructs the policy.
func NewAccessPolicy(store *state.Store, dispatcher events.Dispatcher) *AccessPolicy {
	return &AccessPolicy{store: store, dispatcher: dispatcher, now: time.Now}
}

// canAct evaluates the policy against a given snapshot: true if the actor
// holds the configured admin role or any role linked to the ticket type.
func canAct(st *domain.State, actor Actor, ticketType domain.TicketType) bool {
	if st.Settings.AdminRoleID != nil && actor.hasRole(*st.Settings.AdminRoleID) {
		return true
	}
	for _, roleID := range st.TypeRoles[ticketType] {
		if actor.hasRole(roleID) {
			return true
		}
	}
	return false
}

// CanAct evaluates the policy against the current committed state.
func (p *AccessPolicy) CanAct(actor Actor, ticketType domain.TicketType) bool {
	return canAct(p.store.Read(), actor, ticketType)
}

// LinkRole binds a role to a ticket type. Idempotent set-insert.
func (p *AccessPolicy) LinkRole(ctx context.Context, actor Actor, ticketType domain.TicketType, roleID string) error {
	if !ticketType.IsValid() {
		return apperrors.NewValidationError("unsupported ticket type", map[string]any{"type": ticketType})
	}
	_, err := p.store.Commit(ctx, func(st *domain.State) error {
		for _, existing := range st.TypeRoles[ticketType] {
			if existing == roleID {
				return nil
			}
		}
		st.TypeRoles[ticketType] = append(st.TypeRoles[ticketType], roleID)
		return nil
	})
	if err != nil {
		return err
	}
	p.publishConfigChange(ctx, actor.ID, fmt.Sprintf("role %s linked to type %s", roleID, ticketType))
	return nil
}

// UnlinkRole removes a role binding. Idempotent set-remove.
func (p *AccessPolicy) UnlinkRole(ctx context.Context, actor Actor, ticketType domain.TicketType, roleID string) error {
	if !ticketType.IsValid() {
		return apperrors.NewValidationError("unsupported ticket type", map[string]any{"type": ticketType})
	}
	_, err := p.store.Commit(ctx, func(st *domain.State) error {
		roles := st.TypeRoles[ticketType]
		filtered := roles[:0]
		for _, existing := range roles {
			if existing != roleID {
				filtered = append(filtered, existing)
			}
		}
		st.TypeRoles[ticketType] = filtered
		return nil
	})
	if err != nil {
		return err
	}
	p.publishConfigChange(ctx, actor.ID, fmt.Sprintf("role %s unlinked from type %s", roleID, ticketType))
	return nil
}

// RolesForType returns the role ids bound to a ticket type.
func (p *AccessPolicy) RolesForType(ticketType domain.TicketType) []string {
	return append([]string(nil), p.store.Read().TypeRoles[ticketType]...)
}

// BanUser excludes a member from opening tickets.
func (p *AccessPolicy) BanUser(ctx context.Context, actor Actor, userID, reason string) error {
	_, err := p.store.Commit(ctx, func(st *domain.State) error {
		st.BannedUsers[userID] = domain.BanRecord{
			Reason:   reason,
			BannedBy: actor.ID,
			BannedAt: p.now(),
		}
		return nil
	})
	if err != nil {
		return err
	}
	p.publishConfigChange(ctx, actor.ID, fmt.Sprintf("user %s banned from tickets: %s", userID, reason))
	return nil
}

// UnbanUser lifts a ticket ban.
func (p *AccessPolicy) UnbanUser(ctx context.Context, actor Actor, userID string) error {
	_, err := p.store.Commit(ctx, func(st *domain.State) error {
		delete(st.BannedUsers, userID)
		return nil
	})
	if err != nil {
		return err
	}
	p.publishConfigChange(ctx, actor.ID, fmt.Sprintf("user %s unbanned from tickets", userID))
	return nil
}

// ListBanned returns the current ban list.
func (p *AccessPolicy) ListBanned() map[string]domain.BanRecord {
	st := p.store.Read()
	out := make(map[string]domain.BanRecord, len(st.BannedUsers))
	for userID, record := range st.BannedUsers {
		out[userID] = record
	}
	return out
}

func (p *AccessPolicy) publishConfigChange(ctx context.Context, actorID, description string) {
	if p.dispatcher == nil {
		return
	}
	st := p.store.Read()
	_ = p.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventConfigChanged,
		Actor:     &actorID,
		Timestamp: p.now(),
		Payload: events.ConfigChangedPayload{
			Description:  description,
			LogChannelID: st.Settings.ConfigLogChannelID,
		},
	})
}
