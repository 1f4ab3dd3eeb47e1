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

// DashboardService manages dashboards and their type-bound buttons: the
// configuration surface feeding ticket creation.
type DashboardService struct {
	store      *state.Store
	dispatcher events.Dispatcher
	now        func() time.Time
}

// NewDashboardService constructs the service.
func NewDashboardService(store *state.Store, dispatcher events.Dispatcher) *DashboardService {
	return &DashboardService{store: store, dispatcher: dispatcher, now: time.Now}
}

// ButtonInput describes a button to add to a dashboard.
type ButtonInput struct {
	Label        string
	Emoji        *string
	Type         domain.TicketType
	LogChannelID *string
}

// Create registers a new dashboard bound to a channel. Names resolve
// case-insensitively, so they must be unique that way too.
func (s *DashboardService) Create(ctx context.Context, actor Actor, name, channelID string) (*domain.Dashboard, error) {
	name = strings.TrimSpace(name)
	if name == "" || channelID == "" {
		return nil, apperrors.NewValidationError("name and channel_id required", nil)
	}

	dashboard := domain.Dashboard{
		ID:        uuid.NewString(),
		Name:      name,
		ChannelID: channelID,
		Buttons:   []domain.Button{},
	}
	next, err := s.store.Commit(ctx, func(st *domain.State) error {
		if st.FindDashboard(name) != nil {
			return apperrors.NewValidationError("dashboard name already in use", map[string]any{"name": name})
		}
		st.Dashboards = append(st.Dashboards, dashboard)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishConfigChange(ctx, actor.ID, fmt.Sprintf("dashboard %q created in channel %s", name, channelID))
	return next.FindDashboard(dashboard.ID), nil
}

// AddButton appends a typed button to a dashboard resolved by id or name.
func (s *DashboardService) AddButton(ctx context.Context, actor Actor, identifier string, input ButtonInput) (*domain.Dashboard, error) {
	if strings.TrimSpace(input.Label) == "" {
		return nil, apperrors.NewValidationError("button label required", nil)
	}
	if !input.Type.IsValid() {
		return nil, apperrors.NewValidationError("unsupported ticket type", map[string]any{"type": input.Type})
	}

	button := domain.Button{
		ID:           uuid.NewString(),
		Label:        strings.TrimSpace(input.Label),
		Emoji:        input.Emoji,
		Type:         input.Type,
		LogChannelID: input.LogChannelID,
	}
	var dashboardID string
	next, err := s.store.Commit(ctx, func(st *domain.State) error {
		dash := st.FindDashboard(identifier)
		if dash == nil {
			return apperrors.NewNotFound("dashboard", map[string]any{"identifier": identifier})
		}
		dash.Buttons = append(dash.Buttons, button)
		dashboardID = dash.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishConfigChange(ctx, actor.ID,
		fmt.Sprintf("button %q (%s) added to dashboard %s", button.Label, button.Type, identifier))
	return next.FindDashboard(dashboardID), nil
}

// RemoveButton deletes a button by id or exact label. The returned flag
// distinguishes "removed" from "not found on the dashboard".
func (s *DashboardService) RemoveButton(ctx context.Context, actor Actor, identifier, buttonKey string) (bool, error) {
	removed := false
	_, err := s.store.Commit(ctx, func(st *domain.State) error {
		dash := st.FindDashboard(identifier)
		if dash == nil {
			return apperrors.NewNotFound("dashboard", map[string]any{"identifier": identifier})
		}
		before := len(dash.Buttons)
		kept := dash.Buttons[:0]
		for _, button := range dash.Buttons {
			if button.ID == buttonKey || button.Label == buttonKey {
				continue
			}
			kept = append(kept, button)
		}
		dash.Buttons = kept
		removed = len(dash.Buttons) != before
		return nil
	})
	if err != nil {
		return false, err
	}

	if removed {
		s.publishConfigChange(ctx, actor.ID,
			fmt.Sprintf("button %q removed from dashboard %s", buttonKey, identifier))
	}
	return removed, nil
}

// Get resolves a dashboard by id or case-insensitive name.
func (s *DashboardService) Get(identifier string) (*domain.Dashboard, error) {
	dash := s.store.Read().FindDashboard(identifier)
	if dash == nil {
		return nil, apperrors.NewNotFound("dashboard", map[string]any{"identifier": identifier})
	}
	return dash, nil
}

// List returns all dashboards in configuration order.
func (s *DashboardService) List() []domain.Dashboard {
	st := s.store.Read()
	out := make([]domain.Dashboard, len(st.Dashboards))
	copy(out, st.Dashboards)
	return out
}

func (s *DashboardService) publishConfigChange(ctx context.Context, actorID, description string) {
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
