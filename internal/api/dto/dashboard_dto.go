package dto

import "github.com/ticketdesk/ticketdesk/internal/domain"

// CreateDashboardRequest payload.
type CreateDashboardRequest struct {
	Name      string `json:"name"`
	ChannelID string `json:"channel_id"`
}

// AddButtonRequest payload.
type AddButtonRequest struct {
	Label        string            `json:"label"`
	Emoji        *string           `json:"emoji"`
	Type         domain.TicketType `json:"type"`
	LogChannelID *string           `json:"log_channel_id"`
}

// ButtonResponse is one dashboard button.
type ButtonResponse struct {
	ID           string            `json:"id"`
	Label        string            `json:"label"`
	Emoji        *string           `json:"emoji,omitempty"`
	Type         domain.TicketType `json:"type"`
	LogChannelID *string           `json:"log_channel_id,omitempty"`
}

// DashboardResponse is the dashboard record the caller re-renders from.
type DashboardResponse struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	ChannelID string           `json:"channel_id"`
	Buttons   []ButtonResponse `json:"buttons"`
}

// DashboardFromDomain maps a domain dashboard onto the response shape.
func DashboardFromDomain(dash *domain.Dashboard) DashboardResponse {
	buttons := make([]ButtonResponse, 0, len(dash.Buttons))
	for _, button := range dash.Buttons {
		buttons = append(buttons, ButtonResponse{
			ID:           button.ID,
			Label:        button.Label,
			Emoji:        button.Emoji,
			Type:         button.Type,
			LogChannelID: button.LogChannelID,
		})
	}
	return DashboardResponse{
		ID:        dash.ID,
		Name:      dash.Name,
		ChannelID: dash.ChannelID,
		Buttons:   buttons,
	}
}
