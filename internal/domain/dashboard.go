package domain

// Button is one typed entry point on a dashboard. LogChannelID overrides
// the default log channel for tickets opened through it.
type Button struct {
	ID           string     `json:"id"`
	Label        string     `json:"label"`
	Emoji        *string    `json:"emoji,omitempty"`
	Type         TicketType `json:"type"`
	LogChannelID *string    `json:"log_channel_id,omitempty"`
}

// Dashboard is a configured entry point: a channel carrying a set of
// ticket-opening buttons. Names resolve case-insensitively.
type Dashboard struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	ChannelID string   `json:"channel_id"`
	Buttons   []Button `json:"buttons"`
}

// FindButton returns the button with the given id, or nil.
func (d *Dashboard) FindButton(buttonID string) *Button {
	for i := range d.Buttons {
		if d.Buttons[i].ID == buttonID {
			return &d.Buttons[i]
		}
	}
	return nil
}

// Clone returns a deep copy of the dashboard.
func (d *Dashboard) Clone() *Dashboard {
	clone := *d
	clone.Buttons = make([]Button, len(d.Buttons))
	for i, btn := range d.Buttons {
		clone.Buttons[i] = btn
		clone.Buttons[i].Emoji = copyStringPtr(btn.Emoji)
		clone.Buttons[i].LogChannelID = copyStringPtr(btn.LogChannelID)
	}
	return &clone
}
