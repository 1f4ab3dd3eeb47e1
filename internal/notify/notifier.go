package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ticketdesk/ticketdesk/internal/events"
)

// Notifier turns domain events into notification and audit-log
// instructions for the external messaging collaborator. The core never
// sends platform messages itself; failures here are best-effort and never
// touch committed state.
type Notifier struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewNotifier creates the notifier.
func NewNotifier(dispatcher events.Dispatcher, logger *zap.Logger) *Notifier {
	return &Notifier{dispatcher: dispatcher, logger: logger}
}

// RegisterHandlers subscribes to events.
func (n *Notifier) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketOpened, n.handleTicketOpened)
	n.dispatcher.Subscribe(events.EventTicketClaimed, n.handleTicketClaimed)
	n.dispatcher.Subscribe(events.EventTicketTransferred, n.handleTicketTransferred)
	n.dispatcher.Subscribe(events.EventTicketClosed, n.handleTicketClosed)
	n.dispatcher.Subscribe(events.EventTicketReminder, n.handleTicketReminder)
	n.dispatcher.Subscribe(events.EventConfigChanged, n.handleConfigChanged)
}

func (n *Notifier) handleTicketOpened(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketOpenedPayload)
	if !ok {
		return nil
	}
	n.instruct(payload.LogChannelID, event.ChannelID,
		fmt.Sprintf("ticket %s opened by %s (%s)", payload.TicketID, payload.UserID, payload.Type))
	return nil
}

func (n *Notifier) handleTicketClaimed(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketClaimedPayload)
	if !ok {
		return nil
	}
	n.instruct(nil, event.ChannelID, fmt.Sprintf("ticket claimed by %s", payload.AssignedTo))
	return nil
}

func (n *Notifier) handleTicketTransferred(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketTransferredPayload)
	if !ok {
		return nil
	}
	n.instruct(nil, event.ChannelID, fmt.Sprintf("ticket transferred to %s", payload.To))
	return nil
}

func (n *Notifier) handleTicketClosed(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketClosedPayload)
	if !ok {
		return nil
	}
	actor := "system"
	if event.Actor != nil {
		actor = *event.Actor
	}
	n.instruct(payload.LogChannelID, event.ChannelID,
		fmt.Sprintf("ticket closed by %s: %s", actor, payload.Reason))
	return nil
}

func (n *Notifier) handleTicketReminder(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketReminderPayload)
	if !ok {
		return nil
	}
	n.instruct(nil, event.ChannelID,
		fmt.Sprintf("remind %s: ticket (%s) awaits their reply", payload.UserID, payload.Type))
	return nil
}

func (n *Notifier) handleConfigChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ConfigChangedPayload)
	if !ok {
		return nil
	}
	n.instruct(payload.LogChannelID, "", payload.Description)
	return nil
}

// instruct emits a "send message X to channel Y" instruction. The
// messaging collaborator consumes these; here they surface as structured
// log lines.
func (n *Notifier) instruct(logChannelID *string, channelID, message string) {
	fields := []zap.Field{zap.String("message", message)}
	if channelID != "" {
		fields = append(fields, zap.String("channel_id", channelID))
	}
	if logChannelID != nil {
		fields = append(fields, zap.String("log_channel_id", *logChannelID))
	}
	n.logger.Info("notify", fields...)
}
