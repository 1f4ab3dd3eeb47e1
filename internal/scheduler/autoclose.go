package scheduler

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/ticketdesk/ticketdesk/internal/config"
	"github.com/ticketdesk/ticketdesk/internal/domain"
	"github.com/ticketdesk/ticketdesk/internal/observability"
	"github.com/ticketdesk/ticketdesk/internal/service"
	"github.com/ticketdesk/ticketdesk/internal/state"
)

// AutoCloseScheduler sweeps non-closed tickets on a fixed interval,
// reminding inactive members and auto-closing tickets past the close
// threshold. A rotating cursor caps per-tick work so an unbounded backlog
// never makes a single tick unbounded; tickets beyond the cap are picked
// up on later ticks.
type AutoCloseScheduler struct {
	store   *state.Store
	tickets *service.TicketService
	logger  *zap.Logger
	metrics *observability.Metrics
	cfg     config.SchedulerConfig
	now     func() time.Time
	cursor  int
}

// New constructs the scheduler.
func New(store *state.Store, tickets *service.TicketService, logger *zap.Logger, metrics *observability.Metrics, cfg config.SchedulerConfig) *AutoCloseScheduler {
	return &AutoCloseScheduler{
		store:   store,
		tickets: tickets,
		logger:  logger,
		metrics: metrics,
		cfg:     cfg,
		now:     time.Now,
	}
}

// Run ticks until the context is cancelled.
func (s *AutoCloseScheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.TickInterval())
	defer ticker.Stop()

	s.logger.Info("auto-close scheduler started",
		zap.Duration("interval", s.cfg.TickInterval()),
		zap.Int("batch_ceiling", s.cfg.BatchCeiling))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("auto-close scheduler stopped")
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs one sweep over the next batch of non-closed tickets. The
// reminder and close rules are evaluated independently, so a ticket past
// both thresholds gets a final reminder and is closed in the same tick.
func (s *AutoCloseScheduler) Tick(ctx context.Context) {
	s.metrics.RecordSweepTick()
	snapshot := s.store.Read()
	open := openTicketsOrdered(snapshot)
	if len(open) == 0 {
		s.cursor = 0
		return
	}
	if s.cursor >= len(open) {
		s.cursor = 0
	}

	ceiling := s.cfg.BatchCeiling
	if ceiling <= 0 {
		ceiling = 200
	}
	end := s.cursor + ceiling
	if end > len(open) {
		end = len(open)
	}
	batch := open[s.cursor:end]
	now := s.now()

	for _, ticket := range batch {
		last := ticket.LastActivityAt
		if last.IsZero() {
			last = ticket.CreatedAt
		}
		inactive := now.Sub(last)

		if s.reminderDue(snapshot, ticket, now, inactive) {
			if _, err := s.tickets.MarkReminded(ctx, ticket.ChannelID); err != nil {
				s.logger.Error("reminder commit failed",
					zap.String("channel_id", ticket.ChannelID), zap.Error(err))
			} else {
				s.metrics.RecordReminder()
			}
		}

		closeAfter := time.Duration(snapshot.Settings.AutoClose.CloseAfterMinutes) * time.Minute
		if inactive >= closeAfter {
			if _, err := s.tickets.Close(ctx, nil, ticket.ChannelID, "auto-closed for inactivity"); err != nil {
				s.logger.Error("auto-close failed",
					zap.String("channel_id", ticket.ChannelID), zap.Error(err))
			} else {
				s.metrics.RecordAutoClose()
				s.logger.Info("ticket auto-closed",
					zap.String("channel_id", ticket.ChannelID),
					zap.Duration("inactive", inactive))
			}
		}
	}

	s.cursor += len(batch)
}

func (s *AutoCloseScheduler) reminderDue(snapshot *domain.State, ticket *domain.Ticket, now time.Time, inactive time.Duration) bool {
	reminders := snapshot.Settings.Reminders
	if ticket.RemindersSent >= reminders.MaxReminders {
		return false
	}
	if inactive < time.Duration(reminders.FirstReminderMinutes)*time.Minute {
		return false
	}
	if ticket.LastReminderAt != nil && now.Sub(*ticket.LastReminderAt) <= s.cfg.ReminderGap() {
		return false
	}
	return true
}

// openTicketsOrdered returns non-closed tickets in a stable order so the
// rotating cursor visits each one exactly once per rotation.
func openTicketsOrdered(st *domain.State) []*domain.Ticket {
	open := make([]*domain.Ticket, 0, len(st.Tickets))
	for _, ticket := range st.Tickets {
		if !ticket.IsClosed() {
			open = append(open, ticket)
		}
	}
	sort.Slice(open, func(i, j int) bool {
		if open[i].CreatedAt.Equal(open[j].CreatedAt) {
			return open[i].ChannelID < open[j].ChannelID
		}
		return open[i].CreatedAt.Before(open[j].CreatedAt)
	})
	return open
}
