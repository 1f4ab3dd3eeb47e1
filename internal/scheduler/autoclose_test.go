package scheduler

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/ticketdesk/ticketdesk/internal/config"
	"github.com/ticketdesk/ticketdesk/internal/domain"
	"github.com/ticketdesk/ticketdesk/internal/service"
	"github.com/ticketdesk/ticketdesk/internal/state"
)

func newSweepFixture(t *testing.T) (*AutoCloseScheduler, *state.Store) {
	t.Helper()
	store, err := state.NewStore(context.Background(), state.NewMemorySnapshotter(), zap.NewNop(), nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	tickets := service.NewTicketService(store, nil)
	sweep := New(store, tickets, zap.NewNop(), nil, config.SchedulerConfig{
		TickSeconds:    60,
		BatchCeiling:   200,
		ReminderGapMin: 30,
	})
	return sweep, store
}

func seedTicket(t *testing.T, store *state.Store, channelID string, inactiveFor time.Duration, remindersSent int) {
	t.Helper()
	origin := time.Now().Add(-inactiveFor)
	if _, err := store.Commit(context.Background(), func(st *domain.State) error {
		st.Tickets[channelID] = &domain.Ticket{
			ID:             channelID,
			ChannelID:      channelID,
			UserID:         "user-" + channelID,
			Type:           domain.TypeGeneralInquiry,
			Status:         domain.TicketStatusOpen,
			CreatedAt:      origin,
			LastActivityAt: origin,
			RemindersSent:  remindersSent,
			Tags:           []string{},
			Timeline:       []domain.TimelineEntry{},
		}
		return nil
	}); err != nil {
		t.Fatalf("seed %s: %v", channelID, err)
	}
}

func TestTickRemindsAndClosesSameSweep(t *testing.T) {
	sweep, store := newSweepFixture(t)

	// Defaults: first reminder at 45 minutes, close at 180. A ticket idle
	// past both thresholds gets a final reminder and the close together.
	seedTicket(t, store, "chan-1", 200*time.Minute, 0)

	sweep.Tick(context.Background())

	ticket := store.Read().Tickets["chan-1"]
	if !ticket.IsClosed() {
		t.Fatalf("status = %s, want CLOSED", ticket.Status)
	}
	if ticket.RemindersSent != 1 {
		t.Fatalf("reminders = %d, want 1", ticket.RemindersSent)
	}
	if ticket.ClosedAt == nil {
		t.Fatal("ClosedAt not stamped")
	}
}

func TestTickSkipsReminderAtMax(t *testing.T) {
	sweep, store := newSweepFixture(t)

	seedTicket(t, store, "chan-1", 200*time.Minute, 2)

	sweep.Tick(context.Background())

	ticket := store.Read().Tickets["chan-1"]
	if ticket.RemindersSent != 2 {
		t.Fatalf("reminders = %d, want unchanged 2", ticket.RemindersSent)
	}
	if !ticket.IsClosed() {
		t.Fatal("ticket past the close threshold must still close")
	}
}

func TestTickLeavesActiveTicketsAlone(t *testing.T) {
	sweep, store := newSweepFixture(t)

	seedTicket(t, store, "chan-1", 10*time.Minute, 0)

	sweep.Tick(context.Background())

	ticket := store.Read().Tickets["chan-1"]
	if ticket.IsClosed() || ticket.RemindersSent != 0 {
		t.Fatalf("active ticket touched: %+v", ticket)
	}
}

func TestTickRespectsReminderGap(t *testing.T) {
	sweep, store := newSweepFixture(t)

	lastReminder := time.Now().Add(-10 * time.Minute)
	origin := time.Now().Add(-60 * time.Minute)
	if _, err := store.Commit(context.Background(), func(st *domain.State) error {
		st.Tickets["chan-1"] = &domain.Ticket{
			ID:             "chan-1",
			ChannelID:      "chan-1",
			UserID:         "u1",
			Type:           domain.TypeGeneralInquiry,
			Status:         domain.TicketStatusOpen,
			CreatedAt:      origin,
			LastActivityAt: origin,
			RemindersSent:  1,
			LastReminderAt: &lastReminder,
			Tags:           []string{},
			Timeline:       []domain.TimelineEntry{},
		}
		return nil
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	sweep.Tick(context.Background())

	if got := store.Read().Tickets["chan-1"].RemindersSent; got != 1 {
		t.Fatalf("reminders = %d, want 1; gap between reminders not honored", got)
	}
}

func TestCursorRotatesThroughBacklog(t *testing.T) {
	sweep, store := newSweepFixture(t)

	const backlog = 250
	base := time.Now().Add(-10 * time.Minute)
	if _, err := store.Commit(context.Background(), func(st *domain.State) error {
		for i := 0; i < backlog; i++ {
			channelID := fmt.Sprintf("chan-%04d", i)
			origin := base.Add(time.Duration(i) * time.Second)
			st.Tickets[channelID] = &domain.Ticket{
				ID:             channelID,
				ChannelID:      channelID,
				UserID:         "user-" + channelID,
				Type:           domain.TypeGeneralInquiry,
				Status:         domain.TicketStatusOpen,
				CreatedAt:      origin,
				LastActivityAt: origin,
				Tags:           []string{},
				Timeline:       []domain.TimelineEntry{},
			}
		}
		return nil
	}); err != nil {
		t.Fatalf("seed backlog: %v", err)
	}

	sweep.Tick(context.Background())
	if sweep.cursor != 200 {
		t.Fatalf("cursor after first tick = %d, want 200", sweep.cursor)
	}

	sweep.Tick(context.Background())
	if sweep.cursor != backlog {
		t.Fatalf("cursor after second tick = %d, want %d", sweep.cursor, backlog)
	}

	// Cursor wraps on the next sweep once the rotation completes.
	sweep.Tick(context.Background())
	if sweep.cursor != 200 {
		t.Fatalf("cursor after wrap = %d, want 200", sweep.cursor)
	}
}

func TestTickIgnoresClosedTickets(t *testing.T) {
	sweep, store := newSweepFixture(t)

	closedAt := time.Now().Add(-300 * time.Minute)
	if _, err := store.Commit(context.Background(), func(st *domain.State) error {
		st.Tickets["chan-1"] = &domain.Ticket{
			ID:             "chan-1",
			ChannelID:      "chan-1",
			UserID:         "u1",
			Type:           domain.TypeGeneralInquiry,
			Status:         domain.TicketStatusClosed,
			CreatedAt:      closedAt,
			LastActivityAt: closedAt,
			ClosedAt:       &closedAt,
			Tags:           []string{},
			Timeline:       []domain.TimelineEntry{},
		}
		return nil
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	sweep.Tick(context.Background())

	if got := store.Read().Tickets["chan-1"].RemindersSent; got != 0 {
		t.Fatalf("closed ticket received a reminder: %d", got)
	}
}
