package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/ticketdesk/ticketdesk/internal/domain"
	"github.com/ticketdesk/ticketdesk/internal/state"
	apperrors "github.com/ticketdesk/ticketdesk/pkg/util/errorutil"
)

const adminRole = "role-admin"

var (
	member = Actor{ID: "member-1"}
	staff  = Actor{ID: "staff-1", Roles: []string{adminRole}}
)

func newTestStore(t *testing.T) *state.Store {
	t.Helper()
	store, err := state.NewStore(context.Background(), state.NewMemorySnapshotter(), zap.NewNop(), nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	role := adminRole
	if _, err := store.Commit(context.Background(), func(st *domain.State) error {
		st.Settings.AdminRoleID = &role
		return nil
	}); err != nil {
		t.Fatalf("seed settings: %v", err)
	}
	return store
}

func newTestTicketService(t *testing.T) (*TicketService, *state.Store) {
	t.Helper()
	store := newTestStore(t)
	svc := NewTicketService(store, nil)
	return svc, store
}

// advance pins the service clock and moves it forward per call so rate
// limit cooldowns never interfere with unrelated cases.
func advance(svc *TicketService, step time.Duration) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	calls := 0
	svc.now = func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * step)
	}
}

func mustCreate(t *testing.T, svc *TicketService, actor Actor, channelID string) *domain.Ticket {
	t.Helper()
	ticket, err := svc.Create(context.Background(), actor, TicketCreateInput{
		ChannelID: channelID,
		Type:      domain.TypeGeneralInquiry,
		Details:   "help please",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return ticket
}

func TestCreateOpensTicket(t *testing.T) {
	svc, store := newTestTicketService(t)
	advance(svc, time.Minute)

	ticket := mustCreate(t, svc, member, "chan-1")

	if ticket.Status != domain.TicketStatusOpen {
		t.Fatalf("status = %s, want OPEN", ticket.Status)
	}
	if ticket.UserID != member.ID {
		t.Fatalf("user = %s, want %s", ticket.UserID, member.ID)
	}
	if len(ticket.Timeline) != 1 || ticket.Timeline[0].Action != domain.ActionOpened {
		t.Fatalf("timeline = %+v, want single OPENED entry", ticket.Timeline)
	}
	if store.Read().SpamTracker[member.ID] == nil {
		t.Fatal("create did not record the open in the spam tracker")
	}
}

func TestCreateRejectsDuplicateOpenTicket(t *testing.T) {
	svc, _ := newTestTicketService(t)
	advance(svc, time.Hour)

	mustCreate(t, svc, member, "chan-1")
	_, err := svc.Create(context.Background(), member, TicketCreateInput{
		ChannelID: "chan-2",
		Type:      domain.TypeTechnicalHelp,
	})
	if !apperrors.IsCode(err, apperrors.CodeDuplicateOpen) {
		t.Fatalf("error = %v, want %s", err, apperrors.CodeDuplicateOpen)
	}
}

func TestCreateAllowedAgainAfterClose(t *testing.T) {
	svc, _ := newTestTicketService(t)
	advance(svc, time.Hour)

	mustCreate(t, svc, member, "chan-1")
	if _, err := svc.Close(context.Background(), &member, "chan-1", "resolved"); err != nil {
		t.Fatalf("Close: %v", err)
	}
	mustCreate(t, svc, member, "chan-2")
}

func TestCreateRejectsDisabledType(t *testing.T) {
	svc, store := newTestTicketService(t)
	advance(svc, time.Hour)

	if _, err := store.Commit(context.Background(), func(st *domain.State) error {
		st.Settings.EnabledTypes = []domain.TicketType{domain.TypeComplaint}
		return nil
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	_, err := svc.Create(context.Background(), member, TicketCreateInput{
		ChannelID: "chan-1",
		Type:      domain.TypeGeneralInquiry,
	})
	if !apperrors.IsCode(err, apperrors.CodeValidationFailed) {
		t.Fatalf("error = %v, want %s", err, apperrors.CodeValidationFailed)
	}
}

func TestCreateRejectsBannedUser(t *testing.T) {
	svc, store := newTestTicketService(t)
	advance(svc, time.Hour)

	if _, err := store.Commit(context.Background(), func(st *domain.State) error {
		st.BannedUsers[member.ID] = domain.BanRecord{Reason: "spam", BannedBy: staff.ID}
		return nil
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	_, err := svc.Create(context.Background(), member, TicketCreateInput{
		ChannelID: "chan-1",
		Type:      domain.TypeGeneralInquiry,
	})
	if !apperrors.IsCode(err, apperrors.CodeBanned) {
		t.Fatalf("error = %v, want %s", err, apperrors.CodeBanned)
	}
}

func TestClaimConflictKeepsFirstClaimant(t *testing.T) {
	svc, store := newTestTicketService(t)
	advance(svc, time.Minute)
	mustCreate(t, svc, member, "chan-1")

	other := Actor{ID: "staff-2", Roles: []string{adminRole}}
	if _, err := svc.Claim(context.Background(), staff, "chan-1"); err != nil {
		t.Fatalf("first claim: %v", err)
	}
	_, err := svc.Claim(context.Background(), other, "chan-1")
	if !apperrors.IsCode(err, apperrors.CodeClaimConflict) {
		t.Fatalf("error = %v, want %s", err, apperrors.CodeClaimConflict)
	}

	ticket := store.Read().Tickets["chan-1"]
	if ticket.AssignedTo == nil || *ticket.AssignedTo != staff.ID {
		t.Fatalf("assignee = %v, want %s", ticket.AssignedTo, staff.ID)
	}
}

func TestClaimIsIdempotentForHolder(t *testing.T) {
	svc, _ := newTestTicketService(t)
	advance(svc, time.Minute)
	mustCreate(t, svc, member, "chan-1")

	if _, err := svc.Claim(context.Background(), staff, "chan-1"); err != nil {
		t.Fatalf("first claim: %v", err)
	}
	ticket, err := svc.Claim(context.Background(), staff, "chan-1")
	if err != nil {
		t.Fatalf("re-claim by holder: %v", err)
	}
	if ticket.AssignedTo == nil || *ticket.AssignedTo != staff.ID {
		t.Fatalf("assignee = %v, want %s", ticket.AssignedTo, staff.ID)
	}
}

func TestUnclaimByAssigneeWithoutRoles(t *testing.T) {
	svc, store := newTestTicketService(t)
	advance(svc, time.Minute)
	mustCreate(t, svc, member, "chan-1")

	if _, err := svc.Claim(context.Background(), staff, "chan-1"); err != nil {
		t.Fatalf("claim: %v", err)
	}
	// The assignee keeps unclaim rights even if their roles lapse.
	ticket, err := svc.Unclaim(context.Background(), Actor{ID: staff.ID}, "chan-1")
	if err != nil {
		t.Fatalf("Unclaim: %v", err)
	}
	if ticket.AssignedTo != nil {
		t.Fatalf("assignee = %v, want nil", *ticket.AssignedTo)
	}
	if store.Read().Tickets["chan-1"].AssignedTo != nil {
		t.Fatal("unclaim not committed")
	}
}

func TestTransferOverridesAssignee(t *testing.T) {
	svc, _ := newTestTicketService(t)
	advance(svc, time.Minute)
	mustCreate(t, svc, member, "chan-1")

	if _, err := svc.Claim(context.Background(), staff, "chan-1"); err != nil {
		t.Fatalf("claim: %v", err)
	}
	ticket, err := svc.Transfer(context.Background(), staff, "chan-1", "staff-9")
	if err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if ticket.AssignedTo == nil || *ticket.AssignedTo != "staff-9" {
		t.Fatalf("assignee = %v, want staff-9", ticket.AssignedTo)
	}
}

func TestChangeStatusRejectsClosedTarget(t *testing.T) {
	svc, _ := newTestTicketService(t)
	advance(svc, time.Minute)
	mustCreate(t, svc, member, "chan-1")

	_, err := svc.ChangeStatus(context.Background(), staff, "chan-1", domain.TicketStatusClosed)
	if !apperrors.IsCode(err, apperrors.CodeValidationFailed) {
		t.Fatalf("error = %v, want %s", err, apperrors.CodeValidationFailed)
	}
}

func TestChangeStatusOnClosedTicketRejected(t *testing.T) {
	svc, _ := newTestTicketService(t)
	advance(svc, time.Minute)
	mustCreate(t, svc, member, "chan-1")

	if _, err := svc.Close(context.Background(), &staff, "chan-1", "done"); err != nil {
		t.Fatalf("Close: %v", err)
	}
	_, err := svc.ChangeStatus(context.Background(), staff, "chan-1", domain.TicketStatusFrozen)
	if !apperrors.IsCode(err, apperrors.CodeValidationFailed) {
		t.Fatalf("error = %v, want %s", err, apperrors.CodeValidationFailed)
	}
}

func TestChangeStatusRequiresAccess(t *testing.T) {
	svc, _ := newTestTicketService(t)
	advance(svc, time.Minute)
	mustCreate(t, svc, member, "chan-1")

	_, err := svc.ChangeStatus(context.Background(), member, "chan-1", domain.TicketStatusProcessing)
	if !apperrors.IsCode(err, apperrors.CodeAccessDenied) {
		t.Fatalf("error = %v, want %s", err, apperrors.CodeAccessDenied)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	svc, store := newTestTicketService(t)
	advance(svc, time.Minute)
	mustCreate(t, svc, member, "chan-1")

	first, err := svc.Close(context.Background(), &staff, "chan-1", "resolved")
	if err != nil {
		t.Fatalf("Close: %v", err)
	}
	closedAt := *first.ClosedAt
	entries := len(first.Timeline)

	second, err := svc.Close(context.Background(), &staff, "chan-1", "resolved again")
	if err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if !second.ClosedAt.Equal(closedAt) {
		t.Fatalf("ClosedAt changed on repeat close: %v -> %v", closedAt, second.ClosedAt)
	}
	if len(second.Timeline) != entries {
		t.Fatalf("timeline grew on repeat close: %d -> %d", entries, len(second.Timeline))
	}
	if got := store.Read().Tickets["chan-1"].Status; got != domain.TicketStatusClosed {
		t.Fatalf("status = %s, want CLOSED", got)
	}
}

func TestCloseByOwnerWithoutRoles(t *testing.T) {
	svc, _ := newTestTicketService(t)
	advance(svc, time.Minute)
	mustCreate(t, svc, member, "chan-1")

	ticket, err := svc.Close(context.Background(), &member, "chan-1", "never mind")
	if err != nil {
		t.Fatalf("Close by owner: %v", err)
	}
	if !ticket.IsClosed() {
		t.Fatal("ticket not closed")
	}
}

func TestCloseByStrangerDenied(t *testing.T) {
	svc, _ := newTestTicketService(t)
	advance(svc, time.Minute)
	mustCreate(t, svc, member, "chan-1")

	stranger := Actor{ID: "member-2"}
	_, err := svc.Close(context.Background(), &stranger, "chan-1", "drive-by")
	if !apperrors.IsCode(err, apperrors.CodeAccessDenied) {
		t.Fatalf("error = %v, want %s", err, apperrors.CodeAccessDenied)
	}
}

func TestTagAddRemoveIdempotent(t *testing.T) {
	svc, _ := newTestTicketService(t)
	advance(svc, time.Minute)
	mustCreate(t, svc, member, "chan-1")

	if _, err := svc.AddTag(context.Background(), staff, "chan-1", "vip"); err != nil {
		t.Fatalf("AddTag: %v", err)
	}
	ticket, err := svc.AddTag(context.Background(), staff, "chan-1", "vip")
	if err != nil {
		t.Fatalf("repeat AddTag: %v", err)
	}
	if len(ticket.Tags) != 1 {
		t.Fatalf("tags = %v, want one entry", ticket.Tags)
	}

	if _, err := svc.RemoveTag(context.Background(), staff, "chan-1", "vip"); err != nil {
		t.Fatalf("RemoveTag: %v", err)
	}
	ticket, err = svc.RemoveTag(context.Background(), staff, "chan-1", "vip")
	if err != nil {
		t.Fatalf("repeat RemoveTag: %v", err)
	}
	if len(ticket.Tags) != 0 {
		t.Fatalf("tags = %v, want empty", ticket.Tags)
	}
}

func TestRecordActivityRefreshesClock(t *testing.T) {
	svc, store := newTestTicketService(t)
	advance(svc, time.Minute)
	mustCreate(t, svc, member, "chan-1")

	before := store.Read().Tickets["chan-1"].LastActivityAt
	if err := svc.RecordActivity(context.Background(), "chan-1"); err != nil {
		t.Fatalf("RecordActivity: %v", err)
	}
	after := store.Read().Tickets["chan-1"].LastActivityAt
	if !after.After(before) {
		t.Fatalf("LastActivityAt not advanced: %v -> %v", before, after)
	}
	if entries := len(store.Read().Tickets["chan-1"].Timeline); entries != 1 {
		t.Fatalf("activity must not append timeline entries, have %d", entries)
	}
}

func TestInternalNoteStaffOnly(t *testing.T) {
	svc, store := newTestTicketService(t)
	advance(svc, time.Minute)
	mustCreate(t, svc, member, "chan-1")

	if _, err := svc.AddInternalNote(context.Background(), member, "chan-1", "sneaky"); !apperrors.IsCode(err, apperrors.CodeAccessDenied) {
		t.Fatalf("error = %v, want %s", err, apperrors.CodeAccessDenied)
	}
	ticket, err := svc.AddInternalNote(context.Background(), staff, "chan-1", "checked billing history")
	if err != nil {
		t.Fatalf("AddInternalNote: %v", err)
	}
	last := ticket.Timeline[len(ticket.Timeline)-1]
	if last.Action != domain.ActionInternalNote || last.Note != "checked billing history" {
		t.Fatalf("timeline tail = %+v", last)
	}
	if len(store.Read().Tickets["chan-1"].Timeline) != 2 {
		t.Fatal("note not committed")
	}
}

func TestGetUnknownChannel(t *testing.T) {
	svc, _ := newTestTicketService(t)

	_, err := svc.Get("missing")
	if !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Fatalf("error = %v, want %s", err, apperrors.CodeNotFound)
	}
}
