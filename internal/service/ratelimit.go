package service

import (
	"context"
	"time"

	"github.com/ticketdesk/ticketdesk/internal/domain"
	"github.com/ticketdesk/ticketdesk/internal/state"
	apperrors "github.com/ticketdesk/ticketdesk/pkg/util/errorutil"
)

const spamWindow = 24 * time.Hour

// RateLimiter gates ticket creation with a per-user daily count and a
// cooldown between opens. Its counters live inside the state aggregate so
// they travel with snapshots.
type RateLimiter struct {
	store *state.Store
	now   func() time.Time
}

// NewRateLimiter constructs the limiter.
func NewRateLimiter(store *state.Store) *RateLimiter {
	return &RateLimiter{store: store, now: time.Now}
}

// CheckAndRecord prunes the user's open history to the trailing 24 hours,
// rejects over-limit or in-cooldown attempts, and otherwise records the
// open as a single commit. Limit changes apply to the next check only.
func (r *RateLimiter) CheckAndRecord(ctx context.Context, userID string) error {
	now := r.now()
	_, err := r.store.Commit(ctx, func(st *domain.State) error {
		return applyRateLimit(st, userID, now)
	})
	return err
}

// applyRateLimit runs the limiter against a commit-in-progress snapshot so
// ticket creation can fold the check and the record into its own commit.
func applyRateLimit(st *domain.State, userID string, now time.Time) error {
	record := st.SpamTracker[userID]
	if record == nil {
		record = &domain.SpamRecord{}
		st.SpamTracker[userID] = record
	}

	pruned := record.Opened[:0]
	for _, opened := range record.Opened {
		if now.Sub(opened) < spamWindow {
			pruned = append(pruned, opened)
		}
	}
	record.Opened = pruned

	limit := st.Settings.Spam.DailyLimit
	if limit <= 0 {
		limit = 3
	}
	if len(record.Opened) >= limit {
		return apperrors.NewPolicyDenied(apperrors.CodeRateLimited,
			"daily ticket limit reached", map[string]any{"reason": "dailyLimitExceeded"})
	}

	cooldown := time.Duration(st.Settings.Spam.CooldownMinutes) * time.Minute
	if record.LastOpenedAt != nil && cooldown > 0 && now.Sub(*record.LastOpenedAt) < cooldown {
		return apperrors.NewPolicyDenied(apperrors.CodeRateLimited,
			"please wait before opening another ticket", map[string]any{"reason": "cooldownActive"})
	}

	opened := now
	record.Opened = append(record.Opened, opened)
	record.LastOpenedAt = &opened
	return nil
}
