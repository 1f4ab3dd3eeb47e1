package state

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/ticketdesk/ticketdesk/internal/domain"
	"github.com/ticketdesk/ticketdesk/internal/observability"
	apperrors "github.com/ticketdesk/ticketdesk/pkg/util/errorutil"
)

// Snapshotter persists the whole aggregate as one document. Load returns
// (nil, nil) when no snapshot exists yet.
type Snapshotter interface {
	Load(ctx context.Context) (*domain.State, error)
	Save(ctx context.Context, st *domain.State) error
	Ping(ctx context.Context) error
}

// Store owns the committed state snapshot and serializes every mutation
// through a copy-mutate-persist-swap cycle. Commits never interleave: the
// store behaves as a single-writer log of whole-state updates.
type Store struct {
	mu        sync.RWMutex
	current   *domain.State
	snapshots Snapshotter
	logger    *zap.Logger
	metrics   *observability.Metrics
}

// NewStore loads the last snapshot (or starts fresh) and returns a ready
// store.
func NewStore(ctx context.Context, snapshots Snapshotter, logger *zap.Logger, metrics *observability.Metrics) (*Store, error) {
	loaded, err := snapshots.Load(ctx)
	if err != nil {
		return nil, err
	}
	if loaded == nil {
		loaded = domain.NewState()
		logger.Info("no state snapshot found, starting fresh")
	} else {
		loaded.Normalize()
		logger.Info("state snapshot loaded",
			zap.Int("tickets", len(loaded.Tickets)),
			zap.Int("dashboards", len(loaded.Dashboards)))
	}
	return &Store{
		current:   loaded,
		snapshots: snapshots,
		logger:    logger,
		metrics:   metrics,
	}, nil
}

// Read returns the current committed snapshot. Callers must not mutate
// the returned value; all mutation flows through Commit.
func (s *Store) Read() *domain.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Commit applies mutate to a deep copy of the current state, persists the
// copy, and swaps it in as the new current state. A mutator error aborts
// the commit with no state change; a persistence error does the same and
// is surfaced as a PersistenceFailure, leaving the previously committed
// state authoritative.
func (s *Store) Commit(ctx context.Context, mutate func(st *domain.State) error) (*domain.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}
	if err := s.snapshots.Save(ctx, next); err != nil {
		s.metrics.RecordCommitFailure()
		s.logger.Error("snapshot persist failed, commit aborted", zap.Error(err))
		return nil, apperrors.NewPersistenceFailure(err)
	}
	s.current = next
	s.metrics.RecordCommit()
	return next, nil
}
