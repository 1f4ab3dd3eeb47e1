package state

import (
	"context"
	"errors"

	"github.com/ticketdesk/ticketdesk/internal/domain"
)

// MemorySnapshotter keeps the snapshot in memory. It backs tests and can
// be told to fail saves to exercise commit-abort paths.
type MemorySnapshotter struct {
	saved    *domain.State
	saves    int
	failNext error
}

// NewMemorySnapshotter starts with no snapshot.
func NewMemorySnapshotter() *MemorySnapshotter {
	return &MemorySnapshotter{}
}

// Load returns the last saved state, if any.
func (m *MemorySnapshotter) Load(_ context.Context) (*domain.State, error) {
	if m.saved == nil {
		return nil, nil
	}
	return m.saved.Clone(), nil
}

// Save stores a copy of the state, or fails once if FailNextSave was set.
func (m *MemorySnapshotter) Save(_ context.Context, st *domain.State) error {
	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		return err
	}
	m.saved = st.Clone()
	m.saves++
	return nil
}

// Ping always succeeds.
func (m *MemorySnapshotter) Ping(_ context.Context) error {
	return nil
}

// FailNextSave makes the next Save return the given error.
func (m *MemorySnapshotter) FailNextSave(msg string) {
	m.failNext = errors.New(msg)
}

// Saves reports how many saves succeeded.
func (m *MemorySnapshotter) Saves() int {
	return m.saves
}
