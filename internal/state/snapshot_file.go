package state

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ticketdesk/ticketdesk/internal/domain"
)

// FileSnapshotter stores the state document as one JSON file, rewritten
// wholesale on every commit. Writes go through a temp file and rename so
// a crash mid-write never leaves a torn document.
type FileSnapshotter struct {
	path string
}

// NewFileSnapshotter creates the parent directory if needed.
func NewFileSnapshotter(path string) (*FileSnapshotter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	return &FileSnapshotter{path: path}, nil
}

// Load reads the snapshot document, returning (nil, nil) when absent.
func (f *FileSnapshotter) Load(_ context.Context) (*domain.State, error) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	st := domain.NewState()
	if err := json.Unmarshal(raw, st); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return st, nil
}

// Save overwrites the snapshot document atomically.
func (f *FileSnapshotter) Save(_ context.Context, st *domain.State) error {
	raw, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("swap snapshot: %w", err)
	}
	return nil
}

// Ping verifies the snapshot directory is still reachable.
func (f *FileSnapshotter) Ping(_ context.Context) error {
	if _, err := os.Stat(filepath.Dir(f.path)); err != nil {
		return fmt.Errorf("snapshot dir unavailable: %w", err)
	}
	return nil
}
