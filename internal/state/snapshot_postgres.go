package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/ticketdesk/ticketdesk/internal/config"
	"github.com/ticketdesk/ticketdesk/internal/domain"
)

// PostgresSnapshotter stores the state document in a single-row JSONB
// table, upserted wholesale on every commit.
type PostgresSnapshotter struct {
	pool *pgxpool.Pool
}

const snapshotSchema = `
CREATE TABLE IF NOT EXISTS state_snapshot (
    id SMALLINT PRIMARY KEY CHECK (id = 1),
    document JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// NewPostgresSnapshotter connects a pool and bootstraps the snapshot
// table.
func NewPostgresSnapshotter(ctx context.Context, cfg config.SnapshotConfig, logger *zap.Logger) (*PostgresSnapshotter, error) {
	if cfg.PostgresDSN == "" {
		return nil, errors.New("postgres snapshot backend requires SNAPSHOT_POSTGRES_DSN")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	if _, err := pool.Exec(ctx, snapshotSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("bootstrap snapshot table: %w", err)
	}
	logger.Info("connected to postgres snapshot store")
	return &PostgresSnapshotter{pool: pool}, nil
}

// Load reads the snapshot row, returning (nil, nil) when absent.
func (p *PostgresSnapshotter) Load(ctx context.Context) (*domain.State, error) {
	var raw []byte
	err := p.pool.QueryRow(ctx, `SELECT document FROM state_snapshot WHERE id = 1`).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("read snapshot row: %w", err)
	}
	st := domain.NewState()
	if err := json.Unmarshal(raw, st); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return st, nil
}

// Save upserts the snapshot row.
func (p *PostgresSnapshotter) Save(ctx context.Context, st *domain.State) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = p.pool.Exec(ctx, `
		INSERT INTO state_snapshot (id, document, updated_at)
		VALUES (1, $1, $2)
		ON CONFLICT (id) DO UPDATE SET document = EXCLUDED.document, updated_at = EXCLUDED.updated_at`,
		raw, time.Now())
	if err != nil {
		return fmt.Errorf("write snapshot row: %w", err)
	}
	return nil
}

// Ping checks pool connectivity.
func (p *PostgresSnapshotter) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close releases pool resources.
func (p *PostgresSnapshotter) Close() {
	if p != nil && p.pool != nil {
		p.pool.Close()
	}
}
