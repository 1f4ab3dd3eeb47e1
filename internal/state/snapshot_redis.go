package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ticketdesk/ticketdesk/internal/config"
	"github.com/ticketdesk/ticketdesk/internal/domain"
)

// RedisSnapshotter stores the state document under a single Redis key.
type RedisSnapshotter struct {
	client *redis.Client
	key    string
}

// NewRedisSnapshotter connects a client and verifies reachability.
func NewRedisSnapshotter(ctx context.Context, cfg config.SnapshotConfig, logger *zap.Logger) (*RedisSnapshotter, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("reach redis: %w", err)
	}
	logger.Info("connected to redis snapshot store")
	return &RedisSnapshotter{client: client, key: cfg.RedisKey}, nil
}

// Load reads the snapshot key, returning (nil, nil) when absent.
func (r *RedisSnapshotter) Load(ctx context.Context) (*domain.State, error) {
	raw, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("read snapshot key: %w", err)
	}
	st := domain.NewState()
	if err := json.Unmarshal(raw, st); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return st, nil
}

// Save overwrites the snapshot key.
func (r *RedisSnapshotter) Save(ctx context.Context, st *domain.State) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := r.client.Set(ctx, r.key, raw, 0).Err(); err != nil {
		return fmt.Errorf("write snapshot key: %w", err)
	}
	return nil
}

// Ping checks client connectivity.
func (r *RedisSnapshotter) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the client.
func (r *RedisSnapshotter) Close() {
	if r != nil && r.client != nil {
		_ = r.client.Close()
	}
}
