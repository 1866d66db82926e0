package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/crypto-dashboard/internal/config"
	"github.com/crypto-dashboard/internal/logging"
)

// SnapshotStore keeps one opaque JSON blob per key. Writes overwrite the
// whole blob; there is no merge.
type SnapshotStore interface {
	Save(ctx context.Context, key string, data []byte) error
	// Load returns ErrNotFound when nothing was saved under key
	Load(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Name() string
	Close() error
}

// SnapshotKey builds the per-user snapshot key, e.g. "userSettings:demo@example.com"
func SnapshotKey(prefix, email string) string {
	return fmt.Sprintf("%s:%s", prefix, email)
}

// RedisSnapshotStore stores snapshots as plain Redis strings without expiry
type RedisSnapshotStore struct {
	db *RedisDB
}

// NewRedisSnapshotStore creates a snapshot store on top of db
func NewRedisSnapshotStore(db *RedisDB) *RedisSnapshotStore {
	return &RedisSnapshotStore{db: db}
}

// Name identifies the store in logs
func (s *RedisSnapshotStore) Name() string { return "redis" }

// Save overwrites the snapshot under key
func (s *RedisSnapshotStore) Save(ctx context.Context, key string, data []byte) error {
	if err := s.db.Client().Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save snapshot %s: %w", key, err)
	}
	return nil
}

// Load returns the snapshot under key
func (s *RedisSnapshotStore) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := s.db.Client().Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("snapshot %s: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load snapshot %s: %w", key, err)
	}
	return data, nil
}

// Delete removes the snapshot under key
func (s *RedisSnapshotStore) Delete(ctx context.Context, key string) error {
	if err := s.db.Client().Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete snapshot %s: %w", key, err)
	}
	return nil
}

// Close closes the Redis connection
func (s *RedisSnapshotStore) Close() error {
	return s.db.Close()
}

// OpenSnapshotStore opens the configured store. A Redis store that cannot be
// reached falls back to SQLite.
func OpenSnapshotStore(ctx context.Context, cfg *config.Config) (SnapshotStore, error) {
	if cfg.Snapshot.Store == "redis" {
		rdb, err := NewRedisDB(ctx, &cfg.Database.Redis)
		if err == nil {
			return NewRedisSnapshotStore(rdb), nil
		}
		logging.WithError(err).
			WithField("addr", cfg.Database.Redis.Addr()).
			Warn("Redis unavailable for snapshots, using SQLite")
	}

	return OpenSQLiteSnapshotStore(ctx, cfg.Snapshot.SQLitePath)
}
