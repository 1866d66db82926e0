package storage

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crypto-dashboard/internal/config"
)

func newMiniredisStore(t *testing.T) (*RedisSnapshotStore, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisSnapshotStore(NewRedisDBFromClient(client))
	t.Cleanup(func() { _ = store.Close() })

	return store, mr
}

func newSQLiteStore(t *testing.T) *SQLiteSnapshotStore {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	store, err := NewSQLiteSnapshotStore(testContext(t), db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func TestSnapshotStores(t *testing.T) {
	redisStore, _ := newMiniredisStore(t)

	stores := []SnapshotStore{redisStore, newSQLiteStore(t)}

	for _, store := range stores {
		t.Run(store.Name(), func(t *testing.T) {
			ctx := testContext(t)
			key := SnapshotKey("userSettings", "demo@example.com")

			_, err := store.Load(ctx, key)
			assert.True(t, errors.Is(err, ErrNotFound), "missing key should be ErrNotFound, got %v", err)

			require.NoError(t, store.Save(ctx, key, []byte(`{"theme":"dark"}`)))
			require.NoError(t, store.Save(ctx, key, []byte(`{"language":"french"}`)))

			got, err := store.Load(ctx, key)
			require.NoError(t, err)
			assert.JSONEq(t, `{"language":"french"}`, string(got), "save overwrites the whole blob")

			require.NoError(t, store.Delete(ctx, key))
			_, err = store.Load(ctx, key)
			assert.True(t, errors.Is(err, ErrNotFound))
		})
	}
}

func TestSnapshotKey(t *testing.T) {
	assert.Equal(t, "userSettings:demo@example.com", SnapshotKey("userSettings", "demo@example.com"))
}

func TestRedisSnapshotStore_NoExpiry(t *testing.T) {
	store, mr := newMiniredisStore(t)
	ctx := testContext(t)

	require.NoError(t, store.Save(ctx, "userSettings:a@b.c", []byte(`{}`)))
	assert.Zero(t, mr.TTL("userSettings:a@b.c"))
}

func TestRedisSnapshotStore_Unreachable(t *testing.T) {
	store, mr := newMiniredisStore(t)
	mr.Close()

	_, err := store.Load(testContext(t), "userSettings:a@b.c")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestOpenSnapshotStore_FallsBackToSQLite(t *testing.T) {
	cfg := &config.Config{
		Database: config.DatabaseConfig{
			Redis: config.RedisConfig{Host: "127.0.0.1", Port: "1", MaxConnections: 1},
		},
		Snapshot: config.SnapshotConfig{Store: "redis", SQLitePath: ":memory:"},
	}

	store, err := OpenSnapshotStore(testContext(t), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	assert.Equal(t, "sqlite", store.Name())
}

func TestOpenSnapshotStore_Redis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cfg := &config.Config{
		Database: config.DatabaseConfig{
			Redis: config.RedisConfig{Host: mr.Host(), Port: mr.Port(), MaxConnections: 2},
		},
		Snapshot: config.SnapshotConfig{Store: "redis"},
	}

	store, err := OpenSnapshotStore(testContext(t), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	assert.Equal(t, "redis", store.Name())
}
