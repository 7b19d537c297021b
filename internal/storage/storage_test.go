package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *SQLiteKV {
	t.Helper()
	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSQLiteKV(db)
}

func TestOpen_CreatesDirAndIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "marquee.db")

	db, err := Open(path)
	require.NoError(t, err)
	kv := NewSQLiteKV(db)
	require.NoError(t, kv.Set(context.Background(), "k", []byte("v")))
	require.NoError(t, db.Close())

	_, err = os.Stat(path)
	require.NoError(t, err)

	db, err = Open(path)
	require.NoError(t, err, "schema applies twice")
	defer func() { _ = db.Close() }()

	got, ok, err := NewSQLiteKV(db).Get(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), got)
}

func TestSQLiteKV(t *testing.T) {
	ctx := context.Background()
	kv := setupTestDB(t)

	_, ok, err := kv.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kv.Set(ctx, "profile", []byte(`{"name":"a"}`)))
	require.NoError(t, kv.Set(ctx, "profile", []byte(`{"name":"b"}`)))

	got, ok, err := kv.Get(ctx, "profile")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"name":"b"}`, string(got), "last write wins")
}

func TestMemoryKV_CopiesValues(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()

	value := []byte("abc")
	require.NoError(t, kv.Set(ctx, "k", value))
	value[0] = 'x'

	got, ok, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "abc", string(got))

	got[0] = 'y'
	again, _, _ := kv.Get(ctx, "k")
	assert.Equal(t, "abc", string(again))

	_, ok, err = kv.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMetadataCache_Expiry(t *testing.T) {
	ctx := context.Background()
	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewMetadataCache(db)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "movie:603", []byte(`{"id":603}`), time.Minute))

	got, ok, err := c.Get(ctx, "movie:603")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"id":603}`, string(got))

	now = now.Add(time.Minute)
	_, ok, err = c.Get(ctx, "movie:603")
	require.NoError(t, err)
	assert.False(t, ok, "expired at exactly ttl")

	n, err := c.Prune(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestNewRedis_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := NewRedis(ctx, "127.0.0.1:1", "", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect redis")
}
