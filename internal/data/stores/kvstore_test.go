package stores

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zurielbm/pp2ot-bridge/internal/core/kv"
	"github.com/zurielbm/pp2ot-bridge/internal/data/db"
)

func newTestKVStore(t *testing.T) *KVStore {
	t.Helper()
	database, err := db.Open(t.TempDir(), db.DefaultOpenOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return NewKVStore(database)
}

// withClock pins the store's clock and returns a function to advance it.
func withClock(s *KVStore) func(time.Duration) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	return func(d time.Duration) { now = now.Add(d) }
}

func TestKVStore_SetAndGet(t *testing.T) {
	ctx := context.Background()
	store := newTestKVStore(t)

	type draft struct {
		Name  string `json:"name"`
		Items int    `json:"items"`
	}

	require.NoError(t, store.Set(ctx, "draft:current", draft{Name: "Sunday", Items: 4}))

	var got draft
	require.NoError(t, store.Get(ctx, "draft:current", &got))
	assert.Equal(t, draft{Name: "Sunday", Items: 4}, got)
}

func TestKVStore_GetNotFound(t *testing.T) {
	ctx := context.Background()
	store := newTestKVStore(t)

	var v string
	err := store.Get(ctx, "nonexistent", &v)
	require.ErrorIs(t, err, kv.ErrNotFound)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.True(t, kv.IsNotFound(err))
}

func TestKVStore_SetOverwriteKeepsCreatedAt(t *testing.T) {
	ctx := context.Background()
	store := newTestKVStore(t)
	advance := withClock(store)

	require.NoError(t, store.Set(ctx, "key", "first"))
	first, err := store.GetRaw(ctx, "key")
	require.NoError(t, err)

	advance(time.Minute)
	require.NoError(t, store.Set(ctx, "key", "second"))

	var got string
	require.NoError(t, store.Get(ctx, "key", &got))
	assert.Equal(t, "second", got)

	second, err := store.GetRaw(ctx, "key")
	require.NoError(t, err)
	assert.True(t, first.CreatedAt.Equal(second.CreatedAt))
	assert.Equal(t, time.Minute, second.UpdatedAt.Sub(first.UpdatedAt))
}

func TestKVStore_Delete(t *testing.T) {
	ctx := context.Background()
	store := newTestKVStore(t)

	require.NoError(t, store.Set(ctx, "key", "value"))
	require.NoError(t, store.Delete(ctx, "key"))
	require.NoError(t, store.Delete(ctx, "key"), "deleting twice is fine")

	has, err := store.Has(ctx, "key")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestKVStore_ListKeys(t *testing.T) {
	ctx := context.Background()
	store := newTestKVStore(t)

	keys, err := store.ListKeys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)

	require.NoError(t, store.Set(ctx, "b", 1))
	require.NoError(t, store.Set(ctx, "a", 2))
	require.NoError(t, store.Set(ctx, "c", 3))

	keys, err = store.ListKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, keys)
}

func TestKVStore_TTL(t *testing.T) {
	ctx := context.Background()
	store := newTestKVStore(t)
	advance := withClock(store)

	require.NoError(t, store.SetTTL(ctx, "cache:playlists", []string{"Sunday"}, time.Minute))

	entry, err := store.GetRaw(ctx, "cache:playlists")
	require.NoError(t, err)
	require.NotNil(t, entry.ExpiresAt)

	advance(30 * time.Second)
	var got []string
	require.NoError(t, store.Get(ctx, "cache:playlists", &got))
	assert.Equal(t, []string{"Sunday"}, got)

	advance(31 * time.Second)
	err = store.Get(ctx, "cache:playlists", &got)
	require.ErrorIs(t, err, kv.ErrNotFound)

	has, err := store.Has(ctx, "cache:playlists")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestKVStore_ListKeysHidesExpired(t *testing.T) {
	ctx := context.Background()
	store := newTestKVStore(t)
	advance := withClock(store)

	require.NoError(t, store.Set(ctx, "permanent", "stays"))
	require.NoError(t, store.SetTTL(ctx, "expiring", "goes", time.Second))

	advance(2 * time.Second)
	keys, err := store.ListKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"permanent"}, keys)
}

func TestKVStore_SweepExpired(t *testing.T) {
	ctx := context.Background()
	store := newTestKVStore(t)
	advance := withClock(store)

	require.NoError(t, store.Set(ctx, "permanent", "stays"))
	require.NoError(t, store.SetTTL(ctx, "expired-1", "goes", time.Second))
	require.NoError(t, store.SetTTL(ctx, "expired-2", "goes", time.Second))
	require.NoError(t, store.SetTTL(ctx, "fresh", "stays", time.Hour))

	advance(time.Minute)

	n, err := store.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	var count int
	require.NoError(t, store.db.Conn().QueryRowContext(ctx, "SELECT COUNT(*) FROM kv_store").Scan(&count))
	assert.Equal(t, 2, count)
}

func TestKVStore_SetUnmarshalable(t *testing.T) {
	ctx := context.Background()
	store := newTestKVStore(t)

	err := store.Set(ctx, "bad", make(chan int))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "marshal")
}
