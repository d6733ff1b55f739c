// Package stores holds the SQLite-backed implementations of the core store
// interfaces.
package stores

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/zurielbm/pp2ot-bridge/internal/core/kv"
	"github.com/zurielbm/pp2ot-bridge/internal/data/db"
)

const (
	kvGet = `SELECT key, value, expires_at, created_at, updated_at FROM kv_store WHERE key = ?`

	kvSet = `INSERT INTO kv_store (key, value, expires_at, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (key) DO UPDATE SET
    value = excluded.value,
    expires_at = excluded.expires_at,
    updated_at = excluded.updated_at`

	kvDelete = `DELETE FROM kv_store WHERE key = ?`

	kvListKeys = `SELECT key FROM kv_store
WHERE expires_at IS NULL OR expires_at >= ?
ORDER BY key`

	kvSweep = `DELETE FROM kv_store WHERE expires_at IS NOT NULL AND expires_at < ?`
)

// KVStore implements kv.KV using SQLite.
type KVStore struct {
	db  *db.DB
	now func() time.Time
}

var _ kv.KV = (*KVStore)(nil)

// NewKVStore creates a new SQLite-backed KV store.
func NewKVStore(db *db.DB) *KVStore {
	return &KVStore{db: db, now: time.Now}
}

// Get retrieves and deserializes a value by key. Missing and expired keys
// return an error wrapping kv.ErrNotFound; expired rows are deleted on read.
func (s *KVStore) Get(ctx context.Context, key string, dest any) error {
	entry, err := s.GetRaw(ctx, key)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(entry.Value, dest); err != nil {
		return fmt.Errorf("kv get %q unmarshal: %w", key, err)
	}
	return nil
}

// Set stores a value with no expiry.
func (s *KVStore) Set(ctx context.Context, key string, value any) error {
	return s.set(ctx, key, value, sql.NullInt64{})
}

// SetTTL stores a value that expires after the given duration.
func (s *KVStore) SetTTL(ctx context.Context, key string, value any, ttl time.Duration) error {
	expiresAt := s.now().Add(ttl).UnixNano()
	return s.set(ctx, key, value, sql.NullInt64{Int64: expiresAt, Valid: true})
}

// Delete removes a key. Deleting a missing key is not an error.
func (s *KVStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.Conn().ExecContext(ctx, kvDelete, key); err != nil {
		return fmt.Errorf("kv delete %q: %w", key, err)
	}
	return nil
}

// Has returns whether a live key exists.
func (s *KVStore) Has(ctx context.Context, key string) (bool, error) {
	_, err := s.GetRaw(ctx, key)
	if kv.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListKeys returns all non-expired keys in sorted order.
func (s *KVStore) ListKeys(ctx context.Context) ([]string, error) {
	rows, err := s.db.Conn().QueryContext(ctx, kvListKeys, s.now().UnixNano())
	if err != nil {
		return nil, fmt.Errorf("kv list keys: %w", err)
	}
	defer func() { _ = rows.Close() }()

	keys := []string{}
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("kv list keys: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("kv list keys: %w", err)
	}
	return keys, nil
}

// GetRaw retrieves a raw KV entry with metadata.
func (s *KVStore) GetRaw(ctx context.Context, key string) (kv.Entry, error) {
	var (
		entry     kv.Entry
		value     []byte
		expiresAt sql.NullInt64
		created   int64
		updated   int64
	)

	err := s.db.Conn().QueryRowContext(ctx, kvGet, key).
		Scan(&entry.Key, &value, &expiresAt, &created, &updated)
	if IsNotFoundError(err) {
		return kv.Entry{}, fmt.Errorf("kv get %q: %w", key, kv.ErrNotFound)
	}
	if err != nil {
		return kv.Entry{}, fmt.Errorf("kv get %q: %w", key, err)
	}

	entry.Value = json.RawMessage(value)
	entry.CreatedAt = time.Unix(0, created)
	entry.UpdatedAt = time.Unix(0, updated)
	if expiresAt.Valid {
		t := time.Unix(0, expiresAt.Int64)
		entry.ExpiresAt = &t
	}

	if entry.Expired(s.now()) {
		_ = s.Delete(ctx, key)
		return kv.Entry{}, fmt.Errorf("kv get %q: %w", key, kv.ErrNotFound)
	}

	return entry, nil
}

// SweepExpired deletes all entries whose TTL has passed and returns how many
// were removed.
func (s *KVStore) SweepExpired(ctx context.Context) (int64, error) {
	res, err := s.db.Conn().ExecContext(ctx, kvSweep, s.now().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("kv sweep expired: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("kv sweep expired: %w", err)
	}
	return n, nil
}

func (s *KVStore) set(ctx context.Context, key string, value any, expiresAt sql.NullInt64) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("kv set %q marshal: %w", key, err)
	}

	now := s.now().UnixNano()
	if _, err := s.db.Conn().ExecContext(ctx, kvSet, key, data, expiresAt, now, now); err != nil {
		return fmt.Errorf("kv set %q: %w", key, err)
	}
	return nil
}
