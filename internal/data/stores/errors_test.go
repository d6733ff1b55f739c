package stores

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zurielbm/pp2ot-bridge/internal/core/kv"
	"github.com/zurielbm/pp2ot-bridge/internal/data/db"
)

func TestRecoverFromCorruption_MovesAllFiles(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, db.FileName)

	require.NoError(t, os.WriteFile(dbPath, []byte("corrupted data"), 0o644))
	require.NoError(t, os.WriteFile(dbPath+"-wal", []byte("wal"), 0o644))
	require.NoError(t, os.WriteFile(dbPath+"-shm", []byte("shm"), 0o644))

	require.NoError(t, RecoverFromCorruption(dir))

	for _, p := range []string{dbPath, dbPath + "-wal", dbPath + "-shm"} {
		_, err := os.Stat(p)
		assert.True(t, os.IsNotExist(err), "%s should be moved", filepath.Base(p))
	}

	backups, err := filepath.Glob(filepath.Join(dir, db.FileName+".corrupt.*"))
	require.NoError(t, err)
	require.Len(t, backups, 3)

	var main, wal, shm int
	for _, b := range backups {
		switch {
		case strings.HasSuffix(b, "-wal"):
			wal++
		case strings.HasSuffix(b, "-shm"):
			shm++
		default:
			main++
		}
	}
	assert.Equal(t, 1, main)
	assert.Equal(t, 1, wal)
	assert.Equal(t, 1, shm)
}

func TestRecoverFromCorruption_MissingFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, RecoverFromCorruption(dir))

	files, err := filepath.Glob(filepath.Join(dir, "*.corrupt.*"))
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestIsCorruptionError(t *testing.T) {
	assert.True(t, IsCorruptionError(errors.New("file is not a database (26)")))
	assert.True(t, IsCorruptionError(fmt.Errorf("open: %w", errors.New("database disk image is malformed"))))
	assert.False(t, IsCorruptionError(errors.New("disk full")))
}

func TestIsNotFoundError(t *testing.T) {
	assert.True(t, IsNotFoundError(kv.ErrNotFound))
	assert.False(t, IsNotFoundError(errors.New("other")))
}

func TestOpenWithRecovery_Healthy(t *testing.T) {
	dir := t.TempDir()

	database, err := OpenWithRecovery(dir, db.DefaultOpenOptions(), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	files, err := filepath.Glob(filepath.Join(dir, "*.corrupt.*"))
	require.NoError(t, err)
	assert.Empty(t, files)
}
