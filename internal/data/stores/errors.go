package stores

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/zurielbm/pp2ot-bridge/internal/data/db"
)

var corruptionMessages = []string{
	"database disk image is malformed",
	"file is not a database",
	"database corruption",
}

// IsCorruptionError reports whether err means the database file is unusable.
func IsCorruptionError(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CORRUPT, sqlite3.SQLITE_NOTADB, sqlite3.SQLITE_CANTOPEN:
			return true
		}
	}

	msg := err.Error()
	for _, m := range corruptionMessages {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// IsNotFoundError reports whether err is a missing row.
func IsNotFoundError(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// RecoverFromCorruption renames the database and its WAL and SHM files to
// <name>.corrupt.<timestamp> so the next open starts fresh. The sidecar files
// must go too or SQLite would replay them into the new database.
func RecoverFromCorruption(dataDir string) error {
	dbPath := filepath.Join(dataDir, db.FileName)
	backup := filepath.Join(dataDir, db.FileName+".corrupt."+time.Now().Format("20060102-150405"))

	for _, suffix := range []string{"", "-wal", "-shm"} {
		err := os.Rename(dbPath+suffix, backup+suffix)
		switch {
		case err == nil, os.IsNotExist(err):
			continue
		case suffix == "":
			return fmt.Errorf("back up corrupt database: %w", err)
		default:
			if rmErr := os.Remove(dbPath + suffix); rmErr != nil && !os.IsNotExist(rmErr) {
				return fmt.Errorf("back up or remove %s file: %w", strings.TrimPrefix(suffix, "-"), err)
			}
		}
	}
	return nil
}

// OpenWithRecovery opens the database and, if the file turns out to be
// corrupt, moves it aside and opens a fresh one. Only the draft lives in the
// database, so starting over loses at most one unsent draft.
func OpenWithRecovery(dataDir string, opts db.OpenOptions, log zerolog.Logger) (*db.DB, error) {
	database, err := db.Open(dataDir, opts)
	if err == nil {
		return database, nil
	}
	if !IsCorruptionError(err) {
		return nil, err
	}

	log.Warn().Err(err).Str("data_dir", dataDir).Msg("database corrupt, moving it aside")
	if rerr := RecoverFromCorruption(dataDir); rerr != nil {
		return nil, fmt.Errorf("%w (recovery failed: %w)", err, rerr)
	}
	return db.Open(dataDir, opts)
}
