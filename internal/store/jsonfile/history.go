// Package jsonfile stores push history as a single JSON document on disk.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/zurielbm/pp2ot-bridge/internal/core/history"
)

// HistoryFile is the document written to history.json.
type HistoryFile struct {
	Records []history.Record `json:"records"`
}

// HistoryStore implements history.Store on a JSON file.
// The mutex guards a single process; concurrent CLI runs may lose a record.
type HistoryStore struct {
	path string
	mu   sync.RWMutex
}

var _ history.Store = (*HistoryStore)(nil)

func NewHistoryStore(path string) *HistoryStore {
	return &HistoryStore{path: path}
}

// List returns all push records, newest first.
func (s *HistoryStore) List(ctx context.Context) ([]history.Record, error) {
	file, err := s.read()
	return file.Records, err
}

// Get returns a record by ID or unique ID prefix. Returns ErrNotFound if
// nothing matches and an error if the prefix is ambiguous.
func (s *HistoryStore) Get(ctx context.Context, id string) (history.Record, error) {
	file, err := s.read()
	if err != nil {
		return history.Record{}, err
	}

	found := -1
	for i, rec := range file.Records {
		if rec.ID == id {
			return rec, nil
		}
		if !strings.HasPrefix(rec.ID, id) {
			continue
		}
		if found >= 0 {
			return history.Record{}, fmt.Errorf("id prefix %q is ambiguous", id)
		}
		found = i
	}

	if found < 0 {
		return history.Record{}, history.ErrNotFound
	}
	return file.Records[found], nil
}

// Save prepends record, pruning the oldest so at most maxEntries remain.
func (s *HistoryStore) Save(ctx context.Context, record history.Record, maxEntries int) error {
	return s.update(func(file *HistoryFile) {
		file.Records = append([]history.Record{record}, file.Records...)
		if maxEntries > 0 && len(file.Records) > maxEntries {
			file.Records = file.Records[:maxEntries]
		}
	})
}

func (s *HistoryStore) Clear(ctx context.Context) error {
	return s.update(func(file *HistoryFile) {
		file.Records = []history.Record{}
	})
}

// LastFailed returns the newest real push with a failed create.
func (s *HistoryStore) LastFailed(ctx context.Context) (history.Record, error) {
	records, err := s.List(ctx)
	if err != nil {
		return history.Record{}, err
	}
	for _, rec := range records {
		if !rec.DryRun && rec.HasFailures() {
			return rec, nil
		}
	}
	return history.Record{}, history.ErrNotFound
}

func (s *HistoryStore) read() (HistoryFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.decode()
}

func (s *HistoryStore) update(fn func(*HistoryFile)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.decode()
	if err != nil {
		return err
	}
	fn(&file)
	return s.encode(file)
}

// decode treats a missing or empty file as no history.
func (s *HistoryStore) decode() (HistoryFile, error) {
	var file HistoryFile

	data, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return file, nil
	case err != nil:
		return file, fmt.Errorf("read history: %w", err)
	case len(data) == 0:
		return file, nil
	}

	if err := json.Unmarshal(data, &file); err != nil {
		return HistoryFile{}, fmt.Errorf("decode %s: %w", s.path, err)
	}
	return file, nil
}

// encode replaces the file through a temp file and rename.
func (s *HistoryStore) encode(file HistoryFile) error {
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	return os.Rename(tmp.Name(), s.path)
}
