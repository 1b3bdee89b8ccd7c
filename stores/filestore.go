// Package stores provides backends for the splitauth user record store.
//
// FileStore is the default: the whole collection lives in one
// human-readable JSON array file that is rewritten wholesale on every
// mutation. For apps that already run a database there is a gorm-backed
// variant in the gorm sub-package.
package stores

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	sa "github.com/tabsplit/splitauth"
)

// FileStore keeps every user record in a single flat JSON file.
//
// A mutex serializes each load-modify-save cycle, so concurrent requests
// cannot clobber each other's writes. Writes go through a temp file and
// rename, so a failed save never leaves a truncated file behind for the next
// load to trip over.
type FileStore struct {
	path   string
	logger *slog.Logger
	mu     sync.Mutex
}

// NewFileStore returns a store backed by the JSON file at path. The file
// need not exist yet; a missing file reads as an empty store.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, logger: slog.Default()}
}

// SetLogger overrides the logger used for self-heal warnings.
func (s *FileStore) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// LoadAll returns the full collection. A missing backing file is an empty
// store; a corrupt or unreadable one is reset to an empty valid store and
// logged, never surfaced to the caller.
func (s *FileStore) LoadAll() ([]sa.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(), nil
}

// SaveAll replaces the full collection atomically.
func (s *FileStore) SaveAll(records []sa.UserRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(records)
}

// Update runs fn inside the single-writer critical section. If fn returns an
// error nothing is written.
func (s *FileStore) Update(fn func(records []sa.UserRecord) ([]sa.UserRecord, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.loadLocked()
	updated, err := fn(records)
	if err != nil {
		return err
	}
	return s.saveLocked(updated)
}

func (s *FileStore) loadLocked() []sa.UserRecord {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []sa.UserRecord{}
		}
		s.logger.Warn("user store unreadable, resetting to empty store",
			"path", s.path, "err", err)
		s.resetLocked()
		return []sa.UserRecord{}
	}

	var records []sa.UserRecord
	if err := json.Unmarshal(data, &records); err != nil {
		s.logger.Warn("user store corrupt, resetting to empty store",
			"path", s.path, "err", err)
		s.resetLocked()
		return []sa.UserRecord{}
	}
	return records
}

func (s *FileStore) saveLocked(records []sa.UserRecord) error {
	if records == nil {
		records = []sa.UserRecord{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding user store: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating store directory: %w", err)
		}
	}
	return writeAtomicFile(s.path, data)
}

// resetLocked self-heals a broken backing file. Best effort: if even the
// reset fails the next load will try again.
func (s *FileStore) resetLocked() {
	if err := s.saveLocked(nil); err != nil {
		s.logger.Warn("resetting user store failed", "path", s.path, "err", err)
	}
}
