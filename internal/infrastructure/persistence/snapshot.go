// Package persistence stores the application state as a JSON snapshot on
// disk and keeps an append-only purchase audit trail in SQLite.
package persistence

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/xolodev/xolo-go/internal/domain/state"
	"github.com/xolodev/xolo-go/internal/infrastructure/observability/logging"
)

// SnapshotStore reads and writes the state snapshot at a fixed path.
type SnapshotStore struct {
	path   string
	logger *logging.ChanneledLogger
}

// NewSnapshotStore creates a store for the given snapshot path.
func NewSnapshotStore(path string, logger *logging.ChanneledLogger) *SnapshotStore {
	return &SnapshotStore{path: path, logger: logger}
}

// Path returns the snapshot file path.
func (s *SnapshotStore) Path() string { return s.path }

// Load reads the snapshot and returns the restored state. A missing file
// yields fresh defaults. An unreadable or unparseable file is quarantined to
// <path>.backup and fresh defaults are returned, so a corrupt snapshot never
// blocks startup.
func (s *SnapshotStore) Load() *state.ApplicationState {
	start := time.Now()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Persist().Info("No snapshot found, starting fresh", "path", s.path)
			return state.NewApplicationState()
		}
		s.logger.Persist().Error("Snapshot read failed", "error", err.Error(), "path", s.path)
		return s.quarantine()
	}

	restored := state.NewApplicationState()
	if err := json.Unmarshal(data, restored); err != nil {
		s.logger.Persist().Error("Snapshot is corrupt", "error", err.Error(), "path", s.path)
		return s.quarantine()
	}

	restored.Normalize()
	s.logger.Persist().Info("Snapshot restored",
		"path", s.path,
		"ownedItems", len(restored.Inventory.BoughtItems),
		"duration", time.Since(start))
	return restored
}

// Save writes the snapshot atomically via a temp file rename. Render bytes
// are excluded by the state's own JSON tags and are never written to disk.
// Failures are logged and returned, never fatal to the caller.
func (s *SnapshotStore) Save(st *state.ApplicationState) error {
	start := time.Now()

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		s.logger.Persist().Error("Snapshot encode failed", "error", err.Error())
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		s.logger.Persist().Error("Snapshot write failed", "error", err.Error(), "path", tmp)
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		s.logger.Persist().Error("Snapshot rename failed", "error", err.Error(), "path", s.path)
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}

	s.logger.Persist().Debug("Snapshot saved", "path", s.path, "bytes", len(data), "duration", time.Since(start))
	return nil
}

// SaveState is the fire-and-forget form handlers use mid-exchange. The error
// is already logged by Save; an exchange never fails over a persistence miss.
func (s *SnapshotStore) SaveState(st *state.ApplicationState) {
	_ = s.Save(st)
}

// quarantine moves a bad snapshot aside so the next save starts clean, then
// returns fresh defaults.
func (s *SnapshotStore) quarantine() *state.ApplicationState {
	backup := s.path + ".backup"
	if err := os.Rename(s.path, backup); err != nil {
		s.logger.Persist().Error("Snapshot quarantine failed", "error", err.Error(), "path", s.path)
		// Last resort so a poisoned file cannot wedge every startup.
		if err := os.Remove(s.path); err != nil {
			s.logger.Persist().Error("Snapshot removal failed", "error", err.Error(), "path", s.path)
		}
	} else {
		s.logger.Persist().Warn("Corrupt snapshot moved aside", "path", s.path, "backup", backup)
	}
	return state.NewApplicationState()
}
