package statestore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"supwatch/internal/logger"
	"supwatch/internal/models"
)

// FileStore keeps the scan state as a single JSON file.
type FileStore struct {
	path   string
	logger *logger.Logger
}

// NewFileStore creates a file-backed store at the given path.
func NewFileStore(path string, log *logger.Logger) *FileStore {
	return &FileStore{path: path, logger: log}
}

// Load reads the snapshot. A missing or undecodable file yields a fresh
// empty state.
func (s *FileStore) Load(_ context.Context) models.ScanState {
	data, err := os.ReadFile(s.path)
	if err != nil {
		s.logger.Debug("no previous scan snapshot", "path", s.path, "error", err)

		return models.NewScanState()
	}

	var state models.ScanState
	if err := json.Unmarshal(data, &state); err != nil {
		s.logger.Warn("scan snapshot is corrupt, starting fresh", "path", s.path, "error", err)

		return models.NewScanState()
	}

	if state.Results == nil {
		state.Results = models.ScanResult{}
	}

	return state
}

// Save writes the snapshot atomically: the new content lands in a temp
// file that replaces the old one in a single rename.
func (s *FileStore) Save(_ context.Context, state models.ScanState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal scan state: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write scan state: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace scan state: %w", err)
	}

	s.logger.Info("saved scan state", "path", s.path)

	return nil
}

// Close is a no-op for the file backend.
func (s *FileStore) Close() error { return nil }
