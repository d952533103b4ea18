// Package statestore persists the last-scan snapshot: the single record
// that makes each scan incremental.
package statestore

import (
	"context"

	"supwatch/internal/config"
	"supwatch/internal/logger"
	"supwatch/internal/models"
)

// Store loads and persists the scan state snapshot. Load fails soft:
// missing or corrupt storage yields a fresh empty state rather than an
// error, giving first-run semantics. Save replaces the whole snapshot;
// a subsequent Load never observes a partial write.
type Store interface {
	Load(ctx context.Context) models.ScanState
	Save(ctx context.Context, state models.ScanState) error
	Close() error
}

// Open creates the store for the configured backend.
func Open(ctx context.Context, cfg config.StateConfig, log *logger.Logger) (Store, error) {
	if cfg.Backend == config.StateBackendSQLite {
		return NewSQLiteStore(ctx, cfg.Path, log)
	}

	return NewFileStore(cfg.Path, log), nil
}
