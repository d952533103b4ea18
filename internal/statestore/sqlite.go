package statestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"supwatch/internal/logger"
	"supwatch/internal/models"
)

// SQLiteStore keeps the scan state as a single row in a SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewSQLiteStore opens (creating if needed) the database file and
// ensures the schema exists.
func NewSQLiteStore(ctx context.Context, dataSourceName string, log *logger.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("%s?_pragma=journal_mode(WAL)", dataSourceName))
	if err != nil {
		return nil, fmt.Errorf("unable to open sqlite database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()

		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	store := &SQLiteStore{db: db, logger: log}
	if err := store.migrate(ctx); err != nil {
		db.Close()

		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) migrate(ctx context.Context) error {
	schema := `
CREATE TABLE IF NOT EXISTS scan_state (
	id        INTEGER PRIMARY KEY CHECK (id = 1),
	last_scan TEXT,
	results   TEXT NOT NULL
);
`
	_, err := s.db.ExecContext(ctx, schema)

	return err
}

// Load reads the single snapshot row. A missing row or undecodable
// contents yield a fresh empty state.
func (s *SQLiteStore) Load(ctx context.Context) models.ScanState {
	var (
		lastScan sql.NullString
		results  string
	)

	query := `SELECT last_scan, results FROM scan_state WHERE id = 1`

	err := s.db.QueryRowContext(ctx, query).Scan(&lastScan, &results)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("failed to read scan snapshot, starting fresh", "error", err)
		}

		return models.NewScanState()
	}

	state := models.NewScanState()

	if lastScan.Valid {
		ts, err := time.Parse(time.RFC3339Nano, lastScan.String)
		if err != nil {
			s.logger.Warn("scan snapshot timestamp is corrupt, starting fresh", "error", err)

			return models.NewScanState()
		}

		state.LastScan = &ts
	}

	if err := json.Unmarshal([]byte(results), &state.Results); err != nil {
		s.logger.Warn("scan snapshot results are corrupt, starting fresh", "error", err)

		return models.NewScanState()
	}

	if state.Results == nil {
		state.Results = models.ScanResult{}
	}

	return state
}

// Save replaces the snapshot row.
func (s *SQLiteStore) Save(ctx context.Context, state models.ScanState) error {
	results, err := json.Marshal(state.Results)
	if err != nil {
		return fmt.Errorf("failed to marshal scan results: %w", err)
	}

	var lastScan any
	if state.LastScan != nil {
		lastScan = state.LastScan.Format(time.RFC3339Nano)
	}

	query := `
INSERT INTO scan_state (id, last_scan, results)
VALUES (1, ?, ?)
ON CONFLICT(id) DO UPDATE SET last_scan = excluded.last_scan, results = excluded.results`

	if _, err := s.db.ExecContext(ctx, query, lastScan, string(results)); err != nil {
		return fmt.Errorf("failed to save scan state: %w", err)
	}

	s.logger.Info("saved scan state")

	return nil
}
