package statestore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supwatch/internal/logger"
	"supwatch/internal/models"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()

	path := filepath.Join(t.TempDir(), "state.db")

	store, err := NewSQLiteStore(context.Background(), path, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store
}

func TestSQLiteStore_Load_FreshDatabase(t *testing.T) {
	store := newTestSQLiteStore(t)

	state := store.Load(context.Background())

	assert.Nil(t, state.LastScan)
	require.NotNil(t, state.Results)
	assert.Empty(t, state.Results)
}

func TestSQLiteStore_SaveLoadRoundtrip(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	ts := time.Date(2026, 8, 30, 8, 30, 0, 0, time.UTC)
	state := models.ScanState{
		LastScan: &ts,
		Results: models.ScanResult{
			"Edgecore Networks": {
				{Title: "NG-OLT launch", Summary: "New OLT line.", Link: "https://edgecore.com/news/1"},
			},
		},
	}

	require.NoError(t, store.Save(ctx, state))

	loaded := store.Load(ctx)

	require.NotNil(t, loaded.LastScan)
	assert.True(t, ts.Equal(*loaded.LastScan))
	assert.Equal(t, state.Results, loaded.Results)
}

func TestSQLiteStore_Save_KeepsSingleRow(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	first := time.Date(2026, 8, 29, 8, 30, 0, 0, time.UTC)
	require.NoError(t, store.Save(ctx, models.ScanState{
		LastScan: &first,
		Results:  models.ScanResult{"Edgecore Networks": {{Title: "Old", Link: "https://edgecore.com/old"}}},
	}))

	second := time.Date(2026, 8, 30, 8, 30, 0, 0, time.UTC)
	require.NoError(t, store.Save(ctx, models.ScanState{
		LastScan: &second,
		Results:  models.ScanResult{"IP Infusion": {}},
	}))

	var count int
	require.NoError(t, store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scan_state`).Scan(&count))
	assert.Equal(t, 1, count)

	loaded := store.Load(ctx)
	require.NotNil(t, loaded.LastScan)
	assert.True(t, second.Equal(*loaded.LastScan))
	assert.NotContains(t, loaded.Results, "Edgecore Networks")
}

func TestSQLiteStore_Save_NilLastScan(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, models.NewScanState()))

	loaded := store.Load(ctx)

	assert.Nil(t, loaded.LastScan)
	assert.Empty(t, loaded.Results)
}
