package state

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/scenariowatch/internal/result"
	"github.com/leapstack-labs/scenariowatch/internal/testutil"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store := NewSQLiteStore(testutil.NewTestLogger(t))
	require.NoError(t, store.Open(":memory:"))
	require.NoError(t, store.InitSchema())
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_OpenClose(t *testing.T) {
	store := NewSQLiteStore(nil)

	require.NoError(t, store.Open(":memory:"))
	assert.NoError(t, store.Close())
}

func TestSQLiteStore_OpenCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	store := NewSQLiteStore(nil)

	require.NoError(t, store.Open(path))
	defer store.Close()
	require.NoError(t, store.InitSchema())

	assert.FileExists(t, path)
}

func TestSQLiteStore_InitSchema(t *testing.T) {
	store := setupTestStore(t)

	for _, table := range []string{"runs", "path_results"} {
		rows, err := store.db.Query("SELECT 1 FROM " + table + " LIMIT 1")
		require.NoError(t, err, "table %s", table)
		rows.Close()
	}

	version, err := store.MigrationVersion()
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	// migrations are idempotent
	assert.NoError(t, store.InitSchema())
}

func TestSQLiteStore_RunLifecycle(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	run, err := store.CreateRun(ctx, "change", []string{"scenario/a.js", "scenario/b.js"})
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, RunStatusRunning, run.Status)

	passed := result.Result{Passed: true, Stats: result.Stats{Scenarios: 2, Time: 0.5}}
	errored := result.Errored(result.NoResponse)
	require.NoError(t, store.RecordResult(ctx, run.ID, 0, "scenario/a.js", passed))
	require.NoError(t, store.RecordResult(ctx, run.ID, 1, "scenario/b.js", errored))

	summary := result.Aggregate([]result.PathResult{
		{Path: "scenario/a.js", Result: passed},
		{Path: "scenario/b.js", Result: errored},
	})
	require.NoError(t, store.CompleteRun(ctx, run.ID, RunStatusFailed, summary))

	got, err := store.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, "change", got.Trigger)
	assert.Equal(t, []string{"scenario/a.js", "scenario/b.js"}, got.Paths)
	assert.Equal(t, RunStatusFailed, got.Status)
	assert.Equal(t, 2, got.Scenarios)
	require.NotNil(t, got.CompletedAt)
	assert.GreaterOrEqual(t, got.Duration().Nanoseconds(), int64(0))

	records, err := store.GetRunResults(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, PathStatusPassed, records[0].Status)
	assert.InDelta(t, 0.5, records[0].Elapsed, 1e-9)
	assert.Empty(t, records[0].Error)
	assert.Equal(t, PathStatusError, records[1].Status)
	assert.Equal(t, result.NoResponse, records[1].Error)
}

func TestSQLiteStore_GetRunNotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.GetRun(context.Background(), "missing")
	assert.ErrorContains(t, err, "run not found: missing")

	err = store.CompleteRun(context.Background(), "missing", RunStatusPassed, result.Summary{})
	assert.ErrorContains(t, err, "run not found: missing")
}

func TestSQLiteStore_ListRuns(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	var ids []string
	for _, trigger := range []string{"start", "change", "all"} {
		run, err := store.CreateRun(ctx, trigger, nil)
		require.NoError(t, err)
		ids = append(ids, run.ID)
	}

	runs, err := store.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, ids[2], runs[0].ID)
	assert.Equal(t, ids[1], runs[1].ID)
	assert.Nil(t, runs[0].CompletedAt)

	all, err := store.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, PathStatusPassed, StatusOf(result.Result{Passed: true}))
	assert.Equal(t, PathStatusFailed, StatusOf(result.Result{Passed: false}))
	assert.Equal(t, PathStatusError, StatusOf(result.Errored("x")))
}

func TestSQLiteStore_NotOpened(t *testing.T) {
	store := NewSQLiteStore(nil)

	_, err := store.ListRuns(context.Background(), 10)
	assert.ErrorContains(t, err, "database not opened")
	assert.ErrorContains(t, store.InitSchema(), "database not opened")
}
