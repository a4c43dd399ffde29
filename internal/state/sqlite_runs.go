package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/scenariowatch/internal/result"
)

// CreateRun records the start of a run.
func (s *SQLiteStore) CreateRun(ctx context.Context, trigger string, paths []string) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	run := &Run{
		ID:        generateID(),
		Trigger:   trigger,
		Paths:     append([]string(nil), paths...),
		Status:    RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}

	encoded, err := json.Marshal(run.Paths)
	if err != nil {
		return nil, fmt.Errorf("failed to encode paths: %w", err)
	}

	s.logger.Debug("creating run", slog.String("id", run.ID), slog.String("trigger", trigger), slog.Int("paths", len(paths)))

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, trigger_kind, paths, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Trigger, string(encoded), run.Status, run.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	return run, nil
}

// RecordResult stores the outcome of one path within a run.
func (s *SQLiteStore) RecordResult(ctx context.Context, runID string, seq int, path string, res result.Result) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	var errMsg *string
	if res.IsError() {
		errMsg = &res.Error
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO path_results (run_id, seq, path, status, scenarios, failures, elapsed, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, seq, path, StatusOf(res), res.Stats.Scenarios, res.Stats.Failures, res.Stats.Time, errMsg,
	)
	if err != nil {
		return fmt.Errorf("failed to record result for %s: %w", path, err)
	}
	return nil
}

// CompleteRun marks a run finished with its aggregate counts.
func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, status RunStatus, summary result.Summary) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, scenarios = ?, failures = ?, completed_at = ? WHERE id = ?`,
		status, summary.Scenarios, summary.Failures, time.Now().UTC(), runID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}

	rowsAffected, _ := res.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("run not found: %s", runID)
	}

	s.logger.Debug("completed run", slog.String("id", runID), slog.String("status", string(status)))
	return nil
}

const runColumns = `id, trigger_kind, paths, status, scenarios, failures, started_at, completed_at`

// GetRun retrieves a run by ID.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	run, err := scanRun(s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first. A limit of zero or
// less returns every run.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRunResults returns the per-path results of a run in execution order.
func (s *SQLiteStore) GetRunResults(ctx context.Context, runID string) ([]*PathRecord, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, seq, path, status, scenarios, failures, elapsed, error
		 FROM path_results WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run results: %w", err)
	}
	defer rows.Close()

	var records []*PathRecord
	for rows.Next() {
		rec := &PathRecord{}
		var errMsg sql.NullString
		if err := rows.Scan(&rec.RunID, &rec.Seq, &rec.Path, &rec.Status, &rec.Scenarios, &rec.Failures, &rec.Elapsed, &errMsg); err != nil {
			return nil, fmt.Errorf("failed to scan run result: %w", err)
		}
		rec.Error = errMsg.String
		records = append(records, rec)
	}
	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	run := &Run{}
	var paths string
	var completedAt sql.NullTime

	if err := row.Scan(&run.ID, &run.Trigger, &paths, &run.Status, &run.Scenarios, &run.Failures, &run.StartedAt, &completedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(paths), &run.Paths); err != nil {
		return nil, fmt.Errorf("failed to decode paths: %w", err)
	}
	if completedAt.Valid {
		t := completedAt.Time
		run.CompletedAt = &t
	}
	return run, nil
}
