// Package state records scenario run history in SQLite.
// It tracks every run with its trigger and outcome, plus one row per executed
// scenario path.
package state

import (
	"context"
	"time"

	"github.com/leapstack-labs/scenariowatch/internal/result"
)

// RunStatus is the lifecycle status of a recorded run.
type RunStatus string

// Run statuses.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusPassed    RunStatus = "passed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// PathStatus is the outcome of one executed scenario path.
type PathStatus string

// Path statuses.
const (
	PathStatusPassed PathStatus = "passed"
	PathStatusFailed PathStatus = "failed"
	PathStatusError  PathStatus = "error"
)

// StatusOf classifies a result.
func StatusOf(res result.Result) PathStatus {
	switch {
	case res.IsError():
		return PathStatusError
	case !res.Passed:
		return PathStatusFailed
	default:
		return PathStatusPassed
	}
}

// Run is one recorded run.
type Run struct {
	ID          string     `json:"id"`
	Trigger     string     `json:"trigger"`
	Paths       []string   `json:"paths"`
	Status      RunStatus  `json:"status"`
	Scenarios   int        `json:"scenarios"`
	Failures    int        `json:"failures"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Duration returns how long the run took, or zero while it is running.
func (r *Run) Duration() time.Duration {
	if r.CompletedAt == nil {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// PathRecord is the stored outcome of one scenario path within a run.
type PathRecord struct {
	RunID     string     `json:"run_id"`
	Seq       int        `json:"seq"`
	Path      string     `json:"path"`
	Status    PathStatus `json:"status"`
	Scenarios int        `json:"scenarios"`
	Failures  int        `json:"failures"`
	Elapsed   float64    `json:"elapsed"`
	Error     string     `json:"error,omitempty"`
}

// Store persists run history.
type Store interface {
	Open(path string) error
	Close() error
	InitSchema() error

	CreateRun(ctx context.Context, trigger string, paths []string) (*Run, error)
	RecordResult(ctx context.Context, runID string, seq int, path string, res result.Result) error
	CompleteRun(ctx context.Context, runID string, status RunStatus, summary result.Summary) error

	GetRun(ctx context.Context, id string) (*Run, error)
	ListRuns(ctx context.Context, limit int) ([]*Run, error)
	GetRunResults(ctx context.Context, runID string) ([]*PathRecord, error)
}
