package executor

import (
	"fmt"
	"time"
)

// ErrorKind classifies a failed scenario execution.
type ErrorKind int

// Execution failure kinds.
const (
	KindTimeout ErrorKind = iota
	KindProcessFailure
)

func (k ErrorKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindProcessFailure:
		return "process failure"
	default:
		return "unknown"
	}
}

// ExecutionError is a per-scenario failure to obtain runner output. It is never
// fatal to a run.
type ExecutionError struct {
	Kind    ErrorKind
	Path    string
	Timeout time.Duration
	Err     error
}

func (e *ExecutionError) Error() string {
	switch e.Kind {
	case KindTimeout:
		return fmt.Sprintf("Scenario run for %s timed out after %s", e.Path, e.Timeout)
	default:
		return fmt.Sprintf("Cannot run the scenario runner for %s: %v", e.Path, e.Err)
	}
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// ExecutableError reports a missing, unversioned or outdated runner. It is
// fatal at startup.
type ExecutableError struct {
	Bin    string
	Reason string
}

func (e *ExecutableError) Error() string {
	return e.Reason
}
