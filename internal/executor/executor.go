// Package executor runs single scenario paths through the external scenario
// runner and checks that the runner is usable.
package executor

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/leapstack-labs/scenariowatch/internal/report"
)

// DefaultTimeout is the runner-side timeout when none is configured.
const DefaultTimeout = 10 * time.Second

// DefaultGrace is added to the runner timeout before the process is killed.
const DefaultGrace = 5 * time.Second

// Config configures an Executor.
type Config struct {
	// Bin is the runner executable.
	Bin string
	// Args are passed before the per-scenario arguments, e.g. the runner script.
	Args    []string
	BaseURL string
	// Timeout is handed to the runner in milliseconds.
	Timeout time.Duration
	// Grace extends Timeout into the wall-clock limit for the process.
	Grace  time.Duration
	Report report.Options
	// Dir is the runner's working directory. Relative scenario paths
	// resolve against it.
	Dir string
	// Stderr receives the runner's standard error. Nil discards it.
	Stderr io.Writer
	Logger *slog.Logger
}

// Executor spawns one runner process per scenario path.
type Executor struct {
	cfg    Config
	logger *slog.Logger
}

// New creates an Executor.
func New(cfg Config) *Executor {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Grace <= 0 {
		cfg.Grace = DefaultGrace
	}
	if cfg.Stderr == nil {
		cfg.Stderr = io.Discard
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Executor{cfg: cfg, logger: logger}
}

// URL returns the page the runner is pointed at for path.
func (e *Executor) URL(path string) string {
	return ScenarioURL(e.cfg.BaseURL, Selector(e.resolve(path)))
}

func (e *Executor) resolve(path string) string {
	if e.cfg.Dir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(e.cfg.Dir, path)
}

// Args returns the full runner argument list for path.
func (e *Executor) Args(path string) []string {
	args := make([]string, 0, len(e.cfg.Args)+6)
	args = append(args, e.cfg.Args...)
	return append(args,
		e.URL(path),
		strconv.FormatInt(e.cfg.Timeout.Milliseconds(), 10),
		string(e.cfg.Report.ScenarioDoc),
		strconv.FormatBool(e.cfg.Report.Focus),
		string(e.cfg.Report.Console),
		string(e.cfg.Report.Errors),
	)
}

// Execute runs the scenario at path and returns the runner's standard output.
// The exit status is ignored: the runner reports failures in its output.
// Exceeding the wall-clock limit yields an *ExecutionError of KindTimeout; a
// cancelled ctx returns ctx.Err().
func (e *Executor) Execute(ctx context.Context, path string) ([]byte, error) {
	limit := e.cfg.Timeout + e.cfg.Grace
	runCtx, cancel := context.WithTimeout(ctx, limit)
	defer cancel()

	args := e.Args(path)
	cmd := exec.CommandContext(runCtx, e.cfg.Bin, args...)
	cmd.Dir = e.cfg.Dir
	configureProcess(cmd)
	cmd.Cancel = func() error { return killProcess(cmd) }
	cmd.WaitDelay = time.Second

	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = e.cfg.Stderr

	e.logger.Debug("executing scenario", "path", path, "bin", e.cfg.Bin, "args", args)
	start := time.Now()
	err := cmd.Run()
	e.logger.Debug("scenario finished", "path", path, "duration", time.Since(start), "bytes", stdout.Len())

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return nil, &ExecutionError{Kind: KindTimeout, Path: path, Timeout: limit, Err: runCtx.Err()}
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			e.logger.Debug("runner exited non-zero", "path", path, "code", exitErr.ExitCode())
			return stdout.Bytes(), nil
		}
		return nil, &ExecutionError{Kind: KindProcessFailure, Path: path, Err: err}
	}
	return stdout.Bytes(), nil
}
