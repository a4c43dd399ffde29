// Package engine drives scenario runs.
// It owns the failure memory carried between runs, picks the scenario set for
// each trigger, and reports overall success or failure to the host.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/leapstack-labs/scenariowatch/internal/executor"
	"github.com/leapstack-labs/scenariowatch/internal/notify"
	"github.com/leapstack-labs/scenariowatch/internal/report"
	"github.com/leapstack-labs/scenariowatch/internal/state"
)

// ErrTaskFailed signals the host that a lifecycle operation failed.
var ErrTaskFailed = errors.New("task has failed")

// Runner executes one scenario path and returns the raw runner output.
type Runner interface {
	Execute(ctx context.Context, path string) ([]byte, error)
	URL(path string) string
}

// Server manages the HTTP server that serves scenario pages.
type Server interface {
	Start(ctx context.Context, strategy string, port int, env string) error
	Stop(ctx context.Context) error
	IsReachable(ctx context.Context, url string) bool
}

// Console receives human-readable run output.
type Console interface {
	Info(msg string, reset bool)
	Error(msg string)
	Lines(lines []report.Line)
}

// Config holds engine configuration.
type Config struct {
	// ScenarioPaths is the full scenario set used by RunAll.
	ScenarioPaths []string
	BaseURL       string

	AllOnStart   bool
	KeepFailed   bool
	AllAfterPass bool

	// RunnerBin and RunnerMinVersion are checked by Start.
	RunnerBin        string
	RunnerMinVersion string
	Runner           Runner

	// Server is optional; ServerStrategy "none" never starts it.
	Server         Server
	ServerStrategy string
	Port           int
	ServerEnv      string

	Report   report.Options
	Notify   notify.Options
	Notifier notify.Notifier

	Console Console
	// Store records run history when set.
	Store state.Store
	// Events receives a RunEvent after every completed run when set.
	Events *notify.Hub
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// Engine is the run orchestrator. All runs are serialized.
type Engine struct {
	cfg    Config
	logger *slog.Logger

	mu            sync.Mutex
	memory        Memory
	serverStarted bool

	state atomic.Int32
}

// New creates an engine in the Idle state with empty failure memory.
func New(cfg Config) (*Engine, error) {
	if cfg.Runner == nil {
		return nil, fmt.Errorf("engine requires a scenario runner")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.Console == nil {
		cfg.Console = nopConsole{}
	}
	if cfg.ServerStrategy == "" {
		cfg.ServerStrategy = "none"
	}

	logger.Debug("initializing engine", "scenario_paths", cfg.ScenarioPaths, "base_url", cfg.BaseURL)

	return &Engine{cfg: cfg, logger: logger}, nil
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	return State(e.state.Load())
}

func (e *Engine) setState(s State) {
	e.state.Store(int32(s))
}

// Memory returns a copy of the failure memory.
func (e *Engine) Memory() Memory {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.memory.clone()
}

// RestoreMemory seeds the failure memory from the most recent passed or
// failed run in the history store. It does nothing without a store.
func (e *Engine) RestoreMemory(ctx context.Context) error {
	if e.cfg.Store == nil {
		return nil
	}

	runs, err := e.cfg.Store.ListRuns(ctx, 0)
	if err != nil {
		return fmt.Errorf("failed to read run history: %w", err)
	}

	for _, run := range runs {
		if run.Status != state.RunStatusPassed && run.Status != state.RunStatusFailed {
			continue
		}

		mem := Memory{LastRunFailed: run.Status == state.RunStatusFailed}
		if mem.LastRunFailed {
			records, err := e.cfg.Store.GetRunResults(ctx, run.ID)
			if err != nil {
				return fmt.Errorf("failed to read results of run %s: %w", run.ID, err)
			}
			for _, rec := range records {
				if rec.Status != state.PathStatusPassed {
					mem.FailedPaths = append(mem.FailedPaths, rec.Path)
				}
			}
			mem.FailedPaths = dedupe(mem.FailedPaths)
		}

		e.mu.Lock()
		e.memory = mem
		e.mu.Unlock()
		e.logger.Debug("restored failure memory", "run_id", run.ID, "last_run_failed", mem.LastRunFailed, "failed_paths", mem.FailedPaths)
		return nil
	}
	return nil
}

// Start validates the runner, brings up the server unless one is already
// reachable, and runs every scenario when AllOnStart is set. An invalid
// runner is returned as an *executor.ExecutableError and aborts startup.
func (e *Engine) Start(ctx context.Context) error {
	e.setState(StateStarting)
	defer e.setState(StateIdle)

	version, err := executor.Validate(ctx, e.cfg.RunnerBin, e.cfg.RunnerMinVersion)
	if err != nil {
		e.cfg.Console.Error(err.Error())
		return err
	}
	e.logger.Debug("runner validated", "bin", e.cfg.RunnerBin, "version", version)

	e.startServer(ctx)

	if e.cfg.AllOnStart {
		return e.RunAll(ctx)
	}
	return nil
}

func (e *Engine) startServer(ctx context.Context) {
	if e.cfg.Server == nil || e.cfg.ServerStrategy == "none" {
		return
	}

	if e.cfg.Server.IsReachable(ctx, e.cfg.BaseURL) {
		e.cfg.Console.Info("Using the server already running at "+e.cfg.BaseURL, false)
		return
	}

	e.cfg.Console.Info(fmt.Sprintf("Starting %s server on port %d in %s environment", e.cfg.ServerStrategy, e.cfg.Port, e.cfg.ServerEnv), false)
	if err := e.cfg.Server.Start(ctx, e.cfg.ServerStrategy, e.cfg.Port, e.cfg.ServerEnv); err != nil {
		e.cfg.Console.Error(fmt.Sprintf("Cannot start the scenario server: %v", err))
		e.logger.Warn("server start failed", "strategy", e.cfg.ServerStrategy, "error", err)
		return
	}

	e.mu.Lock()
	e.serverStarted = true
	e.mu.Unlock()
}

// Stop stops the server if this engine started it.
func (e *Engine) Stop(ctx context.Context) error {
	e.mu.Lock()
	started := e.serverStarted
	e.serverStarted = false
	e.mu.Unlock()

	if !started {
		return nil
	}
	e.cfg.Console.Info("Stopping the scenario server", false)
	if err := e.cfg.Server.Stop(ctx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}
	return nil
}

// Reload clears the failure memory.
func (e *Engine) Reload() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.memory = Memory{}
	e.logger.Debug("failure memory cleared")
}

type nopConsole struct{}

func (nopConsole) Info(string, bool)   {}
func (nopConsole) Error(string)        {}
func (nopConsole) Lines([]report.Line) {}
