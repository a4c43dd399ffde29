package commands

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/scenariowatch/internal/cli/config"
	"github.com/leapstack-labs/scenariowatch/internal/cli/output"
	"github.com/leapstack-labs/scenariowatch/internal/engine"
	"github.com/leapstack-labs/scenariowatch/internal/executor"
	"github.com/leapstack-labs/scenariowatch/internal/notify"
	"github.com/leapstack-labs/scenariowatch/internal/server"
	"github.com/leapstack-labs/scenariowatch/internal/state"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
	Stderr   io.Writer
}

// NewCommandContext creates a CommandContext from the loaded configuration.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.Output), cfg.NoColor),
		Stderr:   cmd.ErrOrStderr(),
	}
}

// getConfig returns the loaded configuration, or the defaults when nothing was loaded.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	cfg := config.Default()
	cfg.BaseURL = config.DefaultBaseURL(cfg.Port)
	if cwd, err := os.Getwd(); err == nil {
		cfg.ProjectRoot = cwd
	}
	return cfg
}

// resolvePath resolves path against root unless it is absolute.
func resolvePath(root, path string) string {
	if root == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

// IsReported reports whether err has already been shown to the user by the
// engine's console output.
func IsReported(err error) bool {
	var execErr *executor.ExecutableError
	return errors.Is(err, engine.ErrTaskFailed) || errors.As(err, &execErr)
}

// RunnerBin returns the configured runner, or the default runner found on PATH.
func (cc *CommandContext) RunnerBin() string {
	if cc.Cfg.RunnerBin != "" {
		return cc.Cfg.RunnerBin
	}
	return executor.Which(executor.DefaultRunner)
}

// engineOptions overrides configuration for a single command.
type engineOptions struct {
	AllOnStart bool
	Events     *notify.Hub
}

// session bundles an engine with the resources it owns.
type session struct {
	Engine *engine.Engine
	Store  state.Store
}

// Close releases the session's resources.
func (s *session) Close() {
	if s.Store != nil {
		_ = s.Store.Close()
	}
}

// openHistory opens the run history store, or returns nil when disabled.
func openHistory(path string, logger *slog.Logger) (state.Store, error) {
	if path == "" {
		return nil, nil
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}
	store := state.NewSQLiteStore(logger)
	if err := store.Open(path); err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	if err := store.InitSchema(); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize history: %w", err)
	}
	return store, nil
}

// newSession wires the executor, server, notifier and history into an engine.
func (cc *CommandContext) newSession(opts engineOptions) (*session, error) {
	cfg := cc.Cfg
	logger := cc.Logger

	var verboseOut io.Writer = io.Discard
	if cfg.Verbose {
		verboseOut = cc.Stderr
	}

	bin := cc.RunnerBin()
	runner := executor.New(executor.Config{
		Bin:     bin,
		Args:    cfg.RunnerArgs,
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
		Report:  cfg.ReportOptions(),
		Dir:     cfg.ProjectRoot,
		Stderr:  verboseOut,
		Logger:  logger,
	})

	srv := server.New(server.Config{
		Root:    cfg.ServerRoot,
		Command: cfg.ServerCommand,
		Dir:     cfg.ProjectRoot,
		Output:  verboseOut,
		Logger:  logger,
	})

	store, err := openHistory(cfg.HistoryPath, logger)
	if err != nil {
		return nil, err
	}

	var notifier notify.Notifier
	if cfg.Notification {
		notifier = notify.Detect(logger)
	}

	eng, err := engine.New(engine.Config{
		ScenarioPaths:    cfg.ScenarioPaths,
		BaseURL:          cfg.BaseURL,
		AllOnStart:       opts.AllOnStart,
		KeepFailed:       cfg.KeepFailed,
		AllAfterPass:     cfg.AllAfterPass,
		RunnerBin:        bin,
		RunnerMinVersion: cfg.RunnerMinVersion,
		Runner:           runner,
		Server:           srv,
		ServerStrategy:   srv.Resolve(cfg.Server),
		Port:             cfg.Port,
		ServerEnv:        cfg.ServerEnv,
		Report:           cfg.ReportOptions(),
		Notify: notify.Options{
			Enabled:        cfg.Notification,
			HideSuccess:    cfg.HideSuccess,
			MaxErrorNotify: cfg.MaxErrorNotify,
		},
		Notifier: notifier,
		Console:  cc.Renderer.Printer(cfg.Clear),
		Store:    store,
		Events:   opts.Events,
		Logger:   logger,
	})
	if err != nil {
		if store != nil {
			_ = store.Close()
		}
		return nil, err
	}

	return &session{Engine: eng, Store: store}, nil
}
