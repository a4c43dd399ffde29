// Package server starts and stops the HTTP server that serves scenario pages.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"sync"
	"time"
)

// Strategies accepted by Start.
const (
	StrategyNone    = "none"
	StrategyAuto    = "auto"
	StrategyStatic  = "static"
	StrategyCommand = "command"
)

// Strategies lists every valid strategy.
var Strategies = []string{StrategyNone, StrategyAuto, StrategyStatic, StrategyCommand}

const (
	defaultStartTimeout = 30 * time.Second
	stopGrace           = 5 * time.Second
	probeTimeout        = 2 * time.Second
)

// Config holds server configuration.
type Config struct {
	// Root is served by the static strategy.
	Root string
	// Command is run by the command strategy.
	Command []string
	// Dir is the working directory of Command.
	Dir string
	// StartTimeout bounds the wait for the port to accept connections.
	StartTimeout time.Duration
	// Output receives the command's stdout and stderr. Nil discards it.
	Output io.Writer
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// Manager runs at most one server at a time.
type Manager struct {
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	static  *staticServer
	process *exec.Cmd
	exited  chan struct{}
}

// New creates a Manager.
func New(cfg Config) *Manager {
	if cfg.StartTimeout <= 0 {
		cfg.StartTimeout = defaultStartTimeout
	}
	if cfg.Output == nil {
		cfg.Output = io.Discard
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Manager{cfg: cfg, logger: logger}
}

// Resolve maps the auto strategy to a concrete one.
func (m *Manager) Resolve(strategy string) string {
	if strategy != StrategyAuto {
		return strategy
	}
	if len(m.cfg.Command) > 0 {
		return StrategyCommand
	}
	if info, err := os.Stat(m.cfg.Root); err == nil && info.IsDir() {
		return StrategyStatic
	}
	return StrategyNone
}

// Start launches the server and waits until port accepts connections.
func (m *Manager) Start(ctx context.Context, strategy string, port int, env string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.static != nil || m.process != nil {
		return fmt.Errorf("server already started")
	}

	resolved := m.Resolve(strategy)
	m.logger.Debug("starting server", "strategy", strategy, "resolved", resolved, "port", port, "env", env)

	switch resolved {
	case StrategyNone:
		return nil
	case StrategyStatic:
		srv, err := startStatic(m.cfg.Root, port, m.logger)
		if err != nil {
			return err
		}
		m.static = srv
	case StrategyCommand:
		if err := m.startCommand(port, env); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown server strategy %q", strategy)
	}

	if err := waitForPort(ctx, port, m.cfg.StartTimeout); err != nil {
		_ = m.stopLocked(context.Background())
		return err
	}
	return nil
}

// Stop stops whatever Start launched.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopLocked(ctx)
}

func (m *Manager) stopLocked(ctx context.Context) error {
	var errs []error
	if m.static != nil {
		errs = append(errs, m.static.stop(ctx))
		m.static = nil
	}
	if m.process != nil {
		errs = append(errs, m.stopCommand())
		m.process = nil
	}
	return errors.Join(errs...)
}

// IsReachable reports whether url answers an HTTP GET without a server error.
func (m *Manager) IsReachable(ctx context.Context, url string) bool {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return resp.StatusCode < http.StatusInternalServerError
}

// waitForPort polls the local port until it accepts a TCP connection.
func waitForPort(ctx context.Context, port int, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	addr := net.JoinHostPort("127.0.0.1", fmt.Sprint(port))
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		conn, err := net.DialTimeout("tcp", addr, time.Second)
		if err == nil {
			_ = conn.Close()
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("server did not listen on port %d: %w", port, ctx.Err())
		case <-ticker.C:
		}
	}
}
