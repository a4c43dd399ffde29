package server

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// EnvVar carries the server environment to the command strategy.
const EnvVar = "SCENARIOWATCH_ENV"

func (m *Manager) startCommand(port int, env string) error {
	if len(m.cfg.Command) == 0 {
		return fmt.Errorf("command strategy requires server_command")
	}

	cmd := exec.Command(m.cfg.Command[0], m.cfg.Command[1:]...)
	cmd.Dir = m.cfg.Dir
	cmd.Env = append(os.Environ(),
		EnvVar+"="+env,
		"PORT="+strconv.Itoa(port),
	)
	cmd.Stdout = m.cfg.Output
	cmd.Stderr = m.cfg.Output
	configureProcess(cmd)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("cannot start %s: %w", strings.Join(m.cfg.Command, " "), err)
	}
	m.logger.Info("started server command", "command", m.cfg.Command, "pid", cmd.Process.Pid)

	exited := make(chan struct{})
	go func() {
		_ = cmd.Wait()
		close(exited)
	}()

	m.process = cmd
	m.exited = exited
	return nil
}

// stopCommand asks the process group to terminate and kills it after the
// grace period.
func (m *Manager) stopCommand() error {
	select {
	case <-m.exited:
		return nil
	default:
	}

	m.logger.Info("stopping server command", "pid", m.process.Process.Pid)
	if err := signalProcess(m.process, false); err != nil {
		m.logger.Debug("terminate failed", "error", err)
	}

	select {
	case <-m.exited:
		return nil
	case <-time.After(stopGrace):
	}

	if err := signalProcess(m.process, true); err != nil {
		return fmt.Errorf("failed to kill server command: %w", err)
	}
	<-m.exited
	return nil
}
