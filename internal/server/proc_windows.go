//go:build windows

package server

import "os/exec"

func configureProcess(cmd *exec.Cmd) {}

// signalProcess kills cmd; Windows has no graceful terminate signal.
func signalProcess(cmd *exec.Cmd, _ bool) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	return cmd.Process.Kill()
}
