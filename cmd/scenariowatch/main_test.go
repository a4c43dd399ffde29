// Package main provides tests for the scenariowatch CLI.
package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/leapstack-labs/scenariowatch/internal/cli"
	"github.com/leapstack-labs/scenariowatch/internal/cli/config"
	clitestutil "github.com/leapstack-labs/scenariowatch/internal/cli/testutil"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)

	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestVersionCommand(t *testing.T) {
	output, err := execute(t, "version")
	if err != nil {
		t.Errorf("version command error = %v", err)
	}
	if !strings.Contains(output, "scenariowatch v") {
		t.Errorf("version output should contain 'scenariowatch v', got: %s", output)
	}
}

func TestHelpCommand(t *testing.T) {
	output, err := execute(t, "--help")
	if err != nil {
		t.Errorf("help command error = %v", err)
	}
	for _, expected := range []string{"run", "watch", "doctor", "history", "init"} {
		if !strings.Contains(output, expected) {
			t.Errorf("help output should contain '%s', got: %s", expected, output)
		}
	}
}

func TestRunCommand(t *testing.T) {
	cfgPath := clitestutil.SetupTestProject(t, clitestutil.PassingOutput)

	output, err := execute(t, "--config", cfgPath, "run")
	if err != nil {
		t.Fatalf("run command error = %v\noutput: %s", err, output)
	}
	if !strings.Contains(output, "1 scenarios, 0 failures") {
		t.Errorf("run output should contain the summary, got: %s", output)
	}
}

func TestRunCommandFailing(t *testing.T) {
	cfgPath := clitestutil.SetupTestProject(t, clitestutil.FailingOutput)

	output, err := execute(t, "--config", cfgPath, "run", "--scenariodoc", "never")
	if err == nil {
		t.Fatal("run command should fail when a scenario fails")
	}
	if strings.Contains(output, "rejects bad passwords") {
		t.Errorf("scenariodoc never should hide the tree, got: %s", output)
	}
	if !strings.Contains(output, "2 scenarios, 1 failures") {
		t.Errorf("run output should contain the summary, got: %s", output)
	}
}

func TestUnknownCommand(t *testing.T) {
	if _, err := execute(t, "deploy"); err == nil {
		t.Error("unknown command should fail")
	}
}
