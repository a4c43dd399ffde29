package commands

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/scenariowatch/internal/cli/config"
	clitestutil "github.com/leapstack-labs/scenariowatch/internal/cli/testutil"
	"github.com/leapstack-labs/scenariowatch/internal/engine"
	"github.com/leapstack-labs/scenariowatch/internal/executor"
	"github.com/leapstack-labs/scenariowatch/internal/state"
	"github.com/leapstack-labs/scenariowatch/internal/testutil"
)

// executeCommand loads cfgPath the way the root command does and runs cmd.
func executeCommand(t *testing.T, cmd *cobra.Command, cfgPath string, args ...string) (string, error) {
	t.Helper()

	config.ResetConfig()
	t.Cleanup(config.ResetConfig)
	logger := testutil.NewTestLogger(t)
	_, err := config.LoadConfig(cfgPath, nil, logger)
	require.NoError(t, err)

	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	ctx := context.WithValue(context.Background(), config.LoggerKey(), logger)
	err = cmd.ExecuteContext(ctx)
	return buf.String(), err
}

func openTestHistory(t *testing.T, cfgPath string) state.Store {
	t.Helper()
	store := state.NewSQLiteStore(nil)
	require.NoError(t, store.Open(filepath.Join(filepath.Dir(cfgPath), ".scenariowatch", "history.db")))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRunCommand_Passing(t *testing.T) {
	cfgPath := clitestutil.SetupTestProject(t, clitestutil.PassingOutput)

	out, err := executeCommand(t, NewRunCommand(), cfgPath)

	require.NoError(t, err)
	assert.Contains(t, out, "Run all scenario suites")
	assert.Contains(t, out, "Run scenario suite at http://localhost:8888/casper?scenario=Login")
	assert.Contains(t, out, "1 scenarios, 0 failures")
	assert.NotContains(t, out, "✔ accepts valid credentials")
	clitestutil.AssertNoANSI(t, out)

	runs, err := openTestHistory(t, cfgPath).ListRuns(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, state.RunStatusPassed, runs[0].Status)
	assert.Equal(t, engine.TriggerAll, runs[0].Trigger)
	assert.Equal(t, []string{"scenario/login.coffee"}, runs[0].Paths)
}

func TestRunCommand_Failing(t *testing.T) {
	cfgPath := clitestutil.SetupTestProject(t, clitestutil.FailingOutput)

	out, err := executeCommand(t, NewRunCommand(), cfgPath)

	require.ErrorIs(t, err, engine.ErrTaskFailed)
	assert.True(t, IsReported(err))
	assert.Contains(t, out, "Login")
	assert.NotContains(t, out, "accepts valid credentials")
	assert.Contains(t, out, "  ✘ rejects bad passwords")
	assert.Contains(t, out, "    ➤ Expected false to be true")
	assert.Contains(t, out, "2 scenarios, 1 failures")
}

func TestRunCommand_Paths(t *testing.T) {
	cfgPath := clitestutil.SetupTestProject(t, clitestutil.PassingOutput)

	out, err := executeCommand(t, NewRunCommand(), cfgPath, "--only", "scenario/login.coffee")

	require.NoError(t, err)
	assert.Contains(t, out, "Run scenario in scenario/login.coffee")
	assert.NotContains(t, out, "Run all scenario suites")

	runs, err := openTestHistory(t, cfgPath).ListRuns(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, engine.TriggerChange, runs[0].Trigger)
}

func TestRunCommand_PathsAfterPassingRun(t *testing.T) {
	cfgPath := clitestutil.SetupTestProject(t, clitestutil.PassingOutput)

	out, err := executeCommand(t, NewRunCommand(), cfgPath, "scenario/login.coffee")

	require.NoError(t, err)
	assert.NotContains(t, out, "Run all scenario suites")

	runs, err := openTestHistory(t, cfgPath).ListRuns(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, engine.TriggerChange, runs[0].Trigger)
}

func TestRunCommand_PathsAfterFailedRun(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		triggers []string
	}{
		{
			name:     "runs the whole suite once the failure is fixed",
			args:     []string{"scenario/login.coffee"},
			triggers: []string{engine.TriggerAfterPass, engine.TriggerChange, engine.TriggerAll},
		},
		{
			name:     "only skips the whole suite",
			args:     []string{"--only", "scenario/login.coffee"},
			triggers: []string{engine.TriggerChange, engine.TriggerAll},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfgPath := clitestutil.SetupTestProject(t, clitestutil.FailingOutput)
			_, err := executeCommand(t, NewRunCommand(), cfgPath)
			require.ErrorIs(t, err, engine.ErrTaskFailed)

			t.Setenv("SCENARIOWATCH_RUNNER_BIN", clitestutil.FakeRunner(t, clitestutil.PassingOutput))
			_, err = executeCommand(t, NewRunCommand(), cfgPath, tt.args...)
			require.NoError(t, err)

			runs, err := openTestHistory(t, cfgPath).ListRuns(context.Background(), 0)
			require.NoError(t, err)
			triggers := make([]string, 0, len(runs))
			for _, run := range runs {
				triggers = append(triggers, run.Trigger)
			}
			assert.Equal(t, tt.triggers, triggers)
		})
	}
}

func TestRunCommand_MissingRunner(t *testing.T) {
	cfgPath := clitestutil.SetupTestProject(t, clitestutil.PassingOutput)
	t.Setenv("SCENARIOWATCH_RUNNER_BIN", filepath.Join(t.TempDir(), "nope"))

	out, err := executeCommand(t, NewRunCommand(), cfgPath)

	var execErr *executor.ExecutableError
	require.True(t, errors.As(err, &execErr))
	assert.True(t, IsReported(err))
	assert.Contains(t, out, "doesn't exist at")
}

func TestHistoryCommand(t *testing.T) {
	cfgPath := clitestutil.SetupTestProject(t, clitestutil.FailingOutput)
	_, err := executeCommand(t, NewRunCommand(), cfgPath)
	require.ErrorIs(t, err, engine.ErrTaskFailed)

	out, err := executeCommand(t, NewHistoryCommand(), cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "failed")
	assert.Contains(t, out, "scenario/login.coffee")

	runs, err := openTestHistory(t, cfgPath).ListRuns(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	out, err = executeCommand(t, NewHistoryCommand(), cfgPath, "show", runs[0].ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Run "+runs[0].ID)
	assert.Contains(t, out, "2 scenarios, 1 failures")
	assert.Contains(t, out, "scenario/login.coffee")

	_, err = executeCommand(t, NewHistoryCommand(), cfgPath, "show", "missing")
	assert.Error(t, err)
}

func TestHistoryCommand_Empty(t *testing.T) {
	cfgPath := clitestutil.SetupTestProject(t, clitestutil.PassingOutput)

	out, err := executeCommand(t, NewHistoryCommand(), cfgPath)

	require.NoError(t, err)
	assert.Contains(t, out, "No runs recorded yet")
}

func TestCommandMetadata(t *testing.T) {
	tests := []struct {
		cmd   *cobra.Command
		use   string
		flags []string
	}{
		{NewRunCommand(), "run [paths...]", []string{"only"}},
		{NewWatchCommand(), "watch", []string{"no-console"}},
		{NewDoctorCommand(), "doctor", []string{"format"}},
		{NewHistoryCommand(), "history", []string{"limit"}},
		{NewInitCommand(), "init [directory]", []string{"force", "example"}},
	}

	for _, tt := range tests {
		t.Run(tt.use, func(t *testing.T) {
			assert.Equal(t, tt.use, tt.cmd.Use)
			assert.NotEmpty(t, tt.cmd.Short, "Short should not be empty")
			for _, flag := range tt.flags {
				assert.NotNil(t, tt.cmd.Flags().Lookup(flag), "flag %q should exist", flag)
			}
		})
	}
}

func TestParseConsoleLine(t *testing.T) {
	tests := []struct {
		line string
		want consoleAction
	}{
		{"", actionRunAll},
		{"  all ", actionRunAll},
		{"reload", actionReload},
		{"QUIT", actionQuit},
		{"exit", actionQuit},
		{"help", actionHelp},
		{"deploy", actionUnknown},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, parseConsoleLine(tt.line), "line %q", tt.line)
	}
}
