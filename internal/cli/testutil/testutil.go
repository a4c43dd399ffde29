// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/leapstack-labs/scenariowatch/internal/cli/output"
	"github.com/leapstack-labs/scenariowatch/internal/testutil"
)

// PassingOutput is runner output for one passing scenario.
const PassingOutput = `{"passed": true, "stats": {"scenarios": 1, "failures": 0, "time": 0.01},
 "suites": [{"description": "Login", "scenarios": [{"description": "accepts valid credentials", "passed": true}]}]}`

// FailingOutput is runner output for one failing scenario.
const FailingOutput = `{"passed": false, "stats": {"scenarios": 2, "failures": 1, "time": 0.02},
 "suites": [{"description": "Login", "scenarios": [
   {"description": "accepts valid credentials", "passed": true},
   {"description": "rejects bad passwords", "passed": false, "messages": ["Expected false to be true"]}
 ]}]}`

// FakeRunner writes a runner script that reports version 1.1.4 and prints
// out for every scenario run.
func FakeRunner(t *testing.T, out string) string {
	t.Helper()
	return testutil.WriteScript(t, "casperjs", fmt.Sprintf(`if [ "$1" = "--version" ]; then
  echo "1.1.4"
  exit 0
fi
cat <<'JSON'
%s
JSON
`, out))
}

// SetupTestProject creates a temporary project with one scenario, a fake
// runner printing runnerOutput and a scenariowatch.yaml wired to both.
// It returns the path of the config file.
func SetupTestProject(t *testing.T, runnerOutput string) string {
	t.Helper()

	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "scenario"), 0o755); err != nil {
		t.Fatalf("failed to create scenario directory: %v", err)
	}
	scenario := "describe 'Login', ->\n  it 'accepts valid credentials', ->\n"
	if err := os.WriteFile(filepath.Join(dir, "scenario", "login.coffee"), []byte(scenario), 0o644); err != nil {
		t.Fatalf("failed to create scenario: %v", err)
	}

	cfg := fmt.Sprintf(`server: none
runner_bin: %s
notification: false
history_path: .scenariowatch/history.db
scenario_paths: [scenario/login.coffee]
`, FakeRunner(t, runnerOutput))

	cfgPath := filepath.Join(dir, "scenariowatch.yaml")
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o600); err != nil {
		t.Fatalf("failed to create config: %v", err)
	}
	return cfgPath
}

// TestRenderer wraps a Renderer for testing with captured output buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a new test renderer with the specified mode.
func NewTestRenderer(mode output.Mode) *TestRenderer {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRenderer(out, errOut, mode, false),
		Out:      out,
		ErrOut:   errOut,
	}
}

// Output returns the stdout output as a string.
func (tr *TestRenderer) Output() string {
	return tr.Out.String()
}

// ErrorOutput returns the stderr output as a string.
func (tr *TestRenderer) ErrorOutput() string {
	return tr.ErrOut.String()
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}
