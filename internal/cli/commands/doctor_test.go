package commands

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clitestutil "github.com/leapstack-labs/scenariowatch/internal/cli/testutil"
)

func checkByName(t *testing.T, out *DoctorOutput, name string) HealthCheck {
	t.Helper()
	for _, c := range out.Checks {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("check %q not found", name)
	return HealthCheck{}
}

func TestDoctor_AllPassing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfgPath := clitestutil.SetupTestProject(t, clitestutil.PassingOutput)
	t.Setenv("SCENARIOWATCH_BASE_URL", srv.URL)

	out, err := executeCommand(t, NewDoctorCommand(), cfgPath, "--format", "json")
	require.NoError(t, err)

	var doc DoctorOutput
	require.NoError(t, json.Unmarshal([]byte(out), &doc))

	assert.Equal(t, 0, doc.Errors)
	assert.Equal(t, 0, doc.Warnings)
	assert.Equal(t, cfgPath, doc.ConfigFile)
	assert.Contains(t, checkByName(t, &doc, "executable").Detail, "version 1.1.4")
	assert.Equal(t, "none", checkByName(t, &doc, "strategy").Detail)
	assert.Equal(t, statusPass, checkByName(t, &doc, "base url").Status)
}

func TestDoctor_Problems(t *testing.T) {
	cfgPath := clitestutil.SetupTestProject(t, clitestutil.PassingOutput)
	require.NoError(t, os.Remove(filepath.Join(filepath.Dir(cfgPath), "scenario", "login.coffee")))
	t.Setenv("SCENARIOWATCH_RUNNER_BIN", filepath.Join(t.TempDir(), "nope"))
	t.Setenv("SCENARIOWATCH_BASE_URL", "http://127.0.0.1:1/casper")

	out, err := executeCommand(t, NewDoctorCommand(), cfgPath)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "doctor found 3 problem(s)")
	assert.Contains(t, out, "Runner")
	assert.Contains(t, out, "Server")
	assert.Contains(t, out, "Project")
	assert.Contains(t, out, "doesn't exist at")
	assert.Contains(t, out, "missing: scenario/login.coffee")
	assert.Contains(t, out, "3 error(s), 0 warning(s)")
	clitestutil.AssertNoANSI(t, out)
}
