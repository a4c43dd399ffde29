package executor

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/scenariowatch/internal/testutil"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		output      string
		wantVersion string
		wantErr     string
	}{
		{name: "current", output: "1.1.4", wantVersion: "1.1.4"},
		{name: "development suffix", output: "1.5 (development)", wantVersion: "1.5"},
		{name: "exact minimum", output: "0.6.6", wantVersion: "0.6.6"},
		{name: "too old", output: "0.6.5", wantVersion: "0.6.5", wantErr: "must be at least version 0.6.6"},
		{name: "unknown format", output: "unknown", wantErr: "reports unknown version format: unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bin := testutil.WriteScript(t, "casperjs", "echo '"+tt.output+"'\n")

			version, err := Validate(context.Background(), bin, MinVersion)

			assert.Equal(t, tt.wantVersion, version)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			var exeErr *ExecutableError
			require.ErrorAs(t, err, &exeErr)
			assert.Contains(t, exeErr.Error(), tt.wantErr)
		})
	}
}

func TestValidate_Missing(t *testing.T) {
	_, err := Validate(context.Background(), "", MinVersion)
	assert.EqualError(t, err, "Scenario runner executable couldn't be auto detected.")

	missing := filepath.Join(t.TempDir(), "casperjs")
	_, err = Validate(context.Background(), missing, MinVersion)
	assert.EqualError(t, err, "Scenario runner executable doesn't exist at "+missing)
}

func TestCompareVersions(t *testing.T) {
	assert.Equal(t, 0, compareVersions("0.6.6", "0.6.6"))
	assert.Equal(t, 1, compareVersions("1.0", "0.6.6"))
	assert.Equal(t, -1, compareVersions("0.6.10", "0.7"))
	assert.Equal(t, 1, compareVersions("0.6.10", "0.6.9"))
	assert.Equal(t, 0, compareVersions("1.2.3.4", "1.2.3"))
}
