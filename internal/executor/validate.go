package executor

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"golang.org/x/mod/semver"
)

// DefaultRunner is looked up on PATH when no runner is configured.
const DefaultRunner = "casperjs"

// MinVersion is the oldest supported runner version.
const MinVersion = "0.6.6"

const versionTimeout = 10 * time.Second

var versionPattern = regexp.MustCompile(`(\d+\.)*\d+`)

// Which returns the absolute path of name on PATH, or "" when missing.
func Which(name string) string {
	path, err := exec.LookPath(name)
	if err != nil {
		return ""
	}
	return path
}

// Validate checks that bin exists and reports a version of at least minVersion. It
// returns the detected version.
func Validate(ctx context.Context, bin, minVersion string) (string, error) {
	if bin == "" {
		return "", &ExecutableError{Reason: "Scenario runner executable couldn't be auto detected."}
	}

	ctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, bin, "--version").Output()
	if err != nil {
		return "", &ExecutableError{Bin: bin, Reason: fmt.Sprintf("Scenario runner executable doesn't exist at %s", bin)}
	}

	raw := strings.TrimSpace(string(out))
	version := versionPattern.FindString(raw)
	if version == "" {
		return "", &ExecutableError{Bin: bin, Reason: fmt.Sprintf("Scenario runner reports unknown version format: %s", raw)}
	}

	if minVersion != "" && compareVersions(version, minVersion) < 0 {
		return version, &ExecutableError{Bin: bin, Reason: fmt.Sprintf("Scenario runner executable at %s must be at least version %s", bin, minVersion)}
	}
	return version, nil
}

// compareVersions compares dotted numeric versions with semver ordering.
func compareVersions(a, b string) int {
	return semver.Compare(canonical(a), canonical(b))
}

// canonical turns "1.5" into "v1.5" and drops components beyond patch level.
func canonical(v string) string {
	parts := strings.Split(strings.TrimPrefix(v, "v"), ".")
	if len(parts) > 3 {
		parts = parts[:3]
	}
	for i, p := range parts {
		parts[i] = strings.TrimLeft(p, "0")
		if parts[i] == "" {
			parts[i] = "0"
		}
	}
	return "v" + strings.Join(parts, ".")
}
