// Package config loads scenariowatch configuration from defaults, the
// project file, SCENARIOWATCH_* environment variables and CLI flags.
package config

import (
	"fmt"
	"time"

	"github.com/leapstack-labs/scenariowatch/internal/report"
)

// WatchRule maps changed files to scenario paths.
type WatchRule struct {
	Pattern string `koanf:"pattern" yaml:"pattern"`
	Target  string `koanf:"target" yaml:"target,omitempty"`
}

// Config holds all CLI configuration options.
type Config struct {
	Server        string   `koanf:"server"`
	ServerEnv     string   `koanf:"server_env"`
	ServerRoot    string   `koanf:"server_root"`
	ServerCommand []string `koanf:"server_command"`
	Port          int      `koanf:"port"`
	BaseURL       string   `koanf:"base_url"`

	RunnerBin        string        `koanf:"runner_bin"`
	RunnerArgs       []string      `koanf:"runner_args"`
	RunnerMinVersion string        `koanf:"runner_min_version"`
	Timeout          time.Duration `koanf:"timeout"`
	ScenarioPaths    []string      `koanf:"scenario_paths"`

	Notification   bool `koanf:"notification"`
	HideSuccess    bool `koanf:"hide_success"`
	MaxErrorNotify int  `koanf:"max_error_notify"`

	AllOnStart   bool `koanf:"all_on_start"`
	KeepFailed   bool `koanf:"keep_failed"`
	AllAfterPass bool `koanf:"all_after_pass"`

	ScenarioDoc report.Option `koanf:"scenariodoc"`
	Console     report.Option `koanf:"console"`
	Errors      report.Option `koanf:"errors"`
	Focus       bool          `koanf:"focus"`

	Clear   bool   `koanf:"clear"`
	NoColor bool   `koanf:"no_color"`
	Verbose bool   `koanf:"verbose"`
	Output  string `koanf:"output"`

	HistoryPath string        `koanf:"history_path"`
	Watch       []WatchRule   `koanf:"watch"`
	Debounce    time.Duration `koanf:"debounce"`

	// ProjectRoot is the directory relative paths resolve against.
	ProjectRoot string `koanf:"-"`
}

// Default configuration values.
const (
	DefaultServer           = "auto"
	DefaultServerEnv        = "test"
	DefaultServerRoot       = "public"
	DefaultPort             = 8888
	DefaultRunnerMinVersion = "0.6.6"
	DefaultTimeout          = 10 * time.Second
	DefaultScenarioPath     = "scenario"
	DefaultMaxErrorNotify   = 3
	DefaultHistoryFile      = ".scenariowatch/history.db"
	DefaultDebounce         = 200 * time.Millisecond
	DefaultOutput           = "auto"
	DefaultWatchPattern     = `^scenario/.+\.(js|coffee)$`
)

// ConfigFileNames are searched, in order, in the project root.
var ConfigFileNames = []string{"scenariowatch.yaml", "scenariowatch.yml"}

// DefaultBaseURL returns the scenario page URL served on port.
func DefaultBaseURL(port int) string {
	return fmt.Sprintf("http://localhost:%d/casper", port)
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Server:           DefaultServer,
		ServerEnv:        DefaultServerEnv,
		ServerRoot:       DefaultServerRoot,
		ServerCommand:    []string{},
		Port:             DefaultPort,
		RunnerArgs:       []string{},
		RunnerMinVersion: DefaultRunnerMinVersion,
		Timeout:          DefaultTimeout,
		ScenarioPaths:    []string{DefaultScenarioPath},
		Notification:     true,
		MaxErrorNotify:   DefaultMaxErrorNotify,
		AllOnStart:       true,
		KeepFailed:       true,
		AllAfterPass:     true,
		ScenarioDoc:      report.Failure,
		Console:          report.Failure,
		Errors:           report.Failure,
		Focus:            true,
		Output:           DefaultOutput,
		HistoryPath:      DefaultHistoryFile,
		Watch:            []WatchRule{{Pattern: DefaultWatchPattern}},
		Debounce:         DefaultDebounce,
	}
}

// ReportOptions returns the report verbosity options.
func (c *Config) ReportOptions() report.Options {
	return report.Options{
		ScenarioDoc: c.ScenarioDoc,
		Console:     c.Console,
		Errors:      c.Errors,
		Focus:       c.Focus,
	}
}
