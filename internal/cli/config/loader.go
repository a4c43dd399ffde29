package config

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/leapstack-labs/scenariowatch/internal/report"
)

// loggerKey is used to store logger in context.
type loggerKey struct{}

// EnvPrefix prefixes every environment variable read by the loader.
const EnvPrefix = "SCENARIOWATCH_"

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

// Package-level koanf instance and config file tracking
var (
	k              = koanf.New(".")
	configFileUsed string
	currentConfig  *Config
)

// configIn returns the config file inside dir, or "".
func configIn(dir string) string {
	for _, name := range ConfigFileNames {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// findProjectRootUpward searches upward from startDir for a config file.
// Returns empty string if not found within maxUpwardSearchLevels.
func findProjectRootUpward(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if configIn(dir) != "" {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// inferProjectRoot determines the project root.
// Priority:
//  1. Directory of an explicit config file
//  2. Search upward from CWD for scenariowatch.yaml
//  3. Current working directory
func inferProjectRoot(cfgFile string) string {
	if cfgFile != "" {
		if abs, err := filepath.Abs(cfgFile); err == nil {
			return filepath.Dir(abs)
		}
	}
	cwd, err := os.Getwd()
	if err != nil || cwd == "" {
		return "."
	}
	if root := findProjectRootUpward(cwd); root != "" {
		return root
	}
	return cwd
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
// Returns the path unchanged if it's empty or already absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
	currentConfig = nil
}

func defaultsMap() map[string]any {
	d := Default()
	watch := make([]any, 0, len(d.Watch))
	for _, w := range d.Watch {
		watch = append(watch, map[string]any{"pattern": w.Pattern, "target": w.Target})
	}
	return map[string]any{
		"server":             d.Server,
		"server_env":         d.ServerEnv,
		"server_root":        d.ServerRoot,
		"server_command":     []string{},
		"port":               d.Port,
		"base_url":           "",
		"runner_bin":         "",
		"runner_args":        []string{},
		"runner_min_version": d.RunnerMinVersion,
		"timeout":            d.Timeout.String(),
		"scenario_paths":     d.ScenarioPaths,
		"notification":       d.Notification,
		"hide_success":       d.HideSuccess,
		"max_error_notify":   d.MaxErrorNotify,
		"all_on_start":       d.AllOnStart,
		"keep_failed":        d.KeepFailed,
		"all_after_pass":     d.AllAfterPass,
		"scenariodoc":        string(d.ScenarioDoc),
		"console":            string(d.Console),
		"errors":             string(d.Errors),
		"focus":              d.Focus,
		"clear":              d.Clear,
		"no_color":           d.NoColor,
		"verbose":            d.Verbose,
		"output":             d.Output,
		"history_path":       d.HistoryPath,
		"watch":              watch,
		"debounce":           d.Debounce.String(),
	}
}

func isOption(v string) bool {
	_, err := report.ParseOption(v)
	return err == nil
}

// flagKeys maps CLI flag names whose config key is not the snake_case name.
var flagKeys = map[string]string{
	"history": "history_path",
	"runner":  "runner_bin",
}

// LoadConfig loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func LoadConfig(cfgFile string, flags *pflag.FlagSet, logger *slog.Logger) (*Config, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	k = koanf.New(".")

	projectRoot := inferProjectRoot(cfgFile)

	// 1. Defaults
	if err := k.Load(confmap.Provider(defaultsMap(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	if cfgFile == "" {
		cfgFile = configIn(projectRoot)
	}
	configFileUsed = cfgFile
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Environment variables: SCENARIOWATCH_BASE_URL -> base_url
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags that were explicitly set
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed || f.Name == "config" {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			if mapped, ok := flagKeys[f.Name]; ok {
				key = mapped
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Tri-state options
	if v := k.String("scenariodoc"); !isOption(v) {
		logger.Warn("unknown scenariodoc option, using failure", "value", v)
		if err := k.Set("scenariodoc", string(report.Failure)); err != nil {
			return nil, err
		}
	}
	for _, key := range []string{"console", "errors"} {
		if _, err := report.ParseOption(k.String(key)); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", key, err)
		}
	}

	// 6. Unmarshal
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
				mapstructure.TextUnmarshallerHookFunc(),
			),
			Result:           &cfg,
			WeaklyTypedInput: true,
		},
	}); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// 7. Derived values and path resolution
	cfg.ProjectRoot = projectRoot
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL(cfg.Port)
	}
	cfg.RunnerBin = expandEnvVars(cfg.RunnerBin)
	for i, a := range cfg.RunnerArgs {
		cfg.RunnerArgs[i] = expandEnvVars(a)
	}
	for i, a := range cfg.ServerCommand {
		cfg.ServerCommand[i] = expandEnvVars(a)
	}
	cfg.ServerRoot = resolvePathRelativeTo(cfg.ServerRoot, projectRoot)
	cfg.HistoryPath = resolvePathRelativeTo(cfg.HistoryPath, projectRoot)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	currentConfig = &cfg
	return &cfg, nil
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the currently loaded configuration.
func GetCurrentConfig() *Config {
	return currentConfig
}

// LoggerKey returns the context key used for storing the logger.
// This allows the commands package to retrieve the logger from context
// without creating an import cycle with the cli package.
func LoggerKey() interface{} {
	return loggerKey{}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})
}
