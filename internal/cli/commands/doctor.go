package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/scenariowatch/internal/cli/config"
	"github.com/leapstack-labs/scenariowatch/internal/cli/output"
	"github.com/leapstack-labs/scenariowatch/internal/executor"
	"github.com/leapstack-labs/scenariowatch/internal/server"
)

// Check statuses.
const (
	statusPass  = "pass"
	statusWarn  = "warn"
	statusError = "error"
)

// DoctorOptions holds options for the doctor command.
type DoctorOptions struct {
	Format string // Output format: text, json
}

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	opts := &DoctorOptions{}
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that scenarios can run in this project",
		Long: `Check the scenario runner, the scenario server and the project layout.

The doctor command reports:
- Runner: executable location and version
- Server: strategy, base URL reachability, server root
- Project: config file, scenario paths, watch rules, run history`,
		Example: `  # Run the checks
  scenariowatch doctor

  # Output as JSON
  scenariowatch doctor --format json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, json")

	return cmd
}

// DoctorOutput is the JSON output for the doctor command.
type DoctorOutput struct {
	ConfigFile string        `json:"config_file,omitempty"`
	Checks     []HealthCheck `json:"checks"`
	Errors     int           `json:"errors"`
	Warnings   int           `json:"warnings"`
}

// HealthCheck represents a single check result.
type HealthCheck struct {
	Group  string `json:"group"`
	Name   string `json:"name"`
	Status string `json:"status"` // "pass", "warn", "error"
	Detail string `json:"detail,omitempty"`
}

// doctorServer is the part of server.Manager the checks use.
type doctorServer interface {
	Resolve(strategy string) string
	IsReachable(ctx context.Context, url string) bool
}

func runDoctor(cmd *cobra.Command, opts *DoctorOptions) error {
	cc := NewCommandContext(cmd)
	r := cc.Renderer
	if opts.Format != "" {
		r = output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(opts.Format), cc.Cfg.NoColor)
	}

	srv := server.New(server.Config{Root: cc.Cfg.ServerRoot, Command: cc.Cfg.ServerCommand, Logger: cc.Logger})
	out := buildDoctorOutput(cmd.Context(), cc, srv)

	if r.EffectiveMode() == output.ModeJSON {
		if err := r.JSON(out); err != nil {
			return err
		}
	} else {
		renderDoctorText(r, out)
	}

	if out.Errors > 0 {
		return fmt.Errorf("doctor found %d problem(s)", out.Errors)
	}
	return nil
}

func buildDoctorOutput(ctx context.Context, cc *CommandContext, srv doctorServer) *DoctorOutput {
	cfg := cc.Cfg
	out := &DoctorOutput{ConfigFile: config.GetConfigFileUsed()}
	add := func(group, name, status, detail string) {
		out.Checks = append(out.Checks, HealthCheck{Group: group, Name: name, Status: status, Detail: detail})
		switch status {
		case statusError:
			out.Errors++
		case statusWarn:
			out.Warnings++
		}
	}

	// Runner
	bin := cc.RunnerBin()
	if version, err := executor.Validate(ctx, bin, cfg.RunnerMinVersion); err != nil {
		add("runner", "executable", statusError, err.Error())
	} else {
		add("runner", "executable", statusPass, fmt.Sprintf("%s (version %s)", bin, version))
	}

	// Server
	strategy := srv.Resolve(cfg.Server)
	add("server", "strategy", statusPass, strategyDetail(cfg, strategy))
	if srv.IsReachable(ctx, cfg.BaseURL) {
		add("server", "base url", statusPass, cfg.BaseURL+" is reachable")
	} else if strategy == server.StrategyNone {
		add("server", "base url", statusError, cfg.BaseURL+" is not reachable and no server is started")
	} else {
		add("server", "base url", statusWarn, cfg.BaseURL+" is not reachable yet, it is started by watch and run")
	}

	// Project
	if out.ConfigFile != "" {
		add("project", "config file", statusPass, out.ConfigFile)
	} else {
		add("project", "config file", statusWarn, "no scenariowatch.yaml found, using defaults (run scenariowatch init)")
	}
	var missing []string
	for _, p := range cfg.ScenarioPaths {
		if _, err := os.Stat(resolvePath(cfg.ProjectRoot, p)); err != nil {
			missing = append(missing, p)
		}
	}
	if len(missing) > 0 {
		add("project", "scenario paths", statusError, "missing: "+strings.Join(missing, ", "))
	} else {
		add("project", "scenario paths", statusPass, strings.Join(cfg.ScenarioPaths, ", "))
	}
	if _, err := cfg.WatchRules(); err != nil {
		add("project", "watch rules", statusError, err.Error())
	} else {
		add("project", "watch rules", statusPass, fmt.Sprintf("%d rule(s)", len(cfg.Watch)))
	}
	if cfg.HistoryPath == "" {
		add("project", "run history", statusWarn, "disabled")
	} else {
		add("project", "run history", statusPass, cfg.HistoryPath)
	}

	return out
}

func strategyDetail(cfg *config.Config, strategy string) string {
	switch strategy {
	case server.StrategyStatic:
		return fmt.Sprintf("static, serving %s on port %d", cfg.ServerRoot, cfg.Port)
	case server.StrategyCommand:
		return fmt.Sprintf("command %q on port %d", strings.Join(cfg.ServerCommand, " "), cfg.Port)
	default:
		return strategy
	}
}

func renderDoctorText(r *output.Renderer, out *DoctorOutput) {
	styles := r.Styles()

	r.Println("")
	r.Println(styles.Header1.Render("scenariowatch doctor"))
	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))

	titleCaser := cases.Title(language.English)
	currentGroup := ""
	var t table.Writer
	flush := func() {
		if t != nil {
			t.Render()
		}
	}

	for _, check := range out.Checks {
		if check.Group != currentGroup {
			flush()
			currentGroup = check.Group
			r.Println("")
			r.Println(styles.Header2.Render(titleCaser.String(currentGroup)))
			t = table.NewWriter()
			t.SetOutputMirror(r.Writer())
			t.SetStyle(table.StyleLight)
		}

		icon := styles.Success.Render("✔")
		switch check.Status {
		case statusWarn:
			icon = styles.Warning.Render("!")
		case statusError:
			icon = styles.Error.Render("✘")
		}
		t.AppendRow(table.Row{icon, check.Name, check.Detail})
	}
	flush()
	r.Println("")

	summary := fmt.Sprintf("%d error(s), %d warning(s)", out.Errors, out.Warnings)
	switch {
	case out.Errors > 0:
		r.Println(styles.Error.Render(summary))
	case out.Warnings > 0:
		r.Println(styles.Warning.Render(summary))
	default:
		r.Println(styles.Success.Render("All checks passed"))
	}
}
