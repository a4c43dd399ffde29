// Package cli provides the command-line interface for scenariowatch.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/scenariowatch/internal/cli/commands"
	"github.com/leapstack-labs/scenariowatch/internal/cli/config"
	"github.com/leapstack-labs/scenariowatch/internal/server"
)

var cfgFile string

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// newLogger builds the CLI logger. Debug with verbose, warnings otherwise.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "scenariowatch",
		Short: "scenariowatch - browser scenario runner with file watching",
		Long: `scenariowatch runs browser automation scenarios through an external
runner, renders a hierarchical report and notifies you about failures.

In watch mode it reruns the scenarios affected by every file change,
keeps failed scenarios in the next run until they pass, and runs the
whole suite again once everything is green.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" || cmd.Name() == "init" {
				return nil
			}

			flags := cmd.Root().PersistentFlags()
			verbose, _ := flags.GetBool("verbose")
			logger := newLogger(cmd.ErrOrStderr(), verbose)

			cfg, err := config.LoadConfig(cfgFile, flags, logger)
			if err != nil {
				return err
			}
			if cfg.Verbose && !verbose {
				logger = newLogger(cmd.ErrOrStderr(), true)
			}

			ctx := context.WithValue(cmd.Context(), config.LoggerKey(), logger)
			cmd.SetContext(ctx)

			if configFile := config.GetConfigFileUsed(); configFile != "" {
				logger.Debug("using config file", "path", configFile)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: ./scenariowatch.yaml)")
	pf.BoolP("verbose", "v", false, "Verbose output")
	pf.Bool("no-color", false, "Disable coloured output")
	pf.StringP("output", "o", "", "Output format (auto|text|json)")
	pf.Int("port", 0, "Port the scenario server listens on")
	pf.String("base-url", "", "URL of the scenario page (default: http://localhost:<port>/casper)")
	pf.String("server", "", "Server strategy (none|auto|static|command)")
	pf.String("server-env", "", "Environment handed to the scenario server")
	pf.String("runner", "", "Path to the scenario runner executable")
	pf.Duration("timeout", 0, "Runner timeout per scenario path")
	pf.String("history", "", "Path to the run history database (empty disables it)")
	pf.String("scenariodoc", "", "Show the scenario tree (always|never|failure)")
	pf.String("console", "", "Show captured console logs (always|never|failure)")
	pf.String("errors", "", "Show runtime errors (always|never|failure)")
	pf.Bool("focus", true, "Hide passing scenarios when a run fails")
	pf.Bool("notification", true, "Send desktop notifications")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"auto", "text", "json"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("server", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return server.Strategies, cobra.ShellCompDirectiveNoFileComp
	})
	for _, name := range []string{"scenariodoc", "console", "errors"} {
		_ = rootCmd.RegisterFlagCompletionFunc(name, func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
			return []string{"always", "never", "failure"}, cobra.ShellCompDirectiveNoFileComp
		})
	}

	rootCmd.AddCommand(commands.NewVersionCommand(Version, GitCommit, BuildDate))
	rootCmd.AddCommand(commands.NewRunCommand())
	rootCmd.AddCommand(commands.NewWatchCommand())
	rootCmd.AddCommand(commands.NewDoctorCommand())
	rootCmd.AddCommand(commands.NewHistoryCommand())
	rootCmd.AddCommand(commands.NewInitCommand())
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		if !commands.IsReported(err) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return err
	}
	return nil
}

// NewCompletionCommand creates the completion command.
func NewCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for scenariowatch.

To load completions:

Bash:
  $ source <(scenariowatch completion bash)

Zsh:
  $ scenariowatch completion zsh > "${fpath[1]}/_scenariowatch"

Fish:
  $ scenariowatch completion fish | source

PowerShell:
  PS> scenariowatch completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
	return cmd
}
