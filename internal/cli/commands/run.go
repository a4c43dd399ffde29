package commands

import (
	"context"

	"github.com/spf13/cobra"
)

// RunOptions holds options for the run command.
type RunOptions struct {
	Only bool
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run [paths...]",
		Short: "Run all scenarios or specific scenario paths once",
		Long: `Run scenarios once and exit.

Without arguments every configured scenario path runs. With arguments
the given paths run as if they had just changed on disk, with the
failures of the last recorded run remembered: keep_failed reruns those
paths too, and when the run passes after a failed one and all_after_pass
is set, the whole suite runs afterwards. The exit status is non-zero
when any scenario fails.`,
		Example: `  # Run every scenario
  scenariowatch run

  # Run one suite and nothing else
  scenariowatch run --only scenario/login.js

  # Show the full tree even when everything passes
  scenariowatch run --scenariodoc always`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Only, "only", false, "Do not run the whole suite after the given paths pass")

	return cmd
}

func runRun(cmd *cobra.Command, args []string, opts *RunOptions) error {
	cc := NewCommandContext(cmd)
	ctx := cmd.Context()

	if opts.Only {
		cfg := *cc.Cfg
		cfg.AllAfterPass = false
		cc.Cfg = &cfg
	}

	s, err := cc.newSession(engineOptions{AllOnStart: len(args) == 0})
	if err != nil {
		return err
	}
	defer s.Close()

	if len(args) > 0 {
		if err := s.Engine.RestoreMemory(ctx); err != nil {
			cc.Logger.Warn("failed to restore failure memory", "error", err)
		}
	}

	runErr := s.Engine.Start(ctx)
	if runErr == nil && len(args) > 0 {
		runErr = s.Engine.RunOnChange(ctx, args)
	}

	if err := s.Engine.Stop(context.WithoutCancel(ctx)); err != nil {
		cc.Logger.Warn("failed to stop server", "error", err)
	}
	return runErr
}
