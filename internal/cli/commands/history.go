package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/scenariowatch/internal/cli/output"
	"github.com/leapstack-labs/scenariowatch/internal/state"
)

// HistoryOptions holds options for the history command.
type HistoryOptions struct {
	Limit int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	opts := &HistoryOptions{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent scenario runs",
		Long: `List recent scenario runs from the run history database.

Every run started by run or watch is recorded with its trigger, the
scenario paths it ran and the scenario and failure counts.`,
		Example: `  # Show the last 20 runs
  scenariowatch history

  # Show the per-path results of one run
  scenariowatch history show 0b6f1c3e-...`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistoryList(cmd, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "Number of runs to show (0 for all)")
	cmd.AddCommand(newHistoryShowCommand())

	return cmd
}

func newHistoryShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the per-path results of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryShow(cmd, args[0])
		},
	}
}

func openHistoryForCommand(cc *CommandContext) (state.Store, error) {
	if cc.Cfg.HistoryPath == "" {
		return nil, fmt.Errorf("run history is disabled (history_path is empty)")
	}
	return openHistory(cc.Cfg.HistoryPath, cc.Logger)
}

func runHistoryList(cmd *cobra.Command, opts *HistoryOptions) error {
	cc := NewCommandContext(cmd)
	store, err := openHistoryForCommand(cc)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	runs, err := store.ListRuns(cmd.Context(), opts.Limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	r := cc.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(runs)
	}
	if len(runs) == 0 {
		r.Println("No runs recorded yet")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.Writer())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Run", "Started", "Trigger", "Status", "Scenarios", "Failures", "Duration", "Paths"})
	for _, run := range runs {
		t.AppendRow(table.Row{
			run.ID,
			run.StartedAt.Local().Format(time.DateTime),
			run.Trigger,
			statusCell(r, string(run.Status)),
			run.Scenarios,
			run.Failures,
			formatDuration(run.Duration()),
			summarizePaths(run.Paths),
		})
	}
	t.Render()
	return nil
}

func runHistoryShow(cmd *cobra.Command, id string) error {
	cc := NewCommandContext(cmd)
	store, err := openHistoryForCommand(cc)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ctx := cmd.Context()
	run, err := store.GetRun(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get run %s: %w", id, err)
	}
	records, err := store.GetRunResults(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get results of run %s: %w", id, err)
	}

	r := cc.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(struct {
			Run     *state.Run          `json:"run"`
			Results []*state.PathRecord `json:"results"`
		}{run, records})
	}

	r.Header("Run " + run.ID)
	r.StatusLine("trigger", run.Trigger)
	r.StatusLine("status", statusCell(r, string(run.Status)))
	r.StatusLine("started", run.StartedAt.Local().Format(time.DateTime))
	r.StatusLine("duration", formatDuration(run.Duration()))
	r.StatusLine("scenarios", fmt.Sprintf("%d scenarios, %d failures", run.Scenarios, run.Failures))
	r.Println("")

	t := table.NewWriter()
	t.SetOutputMirror(r.Writer())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Path", "Status", "Scenarios", "Failures", "Time", "Error"})
	for _, rec := range records {
		t.AppendRow(table.Row{
			rec.Seq + 1,
			rec.Path,
			statusCell(r, string(rec.Status)),
			rec.Scenarios,
			rec.Failures,
			fmt.Sprintf("%.2fs", rec.Elapsed),
			rec.Error,
		})
	}
	t.Render()
	return nil
}

func statusCell(r *output.Renderer, status string) string {
	styles := r.Styles()
	switch status {
	case string(state.RunStatusPassed):
		return styles.Success.Render(status)
	case string(state.RunStatusFailed), string(state.PathStatusError):
		return styles.Error.Render(status)
	default:
		return styles.Muted.Render(status)
	}
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return d.Round(10 * time.Millisecond).String()
}

func summarizePaths(paths []string) string {
	const maxShown = 2
	if len(paths) <= maxShown {
		return strings.Join(paths, ", ")
	}
	return fmt.Sprintf("%s (+%d more)", strings.Join(paths[:maxShown], ", "), len(paths)-maxShown)
}
