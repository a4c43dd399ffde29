package commands

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/leapstack-labs/scenariowatch/internal/engine"
	"github.com/leapstack-labs/scenariowatch/internal/notify"
	"github.com/leapstack-labs/scenariowatch/internal/watch"
)

// WatchOptions holds options for the watch command.
type WatchOptions struct {
	NoConsole bool
}

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	opts := &WatchOptions{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run scenarios whenever watched files change",
		Long: `Start the scenario server, run every scenario and then rerun the
scenarios affected by each file change.

Failed scenario paths are remembered and rerun with the next change until
they pass. When stdin is a terminal an interactive console accepts
commands: press Enter to run everything, "reload" to forget failures,
"quit" to stop.`,
		Example: `  # Watch with the settings from scenariowatch.yaml
  scenariowatch watch

  # Skip the initial full run
  SCENARIOWATCH_ALL_ON_START=false scenariowatch watch`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.NoConsole, "no-console", false, "Disable the interactive console")

	return cmd
}

func runWatch(cmd *cobra.Command, opts *WatchOptions) error {
	cc := NewCommandContext(cmd)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	rules, err := cc.Cfg.WatchRules()
	if err != nil {
		return err
	}

	hub := notify.NewHub()
	events := hub.Subscribe()
	s, err := cc.newSession(engineOptions{AllOnStart: cc.Cfg.AllOnStart, Events: hub})
	if err != nil {
		return err
	}
	defer s.Close()
	defer func() {
		if err := s.Engine.Stop(context.WithoutCancel(cmd.Context())); err != nil {
			cc.Logger.Warn("failed to stop server", "error", err)
		}
	}()

	if err := s.Engine.Start(ctx); err != nil && !errors.Is(err, engine.ErrTaskFailed) {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	w := watch.New(watch.Config{
		Root:     cc.Cfg.ProjectRoot,
		Rules:    rules,
		Debounce: cc.Cfg.Debounce,
		Logger:   cc.Logger,
	}, func(ctx context.Context, paths []string) {
		if err := s.Engine.RunOnChange(ctx, paths); err != nil && !errors.Is(err, engine.ErrTaskFailed) && ctx.Err() == nil {
			cc.Logger.Error("run failed", "paths", paths, "error", err)
		}
	})
	g.Go(func() error {
		return w.Run(gctx)
	})

	var con *console
	if !opts.NoConsole && term.IsTerminal(int(os.Stdin.Fd())) {
		historyFile := ""
		if cc.Cfg.HistoryPath != "" {
			historyFile = filepath.Join(filepath.Dir(cc.Cfg.HistoryPath), "console_history")
		}
		con, err = newConsole(s.Engine, cmd.OutOrStdout(), historyFile, cancel)
		if err != nil {
			return err
		}
		g.Go(func() error {
			return con.Run(gctx)
		})
		g.Go(func() error {
			<-gctx.Done()
			return con.Close()
		})
	}

	g.Go(func() error {
		defer hub.Unsubscribe(events)
		for {
			select {
			case <-gctx.Done():
				return nil
			case ev := <-events:
				cc.Logger.Debug("run completed",
					"trigger", ev.Trigger,
					"passed", ev.Summary.Passed,
					"scenarios", ev.Summary.Scenarios,
					"failures", ev.Summary.Failures,
				)
				if con != nil {
					con.SetPrompt(promptFor(ev))
				}
			}
		}
	})

	return g.Wait()
}
