package engine

// run.go - trigger handling and the per-path execution loop

import (
	"context"
	"fmt"
	"strings"

	"github.com/leapstack-labs/scenariowatch/internal/notify"
	"github.com/leapstack-labs/scenariowatch/internal/report"
	"github.com/leapstack-labs/scenariowatch/internal/result"
	"github.com/leapstack-labs/scenariowatch/internal/state"
)

// Triggers recorded with each run.
const (
	TriggerAll       = "all"
	TriggerChange    = "change"
	TriggerAfterPass = "all-after-pass"
)

// RunAll runs every configured scenario path. Failure memory is replaced with
// the outcome of this run. Returns ErrTaskFailed when any path failed.
func (e *Engine) RunAll(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.runAllLocked(ctx, TriggerAll)
}

func (e *Engine) runAllLocked(ctx context.Context, trigger string) error {
	paths := dedupe(e.cfg.ScenarioPaths)

	e.cfg.Console.Info("Run all scenario suites", true)
	summary, err := e.run(ctx, trigger, paths)
	if err != nil {
		return err
	}

	e.memory = Memory{
		LastRunFailed: !summary.Passed,
		FailedPaths:   append([]string(nil), summary.FailedPaths...),
	}

	if !summary.Passed {
		return ErrTaskFailed
	}
	return nil
}

// RunOnChange runs the changed paths, plus the remembered failures when
// KeepFailed is set. An empty change set is a no-op. After a passing run that
// follows a failed one, RunAll is triggered when AllAfterPass is set.
func (e *Engine) RunOnChange(ctx context.Context, changed []string) error {
	if len(changed) == 0 {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	changed = dedupe(changed)
	paths := changed
	if e.cfg.KeepFailed {
		paths = dedupe(append(append([]string(nil), changed...), e.memory.FailedPaths...))
	}

	e.cfg.Console.Info(runTitle(paths), true)
	summary, err := e.run(ctx, TriggerChange, paths)
	if err != nil {
		return err
	}

	previousFailed := e.memory.LastRunFailed
	e.memory.LastRunFailed = !summary.Passed

	if !summary.Passed {
		e.memory.FailedPaths = dedupe(append(e.memory.FailedPaths, summary.FailedPaths...))
		return ErrTaskFailed
	}

	e.memory.FailedPaths = without(e.memory.FailedPaths, changed)
	if previousFailed && e.cfg.AllAfterPass {
		e.logger.Debug("previous run failed, confirming with a full run")
		return e.runAllLocked(ctx, TriggerAfterPass)
	}
	return nil
}

func runTitle(paths []string) string {
	noun := "scenarios"
	if len(paths) == 1 {
		noun = "scenario"
	}
	return fmt.Sprintf("Run %s in %s", noun, strings.Join(paths, " "))
}

// run executes paths one at a time and aggregates the results. It returns an
// error only when ctx is cancelled; scenario failures are part of the summary.
func (e *Engine) run(ctx context.Context, trigger string, paths []string) (result.Summary, error) {
	e.setState(StateRunning)
	defer e.setState(StateIdle)

	e.logger.Info("starting run", "trigger", trigger, "paths", len(paths))

	rec := e.beginRecord(ctx, trigger, paths)
	dispatcher := notify.NewDispatcher(e.cfg.Notify)
	results := make([]result.PathResult, 0, len(paths))

	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			rec.cancel(result.Aggregate(results))
			return result.Summary{}, err
		}

		res, err := e.executeOne(ctx, path)
		if err != nil {
			rec.cancel(result.Aggregate(results))
			return result.Summary{}, err
		}

		e.cfg.Console.Lines(report.Render(res, e.cfg.Report))
		notify.Deliver(ctx, e.cfg.Notifier, dispatcher.Dispatch(res), e.logger)

		rec.path(i, path, res)
		results = append(results, result.PathResult{Path: path, Result: res})
	}

	summary := result.Aggregate(results)
	rec.complete(summary)

	e.logger.Info("run finished", "trigger", trigger, "passed", summary.Passed, "failed_paths", summary.FailedPaths)
	if e.cfg.Events != nil {
		e.cfg.Events.Broadcast(notify.RunEvent{Trigger: trigger, Summary: summary})
	}
	return summary, nil
}

// executeOne runs a single path. Execution problems become error results;
// only cancellation of ctx is returned as an error.
func (e *Engine) executeOne(ctx context.Context, path string) (result.Result, error) {
	e.cfg.Console.Info("Run scenario suite at "+e.cfg.Runner.URL(path), false)

	raw, err := e.cfg.Runner.Execute(ctx, path)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result.Result{}, ctxErr
		}
		e.logger.Warn("scenario execution failed", "path", path, "error", err)
		return result.Errored(err.Error()), nil
	}

	res := result.Parse(raw)
	if res.IsError() && res.Raw != "" {
		e.logger.Debug("runner output", "path", path, "raw", res.Raw)
	}
	return res, nil
}

// recorder writes run history; a failing store is logged and ignored.
type recorder struct {
	e   *Engine
	ctx context.Context
	run *state.Run
}

func (e *Engine) beginRecord(ctx context.Context, trigger string, paths []string) *recorder {
	rec := &recorder{e: e, ctx: context.WithoutCancel(ctx)}
	if e.cfg.Store == nil {
		return rec
	}
	run, err := e.cfg.Store.CreateRun(rec.ctx, trigger, paths)
	if err != nil {
		e.logger.Warn("failed to record run", "error", err)
		return rec
	}
	rec.run = run
	return rec
}

func (r *recorder) path(seq int, path string, res result.Result) {
	if r.run == nil {
		return
	}
	if err := r.e.cfg.Store.RecordResult(r.ctx, r.run.ID, seq, path, res); err != nil {
		r.e.logger.Warn("failed to record result", "path", path, "error", err)
	}
}

func (r *recorder) complete(summary result.Summary) {
	status := state.RunStatusPassed
	if !summary.Passed {
		status = state.RunStatusFailed
	}
	r.finish(status, summary)
}

func (r *recorder) cancel(summary result.Summary) {
	r.finish(state.RunStatusCancelled, summary)
}

func (r *recorder) finish(status state.RunStatus, summary result.Summary) {
	if r.run == nil {
		return
	}
	if err := r.e.cfg.Store.CompleteRun(r.ctx, r.run.ID, status, summary); err != nil {
		r.e.logger.Warn("failed to complete run record", "run_id", r.run.ID, "error", err)
	}
}
