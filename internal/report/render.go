package report

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/scenariowatch/internal/result"
)

const indent = 2

// Render returns the report for one result: the suite tree when enabled,
// followed by the stats summary. An errored result renders as a single
// error line.
func Render(res result.Result, opts Options) []Line {
	if res.IsError() {
		return []Line{ErrorLine(res.Error)}
	}
	lines := RenderTree(res, opts)
	return append(lines, SummaryLine(res.Stats))
}

// RenderTree returns only the suite tree, or nil when the scenariodoc option
// suppresses it for this outcome.
func RenderTree(res result.Result, opts Options) []Line {
	if res.IsError() {
		return []Line{ErrorLine(res.Error)}
	}
	if !opts.ScenarioDoc.Enabled(res.Passed) {
		return nil
	}

	w := &treeWriter{passed: res.Passed, opts: opts}
	for _, s := range res.Suites {
		w.suite(s, 0)
	}
	return w.lines
}

// ErrorLine formats an infrastructure error.
func ErrorLine(msg string) Line {
	return Line{Kind: KindError, Text: "An error occurred: " + msg}
}

// SummaryLine formats the one-line stats summary.
func SummaryLine(stats result.Stats) Line {
	kind := KindSuccess
	if stats.Failures > 0 {
		kind = KindFailure
	}
	return Line{Kind: kind, Text: SummaryText(stats)}
}

// SummaryText is the bare "N scenarios, M failures" text.
func SummaryText(stats result.Stats) string {
	return fmt.Sprintf("%d scenarios, %d failures", stats.Scenarios, stats.Failures)
}

type treeWriter struct {
	passed bool
	opts   Options
	lines  []Line
}

func (w *treeWriter) emit(kind Kind, level int, text string) {
	w.lines = append(w.lines, Line{Kind: kind, Level: level, Text: text})
}

// showPassing reports whether passing detail is visible in this run.
func (w *treeWriter) showPassing() bool {
	return w.passed || !w.opts.Focus
}

func (w *treeWriter) suite(s result.Suite, level int) {
	if !w.showPassing() && !s.HasFailures() {
		return
	}

	w.emit(KindSuiteHeader, level, s.Description)

	for _, sc := range s.Scenarios {
		w.scenario(sc, level+indent)
	}
	for _, child := range s.Suites {
		w.suite(child, level+indent)
	}
}

func (w *treeWriter) scenario(sc result.Scenario, level int) {
	detail := level + indent

	if sc.Passed {
		if !w.showPassing() {
			return
		}
		w.emit(KindSuccess, level, "✔ "+sc.Description)
	} else {
		w.emit(KindFailure, level, "✘ "+sc.Description)
		for _, msg := range sc.Messages {
			w.emit(KindFailure, detail, "➤ "+FormatMessage(msg, false))
		}
	}

	if w.opts.Errors.Enabled(sc.Passed) {
		for _, e := range sc.Errors {
			w.emit(KindFailure, detail, exceptionText(e))
		}
	}

	if w.opts.Console.Enabled(sc.Passed) {
		for _, entry := range sc.Logs {
			for i, part := range strings.Split(entry, "\n") {
				prefix := " "
				if i == 0 {
					prefix = "• "
				}
				w.emit(KindInfo, detail, prefix+part)
			}
		}
	}
}

func exceptionText(e result.ErrorEntry) string {
	text := "➜ Exception: " + FormatMessage(e.Msg, false)
	if e.Trace != nil {
		text += fmt.Sprintf(" in %s on line %s", e.Trace.File, e.Trace.Line)
	}
	return text
}
