// Package result decodes the structured output of the scenario runner and
// folds per-path results into a run summary.
package result

import (
	"encoding/json"
	"strconv"
)

// Trace locates an exception inside the page under test.
type Trace struct {
	File string `json:"file"`
	Line string `json:"line"`
}

// UnmarshalJSON accepts the line as either a string or a number.
func (t *Trace) UnmarshalJSON(data []byte) error {
	var raw struct {
		File string          `json:"file"`
		Line json.RawMessage `json:"line"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	t.File = raw.File
	t.Line = ""
	if len(raw.Line) == 0 || string(raw.Line) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw.Line, &s); err == nil {
		t.Line = s
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(raw.Line, &n); err != nil {
		return err
	}
	t.Line = n.String()
	return nil
}

// ErrorEntry is an exception captured while a scenario ran.
type ErrorEntry struct {
	Msg   string `json:"msg"`
	Trace *Trace `json:"trace,omitempty"`
}

// Scenario is one assertion-bearing test case.
type Scenario struct {
	Description string       `json:"description"`
	Passed      bool         `json:"passed"`
	Messages    []string     `json:"messages,omitempty"`
	Logs        []string     `json:"logs,omitempty"`
	Errors      []ErrorEntry `json:"errors,omitempty"`
}

// Suite groups scenarios and nested suites.
type Suite struct {
	Description string     `json:"description"`
	Scenarios   []Scenario `json:"scenarios,omitempty"`
	Suites      []Suite    `json:"suites,omitempty"`
}

// HasFailures reports whether the suite or any nested suite contains a
// failing scenario.
func (s Suite) HasFailures() bool {
	for _, sc := range s.Scenarios {
		if !sc.Passed {
			return true
		}
	}
	for _, child := range s.Suites {
		if child.HasFailures() {
			return true
		}
	}
	return false
}

// Stats holds the runner's own counters for one execution.
type Stats struct {
	Scenarios int     `json:"scenarios"`
	Failures  int     `json:"failures"`
	Time      float64 `json:"time"`
}

// ElapsedString formats the elapsed seconds without trailing zeros.
func (s Stats) ElapsedString() string {
	return strconv.FormatFloat(s.Time, 'f', -1, 64)
}

// Result is the decoded payload for one executed scenario path. A non-empty
// Error marks an infrastructure failure; the remaining fields are then unset.
type Result struct {
	Error  string  `json:"error,omitempty"`
	Raw    string  `json:"-"`
	Passed bool    `json:"passed"`
	Stats  Stats   `json:"stats"`
	Suites []Suite `json:"suites,omitempty"`
}

// Errored creates an infrastructure-failure result.
func Errored(msg string) Result {
	return Result{Error: msg}
}

// IsError reports whether the result carries an infrastructure error.
func (r Result) IsError() bool {
	return r.Error != ""
}

// Failed reports whether the result counts as a failure for aggregation.
func (r Result) Failed() bool {
	return r.IsError() || !r.Passed
}

// FailingScenarios returns every failing scenario in pre-order.
func (r Result) FailingScenarios() []Scenario {
	var out []Scenario
	var walk func(suites []Suite)
	walk = func(suites []Suite) {
		for _, s := range suites {
			for _, sc := range s.Scenarios {
				if !sc.Passed {
					out = append(out, sc)
				}
			}
			walk(s.Suites)
		}
	}
	walk(r.Suites)
	return out
}
