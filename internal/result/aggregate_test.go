package result

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func passed(scenarios int) Result {
	return Result{Passed: true, Stats: Stats{Scenarios: scenarios}}
}

func failed(scenarios, failures int) Result {
	return Result{Passed: false, Stats: Stats{Scenarios: scenarios, Failures: failures}}
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name       string
		in         []PathResult
		wantPassed bool
		wantFailed []string
	}{
		{
			name:       "empty",
			wantPassed: true,
		},
		{
			name:       "all passed",
			in:         []PathResult{{"a.js", passed(2)}, {"b.js", passed(1)}},
			wantPassed: true,
		},
		{
			name:       "one assertion failure",
			in:         []PathResult{{"a.js", passed(2)}, {"b.js", failed(1, 1)}},
			wantFailed: []string{"b.js"},
		},
		{
			name:       "infrastructure error fails the batch",
			in:         []PathResult{{"a.js", passed(2)}, {"b.js", Errored(NoResponse)}},
			wantFailed: []string{"b.js"},
		},
		{
			name:       "duplicate paths collapse",
			in:         []PathResult{{"a.js", failed(1, 1)}, {"a.js", Errored("boom")}, {"c.js", failed(2, 1)}},
			wantFailed: []string{"a.js", "c.js"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sum := Aggregate(tt.in)
			assert.Equal(t, tt.wantPassed, sum.Passed)
			assert.Equal(t, tt.wantFailed, sum.FailedPaths)
		})
	}
}

func TestAggregate_Totals(t *testing.T) {
	a := passed(2)
	a.Stats.Time = 0.5
	b := failed(3, 1)
	b.Stats.Time = 0.25

	sum := Aggregate([]PathResult{{"a.js", a}, {"b.js", b}})

	assert.Equal(t, 5, sum.Scenarios)
	assert.Equal(t, 1, sum.Failures)
	assert.InDelta(t, 0.75, sum.Elapsed, 1e-9)
}
