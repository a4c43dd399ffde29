package result

// PathResult pairs a scenario path with the result of executing it.
type PathResult struct {
	Path   string
	Result Result
}

// Summary is the outcome of one run over a set of scenario paths.
type Summary struct {
	Passed      bool
	FailedPaths []string
	Scenarios   int
	Failures    int
	Elapsed     float64
}

// Aggregate folds per-path results into a Summary. A single errored or
// failing result fails the whole run. FailedPaths keeps first-seen order and
// holds no duplicates.
func Aggregate(results []PathResult) Summary {
	sum := Summary{Passed: true}
	seen := make(map[string]struct{}, len(results))

	for _, pr := range results {
		sum.Scenarios += pr.Result.Stats.Scenarios
		sum.Failures += pr.Result.Stats.Failures
		sum.Elapsed += pr.Result.Stats.Time

		if !pr.Result.Failed() {
			continue
		}
		sum.Passed = false
		if _, ok := seen[pr.Path]; ok {
			continue
		}
		seen[pr.Path] = struct{}{}
		sum.FailedPaths = append(sum.FailedPaths, pr.Path)
	}

	return sum
}
