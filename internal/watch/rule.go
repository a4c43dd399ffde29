package watch

import (
	"fmt"
	"regexp"
)

// DefaultPattern matches the scenario files of a conventional project layout.
const DefaultPattern = `^scenario/.+\.(js|coffee)$`

// Rule maps a changed file to the scenario path that should run.
type Rule struct {
	Pattern *regexp.Regexp
	// Target is expanded with the submatches of Pattern ($1, ${name}).
	// Empty means the changed file itself.
	Target string
}

// NewRule compiles pattern into a Rule.
func NewRule(pattern, target string) (Rule, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Rule{}, fmt.Errorf("invalid watch pattern %q: %w", pattern, err)
	}
	return Rule{Pattern: re, Target: target}, nil
}

// Match returns the mapped path for rel, a slash separated path relative to
// the watched root.
func (r Rule) Match(rel string) (string, bool) {
	m := r.Pattern.FindStringSubmatchIndex(rel)
	if m == nil {
		return "", false
	}
	if r.Target == "" {
		return rel, true
	}
	return string(r.Pattern.ExpandString(nil, r.Target, rel, m)), true
}

// MatchAll applies every rule to rel in order and returns the distinct targets.
func MatchAll(rules []Rule, rel string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, r := range rules {
		target, ok := r.Match(rel)
		if !ok || seen[target] {
			continue
		}
		seen[target] = true
		out = append(out, target)
	}
	return out
}
