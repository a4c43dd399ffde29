package report

import (
	"fmt"
	"strings"
)

// Option is a tri-state verbosity switch.
type Option string

// Verbosity values.
const (
	Always  Option = "always"
	Never   Option = "never"
	Failure Option = "failure"
)

// ParseOption converts a config value into an Option.
func ParseOption(s string) (Option, error) {
	switch o := Option(strings.ToLower(strings.TrimSpace(s))); o {
	case Always, Never, Failure:
		return o, nil
	default:
		return "", fmt.Errorf("invalid option %q (expected always, never or failure)", s)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Option) UnmarshalText(text []byte) error {
	parsed, err := ParseOption(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (o Option) MarshalText() ([]byte, error) {
	return []byte(o), nil
}

// Enabled reports whether output guarded by o is shown for something that
// passed or failed.
func (o Option) Enabled(passed bool) bool {
	return o == Always || (o == Failure && !passed)
}

// Options selects how much of a result is rendered.
type Options struct {
	ScenarioDoc Option
	Console     Option
	Errors      Option
	// Focus hides passing detail when the enclosing run failed.
	Focus bool
}

// DefaultOptions returns the defaults used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		ScenarioDoc: Failure,
		Console:     Failure,
		Errors:      Failure,
		Focus:       true,
	}
}
