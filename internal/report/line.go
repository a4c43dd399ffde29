// Package report turns decoded scenario results into ordered, sink-agnostic
// output lines.
package report

import "strings"

// Kind is the semantic category of a line.
type Kind int

// Line kinds.
const (
	KindInfo Kind = iota
	KindSuccess
	KindFailure
	KindError
	KindSuiteHeader
)

func (k Kind) String() string {
	switch k {
	case KindInfo:
		return "info"
	case KindSuccess:
		return "success"
	case KindFailure:
		return "failure"
	case KindError:
		return "error"
	case KindSuiteHeader:
		return "suite-header"
	default:
		return "unknown"
	}
}

// Line is one rendered line. Level is the indentation in spaces.
type Line struct {
	Kind  Kind
	Level int
	Text  string
}

// String returns the indented text.
func (l Line) String() string {
	return strings.Repeat(" ", l.Level) + l.Text
}
