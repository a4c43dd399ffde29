// Package notify decides which run events become desktop notifications and
// delivers them.
package notify

import (
	"fmt"

	"github.com/leapstack-labs/scenariowatch/internal/report"
	"github.com/leapstack-labs/scenariowatch/internal/result"
)

// Notification titles.
const (
	TitleError        = "Scenario error"
	TitleScenarioFail = "Scenario failed"
	TitleSuitePassed  = "Suite passed"
	TitleSuiteFailed  = "Suite failed"
)

// Image tags understood by notifiers.
const (
	ImageSuccess = "success"
	ImageFailed  = "failed"
)

// PriorityHigh marks failure notifications.
const PriorityHigh = 2

// Request is one notification to deliver.
type Request struct {
	Title    string
	Body     string
	Priority int
	Image    string
}

// Options controls dispatching.
type Options struct {
	Enabled        bool
	HideSuccess    bool
	MaxErrorNotify int
}

// Dispatcher turns results into notification requests. The per-scenario cap
// counts across every result dispatched through the same Dispatcher, so one
// Dispatcher is created per run.
type Dispatcher struct {
	opts Options
	sent int
}

// NewDispatcher creates a Dispatcher for a single run.
func NewDispatcher(opts Options) *Dispatcher {
	return &Dispatcher{opts: opts}
}

// Dispatch returns the notifications for one result in delivery order.
func (d *Dispatcher) Dispatch(res result.Result) []Request {
	if !d.opts.Enabled {
		return nil
	}

	if res.IsError() {
		return []Request{{
			Title:    TitleError,
			Body:     res.Error,
			Priority: PriorityHigh,
			Image:    ImageFailed,
		}}
	}

	var out []Request
	for _, sc := range res.FailingScenarios() {
		if d.sent >= d.opts.MaxErrorNotify {
			break
		}
		d.sent++
		out = append(out, Request{
			Title:    TitleScenarioFail,
			Body:     fmt.Sprintf("%s: %s", sc.Description, report.JoinMessages(sc.Messages)),
			Priority: PriorityHigh,
			Image:    ImageFailed,
		})
	}

	body := fmt.Sprintf("%s\nin %s seconds", report.SummaryText(res.Stats), res.Stats.ElapsedString())
	switch {
	case !res.Passed:
		out = append(out, Request{
			Title:    TitleSuiteFailed,
			Body:     body,
			Priority: PriorityHigh,
			Image:    ImageFailed,
		})
	case !d.opts.HideSuccess:
		out = append(out, Request{
			Title: TitleSuitePassed,
			Body:  body,
			Image: ImageSuccess,
		})
	}
	return out
}
