package result

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// NoResponse is the error recorded when the runner printed nothing.
const NoResponse = "No response from the test runner"

// payload mirrors the wire format; Passed is a pointer so a missing field
// can be told apart from false.
type payload struct {
	Error  *string `json:"error"`
	Passed *bool   `json:"passed"`
	Stats  Stats   `json:"stats"`
	Suites []Suite `json:"suites"`
}

// Parse decodes raw runner output into a Result. It never fails: every decode
// problem is reported through Result.Error so callers handle one failure shape.
func Parse(raw []byte) Result {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return Errored(NoResponse)
	}

	var p payload
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return decodeError(trimmed, err.Error())
	}

	if p.Error != nil {
		msg := *p.Error
		if msg == "" {
			msg = "Unknown error reported by the test runner"
		}
		return Result{Error: msg, Raw: string(trimmed)}
	}

	if p.Passed == nil {
		return decodeError(trimmed, "missing passed field")
	}

	res := Result{
		Raw:    string(trimmed),
		Passed: *p.Passed,
		Stats:  p.Stats,
		Suites: p.Suites,
	}
	if err := validate(res); err != nil {
		return decodeError(trimmed, err.Error())
	}
	return res
}

func decodeError(raw []byte, details string) Result {
	return Result{
		Error: fmt.Sprintf("Cannot decode response: %s", details),
		Raw:   string(raw),
	}
}

func validate(r Result) error {
	if r.Stats.Scenarios < 0 || r.Stats.Failures < 0 {
		return fmt.Errorf("negative scenario counts")
	}
	if r.Stats.Failures > r.Stats.Scenarios {
		return fmt.Errorf("%d failures reported for %d scenarios", r.Stats.Failures, r.Stats.Scenarios)
	}
	return validateSuites(r.Suites)
}

func validateSuites(suites []Suite) error {
	for _, s := range suites {
		for _, sc := range s.Scenarios {
			if sc.Passed && len(sc.Messages) > 0 {
				return fmt.Errorf("scenario %q passed with failure messages", sc.Description)
			}
		}
		if err := validateSuites(s.Suites); err != nil {
			return err
		}
	}
	return nil
}
