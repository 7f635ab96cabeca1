package model

import "fmt"

// Outcome is the result of an optional integration step (charts, news, export, ...).
// The pipeline logs failed outcomes and keeps going.
type Outcome struct {
	Integration string
	Skipped     bool
	Reason      string
	Err         error
}

// OK reports whether the step ran and succeeded.
func (o Outcome) OK() bool { return !o.Skipped && o.Err == nil }

func (o Outcome) String() string {
	switch {
	case o.Err != nil:
		return fmt.Sprintf("%s: failed: %v", o.Integration, o.Err)
	case o.Skipped:
		return fmt.Sprintf("%s: skipped (%s)", o.Integration, o.Reason)
	default:
		return fmt.Sprintf("%s: ok", o.Integration)
	}
}

// Succeeded builds a successful outcome.
func Succeeded(integration string) Outcome { return Outcome{Integration: integration} }

// Failed builds a failed outcome.
func Failed(integration string, err error) Outcome {
	return Outcome{Integration: integration, Err: err}
}

// Skipped builds an outcome for a step that was not configured.
func Skipped(integration, reason string) Outcome {
	return Outcome{Integration: integration, Skipped: true, Reason: reason}
}
