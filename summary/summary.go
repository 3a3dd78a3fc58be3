// Package summary derives run and plan metrics from execution state.
// Everything is computed on demand from current rows; no aggregate is
// cached or stored, so a metric can never drift from the executions it
// describes.
package summary

import (
	"github.com/caseline/caseline/testrun"
)

// Summary holds the derived metrics of one test run.
type Summary struct {
	Total   int `json:"total"`
	Idle    int `json:"idle"`
	Running int `json:"running"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Errored int `json:"errored"`
	Blocked int `json:"blocked"`
	Waived  int `json:"waived"`

	// Completed counts executions in any terminal status.
	Completed int `json:"completed"`

	// PercentComplete is Completed over Total as a percentage.
	PercentComplete float64 `json:"percent_complete"`

	// PassRate is Passed over (Total - Waived) as a percentage. Waived
	// executions leave the denominator entirely.
	PassRate float64 `json:"pass_rate"`
}

// Compute derives a Summary from execution rows. Empty input and
// all-waived runs divide to zero rates, never errors.
func Compute(execs []*testrun.TestExecution) Summary {
	var s Summary
	s.Total = len(execs)

	for _, exec := range execs {
		switch exec.Status {
		case testrun.ExecutionStatusIdle:
			s.Idle++
		case testrun.ExecutionStatusRunning:
			s.Running++
		case testrun.ExecutionStatusPassed:
			s.Passed++
		case testrun.ExecutionStatusFailed:
			s.Failed++
		case testrun.ExecutionStatusError:
			s.Errored++
		case testrun.ExecutionStatusBlocked:
			s.Blocked++
		case testrun.ExecutionStatusWaived:
			s.Waived++
		}
		if exec.Status.IsTerminal() {
			s.Completed++
		}
	}

	if s.Total > 0 {
		s.PercentComplete = float64(s.Completed) / float64(s.Total) * 100
	}
	if considered := s.Total - s.Waived; considered > 0 {
		s.PassRate = float64(s.Passed) / float64(considered) * 100
	}

	return s
}
