package controller

import (
	"time"

	m "github.com/pin-drift/guardcheck/internal/model"
)

// Messages streamed from the workflow into the Bubble Tea program.
type suiteStartedMsg struct {
	name    string
	planned int
}

type checkCompletedMsg struct {
	result m.CheckResult
}

type runCompletedMsg struct {
	run *m.RunResult
}

type tickMsg time.Time

// checkItem wraps a result for the results list.
type checkItem struct {
	result m.CheckResult
}

// FilterValue returns the string used when filtering the results list.
func (c checkItem) FilterValue() string {
	status := "pass"
	if !c.result.Passed {
		status = "fail"
	}

	return c.result.Suite + " " + c.result.Description + " " + status
}
