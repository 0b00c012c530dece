// Package controller provides output adapters for displaying verification
// progress and results.
package controller

import (
	m "github.com/pin-drift/guardcheck/internal/model"
)

// StartOption is a functional option for the Start method.
type StartOption func(*StartConfig)

// StartConfig holds configuration for starting the UI.
type StartConfig struct {
	target string
}

// WithTarget records the directory under verification for display.
func WithTarget(target string) StartOption {
	return func(c *StartConfig) {
		c.target = target
	}
}

// UI defines the interface for displaying verification progress and results.
// Implementations can use different output methods (simple text, TUI, etc).
type UI interface {
	// Start initializes the UI before the first suite runs.
	Start(options ...StartOption) error

	// Close finalizes the UI.
	Close()

	// Wait blocks until the UI is done displaying (interactive UIs stay up
	// until dismissed; simple output returns immediately).
	Wait()

	// SuiteStarted announces a suite and the number of checks it plans to
	// run.
	SuiteStarted(suite string, plannedChecks int)

	// CheckCompleted reports one check outcome as it happens.
	CheckCompleted(result m.CheckResult)

	// RunCompleted reports the aggregated result of the whole run.
	RunCompleted(run *m.RunResult) error

	// DisplayRegistry renders the extracted flag registry.
	DisplayRegistry(registry *m.FlagRegistry) error
}
