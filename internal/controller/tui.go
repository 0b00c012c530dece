package controller

import (
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	m "github.com/pin-drift/guardcheck/internal/model"
)

// TUI implements UI using Bubble Tea for interactive display. Verification
// events stream into the running program as messages.
type TUI struct {
	output  io.Writer
	program *tea.Program
	group   *errgroup.Group
}

// NewTUI creates a new TUI.
func NewTUI(output io.Writer) *TUI {
	return &TUI{output: output}
}

// Start launches the Bubble Tea program in the background.
func (t *TUI) Start(options ...StartOption) error {
	config := StartConfig{}
	for _, option := range options {
		option(&config)
	}

	model := newVerifyModel(config.target)

	// Get initial terminal size
	if f, ok := t.output.(*os.File); ok {
		width, height, err := term.GetSize(int(f.Fd()))
		if err == nil {
			model.width = width
			model.height = height
		}
	}

	t.program = tea.NewProgram(model, tea.WithOutput(t.output))

	t.group = &errgroup.Group{}
	t.group.Go(func() error {
		_, err := t.program.Run()

		return err
	})

	return nil
}

// Close stops the program if it is still running.
func (t *TUI) Close() {
	if t.program != nil {
		t.program.Quit()
	}
}

// Wait blocks until the user dismisses the result screen.
func (t *TUI) Wait() {
	if t.group != nil {
		_ = t.group.Wait()
	}
}

// SuiteStarted announces the next suite to the display.
func (t *TUI) SuiteStarted(suite string, plannedChecks int) {
	if t.program == nil {
		return
	}

	t.program.Send(suiteStartedMsg{name: suite, planned: plannedChecks})
}

// CheckCompleted streams one result into the display.
func (t *TUI) CheckCompleted(result m.CheckResult) {
	if t.program == nil {
		return
	}

	t.program.Send(checkCompletedMsg{result: result})
}

// RunCompleted switches the display to the browsable result list.
func (t *TUI) RunCompleted(run *m.RunResult) error {
	if t.program == nil {
		return nil
	}

	t.program.Send(runCompletedMsg{run: run})

	return nil
}

// DisplayRegistry prints the flag table without starting the interactive
// display.
func (t *TUI) DisplayRegistry(registry *m.FlagRegistry) error {
	for _, flag := range registry.Flags {
		tier := "always"
		if flag.Tier > 0 {
			tier = fmt.Sprintf("tier %d", flag.Tier)
		}

		if _, err := fmt.Fprintf(t.output, "%-40s default %d  %s\n", flag.Name, flag.Default, tier); err != nil {
			return err
		}
	}

	for _, dup := range registry.Duplicates {
		if _, err := fmt.Fprintf(t.output, "conflicting definitions of %s at lines %s\n", dup.Name, joinLines(dup.Lines)); err != nil {
			return err
		}
	}

	return nil
}
