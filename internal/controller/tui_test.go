package controller

import (
	"bytes"
	"strings"
	"testing"
	"time"

	m "github.com/pin-drift/guardcheck/internal/model"
)

func TestTUI_StartSendAndClose(t *testing.T) {
	var buf bytes.Buffer
	tui := NewTUI(&buf)

	if err := tui.Start(WithTarget("/libs/fixture")); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	tui.SuiteStarted("conditional", 4)
	tui.CheckCompleted(m.CheckResult{Suite: "conditional", Description: "FLAG_X is defined", Passed: true})

	run := &m.RunResult{Target: "/libs/fixture"}
	run.Append(m.CheckResult{Suite: "conditional", Description: "FLAG_X is defined", Passed: true})

	if err := tui.RunCompleted(run); err != nil {
		t.Fatalf("RunCompleted() error = %v", err)
	}

	tui.Close()

	waitDone := make(chan struct{})
	go func() {
		tui.Wait()
		close(waitDone)
	}()

	select {
	case <-waitDone:
	case <-time.After(2 * time.Second):
		t.Fatal("Wait() timed out")
	}
}

func TestTUI_MethodsBeforeStartAreNoOps(t *testing.T) {
	var buf bytes.Buffer
	tui := NewTUI(&buf)

	tui.SuiteStarted("conditional", 1)
	tui.CheckCompleted(m.CheckResult{Suite: "conditional", Passed: true})

	if err := tui.RunCompleted(&m.RunResult{}); err != nil {
		t.Fatalf("RunCompleted() error = %v", err)
	}

	tui.Close()
	tui.Wait()
}

func TestTUI_DisplayRegistry(t *testing.T) {
	var buf bytes.Buffer
	tui := NewTUI(&buf)

	registry := &m.FlagRegistry{
		Origin: "src/Config.h",
		Flags: []m.Flag{
			{Name: "FLAG_A", Default: 1, Line: 4},
			{Name: "FLAG_B", Default: 0, Tier: 2, Line: 9},
		},
		Duplicates: []m.DuplicateFlag{
			{Name: "FLAG_A", Lines: []int{4, 12}},
		},
	}

	if err := tui.DisplayRegistry(registry); err != nil {
		t.Fatalf("DisplayRegistry() error = %v", err)
	}

	output := buf.String()

	for _, want := range []string{
		"FLAG_A",
		"default 1  always",
		"FLAG_B",
		"default 0  tier 2",
		"conflicting definitions of FLAG_A at lines 4, 12",
	} {
		if !strings.Contains(output, want) {
			t.Fatalf("output missing %q\noutput:\n%s", want, output)
		}
	}
}
