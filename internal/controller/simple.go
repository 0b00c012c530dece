package controller

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	m "github.com/pin-drift/guardcheck/internal/model"
)

const bannerWidth = 70

// SimpleUI implements the UI interface with plain line output through the
// cobra command, suitable for pipes and CI logs.
type SimpleUI struct {
	cmd     *cobra.Command
	colored bool

	passStyle   lipgloss.Style
	failStyle   lipgloss.Style
	detailStyle lipgloss.Style
	bannerStyle lipgloss.Style
}

// NewSimpleUI creates a new SimpleUI. Color usage is fixed at construction.
func NewSimpleUI(cmd *cobra.Command, options ...Option) *SimpleUI {
	config := uiConfig{}
	for _, option := range options {
		option(&config)
	}

	return &SimpleUI{
		cmd:         cmd,
		colored:     config.colored,
		passStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		failStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		detailStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		bannerStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true),
	}
}

// Start prints the run header.
func (s *SimpleUI) Start(options ...StartOption) error {
	config := StartConfig{}
	for _, option := range options {
		option(&config)
	}

	if config.target != "" {
		s.printf("Verifying %s\n", config.target)
	}

	return nil
}

// Close finalizes the UI.
func (s *SimpleUI) Close() {
}

// Wait returns immediately: plain output has nothing to wait for.
func (s *SimpleUI) Wait() {
}

// SuiteStarted prints the banner for a suite of checks.
func (s *SimpleUI) SuiteStarted(suite string, _ int) {
	line := strings.Repeat("=", bannerWidth)
	title := "  " + suiteTitle(suite)

	s.printf("\n%s\n%s\n%s\n\n",
		s.render(s.bannerStyle, line),
		s.render(s.bannerStyle, title),
		s.render(s.bannerStyle, line),
	)
}

// CheckCompleted prints one check outcome as it happens.
func (s *SimpleUI) CheckCompleted(result m.CheckResult) {
	if result.Passed {
		s.printf("%s - %s\n", s.render(s.passStyle, "✓ PASS"), result.Description)
		return
	}

	s.printf("%s - %s\n", s.render(s.failStyle, "✗ FAIL"), result.Description)

	if result.Detail == "" {
		return
	}

	for _, line := range strings.Split(result.Detail, "; ") {
		s.printf("         %s\n", s.render(s.detailStyle, line))
	}
}

// RunCompleted prints the summary table and the final verdict.
func (s *SimpleUI) RunCompleted(run *m.RunResult) error {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Suite", "Passed", "Failed"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_CENTER,
		tablewriter.ALIGN_CENTER,
	})

	for _, count := range run.BySuite() {
		table.Append([]string{count.Suite, fmt.Sprintf("%d", count.Passed), fmt.Sprintf("%d", count.Failed)})
	}

	passed, total := run.Counts()

	table.SetFooter([]string{"Total", fmt.Sprintf("%d", passed), fmt.Sprintf("%d", total-passed)})
	table.Render()

	s.printf("\n%s\n", tableBuffer.String())

	if run.Passed() {
		s.printf("%s\n", s.render(s.passStyle, fmt.Sprintf("✓ ALL CHECKS PASSED (%d/%d)", passed, total)))
		return nil
	}

	s.printf("%s\n", s.render(s.failStyle, fmt.Sprintf("⚠ SOME CHECKS FAILED (%d/%d)", passed, total)))

	return nil
}

// DisplayRegistry prints the extracted flag table.
func (s *SimpleUI) DisplayRegistry(registry *m.FlagRegistry) error {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Flag", "Default", "Tier", "Line"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_CENTER,
		tablewriter.ALIGN_CENTER,
		tablewriter.ALIGN_CENTER,
	})

	for _, flag := range registry.Flags {
		tier := "always"
		if flag.Tier > 0 {
			tier = fmt.Sprintf("%d", flag.Tier)
		}

		table.Append([]string{flag.Name, fmt.Sprintf("%d", flag.Default), tier, fmt.Sprintf("%d", flag.Line)})
	}

	table.SetFooter([]string{fmt.Sprintf("%d flags", len(registry.Flags)), "", "", ""})
	table.Render()

	s.printf("\n%s\n", tableBuffer.String())

	for _, dup := range registry.Duplicates {
		s.printf("%s\n", s.render(s.failStyle,
			fmt.Sprintf("⚠ conflicting definitions of %s at lines %s", dup.Name, joinLines(dup.Lines))))
	}

	return nil
}

func suiteTitle(suite string) string {
	switch suite {
	case "conditional":
		return "Guard Consistency Verification"
	case "structure":
		return "Library Structure Verification"
	default:
		return suite
	}
}

func joinLines(lines []int) string {
	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		parts = append(parts, fmt.Sprintf("%d", line))
	}

	return strings.Join(parts, ", ")
}

func (s *SimpleUI) render(style lipgloss.Style, text string) string {
	if !s.colored {
		return text
	}

	return style.Render(text)
}

func (s *SimpleUI) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}
