package controller

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	m "github.com/pin-drift/guardcheck/internal/model"
)

// checkDelegate renders one check per row in the results list.
type checkDelegate struct {
	offset int
}

func (d checkDelegate) Height() int  { return 1 }
func (d checkDelegate) Spacing() int { return 0 }
func (d checkDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

func (d checkDelegate) Render(w io.Writer, l list.Model, index int, item list.Item) {
	check, ok := item.(checkItem)
	if !ok {
		return
	}

	isSelected := index == l.Index()
	descWidth := l.Width() - 26 // Reserve space for Status and Suite columns and spacing

	statusStyle, suiteStyle, descStyle, displayDesc := d.stylesAndDescription(check, isSelected, descWidth)

	status := "pass"
	if !check.result.Passed {
		status = "fail"
	}

	line := fmt.Sprintf("%s  %s  %s",
		statusStyle.Render(fmt.Sprintf("%-6s", status)),
		suiteStyle.Render(fmt.Sprintf("%-12s", check.result.Suite)),
		descStyle.Render(displayDesc),
	)
	_, _ = fmt.Fprint(w, line)
}

func (d checkDelegate) stylesAndDescription(check checkItem, isSelected bool, descWidth int) (lipgloss.Style, lipgloss.Style, lipgloss.Style, string) {
	if isSelected {
		selected := lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("6")).
			Bold(true)

		return selected.Width(8).Align(lipgloss.Left),
			selected.Width(14).Align(lipgloss.Left),
			selected,
			animateScrollText(check.result.Description, descWidth, d.offset)
	}

	statusColor := lipgloss.Color("2") // Green
	if !check.result.Passed {
		statusColor = lipgloss.Color("1") // Red
	}

	return lipgloss.NewStyle().
			Foreground(statusColor).
			Bold(true).
			Width(8).
			Align(lipgloss.Left),
		lipgloss.NewStyle().
			Foreground(lipgloss.Color("5")).
			Width(14).
			Align(lipgloss.Left),
		lipgloss.NewStyle().
			Foreground(lipgloss.Color("14")),
		truncateText(check.result.Description, descWidth)
}

// verifyModel handles the TUI display during a verification run.
type verifyModel struct {
	width           int
	height          int
	target          string
	progressBar     progress.Model
	currentSuite    string
	currentCheck    string
	plannedChecks   int
	completedCount  int
	failedCount     int
	progressPercent float64
	rendered        bool
	finished        bool
	run             *m.RunResult
	checks          []checkItem
	resultsList     list.Model
	delegate        checkDelegate
	animOffset      int
	lastSelected    int
	showDetail      bool
	selectedDetail  string
	selectedCheck   string
}

func newVerifyModel(target string) verifyModel {
	prog := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(40),
		progress.WithoutPercentage(),
	)

	delegate := checkDelegate{}
	resultsList := list.New([]list.Item{}, delegate, 80, 20)
	resultsList.SetShowPagination(false)
	resultsList.SetShowFilter(true)
	resultsList.SetShowHelp(false)
	resultsList.SetShowTitle(false)
	resultsList.SetShowStatusBar(false)
	resultsList.FilterInput.Placeholder = "Filter checks…"

	return verifyModel{
		target:       target,
		progressBar:  prog,
		resultsList:  resultsList,
		delegate:     delegate,
		lastSelected: -1,
	}
}

func (v verifyModel) Init() tea.Cmd {
	return tea.Tick(time.Millisecond*100, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (v verifyModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v = v.handleWindowSize(msg)

	case tea.KeyMsg:
		v, cmd = v.handleKeyMsg(msg)

	case tea.MouseMsg:
		v, cmd = v.handleMouseMsg(msg)

	case tickMsg:
		return v.handleTickMsg(msg)

	case suiteStartedMsg:
		v = v.handleSuiteStarted(msg)

	case checkCompletedMsg:
		v = v.handleCheckCompleted(msg)

	case runCompletedMsg:
		v = v.handleRunCompleted(msg)
	}

	return v, cmd
}

func (v verifyModel) View() string {
	if !v.rendered {
		return "Initializing verification…\n"
	}

	if v.finished {
		return v.viewResults()
	}

	return v.viewProgress()
}

func (v verifyModel) viewProgress() string {
	accentColor := lipgloss.Color("6") // Cyan

	titleStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("205")).
		Bold(true).
		Padding(1, 0, 0, 2)

	summaryStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("252")).
		Padding(0, 0, 1, 2)

	accentStyle := lipgloss.NewStyle().Foreground(accentColor)

	title := titleStyle.Render("🛡 Guardcheck Verification")

	summary := summaryStyle.Render(fmt.Sprintf(
		"Suite: %s  •  Checks: %s / %s  •  Failed: %s",
		accentStyle.Render(v.currentSuite),
		accentStyle.Render(fmt.Sprintf("%d", v.completedCount)),
		accentStyle.Render(fmt.Sprintf("%d", v.plannedChecks)),
		accentStyle.Render(fmt.Sprintf("%d", v.failedCount)),
	))

	progressStyle := lipgloss.NewStyle().
		Padding(0, 2)

	progressView := progressStyle.Render(v.progressBar.ViewAs(v.progressPercent))

	checkBox := v.renderCurrentCheckBox(accentColor)

	footerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("8")).
		Align(lipgloss.Center).
		Width(v.width).
		Padding(0, 0)

	footer := footerStyle.Render("Press q to quit")

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		summary,
		progressView,
		checkBox,
		footer,
	)
}

func (v verifyModel) renderCurrentCheckBox(accentColor lipgloss.Color) string {
	contentStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accentColor).
		Padding(0, 1).
		Margin(1, 1, 1, 0).
		Width(v.width - 4)

	checkStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("14"))

	availableWidth := v.width - 4 - 2 - 2

	content := "idle"
	if v.currentCheck != "" {
		content = checkStyle.Render(truncateText(v.currentCheck, availableWidth))
	}

	return contentStyle.Render(content)
}

func (v verifyModel) viewResults() string {
	accentColor := lipgloss.Color("6") // Cyan

	titleStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("205")).
		Bold(true).
		Padding(1, 0, 0, 2)

	summaryStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("252")).
		Padding(0, 0, 1, 2)

	accentStyle := lipgloss.NewStyle().Foreground(accentColor)

	title := titleStyle.Render("🛡 Guardcheck Results")

	passed, total := v.totals()

	summary := summaryStyle.Render(fmt.Sprintf(
		"Total: %s  •  Passed: %s  •  Failed: %s",
		accentStyle.Render(fmt.Sprintf("%d", total)),
		accentStyle.Render(fmt.Sprintf("%d", passed)),
		accentStyle.Render(fmt.Sprintf("%d", total-passed)),
	))

	resultsBox := v.renderResultsBox(accentColor)

	footerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("8")).
		Align(lipgloss.Center).
		Width(v.width)

	footer := footerStyle.Render("↑/k up • ↓/j down • g/G top/bottom • / filter • enter/space/click detail • q quit")

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		summary,
		resultsBox,
		footer,
	)
}

func (v verifyModel) totals() (passed, total int) {
	if v.run != nil {
		return v.run.Counts()
	}

	for _, check := range v.checks {
		if check.result.Passed {
			passed++
		}
	}

	return passed, len(v.checks)
}

func (v verifyModel) renderResultsBox(accentColor lipgloss.Color) string {
	listWidth := v.width - 4
	detailBoxHeight := v.detailBoxHeight()

	listHeight := v.height - 9 - detailBoxHeight
	if listHeight < 5 {
		listHeight = 5
	}

	v.resultsList.SetHeight(listHeight)
	v.resultsList.SetWidth(listWidth)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("8")).
		Bold(true).
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("8")).
		Width(listWidth)

	headers := headerStyle.Render(fmt.Sprintf("%-8s  %-14s  %s", "Status", "Suite", "Check"))

	resultsStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accentColor).
		Margin(0, 1, 0, 0).
		Padding(0, 1)

	resultsBox := resultsStyle.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			headers,
			v.resultsList.View(),
		),
	)

	detailBox := v.renderDetailBox(accentColor, listWidth)
	if detailBox == "" {
		return resultsBox
	}

	return lipgloss.JoinVertical(lipgloss.Left, resultsBox, detailBox)
}

func (v verifyModel) handleSuiteStarted(msg suiteStartedMsg) verifyModel {
	v.currentSuite = msg.name
	v.plannedChecks += msg.planned
	v.rendered = true

	return v
}

func (v verifyModel) handleCheckCompleted(msg checkCompletedMsg) verifyModel {
	v.completedCount++
	v.currentCheck = msg.result.Description
	v.rendered = true

	if !msg.result.Passed {
		v.failedCount++
	}

	v.checks = append(v.checks, checkItem{result: msg.result})

	items := make([]list.Item, 0, len(v.checks))
	for _, check := range v.checks {
		items = append(items, check)
	}

	v.resultsList.SetItems(items)

	if v.plannedChecks > 0 {
		v.progressPercent = float64(v.completedCount) / float64(v.plannedChecks)
		if v.progressPercent > 1 {
			v.progressPercent = 1
		}
	}

	return v
}

func (v verifyModel) handleRunCompleted(msg runCompletedMsg) verifyModel {
	v.run = msg.run
	v.finished = true
	v.rendered = true
	v.progressPercent = 1

	return v
}

func (v verifyModel) handleKeyMsg(msg tea.KeyMsg) (verifyModel, tea.Cmd) {
	var cmd tea.Cmd

	switch msg.String() {
	case "q", "ctrl+c":
		return v, tea.Quit
	default:
		if v.finished {
			if msg.String() == "enter" || msg.String() == " " {
				v.toggleSelectedDetail()
				return v, nil
			}

			var newList list.Model

			newList, cmd = v.resultsList.Update(msg)
			v.resultsList = newList

			if v.resultsList.Index() != v.lastSelected {
				v.lastSelected = v.resultsList.Index()
				v.animOffset = 0
				v.delegate.offset = 0
				v.resultsList.SetDelegate(v.delegate)
				v.showDetail = false
				v.selectedDetail = ""
				v.selectedCheck = ""
			}

			return v, cmd
		}
	}

	return v, nil
}

func (v verifyModel) handleMouseMsg(msg tea.MouseMsg) (verifyModel, tea.Cmd) {
	var cmd tea.Cmd

	if !v.finished {
		return v, nil
	}

	var newList list.Model

	newList, cmd = v.resultsList.Update(msg)
	v.resultsList = newList

	if v.resultsList.Index() != v.lastSelected {
		v.lastSelected = v.resultsList.Index()
		v.animOffset = 0
		v.delegate.offset = 0
		v.resultsList.SetDelegate(v.delegate)
		v.showDetail = false
		v.selectedDetail = ""
		v.selectedCheck = ""
	}

	if msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionRelease && v.resultsList.FilterState() != list.Filtering {
		v.toggleSelectedDetail()
	}

	return v, cmd
}

func (v *verifyModel) toggleSelectedDetail() {
	item := v.resultsList.SelectedItem()

	check, ok := item.(checkItem)
	if !ok {
		return
	}

	detail := strings.TrimSpace(check.result.Detail)
	if detail == "" {
		v.showDetail = false
		v.selectedDetail = ""

		return
	}

	if v.showDetail && v.selectedDetail == detail {
		v.showDetail = false
		v.selectedDetail = ""
		v.selectedCheck = ""

		return
	}

	v.showDetail = true
	v.selectedDetail = detail
	v.selectedCheck = check.result.Description
}

func (v verifyModel) detailMaxLines() int {
	maxLines := v.height / 3
	if maxLines < 6 {
		maxLines = 6
	}

	if maxLines > 20 {
		maxLines = 20
	}

	return maxLines
}

func (v verifyModel) detailBoxHeight() int {
	if !v.showDetail {
		return 0
	}

	detail := strings.TrimSpace(v.selectedDetail)
	if detail == "" {
		return 0
	}

	lines := strings.Split(detail, "; ")

	maxLines := v.detailMaxLines()
	if len(lines) > maxLines {
		lines = lines[:maxLines]
	}

	return len(lines) + 3
}

func (v verifyModel) renderDetailBox(accentColor lipgloss.Color, width int) string {
	if !v.showDetail {
		return ""
	}

	detail := strings.TrimSpace(v.selectedDetail)
	if detail == "" {
		return ""
	}

	lines := strings.Split(detail, "; ")
	maxLines := v.detailMaxLines()
	truncated := false

	if len(lines) > maxLines {
		lines = lines[:maxLines-1]
		truncated = true
	}

	contentWidth := width - 4
	if contentWidth < 10 {
		contentWidth = 10
	}

	lineStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))

	bodyLines := make([]string, 0, len(lines)+1)
	for _, line := range lines {
		bodyLines = append(bodyLines, lineStyle.Render(truncateText(line, contentWidth)))
	}

	if truncated {
		bodyLines = append(bodyLines, truncateText("…", contentWidth))
	}

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("8")).
		Bold(true)

	headerText := "Detail"
	if v.selectedCheck != "" {
		headerText = fmt.Sprintf("Detail • %s", v.selectedCheck)
	}

	header := headerStyle.Render(truncateText(headerText, contentWidth))

	body := lipgloss.JoinVertical(lipgloss.Left, bodyLines...)
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accentColor).
		Margin(0, 1, 0, 0).
		Padding(0, 1).
		Width(width)

	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, header, body))
}

func (v verifyModel) handleWindowSize(msg tea.WindowSizeMsg) verifyModel {
	v.width = msg.Width
	v.height = msg.Height

	v.progressBar.Width = v.width - 8
	if v.progressBar.Width < 20 {
		v.progressBar.Width = 20
	}

	return v
}

func (v verifyModel) handleTickMsg(_ tickMsg) (verifyModel, tea.Cmd) {
	// Keep the selected row scrolling while idle
	if v.finished && v.resultsList.FilterState() != list.Filtering {
		v.animOffset++
		v.delegate.offset = v.animOffset
		v.resultsList.SetDelegate(v.delegate)
	}

	return v, tea.Tick(time.Millisecond*150, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func animateScrollText(text string, width int, offset int) string {
	if width <= 0 {
		return ""
	}

	textWidth := lipgloss.Width(text)
	if textWidth <= width {
		return text
	}

	// Gap between repeats
	gap := "   "

	// Initial pause before scrolling starts (in ticks)
	pause := 5

	if offset < pause {
		return truncateText(text, width)
	}

	effectiveStep := offset - pause

	runes := []rune(text + gap)
	n := len(runes)

	if n == 0 {
		return ""
	}

	start := effectiveStep % n

	res := make([]rune, 0, width)
	for i := 0; i < width; i++ {
		idx := (start + i) % n
		res = append(res, runes[idx])
	}

	return string(res)
}

func truncateText(text string, width int) string {
	if width <= 0 {
		return ""
	}

	if lipgloss.Width(text) <= width {
		return text
	}

	if width <= 1 {
		return "…"
	}

	ellipsis := "…"

	maxWidth := width - lipgloss.Width(ellipsis)
	if maxWidth <= 0 {
		return ellipsis
	}

	currentWidth := 0

	result := make([]rune, 0, len(text))
	for _, r := range text {
		rWidth := lipgloss.Width(string(r))
		if currentWidth+rWidth > maxWidth {
			break
		}

		result = append(result, r)
		currentWidth += rWidth
	}

	return string(result) + ellipsis
}
