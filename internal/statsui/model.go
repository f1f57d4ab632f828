// Package statsui provides the Bubble Tea stats interface.
package statsui

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/koch/internal/lesson"
	"github.com/verte-zerg/koch/internal/model"
	"github.com/verte-zerg/koch/internal/stats"
)

const (
	tabOverview = iota
	tabCalendar
	tabSeries
	tabLessons
)

const (
	plotHeight = 10
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A9B8E"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// heatColors are the calendar cell colors from no practice to the busiest day.
var heatColors = []lipgloss.Color{"#2D333B", "#0E4429", "#006D32", "#26A641", "#39D353"}

// Model implements the Bubble Tea stats UI.
type Model struct {
	src stats.Source
	cfg model.StatsConfig
	now func() time.Time

	report stats.Report

	tabs         []string
	activeTab    int
	viewports    []viewport.Model
	seriesTable  table.Model
	lessonTable  table.Model
	seriesLayout tableLayout
	lessonLayout tableLayout

	width  int
	height int

	filterMode   bool
	filterInputs []textinput.Model
	filterIndex  int
	filterError  string
}

type tableLayout struct {
	width    int
	height   int
	rowCount int
}

// NewModel constructs a stats UI model.
func NewModel(src stats.Source, cfg model.StatsConfig) *Model {
	if cfg.CurveWindow < 1 {
		cfg.CurveWindow = 1
	}
	m := &Model{
		src:  src,
		cfg:  cfg,
		now:  time.Now,
		tabs: []string{"Overview", "Calendar", "Series", "Lessons"},
	}
	m.initInputs()
	m.seriesTable = newTable(seriesColumns(), nil, 0, 1)
	m.lessonTable = newTable(lessonColumns(), nil, 0, 1)
	m.initViewports()
	m.refreshReport()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || (!m.filterMode && msg.String() == "q") {
			return m, tea.Quit
		}
		m.focusActiveTable()
		if m.filterMode {
			return m.updateFilter(msg)
		}
		switch msg.String() {
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "g":
			m.cfg.Granularity = nextGranularity(m.cfg.Granularity)
			m.refreshReport()
			return m, nil
		case "[":
			m.cfg.Year = m.report.Year - 1
			m.refreshReport()
			return m, nil
		case "]":
			m.cfg.Year = m.report.Year + 1
			m.refreshReport()
			return m, nil
		case "=":
			m.cfg.CurveWindow = nextCurveWindow(m.cfg.CurveWindow)
			m.renderTabContents()
			return m, nil
		case "-":
			m.cfg.CurveWindow = prevCurveWindow(m.cfg.CurveWindow)
			m.renderTabContents()
			return m, nil
		case "/":
			return m.startFilter()
		case "home":
			m.gotoEdge(true)
			return m, nil
		case "G", "end":
			m.gotoEdge(false)
			return m, nil
		default:
			return m.scroll(msg)
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(bodyHeight), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) initViewports() {
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
}

func (m *Model) initInputs() {
	m.filterInputs = []textinput.Model{
		newFilterInput("Lesson (blank for all): "),
		newFilterInput("Year (blank for latest): "),
		newFilterInput("Curve window: "),
	}
	m.setInputsFromConfig()
}

func newFilterInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) setInputsFromConfig() {
	if len(m.filterInputs) == 0 {
		return
	}
	m.filterInputs[0].SetValue("")
	if m.cfg.Lesson != model.GlobalScope {
		m.filterInputs[0].SetValue(strconv.Itoa(m.cfg.Lesson))
	}
	m.filterInputs[1].SetValue("")
	if m.cfg.Year > 0 {
		m.filterInputs[1].SetValue(strconv.Itoa(m.cfg.Year))
	}
	m.filterInputs[2].SetValue(strconv.Itoa(m.cfg.CurveWindow))
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := max(1, lipgloss.Height(activeNavStyle.Render("X")))
	headerHeight = tabsHeight + 1
	footerHeight = 1
	bodyHeight = max(1, m.height-headerHeight-footerHeight)
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, vpHeight, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = vpHeight
	}
	m.resizeTable(&m.seriesTable, &m.seriesLayout, m.width, vpHeight)
	m.resizeTable(&m.lessonTable, &m.lessonLayout, m.width, vpHeight)
	for i := range m.filterInputs {
		promptWidth := lipgloss.Width(m.filterInputs[i].Prompt)
		m.filterInputs[i].Width = max(10, m.width-promptWidth-2)
	}
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	if count == 0 {
		return
	}
	next := m.activeTab + delta
	if next < 0 {
		next = count - 1
	}
	if next >= count {
		next = 0
	}
	m.activeTab = next
	m.focusActiveTable()
}

func (m *Model) focusActiveTable() {
	m.seriesTable.Blur()
	m.lessonTable.Blur()
	switch m.activeTab {
	case tabSeries:
		m.seriesTable.Focus()
	case tabLessons:
		m.lessonTable.Focus()
	}
}

func (m *Model) activeTable() *table.Model {
	switch m.activeTab {
	case tabSeries:
		return &m.seriesTable
	case tabLessons:
		return &m.lessonTable
	}
	return nil
}

func (m *Model) gotoEdge(top bool) {
	if t := m.activeTable(); t != nil {
		if top {
			t.GotoTop()
		} else {
			t.GotoBottom()
		}
		return
	}
	if top {
		m.viewports[m.activeTab].GotoTop()
	} else {
		m.viewports[m.activeTab].GotoBottom()
	}
}

func (m *Model) scroll(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if t := m.activeTable(); t != nil {
		*t, cmd = t.Update(msg)
		return m, cmd
	}
	vp := m.viewports[m.activeTab]
	vp, cmd = vp.Update(msg)
	m.viewports[m.activeTab] = vp
	return m, cmd
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	tabs := padLines(m.renderTabs(), m.width)
	filters := padLines(m.renderFilterSummary(), m.width)
	return tabs + "\n" + filters
}

func (m *Model) renderFilterSummary() string {
	scope := "all"
	if m.cfg.Lesson != model.GlobalScope {
		scope = fmt.Sprintf("%02d", m.cfg.Lesson)
	}
	summary := fmt.Sprintf("Settings: lesson=%s  by=%s  year=%d  window=%d", scope, m.cfg.Granularity, m.report.Year, m.cfg.CurveWindow)
	summary = truncateLine(summary, m.width)
	return headerStyle.Render(summary)
}

func (m *Model) renderHelp() string {
	help := "Nav: left/right  Scroll: up/down/pgup/pgdn  Period: g  Year: [/]  Window: -/=  Settings: /  Quit: q"
	return headerStyle.Render(truncateLine(help, m.width))
}

func (m *Model) renderFilterHelp() string {
	return headerStyle.Render("tab/shift+tab: next field  enter: apply  esc: cancel  quit: ctrl+c")
}

func (m *Model) renderFooter() string {
	if m.filterMode {
		return m.renderFilterHelp()
	}
	return m.renderHelp()
}

func (m *Model) renderFilterForm() string {
	lines := []string{"Settings (enter to apply, esc to cancel)"}
	for _, input := range m.filterInputs {
		lines = append(lines, input.View())
	}
	if m.filterError != "" {
		lines = append(lines, errorStyle.Render(m.filterError))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderBody(height int) string {
	if m.filterMode {
		return fitLines(m.renderFilterForm(), m.width, height)
	}
	switch m.activeTab {
	case tabSeries:
		if len(m.report.Points) == 0 {
			return fitLines("No practice recorded.", m.width, height)
		}
		return fitLines(tableMutedStyle.Render(m.seriesTable.View()), m.width, height)
	case tabLessons:
		if len(m.report.Lessons) == 0 {
			return fitLines("No practice recorded.", m.width, height)
		}
		return fitLines(tableMutedStyle.Render(m.lessonTable.View()), m.width, height)
	}
	return fitLines(m.viewports[m.activeTab].View(), m.width, height)
}

func (m *Model) refreshReport() {
	m.report = stats.BuildReport(m.src, m.cfg, m.now())
	m.seriesTable.SetRows(seriesRows(m.report.Points))
	m.lessonTable.SetRows(lessonRows(m.report.Lessons))
	m.seriesLayout = tableLayout{}
	m.lessonLayout = tableLayout{}
	m.updateLayout()
	m.renderTabContents()
}

func (m *Model) renderTabContents() {
	if len(m.viewports) == 0 {
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.viewports[tabOverview].SetContent(renderOverview(m.report, m.cfg.CurveWindow, width))
	m.viewports[tabCalendar].SetContent(renderCalendar(m.report.Days, m.report.YearSummary))
}

func renderOverview(r stats.Report, window, width int) string {
	if r.Summary.Count == 0 {
		return fmt.Sprintf("%s: no practice recorded.", stats.ScopeName(r.Scope))
	}
	title := cardTitleStyle.Render(stats.ScopeName(r.Scope))
	summary := renderSummaryCards(r, width)
	curves := renderCurves(r.Points, window, width)
	return strings.TrimRight(title+"\n"+summary+"\n\n"+curves, "\n")
}

func renderSummaryCards(r stats.Report, width int) string {
	active := 0
	for _, d := range r.Days {
		if d.Count > 0 {
			active++
		}
	}
	cards := []string{
		metricCard("Practices", strconv.Itoa(r.Summary.Count)),
		metricCard("Practice time", stats.FormatDuration(r.Summary.Duration())),
		metricCard("Avg Accuracy", fmt.Sprintf("%.2f%%", r.Summary.Accuracy)),
		metricCard(fmt.Sprintf("Active days %d", r.Year), strconv.Itoa(active)),
		metricCard("Lessons practiced", strconv.Itoa(len(r.Lessons))),
	}
	if width < 80 {
		return strings.Join(cards, "\n")
	}
	row1 := lipgloss.JoinHorizontal(lipgloss.Top, cards[0], cards[1], cards[2])
	row2 := lipgloss.JoinHorizontal(lipgloss.Top, cards[3], cards[4])
	return lipgloss.JoinVertical(lipgloss.Left, row1, row2)
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func renderCurves(points []stats.Point, window, width int) string {
	if len(points) < 2 {
		return headerStyle.Render("Learning curves need at least two periods.")
	}
	var buf bytes.Buffer
	if err := stats.RenderCurvesWithSize(&buf, points, window, width, plotHeight, true); err != nil {
		return fmt.Sprintf("Failed to render curves: %v", err)
	}
	return strings.TrimRight(buf.String(), "\n")
}

// renderCalendar draws the year heat-map with one colored cell per day.
func renderCalendar(days []stats.DayPoint, summary stats.Summary) string {
	if len(days) == 0 {
		return "No calendar data."
	}
	year := days[0].Date.Year()
	lines := []string{
		fmt.Sprintf("%d: %d practices, %s, avg accuracy %.2f%%",
			year, summary.Count, stats.FormatDuration(summary.Duration()), summary.Accuracy),
		"",
	}
	grid := stats.CalendarGrid(days)
	maxCount := stats.MaxCount(days)
	labels := [7]string{"Mon", "   ", "Wed", "   ", "Fri", "   ", "Sun"}
	lines = append(lines, "    "+monthLabels(grid))
	for wd := 0; wd < 7; wd++ {
		var b strings.Builder
		b.WriteString(labels[wd])
		b.WriteByte(' ')
		for _, cell := range grid[wd] {
			if cell == nil {
				b.WriteByte(' ')
				continue
			}
			b.WriteString(heatCell(stats.Shade(cell.Count, maxCount, len(heatColors))))
		}
		lines = append(lines, b.String())
	}
	legend := make([]string, len(heatColors))
	for i := range heatColors {
		legend[i] = heatCell(i)
	}
	lines = append(lines, "", "    less "+strings.Join(legend, "")+" more")
	return strings.Join(lines, "\n")
}

func heatCell(shade int) string {
	return lipgloss.NewStyle().Foreground(heatColors[shade]).Render("■")
}

func monthLabels(grid [7][]*stats.DayPoint) string {
	weeks := len(grid[0])
	header := []rune(strings.Repeat(" ", weeks))
	last := time.Month(0)
	for col := 0; col < weeks; col++ {
		var cell *stats.DayPoint
		for wd := 6; wd >= 0 && cell == nil; wd-- {
			cell = grid[wd][col]
		}
		if cell == nil {
			continue
		}
		if month := cell.Date.Month(); month != last {
			last = month
			label := []rune(month.String()[:3])
			if col+len(label) <= weeks {
				copy(header[col:], label)
			}
		}
	}
	return strings.TrimRight(string(header), " ")
}

func seriesColumns() []table.Column {
	return []table.Column{
		{Title: "Period", Width: 16},
		{Title: "Practices", Width: 9},
		{Title: "Time", Width: 9},
		{Title: "Avg Accuracy", Width: 12},
	}
}

func seriesRows(points []stats.Point) []table.Row {
	rows := make([]table.Row, 0, len(points))
	for _, p := range points {
		rows = append(rows, table.Row{
			p.Key,
			strconv.Itoa(p.Count),
			stats.FormatDuration(time.Duration(p.DurationMs) * time.Millisecond),
			fmt.Sprintf("%.2f%%", p.Accuracy),
		})
	}
	return rows
}

func lessonColumns() []table.Column {
	return []table.Column{
		{Title: "Lesson", Width: 8},
		{Title: "Chars", Width: 42},
		{Title: "Practices", Width: 9},
		{Title: "Time", Width: 9},
		{Title: "Avg Accuracy", Width: 12},
	}
}

func lessonRows(lessons []stats.LessonRow) []table.Row {
	rows := make([]table.Row, 0, len(lessons))
	for _, r := range lessons {
		chars := ""
		if l, err := lesson.Get(r.Lesson); err == nil {
			chars = l.Chars
		}
		rows = append(rows, table.Row{
			fmt.Sprintf("%02d", r.Lesson),
			chars,
			strconv.Itoa(r.Count),
			stats.FormatDuration(time.Duration(r.DurationMs) * time.Millisecond),
			fmt.Sprintf("%.2f%%", r.Accuracy),
		})
	}
	return rows
}

func newTable(columns []table.Column, rows []table.Row, width, height int) table.Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithHeight(max(1, height-1)),
	)
	t.SetWidth(width)
	t.SetStyles(tableStyles())
	return t
}

func tableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func (m *Model) resizeTable(t *table.Model, layout *tableLayout, width, height int) {
	viewportHeight := max(1, height-1)
	rowCount := len(t.Rows())
	if layout.width == width && layout.height == viewportHeight && layout.rowCount == rowCount {
		return
	}
	layout.width = width
	layout.height = viewportHeight
	layout.rowCount = rowCount
	t.SetWidth(width)
	t.SetHeight(viewportHeight)
	adjustTableHeight(t, height)
}

// adjustTableHeight corrects the table height so its rendered view fills
// exactly bodyHeight lines, header included.
func adjustTableHeight(t *table.Model, bodyHeight int) {
	target := max(1, bodyHeight)
	for range 2 {
		viewHeight := lipgloss.Height(t.View())
		if viewHeight == target {
			return
		}
		t.SetHeight(max(1, t.Height()+target-viewHeight))
	}
}

func (m *Model) startFilter() (tea.Model, tea.Cmd) {
	m.filterMode = true
	m.filterError = ""
	m.setInputsFromConfig()
	return m, m.setFilterIndex(0)
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filterMode = false
		m.filterError = ""
		return m, nil
	case tea.KeyEnter:
		if err := m.applyFilter(); err != nil {
			m.filterError = err.Error()
			return m, nil
		}
		m.filterMode = false
		m.filterError = ""
		m.refreshReport()
		return m, nil
	case tea.KeyTab:
		return m, m.setFilterIndex(m.filterIndex + 1)
	case tea.KeyShiftTab:
		return m, m.setFilterIndex(m.filterIndex - 1)
	}
	var cmd tea.Cmd
	m.filterInputs[m.filterIndex], cmd = m.filterInputs[m.filterIndex].Update(msg)
	return m, cmd
}

func (m *Model) setFilterIndex(idx int) tea.Cmd {
	count := len(m.filterInputs)
	if count == 0 {
		return nil
	}
	if idx < 0 {
		idx = count - 1
	}
	if idx >= count {
		idx = 0
	}
	m.filterIndex = idx
	var cmd tea.Cmd
	for i := range m.filterInputs {
		if i == m.filterIndex {
			cmd = m.filterInputs[i].Focus()
		} else {
			m.filterInputs[i].Blur()
		}
	}
	return cmd
}

func (m *Model) applyFilter() error {
	lessonInput := strings.TrimSpace(m.filterInputs[0].Value())
	scope := model.GlobalScope
	if lessonInput != "" {
		parsed, err := strconv.Atoi(lessonInput)
		if err != nil || !lesson.Valid(parsed) {
			return fmt.Errorf("invalid lesson (use %d-%d or blank)", lesson.First, lesson.Last)
		}
		scope = parsed
	}

	yearInput := strings.TrimSpace(m.filterInputs[1].Value())
	year := 0
	if yearInput != "" {
		parsed, err := strconv.Atoi(yearInput)
		if err != nil || parsed < 1 {
			return fmt.Errorf("invalid year (use a positive integer or blank)")
		}
		year = parsed
	}

	windowInput := strings.TrimSpace(m.filterInputs[2].Value())
	window := 1
	if windowInput != "" {
		parsed, err := strconv.Atoi(windowInput)
		if err != nil {
			return fmt.Errorf("invalid curve window (use integer)")
		}
		if parsed < 1 {
			return fmt.Errorf("invalid curve window (use integer >= 1)")
		}
		window = parsed
	}

	m.cfg.Lesson = scope
	m.cfg.Year = year
	m.cfg.CurveWindow = window
	return nil
}

func nextGranularity(g model.Granularity) model.Granularity {
	for i, candidate := range model.Granularities {
		if candidate == g {
			return model.Granularities[(i+1)%len(model.Granularities)]
		}
	}
	return model.Day
}

func nextCurveWindow(n int) int {
	if n < 5 {
		return 5
	}
	if n%5 == 0 {
		return n + 5
	}
	return ((n / 5) + 1) * 5
}

func prevCurveWindow(n int) int {
	if n <= 5 {
		return 1
	}
	if n%5 == 0 {
		return n - 5
	}
	return (n / 5) * 5
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
