package statsui

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/tuifitts/internal/model"
	"github.com/verte-zerg/tuifitts/internal/stats"
)

const plotHeight = 8

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
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
	cardTitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
)

func (m *Model) renderHeader() string {
	tabs := make([]string, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			tabs[i] = activeNavStyle.Render(tab)
		} else {
			tabs[i] = inactiveNavStyle.Render(tab)
		}
	}
	nav := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
	return nav + "\n" + headerStyle.Render(truncateLine(m.filterSummary(), m.width))
}

func (m *Model) filterSummary() string {
	participant := "any"
	if m.cfg.Participant > 0 {
		participant = strconv.Itoa(m.cfg.Participant)
	}
	condition := "any"
	if m.cfg.Condition != "" {
		condition = m.cfg.Condition
	}
	since := "any"
	if m.cfg.Since != nil {
		since = m.cfg.Since.Format("2006-01-02")
	}
	last := "all"
	if m.cfg.Last > 0 {
		last = strconv.Itoa(m.cfg.Last)
	}
	return fmt.Sprintf("Filters: participant=%s  condition=%s  since=%s  last=%s  window=%d",
		participant, condition, since, last, m.cfg.CurveWindow)
}

func (m *Model) renderFooter() string {
	if m.filterMode {
		return headerStyle.Render("tab/shift+tab: next field  enter: apply  esc: cancel")
	}
	help := headerStyle.Render("Nav: left/right  Scroll: up/down  Window: -/=  Filters: /  Reload: r  Quit: q")
	if m.errMsg != "" {
		return help + "\n" + errorStyle.Render(m.errMsg)
	}
	return help
}

func (m *Model) renderBody() string {
	if m.filterMode {
		lines := []string{"Filters (enter to apply, esc to cancel)"}
		for _, input := range m.filterInputs {
			lines = append(lines, input.View())
		}
		if m.filterError != "" {
			lines = append(lines, errorStyle.Render(m.filterError))
		}
		return strings.Join(lines, "\n")
	}
	if t, ok := m.tables[m.activeTab]; ok {
		if len(m.report.Trials) == 0 {
			return "No trials found."
		}
		return t.View()
	}
	return m.overview.View()
}

func renderOverview(report stats.Report, window, width int) string {
	if len(report.Trials) == 0 {
		return "No trials found."
	}
	parts := []string{renderCards(report, width)}
	if lines := conditionSparklines(report.Trials); lines != "" {
		parts = append(parts, lines)
	}
	var buf bytes.Buffer
	if err := stats.RenderCurvesWithSize(&buf, report.Trials, window, width, plotHeight, true); err != nil {
		parts = append(parts, fmt.Sprintf("Failed to render curves: %v", err))
	} else if buf.Len() > 0 {
		parts = append(parts, strings.TrimRight(buf.String(), "\n"))
	}
	return strings.Join(parts, "\n\n")
}

func renderCards(report stats.Report, width int) string {
	participants := map[int]struct{}{}
	var clicks, timed int
	var ms, tp float64
	for _, t := range report.Trials {
		participants[t.Participant] = struct{}{}
		clicks += t.Clicks
		if t.Timed {
			timed++
			ms += float64(t.ElapsedMs)
			tp += stats.Metrics(t.TrialRecord).Throughput
		}
	}
	avgMs, avgTP := 0.0, 0.0
	if timed > 0 {
		avgMs = ms / float64(timed)
		avgTP = tp / float64(timed)
	}
	errRate := 0.0
	if clicks > 0 {
		errRate = float64(clicks-len(report.Trials)) / float64(clicks)
	}
	fit := "n/a"
	if report.HasFit {
		fit = fmt.Sprintf("%.0f + %.0f·ID", report.Fit.Intercept, report.Fit.Slope)
	}
	cards := []string{
		metricCard("Trials", strconv.Itoa(len(report.Trials))),
		metricCard("Participants", strconv.Itoa(len(participants))),
		metricCard("Avg MT", fmt.Sprintf("%.0f ms", avgMs)),
		metricCard("Avg TP", fmt.Sprintf("%.2f bit/s", avgTP)),
		metricCard("Errors", fmt.Sprintf("%.1f%%", errRate*100)),
		metricCard("Fit (ms)", fit),
	}
	if width < 80 {
		return strings.Join(cards, "\n")
	}
	row1 := lipgloss.JoinHorizontal(lipgloss.Top, cards[:3]...)
	row2 := lipgloss.JoinHorizontal(lipgloss.Top, cards[3:]...)
	return lipgloss.JoinVertical(lipgloss.Left, row1, row2)
}

func metricCard(label, value string) string {
	return cardStyle.Render(cardTitleStyle.Render(label) + "\n" + cardValueStyle.Render(value))
}

// conditionSparklines draws one movement time sparkline per condition.
func conditionSparklines(trials []model.StoredTrial) string {
	byCondition := map[string][]model.StoredTrial{}
	for _, t := range trials {
		byCondition[t.Condition] = append(byCondition[t.Condition], t)
	}
	var lines []string
	for _, summary := range stats.SummarizeConditions(trials) {
		ms, _ := stats.TimedSeries(byCondition[summary.Condition])
		if len(ms) == 0 {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s %s", runewidth.FillRight(summary.Condition, 12), stats.Sparkline(ms)))
	}
	if len(lines) == 0 {
		return ""
	}
	return headerStyle.Render("Movement time per condition") + "\n" + strings.Join(lines, "\n")
}

func conditionColumns() []table.Column {
	return []table.Column{
		{Title: "Condition", Width: 12},
		{Title: "Trials", Width: 6},
		{Title: "Timed", Width: 6},
		{Title: "Avg MT (ms)", Width: 11},
		{Title: "Avg ID", Width: 6},
		{Title: "TP (bit/s)", Width: 10},
		{Title: "Errors", Width: 7},
	}
}

func conditionRows(summaries []stats.ConditionSummary) []table.Row {
	rows := make([]table.Row, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, table.Row{
			s.Condition,
			strconv.Itoa(s.Trials),
			strconv.Itoa(s.TimedTrials),
			fmt.Sprintf("%.1f", s.MeanMs),
			fmt.Sprintf("%.2f", s.MeanID),
			fmt.Sprintf("%.2f", s.MeanThroughput),
			fmt.Sprintf("%.1f%%", s.ErrorRate*100),
		})
	}
	return rows
}

func participantColumns() []table.Column {
	return []table.Column{
		{Title: "Participant", Width: 11},
		{Title: "Trials", Width: 6},
		{Title: "Avg MT (ms)", Width: 11},
		{Title: "Errors", Width: 7},
		{Title: "First", Width: 16},
		{Title: "Last", Width: 16},
	}
}

func participantRows(aggs []model.ParticipantAggregate) []table.Row {
	rows := make([]table.Row, 0, len(aggs))
	for _, a := range aggs {
		avg := 0.0
		if a.TimedTrials > 0 {
			avg = float64(a.ElapsedMsSum) / float64(a.TimedTrials)
		}
		errRate := 0.0
		if a.Clicks > 0 {
			errRate = float64(a.Clicks-a.Trials) / float64(a.Clicks)
		}
		rows = append(rows, table.Row{
			strconv.Itoa(a.Participant),
			strconv.Itoa(a.Trials),
			fmt.Sprintf("%.1f", avg),
			fmt.Sprintf("%.1f%%", errRate*100),
			a.FirstAt.Local().Format("2006-01-02 15:04"),
			a.LastAt.Local().Format("2006-01-02 15:04"),
		})
	}
	return rows
}

func newTable(columns []table.Column) table.Model {
	t := table.New(table.WithColumns(columns), table.WithHeight(1))
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	t.SetStyles(styles)
	return t
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	for i, line := range lines {
		if pad := width - lipgloss.Width(line); pad > 0 {
			lines[i] = line + strings.Repeat(" ", pad)
		}
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	return runewidth.Truncate(s, width, "...")
}
