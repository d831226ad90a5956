package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/dailystretch/internal/model"
	"github.com/sadopc/dailystretch/internal/store"
)

type historyRange int

const (
	rangeDaily historyRange = iota
	rangeWeekly
)

type historyModel struct {
	svc    *services
	width  int
	height int

	span      historyRange
	summaries []store.DailySummary
	offset    int // 7-day blocks or weeks back from today (0 = current)

	chart barchart.Model
}

func newHistoryModel(svc *services) historyModel {
	return historyModel{
		svc:   svc,
		chart: barchart.New(60, 12),
	}
}

func (h *historyModel) setSize(w, ht int) {
	h.width = w
	h.height = ht
}

type historyDataMsg struct {
	summaries []store.DailySummary
}

func (h historyModel) refresh() tea.Cmd {
	svc := h.svc
	from, to := h.dateRange()
	return func() tea.Msg {
		if svc.store == nil {
			return historyDataMsg{}
		}
		summaries, err := svc.store.GetDailySummary(svc.cfg.UserKey, from, to)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("History error: %v", err), isError: true}
		}
		return historyDataMsg{summaries: summaries}
	}
}

func (h historyModel) dateRange() (time.Time, time.Time) {
	now := h.svc.clock.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	switch h.span {
	case rangeWeekly:
		// Start of current week (Monday)
		weekday := today.Weekday()
		if weekday == time.Sunday {
			weekday = 7
		}
		startOfWeek := today.AddDate(0, 0, -int(weekday-time.Monday))
		startOfWeek = startOfWeek.AddDate(0, 0, -7*h.offset)
		return startOfWeek, startOfWeek.AddDate(0, 0, 7)
	default:
		end := today.AddDate(0, 0, 1-7*h.offset)
		return end.AddDate(0, 0, -7), end
	}
}

func (h historyModel) update(msg tea.Msg) (historyModel, tea.Cmd) {
	switch msg := msg.(type) {
	case historyDataMsg:
		h.summaries = msg.summaries
		h.buildChart()
		return h, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			h.offset++
			return h, h.refresh()
		case key.Matches(msg, keys.Right):
			if h.offset > 0 {
				h.offset--
			}
			return h, h.refresh()
		case key.Matches(msg, keys.Enter):
			if h.span == rangeDaily {
				h.span = rangeWeekly
			} else {
				h.span = rangeDaily
			}
			h.offset = 0
			return h, h.refresh()
		}
	}
	return h, nil
}

func (h *historyModel) buildChart() {
	chartWidth := h.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 12
	if h.height > 30 {
		chartHeight = 16
	}

	h.chart = barchart.New(chartWidth, chartHeight)

	from, to := h.dateRange()

	var bars []barchart.BarData
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		dateStr := d.Format("2006-01-02")

		var values []barchart.BarValue
		for _, s := range h.summaries {
			if s.Date != dateStr {
				continue
			}
			values = append(values, barchart.BarValue{
				Name:  string(s.Mode),
				Value: float64(s.TotalSeconds) / 60.0,
				Style: lipgloss.NewStyle().Foreground(modeColor(s.Mode == model.ModeStudy)),
			})
		}
		if len(values) == 0 {
			values = []barchart.BarValue{{Name: "", Value: 0, Style: lipgloss.NewStyle().Foreground(colorSubtle)}}
		}

		bars = append(bars, barchart.BarData{
			Label:  d.Format("Mon 02"),
			Values: values,
		})
	}

	h.chart.PushAll(bars)
	h.chart.Draw()
}

func (h historyModel) view() string {
	w := h.width - 4

	dailyTab := inactiveTabStyle.Render("Daily")
	weeklyTab := inactiveTabStyle.Render("Weekly")
	if h.span == rangeDaily {
		dailyTab = activeTabStyle.Render("Daily")
	} else {
		weeklyTab = activeTabStyle.Render("Weekly")
	}
	spanTabs := lipgloss.JoinHorizontal(lipgloss.Bottom, dailyTab, weeklyTab)

	from, to := h.dateRange()
	dateLabel := mutedStyle.Render(fmt.Sprintf("%s to %s", from.Format("Jan 02"), to.Add(-24*time.Hour).Format("Jan 02, 2006")))

	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("History"), "  ", spanTabs, "  ", dateLabel,
	)

	if h.svc.store == nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, header, "", mutedStyle.Render("  History needs the SQLite store")),
		)
	}

	legend := "  " + lipgloss.NewStyle().Foreground(colorStudy).Render("● study") +
		"  " + lipgloss.NewStyle().Foreground(colorBreak).Render("● break") +
		mutedStyle.Render("  (minutes)")
	nav := mutedStyle.Render("  ←/→: navigate  enter: daily/weekly  e: export")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", h.chart.View(), "", legend, "", h.renderSummaryTable(w), "", nav,
		),
	)
}

func (h historyModel) renderSummaryTable(w int) string {
	if len(h.summaries) == 0 {
		return mutedStyle.Render("  No completed sessions for this period")
	}

	var rows []string
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-12s %-8s %10s %9s", "Date", "Mode", "Duration", "Sessions")))
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", min(w-6, 42))))

	for _, s := range h.summaries {
		dot := lipgloss.NewStyle().Foreground(modeColor(s.Mode == model.ModeStudy)).Render("●")
		rows = append(rows, fmt.Sprintf("  %-12s %s %-6s %10s %9d",
			s.Date, dot, s.Mode, formatSeconds(s.TotalSeconds), s.Count,
		))
	}
	return strings.Join(rows, "\n")
}
