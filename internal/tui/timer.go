package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/dailystretch/internal/model"
	"github.com/sadopc/dailystretch/internal/reminder"
	"github.com/sadopc/dailystretch/internal/timer"
)

// timerModel is the Timer view. It owns no countdown state of its own: the
// engine is the source of truth and pushes states through stateMsg.
type timerModel struct {
	svc    *services
	engine *timer.Engine
	width  int
	height int

	state      timer.State
	studyToday int
	breakToday int
}

type todayMsg struct {
	study int
	brk   int
}

func newTimerModel(svc *services) timerModel {
	return timerModel{svc: svc}
}

func (m *timerModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

func (m *timerModel) attach(e *timer.Engine) {
	m.engine = e
	if e != nil {
		m.state = e.State()
	}
}

func (m timerModel) refresh() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		if svc.store == nil {
			return todayMsg{}
		}
		now := svc.clock.Now()
		study, err := svc.store.GetTodayCount(svc.cfg.UserKey, model.ModeStudy, now)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("History error: %v", err), isError: true}
		}
		brk, err := svc.store.GetTodayCount(svc.cfg.UserKey, model.ModeBreak, now)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("History error: %v", err), isError: true}
		}
		return todayMsg{study: study, brk: brk}
	}
}

func (m timerModel) update(msg tea.Msg) (timerModel, tea.Cmd) {
	switch msg := msg.(type) {
	case stateMsg:
		prev := m.state
		m.state = timer.State(msg)
		if prev.Mode != m.state.Mode {
			return m, m.refresh()
		}
		return m, nil

	case todayMsg:
		m.studyToday = msg.study
		m.breakToday = msg.brk
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Stretch):
			return m, m.flipReminder(reminder.Stretch)
		case key.Matches(msg, keys.Hydration):
			return m, m.flipReminder(reminder.Hydration)
		case key.Matches(msg, keys.Interval):
			return m, m.nextInterval()
		}

		if m.engine == nil {
			return m, nil
		}
		switch {
		case key.Matches(msg, keys.Toggle):
			m.engine.Toggle()
		case key.Matches(msg, keys.Reset):
			m.engine.Reset()
		case key.Matches(msg, keys.Switch):
			m.engine.SwitchMode()
		default:
			return m, nil
		}
		prev := m.state
		m.state = m.engine.State()
		if prev.Mode != m.state.Mode {
			return m, m.refresh()
		}
	}
	return m, nil
}

func (m timerModel) flipReminder(ch reminder.Channel) tea.Cmd {
	r := m.svc.reminders
	on := !r.Enabled(ch)
	if err := r.SetEnabled(ch, on); err != nil {
		return func() tea.Msg { return statusMsg{text: err.Error(), isError: true} }
	}
	state := "off"
	if on {
		state = "on"
	}
	text := fmt.Sprintf("%s %s", ch.Title(), state)
	return func() tea.Msg { return statusMsg{text: text} }
}

func (m timerModel) nextInterval() tea.Cmd {
	r := m.svc.reminders
	current := r.Interval()
	next := reminder.Presets[0]
	for i, p := range reminder.Presets {
		if p == current && i+1 < len(reminder.Presets) {
			next = reminder.Presets[i+1]
		}
	}
	if err := r.SetInterval(next); err != nil {
		return func() tea.Msg { return statusMsg{text: err.Error(), isError: true} }
	}
	return nil
}

func (m timerModel) view() string {
	w := m.width - 4
	st := m.state

	if m.engine == nil {
		return panelStyle.Width(w).Render(errorStyle.Render("Timer unavailable"))
	}

	study := st.Mode == model.ModeStudy
	title := "Study"
	if !study {
		title = "Break"
	}
	titleView := lipgloss.NewStyle().Bold(true).Foreground(modeColor(study)).Render(title)

	clockStyle := studyClockStyle
	if !study {
		clockStyle = breakClockStyle
	}
	if !st.Running {
		clockStyle = pausedClockStyle
	}
	clockView := clockStyle.Width(w - 6).Render(formatClock(st.Remaining))

	runState := warningStyle.Render("⏸ paused")
	if st.Running {
		runState = successStyle.Render("● running")
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		titleView,
		"",
		clockView,
		mutedStyle.Render(st.Label()),
		"",
		m.renderProgress(w-10),
		runState,
		"",
		m.renderReminders(),
		m.renderToday(),
	)

	controls := mutedStyle.Render("space: start/pause  r: reset  m: study/break  t/w: reminders  i: interval")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Center, content, "", controls),
	)
}

func (m timerModel) renderProgress(width int) string {
	if width < 10 {
		width = 10
	}
	pct := m.state.Progress()
	filled := pct * width / 100
	bar := lipgloss.NewStyle().Foreground(modeColor(m.state.Mode == model.ModeStudy)).Render(strings.Repeat("█", filled))
	rest := mutedStyle.Render(strings.Repeat("░", width-filled))
	return bar + rest + mutedStyle.Render(fmt.Sprintf(" %3d%%", pct))
}

func (m timerModel) renderReminders() string {
	r := m.svc.reminders
	var parts []string
	for _, ch := range reminder.Channels {
		mark := mutedStyle.Render("○ " + string(ch))
		if r.Enabled(ch) {
			mark = highlightStyle.Render("● " + string(ch))
		}
		parts = append(parts, mark)
	}
	parts = append(parts, mutedStyle.Render(fmt.Sprintf("every %d min", r.Interval())))
	return strings.Join(parts, "   ")
}

func (m timerModel) renderToday() string {
	if m.svc.store == nil {
		return ""
	}
	return mutedStyle.Render(fmt.Sprintf("today: %d study, %d break", m.studyToday, m.breakToday))
}
