package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/sadopc/dailystretch/internal/clock"
	"github.com/sadopc/dailystretch/internal/config"
	"github.com/sadopc/dailystretch/internal/export"
	"github.com/sadopc/dailystretch/internal/logging"
	"github.com/sadopc/dailystretch/internal/notify"
	"github.com/sadopc/dailystretch/internal/reminder"
	"github.com/sadopc/dailystretch/internal/store"
	"github.com/sadopc/dailystretch/internal/timer"
)

// Options wires the App to its host capabilities. Store may be nil when a
// Redis backend holds the durable keys; history is then unavailable.
type Options struct {
	Store      *store.Store
	Durable    timer.Storage
	Session    timer.Storage
	Clock      clock.Clock
	Config     config.Config
	ConfigPath string
	PageID     string
	Permission notify.PermissionSource
	System     notify.SystemNotifier
	Bell       *notify.Bell
	Logger     *logging.Logger
}

// App is the root Bubble Tea model.
type App struct {
	svc    *services
	width  int
	height int

	activeView    viewState
	mounts        int
	showHelp      bool
	exportPicking bool
	exportCursor  int

	timer    timerModel
	history  historyModel
	settings settingsModel

	help      help.Model
	status    string
	statusErr bool
	toast     string
	toastSeq  int
}

func NewApp(opts Options) App {
	if opts.Clock == nil {
		opts.Clock = clock.System
	}
	if opts.Durable == nil && opts.Store != nil {
		opts.Durable = opts.Store
	}
	if opts.Session == nil {
		opts.Session = store.NewMemoryKV()
	}
	if opts.PageID == "" {
		opts.PageID = uuid.NewString()
	}

	svc := &services{
		store:      opts.Store,
		durable:    opts.Durable,
		session:    opts.Session,
		clock:      opts.Clock,
		registry:   timer.NewRegistry(),
		bell:       opts.Bell,
		logger:     opts.Logger,
		cfg:        opts.Config,
		configPath: opts.ConfigPath,
		pageID:     opts.PageID,
		states:     make(stateSink, 1),
		toasts:     make(chan toastMsg, 16),
	}

	var chime notify.Chime
	if opts.Bell != nil {
		chime = opts.Bell
	}
	svc.dispatcher = notify.NewDispatcher(notify.Options{
		Permission: opts.Permission,
		System:     opts.System,
		Toaster:    notify.ToasterFunc(svc.toast),
		Chime:      chime,
		Logger:     opts.Logger,
	})

	var reminderStorage reminder.Storage
	if opts.Durable != nil {
		reminderStorage = opts.Durable
	}
	svc.reminders = reminder.New(reminder.Options{
		Clock:      opts.Clock,
		Storage:    reminderStorage,
		Dispatcher: svc.dispatcher,
		Toaster:    notify.ToasterFunc(svc.toast),
		UserKey:    opts.Config.UserKey,
		Logger:     opts.Logger,
		Fallback:   opts.Config.Session.ReminderIntervalMinutes,
	})
	svc.reminders.Load()

	h := help.New()
	h.ShowAll = false

	a := App{
		svc:        svc,
		activeView: viewTimer,
		timer:      newTimerModel(svc),
		history:    newHistoryModel(svc),
		settings:   newSettingsModel(svc),
		help:       h,
	}
	a.mountTimer()
	return a
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		waitForState(a.svc.states),
		waitForToast(a.svc.toasts),
		a.requestPermission(),
		a.timer.refresh(),
	)
}

// requestPermission asks for notification permission up front so the first
// finish does not wait on the bus.
func (a App) requestPermission() tea.Cmd {
	d := a.svc.dispatcher
	return func() tea.Msg {
		return permissionMsg{state: string(d.RequestPermission())}
	}
}

// Shutdown flushes and detaches the live timer and stops reminders.
func (a App) Shutdown() {
	a.svc.registry.CancelActive()
	a.svc.reminders.Stop()
}

// mountTimer binds a fresh engine to a new timer container. Any engine left
// from an earlier visit is flushed and detached first.
func (a *App) mountTimer() tea.Cmd {
	a.mounts++
	container := fmt.Sprintf("timer-%d", a.mounts)

	e, err := a.svc.registry.Mount(container, a.svc.buildEngine)
	if err != nil {
		a.svc.logger.Error("failed to mount timer", logging.F("err", err))
		a.status = "Timer unavailable: " + err.Error()
		a.statusErr = true
		a.timer.attach(nil)
		return nil
	}
	a.timer.attach(e)
	return a.timer.refresh()
}

func (a *App) switchView(v viewState) tea.Cmd {
	if v == a.activeView {
		return nil
	}
	if a.activeView == viewTimer && a.timer.engine != nil {
		a.timer.engine.Flush()
	}
	a.activeView = v
	switch v {
	case viewTimer:
		return a.mountTimer()
	case viewHistory:
		return a.history.refresh()
	}
	return nil
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.timer.setSize(a.width, contentHeight)
		a.history.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		if a.svc.bell != nil {
			a.svc.bell.Unlock()
		}

		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// If a child view is capturing input (e.g. form), delegate first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Quit):
			a.Shutdown()
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			cmd := a.switchView(viewTimer)
			return a, cmd
		case key.Matches(msg, keys.Tab2):
			cmd := a.switchView(viewHistory)
			return a, cmd
		case key.Matches(msg, keys.Tab3):
			cmd := a.switchView(viewSettings)
			return a, cmd
		case key.Matches(msg, keys.Tab):
			cmd := a.switchView((a.activeView + 1) % viewState(len(viewNames)))
			return a, cmd
		}

	case stateMsg:
		var cmd tea.Cmd
		a.timer, cmd = a.timer.update(msg)
		return a, tea.Batch(cmd, waitForState(a.svc.states))

	case todayMsg:
		a.timer, _ = a.timer.update(msg)
		return a, nil

	case historyDataMsg:
		a.history, _ = a.history.update(msg)
		return a, nil

	case toastMsg:
		a.toastSeq++
		a.toast = msg.text
		seq := a.toastSeq
		expire := tea.Tick(msg.d, func(time.Time) tea.Msg { return toastExpiredMsg{seq: seq} })
		return a, tea.Batch(expire, waitForToast(a.svc.toasts))

	case toastExpiredMsg:
		if msg.seq == a.toastSeq {
			a.toast = ""
		}
		return a, nil

	case statusMsg:
		a.status = msg.text
		a.statusErr = msg.isError
		return a, nil

	case permissionMsg:
		a.svc.logger.Info("notification permission", logging.F("state", msg.state))
		return a, nil

	case settingsSavedMsg:
		if msg.err != nil {
			a.svc.logger.Warn("failed to save settings", logging.F("err", msg.err))
			a.status = "Settings error: " + msg.err.Error()
			a.statusErr = true
		} else {
			a.status = "Settings saved"
			a.statusErr = false
		}
		return a, nil

	case exportDoneMsg:
		a.status = "Exported to " + msg.path
		a.statusErr = false
		a.exportPicking = false
		return a, nil
	}

	return a.updateActiveView(msg)
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewTimer:
		a.timer, cmd = a.timer.update(msg)
	case viewHistory:
		a.history, cmd = a.history.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	return a.activeView == viewSettings && a.settings.formActive
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewTimer:
		content = a.timer.view()
	case viewHistory:
		content = a.history.view()
	case viewSettings:
		content = a.settings.view()
	}

	contentHeight := a.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if contentHeight < 1 {
		contentHeight = 1
	}

	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("dailystretch")
	gap := a.width - lipgloss.Width(title) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	switch {
	case a.toast != "":
		status = " " + toastStyle.Render(a.toast)
	case a.status != "" && a.statusErr:
		status = errorStyle.Render(" " + a.status)
	case a.status != "":
		status = mutedStyle.Render(" " + a.status)
	}

	// Countdown indicator while another view is open
	timerInfo := ""
	if a.activeView != viewTimer && a.timer.engine != nil {
		st := a.timer.state
		if st.Running {
			timerInfo = successStyle.Render(fmt.Sprintf(" ● %s %s", st.Mode, formatClock(st.Remaining)))
		}
	}

	left := footerStyle.Render(helpView)
	right := timerInfo + status

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

func (a App) renderExportPicker() string {
	rows := []string{titleStyle.Render("Export History"), ""}
	for i, f := range []string{"CSV", "JSON"} {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "", mutedStyle.Render("  enter: export  esc: cancel"))

	return activePanelStyle.Width(a.width - 4).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < 1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a App) doExport(format int) tea.Cmd {
	svc := a.svc
	return func() tea.Msg {
		if svc.store == nil {
			return statusMsg{text: "Export needs the SQLite store", isError: true}
		}
		sessions, err := svc.store.ListSessions(store.SessionFilter{UserKey: svc.cfg.UserKey})
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}
		slices.Reverse(sessions)

		home, _ := os.UserHomeDir()
		dateStr := svc.clock.Now().Format("2006-01-02")

		var path string
		if format == 0 {
			path = filepath.Join(home, fmt.Sprintf("dailystretch-export-%s.csv", dateStr))
			if err := export.ToCSV(sessions, path); err != nil {
				return statusMsg{text: fmt.Sprintf("CSV error: %v", err), isError: true}
			}
		} else {
			path = filepath.Join(home, fmt.Sprintf("dailystretch-export-%s.json", dateStr))
			if err := export.ToJSON(sessions, path); err != nil {
				return statusMsg{text: fmt.Sprintf("JSON error: %v", err), isError: true}
			}
		}
		return exportDoneMsg{path: path}
	}
}
