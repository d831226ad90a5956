package tui

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/dailystretch/internal/config"
	"github.com/sadopc/dailystretch/internal/reminder"
)

type settingsModel struct {
	svc    *services
	width  int
	height int

	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	studyMinutes  *string
	breakMinutes  *string
	interval      *int
	stretch       *bool
	hydration     *bool
	notifications *bool
}

func newSettingsModel(svc *services) settingsModel {
	study, brk := "", ""
	interval := reminder.DefaultInterval
	stretch, hydration, notifications := false, false, true
	return settingsModel{
		svc:           svc,
		studyMinutes:  &study,
		breakMinutes:  &brk,
		interval:      &interval,
		stretch:       &stretch,
		hydration:     &hydration,
		notifications: &notifications,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type settingsSavedMsg struct {
	err error
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, keys.Enter) {
		return s.showForm()
	}
	return s, nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	cfg := s.svc.cfg
	*s.studyMinutes = strconv.Itoa(cfg.Session.StudyMinutes)
	*s.breakMinutes = strconv.Itoa(cfg.Session.BreakMinutes)
	*s.interval = s.svc.reminders.Interval()
	*s.stretch = s.svc.reminders.Enabled(reminder.Stretch)
	*s.hydration = s.svc.reminders.Enabled(reminder.Hydration)
	*s.notifications = cfg.Notifications

	var intervals []huh.Option[int]
	for _, p := range reminder.Presets {
		intervals = append(intervals, huh.NewOption(fmt.Sprintf("%d min", p), p))
	}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Study (min)").Value(s.studyMinutes).Validate(validateMinutes),
			huh.NewInput().Title("Break (min)").Value(s.breakMinutes).Validate(validateMinutes),
		).Title("Sessions"),
		huh.NewGroup(
			huh.NewSelect[int]().Title("Reminder interval").Options(intervals...).Value(s.interval),
			huh.NewConfirm().Title("Stretch reminders").Affirmative("On").Negative("Off").Value(s.stretch),
			huh.NewConfirm().Title("Hydration reminders").Affirmative("On").Negative("Off").Value(s.hydration),
			huh.NewConfirm().Title("Desktop notifications").Affirmative("On").Negative("Off").Value(s.notifications),
		).Title("Reminders"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		err := s.save()
		return s, func() tea.Msg { return settingsSavedMsg{err: err} }
	}

	return s, cmd
}

// save applies the form to the running engine and scheduler, then writes
// the config file.
func (s settingsModel) save() error {
	study, _ := strconv.Atoi(*s.studyMinutes)
	brk, _ := strconv.Atoi(*s.breakMinutes)

	cfg := s.svc.cfg
	if study > 0 {
		cfg.Session.StudyMinutes = study
	}
	if brk > 0 {
		cfg.Session.BreakMinutes = brk
	}
	cfg.Session.ReminderIntervalMinutes = *s.interval
	cfg.Notifications = *s.notifications
	s.svc.cfg = cfg

	if e := s.svc.registry.Active(); e != nil {
		e.SetConfig(cfg.Session)
	}

	var errs []error
	if *s.interval != s.svc.reminders.Interval() {
		errs = append(errs, s.svc.reminders.SetInterval(*s.interval))
	}
	errs = append(errs,
		s.svc.reminders.SetEnabled(reminder.Stretch, *s.stretch),
		s.svc.reminders.SetEnabled(reminder.Hydration, *s.hydration),
	)

	if s.svc.configPath != "" {
		errs = append(errs, config.Save(s.svc.configPath, cfg))
	}
	return errors.Join(errs...)
}

func validateMinutes(v string) error {
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return errors.New("enter a positive number of minutes")
	}
	return nil
}

func (s settingsModel) view() string {
	w := s.width - 4
	title := titleStyle.Render("Settings")

	if s.formActive && s.form != nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	cfg := s.svc.cfg
	rows := []string{title, ""}
	add := func(label, value string) {
		rows = append(rows, fmt.Sprintf("  %s %s",
			lipgloss.NewStyle().Width(24).Render(label),
			highlightStyle.Render(value),
		))
	}
	add("Study", fmt.Sprintf("%d min", cfg.Session.StudyMinutes))
	add("Break", fmt.Sprintf("%d min", cfg.Session.BreakMinutes))
	add("Reminder interval", fmt.Sprintf("%d min", s.svc.reminders.Interval()))
	add("Stretch reminders", onOff(s.svc.reminders.Enabled(reminder.Stretch)))
	add("Hydration reminders", onOff(s.svc.reminders.Enabled(reminder.Hydration)))
	add("Desktop notifications", onOff(cfg.Notifications))
	add("User", cfg.UserKey)
	if s.svc.configPath != "" {
		add("Config file", s.svc.configPath)
	}

	rows = append(rows, "", mutedStyle.Render("Press enter to edit settings"))
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
