package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sadopc/dailystretch/internal/clock"
	"github.com/sadopc/dailystretch/internal/config"
	"github.com/sadopc/dailystretch/internal/logging"
	"github.com/sadopc/dailystretch/internal/notify"
	"github.com/sadopc/dailystretch/internal/reminder"
	"github.com/sadopc/dailystretch/internal/store"
	"github.com/sadopc/dailystretch/internal/timer"
)

// services are shared by every view. App is passed around by value, so
// everything mutable lives behind this pointer.
type services struct {
	store      *store.Store
	durable    timer.Storage
	session    timer.Storage
	clock      clock.Clock
	registry   *timer.Registry
	dispatcher *notify.Dispatcher
	reminders  *reminder.Scheduler
	bell       *notify.Bell
	logger     *logging.Logger
	cfg        config.Config
	configPath string
	pageID     string

	states stateSink
	toasts chan toastMsg
}

// stateSink is the engine's Display. Engine callbacks run off the UI
// goroutine, so renders are handed over through a channel that keeps only
// the newest state.
type stateSink chan timer.State

func (s stateSink) Render(st timer.State) {
	for {
		select {
		case s <- st:
			return
		default:
		}
		select {
		case <-s:
		default:
		}
	}
}

func (s *services) toast(text string, d time.Duration) {
	select {
	case s.toasts <- toastMsg{text: text, d: d}:
	default:
		s.logger.Warn("toast dropped", logging.F("text", text))
	}
}

func (s *services) buildEngine() (*timer.Engine, error) {
	host := timer.Host{
		Clock:    s.clock,
		Display:  s.states,
		Notifier: s.dispatcher,
		Durable:  s.durable,
		Session:  s.session,
		Toaster:  notify.ToasterFunc(s.toast),
		Logger:   s.logger,
		UserKey:  s.cfg.UserKey,
		PageID:   s.pageID,
	}
	if s.store != nil {
		host.History = s.store
	}
	return timer.New(s.cfg.Session, host)
}

func waitForState(ch stateSink) tea.Cmd {
	return func() tea.Msg {
		return stateMsg(<-ch)
	}
}

func waitForToast(ch <-chan toastMsg) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}
