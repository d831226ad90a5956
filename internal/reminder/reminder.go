package reminder

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/sadopc/dailystretch/internal/clock"
	"github.com/sadopc/dailystretch/internal/logging"
	"github.com/sadopc/dailystretch/internal/notify"
	"github.com/sadopc/dailystretch/internal/store"
)

// Channel is one kind of periodic reminder.
type Channel string

const (
	Stretch   Channel = "stretch"
	Hydration Channel = "hydration"
)

// Channels lists every channel in display order.
var Channels = []Channel{Stretch, Hydration}

// Presets are the selectable reminder intervals in minutes.
var Presets = []int{1, 15, 30, 45, 60}

// DefaultInterval is used when nothing valid is stored or configured.
const DefaultInterval = 30

const (
	intervalKey   = "reminderIntervalMinutes"
	toggleKeyBase = "ds_toggle_"
	toggleOn      = "on"
	toggleOff     = "off"
	intervalToast = 1200 * time.Millisecond
)

var (
	ErrUnknownInterval = errors.New("unknown reminder interval")
	ErrUnknownChannel  = errors.New("unknown reminder channel")
)

// Title returns the notification title of ch.
func (ch Channel) Title() string {
	switch ch {
	case Stretch:
		return "Stretch reminder"
	case Hydration:
		return "Hydration reminder"
	}
	return ""
}

// Body returns the notification text of ch.
func (ch Channel) Body() string {
	switch ch {
	case Stretch:
		return "Time to stretch!"
	case Hydration:
		return "Time to hydrate!"
	}
	return ""
}

func (ch Channel) valid() bool {
	return ch == Stretch || ch == Hydration
}

// ToggleKey is the durable key of a channel toggle.
func ToggleKey(ch Channel, userKey string) string {
	return toggleKeyBase + string(ch) + "_" + userKey
}

// IntervalKey is the durable key of the shared interval.
func IntervalKey() string {
	return intervalKey
}

// ValidInterval reports whether minutes is one of the presets.
func ValidInterval(minutes int) bool {
	for _, p := range Presets {
		if p == minutes {
			return true
		}
	}
	return false
}

// Storage is the durable key/value store holding toggles and the interval.
type Storage interface {
	Get(key string) (string, error)
	Set(key, value string) error
}

// Dispatcher delivers a reminder.
type Dispatcher interface {
	Dispatch(msg notify.Message)
}

type Options struct {
	Clock      clock.Clock
	Storage    Storage
	Dispatcher Dispatcher
	Toaster    notify.Toaster
	UserKey    string
	Logger     *logging.Logger

	// Fallback is used when no valid interval is stored. Non-preset values
	// mean DefaultInterval.
	Fallback int
}

// Scheduler fires stretch and hydration reminders on a shared interval.
// Each enabled channel has exactly one pending timer.
type Scheduler struct {
	mu         sync.Mutex
	clock      clock.Clock
	storage    Storage
	dispatcher Dispatcher
	toaster    notify.Toaster
	userKey    string
	logger     *logging.Logger

	fallback int
	interval int
	enabled  map[Channel]bool
	timers   map[Channel]clock.Timer
	gen      uint64
	stopped  bool
}

func New(opts Options) *Scheduler {
	if opts.Clock == nil {
		opts.Clock = clock.System
	}
	if !ValidInterval(opts.Fallback) {
		opts.Fallback = DefaultInterval
	}
	return &Scheduler{
		clock:      opts.Clock,
		storage:    opts.Storage,
		dispatcher: opts.Dispatcher,
		toaster:    opts.Toaster,
		userKey:    opts.UserKey,
		logger:     opts.Logger,
		fallback:   opts.Fallback,
		interval:   opts.Fallback,
		enabled:    make(map[Channel]bool),
		timers:     make(map[Channel]clock.Timer),
	}
}

// Load restores toggles and interval from storage and arms enabled channels.
func (s *Scheduler) Load() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.interval = s.loadInterval()
	for _, ch := range Channels {
		s.enabled[ch] = s.read(ToggleKey(ch, s.userKey)) == toggleOn
	}
	s.stopped = false
	s.rescheduleLocked()
}

func (s *Scheduler) loadInterval() int {
	raw := s.read(intervalKey)
	if raw == "" {
		return s.fallback
	}
	minutes, err := strconv.Atoi(raw)
	if err != nil || !ValidInterval(minutes) {
		s.logger.Warn("ignoring stored reminder interval", logging.F("value", raw))
		return s.fallback
	}
	return minutes
}

func (s *Scheduler) read(key string) string {
	if s.storage == nil {
		return ""
	}
	v, err := s.storage.Get(key)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.logger.Warn("failed to read reminder setting", logging.F("key", key), logging.F("err", err))
		}
		return ""
	}
	return v
}

func (s *Scheduler) write(key, value string) {
	if s.storage == nil {
		return
	}
	if err := s.storage.Set(key, value); err != nil {
		s.logger.Warn("failed to save reminder setting", logging.F("key", key), logging.F("err", err))
	}
}

// Enabled reports whether ch is on.
func (s *Scheduler) Enabled(ch Channel) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled[ch]
}

// Interval returns the current interval in minutes.
func (s *Scheduler) Interval() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

// SetEnabled persists the toggle of ch and re-arms every channel.
func (s *Scheduler) SetEnabled(ch Channel, on bool) error {
	if !ch.valid() {
		return fmt.Errorf("%w: %q", ErrUnknownChannel, ch)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	value := toggleOff
	if on {
		value = toggleOn
	}
	s.write(ToggleKey(ch, s.userKey), value)
	s.enabled[ch] = on
	s.rescheduleLocked()
	return nil
}

// SetInterval persists a preset interval, confirms it with a toast and
// re-arms every channel.
func (s *Scheduler) SetInterval(minutes int) error {
	if !ValidInterval(minutes) {
		return fmt.Errorf("%w: %d", ErrUnknownInterval, minutes)
	}

	s.mu.Lock()
	s.write(intervalKey, strconv.Itoa(minutes))
	s.interval = minutes
	s.rescheduleLocked()
	toaster := s.toaster
	s.mu.Unlock()

	if toaster != nil {
		toaster.Toast(fmt.Sprintf("Reminder interval set to %d minutes", minutes), intervalToast)
	}
	return nil
}

// Stop cancels every pending reminder.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked()
	s.stopped = true
}

func (s *Scheduler) cancelLocked() {
	for ch, t := range s.timers {
		t.Stop()
		delete(s.timers, ch)
	}
	s.gen++
}

func (s *Scheduler) rescheduleLocked() {
	s.cancelLocked()
	if s.stopped {
		return
	}
	for _, ch := range Channels {
		if s.enabled[ch] {
			s.armLocked(ch, s.gen)
		}
	}
}

func (s *Scheduler) armLocked(ch Channel, gen uint64) {
	d := time.Duration(s.interval) * time.Minute
	s.timers[ch] = s.clock.AfterFunc(d, func() { s.fire(ch, gen) })
}

func (s *Scheduler) fire(ch Channel, gen uint64) {
	s.mu.Lock()
	if s.stopped || gen != s.gen || !s.enabled[ch] {
		s.mu.Unlock()
		return
	}
	s.armLocked(ch, gen)
	dispatcher := s.dispatcher
	s.mu.Unlock()

	if dispatcher != nil {
		dispatcher.Dispatch(notify.ReminderMessage(ch.Title(), ch.Body()))
	}
}
