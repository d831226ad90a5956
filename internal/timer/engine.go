package timer

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sadopc/dailystretch/internal/clock"
	"github.com/sadopc/dailystretch/internal/logging"
	"github.com/sadopc/dailystretch/internal/model"
	"github.com/sadopc/dailystretch/internal/store"
)

// ErrMissingHooks is returned when the host lacks a required capability.
var ErrMissingHooks = errors.New("missing required host hooks")

// ErrInvalidConfig is returned for non-positive durations.
var ErrInvalidConfig = errors.New("invalid session config")

const (
	// SuppressWindow is how long finish notifications stay muted after a
	// reset or mode switch.
	SuppressWindow = 2 * time.Second

	// DefaultFrameInterval paces the redraw loop while running.
	DefaultFrameInterval = 250 * time.Millisecond
)

// Display receives the state after every change and on every frame.
type Display interface {
	Render(State)
}

// Notifier is told when a countdown completes.
type Notifier interface {
	Notify(kind model.Kind, mode model.Mode)
}

// Toaster shows a transient message, such as the quote on the first start.
type Toaster interface {
	Toast(text string, d time.Duration)
}

// History records completed countdowns.
type History interface {
	RecordSession(userKey, pageID string, mode model.Mode, duration time.Duration, finishedAt time.Time) (*store.CompletedSession, error)
}

// Host is the set of capabilities the engine binds to. Clock, Display,
// Notifier, Durable and Session are required; the rest are optional.
// PickQuote chooses an index below n and defaults to math/rand.
type Host struct {
	Clock         clock.Clock
	Display       Display
	Notifier      Notifier
	Durable       Storage
	Session       Storage
	History       History
	Toaster       Toaster
	PickQuote     func(n int) int
	Logger        *logging.Logger
	UserKey       string
	PageID        string
	FrameInterval time.Duration
}

func (h Host) missing() []string {
	var names []string
	if h.Clock == nil {
		names = append(names, "clock")
	}
	if h.Display == nil {
		names = append(names, "display")
	}
	if h.Notifier == nil {
		names = append(names, "notifier")
	}
	if h.Durable == nil {
		names = append(names, "durable storage")
	}
	if h.Session == nil {
		names = append(names, "session storage")
	}
	return names
}

// State is a read-only copy of the runtime state.
type State struct {
	Running   bool
	Mode      model.Mode
	Remaining time.Duration
	Initial   time.Duration
	Minutes   int
}

// Progress returns the elapsed share of the countdown in percent.
func (s State) Progress() int {
	if s.Initial <= 0 {
		return 0
	}
	pct := 100 - int(float64(s.Remaining)/float64(s.Initial)*100+0.5)
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// Label describes the current mode for the user.
func (s State) Label() string {
	if s.Mode == model.ModeBreak {
		return fmt.Sprintf("Break for %d minute/s", s.Minutes)
	}
	return fmt.Sprintf("Focus for %d minute/s", s.Minutes)
}

// Engine is the study/break countdown. All methods are safe for concurrent
// use; scheduled callbacks take the same lock.
type Engine struct {
	mu      sync.Mutex
	cfg     model.SessionConfig
	host    Host
	clock   clock.Clock
	persist *Persister
	logger  *logging.Logger
	frameIv time.Duration

	running       bool
	mode          model.Mode
	remaining     time.Duration
	initial       time.Duration
	lastUpdate    time.Time
	suppressUntil time.Time

	finish    clock.Timer
	finishGen uint64
	frame     clock.Timer
	frameGen  uint64
	detached  bool
}

// New binds an engine to host and restores the persisted state. Nothing is
// bound when a required hook is missing.
func New(cfg model.SessionConfig, host Host) (*Engine, error) {
	if missing := host.missing(); len(missing) > 0 {
		list := strings.Join(missing, ", ")
		host.Logger.Warn("timer: missing required hooks", logging.F("hooks", list))
		return nil, fmt.Errorf("%w: %s", ErrMissingHooks, list)
	}
	if !cfg.Valid() {
		return nil, fmt.Errorf("%w: %+v", ErrInvalidConfig, cfg)
	}
	if host.UserKey == "" {
		host.UserKey = model.DefaultUserKey
	}
	if host.FrameInterval <= 0 {
		host.FrameInterval = DefaultFrameInterval
	}

	e := &Engine{
		cfg:     cfg,
		host:    host,
		clock:   host.Clock,
		persist: NewPersister(host.Durable, host.Session, host.UserKey, host.Logger),
		logger:  host.Logger,
		frameIv: host.FrameInterval,
		mode:    model.ModeStudy,
	}

	e.mu.Lock()
	e.restoreLocked()
	st := e.stateLocked()
	e.mu.Unlock()

	e.render(st)
	return e, nil
}

func (e *Engine) restoreLocked() {
	now := e.clock.Now()
	snap, ok := e.persist.LoadSnapshot()
	if !ok {
		e.mode = model.ModeStudy
		e.initial = e.cfg.Duration(e.mode)
		e.remaining = e.initial
		e.saveLocked()
		return
	}

	resume := e.persist.ResumeOnReturn()
	wasRunning := snap.IsRunning && snap.LastUpdate != nil

	e.mode = model.ModeBreak
	if snap.IsStudy {
		e.mode = model.ModeStudy
	}
	e.initial = e.cfg.Duration(e.mode)

	remaining := snap.Remaining()
	if resume && wasRunning {
		if elapsed := now.Sub(snap.LastUpdateTime()); elapsed > 0 {
			remaining -= elapsed
		}
	}
	if !resume {
		if paused, ok := e.persist.LastPaused(); ok {
			remaining = paused
		}
	}
	e.remaining = clampDuration(remaining, e.initial)

	if resume && wasRunning {
		e.running = true
		e.lastUpdate = now
		e.scheduleFinishLocked(e.remaining)
		e.requestFrameLocked()
	}
	e.saveLocked()
}

// Start begins counting down. It is a no-op while running.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.detached || e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.lastUpdate = e.clock.Now()
	e.saveLocked()
	e.persist.SetResumeOnReturn(true)
	e.scheduleFinishLocked(e.remaining)
	e.requestFrameLocked()
	quote := e.takeQuoteLocked()
	st := e.stateLocked()
	e.mu.Unlock()

	e.render(st)
	if quote != "" {
		e.host.Toaster.Toast(quote, QuoteToastDuration)
	}
}

// takeQuoteLocked returns a quote for the first start of the session and
// marks it shown. The mark is cleared when a countdown reaches zero.
func (e *Engine) takeQuoteLocked() string {
	if e.host.Toaster == nil || e.persist.QuoteShown() {
		return ""
	}
	e.persist.SetQuoteShown(true)
	return pickQuote(e.mode == model.ModeStudy, e.host.PickQuote)
}

// Pause stops counting down. It is a no-op while paused.
func (e *Engine) Pause() {
	e.mu.Lock()
	if e.detached || !e.running {
		e.mu.Unlock()
		return
	}
	e.pauseLocked(e.clock.Now())
	st := e.stateLocked()
	e.mu.Unlock()

	e.render(st)
}

// Reset pauses and refills the countdown for the current mode.
func (e *Engine) Reset() {
	e.mu.Lock()
	if e.detached {
		e.mu.Unlock()
		return
	}
	e.resetLocked(e.clock.Now())
	st := e.stateLocked()
	e.mu.Unlock()

	e.render(st)
}

// SwitchMode pauses and flips between study and break.
func (e *Engine) SwitchMode() {
	e.mu.Lock()
	if e.detached {
		e.mu.Unlock()
		return
	}
	e.switchModeLocked(e.clock.Now())
	st := e.stateLocked()
	e.mu.Unlock()

	e.render(st)
}

// Toggle is the start button: a finished countdown is reset and started,
// otherwise running and paused swap.
func (e *Engine) Toggle() {
	e.mu.Lock()
	if e.detached {
		e.mu.Unlock()
		return
	}
	if e.remaining <= 0 {
		e.resetLocked(e.clock.Now())
		e.mu.Unlock()
		e.Start()
		return
	}
	running := e.running
	e.mu.Unlock()

	if running {
		e.Pause()
	} else {
		e.Start()
	}
}

// Tick folds the time since the last update into the countdown. It never
// completes a session; that is left to the scheduled finish.
func (e *Engine) Tick(now time.Time) {
	e.mu.Lock()
	if e.detached || !e.running {
		e.mu.Unlock()
		return
	}
	e.advanceLocked(now)
	e.saveLocked()
	st := e.stateLocked()
	e.mu.Unlock()

	e.render(st)
}

// Flush persists the current state before the view goes away.
func (e *Engine) Flush() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.detached {
		return
	}
	e.flushLocked()
}

// Detach flushes, cancels every scheduled callback and turns the engine
// into a no-op. A detached engine never writes again.
func (e *Engine) Detach() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.detached {
		return
	}
	e.flushLocked()
	e.cancelFinishLocked()
	e.cancelFrameLocked()
	e.detached = true
}

// Detached reports whether Detach was called.
func (e *Engine) Detached() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.detached
}

// SetConfig applies new durations. An untouched paused countdown adopts the
// new length; otherwise the remaining time is only clamped.
func (e *Engine) SetConfig(cfg model.SessionConfig) {
	if !cfg.Valid() {
		return
	}

	e.mu.Lock()
	if e.detached {
		e.mu.Unlock()
		return
	}
	now := e.clock.Now()
	if e.running {
		e.advanceLocked(now)
	}
	untouched := !e.running && e.remaining == e.initial

	e.cfg = cfg
	e.initial = cfg.Duration(e.mode)
	if untouched {
		e.remaining = e.initial
	}
	if e.remaining > e.initial {
		e.remaining = e.initial
		if e.running {
			e.scheduleFinishLocked(e.remaining)
		}
	}
	e.saveLocked()
	st := e.stateLocked()
	e.mu.Unlock()

	e.render(st)
}

// State returns a copy of the runtime state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stateLocked()
}

// Config returns the session config in use.
func (e *Engine) Config() model.SessionConfig {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

func (e *Engine) onFinish(gen uint64) {
	e.mu.Lock()
	if e.detached || gen != e.finishGen || !e.running {
		e.mu.Unlock()
		return
	}
	e.finish = nil
	now := e.clock.Now()
	completed := e.mode
	length := e.initial

	e.remaining = 0
	e.saveLocked()
	e.persist.SetQuoteShown(false)
	notify := !now.Before(e.suppressUntil)
	e.switchModeLocked(now)
	st := e.stateLocked()
	e.mu.Unlock()

	if e.host.History != nil {
		if _, err := e.host.History.RecordSession(e.host.UserKey, e.host.PageID, completed, length, now); err != nil {
			e.logger.Warn("failed to record completed session", logging.F("err", err))
		}
	}
	if notify {
		e.host.Notifier.Notify(model.KindFinish, completed)
	}
	e.render(st)
}

func (e *Engine) onFrame(gen uint64) {
	e.mu.Lock()
	if e.detached || gen != e.frameGen || !e.running {
		e.mu.Unlock()
		return
	}
	e.frame = nil
	e.advanceLocked(e.clock.Now())
	e.saveLocked()
	e.requestFrameLocked()
	st := e.stateLocked()
	e.mu.Unlock()

	e.render(st)
}

func (e *Engine) advanceLocked(now time.Time) {
	if e.lastUpdate.IsZero() {
		e.lastUpdate = now
	}
	elapsed := now.Sub(e.lastUpdate)
	if elapsed < 0 {
		elapsed = 0
	}
	e.remaining -= elapsed
	if e.remaining <= 0 {
		e.remaining = 0
		e.persist.SetQuoteShown(false)
	}
	e.lastUpdate = now
}

func (e *Engine) pauseLocked(now time.Time) {
	if !e.running {
		return
	}
	e.advanceLocked(now)
	e.running = false
	e.cancelFrameLocked()
	e.cancelFinishLocked()
	e.lastUpdate = time.Time{}
	e.saveLocked()
	e.persist.SetResumeOnReturn(false)
	e.persist.SetLastPaused(e.remaining)
}

func (e *Engine) resetLocked(now time.Time) {
	e.pauseLocked(now)
	e.initial = e.cfg.Duration(e.mode)
	e.remaining = e.initial
	e.settleLocked(now)
}

func (e *Engine) switchModeLocked(now time.Time) {
	e.pauseLocked(now)
	e.mode = e.mode.Other()
	e.initial = e.cfg.Duration(e.mode)
	e.remaining = e.initial
	e.settleLocked(now)
}

// settleLocked finishes a reset or switch: the fresh value becomes the last
// paused one and stray finish callbacks are muted for SuppressWindow.
func (e *Engine) settleLocked(now time.Time) {
	e.saveLocked()
	e.persist.SetResumeOnReturn(false)
	e.persist.SetLastPaused(e.remaining)
	e.suppressUntil = now.Add(SuppressWindow)
	e.cancelFinishLocked()
}

func (e *Engine) flushLocked() {
	if !e.running {
		e.lastUpdate = time.Time{}
		e.persist.SetResumeOnReturn(false)
		e.persist.SetLastPaused(e.remaining)
	}
	e.saveLocked()
}

func (e *Engine) scheduleFinishLocked(d time.Duration) {
	e.cancelFinishLocked()
	if !e.running {
		return
	}
	if d < 0 {
		d = 0
	}
	e.finishGen++
	gen := e.finishGen
	e.finish = e.clock.AfterFunc(d, func() { e.onFinish(gen) })
}

func (e *Engine) cancelFinishLocked() {
	if e.finish != nil {
		e.finish.Stop()
		e.finish = nil
	}
	e.finishGen++
}

func (e *Engine) requestFrameLocked() {
	e.cancelFrameLocked()
	e.frameGen++
	gen := e.frameGen
	e.frame = e.clock.AfterFunc(e.frameIv, func() { e.onFrame(gen) })
}

func (e *Engine) cancelFrameLocked() {
	if e.frame != nil {
		e.frame.Stop()
		e.frame = nil
	}
	e.frameGen++
}

func (e *Engine) saveLocked() {
	snap := Snapshot{
		IsRunning:    e.running,
		IsStudy:      e.mode == model.ModeStudy,
		TimerSeconds: e.remaining.Seconds(),
	}
	if e.running && !e.lastUpdate.IsZero() {
		ms := clock.EpochMillis(e.lastUpdate)
		snap.LastUpdate = &ms
	}
	_ = e.persist.SaveSnapshot(snap)
}

func (e *Engine) stateLocked() State {
	return State{
		Running:   e.running,
		Mode:      e.mode,
		Remaining: e.remaining,
		Initial:   e.initial,
		Minutes:   e.cfg.Minutes(e.mode),
	}
}

func (e *Engine) render(st State) {
	e.host.Display.Render(st)
}

func clampDuration(d, max time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	if d > max {
		return max
	}
	return d
}
