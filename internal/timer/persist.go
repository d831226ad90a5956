package timer

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/sadopc/dailystretch/internal/clock"
	"github.com/sadopc/dailystretch/internal/logging"
	"github.com/sadopc/dailystretch/internal/store"
)

const (
	timerStateKeyBase  = "ds_timer_state_v2"
	resumeOnReturnKey  = "ds_timer_resume_on_return"
	lastPausedKeyBase  = "ds_last_paused_seconds_"
	resumeOnReturnTrue = "1"
	resumeOnReturnOff  = "0"
	quoteShownKey      = "ds_quote_shown"
)

// Storage is a string key/value store. Get reports a missing key with an
// error wrapping store.ErrNotFound.
type Storage interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Remove(key string) error
}

// Snapshot is the persisted projection of the timer.
type Snapshot struct {
	IsRunning    bool    `json:"isRunning"`
	IsStudy      bool    `json:"isStudy"`
	TimerSeconds float64 `json:"timerSeconds"`
	LastUpdate   *int64  `json:"lastUpdate"`
}

type rawSnapshot struct {
	IsRunning    bool     `json:"isRunning"`
	IsStudy      bool     `json:"isStudy"`
	TimerSeconds *float64 `json:"timerSeconds"`
	LastUpdate   *float64 `json:"lastUpdate"`
}

// Remaining returns TimerSeconds as a duration, never negative.
func (s Snapshot) Remaining() time.Duration {
	return secondsToDuration(s.TimerSeconds)
}

// maxSeconds is the largest second count a time.Duration can hold.
var maxSeconds = float64(math.MaxInt64 / int64(time.Second))

// secondsToDuration converts without overflowing. Negative and NaN values
// become 0; huge values saturate.
func secondsToDuration(secs float64) time.Duration {
	if math.IsNaN(secs) || secs <= 0 {
		return 0
	}
	if secs >= maxSeconds {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(secs * float64(time.Second))
}

// LastUpdateTime returns the last update instant, or the zero time.
func (s Snapshot) LastUpdateTime() time.Time {
	if s.LastUpdate == nil {
		return time.Time{}
	}
	return clock.FromEpochMillis(*s.LastUpdate)
}

// TimerStateKey returns the durable key holding the snapshot for userKey.
func TimerStateKey(userKey string) string {
	if userKey == "" {
		return timerStateKeyBase
	}
	return timerStateKeyBase + "_" + userKey
}

// LastPausedKey returns the page-lifetime key for the last paused value.
func LastPausedKey(userKey string) string {
	return lastPausedKeyBase + userKey
}

// ResumeOnReturnKey is the page-lifetime key of the resume flag.
func ResumeOnReturnKey() string {
	return resumeOnReturnKey
}

// Persister reads and writes timer state. Durable values survive restarts;
// session values live as long as the process. Failures are logged and
// returned, never fatal.
type Persister struct {
	durable Storage
	session Storage
	userKey string
	logger  *logging.Logger
}

func NewPersister(durable, session Storage, userKey string, logger *logging.Logger) *Persister {
	return &Persister{
		durable: durable,
		session: session,
		userKey: userKey,
		logger:  logger,
	}
}

func (p *Persister) SaveSnapshot(s Snapshot) error {
	payload, err := json.Marshal(s)
	if err != nil {
		p.logger.Warn("failed to encode timer state", logging.F("err", err))
		return fmt.Errorf("encode timer state: %w", err)
	}
	if err := p.durable.Set(TimerStateKey(p.userKey), string(payload)); err != nil {
		p.logger.Warn("failed to save timer state", logging.F("err", err))
		return err
	}
	return nil
}

// LoadSnapshot returns the stored snapshot. ok is false when nothing usable
// is stored.
func (p *Persister) LoadSnapshot() (Snapshot, bool) {
	raw, err := p.durable.Get(TimerStateKey(p.userKey))
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			p.logger.Warn("failed to load timer state", logging.F("err", err))
		}
		return Snapshot{}, false
	}

	var saved rawSnapshot
	if err := json.Unmarshal([]byte(raw), &saved); err != nil {
		p.logger.Warn("failed to parse timer state", logging.F("err", err))
		return Snapshot{}, false
	}
	if saved.TimerSeconds == nil || math.IsNaN(*saved.TimerSeconds) {
		return Snapshot{}, false
	}

	snap := Snapshot{
		IsRunning:    saved.IsRunning,
		IsStudy:      saved.IsStudy,
		TimerSeconds: math.Max(0, *saved.TimerSeconds),
	}
	if saved.LastUpdate != nil {
		ms := int64(*saved.LastUpdate)
		snap.LastUpdate = &ms
	}
	return snap, true
}

func (p *Persister) SetResumeOnReturn(resume bool) {
	value := resumeOnReturnOff
	if resume {
		value = resumeOnReturnTrue
	}
	if err := p.session.Set(resumeOnReturnKey, value); err != nil {
		p.logger.Warn("failed to write resume flag", logging.F("err", err))
	}
}

func (p *Persister) ResumeOnReturn() bool {
	v, err := p.session.Get(resumeOnReturnKey)
	if err != nil {
		return false
	}
	return v == resumeOnReturnTrue
}

// QuoteShown reports whether the start quote was already shown this session.
func (p *Persister) QuoteShown() bool {
	_, err := p.session.Get(quoteShownKey)
	return err == nil
}

func (p *Persister) SetQuoteShown(shown bool) {
	var err error
	if shown {
		err = p.session.Set(quoteShownKey, "1")
	} else {
		err = p.session.Remove(quoteShownKey)
	}
	if err != nil {
		p.logger.Warn("failed to write quote flag", logging.F("err", err))
	}
}

func (p *Persister) SetLastPaused(remaining time.Duration) {
	value := strconv.FormatFloat(remaining.Seconds(), 'f', -1, 64)
	if err := p.session.Set(LastPausedKey(p.userKey), value); err != nil {
		p.logger.Warn("failed to write last paused value", logging.F("err", err))
	}
}

// LastPaused returns the last explicitly paused remaining time, if one is
// stored and is a number >= 0.
func (p *Persister) LastPaused() (time.Duration, bool) {
	v, err := p.session.Get(LastPausedKey(p.userKey))
	if err != nil {
		return 0, false
	}
	secs, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(secs) || secs < 0 {
		return 0, false
	}
	return secondsToDuration(secs), true
}

// Clear removes the durable timer state.
func (p *Persister) Clear() error {
	return p.durable.Remove(TimerStateKey(p.userKey))
}
