package model

import "time"

// Mode is the half of the study/break cycle a countdown belongs to.
type Mode string

const (
	ModeStudy Mode = "study"
	ModeBreak Mode = "break"
)

// Other returns the mode the cycle switches to.
func (m Mode) Other() Mode {
	if m == ModeStudy {
		return ModeBreak
	}
	return ModeStudy
}

func (m Mode) String() string {
	return string(m)
}

// Kind distinguishes session boundaries from periodic nudges.
type Kind string

const (
	KindFinish   Kind = "finish"
	KindReminder Kind = "reminder"
)

// DefaultUserKey suffixes storage keys when no user is configured.
const DefaultUserKey = "anon"

// SessionConfig is supplied by the host and read-only to the engine.
type SessionConfig struct {
	StudyMinutes            int
	BreakMinutes            int
	ReminderIntervalMinutes int
}

// DefaultSessionConfig returns the stock 25/5 cycle with 30 minute reminders.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		StudyMinutes:            25,
		BreakMinutes:            5,
		ReminderIntervalMinutes: 30,
	}
}

// Duration returns the countdown length for mode.
func (c SessionConfig) Duration(mode Mode) time.Duration {
	if mode == ModeBreak {
		return time.Duration(c.BreakMinutes) * time.Minute
	}
	return time.Duration(c.StudyMinutes) * time.Minute
}

// Minutes returns the configured minutes for mode.
func (c SessionConfig) Minutes(mode Mode) int {
	if mode == ModeBreak {
		return c.BreakMinutes
	}
	return c.StudyMinutes
}

// Valid reports whether every duration is positive.
func (c SessionConfig) Valid() bool {
	return c.StudyMinutes > 0 && c.BreakMinutes > 0 && c.ReminderIntervalMinutes > 0
}
