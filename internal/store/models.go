package store

import (
	"time"

	"github.com/sadopc/dailystretch/internal/model"
)

// Entry is one key/value pair of local storage.
type Entry struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

// CompletedSession is a countdown that ran to zero.
type CompletedSession struct {
	ID         int64
	UserKey    string
	PageID     string
	Mode       model.Mode
	Duration   int64 // seconds
	FinishedAt time.Time
}

// SessionFilter narrows ListSessions.
type SessionFilter struct {
	UserKey string
	Mode    model.Mode
	From    *time.Time
	To      *time.Time
	Limit   int
}

// DailySummary aggregates completed sessions per day and mode.
type DailySummary struct {
	Date         string
	Mode         model.Mode
	TotalSeconds int64
	Count        int
}
