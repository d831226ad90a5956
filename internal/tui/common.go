package tui

import (
	"fmt"
	"time"

	"github.com/sadopc/dailystretch/internal/timer"
)

// viewState represents the currently active view.
type viewState int

const (
	viewTimer viewState = iota
	viewHistory
	viewSettings
)

var viewNames = []string{"Timer", "History", "Settings"}

// --- Messages ---

// stateMsg carries a render from the engine.
type stateMsg timer.State

type toastMsg struct {
	text string
	d    time.Duration
}

type toastExpiredMsg struct {
	seq int
}

type statusMsg struct {
	text    string
	isError bool
}

type permissionMsg struct {
	state string
}

type exportDoneMsg struct {
	path string
}

// --- Helpers ---

func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func formatSeconds(secs int64) string {
	return formatDuration(time.Duration(secs) * time.Second)
}

// formatClock renders a countdown as mm:ss, rounding partial seconds up so
// the display reads 00:00 only at zero.
func formatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64((d + time.Second - 1) / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
