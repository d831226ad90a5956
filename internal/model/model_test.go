package model

import (
	"testing"
	"time"
)

func TestModeOther(t *testing.T) {
	if ModeStudy.Other() != ModeBreak {
		t.Fatal("study should switch to break")
	}
	if ModeBreak.Other() != ModeStudy {
		t.Fatal("break should switch to study")
	}
}

func TestSessionConfigDurations(t *testing.T) {
	cfg := DefaultSessionConfig()

	if cfg.Duration(ModeStudy) != 25*time.Minute {
		t.Fatalf("study = %v", cfg.Duration(ModeStudy))
	}
	if cfg.Duration(ModeBreak) != 5*time.Minute {
		t.Fatalf("break = %v", cfg.Duration(ModeBreak))
	}
	if cfg.Minutes(ModeBreak) != 5 || cfg.Minutes(ModeStudy) != 25 {
		t.Fatal("unexpected minutes")
	}
}

func TestSessionConfigValid(t *testing.T) {
	tests := []struct {
		name string
		cfg  SessionConfig
		want bool
	}{
		{"default", DefaultSessionConfig(), true},
		{"zero study", SessionConfig{StudyMinutes: 0, BreakMinutes: 5, ReminderIntervalMinutes: 30}, false},
		{"negative break", SessionConfig{StudyMinutes: 25, BreakMinutes: -1, ReminderIntervalMinutes: 30}, false},
		{"zero reminder", SessionConfig{StudyMinutes: 25, BreakMinutes: 5}, false},
	}
	for _, tt := range tests {
		if got := tt.cfg.Valid(); got != tt.want {
			t.Errorf("%s: Valid() = %v, want %v", tt.name, got, tt.want)
		}
	}
}
