package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sadopc/dailystretch/internal/model"
	"github.com/sadopc/dailystretch/internal/store"
)

type jsonExport struct {
	ExportedAt string        `json:"exported_at"`
	Count      int           `json:"count"`
	Totals     jsonTotals    `json:"totals"`
	Sessions   []jsonSession `json:"sessions"`
}

type jsonTotals struct {
	StudySeconds int64 `json:"study_seconds"`
	BreakSeconds int64 `json:"break_seconds"`
}

type jsonSession struct {
	ID          int64  `json:"id"`
	Mode        string `json:"mode"`
	StartedAt   string `json:"started_at"`
	FinishedAt  string `json:"finished_at"`
	DurationSec int64  `json:"duration_seconds"`
	Duration    string `json:"duration"`
	UserKey     string `json:"user_key"`
	PageID      string `json:"page_id,omitempty"`
}

func ToJSON(sessions []store.CompletedSession, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	defer f.Close()

	return WriteJSON(f, sessions, time.Now())
}

// WriteJSON writes an indented export document stamped with now.
func WriteJSON(w io.Writer, sessions []store.CompletedSession, now time.Time) error {
	export := jsonExport{
		ExportedAt: now.UTC().Format(time.RFC3339),
		Count:      len(sessions),
	}

	for _, s := range sessions {
		switch s.Mode {
		case model.ModeStudy:
			export.Totals.StudySeconds += s.Duration
		case model.ModeBreak:
			export.Totals.BreakSeconds += s.Duration
		}
		export.Sessions = append(export.Sessions, jsonSession{
			ID:          s.ID,
			Mode:        string(s.Mode),
			StartedAt:   startedAt(s).Local().Format(time.RFC3339),
			FinishedAt:  s.FinishedAt.Local().Format(time.RFC3339),
			DurationSec: s.Duration,
			Duration:    formatDuration(s.Duration),
			UserKey:     s.UserKey,
			PageID:      s.PageID,
		})
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}
