package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sadopc/dailystretch/internal/store"
)

var csvHeader = []string{"ID", "Mode", "Started", "Finished", "Duration (s)", "Duration", "User", "Page"}

func ToCSV(sessions []store.CompletedSession, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	return WriteCSV(f, sessions)
}

// WriteCSV writes one row per completed session, oldest first as given.
func WriteCSV(out io.Writer, sessions []store.CompletedSession) error {
	w := csv.NewWriter(out)
	defer w.Flush()

	if err := w.Write(csvHeader); err != nil {
		return err
	}

	for _, s := range sessions {
		row := []string{
			fmt.Sprintf("%d", s.ID),
			string(s.Mode),
			startedAt(s).Local().Format(time.RFC3339),
			s.FinishedAt.Local().Format(time.RFC3339),
			fmt.Sprintf("%d", s.Duration),
			formatDuration(s.Duration),
			s.UserKey,
			s.PageID,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func startedAt(s store.CompletedSession) time.Time {
	return s.FinishedAt.Add(-time.Duration(s.Duration) * time.Second)
}

func formatDuration(secs int64) string {
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
