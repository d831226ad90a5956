package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sadopc/dailystretch/internal/model"
	"github.com/sadopc/dailystretch/internal/store"
)

func sampleData() []store.CompletedSession {
	finished := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	return []store.CompletedSession{
		{ID: 1, UserKey: "alice", PageID: "p-1", Mode: model.ModeStudy, Duration: 1500, FinishedAt: finished},
		{ID: 2, UserKey: "alice", PageID: "p-1", Mode: model.ModeBreak, Duration: 300, FinishedAt: finished.Add(5 * time.Minute)},
		{ID: 3, UserKey: "alice", Mode: model.ModeStudy, Duration: 3600, FinishedAt: finished.Add(time.Hour)},
	}
}

// ============================================================
// CSV
// ============================================================

func TestToCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.csv")

	if err := ToCSV(sampleData(), path); err != nil {
		t.Fatalf("ToCSV: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}

	// header + 3 data rows
	if len(records) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(records))
	}
	for i, h := range csvHeader {
		if records[0][i] != h {
			t.Fatalf("header[%d] = %q, want %q", i, records[0][i], h)
		}
	}

	row := records[1]
	if row[0] != "1" || row[1] != "study" {
		t.Fatalf("unexpected row %v", row)
	}
	if row[4] != "1500" || row[5] != "00:25:00" {
		t.Fatalf("unexpected duration columns %v", row)
	}
	if row[6] != "alice" || row[7] != "p-1" {
		t.Fatalf("unexpected user/page %v", row)
	}

	started, err := time.Parse(time.RFC3339, row[2])
	if err != nil {
		t.Fatal(err)
	}
	finished, _ := time.Parse(time.RFC3339, row[3])
	if finished.Sub(started) != 25*time.Minute {
		t.Fatalf("started should be duration before finished, got %v", finished.Sub(started))
	}

	if records[3][7] != "" {
		t.Fatalf("missing page id should be empty, got %q", records[3][7])
	}
}

func TestToCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatal(err)
	}
	records, _ := csv.NewReader(&buf).ReadAll()
	if len(records) != 1 {
		t.Fatalf("expected header only, got %d rows", len(records))
	}
}

func TestToCSVBadPath(t *testing.T) {
	if err := ToCSV(nil, "/nonexistent/dir/file.csv"); err == nil {
		t.Fatal("expected error for bad path")
	}
}

func TestToCSVSpecialCharacters(t *testing.T) {
	sessions := []store.CompletedSession{
		{ID: 1, UserKey: `a "quoted", user`, Mode: model.ModeStudy, Duration: 60, FinishedAt: time.Now()},
	}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sessions); err != nil {
		t.Fatal(err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("CSV should be valid even with special chars: %v", err)
	}
	if records[1][6] != `a "quoted", user` {
		t.Fatalf("user key mangled: %q", records[1][6])
	}
}

// ============================================================
// JSON
// ============================================================

func TestToJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.json")

	if err := ToJSON(sampleData(), path); err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var result jsonExport
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if result.Count != 3 || len(result.Sessions) != 3 {
		t.Fatalf("count = %d, sessions = %d, want 3", result.Count, len(result.Sessions))
	}
	if result.Totals.StudySeconds != 5100 || result.Totals.BreakSeconds != 300 {
		t.Fatalf("unexpected totals %+v", result.Totals)
	}
	s := result.Sessions[1]
	if s.ID != 2 || s.Mode != "break" || s.DurationSec != 300 || s.Duration != "00:05:00" {
		t.Fatalf("unexpected session %+v", s)
	}
	if result.Sessions[2].PageID != "" {
		t.Fatal("missing page id should be omitted")
	}
}

func TestWriteJSONStamp(t *testing.T) {
	var buf bytes.Buffer
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	if err := WriteJSON(&buf, nil, now); err != nil {
		t.Fatal(err)
	}

	var result jsonExport
	if err := json.Unmarshal(buf.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if result.ExportedAt != "2026-03-02T12:00:00Z" {
		t.Fatalf("unexpected exported_at %q", result.ExportedAt)
	}
	if result.Count != 0 || result.Sessions != nil {
		t.Fatal("empty export should have no sessions")
	}
}

func TestToJSONBadPath(t *testing.T) {
	if err := ToJSON(nil, "/nonexistent/dir/file.json"); err == nil {
		t.Fatal("expected error for bad path")
	}
}

func TestToJSONPrettyPrinted(t *testing.T) {
	var buf bytes.Buffer
	WriteJSON(&buf, sampleData(), time.Now())

	if !strings.Contains(buf.String(), "\n  ") {
		t.Fatal("JSON should be indented")
	}
}

func TestToJSONValidTimestamps(t *testing.T) {
	var buf bytes.Buffer
	WriteJSON(&buf, sampleData(), time.Now())

	var result jsonExport
	json.Unmarshal(buf.Bytes(), &result)

	for _, s := range result.Sessions {
		if _, err := time.Parse(time.RFC3339, s.StartedAt); err != nil {
			t.Fatalf("started_at is not valid RFC3339: %q", s.StartedAt)
		}
		if _, err := time.Parse(time.RFC3339, s.FinishedAt); err != nil {
			t.Fatalf("finished_at is not valid RFC3339: %q", s.FinishedAt)
		}
	}
}

// ============================================================
// formatDuration (internal helper)
// ============================================================

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		secs int64
		want string
	}{
		{0, "00:00:00"},
		{1, "00:00:01"},
		{60, "00:01:00"},
		{3600, "01:00:00"},
		{3661, "01:01:01"},
		{86400, "24:00:00"},
	}

	for _, tt := range tests {
		if got := formatDuration(tt.secs); got != tt.want {
			t.Errorf("formatDuration(%d) = %q, want %q", tt.secs, got, tt.want)
		}
	}
}
