package store

import (
	"errors"
	"testing"
	"time"

	"github.com/sadopc/dailystretch/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// ============================================================
// Store initialization
// ============================================================

func TestNewMemory(t *testing.T) {
	s, err := NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	var version int
	s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if version != 1 {
		t.Fatalf("expected user_version 1, got %d", version)
	}
}

func TestNewWithPath(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/sub/dailystretch.db"
	s, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Set("k", "v"); err != nil {
		t.Fatal(err)
	}
	s.Close()

	// Reopen: data survives and migration is not re-run
	s2, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()
	v, err := s2.Get("k")
	if err != nil || v != "v" {
		t.Fatalf("expected persisted value, got %q, %v", v, err)
	}
}

func TestDefaultDBPath(t *testing.T) {
	path, err := DefaultDBPath()
	if err != nil {
		t.Fatal(err)
	}
	if path == "" {
		t.Fatal("empty path")
	}
}

func TestMigrationIdempotent(t *testing.T) {
	s := newTestStore(t)
	if err := s.migrate(); err != nil {
		t.Fatalf("second migration failed: %v", err)
	}
}

// ============================================================
// Local storage
// ============================================================

func TestGetMissingKey(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get("ds_timer_state_v2_anon")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSetAndGet(t *testing.T) {
	s := newTestStore(t)
	if err := s.Set("reminderIntervalMinutes", "30"); err != nil {
		t.Fatal(err)
	}
	v, err := s.Get("reminderIntervalMinutes")
	if err != nil {
		t.Fatal(err)
	}
	if v != "30" {
		t.Fatalf("expected 30, got %q", v)
	}
}

func TestSetOverwrite(t *testing.T) {
	s := newTestStore(t)
	s.Set("ds_toggle_stretch_anon", "on")
	s.Set("ds_toggle_stretch_anon", "off")
	v, _ := s.Get("ds_toggle_stretch_anon")
	if v != "off" {
		t.Fatalf("expected off, got %q", v)
	}
}

func TestRemove(t *testing.T) {
	s := newTestStore(t)
	s.Set("k", "v")
	if err := s.Remove("k"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get("k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after remove, got %v", err)
	}
	// Removing again is fine
	if err := s.Remove("k"); err != nil {
		t.Fatal(err)
	}
}

func TestAllWithPrefix(t *testing.T) {
	s := newTestStore(t)
	s.Set("ds_toggle_stretch_anon", "on")
	s.Set("ds_toggle_hydration_anon", "off")
	s.Set("reminderIntervalMinutes", "15")

	entries, err := s.All("ds_toggle_")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	// Ordered by key
	if entries[0].Key != "ds_toggle_hydration_anon" {
		t.Fatalf("unexpected first key %q", entries[0].Key)
	}
	if entries[0].UpdatedAt.IsZero() {
		t.Fatal("UpdatedAt should be set")
	}

	all, _ := s.All("")
	if len(all) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(all))
	}
}

func TestCloseStore(t *testing.T) {
	s, _ := NewMemory()
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Set("k", "v"); err == nil {
		t.Fatal("expected error after close")
	}
}

// ============================================================
// Memory KV
// ============================================================

func TestMemoryKV(t *testing.T) {
	m := NewMemoryKV()
	if _, err := m.Get("ds_timer_resume_on_return"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	m.Set("ds_timer_resume_on_return", "1")
	v, err := m.Get("ds_timer_resume_on_return")
	if err != nil || v != "1" {
		t.Fatalf("got %q, %v", v, err)
	}
	if m.Len() != 1 {
		t.Fatalf("expected 1 key, got %d", m.Len())
	}
	m.Remove("ds_timer_resume_on_return")
	if m.Len() != 0 {
		t.Fatal("expected empty store")
	}
}

// ============================================================
// Completed sessions
// ============================================================

func TestRecordAndGetSession(t *testing.T) {
	s := newTestStore(t)
	at := time.Date(2026, 3, 2, 10, 25, 0, 0, time.UTC)

	cs, err := s.RecordSession("anon", "page-1", model.ModeStudy, 25*time.Minute, at)
	if err != nil {
		t.Fatal(err)
	}
	if cs.ID == 0 {
		t.Fatal("expected non-zero ID")
	}
	if cs.Mode != model.ModeStudy || cs.Duration != 1500 || cs.UserKey != "anon" || cs.PageID != "page-1" {
		t.Fatalf("unexpected session %+v", cs)
	}
	if !cs.FinishedAt.Equal(at) {
		t.Fatalf("expected finished at %v, got %v", at, cs.FinishedAt)
	}
}

func TestGetSessionNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetSession(999); err == nil {
		t.Fatal("expected error for missing session")
	}
}

func TestRecordSessionRejectsUnknownMode(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.RecordSession("anon", "", model.Mode("nap"), time.Minute, time.Now()); err == nil {
		t.Fatal("expected constraint error for unknown mode")
	}
}

func TestListSessionsFilters(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	s.RecordSession("anon", "", model.ModeStudy, 25*time.Minute, base)
	s.RecordSession("anon", "", model.ModeBreak, 5*time.Minute, base.Add(30*time.Minute))
	s.RecordSession("anon", "", model.ModeStudy, 25*time.Minute, base.Add(24*time.Hour))
	s.RecordSession("alice", "", model.ModeStudy, 25*time.Minute, base)

	all, err := s.ListSessions(SessionFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 sessions, got %d", len(all))
	}

	mine, _ := s.ListSessions(SessionFilter{UserKey: "anon"})
	if len(mine) != 3 {
		t.Fatalf("expected 3 sessions for anon, got %d", len(mine))
	}
	// Newest first
	if !mine[0].FinishedAt.Equal(base.Add(24 * time.Hour)) {
		t.Fatalf("expected newest first, got %v", mine[0].FinishedAt)
	}

	study, _ := s.ListSessions(SessionFilter{UserKey: "anon", Mode: model.ModeStudy})
	if len(study) != 2 {
		t.Fatalf("expected 2 study sessions, got %d", len(study))
	}

	from := base
	to := base.Add(time.Hour)
	day, _ := s.ListSessions(SessionFilter{UserKey: "anon", From: &from, To: &to})
	if len(day) != 2 {
		t.Fatalf("expected 2 sessions in range, got %d", len(day))
	}

	limited, _ := s.ListSessions(SessionFilter{Limit: 1})
	if len(limited) != 1 {
		t.Fatalf("expected 1 session with limit, got %d", len(limited))
	}
}

func TestGetDailySummary(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	s.RecordSession("anon", "", model.ModeStudy, 25*time.Minute, base)
	s.RecordSession("anon", "", model.ModeStudy, 25*time.Minute, base.Add(time.Hour))
	s.RecordSession("anon", "", model.ModeBreak, 5*time.Minute, base.Add(30*time.Minute))
	s.RecordSession("anon", "", model.ModeStudy, 50*time.Minute, base.Add(24*time.Hour))
	s.RecordSession("alice", "", model.ModeStudy, 25*time.Minute, base)

	from := base.Add(-9 * time.Hour)
	to := from.Add(48 * time.Hour)
	summaries, err := s.GetDailySummary("anon", from, to)
	if err != nil {
		t.Fatal(err)
	}
	if len(summaries) != 3 {
		t.Fatalf("expected 3 summary rows, got %d: %+v", len(summaries), summaries)
	}

	first := summaries[0]
	if first.Date != "2026-03-02" || first.Mode != model.ModeStudy || first.TotalSeconds != 3000 || first.Count != 2 {
		t.Fatalf("unexpected first row %+v", first)
	}
	second := summaries[1]
	if second.Mode != model.ModeBreak || second.TotalSeconds != 300 {
		t.Fatalf("unexpected second row %+v", second)
	}
	if summaries[2].Date != "2026-03-03" || summaries[2].TotalSeconds != 3000 {
		t.Fatalf("unexpected third row %+v", summaries[2])
	}
}

func TestGetDailySummaryEmpty(t *testing.T) {
	s := newTestStore(t)
	now := time.Now()
	summaries, err := s.GetDailySummary("anon", now.Add(-time.Hour), now.Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if len(summaries) != 0 {
		t.Fatalf("expected empty summary, got %d", len(summaries))
	}
}

func TestGetTodayCount(t *testing.T) {
	s := newTestStore(t)
	now := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)
	s.RecordSession("anon", "", model.ModeStudy, 25*time.Minute, now.Add(-time.Hour))
	s.RecordSession("anon", "", model.ModeStudy, 25*time.Minute, now.Add(-2*time.Hour))
	s.RecordSession("anon", "", model.ModeBreak, 5*time.Minute, now.Add(-time.Hour))
	s.RecordSession("anon", "", model.ModeStudy, 25*time.Minute, now.Add(-24*time.Hour))

	count, err := s.GetTodayCount("anon", model.ModeStudy, now)
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Fatalf("expected 2 study sessions today, got %d", count)
	}
}
