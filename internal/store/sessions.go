package store

import (
	"fmt"
	"time"

	"github.com/sadopc/dailystretch/internal/model"
)

// RecordSession logs a countdown that reached zero.
func (s *Store) RecordSession(userKey, pageID string, mode model.Mode, duration time.Duration, finishedAt time.Time) (*CompletedSession, error) {
	res, err := s.db.Exec(
		`INSERT INTO completed_sessions (user_key, page_id, mode, duration, finished_at)
		 VALUES (?, ?, ?, ?, ?)`,
		userKey, pageID, string(mode), int64(duration.Seconds()), finishedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("record session: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetSession(id)
}

func (s *Store) GetSession(id int64) (*CompletedSession, error) {
	cs := &CompletedSession{}
	var mode, finishedAt string
	err := s.db.QueryRow(
		`SELECT id, user_key, page_id, mode, duration, finished_at FROM completed_sessions WHERE id = ?`, id,
	).Scan(&cs.ID, &cs.UserKey, &cs.PageID, &mode, &cs.Duration, &finishedAt)
	if err != nil {
		return nil, fmt.Errorf("get session %d: %w", id, err)
	}
	cs.Mode = model.Mode(mode)
	cs.FinishedAt, _ = time.Parse(time.RFC3339, finishedAt)
	return cs, nil
}

func (s *Store) ListSessions(f SessionFilter) ([]CompletedSession, error) {
	query := `SELECT id, user_key, page_id, mode, duration, finished_at FROM completed_sessions WHERE 1=1`
	var args []any

	if f.UserKey != "" {
		query += ` AND user_key = ?`
		args = append(args, f.UserKey)
	}
	if f.Mode != "" {
		query += ` AND mode = ?`
		args = append(args, string(f.Mode))
	}
	if f.From != nil {
		query += ` AND finished_at >= ?`
		args = append(args, f.From.UTC().Format(time.RFC3339))
	}
	if f.To != nil {
		query += ` AND finished_at < ?`
		args = append(args, f.To.UTC().Format(time.RFC3339))
	}
	query += ` ORDER BY finished_at DESC, id DESC`
	if f.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, f.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []CompletedSession
	for rows.Next() {
		var cs CompletedSession
		var mode, finishedAt string
		if err := rows.Scan(&cs.ID, &cs.UserKey, &cs.PageID, &mode, &cs.Duration, &finishedAt); err != nil {
			return nil, err
		}
		cs.Mode = model.Mode(mode)
		cs.FinishedAt, _ = time.Parse(time.RFC3339, finishedAt)
		sessions = append(sessions, cs)
	}
	return sessions, rows.Err()
}

func (s *Store) GetDailySummary(userKey string, from, to time.Time) ([]DailySummary, error) {
	rows, err := s.db.Query(`
		SELECT date(finished_at) AS day, mode, COALESCE(SUM(duration), 0), COUNT(*)
		FROM completed_sessions
		WHERE user_key = ?
		  AND finished_at >= ? AND finished_at < ?
		GROUP BY day, mode
		ORDER BY day, mode DESC`,
		userKey, from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("daily summary: %w", err)
	}
	defer rows.Close()

	var summaries []DailySummary
	for rows.Next() {
		var ds DailySummary
		var mode string
		if err := rows.Scan(&ds.Date, &mode, &ds.TotalSeconds, &ds.Count); err != nil {
			return nil, err
		}
		ds.Mode = model.Mode(mode)
		summaries = append(summaries, ds)
	}
	return summaries, rows.Err()
}

// GetTodayCount returns how many sessions of mode finished on the UTC day of now.
func (s *Store) GetTodayCount(userKey string, mode model.Mode, now time.Time) (int, error) {
	today := now.UTC().Format("2006-01-02")
	var count int
	err := s.db.QueryRow(`
		SELECT COUNT(*)
		FROM completed_sessions
		WHERE user_key = ? AND mode = ? AND date(finished_at) = ?`,
		userKey, string(mode), today,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("today count: %w", err)
	}
	return count, nil
}
