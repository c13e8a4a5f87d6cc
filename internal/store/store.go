package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"focusd/internal/models"
)

type Store struct {
	*sql.DB
}

func New(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, err
	}

	s := &Store{db}
	if err := s.migrate(); err != nil {
		return nil, err
	}

	slog.Info("store initialized", "path", path)
	return s, nil
}

func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			start_time TEXT NOT NULL,
			end_time TEXT,
			app_name TEXT NOT NULL,
			window_title TEXT NOT NULL,
			tab_identity TEXT NOT NULL DEFAULT '',
			duration_seconds INTEGER NOT NULL,
			is_focus INTEGER NOT NULL,
			label TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_start ON sessions(start_time)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_label ON sessions(label)`,

		`CREATE TABLE IF NOT EXISTS context_switches (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp TEXT NOT NULL,
			from_app TEXT NOT NULL,
			to_app TEXT NOT NULL,
			recovery_seconds INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_switches_timestamp ON context_switches(timestamp)`,
	}

	for _, m := range migrations {
		if _, err := s.Exec(m); err != nil {
			return err
		}
	}

	return nil
}

// --- Session operations ---

func (s *Store) SaveSession(session *models.Session) error {
	var end any
	if session.EndTime != nil {
		end = session.EndTime.UTC().Format(time.RFC3339)
	}
	_, err := s.Exec(`
		INSERT INTO sessions (start_time, end_time, app_name, window_title, tab_identity, duration_seconds, is_focus, label)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, session.StartTime.UTC().Format(time.RFC3339), end, session.AppName, session.WindowTitle,
		session.TabIdentity, int64(session.Duration.Seconds()), boolInt(session.IsFocus), session.Label)
	return err
}

func (s *Store) SaveSessions(sessions []models.Session) error {
	tx, err := s.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO sessions (start_time, end_time, app_name, window_title, tab_identity, duration_seconds, is_focus, label)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := range sessions {
		session := &sessions[i]
		var end any
		if session.EndTime != nil {
			end = session.EndTime.UTC().Format(time.RFC3339)
		}
		if _, err := stmt.Exec(session.StartTime.UTC().Format(time.RFC3339), end, session.AppName,
			session.WindowTitle, session.TabIdentity, int64(session.Duration.Seconds()),
			boolInt(session.IsFocus), session.Label); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *Store) SessionsForDate(date time.Time) ([]models.Session, error) {
	start, end := dayBounds(date)
	return s.querySessions(`
		SELECT id, start_time, end_time, app_name, window_title, tab_identity, duration_seconds, is_focus, label
		FROM sessions WHERE start_time >= ? AND start_time <= ? ORDER BY start_time
	`, start, end)
}

func (s *Store) SessionsForLabel(label string) ([]models.Session, error) {
	return s.querySessions(`
		SELECT id, start_time, end_time, app_name, window_title, tab_identity, duration_seconds, is_focus, label
		FROM sessions WHERE label = ? ORDER BY start_time
	`, label)
}

func (s *Store) AllSessions() ([]models.Session, error) {
	return s.querySessions(`
		SELECT id, start_time, end_time, app_name, window_title, tab_identity, duration_seconds, is_focus, label
		FROM sessions ORDER BY start_time
	`)
}

func (s *Store) querySessions(query string, args ...any) ([]models.Session, error) {
	rows, err := s.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []models.Session
	for rows.Next() {
		var (
			sess               models.Session
			startStr           string
			endStr             sql.NullString
			durationSec, focus int64
		)
		if err := rows.Scan(&sess.ID, &startStr, &endStr, &sess.AppName, &sess.WindowTitle,
			&sess.TabIdentity, &durationSec, &focus, &sess.Label); err != nil {
			return nil, err
		}
		sess.StartTime, err = time.Parse(time.RFC3339, startStr)
		if err != nil {
			return nil, fmt.Errorf("session %d: malformed start_time %q: %w", sess.ID, startStr, err)
		}
		if endStr.Valid {
			t, err := time.Parse(time.RFC3339, endStr.String)
			if err != nil {
				return nil, fmt.Errorf("session %d: malformed end_time %q: %w", sess.ID, endStr.String, err)
			}
			sess.EndTime = &t
		}
		sess.Duration = time.Duration(durationSec) * time.Second
		sess.IsFocus = focus == 1
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// --- Context switch operations ---

func (s *Store) SaveSwitch(sw *models.ContextSwitch) error {
	var recovery any
	if sw.RecoveryTime != nil {
		recovery = int64(sw.RecoveryTime.Seconds())
	}
	_, err := s.Exec(`
		INSERT INTO context_switches (timestamp, from_app, to_app, recovery_seconds)
		VALUES (?, ?, ?, ?)
	`, sw.Timestamp.UTC().Format(time.RFC3339), sw.FromApp, sw.ToApp, recovery)
	return err
}

func (s *Store) SwitchesForDate(date time.Time) ([]models.ContextSwitch, error) {
	start, end := dayBounds(date)
	rows, err := s.Query(`
		SELECT id, timestamp, from_app, to_app, recovery_seconds
		FROM context_switches WHERE timestamp >= ? AND timestamp <= ? ORDER BY timestamp
	`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var switches []models.ContextSwitch
	for rows.Next() {
		var (
			sw       models.ContextSwitch
			tsStr    string
			recovery sql.NullInt64
		)
		if err := rows.Scan(&sw.ID, &tsStr, &sw.FromApp, &sw.ToApp, &recovery); err != nil {
			return nil, err
		}
		sw.Timestamp, err = time.Parse(time.RFC3339, tsStr)
		if err != nil {
			return nil, fmt.Errorf("switch %d: malformed timestamp %q: %w", sw.ID, tsStr, err)
		}
		if recovery.Valid {
			d := time.Duration(recovery.Int64) * time.Second
			sw.RecoveryTime = &d
		}
		switches = append(switches, sw)
	}
	return switches, rows.Err()
}

// --- Aggregation queries ---

// MostDistractingApps returns per-app totals over non-focus sessions of the
// day, largest first.
func (s *Store) MostDistractingApps(date time.Time, limit int) ([]models.AppTime, error) {
	start, end := dayBounds(date)
	rows, err := s.Query(`
		SELECT app_name, SUM(duration_seconds) AS total
		FROM sessions
		WHERE start_time >= ? AND start_time <= ? AND is_focus = 0
		GROUP BY app_name ORDER BY total DESC LIMIT ?
	`, start, end, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var apps []models.AppTime
	for rows.Next() {
		var (
			name  string
			total int64
		)
		if err := rows.Scan(&name, &total); err != nil {
			return nil, err
		}
		apps = append(apps, models.AppTime{Name: name, Duration: time.Duration(total) * time.Second})
	}
	return apps, rows.Err()
}

func (s *Store) DeepFocusSessionCount(date time.Time, minDuration time.Duration) (int, error) {
	start, end := dayBounds(date)
	var count int
	err := s.QueryRow(`
		SELECT COUNT(*) FROM sessions
		WHERE start_time >= ? AND start_time <= ? AND is_focus = 1 AND duration_seconds >= ?
	`, start, end, int64(minDuration.Seconds())).Scan(&count)
	return count, err
}

// AverageRecoveryTime averages the recovery column over the day's switches.
// Returns nil when no switch recorded a recovery time.
func (s *Store) AverageRecoveryTime(date time.Time) (*time.Duration, error) {
	start, end := dayBounds(date)
	var avg sql.NullFloat64
	err := s.QueryRow(`
		SELECT AVG(recovery_seconds) FROM context_switches
		WHERE timestamp >= ? AND timestamp <= ? AND recovery_seconds IS NOT NULL
	`, start, end).Scan(&avg)
	if err != nil {
		return nil, err
	}
	if !avg.Valid {
		return nil, nil
	}
	d := time.Duration(avg.Float64 * float64(time.Second))
	return &d, nil
}

// --- Label operations ---

func (s *Store) LabelExists(label string) (bool, error) {
	var count int
	err := s.QueryRow("SELECT COUNT(*) FROM sessions WHERE label = ?", label).Scan(&count)
	return count > 0, err
}

// MostRecentLabel returns the label of the latest labeled session, or ""
// when nothing labeled has been recorded.
func (s *Store) MostRecentLabel() (string, error) {
	var label string
	err := s.QueryRow(`
		SELECT label FROM sessions WHERE label != '' ORDER BY start_time DESC LIMIT 1
	`).Scan(&label)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return label, err
}

// --- Maintenance ---

// CleanupInvalid removes sessions with out-of-range durations: stuck
// sessions over 24h and sub-second noise.
func (s *Store) CleanupInvalid() (int64, error) {
	res, err := s.Exec(`
		DELETE FROM sessions
		WHERE duration_seconds > 86400 OR (duration_seconds < 1 AND end_time IS NOT NULL)
	`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) ClearAll() error {
	for _, table := range []string{"sessions", "context_switches"} {
		if _, err := s.Exec("DELETE FROM " + table); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Vacuum() error {
	_, err := s.Exec("VACUUM")
	return err
}

// --- helpers ---

// dayBounds returns the inclusive RFC3339 bounds of the UTC calendar day.
func dayBounds(date time.Time) (string, string) {
	d := date.UTC()
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, 0, time.UTC)
	return start.Format(time.RFC3339), end.Format(time.RFC3339)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
