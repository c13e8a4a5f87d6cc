package store

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"focusd/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "focusd.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func session(start time.Time, d time.Duration, app string, focus bool, label string) models.Session {
	end := start.Add(d)
	return models.Session{
		StartTime:   start,
		EndTime:     &end,
		AppName:     app,
		WindowTitle: app + " window",
		Duration:    d,
		IsFocus:     focus,
		Label:       label,
	}
}

var day = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func TestSessionRoundtrip(t *testing.T) {
	s := newTestStore(t)

	in := session(day.Add(9*time.Hour), 40*time.Minute, "code", true, "deep work")
	in.TabIdentity = ""
	if err := s.SaveSession(&in); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.SessionsForDate(day)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 session, got %d", len(got))
	}
	out := got[0]
	if !out.StartTime.Equal(in.StartTime) {
		t.Errorf("start = %s, want %s", out.StartTime, in.StartTime)
	}
	if out.EndTime == nil || !out.EndTime.Equal(*in.EndTime) {
		t.Errorf("end = %v, want %v", out.EndTime, in.EndTime)
	}
	if out.Duration != in.Duration || out.IsFocus != in.IsFocus || out.Label != in.Label {
		t.Errorf("roundtrip mismatch: %+v", out)
	}
}

func TestOpenSessionKeepsNilEnd(t *testing.T) {
	s := newTestStore(t)

	in := models.Session{StartTime: day.Add(9 * time.Hour), AppName: "code", WindowTitle: "main.go"}
	if err := s.SaveSession(&in); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.SessionsForDate(day)
	if err != nil {
		t.Fatal(err)
	}
	if got[0].EndTime != nil {
		t.Errorf("expected nil end time, got %v", got[0].EndTime)
	}
}

func TestSessionsForDate_Bounds(t *testing.T) {
	s := newTestStore(t)

	inDay := session(day.Add(23*time.Hour+59*time.Minute), time.Minute, "code", true, "")
	nextDay := session(day.AddDate(0, 0, 1), time.Minute, "code", true, "")
	if err := s.SaveSessions([]models.Session{inDay, nextDay}); err != nil {
		t.Fatal(err)
	}

	got, err := s.SessionsForDate(day)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Errorf("expected only the in-day session, got %d", len(got))
	}
}

func TestSwitchRoundtrip(t *testing.T) {
	s := newTestStore(t)

	recovery := 5 * time.Minute
	switches := []models.ContextSwitch{
		{Timestamp: day.Add(10 * time.Hour), FromApp: "slack", ToApp: "code", RecoveryTime: &recovery},
		{Timestamp: day.Add(11 * time.Hour), FromApp: "code", ToApp: "slack"},
	}
	for i := range switches {
		if err := s.SaveSwitch(&switches[i]); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	got, err := s.SwitchesForDate(day)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 switches, got %d", len(got))
	}
	if got[0].RecoveryTime == nil || *got[0].RecoveryTime != recovery {
		t.Errorf("recovery = %v, want %s", got[0].RecoveryTime, recovery)
	}
	if got[1].RecoveryTime != nil {
		t.Errorf("expected nil recovery on plain switch, got %v", got[1].RecoveryTime)
	}
}

func TestMostDistractingApps(t *testing.T) {
	s := newTestStore(t)

	err := s.SaveSessions([]models.Session{
		session(day.Add(9*time.Hour), 30*time.Minute, "slack", false, ""),
		session(day.Add(10*time.Hour), 10*time.Minute, "discord", false, ""),
		session(day.Add(11*time.Hour), 20*time.Minute, "slack", false, ""),
		session(day.Add(12*time.Hour), 2*time.Hour, "code", true, ""),
	})
	if err != nil {
		t.Fatal(err)
	}

	apps, err := s.MostDistractingApps(day, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(apps) != 2 {
		t.Fatalf("expected 2 distracting apps, got %d", len(apps))
	}
	if apps[0].Name != "slack" || apps[0].Duration != 50*time.Minute {
		t.Errorf("unexpected top app %+v", apps[0])
	}
}

func TestDeepFocusSessionCount(t *testing.T) {
	s := newTestStore(t)

	err := s.SaveSessions([]models.Session{
		session(day.Add(9*time.Hour), 45*time.Minute, "code", true, ""),
		session(day.Add(10*time.Hour), 10*time.Minute, "code", true, ""),
		session(day.Add(11*time.Hour), time.Hour, "slack", false, ""),
	})
	if err != nil {
		t.Fatal(err)
	}

	count, err := s.DeepFocusSessionCount(day, 30*time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("deep focus count = %d, want 1", count)
	}
}

func TestAverageRecoveryTime(t *testing.T) {
	s := newTestStore(t)

	avg, err := s.AverageRecoveryTime(day)
	if err != nil {
		t.Fatal(err)
	}
	if avg != nil {
		t.Errorf("expected nil average on empty day, got %s", *avg)
	}

	r1, r2 := 2*time.Minute, 4*time.Minute
	s.SaveSwitch(&models.ContextSwitch{Timestamp: day.Add(time.Hour), FromApp: "a", ToApp: "b", RecoveryTime: &r1})
	s.SaveSwitch(&models.ContextSwitch{Timestamp: day.Add(2 * time.Hour), FromApp: "b", ToApp: "a", RecoveryTime: &r2})
	s.SaveSwitch(&models.ContextSwitch{Timestamp: day.Add(3 * time.Hour), FromApp: "a", ToApp: "b"})

	avg, err = s.AverageRecoveryTime(day)
	if err != nil {
		t.Fatal(err)
	}
	if avg == nil || *avg != 3*time.Minute {
		t.Errorf("average = %v, want 3m", avg)
	}
}

func TestLabels(t *testing.T) {
	s := newTestStore(t)

	err := s.SaveSessions([]models.Session{
		session(day.Add(9*time.Hour), time.Hour, "code", true, "morning"),
		session(day.Add(14*time.Hour), time.Hour, "code", true, "afternoon"),
		session(day.Add(16*time.Hour), time.Hour, "slack", false, ""),
	})
	if err != nil {
		t.Fatal(err)
	}

	exists, err := s.LabelExists("morning")
	if err != nil || !exists {
		t.Errorf("LabelExists(morning) = %v, %v", exists, err)
	}
	exists, _ = s.LabelExists("evening")
	if exists {
		t.Error("LabelExists(evening) should be false")
	}

	recent, err := s.MostRecentLabel()
	if err != nil {
		t.Fatal(err)
	}
	if recent != "afternoon" {
		t.Errorf("most recent label = %q, want afternoon", recent)
	}

	labeled, err := s.SessionsForLabel("morning")
	if err != nil || len(labeled) != 1 {
		t.Errorf("SessionsForLabel = %d sessions, %v", len(labeled), err)
	}
}

func TestCleanupInvalid(t *testing.T) {
	s := newTestStore(t)

	err := s.SaveSessions([]models.Session{
		session(day.Add(9*time.Hour), 25*time.Hour, "code", true, ""), // stuck
		session(day.Add(10*time.Hour), 0, "blip", false, ""),          // noise
		session(day.Add(11*time.Hour), time.Hour, "code", true, ""),
	})
	if err != nil {
		t.Fatal(err)
	}

	deleted, err := s.CleanupInvalid()
	if err != nil {
		t.Fatal(err)
	}
	if deleted != 2 {
		t.Errorf("deleted = %d, want 2", deleted)
	}
	rest, _ := s.SessionsForDate(day)
	if len(rest) != 1 {
		t.Errorf("expected 1 surviving session, got %d", len(rest))
	}
}

func TestMalformedTimestampIsHardError(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Exec(`
		INSERT INTO sessions (start_time, end_time, app_name, window_title, duration_seconds, is_focus)
		VALUES ('not-a-timestamp', NULL, 'code', 'w', 60, 1)
	`)
	if err != nil {
		t.Fatal(err)
	}

	_, err = s.AllSessions()
	if err == nil {
		t.Fatal("expected a hard error for a corrupt row")
	}
	if !strings.Contains(err.Error(), "malformed start_time") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestClearAllAndVacuum(t *testing.T) {
	s := newTestStore(t)

	in := session(day, time.Hour, "code", true, "")
	s.SaveSession(&in)
	s.SaveSwitch(&models.ContextSwitch{Timestamp: day, FromApp: "a", ToApp: "b"})

	if err := s.ClearAll(); err != nil {
		t.Fatal(err)
	}
	sessions, _ := s.AllSessions()
	if len(sessions) != 0 {
		t.Errorf("expected empty store, got %d sessions", len(sessions))
	}
	if err := s.Vacuum(); err != nil {
		t.Errorf("vacuum: %v", err)
	}
}
