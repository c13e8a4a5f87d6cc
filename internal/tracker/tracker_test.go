package tracker

import (
	"testing"
	"time"
)

// fakeClock steps time manually so durations are exact.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestTracker(clock *fakeClock) *Tracker {
	tr := New()
	tr.now = clock.now
	tr.Start()
	return tr
}

func TestObserve_FirstSessionOpensWithoutSwitch(t *testing.T) {
	clock := newFakeClock()
	tr := newTestTracker(clock)

	tr.Observe("code", "main.go")

	if _, ok := tr.CurrentSession(); !ok {
		t.Fatal("expected an open session")
	}
	if got := tr.TakeContextSwitches(); len(got) != 0 {
		t.Errorf("expected no switches, got %d", len(got))
	}
	if got := tr.TakeCompletedSessions(); len(got) != 0 {
		t.Errorf("expected no completed sessions, got %d", len(got))
	}
}

func TestObserve_TitleChangeDoesNotResegmentNonBrowser(t *testing.T) {
	clock := newFakeClock()
	tr := newTestTracker(clock)

	tr.Observe("code", "a.rs")
	clock.advance(5 * time.Second)
	tr.Observe("code", "a.rs")
	clock.advance(5 * time.Second)
	tr.Observe("code", "b.rs")

	if got := tr.TakeCompletedSessions(); len(got) != 0 {
		t.Fatalf("expected 0 completed sessions, got %d", len(got))
	}
	if got := tr.TakeContextSwitches(); len(got) != 0 {
		t.Fatalf("expected 0 switches, got %d", len(got))
	}
	cur, ok := tr.CurrentSession()
	if !ok {
		t.Fatal("expected an open session")
	}
	if cur.WindowTitle != "b.rs" {
		t.Errorf("expected title refreshed to b.rs, got %q", cur.WindowTitle)
	}
	if cur.Duration != 10*time.Second {
		t.Errorf("expected span of 10s, got %s", cur.Duration)
	}
}

func TestObserve_BrowserTabChangeResegments(t *testing.T) {
	clock := newFakeClock()
	tr := newTestTracker(clock)

	tr.Observe("chrome", "Tab A - Google Chrome")
	clock.advance(30 * time.Second)
	tr.Observe("chrome", "Tab B - Google Chrome")

	done := tr.TakeCompletedSessions()
	if len(done) != 1 {
		t.Fatalf("expected 1 completed session, got %d", len(done))
	}
	if done[0].TabIdentity != "Tab A - Google Chrome" {
		t.Errorf("unexpected tab identity %q", done[0].TabIdentity)
	}
	if done[0].Duration != 30*time.Second {
		t.Errorf("expected 30s duration, got %s", done[0].Duration)
	}
	switches := tr.TakeContextSwitches()
	if len(switches) != 1 {
		t.Fatalf("expected 1 switch, got %d", len(switches))
	}
	if switches[0].FromApp != "chrome" || switches[0].ToApp != "chrome" {
		t.Errorf("unexpected switch %+v", switches[0])
	}
}

func TestObserve_AppChangeClosesSessionExactly(t *testing.T) {
	clock := newFakeClock()
	tr := newTestTracker(clock)

	tr.Observe("code", "main.go")
	clock.advance(42 * time.Second)
	tr.Observe("slack", "general")

	done := tr.TakeCompletedSessions()
	if len(done) != 1 {
		t.Fatalf("expected 1 completed session, got %d", len(done))
	}
	s := done[0]
	if s.EndTime == nil {
		t.Fatal("completed session must have an end time")
	}
	if s.Duration != s.EndTime.Sub(s.StartTime) {
		t.Errorf("duration %s != end-start %s", s.Duration, s.EndTime.Sub(s.StartTime))
	}
	if s.Duration != 42*time.Second {
		t.Errorf("expected 42s, got %s", s.Duration)
	}
}

func TestObserve_RecoveryTimeMeasuredFromPreviousFocusSwitch(t *testing.T) {
	clock := newFakeClock()
	tr := newTestTracker(clock)
	tr.AddFocusApp("code")

	tr.Observe("slack", "general")
	clock.advance(10 * time.Second)
	tr.Observe("code", "main.go") // first switch into focus: no previous focus switch
	clock.advance(3 * time.Minute)
	tr.Observe("slack", "general") // leave focus
	clock.advance(2 * time.Minute)
	tr.Observe("code", "main.go") // second switch into focus

	switches := tr.TakeContextSwitches()
	if len(switches) != 3 {
		t.Fatalf("expected 3 switches, got %d", len(switches))
	}
	if switches[0].RecoveryTime != nil {
		t.Errorf("first focus switch should have no recovery time, got %s", *switches[0].RecoveryTime)
	}
	if switches[1].RecoveryTime != nil {
		t.Errorf("switch to distraction should have no recovery time")
	}
	if switches[2].RecoveryTime == nil {
		t.Fatal("second focus switch should carry a recovery time")
	}
	// Gap since the first switch-to-focus, not since the immediately prior switch.
	if want := 5 * time.Minute; *switches[2].RecoveryTime != want {
		t.Errorf("expected recovery %s, got %s", want, *switches[2].RecoveryTime)
	}
}

func TestObserve_FocusSiteMatchesTabSubstring(t *testing.T) {
	clock := newFakeClock()
	tr := newTestTracker(clock)
	tr.AddFocusSite("github.com")

	tr.Observe("firefox", "focusd/focusd: GitHub.com - Mozilla Firefox")
	cur, ok := tr.CurrentSession()
	if !ok || !cur.IsFocus {
		t.Error("expected browser tab matching a focus site to be focus")
	}

	tr.Observe("firefox", "reddit - Mozilla Firefox")
	cur, _ = tr.CurrentSession()
	if cur.IsFocus {
		t.Error("expected non-matching tab to be distraction")
	}
}

func TestObserve_IsFocusFixedAtCreation(t *testing.T) {
	clock := newFakeClock()
	tr := newTestTracker(clock)

	tr.Observe("code", "main.go")
	tr.AddFocusApp("code") // list change mid-session must not reclassify

	cur, _ := tr.CurrentSession()
	if cur.IsFocus {
		t.Error("is_focus must not be recomputed after session creation")
	}
}

func TestObserve_DisabledTrackerIsNoop(t *testing.T) {
	clock := newFakeClock()
	tr := New()
	tr.now = clock.now

	tr.Observe("code", "main.go")
	if _, ok := tr.CurrentSession(); ok {
		t.Error("disabled tracker must not open sessions")
	}
}

func TestEndCurrentSession_Idempotent(t *testing.T) {
	clock := newFakeClock()
	tr := newTestTracker(clock)

	tr.Observe("code", "main.go")
	clock.advance(time.Minute)
	tr.EndCurrentSession()
	tr.EndCurrentSession()

	done := tr.TakeCompletedSessions()
	if len(done) != 1 {
		t.Fatalf("expected exactly 1 completed session, got %d", len(done))
	}
	if got := tr.TakeContextSwitches(); len(got) != 0 {
		t.Errorf("EndCurrentSession must not record a switch, got %d", len(got))
	}
}

func TestAtMostOneOpenSession(t *testing.T) {
	clock := newFakeClock()
	tr := newTestTracker(clock)

	apps := []string{"code", "slack", "chrome", "terminal", "code"}
	for _, app := range apps {
		tr.Observe(app, app+" window")
		clock.advance(time.Second)
	}

	open := 0
	if _, ok := tr.CurrentSession(); ok {
		open++
	}
	for _, s := range tr.TakeCompletedSessions() {
		if s.Open() {
			open--
		}
	}
	if open != 1 {
		t.Errorf("expected exactly one open session, got %d", open)
	}
}

func TestTakeDrainsBuffers(t *testing.T) {
	clock := newFakeClock()
	tr := newTestTracker(clock)

	tr.Observe("code", "main.go")
	clock.advance(time.Second)
	tr.Observe("slack", "general")

	if got := tr.TakeCompletedSessions(); len(got) != 1 {
		t.Fatalf("expected 1 session on first drain, got %d", len(got))
	}
	if got := tr.TakeCompletedSessions(); len(got) != 0 {
		t.Errorf("expected empty buffer on second drain, got %d", len(got))
	}
	if got := tr.TakeContextSwitches(); len(got) != 1 {
		t.Fatalf("expected 1 switch on first drain, got %d", len(got))
	}
	if got := tr.TakeContextSwitches(); len(got) != 0 {
		t.Errorf("expected empty switch buffer on second drain, got %d", len(got))
	}
}

func TestClockJumpBackwardClampsToZero(t *testing.T) {
	clock := newFakeClock()
	tr := newTestTracker(clock)

	tr.Observe("code", "main.go")
	clock.advance(-time.Hour)
	tr.Observe("slack", "general")

	done := tr.TakeCompletedSessions()
	if len(done) != 1 {
		t.Fatalf("expected 1 completed session, got %d", len(done))
	}
	if done[0].Duration != 0 {
		t.Errorf("expected clamped zero duration, got %s", done[0].Duration)
	}
}

func TestSessionLabelStamped(t *testing.T) {
	clock := newFakeClock()
	tr := newTestTracker(clock)
	tr.SetLabel("morning deep work")

	tr.Observe("code", "main.go")
	cur, _ := tr.CurrentSession()
	if cur.Label != "morning deep work" {
		t.Errorf("expected label stamped on session, got %q", cur.Label)
	}
}

func TestIgnoredAppClosesWithoutSwitch(t *testing.T) {
	clock := newFakeClock()
	tr := newTestTracker(clock)
	tr.IgnoreApp("1password")

	tr.Observe("code", "main.go")
	clock.advance(20 * time.Second)
	tr.Observe("1password", "vault")

	if _, ok := tr.CurrentSession(); ok {
		t.Error("expected no open session while an ignored app is active")
	}
	done := tr.TakeCompletedSessions()
	if len(done) != 1 || done[0].Duration != 20*time.Second {
		t.Fatalf("expected the prior session closed at 20s, got %+v", done)
	}
	if got := tr.TakeContextSwitches(); len(got) != 0 {
		t.Errorf("expected no switch into an ignored app, got %d", len(got))
	}

	// Returning to a tracked app opens a fresh session, still without a
	// switch record since there was nothing to switch from.
	tr.Observe("code", "main.go")
	if got := tr.TakeContextSwitches(); len(got) != 0 {
		t.Errorf("expected no switch after ignored gap, got %d", len(got))
	}
	if _, ok := tr.CurrentSession(); !ok {
		t.Error("expected a new open session")
	}
}

func TestIsBrowser(t *testing.T) {
	tr := New()
	cases := []struct {
		app  string
		want bool
	}{
		{"chrome", true},
		{"Google Chrome", true},
		{"firefox-bin", true},
		{"Brave Browser", true},
		{"Microsoft Edge", true},
		{"code", false},
		{"terminal", false},
	}
	for _, c := range cases {
		if got := tr.isBrowser(c.app); got != c.want {
			t.Errorf("isBrowser(%q) = %v, want %v", c.app, got, c.want)
		}
	}
}
