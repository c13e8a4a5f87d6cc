package tracker

import (
	"strings"
	"sync"
	"time"

	"focusd/internal/models"
)

// DefaultBrowsers are the process names treated as browsers. A browser
// session re-segments on every window title change, so that each tab gets
// its own session. Matching is case-insensitive substring.
var DefaultBrowsers = []string{
	"chrome", "firefox", "safari", "edge", "brave", "chromium", "opera", "vivaldi",
}

// Tracker converts a stream of (app, window title) observations into closed
// sessions and context-switch records. All methods are safe for concurrent
// use; the internal lock is held only for the duration of a call, never
// across a poll.
type Tracker struct {
	mu sync.Mutex

	current   *models.Session
	completed []models.Session
	switches  []models.ContextSwitch

	focusApps   map[string]struct{}
	focusSites  []string
	ignoredApps map[string]struct{}
	browsers    []string

	lastFocusSwitch time.Time // zero until the first switch into a focus identity
	label           string
	enabled         bool

	now func() time.Time
}

func New() *Tracker {
	return &Tracker{
		focusApps:   make(map[string]struct{}),
		ignoredApps: make(map[string]struct{}),
		browsers:    DefaultBrowsers,
		now:         time.Now,
	}
}

func (t *Tracker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = true
}

func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = false
}

func (t *Tracker) Tracking() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.enabled
}

func (t *Tracker) SetLabel(label string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.label = label
}

// SetBrowsers overrides the browser process list. The default list covers
// the common browsers; callers may extend it from configuration.
func (t *Tracker) SetBrowsers(names []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.browsers = names
}

func (t *Tracker) AddFocusApp(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.focusApps[name] = struct{}{}
}

func (t *Tracker) RemoveFocusApp(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.focusApps, name)
}

func (t *Tracker) AddFocusSite(pattern string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.focusSites = append(t.focusSites, pattern)
}

// IgnoreApp excludes an app from tracking entirely: observing it closes any
// open session without recording a switch, and opens nothing.
func (t *Tracker) IgnoreApp(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ignoredApps[name] = struct{}{}
}

// Observe feeds one poll result into the state machine. It either refreshes
// the open session's title, or closes it, records a context switch, and opens
// a new session with the observed identity.
func (t *Tracker) Observe(appName, windowTitle string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.enabled {
		return
	}

	now := t.now()
	if _, ignored := t.ignoredApps[appName]; ignored {
		if t.current != nil {
			t.closeCurrent(now)
		}
		return
	}

	tab := ""
	if t.isBrowser(appName) {
		tab = windowTitle
	}
	isFocus := t.isFocus(appName, tab)

	if t.current != nil && !t.identityChanged(appName, windowTitle, tab) {
		// Same identity: refresh the title without re-segmenting.
		if t.current.WindowTitle != windowTitle {
			t.current.WindowTitle = windowTitle
		}
		return
	}

	if t.current != nil {
		from := t.current.AppName
		t.closeCurrent(now)

		sw := models.ContextSwitch{
			Timestamp: now,
			FromApp:   from,
			ToApp:     appName,
		}
		if isFocus {
			if !t.lastFocusSwitch.IsZero() {
				rt := clamp(now.Sub(t.lastFocusSwitch))
				sw.RecoveryTime = &rt
			}
			t.lastFocusSwitch = now
		}
		t.switches = append(t.switches, sw)
	}

	t.current = &models.Session{
		StartTime:   now,
		AppName:     appName,
		WindowTitle: windowTitle,
		TabIdentity: tab,
		IsFocus:     isFocus,
		Label:       t.label,
	}
}

// EndCurrentSession closes the open session, if any, and moves it to the
// completed buffer. No switch record is produced. Idempotent.
func (t *Tracker) EndCurrentSession() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current == nil {
		return
	}
	t.closeCurrent(t.now())
}

// TakeCompletedSessions drains the completed-sessions buffer. The caller
// takes ownership of the returned slice; the buffer is left empty.
func (t *Tracker) TakeCompletedSessions() []models.Session {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := t.completed
	t.completed = nil
	return out
}

// TakeContextSwitches drains the context-switch buffer.
func (t *Tracker) TakeContextSwitches() []models.ContextSwitch {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := t.switches
	t.switches = nil
	return out
}

// CurrentSession returns a copy of the open session with its duration
// recomputed against now. The second return is false when no session is open.
func (t *Tracker) CurrentSession() (models.Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current == nil {
		return models.Session{}, false
	}
	s := *t.current
	s.Duration = clamp(t.now().Sub(s.StartTime))
	return s, true
}

// Stats is a cheap snapshot of buffer sizes for periodic log lines.
type Stats struct {
	BufferedSessions int
	BufferedSwitches int
	CurrentDuration  time.Duration
}

func (t *Tracker) Snapshot() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()

	st := Stats{
		BufferedSessions: len(t.completed),
		BufferedSwitches: len(t.switches),
	}
	if t.current != nil {
		st.CurrentDuration = clamp(t.now().Sub(t.current.StartTime))
	}
	return st
}

// identityChanged implements the re-segmentation rule: non-browser sessions
// only change identity when the app changes; browser sessions also change on
// any title (tab) change. Callers hold the lock.
func (t *Tracker) identityChanged(appName, windowTitle, tab string) bool {
	if t.current.AppName != appName {
		return true
	}
	if tab != "" && (t.current.WindowTitle != windowTitle || t.current.TabIdentity != tab) {
		return true
	}
	return false
}

func (t *Tracker) closeCurrent(now time.Time) {
	end := now
	t.current.EndTime = &end
	t.current.Duration = clamp(now.Sub(t.current.StartTime))
	t.completed = append(t.completed, *t.current)
	t.current = nil
}

func (t *Tracker) isBrowser(appName string) bool {
	app := strings.ToLower(appName)
	for _, b := range t.browsers {
		if strings.Contains(app, b) {
			return true
		}
	}
	return false
}

func (t *Tracker) isFocus(appName, tab string) bool {
	if _, ok := t.focusApps[appName]; ok {
		return true
	}
	if tab != "" {
		lower := strings.ToLower(tab)
		for _, site := range t.focusSites {
			if strings.Contains(lower, strings.ToLower(site)) {
				return true
			}
		}
	}
	return false
}

// clamp guards against backward clock jumps producing negative durations.
func clamp(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
