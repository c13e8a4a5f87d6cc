package models

import (
	"time"
)

// Session is a contiguous timed interval attributed to one (app, tab) pair.
// EndTime is nil while the session is still open; Duration is zero until the
// session closes. IsFocus is decided when the session opens and never
// recomputed, even if the focus lists change afterwards.
type Session struct {
	ID          int64         `json:"id,omitempty"`
	StartTime   time.Time     `json:"start_time"`
	EndTime     *time.Time    `json:"end_time,omitempty"`
	AppName     string        `json:"app_name"`
	WindowTitle string        `json:"window_title"`
	TabIdentity string        `json:"tab_identity,omitempty"` // set only for browser apps
	Duration    time.Duration `json:"duration"`
	IsFocus     bool          `json:"is_focus"`
	Label       string        `json:"label,omitempty"` // enclosing named work session
}

// Open reports whether the session has not been closed yet.
func (s *Session) Open() bool {
	return s.EndTime == nil
}

// ContextSwitch records the tracked identity changing from one app to
// another. RecoveryTime is set only when the destination is focus-classified:
// it is the elapsed time since the previous switch into a focus identity.
type ContextSwitch struct {
	ID           int64          `json:"id,omitempty"`
	Timestamp    time.Time      `json:"timestamp"`
	FromApp      string         `json:"from_app"`
	ToApp        string         `json:"to_app"`
	RecoveryTime *time.Duration `json:"recovery_time,omitempty"`
}

// AppUsage is one row of a per-app (or per-tab) usage breakdown.
type AppUsage struct {
	Name     string        `json:"name"`
	Duration time.Duration `json:"duration"`
	IsFocus  bool          `json:"is_focus"`
}

// AppTime is a bare (app, total duration) pair used by top-N lists.
type AppTime struct {
	Name     string        `json:"name"`
	Duration time.Duration `json:"duration"`
}

// AggregatedSession is the derived rollup of all raw sessions sharing a
// label. Unlabeled sessions are never merged; each gets its own group.
type AggregatedSession struct {
	Name            string        `json:"name"`
	StartTime       time.Time     `json:"start_time"`
	EndTime         *time.Time    `json:"end_time,omitempty"`
	TotalDuration   time.Duration `json:"total_duration"`
	FocusEfficiency float64       `json:"focus_efficiency"`
	AppUsage        []AppUsage    `json:"app_usage"`
	TabUsage        []AppUsage    `json:"tab_usage"`
	ContextSwitches int           `json:"context_switches"`
}

// DailyStats is the rollup for one UTC calendar day.
type DailyStats struct {
	Date                 time.Time      `json:"date"`
	TotalFocusTime       time.Duration  `json:"total_focus_time"`
	TotalDistractionTime time.Duration  `json:"total_distraction_time"`
	ContextSwitches      int            `json:"context_switches"`
	DeepFocusSessions    int            `json:"deep_focus_sessions"`
	FocusEfficiency      float64        `json:"focus_efficiency"`
	MostUsedApps         []AppTime      `json:"most_used_apps"`
	MostDistractingApps  []AppTime      `json:"most_distracting_apps"`
	AverageRecoveryTime  *time.Duration `json:"average_recovery_time,omitempty"`
}

// WeeklyStats rolls up seven consecutive days starting at WeekStart.
type WeeklyStats struct {
	WeekStart              time.Time      `json:"week_start"`
	Daily                  []DailyStats   `json:"daily"`
	TotalFocusTime         time.Duration  `json:"total_focus_time"`
	TotalDistractionTime   time.Duration  `json:"total_distraction_time"`
	TotalContextSwitches   int            `json:"total_context_switches"`
	TotalDeepFocusSessions int            `json:"total_deep_focus_sessions"`
	AverageDailyFocus      time.Duration  `json:"average_daily_focus"`
	AverageDailySwitches   float64        `json:"average_daily_switches"`
	AverageRecoveryTime    *time.Duration `json:"average_recovery_time,omitempty"`
}
