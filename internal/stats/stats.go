package stats

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"focusd/internal/models"
)

// ErrSessionNotFound is returned when a named session lookup matches
// nothing. Empty date-range queries are not an error; they produce zeroed
// stats instead.
var ErrSessionNotFound = errors.New("session not found")

// Reader is the slice of the persistence sink the aggregator needs. The
// aggregator never mutates stored data.
type Reader interface {
	SessionsForDate(date time.Time) ([]models.Session, error)
	SwitchesForDate(date time.Time) ([]models.ContextSwitch, error)
	SessionsForLabel(label string) ([]models.Session, error)
	MostDistractingApps(date time.Time, limit int) ([]models.AppTime, error)
	DeepFocusSessionCount(date time.Time, minDuration time.Duration) (int, error)
	AverageRecoveryTime(date time.Time) (*time.Duration, error)
}

const (
	// Sessions outside this range are treated as noise or stuck tracking
	// and excluded from focus/distraction totals.
	minValidSession = time.Second
	maxValidSession = 24 * time.Hour

	// Apps below this floor are dropped from top-N lists.
	appUsageFloor = 10 * time.Second

	topApps = 5
)

type Aggregator struct {
	store              Reader
	deepFocusThreshold time.Duration
}

func New(store Reader, deepFocusThreshold time.Duration) *Aggregator {
	if deepFocusThreshold <= 0 {
		deepFocusThreshold = 30 * time.Minute
	}
	return &Aggregator{store: store, deepFocusThreshold: deepFocusThreshold}
}

// AggregateByLabel groups raw sessions into logical named sessions. Sessions
// sharing a non-empty label form one group; unlabeled sessions each get a
// synthetic app+start key so unrelated activity is never merged. Groups are
// returned most recent first.
func AggregateByLabel(sessions []models.Session) []models.AggregatedSession {
	groups := make(map[string][]models.Session)
	order := make([]string, 0)
	for _, s := range sessions {
		key := s.Label
		if key == "" {
			key = fmt.Sprintf("%s_%d", s.AppName, s.StartTime.Unix())
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], s)
	}

	out := make([]models.AggregatedSession, 0, len(groups))
	for _, key := range order {
		group := groups[key]
		agg := aggregateGroup(group)
		if group[0].Label != "" {
			agg.Name = group[0].Label
		} else {
			agg.Name = key
		}
		out = append(out, agg)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartTime.After(out[j].StartTime)
	})
	return out
}

func aggregateGroup(group []models.Session) models.AggregatedSession {
	agg := models.AggregatedSession{
		StartTime:       group[0].StartTime,
		ContextSwitches: len(group) - 1,
	}
	if agg.ContextSwitches < 0 {
		agg.ContextSwitches = 0
	}

	var (
		end       *time.Time
		sumClosed time.Duration
		sumAll    time.Duration
		focusTime time.Duration
	)
	apps := make(map[string]*models.AppUsage)
	tabs := make(map[string]*models.AppUsage)
	appOrder := make([]string, 0)
	tabOrder := make([]string, 0)

	for i := range group {
		s := &group[i]
		if s.StartTime.Before(agg.StartTime) {
			agg.StartTime = s.StartTime
		}
		if s.EndTime != nil {
			if end == nil || s.EndTime.After(*end) {
				e := *s.EndTime
				end = &e
			}
			sumClosed += s.Duration
		}
		sumAll += s.Duration
		if s.IsFocus {
			focusTime += s.Duration
		}

		u, ok := apps[s.AppName]
		if !ok {
			u = &models.AppUsage{Name: s.AppName}
			apps[s.AppName] = u
			appOrder = append(appOrder, s.AppName)
		}
		u.Duration += s.Duration
		u.IsFocus = u.IsFocus || s.IsFocus

		if s.TabIdentity != "" {
			tu, ok := tabs[s.TabIdentity]
			if !ok {
				tu = &models.AppUsage{Name: s.TabIdentity}
				tabs[s.TabIdentity] = tu
				tabOrder = append(tabOrder, s.TabIdentity)
			}
			tu.Duration += s.Duration
			tu.IsFocus = tu.IsFocus || s.IsFocus
		}
	}

	agg.EndTime = end
	if end != nil {
		// Span of first start to last end. A still-open session may extend
		// past the last recorded end, so never report less than the summed
		// closed durations.
		span := end.Sub(agg.StartTime)
		if span < sumClosed {
			span = sumClosed
		}
		agg.TotalDuration = span
	} else {
		agg.TotalDuration = sumAll
	}

	if agg.TotalDuration > 0 {
		agg.FocusEfficiency = 100 * float64(focusTime) / float64(agg.TotalDuration)
	}

	agg.AppUsage = sortedUsage(apps, appOrder)
	agg.TabUsage = sortedUsage(tabs, tabOrder)
	return agg
}

func sortedUsage(m map[string]*models.AppUsage, order []string) []models.AppUsage {
	out := make([]models.AppUsage, 0, len(m))
	for _, name := range order {
		out = append(out, *m[name])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Duration > out[j].Duration
	})
	return out
}

// SessionStats aggregates all raw sessions recorded under one label.
func (a *Aggregator) SessionStats(label string) (models.AggregatedSession, error) {
	sessions, err := a.store.SessionsForLabel(label)
	if err != nil {
		return models.AggregatedSession{}, fmt.Errorf("load sessions for %q: %w", label, err)
	}
	if len(sessions) == 0 {
		return models.AggregatedSession{}, fmt.Errorf("%w: %q", ErrSessionNotFound, label)
	}
	agg := aggregateGroup(sessions)
	agg.Name = label
	return agg, nil
}

// DailyStats computes the rollup for one UTC calendar day. An empty day is
// a valid zeroed result, not an error.
func (a *Aggregator) DailyStats(date time.Time) (models.DailyStats, error) {
	sessions, err := a.store.SessionsForDate(date)
	if err != nil {
		return models.DailyStats{}, fmt.Errorf("load sessions: %w", err)
	}
	switches, err := a.store.SwitchesForDate(date)
	if err != nil {
		return models.DailyStats{}, fmt.Errorf("load switches: %w", err)
	}
	distracting, err := a.store.MostDistractingApps(date, topApps)
	if err != nil {
		return models.DailyStats{}, fmt.Errorf("load distracting apps: %w", err)
	}
	deepFocus, err := a.store.DeepFocusSessionCount(date, a.deepFocusThreshold)
	if err != nil {
		return models.DailyStats{}, fmt.Errorf("count deep focus sessions: %w", err)
	}
	avgRecovery, err := a.store.AverageRecoveryTime(date)
	if err != nil {
		return models.DailyStats{}, fmt.Errorf("load recovery time: %w", err)
	}

	ds := models.DailyStats{
		Date:                date,
		ContextSwitches:     len(switches),
		DeepFocusSessions:   deepFocus,
		AverageRecoveryTime: avgRecovery,
	}

	appUsage := make(map[string]time.Duration)
	appOrder := make([]string, 0)
	for _, s := range sessions {
		if _, seen := appUsage[s.AppName]; !seen {
			appOrder = append(appOrder, s.AppName)
		}
		appUsage[s.AppName] += s.Duration

		// Validity filter guards the totals only: other fields keep raw data.
		if s.Duration < minValidSession || s.Duration > maxValidSession {
			continue
		}
		if s.IsFocus {
			ds.TotalFocusTime += s.Duration
		} else {
			ds.TotalDistractionTime += s.Duration
		}
	}

	total := ds.TotalFocusTime + ds.TotalDistractionTime
	if total > 0 {
		ds.FocusEfficiency = 100 * float64(ds.TotalFocusTime) / float64(total)
	}

	ds.MostUsedApps = topAppTimes(appUsage, appOrder)
	for _, app := range distracting {
		if app.Duration >= appUsageFloor {
			ds.MostDistractingApps = append(ds.MostDistractingApps, app)
		}
	}

	return ds, nil
}

// WeeklyStats rolls up the seven days starting at weekStart. The average
// recovery time is the mean of the daily averages that exist; days without
// one are excluded rather than counted as zero.
func (a *Aggregator) WeeklyStats(weekStart time.Time) (models.WeeklyStats, error) {
	ws := models.WeeklyStats{WeekStart: weekStart}

	var recoveries []time.Duration
	for i := 0; i < 7; i++ {
		day := weekStart.AddDate(0, 0, i)
		daily, err := a.DailyStats(day)
		if err != nil {
			return models.WeeklyStats{}, fmt.Errorf("day %s: %w", day.Format("2006-01-02"), err)
		}
		ws.Daily = append(ws.Daily, daily)
		ws.TotalFocusTime += daily.TotalFocusTime
		ws.TotalDistractionTime += daily.TotalDistractionTime
		ws.TotalContextSwitches += daily.ContextSwitches
		ws.TotalDeepFocusSessions += daily.DeepFocusSessions
		if daily.AverageRecoveryTime != nil {
			recoveries = append(recoveries, *daily.AverageRecoveryTime)
		}
	}

	ws.AverageDailyFocus = ws.TotalFocusTime / 7
	ws.AverageDailySwitches = float64(ws.TotalContextSwitches) / 7
	if len(recoveries) > 0 {
		var sum time.Duration
		for _, r := range recoveries {
			sum += r
		}
		avg := sum / time.Duration(len(recoveries))
		ws.AverageRecoveryTime = &avg
	}

	return ws, nil
}

func topAppTimes(usage map[string]time.Duration, order []string) []models.AppTime {
	out := make([]models.AppTime, 0, len(usage))
	for _, name := range order {
		if usage[name] >= appUsageFloor {
			out = append(out, models.AppTime{Name: name, Duration: usage[name]})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Duration > out[j].Duration
	})
	if len(out) > topApps {
		out = out[:topApps]
	}
	return out
}
