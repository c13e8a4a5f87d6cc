package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"focusd/internal/models"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#4A90E2")).
			MarginTop(1)

	focusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575")).
			Bold(true)

	distractionStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FF6B6B")).
				Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#874BFD")).
			Padding(1, 2)

	barFilledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575"))
	barEmptyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#3C3C3C"))
)

// FormatDuration renders a duration as "2h 15m", or "45m", or "30s" for
// sub-minute values.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	if m > 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%ds", int(d.Seconds()))
}

// EfficiencyBar renders a fixed-width meter for a 0-100 percentage.
func EfficiencyBar(percent float64, width int) string {
	if width <= 0 {
		width = 20
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := int(percent / 100 * float64(width))
	return barFilledStyle.Render(strings.Repeat("█", filled)) +
		barEmptyStyle.Render(strings.Repeat("░", width-filled))
}

// Daily renders the one-day report.
func Daily(ds models.DailyStats) string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Daily Report — "+ds.Date.Format("Mon Jan 2, 2006")) + "\n\n")

	total := ds.TotalFocusTime + ds.TotalDistractionTime
	if total == 0 {
		sb.WriteString(dimStyle.Render("No activity recorded.") + "\n")
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("  Focus time        %s\n", focusStyle.Render(FormatDuration(ds.TotalFocusTime))))
	sb.WriteString(fmt.Sprintf("  Distraction time  %s\n", distractionStyle.Render(FormatDuration(ds.TotalDistractionTime))))
	sb.WriteString(fmt.Sprintf("  Efficiency        %s %.1f%%\n", EfficiencyBar(ds.FocusEfficiency, 20), ds.FocusEfficiency))
	sb.WriteString(fmt.Sprintf("  Context switches  %d\n", ds.ContextSwitches))
	sb.WriteString(fmt.Sprintf("  Deep focus        %d session(s)\n", ds.DeepFocusSessions))
	if ds.AverageRecoveryTime != nil {
		sb.WriteString(fmt.Sprintf("  Avg recovery      %s\n", FormatDuration(*ds.AverageRecoveryTime)))
	}

	if len(ds.MostUsedApps) > 0 {
		sb.WriteString(sectionStyle.Render("Most used apps") + "\n")
		for _, app := range ds.MostUsedApps {
			sb.WriteString(fmt.Sprintf("  %-24s %s\n", app.Name, FormatDuration(app.Duration)))
		}
	}
	if len(ds.MostDistractingApps) > 0 {
		sb.WriteString(sectionStyle.Render("Most distracting apps") + "\n")
		for _, app := range ds.MostDistractingApps {
			sb.WriteString(fmt.Sprintf("  %-24s %s\n", app.Name, distractionStyle.Render(FormatDuration(app.Duration))))
		}
	}

	return sb.String()
}

// Weekly renders the seven-day report.
func Weekly(ws models.WeeklyStats) string {
	var sb strings.Builder

	weekEnd := ws.WeekStart.AddDate(0, 0, 6)
	sb.WriteString(titleStyle.Render(fmt.Sprintf("Weekly Report — %s to %s",
		ws.WeekStart.Format("Jan 2"), weekEnd.Format("Jan 2, 2006"))) + "\n\n")

	sb.WriteString(fmt.Sprintf("  Total focus       %s\n", focusStyle.Render(FormatDuration(ws.TotalFocusTime))))
	sb.WriteString(fmt.Sprintf("  Total distraction %s\n", distractionStyle.Render(FormatDuration(ws.TotalDistractionTime))))
	sb.WriteString(fmt.Sprintf("  Avg daily focus   %s\n", FormatDuration(ws.AverageDailyFocus)))
	sb.WriteString(fmt.Sprintf("  Switches          %d total, %.1f/day\n", ws.TotalContextSwitches, ws.AverageDailySwitches))
	sb.WriteString(fmt.Sprintf("  Deep focus        %d session(s)\n", ws.TotalDeepFocusSessions))
	if ws.AverageRecoveryTime != nil {
		sb.WriteString(fmt.Sprintf("  Avg recovery      %s\n", FormatDuration(*ws.AverageRecoveryTime)))
	}

	sb.WriteString(sectionStyle.Render("Daily breakdown") + "\n")
	for _, day := range ws.Daily {
		bar := EfficiencyBar(day.FocusEfficiency, 15)
		sb.WriteString(fmt.Sprintf("  %s  %s %5.1f%%  focus %s\n",
			day.Date.Format("Mon 01-02"), bar, day.FocusEfficiency, FormatDuration(day.TotalFocusTime)))
	}

	return sb.String()
}

// Session renders one aggregated named work session.
func Session(agg models.AggregatedSession) string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Session — "+agg.Name) + "\n\n")

	sb.WriteString(fmt.Sprintf("  Started           %s (%s)\n",
		agg.StartTime.Format("2006-01-02 15:04"), humanize.Time(agg.StartTime)))
	if agg.EndTime != nil {
		sb.WriteString(fmt.Sprintf("  Ended             %s\n", agg.EndTime.Format("2006-01-02 15:04")))
	} else {
		sb.WriteString("  Ended             " + dimStyle.Render("still active") + "\n")
	}
	sb.WriteString(fmt.Sprintf("  Duration          %s\n", FormatDuration(agg.TotalDuration)))
	sb.WriteString(fmt.Sprintf("  Efficiency        %s %.1f%%\n", EfficiencyBar(agg.FocusEfficiency, 20), agg.FocusEfficiency))
	sb.WriteString(fmt.Sprintf("  Context switches  %d\n", agg.ContextSwitches))

	if len(agg.AppUsage) > 0 {
		sb.WriteString(sectionStyle.Render("Apps") + "\n")
		for _, app := range agg.AppUsage {
			sb.WriteString("  " + usageLine(app) + "\n")
		}
	}
	if len(agg.TabUsage) > 0 {
		sb.WriteString(sectionStyle.Render("Browser tabs") + "\n")
		for _, tab := range agg.TabUsage {
			sb.WriteString("  " + usageLine(tab) + "\n")
		}
	}

	return sb.String()
}

// SessionList renders a compact listing of aggregated sessions.
func SessionList(sessions []models.AggregatedSession) string {
	if len(sessions) == 0 {
		return dimStyle.Render("No sessions recorded.") + "\n"
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Sessions") + "\n\n")
	for _, s := range sessions {
		marker := focusStyle.Render("●")
		if s.FocusEfficiency < 50 {
			marker = distractionStyle.Render("●")
		}
		sb.WriteString(fmt.Sprintf("  %s %-28s %-10s %s\n",
			marker, truncate(s.Name, 28), FormatDuration(s.TotalDuration), dimStyle.Render(humanize.Time(s.StartTime))))
	}
	return sb.String()
}

// Status renders the live tracker state for the status command.
func Status(running bool, current *models.Session) string {
	var sb strings.Builder

	if !running {
		sb.WriteString(distractionStyle.Render("● not running") + "\n")
		return sb.String()
	}

	sb.WriteString(focusStyle.Render("● tracking") + "\n")
	if current != nil {
		kind := distractionStyle.Render("distraction")
		if current.IsFocus {
			kind = focusStyle.Render("focus")
		}
		inner := fmt.Sprintf("%s — %s\n%s for %s",
			current.AppName, truncate(current.WindowTitle, 48),
			kind, FormatDuration(current.Duration))
		sb.WriteString(boxStyle.Render(inner) + "\n")
	}
	return sb.String()
}

func usageLine(u models.AppUsage) string {
	name := truncate(u.Name, 36)
	if u.IsFocus {
		return fmt.Sprintf("%-38s %s", name, focusStyle.Render(FormatDuration(u.Duration)))
	}
	return fmt.Sprintf("%-38s %s", name, FormatDuration(u.Duration))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
