package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"focusd/internal/models"
)

// Reader is the slice of the store the exporter needs.
type Reader interface {
	SessionsForDate(date time.Time) ([]models.Session, error)
	SwitchesForDate(date time.Time) ([]models.ContextSwitch, error)
}

type Data struct {
	ExportDate time.Time              `json:"export_date"`
	Start      time.Time              `json:"start"`
	End        time.Time              `json:"end"`
	Sessions   []models.Session       `json:"sessions"`
	Switches   []models.ContextSwitch `json:"context_switches"`
	Summary    Summary                `json:"summary"`
}

type Summary struct {
	TotalFocusSeconds       int64   `json:"total_focus_time_seconds"`
	TotalDistractionSeconds int64   `json:"total_distraction_time_seconds"`
	TotalContextSwitches    int     `json:"total_context_switches"`
	DeepFocusSessions       int     `json:"deep_focus_sessions"`
	FocusEfficiency         float64 `json:"focus_efficiency_percentage"`
	AverageRecoverySeconds  *int64  `json:"average_recovery_time_seconds,omitempty"`
}

// Range exports all sessions and switches between start and end (inclusive,
// whole days) in the given format. When outPath is empty a timestamped file
// is created under dir. Returns the written path.
func Range(r Reader, start, end time.Time, format, outPath, dir string) (string, error) {
	data, err := collect(r, start, end)
	if err != nil {
		return "", err
	}

	if outPath == "" {
		name := fmt.Sprintf("focusd_export_%s.%s", time.Now().Format("20060102_150405"), format)
		outPath = filepath.Join(dir, name)
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", err
	}

	switch strings.ToLower(format) {
	case "json":
		err = writeJSON(data, outPath)
	case "csv":
		err = writeCSV(data, outPath)
	case "html":
		err = writeHTML(data, outPath)
	default:
		return "", fmt.Errorf("unsupported export format %q (use json, csv, or html)", format)
	}
	if err != nil {
		return "", err
	}
	return outPath, nil
}

func collect(r Reader, start, end time.Time) (*Data, error) {
	data := &Data{ExportDate: time.Now().UTC(), Start: start, End: end}

	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		sessions, err := r.SessionsForDate(d)
		if err != nil {
			return nil, fmt.Errorf("load sessions for %s: %w", d.Format("2006-01-02"), err)
		}
		switches, err := r.SwitchesForDate(d)
		if err != nil {
			return nil, fmt.Errorf("load switches for %s: %w", d.Format("2006-01-02"), err)
		}
		data.Sessions = append(data.Sessions, sessions...)
		data.Switches = append(data.Switches, switches...)
	}

	data.Summary = summarize(data.Sessions, data.Switches)
	return data, nil
}

func summarize(sessions []models.Session, switches []models.ContextSwitch) Summary {
	var s Summary
	for _, sess := range sessions {
		secs := int64(sess.Duration.Seconds())
		if sess.IsFocus {
			s.TotalFocusSeconds += secs
			if sess.Duration >= 30*time.Minute {
				s.DeepFocusSessions++
			}
		} else {
			s.TotalDistractionSeconds += secs
		}
	}
	total := s.TotalFocusSeconds + s.TotalDistractionSeconds
	if total > 0 {
		s.FocusEfficiency = 100 * float64(s.TotalFocusSeconds) / float64(total)
	}

	s.TotalContextSwitches = len(switches)
	var sum, n int64
	for _, sw := range switches {
		if sw.RecoveryTime != nil {
			sum += int64(sw.RecoveryTime.Seconds())
			n++
		}
	}
	if n > 0 {
		avg := sum / n
		s.AverageRecoverySeconds = &avg
	}
	return s
}

func writeJSON(data *Data, path string) error {
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o644)
}

func writeCSV(data *Data, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	rows := [][]string{
		{"Summary"},
		{"Total Focus Time (seconds)", strconv.FormatInt(data.Summary.TotalFocusSeconds, 10)},
		{"Total Distraction Time (seconds)", strconv.FormatInt(data.Summary.TotalDistractionSeconds, 10)},
		{"Total Context Switches", strconv.Itoa(data.Summary.TotalContextSwitches)},
		{"Deep Focus Sessions", strconv.Itoa(data.Summary.DeepFocusSessions)},
		{"Focus Efficiency (%)", fmt.Sprintf("%.2f", data.Summary.FocusEfficiency)},
	}
	if data.Summary.AverageRecoverySeconds != nil {
		rows = append(rows, []string{"Average Recovery Time (seconds)", strconv.FormatInt(*data.Summary.AverageRecoverySeconds, 10)})
	}
	rows = append(rows, nil,
		[]string{"Sessions"},
		[]string{"Start Time", "End Time", "App Name", "Window Title", "Duration (seconds)", "Is Focus", "Label"})
	for _, s := range data.Sessions {
		end := ""
		if s.EndTime != nil {
			end = s.EndTime.Format(time.RFC3339)
		}
		rows = append(rows, []string{
			s.StartTime.Format(time.RFC3339), end, s.AppName, s.WindowTitle,
			strconv.FormatInt(int64(s.Duration.Seconds()), 10), strconv.FormatBool(s.IsFocus), s.Label,
		})
	}
	rows = append(rows, nil,
		[]string{"Context Switches"},
		[]string{"Timestamp", "From App", "To App", "Recovery Time (seconds)"})
	for _, sw := range data.Switches {
		recovery := ""
		if sw.RecoveryTime != nil {
			recovery = strconv.FormatInt(int64(sw.RecoveryTime.Seconds()), 10)
		}
		rows = append(rows, []string{sw.Timestamp.Format(time.RFC3339), sw.FromApp, sw.ToApp, recovery})
	}

	for _, row := range rows {
		if row == nil {
			row = []string{""}
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

var htmlTmpl = template.Must(template.New("export").Funcs(template.FuncMap{
	"fmtTime": func(t time.Time) string { return t.Format("2006-01-02 15:04:05") },
	"fmtEnd": func(t *time.Time) string {
		if t == nil {
			return "active"
		}
		return t.Format("15:04:05")
	},
	"fmtDur": func(d time.Duration) string {
		h := int(d.Hours())
		m := int(d.Minutes()) % 60
		if h > 0 {
			return fmt.Sprintf("%dh %dm", h, m)
		}
		return fmt.Sprintf("%dm", m)
	},
	"fmtRecovery": func(d *time.Duration) string {
		if d == nil {
			return "n/a"
		}
		return d.String()
	},
}).Parse(`<!DOCTYPE html>
<html>
<head>
<title>focusd export {{fmtTime .Start}} - {{fmtTime .End}}</title>
<style>
body { font-family: sans-serif; margin: 40px; }
.summary { background: #f5f5f5; padding: 20px; border-radius: 8px; }
table { width: 100%; border-collapse: collapse; margin: 20px 0; }
th, td { padding: 8px 12px; text-align: left; border-bottom: 1px solid #ddd; }
th { background: #34495e; color: white; }
.focus { color: #27ae60; }
.distraction { color: #e74c3c; }
</style>
</head>
<body>
<h1>focusd export</h1>
<p>Generated {{fmtTime .ExportDate}} | Range {{fmtTime .Start}} to {{fmtTime .End}}</p>
<div class="summary">
<p>Focus: {{.Summary.TotalFocusSeconds}}s | Distraction: {{.Summary.TotalDistractionSeconds}}s |
Switches: {{.Summary.TotalContextSwitches}} | Deep focus sessions: {{.Summary.DeepFocusSessions}} |
Efficiency: {{printf "%.1f" .Summary.FocusEfficiency}}%</p>
</div>
<h2>Sessions</h2>
<table>
<tr><th>Start</th><th>End</th><th>App</th><th>Window</th><th>Duration</th><th>Type</th></tr>
{{range .Sessions}}
<tr class="{{if .IsFocus}}focus{{else}}distraction{{end}}">
<td>{{fmtTime .StartTime}}</td><td>{{fmtEnd .EndTime}}</td><td>{{.AppName}}</td>
<td>{{.WindowTitle}}</td><td>{{fmtDur .Duration}}</td>
<td>{{if .IsFocus}}Focus{{else}}Distraction{{end}}</td>
</tr>
{{end}}
</table>
<h2>Context Switches</h2>
<table>
<tr><th>Time</th><th>From</th><th>To</th><th>Recovery</th></tr>
{{range .Switches}}
<tr><td>{{fmtTime .Timestamp}}</td><td>{{.FromApp}}</td><td>{{.ToApp}}</td><td>{{fmtRecovery .RecoveryTime}}</td></tr>
{{end}}
</table>
</body>
</html>`))

func writeHTML(data *Data, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return htmlTmpl.Execute(f, data)
}
