package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"focusd/internal/export"
	"focusd/internal/report"
	"focusd/internal/stats"
)

func newStatsCmd(configPath *string) *cobra.Command {
	var dateStr string
	var weekly bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show daily or weekly focus statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			day := time.Now().UTC()
			if dateStr != "" {
				day, err = time.Parse("2006-01-02", dateStr)
				if err != nil {
					return fmt.Errorf("invalid date %q, use YYYY-MM-DD", dateStr)
				}
			}

			agg := stats.New(st, cfg.DeepFocusThreshold())
			if weekly {
				ws, err := agg.WeeklyStats(day.AddDate(0, 0, -6))
				if err != nil {
					return err
				}
				_, _ = fmt.Fprint(cmd.OutOrStdout(), report.Weekly(ws))
				return nil
			}

			ds, err := agg.DailyStats(day)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprint(cmd.OutOrStdout(), report.Daily(ds))
			return nil
		},
	}
	cmd.Flags().StringVar(&dateStr, "date", "", "day to report on (YYYY-MM-DD, default today)")
	cmd.Flags().BoolVar(&weekly, "weekly", false, "report on the week ending at --date")
	return cmd
}

func newSessionsCmd(configPath *string) *cobra.Command {
	sessions := &cobra.Command{Use: "sessions", Short: "Inspect recorded work sessions"}

	var dateStr string
	list := &cobra.Command{
		Use:   "list",
		Short: "List logical sessions for one day",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			day := time.Now().UTC()
			if dateStr != "" {
				day, err = time.Parse("2006-01-02", dateStr)
				if err != nil {
					return fmt.Errorf("invalid date %q, use YYYY-MM-DD", dateStr)
				}
			}

			raw, err := st.SessionsForDate(day)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprint(cmd.OutOrStdout(), report.SessionList(stats.AggregateByLabel(raw)))
			return nil
		},
	}
	list.Flags().StringVar(&dateStr, "date", "", "day to list (YYYY-MM-DD, default today)")

	show := &cobra.Command{
		Use:   "show <label>",
		Short: "Show one named session in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			agg, err := stats.New(st, cfg.DeepFocusThreshold()).SessionStats(args[0])
			if err != nil {
				if errors.Is(err, stats.ErrSessionNotFound) {
					return fmt.Errorf("no session named %q", args[0])
				}
				return err
			}
			_, _ = fmt.Fprint(cmd.OutOrStdout(), report.Session(agg))
			return nil
		},
	}

	sessions.AddCommand(list, show)
	return sessions
}

// newShareCmd prints a plain-text summary suitable for pasting into chat.
func newShareCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "share [label]",
		Short: "Print a shareable summary of a session or of today",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			agg := stats.New(st, cfg.DeepFocusThreshold())

			var sb strings.Builder
			if len(args) == 1 {
				s, err := agg.SessionStats(args[0])
				if err != nil {
					if errors.Is(err, stats.ErrSessionNotFound) {
						return fmt.Errorf("no session named %q", args[0])
					}
					return err
				}
				fmt.Fprintf(&sb, "Session %q: %s total, %.0f%% focused, %d context switches\n",
					s.Name, report.FormatDuration(s.TotalDuration), s.FocusEfficiency, s.ContextSwitches)
				for i, app := range s.AppUsage {
					if i >= 3 {
						break
					}
					fmt.Fprintf(&sb, "  - %s: %s\n", app.Name, report.FormatDuration(app.Duration))
				}
			} else {
				today := time.Now().UTC()
				ds, err := agg.DailyStats(today)
				if err != nil {
					return err
				}
				fmt.Fprintf(&sb, "Focus report for %s: %s focused, %s distracted (%.0f%% efficiency), %d switches, %d deep focus session(s)\n",
					today.Format("Jan 2"), report.FormatDuration(ds.TotalFocusTime),
					report.FormatDuration(ds.TotalDistractionTime), ds.FocusEfficiency,
					ds.ContextSwitches, ds.DeepFocusSessions)
			}
			_, _ = fmt.Fprint(cmd.OutOrStdout(), sb.String())
			return nil
		},
	}
}

func newExportCmd(configPath *string) *cobra.Command {
	var startStr, endStr, format, output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export sessions and switches to json, csv, or html",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			end := time.Now().UTC()
			start := end
			if startStr != "" {
				start, err = time.Parse("2006-01-02", startStr)
				if err != nil {
					return fmt.Errorf("invalid start date %q", startStr)
				}
			}
			if endStr != "" {
				end, err = time.Parse("2006-01-02", endStr)
				if err != nil {
					return fmt.Errorf("invalid end date %q", endStr)
				}
			}
			if start.After(end) {
				return fmt.Errorf("start date is after end date")
			}
			if format == "" {
				format = cfg.Export.Format
			}

			path, err := export.Range(st, start, end, format, output, cfg.ExportPath())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "exported to %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&startStr, "start", "", "range start (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&endStr, "end", "", "range end (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&format, "format", "", "json, csv, or html (default from config)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default timestamped under export path)")
	return cmd
}
