package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"focusd/internal/config"
)

func newFocusAppCmd(configPath *string) *cobra.Command {
	focusapp := &cobra.Command{Use: "focusapp", Short: "Manage the focus app list"}

	focusapp.AddCommand(&cobra.Command{
		Use:   "add <app>",
		Short: "Classify an app as focus",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutateConfig(cmd, *configPath, func(cfg *config.Config) string {
				cfg.AddFocusApp(args[0])
				return fmt.Sprintf("added focus app %q", args[0])
			})
		},
	})
	focusapp.AddCommand(&cobra.Command{
		Use:   "remove <app>",
		Short: "Remove an app from the focus list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutateConfig(cmd, *configPath, func(cfg *config.Config) string {
				cfg.RemoveFocusApp(args[0])
				return fmt.Sprintf("removed focus app %q", args[0])
			})
		},
	})
	focusapp.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List focus apps",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if len(cfg.FocusApps) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no focus apps configured")
				return nil
			}
			for _, app := range cfg.FocusApps {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), app)
			}
			return nil
		},
	})
	return focusapp
}

func newFocusSiteCmd(configPath *string) *cobra.Command {
	focussite := &cobra.Command{Use: "focussite", Short: "Manage the focus site list for browser tabs"}

	focussite.AddCommand(&cobra.Command{
		Use:   "add <pattern>",
		Short: "Classify browser tabs matching a pattern as focus",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutateConfig(cmd, *configPath, func(cfg *config.Config) string {
				cfg.AddFocusSite(args[0])
				return fmt.Sprintf("added focus site %q", args[0])
			})
		},
	})
	focussite.AddCommand(&cobra.Command{
		Use:   "remove <pattern>",
		Short: "Remove a focus site pattern",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutateConfig(cmd, *configPath, func(cfg *config.Config) string {
				cfg.RemoveFocusSite(args[0])
				return fmt.Sprintf("removed focus site %q", args[0])
			})
		},
	})
	focussite.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List focus site patterns",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if len(cfg.FocusSites) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no focus sites configured")
				return nil
			}
			for _, site := range cfg.FocusSites {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), site)
			}
			return nil
		},
	})
	return focussite
}

func newConfigCmd(configPath *string) *cobra.Command {
	configCmd := &cobra.Command{Use: "config", Short: "Inspect and edit configuration"}

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			out, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprint(cmd.OutOrStdout(), string(out))
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set one configuration value",
		Long: `Set one configuration value and save the file.

Supported keys: database_path, tracking_interval_ms, save_interval_ms,
deep_focus_threshold_minutes, listen_addr, report_schedule, timezone,
export.auto, export.format, export.path`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutateConfigE(cmd, *configPath, func(cfg *config.Config) (string, error) {
				if err := setConfigKey(cfg, args[0], args[1]); err != nil {
					return "", err
				}
				return fmt.Sprintf("set %s = %s", args[0], args[1]), nil
			})
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Reset configuration to defaults",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Default()
			if err := cfg.Save(*configPath); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "configuration reset, written to %s\n", *configPath)
			return nil
		},
	})

	return configCmd
}

func setConfigKey(cfg *config.Config, key, value string) error {
	switch key {
	case "database_path":
		cfg.DatabasePath = value
	case "tracking_interval_ms":
		return setInt(&cfg.TrackingIntervalMS, value)
	case "save_interval_ms":
		return setInt(&cfg.SaveIntervalMS, value)
	case "deep_focus_threshold_minutes":
		return setInt(&cfg.DeepFocusThresholdMinutes, value)
	case "listen_addr":
		cfg.ListenAddr = value
	case "report_schedule":
		cfg.ReportSchedule = value
	case "timezone":
		cfg.Timezone = value
	case "export.auto":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("export.auto must be true or false")
		}
		cfg.Export.Auto = b
	case "export.format":
		if value != "json" && value != "csv" && value != "html" {
			return fmt.Errorf("export.format must be json, csv, or html")
		}
		cfg.Export.Format = value
	case "export.path":
		cfg.Export.Path = value
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return nil
}

func setInt(dst *int, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return fmt.Errorf("value must be a positive integer")
	}
	*dst = n
	return nil
}

func newDBCmd(configPath *string) *cobra.Command {
	db := &cobra.Command{Use: "db", Short: "Database maintenance"}

	var yes bool
	clear := &cobra.Command{
		Use:   "clear",
		Short: "Delete all recorded data",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return fmt.Errorf("refusing to delete all data without --yes")
			}
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.ClearAll(); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "all data deleted")
			return nil
		},
	}
	clear.Flags().BoolVar(&yes, "yes", false, "confirm deletion")

	cleanup := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete invalid sessions (zero-length noise and stuck entries)",
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

			deleted, err := st.CleanupInvalid()
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deleted %d invalid session(s)\n", deleted)
			return nil
		},
	}

	optimize := &cobra.Command{
		Use:   "optimize",
		Short: "Vacuum the database file",
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

			if err := st.Vacuum(); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "database optimized")
			return nil
		},
	}

	db.AddCommand(clear, cleanup, optimize)
	return db
}

func mutateConfig(cmd *cobra.Command, path string, fn func(*config.Config) string) error {
	return mutateConfigE(cmd, path, func(cfg *config.Config) (string, error) {
		return fn(cfg), nil
	})
}

func mutateConfigE(cmd *cobra.Command, path string, fn func(*config.Config) (string, error)) error {
	cfg, err := loadConfig(path)
	if err != nil {
		return err
	}
	msg, err := fn(cfg)
	if err != nil {
		return err
	}
	if err := cfg.Save(path); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), msg)
	return nil
}
