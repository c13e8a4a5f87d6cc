package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"focusd/internal/config"
	"focusd/internal/store"
	"focusd/internal/tracker"
)

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "focusd",
		Short:         "Personal focus and context-switch tracker",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "config file path")

	root.AddCommand(newRunCmd(&configPath))
	root.AddCommand(newStartCmd(&configPath))
	root.AddCommand(newStopCmd())
	root.AddCommand(newStatusCmd(&configPath))
	root.AddCommand(newStatsCmd(&configPath))
	root.AddCommand(newSessionsCmd(&configPath))
	root.AddCommand(newShareCmd(&configPath))
	root.AddCommand(newExportCmd(&configPath))
	root.AddCommand(newFocusAppCmd(&configPath))
	root.AddCommand(newFocusSiteCmd(&configPath))
	root.AddCommand(newConfigCmd(&configPath))
	root.AddCommand(newDBCmd(&configPath))
	return root
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

func openStore(cfg *config.Config) (*store.Store, error) {
	st, err := store.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", cfg.DatabasePath, err)
	}
	return st, nil
}

// buildTracker seeds a tracker with the configured focus and ignore lists.
func buildTracker(cfg *config.Config, label string) *tracker.Tracker {
	tr := tracker.New()
	for _, app := range cfg.FocusApps {
		tr.AddFocusApp(app)
	}
	for _, site := range cfg.FocusSites {
		tr.AddFocusSite(site)
	}
	for _, app := range cfg.IgnoredApps {
		tr.IgnoreApp(app)
	}
	tr.SetLabel(label)
	tr.Start()
	return tr
}
