package config

import (
	"os"
	"path/filepath"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	DatabasePath              string   `yaml:"database_path"`
	TrackingIntervalMS        int      `yaml:"tracking_interval_ms"`
	SaveIntervalMS            int      `yaml:"save_interval_ms"`
	DeepFocusThresholdMinutes int      `yaml:"deep_focus_threshold_minutes"`
	FocusApps                 []string `yaml:"focus_apps"`
	FocusSites                []string `yaml:"focus_sites"`
	IgnoredApps               []string `yaml:"ignored_apps"`
	ListenAddr                string   `yaml:"listen_addr"`      // empty disables the stats API
	ReportSchedule            string   `yaml:"report_schedule"`  // cron expression for the daily summary job
	Timezone                  string   `yaml:"timezone"`
	Export                    Export   `yaml:"export"`
}

type Export struct {
	Auto   bool   `yaml:"auto"`
	Format string `yaml:"format"`
	Path   string `yaml:"path"`
}

// DefaultPath returns the config file location under the user config dir.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(dir, "focusd", "config.yaml")
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		// Return default config if file doesn't exist
		if os.IsNotExist(err) {
			return defaultConfig(), nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Apply defaults for missing values
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = defaultDatabasePath()
	}
	if cfg.TrackingIntervalMS <= 0 {
		cfg.TrackingIntervalMS = 1000
	}
	if cfg.SaveIntervalMS <= 0 {
		cfg.SaveIntervalMS = 30000
	}
	if cfg.DeepFocusThresholdMinutes <= 0 {
		cfg.DeepFocusThresholdMinutes = 30
	}
	if cfg.ReportSchedule == "" {
		cfg.ReportSchedule = "59 23 * * *"
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "Local"
	}
	if cfg.Export.Format == "" {
		cfg.Export.Format = "json"
	}

	return &cfg, nil
}

func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Default returns a fresh config with all defaults applied.
func Default() *Config {
	return defaultConfig()
}

func defaultConfig() *Config {
	return &Config{
		DatabasePath:              defaultDatabasePath(),
		TrackingIntervalMS:        1000,
		SaveIntervalMS:            30000,
		DeepFocusThresholdMinutes: 30,
		ReportSchedule:            "59 23 * * *",
		Timezone:                  "Local",
		Export:                    Export{Format: "json"},
	}
}

func defaultDatabasePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "focusd.db"
	}
	return filepath.Join(dir, "focusd", "focusd.db")
}

func (c *Config) TrackingInterval() time.Duration {
	return time.Duration(c.TrackingIntervalMS) * time.Millisecond
}

func (c *Config) SaveInterval() time.Duration {
	return time.Duration(c.SaveIntervalMS) * time.Millisecond
}

func (c *Config) DeepFocusThreshold() time.Duration {
	return time.Duration(c.DeepFocusThresholdMinutes) * time.Minute
}

func (c *Config) GetTimezone() *time.Location {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func (c *Config) AddFocusApp(name string) {
	if !slices.Contains(c.FocusApps, name) {
		c.FocusApps = append(c.FocusApps, name)
	}
}

func (c *Config) RemoveFocusApp(name string) {
	c.FocusApps = slices.DeleteFunc(c.FocusApps, func(s string) bool { return s == name })
}

func (c *Config) AddFocusSite(site string) {
	if !slices.Contains(c.FocusSites, site) {
		c.FocusSites = append(c.FocusSites, site)
	}
}

func (c *Config) RemoveFocusSite(site string) {
	c.FocusSites = slices.DeleteFunc(c.FocusSites, func(s string) bool { return s == site })
}

func (c *Config) ExportPath() string {
	if c.Export.Path != "" {
		return c.Export.Path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "exports"
	}
	return filepath.Join(home, "focusd-exports")
}
