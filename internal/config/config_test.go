package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("expected defaults for missing file, got error: %v", err)
	}
	if cfg.TrackingIntervalMS != 1000 {
		t.Errorf("tracking interval = %d, want 1000", cfg.TrackingIntervalMS)
	}
	if cfg.SaveIntervalMS != 30000 {
		t.Errorf("save interval = %d, want 30000", cfg.SaveIntervalMS)
	}
	if cfg.DeepFocusThresholdMinutes != 30 {
		t.Errorf("deep focus threshold = %d, want 30", cfg.DeepFocusThresholdMinutes)
	}
	if cfg.ReportSchedule != "59 23 * * *" {
		t.Errorf("report schedule = %q", cfg.ReportSchedule)
	}
	if cfg.Export.Format != "json" {
		t.Errorf("export format = %q, want json", cfg.Export.Format)
	}
}

func TestLoadPartialFileFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "tracking_interval_ms: 500\nfocus_apps:\n  - code\n  - terminal\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.TrackingIntervalMS != 500 {
		t.Errorf("tracking interval = %d, want 500", cfg.TrackingIntervalMS)
	}
	if cfg.SaveIntervalMS != 30000 {
		t.Errorf("save interval should default, got %d", cfg.SaveIntervalMS)
	}
	if len(cfg.FocusApps) != 2 || cfg.FocusApps[0] != "code" {
		t.Errorf("focus apps = %v", cfg.FocusApps)
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("tracking_interval_ms: [not an int"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for malformed yaml")
	}
}

func TestSaveRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg := Default()
	cfg.AddFocusApp("code")
	cfg.AddFocusSite("github.com")
	cfg.Export.Auto = true
	if err := cfg.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.FocusApps) != 1 || got.FocusApps[0] != "code" {
		t.Errorf("focus apps = %v", got.FocusApps)
	}
	if len(got.FocusSites) != 1 || got.FocusSites[0] != "github.com" {
		t.Errorf("focus sites = %v", got.FocusSites)
	}
	if !got.Export.Auto {
		t.Error("export.auto not persisted")
	}
}

func TestFocusListMutators(t *testing.T) {
	cfg := Default()

	cfg.AddFocusApp("code")
	cfg.AddFocusApp("code") // no duplicates
	if len(cfg.FocusApps) != 1 {
		t.Errorf("expected 1 focus app, got %d", len(cfg.FocusApps))
	}

	cfg.RemoveFocusApp("code")
	if len(cfg.FocusApps) != 0 {
		t.Errorf("expected empty focus apps, got %v", cfg.FocusApps)
	}

	cfg.AddFocusSite("docs.rs")
	cfg.RemoveFocusSite("docs.rs")
	if len(cfg.FocusSites) != 0 {
		t.Errorf("expected empty focus sites, got %v", cfg.FocusSites)
	}
}

func TestGetTimezoneFallsBackToLocal(t *testing.T) {
	cfg := Default()
	cfg.Timezone = "Not/AZone"
	if loc := cfg.GetTimezone(); loc == nil {
		t.Fatal("expected a location")
	}

	cfg.Timezone = "UTC"
	if loc := cfg.GetTimezone(); loc.String() != "UTC" {
		t.Errorf("timezone = %s, want UTC", loc)
	}
}
