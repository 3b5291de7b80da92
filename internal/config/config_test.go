package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/joho/godotenv"
)

func TestGodotenvQuoting(t *testing.T) {
	content := `ENTRIES_URL='https://example.com/entries.json?q="all"'`
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	env, err := godotenv.Read(path)
	if err != nil {
		t.Fatalf("Error reading env: %v", err)
	}

	expected := `https://example.com/entries.json?q="all"`
	if env["ENTRIES_URL"] != expected {
		t.Errorf("Expected %s, got %s", expected, env["ENTRIES_URL"])
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_PATH", dir)

	cfg, err := FromEnv("")
	if err != nil {
		t.Fatalf("FromEnv failed: %v", err)
	}

	if cfg.LogDir != filepath.Join(dir, "logs") || cfg.CacheDir != filepath.Join(dir, "cache") {
		t.Errorf("Unexpected derived dirs: %s, %s", cfg.LogDir, cfg.CacheDir)
	}
	if _, err := os.Stat(cfg.CacheDir); err != nil {
		t.Errorf("Expected cache dir to be created: %v", err)
	}
	if cfg.Sources.FetchTimeout != 15*time.Second {
		t.Errorf("Expected 15s fetch timeout, got %s", cfg.Sources.FetchTimeout)
	}
	if cfg.ReadinessWindowDays != 30 || cfg.RefreshInterval != 30*time.Minute || cfg.HTTPAddr != ":8080" {
		t.Errorf("Unexpected defaults: %+v", cfg)
	}
	if cfg.Optimizer.TargetSleepPerDay != 7.5 || cfg.Optimizer.MaxWorkHoursPerMonth != 200 {
		t.Errorf("Unexpected optimizer defaults: %+v", cfg.Optimizer)
	}
	if !cfg.ForecastAnchor.IsZero() || cfg.HasSource() {
		t.Errorf("Expected no anchor and no source by default")
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_PATH", dir)
	t.Setenv("ENTRIES_DB", "entries.db")
	t.Setenv("FORECAST_ANCHOR", "2020-03-17")
	t.Setenv("MIN_WORK_HOURS_PER_MONTH", "160")
	t.Setenv("READINESS_WINDOW_DAYS", "not-a-number")
	t.Setenv("ENABLE_MERMAID_CHARTS", "true")

	cfg, err := FromEnv("")
	if err != nil {
		t.Fatalf("FromEnv failed: %v", err)
	}

	if cfg.Sources.DB != filepath.Join(dir, "entries.db") || !cfg.HasSource() {
		t.Errorf("Expected relative db path under DATA_PATH, got %q", cfg.Sources.DB)
	}
	if want := time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC); !cfg.ForecastAnchor.Equal(want) {
		t.Errorf("Expected anchor %s, got %s", want, cfg.ForecastAnchor)
	}
	if cfg.Optimizer.MinWorkHoursPerMonth != 160 {
		t.Errorf("Expected min work 160, got %v", cfg.Optimizer.MinWorkHoursPerMonth)
	}
	if cfg.ReadinessWindowDays != 30 {
		t.Errorf("Expected invalid window to fall back to 30, got %d", cfg.ReadinessWindowDays)
	}
	if !cfg.EnableMermaidCharts {
		t.Error("Expected mermaid charts to be enabled")
	}
}

func TestFromEnv_Rejects(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"FORECAST_ANCHOR", "March 2020"},
		{"TARGET_SLEEP_PER_DAY", "30"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv("DATA_PATH", t.TempDir())
			t.Setenv(tt.key, tt.value)
			if _, err := FromEnv(""); err == nil {
				t.Errorf("Expected %s=%s to be rejected", tt.key, tt.value)
			}
		})
	}
}
