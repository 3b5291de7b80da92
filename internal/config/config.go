package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"persona-mcp/internal/optimizer"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// SourceConfig lists where time entries may be loaded from, in priority order.
type SourceConfig struct {
	URL          string
	File         string
	DB           string
	FetchTimeout time.Duration
}

// TelemetryConfig configures OpenTelemetry export. An empty endpoint disables it.
type TelemetryConfig struct {
	Endpoint    string
	ServiceName string
}

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Sources             SourceConfig
	Telemetry           TelemetryConfig
	Optimizer           optimizer.Config
	DataPath            string
	LogDir              string
	CacheDir            string
	ForecastAnchor      time.Time
	ReadinessWindowDays int
	RefreshInterval     time.Duration
	HTTPAddr            string
	EnableMermaidCharts bool
}

// Load loads the configuration from .env files and environment variables.
func Load() (*AppConfig, error) {
	// 1. Try to load from the executable's directory (highest priority for MCP servers)
	exeDir := ""
	if exePath, err := os.Executable(); err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}

	// 2. Fallback to current working directory (useful for development/go run)
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables or binary-relative .env")
	}

	return FromEnv(exeDir)
}

// FromEnv builds the configuration from the process environment. defaultDataPath
// is used when DATA_PATH is unset.
func FromEnv(defaultDataPath string) (*AppConfig, error) {
	dataPath := getEnv("DATA_PATH", defaultDataPath)
	if dataPath == "" {
		dataPath = "."
	}

	logDir := filepath.Join(dataPath, "logs")
	cacheDir := filepath.Join(dataPath, "cache")

	// Ensure directories exist
	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.Warn().Err(err).Str("path", logDir).Msg("Failed to create log directory")
	}
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		log.Warn().Err(err).Str("path", cacheDir).Msg("Failed to create cache directory")
	}

	anchor, err := parseAnchor(getEnv("FORECAST_ANCHOR", ""))
	if err != nil {
		return nil, err
	}

	opt := optimizer.DefaultConfig()
	opt.MaxDailyHours = getEnvFloat("MAX_DAILY_HOURS", opt.MaxDailyHours)
	opt.MaxWorkHoursPerMonth = getEnvFloat("MAX_WORK_HOURS_PER_MONTH", opt.MaxWorkHoursPerMonth)
	opt.MinWorkHoursPerMonth = getEnvFloat("MIN_WORK_HOURS_PER_MONTH", opt.MinWorkHoursPerMonth)
	opt.TargetSleepPerDay = getEnvFloat("TARGET_SLEEP_PER_DAY", opt.TargetSleepPerDay)
	if err := opt.Validate(); err != nil {
		return nil, fmt.Errorf("optimizer defaults: %w", err)
	}

	dbPath := getEnv("ENTRIES_DB", "")
	if dbPath != "" && !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(dataPath, dbPath)
	}

	cfg := &AppConfig{
		Sources: SourceConfig{
			URL:          getEnv("ENTRIES_URL", ""),
			File:         getEnv("ENTRIES_FILE", ""),
			DB:           dbPath,
			FetchTimeout: time.Duration(getEnvInt("FETCH_TIMEOUT_SECONDS", 15)) * time.Second,
		},
		Telemetry: TelemetryConfig{
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "persona-mcp"),
		},
		Optimizer:           opt,
		DataPath:            dataPath,
		LogDir:              logDir,
		CacheDir:            cacheDir,
		ForecastAnchor:      anchor,
		ReadinessWindowDays: getEnvInt("READINESS_WINDOW_DAYS", 30),
		RefreshInterval:     time.Duration(getEnvInt("REFRESH_INTERVAL_MINUTES", 30)) * time.Minute,
		HTTPAddr:            getEnv("HTTP_ADDR", ":8080"),
		EnableMermaidCharts: getEnvBool("ENABLE_MERMAID_CHARTS", false),
	}

	return cfg, nil
}

// HasSource reports whether at least one entry source is configured.
func (c *AppConfig) HasSource() bool {
	return c.Sources.URL != "" || c.Sources.File != "" || c.Sources.DB != ""
}

// parseAnchor accepts YYYY-MM or YYYY-MM-DD. Empty means no anchor.
func parseAnchor(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{"2006-01", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid FORECAST_ANCHOR %q: expected YYYY-MM or YYYY-MM-DD", s)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && i > 0 {
			return i
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Ignoring invalid integer setting")
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return f
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Ignoring invalid numeric setting")
	}
	return fallback
}
