// Package config loads runtime settings from the environment and the
// versioned static catalog data.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Output formats accepted by OUTPUT_FORMAT.
const (
	FormatXLSX   = "xlsx"
	FormatSQLite = "sqlite"
)

// Config holds the exporter settings.
type Config struct {
	UserAgent string
	LogLevel  string
	LogPretty bool

	// RedisURL enables the shared throttle store when set.
	RedisURL string

	// MetricsAddr enables the Prometheus listener when set.
	MetricsAddr string

	OutputPath   string
	OutputFormat string

	API APIConfig

	RequestsPerSecond float64
	HTTPTimeout       time.Duration

	// MaxAttempts bounds the attempts made for a rate-limited (429) request.
	MaxAttempts int

	// CatalogDataPath overrides the embedded catalog data when set.
	CatalogDataPath string
}

// APIConfig holds the base URLs of the three API hosts.
type APIConfig struct {
	CatalogURL     string
	EconomyURL     string
	MarketplaceURL string
}

// Load reads .env (if present) and the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		UserAgent:    getEnv("USER_AGENT", "catalog-exporter/1.0"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogPretty:    os.Getenv("LOG_PRETTY") == "true",
		RedisURL:     os.Getenv("REDIS_URL"),
		MetricsAddr:  os.Getenv("METRICS_ADDR"),
		OutputFormat: strings.ToLower(getEnv("OUTPUT_FORMAT", FormatXLSX)),
		API: APIConfig{
			CatalogURL:     trimURL(getEnv("CATALOG_API_URL", "https://catalog.roblox.com")),
			EconomyURL:     trimURL(getEnv("ECONOMY_API_URL", "https://economy.roblox.com")),
			MarketplaceURL: trimURL(getEnv("MARKETPLACE_API_URL", "https://apis.roblox.com")),
		},
		CatalogDataPath: os.Getenv("CATALOG_DATA_PATH"),
	}

	var err error
	if cfg.RequestsPerSecond, err = getEnvFloat("REQUESTS_PER_SECOND", 0); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = getEnvDuration("HTTP_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.MaxAttempts, err = getEnvInt("MAX_ATTEMPTS", 6); err != nil {
		return nil, err
	}

	switch cfg.OutputFormat {
	case FormatXLSX:
		cfg.OutputPath = getEnv("OUTPUT_PATH", "data.xlsx")
	case FormatSQLite:
		cfg.OutputPath = getEnv("OUTPUT_PATH", "data.db")
	default:
		return nil, fmt.Errorf("unsupported OUTPUT_FORMAT %q (want %s or %s)", cfg.OutputFormat, FormatXLSX, FormatSQLite)
	}

	return cfg, nil
}

func trimURL(u string) string {
	return strings.TrimRight(u, "/")
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return i, nil
}

func getEnvFloat(key string, defaultVal float64) (float64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return f, nil
}

func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}
