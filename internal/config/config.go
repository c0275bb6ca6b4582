package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIURL          string
	Token           string
	DataDir         string
	DBPath          string
	LogFile         string
	LogLevel        string
	Lang            string
	RequestTimeout  time.Duration
	CacheTTL        time.Duration
	RefreshInterval time.Duration
}

var (
	languages = []string{"en", "fr"}
	logLevels = []string{"debug", "info", "warn", "error"}
)

// Load reads .env when present, then the TASKER_* environment
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	dataDir := getEnv("TASKER_DATA_DIR", "")
	if dataDir == "" {
		d, err := defaultDataDir()
		if err != nil {
			return nil, err
		}
		dataDir = d
	}

	cfg := &Config{
		APIURL:   getEnv("TASKER_API_URL", "http://localhost:3000"),
		Token:    getEnv("TASKER_TOKEN", ""),
		DataDir:  dataDir,
		DBPath:   getEnv("TASKER_DB_PATH", filepath.Join(dataDir, "tasker.db")),
		LogFile:  getEnv("TASKER_LOG_FILE", filepath.Join(dataDir, "tasker.log")),
		LogLevel: strings.ToLower(getEnv("TASKER_LOG_LEVEL", "info")),
		Lang:     strings.ToLower(getEnv("TASKER_LANG", "en")),
	}

	var err error
	if cfg.RequestTimeout, err = getEnvAsDuration("TASKER_REQUEST_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = getEnvAsDuration("TASKER_CACHE_TTL", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.RefreshInterval, err = getEnvAsDuration("TASKER_REFRESH_INTERVAL", 60*time.Second); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the client cannot run with
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("TASKER_API_URL %q: must be an http or https url", c.APIURL)
	}
	if !slices.Contains(languages, c.Lang) {
		return fmt.Errorf("TASKER_LANG %q: must be one of %s", c.Lang, strings.Join(languages, ", "))
	}
	if !slices.Contains(logLevels, c.LogLevel) {
		return fmt.Errorf("TASKER_LOG_LEVEL %q: must be one of %s", c.LogLevel, strings.Join(logLevels, ", "))
	}
	for name, d := range map[string]time.Duration{
		"TASKER_REQUEST_TIMEOUT":  c.RequestTimeout,
		"TASKER_CACHE_TTL":        c.CacheTTL,
		"TASKER_REFRESH_INTERVAL": c.RefreshInterval,
	} {
		if d <= 0 {
			return fmt.Errorf("%s: must be positive, got %s", name, d)
		}
	}
	return nil
}

// defaultDataDir uses the XDG data directory or falls back to ~/.local/share
func defaultDataDir() (string, error) {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "tasker"), nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(valueStr)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
