package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port              string
	GenerationAPIURL  string
	GenerationTimeout time.Duration
	DatabaseURL       string
	SQLitePath        string
	SessionTTL        time.Duration
	MetricsUser       string
	MetricsPass       string
	PprofSecret       string
	SecureCookies     bool
	RateLimitRPS      float64
	RateLimitBurst    int
	LogLevel          string
	CORSOrigins       []string
}

// Load reads an optional .env file and then the process environment.
// It reports whether a .env file was found.
func Load() (*Config, bool, error) {
	envFound := godotenv.Load() == nil
	cfg, err := FromEnv(os.Getenv)
	return cfg, envFound, err
}

func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		Port:              valueOr(getenv("PORT"), "3333"),
		GenerationAPIURL:  strings.TrimRight(getenv("GENERATION_API_URL"), "/"),
		GenerationTimeout: 120 * time.Second,
		DatabaseURL:       getenv("DATABASE_URL"),
		SQLitePath:        valueOr(getenv("SQLITE_PATH"), "envision.db"),
		SessionTTL:        2 * time.Hour,
		MetricsUser:       getenv("METRICS_USER"),
		MetricsPass:       getenv("METRICS_PASS"),
		PprofSecret:       getenv("PPROF_SECRET"),
		RateLimitRPS:      5,
		RateLimitBurst:    30,
		LogLevel:          valueOr(getenv("LOG_LEVEL"), "info"),
		CORSOrigins:       []string{"*"},
	}

	if cfg.GenerationAPIURL == "" {
		return nil, fmt.Errorf("GENERATION_API_URL environment variable is not set")
	}

	var err error
	if v := getenv("GENERATION_TIMEOUT"); v != "" {
		if cfg.GenerationTimeout, err = time.ParseDuration(v); err != nil {
			return nil, fmt.Errorf("invalid GENERATION_TIMEOUT %q: %w", v, err)
		}
	}
	if v := getenv("SESSION_TTL"); v != "" {
		if cfg.SessionTTL, err = time.ParseDuration(v); err != nil {
			return nil, fmt.Errorf("invalid SESSION_TTL %q: %w", v, err)
		}
	}
	if v := getenv("RATE_LIMIT_RPS"); v != "" {
		if cfg.RateLimitRPS, err = strconv.ParseFloat(v, 64); err != nil || cfg.RateLimitRPS <= 0 {
			return nil, fmt.Errorf("invalid RATE_LIMIT_RPS %q", v)
		}
	}
	if v := getenv("RATE_LIMIT_BURST"); v != "" {
		if cfg.RateLimitBurst, err = strconv.Atoi(v); err != nil || cfg.RateLimitBurst <= 0 {
			return nil, fmt.Errorf("invalid RATE_LIMIT_BURST %q", v)
		}
	}
	if v := getenv("SECURE_COOKIES"); v != "" {
		if cfg.SecureCookies, err = strconv.ParseBool(v); err != nil {
			return nil, fmt.Errorf("invalid SECURE_COOKIES %q: %w", v, err)
		}
	}
	if v := getenv("CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = nil
		for _, origin := range strings.Split(v, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, origin)
			}
		}
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid LOG_LEVEL %q", cfg.LogLevel)
	}

	return cfg, nil
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
