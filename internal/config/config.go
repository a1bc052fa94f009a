package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderWeatherstack = "weatherstack"
	ProviderWeatherAPI   = "weatherapi"
)

type AppConfig struct {
	// Provider selects the outbound weather provider.
	Provider string

	WeatherstackAPIKey  string
	WeatherstackBaseURL string
	WeatherAPIKey       string
	WeatherAPIBaseURL   string

	// ProviderTimeout bounds the single outbound provider call.
	ProviderTimeout time.Duration

	BreakerMaxFailures      uint32
	BreakerOpenTimeout      time.Duration
	BreakerHalfOpenRequests uint32

	// AllowedOrigins for cross-origin browser clients.
	AllowedOrigins []string

	// StatsInterval controls how often store stats are logged (0 = disabled).
	StatsInterval time.Duration

	LogFormat string
	Port      string
}

type ErrMissingRequiredEnvVar struct {
	Name string
}

func (e *ErrMissingRequiredEnvVar) Error() string {
	return fmt.Sprintf("required environment variable %q is not set", e.Name)
}

// LoadEnvFiles loads .env style files into the environment. Missing files are not an error.
func LoadEnvFiles(files ...string) {
	if err := godotenv.Load(files...); err != nil {
		slog.Info("no .env file found or error loading it", "error", err)
	}
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{}

	cfg.Provider = strings.ToLower(getenvDefault("WEATHER_PROVIDER", ProviderWeatherstack))
	cfg.WeatherstackBaseURL = os.Getenv("WEATHERSTACK_BASE_URL")
	cfg.WeatherAPIBaseURL = os.Getenv("WEATHERAPI_BASE_URL")

	switch cfg.Provider {
	case ProviderWeatherstack:
		cfg.WeatherstackAPIKey = os.Getenv("WEATHERSTACK_API_KEY")
		if cfg.WeatherstackAPIKey == "" {
			return nil, &ErrMissingRequiredEnvVar{Name: "WEATHERSTACK_API_KEY"}
		}
	case ProviderWeatherAPI:
		cfg.WeatherAPIKey = os.Getenv("WEATHERAPI_API_KEY")
		if cfg.WeatherAPIKey == "" {
			return nil, &ErrMissingRequiredEnvVar{Name: "WEATHERAPI_API_KEY"}
		}
	default:
		return nil, fmt.Errorf("invalid WEATHER_PROVIDER %q: must be %q or %q", cfg.Provider, ProviderWeatherstack, ProviderWeatherAPI)
	}

	var err error
	if cfg.ProviderTimeout, err = getenvDuration("PROVIDER_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.ProviderTimeout <= 0 {
		return nil, fmt.Errorf("invalid PROVIDER_TIMEOUT: must be positive")
	}

	maxFailures, err := getenvInt("BREAKER_MAX_FAILURES", 5)
	if err != nil {
		return nil, err
	}
	if maxFailures <= 0 {
		return nil, fmt.Errorf("invalid BREAKER_MAX_FAILURES: must be positive")
	}
	cfg.BreakerMaxFailures = uint32(maxFailures)

	if cfg.BreakerOpenTimeout, err = getenvDuration("BREAKER_OPEN_TIMEOUT", "30s"); err != nil {
		return nil, err
	}

	halfOpen, err := getenvInt("BREAKER_HALF_OPEN_REQUESTS", 10)
	if err != nil {
		return nil, err
	}
	if halfOpen <= 0 {
		return nil, fmt.Errorf("invalid BREAKER_HALF_OPEN_REQUESTS: must be positive")
	}
	cfg.BreakerHalfOpenRequests = uint32(halfOpen)

	// Stats reporter interval: default 15 minutes.
	if cfg.StatsInterval, err = getenvDuration("STATS_INTERVAL", "15m"); err != nil {
		return nil, err
	}

	cfg.AllowedOrigins = splitList(getenvDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000"))
	if len(cfg.AllowedOrigins) == 0 {
		return nil, fmt.Errorf("invalid CORS_ALLOWED_ORIGINS: at least one origin is required")
	}

	cfg.LogFormat = strings.ToLower(getenvDefault("LOG_FORMAT", "text"))
	cfg.Port = getenvDefault("PORT", "8000")

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
