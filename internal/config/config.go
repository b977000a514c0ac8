package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
)

// DefaultUsersEndpoint is the users collection fetched when USERS_ENDPOINT is unset.
const DefaultUsersEndpoint = "https://jsonplaceholder.typicode.com/users"

// RateLimitConfig indicates how many requests are allowed within a given interval.
type RateLimitConfig struct {
	Requests int
	Interval time.Duration
}

// Config aggregates application-wide configuration values.
type Config struct {
	Port              string
	UsersEndpoint     string
	FetchTimeout      time.Duration
	LoadDelay         time.Duration
	SessionSecret     string
	SessionTTL        time.Duration
	RateLimitFilters  RateLimitConfig
	RateLimitSessions RateLimitConfig
	PhoneRegion       string
	LogLevel          zapcore.Level
}

// Load reads configuration from environment variables and applies sane defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		UsersEndpoint: getEnv("USERS_ENDPOINT", DefaultUsersEndpoint),
		FetchTimeout:  parseDuration(getEnv("USERS_FETCH_TIMEOUT", "15s"), 15*time.Second),
		LoadDelay:     parseDuration(getEnv("LOAD_DELAY", "0s"), 0),
		SessionSecret: getEnv("SESSION_SECRET", "dev-secret"),
		SessionTTL:    parseDuration(getEnv("SESSION_TTL", "1h"), time.Hour),
		PhoneRegion:   strings.ToUpper(getEnv("PHONE_REGION", "US")),
	}

	rl, err := parseRateLimit(getEnv("RATE_LIMIT_FILTERS", "120/min"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_FILTERS value: %w", err)
	}
	cfg.RateLimitFilters = rl

	rl, err = parseRateLimit(getEnv("RATE_LIMIT_SESSIONS", "30/min"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_SESSIONS value: %w", err)
	}
	cfg.RateLimitSessions = rl

	level, err := zapcore.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL value: %w", err)
	}
	cfg.LogLevel = level

	return cfg, nil
}

func parseRateLimit(value string) (RateLimitConfig, error) {
	parts := strings.Split(value, "/")
	if len(parts) != 2 {
		return RateLimitConfig{}, fmt.Errorf("expected format <requests>/<interval>, got %q", value)
	}

	requests, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || requests <= 0 {
		return RateLimitConfig{}, fmt.Errorf("invalid request count: %v", parts[0])
	}

	unit := strings.ToLower(strings.TrimSpace(parts[1]))
	var interval time.Duration
	switch unit {
	case "s", "sec", "second", "seconds":
		interval = time.Second
	case "m", "min", "minute", "minutes":
		interval = time.Minute
	case "h", "hr", "hour", "hours":
		interval = time.Hour
	default:
		return RateLimitConfig{}, fmt.Errorf("unsupported interval unit: %s", unit)
	}

	return RateLimitConfig{Requests: requests, Interval: interval}, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

func parseDuration(input string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(input)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}
