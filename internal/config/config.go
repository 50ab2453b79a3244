// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // TRIP_TIMEZONE must resolve on hosts without a zoneinfo database
)

// Cache backends.
const (
	CachePostgres = "postgres"
	CacheRedis    = "redis"
)

// LLM providers. ProviderNone disables the chat endpoints.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderNone   = "none"
)

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"] (Vite dev server).
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// SheetCSVURL is the published CSV export of the itinerary sheet. Required.
	SheetCSVURL string
	// SheetWriteURL is the batch write endpoint. Empty means saves fail.
	SheetWriteURL string
	// RemoteTimeout bounds each call to the sheet. Defaults to 15s.
	RemoteTimeout time.Duration

	// CacheBackend is "postgres" (default) or "redis"; the matching URL is required.
	CacheBackend string
	DatabaseURL  string
	RedisURL     string
	CacheKey     string

	TripTitle       string
	TripTimezone    string
	TripContextFile string

	// LLMProvider is "gemini" (default), "openai" or "none". The provider's API
	// key is required unless the provider is "none".
	LLMProvider  string
	GeminiAPIKey string
	OpenAIAPIKey string
	// LLMModel overrides the provider's default model when set.
	LLMModel string

	ChatRatePerMinute int
	MaxBodyBytes      int64
}

// Load reads configuration from environment variables and returns a Config.
// Returns an error listing every required variable that is not set and every
// value that does not parse.
func Load() (Config, error) {
	cfg := Config{
		Port:            getEnv("PORT", "8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		CORSOrigins:     splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		SheetCSVURL:     os.Getenv("SHEET_CSV_URL"),
		SheetWriteURL:   os.Getenv("SHEET_WRITE_URL"),
		CacheBackend:    strings.ToLower(getEnv("CACHE_BACKEND", CachePostgres)),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RedisURL:        os.Getenv("REDIS_URL"),
		CacheKey:        getEnv("CACHE_KEY", "okinawa_itinerary_2026_sheet_cache"),
		TripTitle:       getEnv("TRIP_TITLE", "沖繩之旅 Okinawa"),
		TripTimezone:    getEnv("TRIP_TIMEZONE", "Asia/Tokyo"),
		TripContextFile: os.Getenv("TRIP_CONTEXT_FILE"),
		LLMProvider:     strings.ToLower(getEnv("LLM_PROVIDER", ProviderGemini)),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		LLMModel:        os.Getenv("LLM_MODEL"),
	}

	var missing, invalid []string
	require := func(name, value string) {
		if value == "" {
			missing = append(missing, name)
		}
	}

	var err error
	if cfg.RemoteTimeout, err = time.ParseDuration(getEnv("REMOTE_TIMEOUT", "15s")); err != nil || cfg.RemoteTimeout <= 0 {
		invalid = append(invalid, "REMOTE_TIMEOUT")
	}
	if cfg.ChatRatePerMinute, err = strconv.Atoi(getEnv("CHAT_RATE_PER_MINUTE", "20")); err != nil || cfg.ChatRatePerMinute < 0 {
		invalid = append(invalid, "CHAT_RATE_PER_MINUTE")
	}
	if cfg.MaxBodyBytes, err = strconv.ParseInt(getEnv("MAX_BODY_BYTES", "1048576"), 10, 64); err != nil || cfg.MaxBodyBytes <= 0 {
		invalid = append(invalid, "MAX_BODY_BYTES")
	}
	if _, err := time.LoadLocation(cfg.TripTimezone); err != nil {
		invalid = append(invalid, "TRIP_TIMEZONE")
	}

	require("SHEET_CSV_URL", cfg.SheetCSVURL)

	switch cfg.CacheBackend {
	case CachePostgres:
		require("DATABASE_URL", cfg.DatabaseURL)
	case CacheRedis:
		require("REDIS_URL", cfg.RedisURL)
	default:
		invalid = append(invalid, "CACHE_BACKEND")
	}

	switch cfg.LLMProvider {
	case ProviderGemini:
		require("GEMINI_API_KEY", cfg.GeminiAPIKey)
	case ProviderOpenAI:
		require("OPENAI_API_KEY", cfg.OpenAIAPIKey)
	case ProviderNone:
	default:
		invalid = append(invalid, "LLM_PROVIDER")
	}

	var problems []string
	if len(missing) > 0 {
		problems = append(problems, "required environment variables not set: "+strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		problems = append(problems, "invalid environment variables: "+strings.Join(invalid, ", "))
	}
	if len(problems) > 0 {
		return Config{}, fmt.Errorf("config.Load: %s", strings.Join(problems, "; "))
	}

	return cfg, nil
}

// LoadDatabaseURL returns DATABASE_URL for commands that only need the database.
func LoadDatabaseURL() (string, error) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		return "", fmt.Errorf("config.LoadDatabaseURL: required environment variables not set: DATABASE_URL")
	}
	return url, nil
}

// Location resolves TripTimezone. Load has already validated it.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TripTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
