package config

import (
	"os"
	"strconv"
	"strings"

	"teambuilder-backend/internal/shared/telemetry"
)

// Config holds application configuration.
type Config struct {
	Port                   string
	Env                    string
	DatabaseURL            string
	CORSAllowOrigin        []string
	CatalogFixture         string
	SuggestionsPageSize    int
	SuggestionsMaxPageSize int
	RunMigrations          bool
	LogLevel               string
	LimiterPruneSchedule   string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		telemetry.Warn("config.database_url_missing", map[string]any{"env": env})
	}

	cfg := Config{
		Port:                   getEnv("PORT", "8080"),
		Env:                    env,
		DatabaseURL:            dbURL,
		CORSAllowOrigin:        splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		CatalogFixture:         strings.TrimSpace(os.Getenv("CATALOG_FIXTURE")),
		SuggestionsPageSize:    getEnvInt("SUGGESTIONS_PAGE_SIZE", 10),
		SuggestionsMaxPageSize: getEnvInt("SUGGESTIONS_MAX_PAGE_SIZE", 50),
		RunMigrations:          getEnvBool("RUN_MIGRATIONS", true),
		LogLevel:               strings.ToLower(strings.TrimSpace(getEnv("LOG_LEVEL", "info"))),
		LimiterPruneSchedule:   strings.TrimSpace(getEnv("RATE_LIMIT_PRUNE_SCHEDULE", "*/5 * * * *")),
	}
	if cfg.SuggestionsMaxPageSize < cfg.SuggestionsPageSize {
		cfg.SuggestionsMaxPageSize = cfg.SuggestionsPageSize
	}
	return cfg
}

// IsDevLike reports whether env allows in-memory fallbacks.
func IsDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val <= 0 {
		telemetry.Warn("config.invalid_int", map[string]any{"key": key, "value": raw})
		return def
	}
	return val
}

func getEnvBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseBool(raw)
	if err != nil {
		telemetry.Warn("config.invalid_bool", map[string]any{"key": key, "value": raw})
		return def
	}
	return val
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}
