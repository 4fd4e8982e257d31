package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port              string
	CORSAllowOrigin   []string
	Env               string
	DataDir           string
	RecordsBackend    string
	DatabaseURL       string
	DocAIBaseURL      string
	DocAIAccessToken  string
	DocAITimeout      time.Duration
	MaxPages          int
	WebhookDefaultURL string
	PollInterval      time.Duration
	PollMaxAttempts   int
	WatchDir          string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")
	backend := normalizeBackend(getEnv("RECORDS_BACKEND", "file"))

	if backend == "postgres" && dbURL == "" {
		log.Printf("RECORDS_BACKEND=postgres requires DATABASE_URL; falling back to file store")
		backend = "file"
	}

	return Config{
		Port:              getEnv("PORT", "8080"),
		CORSAllowOrigin:   splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		Env:               env,
		DataDir:           getEnv("DATA_DIR", "./data"),
		RecordsBackend:    backend,
		DatabaseURL:       dbURL,
		DocAIBaseURL:      getEnv("DOCAI_BASE_URL", "https://api.phelix.ai/dev-portal/doc-ai"),
		DocAIAccessToken:  os.Getenv("DOCAI_ACCESS_TOKEN"),
		DocAITimeout:      getEnvSeconds("DOCAI_TIMEOUT_SECONDS", 60*time.Second),
		MaxPages:          getEnvInt("DOCAI_MAX_PAGES", 200),
		WebhookDefaultURL: getEnv("WEBHOOK_DEFAULT_URL", ""),
		PollInterval:      getEnvSeconds("POLL_INTERVAL_SECONDS", 5*time.Second),
		PollMaxAttempts:   getEnvInt("POLL_MAX_ATTEMPTS", 540),
		WatchDir:          getEnv("WATCH_DIR", ""),
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
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		log.Printf("config %s invalid int %q; using default %d", key, raw, def)
		return def
	}
	return parsed
}

func getEnvSeconds(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		log.Printf("config %s invalid seconds %q; using default %s", key, raw, def)
		return def
	}
	return time.Duration(parsed) * time.Second
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
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeBackend(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "postgres", "pg":
		return "postgres"
	default:
		return "file"
	}
}
