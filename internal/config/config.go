package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/gitdone-app/gitdone-client/pkg/logger"
)

// Config carries the environment-driven client settings.
type Config struct {
	APIBaseURL      string // Git-Done origin, e.g. https://git-done.app
	SessionToken    string // session cookie value issued after login
	PushURL         string // websocket notification endpoint
	WorkerAddr      string // listen address for the offline cache worker
	CacheDBPath     string // SQLite file holding the cache partitions
	CacheVersion    string // override for the cache partition name
	RefreshSchedule string // cron spec for the periodic goal re-poll
	LogLevel        string
}

// LoadConfig reads .env (when present) and the process environment.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		logger.Log.Debug("No .env file found, relying on environment")
	}

	base := getEnv("GITDONE_API_URL", "http://localhost:5000")

	cfg := &Config{
		APIBaseURL:      base,
		SessionToken:    os.Getenv("GITDONE_SESSION"),
		PushURL:         getEnv("GITDONE_PUSH_URL", derivePushURL(base)),
		WorkerAddr:      getEnv("GITDONE_WORKER_ADDR", "127.0.0.1:8787"),
		CacheDBPath:     getEnv("GITDONE_CACHE_DB", defaultCachePath()),
		CacheVersion:    os.Getenv("GITDONE_CACHE_VERSION"),
		RefreshSchedule: getEnv("GITDONE_REFRESH_SCHEDULE", "@every 5m"),
		LogLevel:        getEnv("GITDONE_LOG_LEVEL", "info"),
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// derivePushURL maps the API origin to its websocket endpoint.
func derivePushURL(base string) string {
	ws := strings.Replace(base, "https://", "wss://", 1)
	ws = strings.Replace(ws, "http://", "ws://", 1)
	return strings.TrimRight(ws, "/") + "/ws/notifications"
}

func defaultCachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "gitdone-cache.db"
	}
	return filepath.Join(home, ".gitdone", "cache.db")
}
