// Package config loads the persistence service settings from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Addr        string
	DatabaseURL string
	JWTSecret   string
	TokenTTL    time.Duration
	CORSOrigin  string
	// Search is served by Meilisearch when reachable, otherwise by scanning
	// the database.
	MeiliURL       string
	MeiliMasterKey string
	// Revoked tokens go to Redis when set, otherwise to process memory.
	RedisURL string
	// Change events are published to NATS when set.
	NATSURL     string
	NATSSubject string
	// Chrome for PDF export; empty means look it up on PATH.
	ChromePath string
	LogLevel   string
}

func Load() Config {
	return Config{
		Addr:           getenv("MINDCANVAS_ADDR", ":8080"),
		DatabaseURL:    getenv("DATABASE_URL", "mindcanvas.db"),
		JWTSecret:      getenv("JWT_SECRET", "mindcanvas-dev-secret"),
		TokenTTL:       time.Duration(getenvInt("TOKEN_TTL_HOURS", 720)) * time.Hour,
		CORSOrigin:     getenv("CORS_ORIGIN", "*"),
		MeiliURL:       getenv("MEILI_URL", ""),
		MeiliMasterKey: getenv("MEILI_MASTER_KEY", ""),
		RedisURL:       getenv("REDIS_URL", ""),
		NATSURL:        getenv("NATS_URL", ""),
		NATSSubject:    getenv("NATS_SUBJECT", "mindcanvas.mindmaps"),
		ChromePath:     getenv("CHROME_PATH", ""),
		LogLevel:       getenv("LOG_LEVEL", "info"),
	}
}

// IsPostgres reports whether DatabaseURL names a Postgres server rather
// than a SQLite file.
func (c Config) IsPostgres() bool {
	u := strings.ToLower(c.DatabaseURL)
	return strings.HasPrefix(u, "postgres://") ||
		strings.HasPrefix(u, "postgresql://") ||
		strings.Contains(u, "host=")
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
