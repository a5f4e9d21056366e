package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"MINDCANVAS_ADDR", "DATABASE_URL", "TOKEN_TTL_HOURS", "REDIS_URL"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "mindcanvas.db", cfg.DatabaseURL)
	assert.Equal(t, 30*24*time.Hour, cfg.TokenTTL)
	assert.Empty(t, cfg.RedisURL)
	assert.False(t, cfg.IsPostgres())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("MINDCANVAS_ADDR", ":9999")
	t.Setenv("TOKEN_TTL_HOURS", "2")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/mc")
	cfg := Load()
	assert.Equal(t, ":9999", cfg.Addr)
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
	assert.True(t, cfg.IsPostgres())
}

func TestBadIntFallsBack(t *testing.T) {
	t.Setenv("TOKEN_TTL_HOURS", "soon")
	assert.Equal(t, 720*time.Hour, Load().TokenTTL)
}

func TestIsPostgres(t *testing.T) {
	tests := map[string]bool{
		"mindcanvas.db":                    false,
		"file::memory:?cache=shared":       false,
		"postgresql://localhost/db":        true,
		"host=localhost user=mc dbname=mc": true,
	}
	for dsn, want := range tests {
		t.Run(dsn, func(t *testing.T) {
			assert.Equal(t, want, Config{DatabaseURL: dsn}.IsPostgres())
		})
	}
}
