package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, 5432, cfg.DBPort)
	assert.Equal(t, "parking_reservation_db", cfg.DBName)
	assert.Equal(t, 168*time.Hour, cfg.JWTExpirationHours)
	assert.Equal(t, 60*time.Second, cfg.CacheTTL)
	assert.Equal(t, 5.0, cfg.RateLimitRPS)
	assert.Equal(t, 10, cfg.RateLimitBurst)
	assert.Empty(t, cfg.RedisAddr)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DB_PORT", "5433")
	t.Setenv("JWT_EXPIRATION_HOURS", "24")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("RATE_LIMIT_RPS", "2.5")

	cfg := Load()
	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, 5433, cfg.DBPort)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpirationHours)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 2.5, cfg.RateLimitRPS)
}
