package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig(t *testing.T) {
	t.Run("Success loading from env", func(t *testing.T) {
		t.Setenv("DB_HOST", "localhost")
		t.Setenv("DB_USER", "testuser")
		t.Setenv("DB_PASSWORD", "testpass")
		t.Setenv("DB_NAME", "testdb")
		t.Setenv("DB_PORT", "5433")
		t.Setenv("APP_PORT", "9090")
		t.Setenv("APP_ENV", "test")
		t.Setenv("JWT_SECRET", "jwt-secret")
		t.Setenv("JWT_EXP_MINUTES", "5")
		t.Setenv("REFRESH_TOKEN_TTL_DAYS", "7")
		t.Setenv("REFRESH_TOKEN_SALT", "salt")
		t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")

		cfg := LoadConfig()

		assert.NotNil(t, cfg)
		assert.Equal(t, "localhost", cfg.DBHost)
		assert.Equal(t, "testuser", cfg.DBUser)
		assert.Equal(t, "testpass", cfg.DBPassword)
		assert.Equal(t, "testdb", cfg.DBName)
		assert.Equal(t, "5433", cfg.DBPort)
		assert.Equal(t, "9090", cfg.AppPort)
		assert.Equal(t, "test", cfg.AppEnv)
		assert.Equal(t, "jwt-secret", cfg.JWTSecret)
		assert.Equal(t, 5*time.Minute, cfg.AccessTokenTTL)
		assert.Equal(t, 7*24*time.Hour, cfg.RefreshTokenTTL)
		assert.Equal(t, "salt", cfg.RefreshTokenSalt)
		assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
		assert.False(t, cfg.IsProduction())
	})

	t.Run("Defaults", func(t *testing.T) {
		t.Setenv("DB_HOST", "localhost")
		t.Setenv("JWT_SECRET", "jwt-secret")
		t.Setenv("APP_PORT", "")
		t.Setenv("DB_PORT", "")
		t.Setenv("JWT_EXP_MINUTES", "not-a-number")
		t.Setenv("REFRESH_TOKEN_TTL_DAYS", "")
		t.Setenv("REFRESH_TOKEN_SALT", "")
		t.Setenv("KAFKA_BROKERS", "")
		t.Setenv("REDIS_ADDR", "")

		cfg := LoadConfig()

		assert.Equal(t, "8080", cfg.AppPort)
		assert.Equal(t, "5432", cfg.DBPort)
		assert.Equal(t, "disable", cfg.DBSSLMode)
		assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
		assert.Equal(t, 14*24*time.Hour, cfg.RefreshTokenTTL)
		assert.Equal(t, "jwt-secret", cfg.RefreshTokenSalt)
		assert.Empty(t, cfg.KafkaBrokers)
		assert.Empty(t, cfg.RedisAddr)
	})
}
