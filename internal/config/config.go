package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppName string
	AppEnv  string
	AppPort string

	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	DBSSLMode  string

	JWTSecret        string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration
	RefreshTokenSalt string

	// Optional collaborators. Empty means disabled.
	RedisAddr       string
	OrderCacheTTL   time.Duration
	KafkaBrokers    []string
	KafkaOrderTopic string
}

// LoadConfig reads .env (when present) and the process environment once at
// startup. The returned value is passed explicitly to every constructor.
func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		AppName: getenv("APP_NAME", "Warehouse Operations Service"),
		AppEnv:  os.Getenv("APP_ENV"),
		AppPort: getenv("APP_PORT", "8080"),

		DBHost:     os.Getenv("DB_HOST"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBPort:     getenv("DB_PORT", "5432"),
		DBSSLMode:  getenv("DB_SSLMODE", "disable"),

		JWTSecret:        os.Getenv("JWT_SECRET"),
		AccessTokenTTL:   time.Duration(getInt("JWT_EXP_MINUTES", 15)) * time.Minute,
		RefreshTokenTTL:  time.Duration(getInt("REFRESH_TOKEN_TTL_DAYS", 14)) * 24 * time.Hour,
		RefreshTokenSalt: os.Getenv("REFRESH_TOKEN_SALT"),

		RedisAddr:       os.Getenv("REDIS_ADDR"),
		OrderCacheTTL:   time.Duration(getInt("ORDER_CACHE_TTL_SECONDS", 300)) * time.Second,
		KafkaBrokers:    splitCSV(os.Getenv("KAFKA_BROKERS")),
		KafkaOrderTopic: getenv("KAFKA_ORDER_TOPIC", "warehouse.order.status"),
	}

	if cfg.DBHost == "" {
		log.Fatal("Environment variables not loaded properly")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is not set")
	}
	if cfg.RefreshTokenSalt == "" {
		cfg.RefreshTokenSalt = cfg.JWTSecret
	}

	return cfg
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("invalid %s=%q, using default %d", key, v, def)
		return def
	}
	return n
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
