package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr     string
	PostgresDSN    string
	MongoURI       string
	RedisAddr      string
	RabbitURL      string
	JWTSecret      string
	LogLevel       string
	StorageTimeout time.Duration
	IdempotencyTTL time.Duration
	OTLPEndpoint   string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	return &Config{
		ListenAddr:     getenv("LISTEN_ADDR", ":8080"),
		PostgresDSN:    os.Getenv("POSTGRES_DSN"),
		MongoURI:       os.Getenv("MONGO_URI"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RabbitURL:      os.Getenv("RABBIT_URL"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		StorageTimeout: getdur("STORAGE_TIMEOUT", 5*time.Second),
		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", time.Hour),
		OTLPEndpoint:   os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getdur(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
