package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Redis   RedisConfig
	Kafka   KafkaConfig
	Auth    AuthConfig
	QR      QRConfig
	Log     LogConfig
}

type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

// StorageConfig selects where the store snapshot lives.
// Backend is one of memory, sqlite, postgres, redis.
type StorageConfig struct {
	Backend   string
	DSN       string
	StoreName string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers []string
	GroupID string
	Topic   string
	Enabled bool
}

type AuthConfig struct {
	JWTSecret  string
	OIDCIssuer string
	AdminRole  string
}

type QRConfig struct {
	Prefix     string
	SiteDomain string
	ImageSize  int
}

type LogConfig struct {
	Dir   string
	Level string
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", ":8086"),
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    0, // SSE streams stay open
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: time.Duration(getEnvInt("SHUTDOWN_TIMEOUT_SECONDS", 5)) * time.Second,
			AllowedOrigins:  getEnvList("CORS_ALLOWED_ORIGINS", []string{"https://khanhhoang.shop"}),
		},
		Storage: StorageConfig{
			Backend:   strings.ToLower(getEnv("STORAGE_BACKEND", "sqlite")),
			DSN:       getEnv("STORAGE_DSN", "file:tryon.db?cache=shared"),
			StoreName: getEnv("STORE_NAME", "kh-tryon-store"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers: getEnvList("KAFKA_BROKERS", []string{"localhost:9092"}),
			GroupID: getEnv("KAFKA_GROUP_ID", "tryon-service"),
			Topic:   getEnv("KAFKA_TOPIC_RESERVATIONS", "tryon.reservations.events"),
			Enabled: getEnvBool("KAFKA_ENABLED", false),
		},
		Auth: AuthConfig{
			JWTSecret:  getEnv("JWT_SECRET", ""),
			OIDCIssuer: getEnv("OIDC_ISSUER", ""),
			AdminRole:  getEnv("ADMIN_ROLE", "admin"),
		},
		QR: QRConfig{
			Prefix:     getEnv("QR_PREFIX", "KH-"),
			SiteDomain: getEnv("SITE_DOMAIN", "khanhhoang.shop"),
			ImageSize:  getEnvInt("QR_IMAGE_SIZE", 256),
		},
		Log: LogConfig{
			Dir:   getEnv("LOG_DIR", "logs"),
			Level: getEnv("LOG_LEVEL", "INFO"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated value, dropping blanks.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
