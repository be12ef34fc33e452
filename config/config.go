package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type GatewayConfig struct {
	StoreID       string
	StorePassword string
	BaseURL       string
	CallbackBase  string
	Currency      string
	Timeout       time.Duration
}

type Config struct {
	Port        string
	Environment string

	RedisURL        string
	CartTTL         time.Duration
	CheckoutIdemTTL time.Duration

	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     string
	PostgresSSLMode  string
	PostgresTimeZone string

	CatalogURL string

	KafkaBrokers      string
	NotificationTopic string

	JWTSecret string

	Gateway GatewayConfig
}

func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("APP_ENV", "development"),

		RedisURL:        getEnv("REDIS_URL", "redis://localhost:6379/1"),
		CartTTL:         getDuration("CART_TTL", 24*time.Hour),
		CheckoutIdemTTL: getDuration("CHECKOUT_IDEM_TTL", 30*time.Minute),

		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		PostgresTimeZone: getEnv("POSTGRES_TIMEZONE", "Asia/Dhaka"),

		CatalogURL: getEnv("CATALOG_SERVICE_URL", "http://localhost:8081"),

		KafkaBrokers:      getEnv("KAFKA_BROKERS", "localhost:9092"),
		NotificationTopic: getEnv("NOTIFICATION_TOPIC", "notification.events"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		Gateway: GatewayConfig{
			StoreID:       os.Getenv("SSLCOMMERZ_STORE_ID"),
			StorePassword: os.Getenv("SSLCOMMERZ_STORE_PASS"),
			BaseURL:       getEnv("SSLCOMMERZ_BASE_URL", "https://sandbox.sslcommerz.com"),
			CallbackBase:  getEnv("BACKEND_URL", "http://localhost:8080"),
			Currency:      getEnv("GATEWAY_CURRENCY", "BDT"),
			Timeout:       getDuration("GATEWAY_TIMEOUT", 10*time.Second),
		},
	}
}

// KafkaBrokerList splits the configured broker string into addresses.
func (c Config) KafkaBrokerList() []string {
	return strings.Split(c.KafkaBrokers, ",")
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
