package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPath     string
	JWTSecret  string
	JWTTTL     time.Duration
	ServerPort string

	StripeSecretKey     string
	StripeWebhookSecret string
	Currency            string
	FrontendURL         string
	GatewayTimeout      time.Duration

	LogFormat string

	// ReconcileSchedule is a cron spec; empty disables the background reconciler.
	ReconcileSchedule   string
	ReconcileStaleAfter time.Duration
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file, using environment variables")
	}

	currency := strings.ToLower(getEnv("PAYMENT_CURRENCY", "usd"))
	if !validCurrency(currency) {
		return nil, fmt.Errorf("PAYMENT_CURRENCY %q is not a three-letter ISO currency code", currency)
	}

	return &Config{
		DBDriver:   strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "course_marketplace"),
		DBPath:     getEnv("DB_PATH", "course_marketplace.db"),
		JWTSecret:  getEnv("JWT_SECRET", "secret"),
		JWTTTL:     getEnvDuration("JWT_TTL", 72*time.Hour),
		ServerPort: getEnv("SERVER_PORT", "8080"),

		StripeSecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
		Currency:            currency,
		FrontendURL:         strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:5173"), "/"),
		GatewayTimeout:      getEnvDuration("GATEWAY_TIMEOUT", 10*time.Second),

		LogFormat: getEnv("LOG_FORMAT", "json"),

		ReconcileSchedule:   getEnv("RECONCILE_SCHEDULE", ""),
		ReconcileStaleAfter: getEnvDuration("RECONCILE_STALE_AFTER", 30*time.Minute),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Invalid integer for %s: %v", key, err)
		return defaultValue
	}
	return i
}

// getEnvDuration accepts Go duration strings ("90s", "15m") or a bare number of seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs := getEnvInt(key, -1); secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	log.Printf("Invalid duration for %s, using default %s", key, defaultValue)
	return defaultValue
}

func validCurrency(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}
