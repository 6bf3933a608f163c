package config

import (
	"os"      // For environment variables
	"strconv" // For string to number conversion
	"time"    // For durations

	"github.com/joho/godotenv" // For loading .env files
)

// Config holds the application configuration
type Config struct {
	AppPort    string // Application port
	DBDriver   string // Database driver: mysql or postgres
	DBUser     string // Database user
	DBPassword string // Database password
	DBHost     string // Database host
	DBPort     string // Database port
	DBName     string // Database name
	JWTSecret  string // JWT secret key
	JWTTTL     time.Duration
	RedisAddr  string // Redis server address
	RedisPass  string // Redis password
	RedisDB    int    // Redis database number
	IsProd     bool   // Is production environment

	// Fallbacks used when the stored settings leave a band unset
	MinDeposit    float64
	MaxDeposit    float64
	MinWithdrawal float64
	MaxWithdrawal float64

	ReferralSyncInterval time.Duration // Referral rebuild job period
	NotifyTimeout        time.Duration // Per-sink notification delivery timeout
	TelegramBotToken     string        // Admin notification bot, disabled when empty
	TelegramAdminChatID  int64         // Chat receiving admin notifications
	AdminEmail           string        // Seeded admin account
	AdminPassword        string        // Seeded admin password
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	return &Config{
		AppPort:              getEnv("APP_PORT", "8080"),
		DBDriver:             getEnv("DB_DRIVER", "mysql"),
		DBUser:               os.Getenv("DB_USER"),
		DBPassword:           os.Getenv("DB_PASSWORD"),
		DBHost:               getEnv("DB_HOST", "127.0.0.1"),
		DBPort:               getEnv("DB_PORT", "3306"),
		DBName:               os.Getenv("DB_NAME"),
		JWTSecret:            os.Getenv("JWT_SECRET"),
		JWTTTL:               getEnvAsDuration("JWT_TTL", 24*time.Hour),
		RedisAddr:            getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPass:            os.Getenv("REDIS_PASS"),
		RedisDB:              getEnvAsInt("REDIS_DB", 0),
		IsProd:               os.Getenv("IS_PROD") == "true",
		MinDeposit:           getEnvAsFloat("MIN_DEPOSIT", 50),
		MaxDeposit:           getEnvAsFloat("MAX_DEPOSIT", 100000),
		MinWithdrawal:        getEnvAsFloat("MIN_WITHDRAWAL", 10),
		MaxWithdrawal:        getEnvAsFloat("MAX_WITHDRAWAL", 50000),
		ReferralSyncInterval: getEnvAsDuration("REFERRAL_SYNC_INTERVAL", 15*time.Minute),
		NotifyTimeout:        getEnvAsDuration("NOTIFY_TIMEOUT", 10*time.Second),
		TelegramBotToken:     os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramAdminChatID:  int64(getEnvAsInt("TELEGRAM_ADMIN_CHAT_ID", 0)),
		AdminEmail:           os.Getenv("ADMIN_EMAIL"),
		AdminPassword:        os.Getenv("ADMIN_PASSWORD"),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.Atoi(value); err == nil {
			return v
		}
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.ParseFloat(value, 64); err == nil {
			return v
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if v, err := time.ParseDuration(value); err == nil {
			return v
		}
	}
	return fallback
}
