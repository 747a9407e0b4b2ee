package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port         string
	DatabasePath string
	LogLevel     string

	// Pipeline input/output locations.
	SMSXMLPath string
	StageDir   string

	// Only messages from this sender address are treated as mobile-money SMS.
	SMSSenderAddress string
	DefaultCurrency  string

	// Seeded API credentials. The password is bcrypt-hashed before storage.
	AdminUsername string
	AdminPassword string

	MaxRequestBytes  int64
	AuthCacheExpiry  time.Duration
	RateLimitBurst   int
	RateLimitEveryMs int
}

var Cfg *AppConfig

func LoadConfig() {
	errEnv := godotenv.Load()
	if errEnv != nil {
		log.Println("Info: No .env file found or error loading .env file. Relying on OS environment variables and defaults. Error (if any):", errEnv)
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	adminPassword := getEnv("ADMIN_PASSWORD", "password123")
	if adminPassword == "password123" {
		log.Println("WARNING: Using default ADMIN_PASSWORD. Set ADMIN_PASSWORD environment variable for production.")
	}

	maxRequestBytesStr := getEnv("MAX_REQUEST_BYTES", "1048576")
	maxRequestBytes, err := strconv.ParseInt(maxRequestBytesStr, 10, 64)
	if err != nil {
		log.Printf("WARNING: Invalid MAX_REQUEST_BYTES format '%s'. Using default 1MB. Error: %v", maxRequestBytesStr, err)
		maxRequestBytes = 1024 * 1024
	}

	authCacheExpiryStr := getEnv("AUTH_CACHE_EXPIRY", "5m")
	authCacheExpiry, err := time.ParseDuration(authCacheExpiryStr)
	if err != nil {
		log.Printf("WARNING: Invalid AUTH_CACHE_EXPIRY format '%s'. Using default 5m. Error: %v", authCacheExpiryStr, err)
		authCacheExpiry = 5 * time.Minute
	}

	Cfg = &AppConfig{
		Port:         getEnv("PORT", "8080"),
		DatabasePath: getEnv("DATABASE_PATH", "./momosms.db"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),

		SMSXMLPath: getEnv("SMS_XML_PATH", "data/raw/modified_sms_v2.xml"),
		StageDir:   getEnv("STAGE_DIR", "data/processed"),

		SMSSenderAddress: getEnv("SMS_SENDER_ADDRESS", "M-Money"),
		DefaultCurrency:  getEnv("DEFAULT_CURRENCY", "RWF"),

		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword: adminPassword,

		MaxRequestBytes:  maxRequestBytes,
		AuthCacheExpiry:  authCacheExpiry,
		RateLimitBurst:   getEnvAsInt("RATE_LIMIT_BURST", 30),
		RateLimitEveryMs: getEnvAsInt("RATE_LIMIT_EVERY_MS", 100),
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s, SenderAddress=%s",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath, Cfg.SMSSenderAddress)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable %s not set, using default: %s", key, fallback)
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		log.Printf("Integer value for %s not set or empty, using default: %d", key, fallback)
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}
