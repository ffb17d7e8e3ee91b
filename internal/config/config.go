package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server configuration
	Port string
	Mode string

	// Database configuration
	DatabaseURL string

	// Redis configuration
	RedisURL string

	// JWT configuration
	JWTSecret          string
	AccessTokenMinutes int
	RefreshTokenHours  int

	// Admin API key for back-office endpoints
	AdminAPIKey string

	// OTP configuration
	OTPExpireMinutes int
	OTPRateLimitMins int

	// Africa's Talking SMS configuration
	ATUsername string
	ATAPIKey   string
	ATSenderID string
	ATBaseURL  string

	// M-Pesa (Daraja) configuration
	MpesaConsumerKey    string
	MpesaConsumerSecret string
	MpesaPasskey        string
	MpesaShortcode      string
	MpesaEnvironment    string // sandbox or production
	MpesaCallbackURL    string
	MpesaTimeoutURL     string

	// Document upload configuration
	UploadDir string
}

var AppConfig *Config

func InitConfig() error {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		// Ignore error if .env file doesn't exist
	}

	AppConfig = &Config{
		Port:               getEnv("PORT", "8080"),
		Mode:               getEnv("GIN_MODE", "debug"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379/0"),
		JWTSecret:          getEnv("JWT_SECRET", "insecure-dev-secret"),
		AccessTokenMinutes: getEnvInt("ACCESS_TOKEN_MINUTES", 60),
		RefreshTokenHours:  getEnvInt("REFRESH_TOKEN_HOURS", 24*7),
		AdminAPIKey:        getEnv("ADMIN_API_KEY", ""),
		OTPExpireMinutes:   getEnvInt("OTP_EXPIRE_MINUTES", 5),
		OTPRateLimitMins:   getEnvInt("OTP_RATE_LIMIT_MINUTES", 1),
		ATUsername:         getEnv("AFRICASTALKING_USERNAME", "sandbox"),
		ATAPIKey:           getEnv("AFRICASTALKING_API_KEY", ""),
		ATSenderID:         getEnv("AFRICASTALKING_SENDER_ID", ""),
		ATBaseURL:          getEnv("AFRICASTALKING_BASE_URL", "https://api.sandbox.africastalking.com"),

		MpesaConsumerKey:    getEnv("MPESA_CONSUMER_KEY", ""),
		MpesaConsumerSecret: getEnv("MPESA_CONSUMER_SECRET", ""),
		MpesaPasskey:        getEnv("MPESA_PASSKEY", ""),
		MpesaShortcode:      getEnv("MPESA_BUSINESS_SHORTCODE", "174379"),
		MpesaEnvironment:    getEnv("MPESA_ENVIRONMENT", "sandbox"),
		MpesaCallbackURL:    getEnv("MPESA_CALLBACK_URL", "http://localhost:8080/api/payments/callback"),
		MpesaTimeoutURL:     getEnv("MPESA_TIMEOUT_URL", "http://localhost:8080/api/payments/timeout"),

		UploadDir: getEnv("UPLOAD_DIR", "uploads"),
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
