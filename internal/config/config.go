package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	Environment string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// Server
	Port string

	// Escrow
	AuthorityAddress string
	TreasuryAddress  string

	// Payment verifier (off-chain deposit confirmation)
	PaymentVerifierBaseURL  string
	PaymentVerifierTokenURL string
	PaymentVerifierUsername string
	PaymentVerifierPassword string
	PaymentVerifierTimeout  int
	PaymentCheckIntervalMin int

	// Security
	JWTSecret       string
	TokenTTLMinutes int
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		// Environment
		Environment: getEnv("APP_ENV", "development"),

		// Database
		DatabaseURL: getEnv("DATABASE_URL", "postgres://localhost:5432/matchvault?sslmode=disable"),

		// Redis
		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		// Server
		Port: getEnv("APP_PORT", "8080"),

		// Escrow
		AuthorityAddress: getEnv("AUTHORITY_ADDRESS", ""),
		TreasuryAddress:  getEnv("TREASURY_ADDRESS", ""),

		// Payment verifier
		PaymentVerifierBaseURL:  getEnv("PAYMENT_VERIFIER_BASE_URL", ""),
		PaymentVerifierTokenURL: getEnv("PAYMENT_VERIFIER_TOKEN_URL", "/oauth/token"),
		PaymentVerifierUsername: getEnv("PAYMENT_VERIFIER_USERNAME", ""),
		PaymentVerifierPassword: getEnv("PAYMENT_VERIFIER_PASSWORD", ""),
		PaymentVerifierTimeout:  getEnvInt("PAYMENT_VERIFIER_TIMEOUT_SECONDS", 30),
		PaymentCheckIntervalMin: getEnvInt("PAYMENT_CHECK_INTERVAL_MINUTES", 2),

		// Security
		JWTSecret:       getEnv("JWT_SECRET", "change-me-in-production"),
		TokenTTLMinutes: getEnvInt("TOKEN_TTL_MINUTES", 30),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
