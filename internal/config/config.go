package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// MemoryDB selects the in-process store instead of Postgres
const MemoryDB = "memory"

// Config holds application configuration
type Config struct {
	Port             string
	DBConn           string
	LogLevel         string
	JWTSecret        string
	AdminEmail       string
	EncryptionKey    string
	BCBURL           string
	SMTPHost         string
	SMTPPort         string
	SMTPUsername     string
	SMTPPassword     string
	SenderEmail      string
	EarningsSchedule string
	EarningsWorkers  int
}

// NewConfig loads configuration from an optional .env file and environment variables
func NewConfig() (*Config, error) {
	_ = godotenv.Load()

	workers, err := strconv.Atoi(getEnv("EARNINGS_WORKERS", "4"))
	if err != nil || workers < 1 {
		return nil, fmt.Errorf("EARNINGS_WORKERS must be a positive integer")
	}

	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		DBConn:           getEnv("DB_CONN", "host=localhost port=5436 user=test password=test dbname=invest sslmode=disable"),
		LogLevel:         getEnv("LOG_LEVEL", "INFO"),
		JWTSecret:        getEnv("JWT_SECRET", "secret"),
		AdminEmail:       getEnv("ADMIN_EMAIL", ""),
		EncryptionKey:    getEnv("ENCRYPTION_KEY", "a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6"),
		BCBURL:           getEnv("BCB_URL", "https://www3.bcb.gov.br/wssgs/services/FachadaWSSGS"),
		SMTPHost:         getEnv("SMTP_HOST", ""),
		SMTPPort:         getEnv("SMTP_PORT", "587"),
		SMTPUsername:     getEnv("SMTP_USERNAME", ""),
		SMTPPassword:     getEnv("SMTP_PASSWORD", ""),
		SenderEmail:      getEnv("SENDER_EMAIL", "no-reply@invest.local"),
		EarningsSchedule: getEnv("EARNINGS_SCHEDULE", "0 0 * * *"),
		EarningsWorkers:  workers,
	}

	if cfg.DBConn == "" {
		return nil, fmt.Errorf("DB_CONN is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.EncryptionKey == "" {
		return nil, fmt.Errorf("ENCRYPTION_KEY is required")
	}
	if _, err := cfg.EncryptionKeyBytes(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// EncryptionKeyBytes decodes the hex encoded AES key
func (c *Config) EncryptionKeyBytes() ([]byte, error) {
	key, err := hex.DecodeString(c.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("ENCRYPTION_KEY must be hex encoded: %w", err)
	}
	if len(key) != 16 && len(key) != 24 && len(key) != 32 {
		return nil, fmt.Errorf("ENCRYPTION_KEY must decode to 16, 24 or 32 bytes, got %d", len(key))
	}
	return key, nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}
