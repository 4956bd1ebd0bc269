package config

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"strconv"
)

type Config struct {
	ServerAddr string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// TokenSecret signs session tokens. Generated per process when unset,
	// which invalidates all sessions on restart.
	TokenSecret   string
	SessionCookie string

	// RedisAddr enables the login rate limiter when non-empty.
	RedisAddr     string
	LoginAttempts int

	// MinioEndpoint enables workbook archival when non-empty.
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
}

func Load() *Config {
	loginAttempts, _ := strconv.Atoi(getEnvOrDefault("LOGIN_ATTEMPTS", "10"))
	if loginAttempts <= 0 {
		loginAttempts = 10
	}

	minioUseSSL, _ := strconv.ParseBool(getEnvOrDefault("MINIO_USE_SSL", "false"))

	return &Config{
		ServerAddr:     getEnvOrDefault("SERVER_ADDR", ":8080"),
		DBHost:         getEnvOrDefault("DB_HOST", "localhost"),
		DBPort:         getEnvOrDefault("DB_PORT", "5432"),
		DBUser:         getEnvOrDefault("DB_USER", "questionbank"),
		DBPassword:     getEnvOrDefault("DB_PASSWORD", "questionbank_dev_password"),
		DBName:         getEnvOrDefault("DB_NAME", "questionbank"),
		TokenSecret:    getEnvOrDefault("TOKEN_SECRET", generateDefaultSecret()),
		SessionCookie:  getEnvOrDefault("SESSION_COOKIE", "session"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		LoginAttempts:  loginAttempts,
		MinioEndpoint:  os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey: getEnvOrDefault("MINIO_ACCESS_KEY", "minioadmin"),
		MinioSecretKey: getEnvOrDefault("MINIO_SECRET_KEY", "minioadmin"),
		MinioBucket:    getEnvOrDefault("MINIO_BUCKET", "workbook-archive"),
		MinioUseSSL:    minioUseSSL,
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func generateDefaultSecret() string {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "dev-secret-change-in-production"
	}
	return hex.EncodeToString(bytes)
}
