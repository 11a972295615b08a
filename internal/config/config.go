// Package config loads application configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env               string
	HTTPAddr          string
	DatabaseURL       string
	JWTAccessSecret   string
	CORSAllowAll      bool
	CORSOrigins       []string
	LifecycleToken    string
	UnpaidGroupName   string
	WithdrawnGroupName string

	RedisURL         string
	AsynqQueue       string
	AsynqConcurrency int

	SMTPHost         string
	SMTPPort         int
	SMTPUsername     string
	SMTPPassword     string
	EmailFromName    string
	EmailFromAddress string
	EmailEnabled     bool

	MinioEndpoint    string
	MinioAccessKey   string
	MinioSecretKey   string
	MinioUseSSL      bool
	MinioBucketFiles string
	MinioMaxFileSize int64

	RateLimitPerSecond float64
	RateLimitBurst     int
	ShutdownTimeout    time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:                getEnv("APP_ENV", "development"),
		HTTPAddr:           getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		JWTAccessSecret:    getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:       strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true"),
		CORSOrigins:        splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		LifecycleToken:     getEnv("LIFECYCLE_WEBHOOK_TOKEN", ""),
		UnpaidGroupName:    getEnv("UNPAID_GROUP_NAME", "unpaid"),
		WithdrawnGroupName: getEnv("WITHDRAWN_GROUP_NAME", "withdrawn"),
		RedisURL:           getEnv("REDIS_URL", ""),
		AsynqQueue:         getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:   getEnvInt("ASYNQ_CONCURRENCY", 10),
		SMTPHost:           getEnv("SMTP_HOST", ""),
		SMTPPort:           getEnvInt("SMTP_PORT", 587),
		SMTPUsername:       getEnv("SMTP_USERNAME", ""),
		SMTPPassword:       getEnv("SMTP_PASSWORD", ""),
		EmailFromName:      getEnv("EMAIL_FROM_NAME", "Member Portal"),
		EmailFromAddress:   getEnv("EMAIL_FROM_ADDRESS", ""),
		MinioEndpoint:      getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey:     getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey:     getEnv("MINIO_SECRET_KEY", ""),
		MinioUseSSL:        strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinioBucketFiles:   getEnv("MINIO_BUCKET_FILES", "portal-files"),
		MinioMaxFileSize:   int64(getEnvInt("MINIO_MAX_FILE_SIZE", 25<<20)),
		RateLimitPerSecond: getEnvFloat("RATE_LIMIT_PER_SECOND", 20),
		RateLimitBurst:     getEnvInt("RATE_LIMIT_BURST", 40),
		ShutdownTimeout:    mustDuration(getEnv("SHUTDOWN_TIMEOUT", "10s")),
	}

	cfg.EmailEnabled = cfg.SMTPHost != "" && cfg.EmailFromAddress != ""

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.LifecycleToken == "" {
		return nil, fmt.Errorf("LIFECYCLE_WEBHOOK_TOKEN is required")
	}

	return cfg, nil
}

// GetJWTAccessSecret implements httpkit.JWTConfig.
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// IsMinioEnabled reports whether object storage is configured.
func (c *Config) IsMinioEnabled() bool { return c.MinioEndpoint != "" }

// Queue config accessors implementing jobs.Config.
func (c *Config) GetRedisURL() string      { return c.RedisURL }
func (c *Config) GetAsynqQueue() string    { return c.AsynqQueue }
func (c *Config) GetAsynqConcurrency() int { return c.AsynqConcurrency }

// Storage config accessors implementing storage.Config.
func (c *Config) GetMinioEndpoint() string   { return c.MinioEndpoint }
func (c *Config) GetMinioAccessKey() string  { return c.MinioAccessKey }
func (c *Config) GetMinioSecretKey() string  { return c.MinioSecretKey }
func (c *Config) GetMinioUseSSL() bool       { return c.MinioUseSSL }
func (c *Config) GetMinioBucket() string     { return c.MinioBucketFiles }
func (c *Config) GetMinioMaxFileSize() int64 { return c.MinioMaxFileSize }

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}
