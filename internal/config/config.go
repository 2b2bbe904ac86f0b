package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database   DatabaseConfig
	JWT        JWTConfig
	App        AppConfig
	CORS       CORSConfig
	Attendance AttendanceConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Name     string
	Version  string
	Port     int
	Env      string
	LogLevel string
}

type CORSConfig struct {
	AllowedOrigins []string
}

// AttendanceConfig tunes the batch operations and the period scheduler.
type AttendanceConfig struct {
	BatchChunkSize   int
	BatchWorkers     int
	BatchMaxAttempts int
	BatchBackoff     time.Duration

	AutoGenerate     bool
	GenerateInterval time.Duration
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, reading configuration from environment")
	}

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	maxConns, err := strconv.Atoi(getEnv("DB_MAX_CONNS", "25"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}
	minConns, err := strconv.Atoi(getEnv("DB_MIN_CONNS", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "cmlabs-hris"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		MaxConns: int32(maxConns),
		MinConns: int32(minConns),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Name:     getEnv("APP_NAME", "hris-attendance"),
		Version:  getEnv("APP_VERSION", "v1.0.0"),
		Port:     appPort,
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	config.CORS = CORSConfig{
		AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS"),
	}
	if len(config.CORS.AllowedOrigins) == 0 {
		config.CORS.AllowedOrigins = []string{"http://localhost:3000"}
	}

	// Attendance batch configuration
	config.Attendance, err = loadAttendance()
	if err != nil {
		return nil, err
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

func loadAttendance() (AttendanceConfig, error) {
	chunkSize, err := strconv.Atoi(getEnv("ATTENDANCE_BATCH_CHUNK_SIZE", "25"))
	if err != nil {
		return AttendanceConfig{}, fmt.Errorf("invalid ATTENDANCE_BATCH_CHUNK_SIZE: %w", err)
	}
	workers, err := strconv.Atoi(getEnv("ATTENDANCE_BATCH_WORKERS", "4"))
	if err != nil {
		return AttendanceConfig{}, fmt.Errorf("invalid ATTENDANCE_BATCH_WORKERS: %w", err)
	}
	attempts, err := strconv.Atoi(getEnv("ATTENDANCE_BATCH_MAX_ATTEMPTS", "3"))
	if err != nil {
		return AttendanceConfig{}, fmt.Errorf("invalid ATTENDANCE_BATCH_MAX_ATTEMPTS: %w", err)
	}
	backoff, err := time.ParseDuration(getEnv("ATTENDANCE_BATCH_RETRY_BACKOFF", "200ms"))
	if err != nil {
		return AttendanceConfig{}, fmt.Errorf("invalid ATTENDANCE_BATCH_RETRY_BACKOFF: %w", err)
	}
	autoGenerate, err := strconv.ParseBool(getEnv("ATTENDANCE_AUTO_GENERATE", "true"))
	if err != nil {
		return AttendanceConfig{}, fmt.Errorf("invalid ATTENDANCE_AUTO_GENERATE: %w", err)
	}
	interval, err := time.ParseDuration(getEnv("ATTENDANCE_GENERATE_INTERVAL", "1h"))
	if err != nil {
		return AttendanceConfig{}, fmt.Errorf("invalid ATTENDANCE_GENERATE_INTERVAL: %w", err)
	}

	return AttendanceConfig{
		BatchChunkSize:   chunkSize,
		BatchWorkers:     workers,
		BatchMaxAttempts: attempts,
		BatchBackoff:     backoff,
		AutoGenerate:     autoGenerate,
		GenerateInterval: interval,
	}, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.Attendance.BatchChunkSize <= 0 {
		return fmt.Errorf("ATTENDANCE_BATCH_CHUNK_SIZE must be positive")
	}
	if c.Attendance.BatchWorkers <= 0 {
		return fmt.Errorf("ATTENDANCE_BATCH_WORKERS must be positive")
	}
	if c.Attendance.BatchMaxAttempts <= 0 {
		return fmt.Errorf("ATTENDANCE_BATCH_MAX_ATTEMPTS must be positive")
	}
	if c.Attendance.AutoGenerate && c.Attendance.GenerateInterval <= 0 {
		return fmt.Errorf("ATTENDANCE_GENERATE_INTERVAL must be positive")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(env string) []string {
	value := getEnv(env, "")
	if value == "" {
		return []string{}
	}
	var result []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			result = append(result, v)
		}
	}
	return result
}
