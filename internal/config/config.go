package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Client   ClientConfig
	Log      LogConfig
}

// ServerConfig holds the server configuration
type ServerConfig struct {
	Port           int
	AllowedOrigins []string
}

// DatabaseConfig holds the database configuration
type DatabaseConfig struct {
	Driver     string // "postgres" or "memory"
	Host       string
	Port       int
	Username   string
	Password   string
	DBName     string
	SSLMode    string
	TestDBName string // Separate database for testing
}

// AuthConfig holds the authentication configuration
type AuthConfig struct {
	JWTSecret      string
	TokenTTL       time.Duration
	SeedAdminName  string
	SeedAdminEmail string
	SeedAdminPass  string
}

// ClientConfig holds the dashboard client configuration
type ClientConfig struct {
	BaseURL   string
	StatePath string
	Timeout   time.Duration
}

// LogConfig holds the logging configuration
type LogConfig struct {
	Level string
}

// GetDSN returns the database connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.Username, c.Password, c.DBName, c.SSLMode,
	)
}

// LoadConfig loads the configuration from a .env file, if any, and environment variables
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port:           getEnvAsInt("SERVER_PORT", 5000),
			AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Database: DatabaseConfig{
			Driver:     getEnv("DB_DRIVER", "postgres"),
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnvAsInt("DB_PORT", 5432),
			Username:   getEnv("DB_USERNAME", "postgres"),
			Password:   getEnv("DB_PASSWORD", "password"),
			DBName:     getEnv("DB_NAME", "bricks_admin"),
			SSLMode:    getEnv("DB_SSLMODE", "disable"),
			TestDBName: getEnv("TEST_DB_NAME", "bricks_admin_test"),
		},
		Auth: AuthConfig{
			JWTSecret:      getEnv("JWT_SECRET", "your-secret-key-here"),
			TokenTTL:       getEnvAsDuration("TOKEN_TTL", 24*time.Hour),
			SeedAdminName:  getEnv("SEED_ADMIN_NAME", "Super Admin"),
			SeedAdminEmail: getEnv("SEED_ADMIN_EMAIL", ""),
			SeedAdminPass:  getEnv("SEED_ADMIN_PASSWORD", ""),
		},
		Client: ClientConfig{
			BaseURL:   getEnv("API_URL", "http://localhost:5000/api"),
			StatePath: getEnv("DASHBOARD_STATE", defaultStatePath()),
			Timeout:   getEnvAsDuration("API_TIMEOUT", 0),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}
}

func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".dashboard-state.json"
	}
	return dir + string(os.PathSeparator) + "bricks-admin" + string(os.PathSeparator) + "state.json"
}

// Helper functions to read environment variables
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
