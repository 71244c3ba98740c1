package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server         ServerConfig
	Database       DatabaseConfig
	Auth           AuthConfig
	RateLimit      RateLimitConfig
	AdminBootstrap AdminBootstrapConfig
	Logging        LoggingConfig
	Environment    string
}

type ServerConfig struct {
	Host    string
	Port    int
	BaseURL string
}

type DatabaseConfig struct {
	URL            string
	MaxConnections int
}

type AuthConfig struct {
	JWTSecret string
	JWTExpiry time.Duration
}

type RateLimitConfig struct {
	PublicPerMinute int
	UserPerMinute   int
	LoginPerMinute  int
}

type AdminBootstrapConfig struct {
	Name     string
	Email    string
	Password string
}

type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables. A .env file in the
// working directory is loaded first if present.
func Load() (Config, error) {
	return LoadWithFile("")
}

// LoadWithFile behaves like Load, then overlays values from a YAML config
// file when path is non-empty. File values win over environment values.
func LoadWithFile(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Server: ServerConfig{
			Host:    getEnv("SERVER_HOST", "0.0.0.0"),
			Port:    getEnvInt("SERVER_PORT", 8080),
			BaseURL: getEnv("SERVER_BASE_URL", "http://localhost:8080"),
		},
		Database: DatabaseConfig{
			URL:            getEnv("DATABASE_URL", ""),
			MaxConnections: getEnvInt("DATABASE_MAX_CONNECTIONS", 25),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			JWTExpiry: time.Duration(getEnvInt("JWT_EXPIRY_HOURS", 24)) * time.Hour,
		},
		RateLimit: RateLimitConfig{
			PublicPerMinute: getEnvInt("RATE_LIMIT_PUBLIC", 60),
			UserPerMinute:   getEnvInt("RATE_LIMIT_USER", 120),
			LoginPerMinute:  getEnvInt("RATE_LIMIT_LOGIN", 10),
		},
		AdminBootstrap: AdminBootstrapConfig{
			Name:     getEnv("ADMIN_NAME", ""),
			Email:    getEnv("ADMIN_EMAIL", ""),
			Password: getEnv("ADMIN_PASSWORD", ""),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Environment: getEnv("ENVIRONMENT", "development"),
	}

	if path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	if cfg.Database.URL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.Auth.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	return cfg, nil
}

// fileOverlay mirrors the YAML config file shape. Pointer fields so that an
// absent key leaves the environment-derived value untouched.
type fileOverlay struct {
	Server struct {
		Host    *string `yaml:"host"`
		Port    *int    `yaml:"port"`
		BaseURL *string `yaml:"base_url"`
	} `yaml:"server"`
	Database struct {
		URL            *string `yaml:"url"`
		MaxConnections *int    `yaml:"max_connections"`
	} `yaml:"database"`
	Auth struct {
		JWTSecret   *string `yaml:"jwt_secret"`
		ExpiryHours *int    `yaml:"jwt_expiry_hours"`
	} `yaml:"auth"`
	Logging struct {
		Level  *string `yaml:"level"`
		Format *string `yaml:"format"`
	} `yaml:"logging"`
	Environment *string `yaml:"environment"`
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var overlay fileOverlay
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	setString(&cfg.Server.Host, overlay.Server.Host)
	setInt(&cfg.Server.Port, overlay.Server.Port)
	setString(&cfg.Server.BaseURL, overlay.Server.BaseURL)
	setString(&cfg.Database.URL, overlay.Database.URL)
	setInt(&cfg.Database.MaxConnections, overlay.Database.MaxConnections)
	setString(&cfg.Auth.JWTSecret, overlay.Auth.JWTSecret)
	if overlay.Auth.ExpiryHours != nil {
		cfg.Auth.JWTExpiry = time.Duration(*overlay.Auth.ExpiryHours) * time.Hour
	}
	setString(&cfg.Logging.Level, overlay.Logging.Level)
	setString(&cfg.Logging.Format, overlay.Logging.Format)
	setString(&cfg.Environment, overlay.Environment)
	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
