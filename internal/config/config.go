package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Admin      AdminConfig
	RequestLog RequestLogConfig
	Pricing    PricingConfig
	Resolver   ResolverConfig
	Monitoring MonitoringConfig
	Logging    LoggingConfig
	CORS       CORSConfig
}

type ServerConfig struct {
	Port         int
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	// URL is optional; without it the account resolver runs on the
	// Redis-hash backends only.
	URL string
}

type RedisConfig struct {
	URL string
}

type AdminConfig struct {
	Username     string
	PasswordHash string // argon2id hash of the admin password
	JWTSecret    string
	TokenExpiry  time.Duration
}

type RequestLogConfig struct {
	StreamKey       string
	MaxLen          int64
	DefaultPageSize int
	MaxPageSize     int
}

type PricingConfig struct {
	KeyPrefix string
	// TableFile overrides the embedded model price table when set.
	TableFile string
}

type ResolverConfig struct {
	LookupTimeout time.Duration
}

type MonitoringConfig struct {
	PrometheusEnabled bool
	PrometheusPort    int
}

type LoggingConfig struct {
	Level  string
	Format string
}

type CORSConfig struct {
	AllowedOrigins []string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnvInt("ADMIN_PORT", 8080),
			Env:          getEnv("APP_ENV", "development"),
			ReadTimeout:  getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Admin: AdminConfig{
			Username:     getEnv("ADMIN_USERNAME", "admin"),
			PasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
			JWTSecret:    getEnv("ADMIN_JWT_SECRET", ""),
			TokenExpiry:  getEnvDuration("ADMIN_TOKEN_EXPIRY", 8*time.Hour),
		},
		RequestLog: RequestLogConfig{
			StreamKey:       getEnv("REQUEST_LOG_STREAM", "request:logs"),
			MaxLen:          int64(getEnvInt("REQUEST_LOG_MAXLEN", 5000)),
			DefaultPageSize: getEnvInt("REQUEST_LOG_PAGE_SIZE", 200),
			MaxPageSize:     getEnvInt("REQUEST_LOG_MAX_PAGE_SIZE", 2000),
		},
		Pricing: PricingConfig{
			KeyPrefix: getEnv("ACCOUNT_PRICING_PREFIX", "account_pricing:"),
			TableFile: getEnv("MODEL_PRICE_TABLE", ""),
		},
		Resolver: ResolverConfig{
			LookupTimeout: getEnvDuration("ACCOUNT_LOOKUP_TIMEOUT", 2*time.Second),
		},
		Monitoring: MonitoringConfig{
			PrometheusEnabled: getEnvBool("PROMETHEUS_ENABLED", true),
			PrometheusPort:    getEnvInt("PROMETHEUS_PORT", 9090),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "console"),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that required configuration is present
func (c *Config) Validate() error {
	if c.Server.Env == "production" {
		if c.Admin.JWTSecret == "" {
			return fmt.Errorf("ADMIN_JWT_SECRET is required in production")
		}
		if c.Admin.PasswordHash == "" {
			return fmt.Errorf("ADMIN_PASSWORD_HASH is required in production")
		}
	}
	if c.RequestLog.MaxLen <= 0 {
		return fmt.Errorf("REQUEST_LOG_MAXLEN must be positive")
	}
	if c.RequestLog.MaxPageSize < c.RequestLog.DefaultPageSize {
		return fmt.Errorf("REQUEST_LOG_MAX_PAGE_SIZE must be >= REQUEST_LOG_PAGE_SIZE")
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

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
