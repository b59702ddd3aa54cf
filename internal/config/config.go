package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	S3       S3Config
	Redis    RedisConfig
	Kafka    KafkaConfig
	Coupons  CouponConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host           string
	Port           int
	RequestTimeout time.Duration
	AllowedOrigin  string
}

// DatabaseConfig holds database-related configuration.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	MaxConnections  int
	MinConnections  int
	MaxConnLifetime int // seconds
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string
	Format string // "json" or "console"
}

// AuthConfig holds the key used to verify bearer tokens.
type AuthConfig struct {
	JWTSecret string
}

// S3Config holds AWS S3 configuration for media uploads and coupon imports.
type S3Config struct {
	Enabled       bool
	Bucket        string
	Region        string
	Prefix        string // key prefix for coupon import files
	PublicBaseURL string
}

// RedisConfig holds the product cache connection.
type RedisConfig struct {
	Enabled    bool
	Addr       string
	Password   string
	DB         int
	ProductTTL time.Duration
}

// KafkaConfig holds the domain event stream settings.
type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
}

// CouponConfig holds the optional coupon import run at start-up.
type CouponConfig struct {
	ImportFile string
}

// Load loads configuration from environment variables. A .env file in the
// working directory is read first when present; real environment variables
// take precedence over it.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			RequestTimeout: getEnvAsDuration("SERVER_REQUEST_TIMEOUT", 30*time.Second),
			AllowedOrigin:  getEnv("CORS_ALLOWED_ORIGIN", "*"),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			Database:        getEnv("DB_NAME", "tapandbuy"),
			MaxConnections:  getEnvAsInt("DB_MAX_CONNECTIONS", 25),
			MinConnections:  getEnvAsInt("DB_MIN_CONNECTIONS", 5),
			MaxConnLifetime: getEnvAsInt("DB_MAX_CONN_LIFETIME", 300),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		S3: S3Config{
			Enabled:       getEnvAsBool("S3_ENABLED", false),
			Bucket:        getEnv("S3_BUCKET", ""),
			Region:        getEnv("S3_REGION", "ap-south-1"),
			Prefix:        getEnv("S3_PREFIX", "coupons/"),
			PublicBaseURL: getEnv("S3_PUBLIC_BASE_URL", ""),
		},
		Redis: RedisConfig{
			Enabled:    getEnvAsBool("REDIS_ENABLED", false),
			Addr:       getEnv("REDIS_ADDR", "localhost:6379"),
			Password:   getEnv("REDIS_PASSWORD", ""),
			DB:         getEnvAsInt("REDIS_DB", 0),
			ProductTTL: getEnvAsDuration("REDIS_PRODUCT_TTL", 5*time.Minute),
		},
		Kafka: KafkaConfig{
			Enabled: getEnvAsBool("KAFKA_ENABLED", false),
			Brokers: getEnvAsList("KAFKA_BROKERS", []string{"localhost:9092"}),
			Topic:   getEnv("KAFKA_TOPIC", "tapandbuy.events"),
		},
		Coupons: CouponConfig{
			ImportFile: getEnv("COUPON_IMPORT_FILE", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(validPort(c.Server.Port), "invalid server port: %d", c.Server.Port)
	check(c.Server.RequestTimeout > 0, "request timeout must be positive")

	db := c.Database
	check(db.Host != "", "database host is required")
	check(validPort(db.Port), "invalid database port: %d", db.Port)
	check(db.User != "", "database user is required")
	check(db.Database != "", "database name is required")
	check(db.MaxConnections >= 1, "database max connections must be at least 1")
	check(db.MinConnections >= 1, "database min connections must be at least 1")
	check(db.MinConnections <= db.MaxConnections, "database min connections cannot exceed max connections")

	check(c.Auth.JWTSecret != "", "JWT secret is required")

	switch c.Logger.Level {
	case "debug", "info", "warn", "error":
	default:
		check(false, "invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}
	check(c.Logger.Format == "json" || c.Logger.Format == "console",
		"invalid log format: %s (must be json or console)", c.Logger.Format)

	if c.S3.Enabled {
		check(c.S3.Bucket != "", "S3 bucket is required when S3 is enabled")
		check(c.S3.Region != "", "S3 region is required when S3 is enabled")
	}
	if c.Redis.Enabled {
		check(c.Redis.Addr != "", "redis address is required when redis is enabled")
		check(c.Redis.ProductTTL > 0, "redis product TTL must be positive")
	}
	if c.Kafka.Enabled {
		check(len(c.Kafka.Brokers) > 0, "at least one kafka broker is required when kafka is enabled")
		check(c.Kafka.Topic != "", "kafka topic is required when kafka is enabled")
	}

	return errors.Join(errs...)
}

func validPort(p int) bool {
	return p >= 1 && p <= 65535
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// Address returns the server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma separated variable, dropping empty entries.
func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
