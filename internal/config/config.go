package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultJWTSecret    = "change-me-jwt-secret"
	defaultJWTAccessTTL = "5h"
	defaultDatabaseURL  = "file:admarket.db"
	defaultPageSize     = 20
)

type Config struct {
	AppEnv     string
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	Redis      RedisConfig
	Kafka      KafkaConfig
	Logger     LoggerConfig
	RateLimit  RateLimitConfig
	Pagination PaginationConfig
	Lifecycle  LifecycleConfig
}

type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	CORSOrigins     []string
}

type DatabaseConfig struct {
	URL      string
	LogLevel string
}

type JWTConfig struct {
	Secret    string
	AccessTTL time.Duration
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
	CacheTTL time.Duration
}

type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topics  Topics
}

// Topics maps event families to Kafka topics.
type Topics struct {
	Bookings string
	Ads      string
	Payments string
}

type LoggerConfig struct {
	Level  string
	Format string
	File   string
}

type RateLimitConfig struct {
	Enabled       bool
	Requests      int
	WindowSeconds int
	KeyPrefix     string
}

type PaginationConfig struct {
	PageSize int
}

// LifecycleConfig drives the periodic booking/ad lifecycle job.
type LifecycleConfig struct {
	ReminderDaysAhead int
}

func Load() (*Config, error) {
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}

	cfg := &Config{
		AppEnv: strings.ToLower(appEnv),
		Database: DatabaseConfig{
			URL:      strings.TrimSpace(getEnv("DATABASE_URL", defaultDatabaseURL)),
			LogLevel: getEnv("DB_LOG_LEVEL", "warn"),
		},
		JWT: JWTConfig{
			Secret: strings.TrimSpace(getEnv("JWT_SECRET", defaultJWTSecret)),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Enabled: getEnvAsBool("KAFKA_ENABLED", false),
			Brokers: splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
			Topics: Topics{
				Bookings: getEnv("KAFKA_TOPIC_BOOKINGS", "ad-bookings"),
				Ads:      getEnv("KAFKA_TOPIC_ADS", "ads"),
				Payments: getEnv("KAFKA_TOPIC_PAYMENTS", "payments"),
			},
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
			File:   getEnv("LOG_FILE", ""),
		},
		RateLimit: RateLimitConfig{
			Enabled:       getEnvAsBool("RATE_LIMIT_ENABLED", false),
			Requests:      getEnvAsInt("RATE_LIMIT_REQUESTS", 120),
			WindowSeconds: getEnvAsInt("RATE_LIMIT_WINDOW_SECONDS", 60),
			KeyPrefix:     getEnv("RATE_LIMIT_KEY_PREFIX", "ratelimit"),
		},
		Pagination: PaginationConfig{
			PageSize: getEnvAsInt("PAGE_SIZE", defaultPageSize),
		},
		Lifecycle: LifecycleConfig{
			ReminderDaysAhead: getEnvAsInt("LIFECYCLE_REMINDER_DAYS", 3),
		},
	}
	cfg.Server.Port = getEnv("PORT", "8080")
	cfg.Server.CORSOrigins = splitList(getEnv("CORS_ORIGINS", ""))

	var err error
	if cfg.JWT.AccessTTL, err = parseDurationEnv("JWT_ACCESS_TTL", defaultJWTAccessTTL); err != nil {
		return nil, err
	}
	if cfg.Server.ReadTimeout, err = parseDurationEnv("SERVER_READ_TIMEOUT", "15s"); err != nil {
		return nil, err
	}
	if cfg.Server.WriteTimeout, err = parseDurationEnv("SERVER_WRITE_TIMEOUT", "15s"); err != nil {
		return nil, err
	}
	if cfg.Server.ShutdownTimeout, err = parseDurationEnv("SERVER_SHUTDOWN_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.Redis.CacheTTL, err = parseDurationEnv("REDIS_CACHE_TTL", "5m"); err != nil {
		return nil, err
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}
	if cfg.JWT.AccessTTL <= 0 {
		return fmt.Errorf("JWT_ACCESS_TTL must be > 0")
	}
	if cfg.Pagination.PageSize <= 0 || cfg.Pagination.PageSize > 100 {
		return fmt.Errorf("PAGE_SIZE must be within 1..100")
	}
	if cfg.Lifecycle.ReminderDaysAhead < 0 {
		return fmt.Errorf("LIFECYCLE_REMINDER_DAYS must be >= 0")
	}
	if cfg.Kafka.Enabled && len(cfg.Kafka.Brokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS must be set when KAFKA_ENABLED=true")
	}
	if isProdLike(cfg.AppEnv) && (cfg.JWT.Secret == "" || cfg.JWT.Secret == defaultJWTSecret) {
		return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
	}
	return nil
}

// IsProd reports whether the service runs in a production-like environment.
func (c *Config) IsProd() bool {
	return isProdLike(c.AppEnv)
}

func isProdLike(appEnv string) bool {
	switch strings.ToLower(strings.TrimSpace(appEnv)) {
	case "prod", "production", "release":
		return true
	default:
		return false
	}
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(strings.TrimSpace(getEnv(key, ""))); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	switch strings.ToLower(strings.TrimSpace(getEnv(key, ""))) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	default:
		return defaultValue
	}
}

func parseDurationEnv(key, defaultValue string) (time.Duration, error) {
	raw := strings.TrimSpace(getEnv(key, defaultValue))
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
