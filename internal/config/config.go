package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig          `yaml:"app"`
	Postgres     PostgresConfig     `yaml:"postgres"`
	Redis        RedisConfig        `yaml:"redis"`
	Logger       LoggerConfig       `yaml:"logger"`
	Auth         AuthConfig         `yaml:"auth"`
	Notification NotificationConfig `yaml:"notification"`
	Engine       EngineConfig       `yaml:"engine"`
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string `yaml:"name"`
	Env                   string `yaml:"env"`
	Host                  string `yaml:"host"`
	Port                  string `yaml:"port"`
	Version               string `yaml:"version"`
	RequestTimeoutSeconds int    `yaml:"request_timeout_seconds"`
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string `yaml:"dsn"`
	MaxConns       int32  `yaml:"max_conns"`
	MinConns       int32  `yaml:"min_conns"`
	RunMigrations  bool   `yaml:"run_migrations"`
	MigrationsDir  string `yaml:"migrations_dir"`
	ConnMaxIdleSec int32  `yaml:"conn_max_idle_seconds"`
	ConnMaxLifeSec int32  `yaml:"conn_max_life_seconds"`
}

// RedisConfig holds Redis connection values. An empty Addr disables Redis and
// technician locks fall back to in-process mutexes.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string `yaml:"level"`
}

// AuthConfig defines actor token parameters.
type AuthConfig struct {
	JWTSecret             string `yaml:"jwt_secret"`
	AccessTokenTTLMinutes int    `yaml:"access_token_ttl_minutes"`
}

// NotificationConfig configures the notification sink.
type NotificationConfig struct {
	KafkaBrokers []string `yaml:"kafka_brokers"`
	KafkaTopic   string   `yaml:"kafka_topic"`
	EmailFrom    string   `yaml:"email_from"`
	WebhookURL   string   `yaml:"webhook_url"`
}

// EngineConfig tunes the assignment engine.
type EngineConfig struct {
	OverloadThreshold        float64       `yaml:"overload_threshold"`
	RebalanceBatchSize       int           `yaml:"rebalance_batch_size"`
	DefaultMaxTickets        int           `yaml:"default_max_tickets"`
	AvailableBelowPercent    float64       `yaml:"available_below_percent"`
	AcceptBelowPercent       float64       `yaml:"accept_below_percent"`
	BusyAtPercent            float64       `yaml:"busy_at_percent"`
	DueSoonWindow            time.Duration `yaml:"due_soon_window"`
	LockTTL                  time.Duration `yaml:"lock_ttl"`
	MaintenanceInterval      time.Duration `yaml:"maintenance_interval"`
	MaintenanceEnabled       bool          `yaml:"maintenance_enabled"`
	EscalationSweepBatchSize int           `yaml:"escalation_sweep_batch_size"`
}

// Defaults returns the configuration used when nothing is overridden.
func Defaults() *Config {
	return &Config{
		App: AppConfig{
			Name:                  "helpdesk-service",
			Env:                   "development",
			Host:                  "0.0.0.0",
			Port:                  "8080",
			Version:               "dev",
			RequestTimeoutSeconds: 30,
		},
		Postgres: PostgresConfig{
			MaxConns:       10,
			MinConns:       2,
			RunMigrations:  true,
			MigrationsDir:  "migrations",
			ConnMaxIdleSec: 30,
			ConnMaxLifeSec: 300,
		},
		Logger: LoggerConfig{Level: "info"},
		Auth: AuthConfig{
			JWTSecret:             "dev-secret",
			AccessTokenTTLMinutes: 60,
		},
		Notification: NotificationConfig{
			KafkaTopic: "helpdesk-notifications",
			EmailFrom:  "noreply@example.com",
		},
		Engine: EngineConfig{
			OverloadThreshold:        100,
			RebalanceBatchSize:       2,
			DefaultMaxTickets:        10,
			AvailableBelowPercent:    80,
			AcceptBelowPercent:       100,
			BusyAtPercent:            90,
			DueSoonWindow:            2 * time.Hour,
			LockTTL:                  10 * time.Second,
			MaintenanceInterval:      5 * time.Minute,
			MaintenanceEnabled:       true,
			EscalationSweepBatchSize: 500,
		},
	}
}

// Load reads configuration from defaults, an optional YAML file named by
// CONFIG_FILE, and environment variables, in that order of precedence.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", strconv.Itoa(cfg.Redis.DB)))
	if err != nil {
		return fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg.App.Name = getEnv("APP_NAME", cfg.App.Name)
	cfg.App.Env = getEnv("APP_ENV", cfg.App.Env)
	cfg.App.Host = getEnv("APP_HOST", cfg.App.Host)
	cfg.App.Port = getEnv("APP_PORT", cfg.App.Port)
	cfg.App.Version = getEnv("APP_VERSION", cfg.App.Version)
	cfg.App.RequestTimeoutSeconds = getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", cfg.App.RequestTimeoutSeconds)

	cfg.Postgres.DSN = getEnv("POSTGRES_DSN", cfg.Postgres.DSN)
	cfg.Postgres.MaxConns = int32(getEnvAsInt("POSTGRES_MAX_CONNS", int(cfg.Postgres.MaxConns)))
	cfg.Postgres.MinConns = int32(getEnvAsInt("POSTGRES_MIN_CONNS", int(cfg.Postgres.MinConns)))
	cfg.Postgres.RunMigrations = getEnvAsBool("POSTGRES_RUN_MIGRATIONS", cfg.Postgres.RunMigrations)
	cfg.Postgres.MigrationsDir = getEnv("POSTGRES_MIGRATIONS_DIR", cfg.Postgres.MigrationsDir)
	cfg.Postgres.ConnMaxIdleSec = int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", int(cfg.Postgres.ConnMaxIdleSec)))
	cfg.Postgres.ConnMaxLifeSec = int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", int(cfg.Postgres.ConnMaxLifeSec)))

	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = redisDB

	cfg.Logger.Level = getEnv("LOG_LEVEL", cfg.Logger.Level)

	cfg.Auth.JWTSecret = getEnv("AUTH_JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.Auth.AccessTokenTTLMinutes = getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", cfg.Auth.AccessTokenTTLMinutes)

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.Notification.KafkaBrokers = splitList(brokers)
	}
	cfg.Notification.KafkaTopic = getEnv("KAFKA_NOTIFICATION_TOPIC", cfg.Notification.KafkaTopic)
	cfg.Notification.EmailFrom = getEnv("NOTIFY_EMAIL_FROM", cfg.Notification.EmailFrom)
	cfg.Notification.WebhookURL = getEnv("NOTIFY_WEBHOOK_URL", cfg.Notification.WebhookURL)

	cfg.Engine.OverloadThreshold = getEnvAsFloat("ENGINE_OVERLOAD_THRESHOLD", cfg.Engine.OverloadThreshold)
	cfg.Engine.RebalanceBatchSize = getEnvAsInt("ENGINE_REBALANCE_BATCH_SIZE", cfg.Engine.RebalanceBatchSize)
	cfg.Engine.DefaultMaxTickets = getEnvAsInt("ENGINE_DEFAULT_MAX_TICKETS", cfg.Engine.DefaultMaxTickets)
	cfg.Engine.AvailableBelowPercent = getEnvAsFloat("ENGINE_AVAILABLE_BELOW_PERCENT", cfg.Engine.AvailableBelowPercent)
	cfg.Engine.AcceptBelowPercent = getEnvAsFloat("ENGINE_ACCEPT_BELOW_PERCENT", cfg.Engine.AcceptBelowPercent)
	cfg.Engine.BusyAtPercent = getEnvAsFloat("ENGINE_BUSY_AT_PERCENT", cfg.Engine.BusyAtPercent)
	cfg.Engine.DueSoonWindow = getEnvAsDuration("ENGINE_DUE_SOON_WINDOW", cfg.Engine.DueSoonWindow)
	cfg.Engine.LockTTL = getEnvAsDuration("ENGINE_LOCK_TTL", cfg.Engine.LockTTL)
	cfg.Engine.MaintenanceInterval = getEnvAsDuration("ENGINE_MAINTENANCE_INTERVAL", cfg.Engine.MaintenanceInterval)
	cfg.Engine.MaintenanceEnabled = getEnvAsBool("ENGINE_MAINTENANCE_ENABLED", cfg.Engine.MaintenanceEnabled)
	cfg.Engine.EscalationSweepBatchSize = getEnvAsInt("ENGINE_ESCALATION_SWEEP_BATCH_SIZE", cfg.Engine.EscalationSweepBatchSize)
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsFloat(key string, fallback float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitList(val string) []string {
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
