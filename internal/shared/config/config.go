package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultWebhookAllowedIPs are the provider's published webhook source addresses.
var DefaultWebhookAllowedIPs = []string{"63.32.31.5", "52.215.247.62", "34.249.92.209"}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Bridge    BridgeConfig    `yaml:"bridge"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Port            string        `yaml:"port"`
	Host            string        `yaml:"host"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	// Driver is one of "postgres", "pgx" or "sqlite3".
	Driver      string `yaml:"driver"`
	URL         string `yaml:"url"`
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	User        string `yaml:"user"`
	Password    string `yaml:"password"`
	DBName      string `yaml:"dbname"`
	SSLMode     string `yaml:"sslmode"`
	AutoMigrate bool   `yaml:"auto_migrate"`
}

type BridgeConfig struct {
	BaseURL      string        `yaml:"base_url"`
	Version      string        `yaml:"version"`
	ClientID     string        `yaml:"client_id"`
	ClientSecret string        `yaml:"client_secret"`
	Timeout      time.Duration `yaml:"timeout"`
}

type WebhookConfig struct {
	AllowedIPs         []string `yaml:"allowed_ips"`
	TrustForwardedFor  bool     `yaml:"trust_forwarded_for"`
	RefreshOnCompleted bool     `yaml:"refresh_on_completed"`
}

type SchedulerConfig struct {
	Enabled       bool          `yaml:"enabled"`
	ScheduleTimes []string      `yaml:"times"`
	WorkerCount   int           `yaml:"workers"`
	JobDelay      time.Duration `yaml:"job_delay"`
	JobTimeout    time.Duration `yaml:"job_timeout"`
	QueueSize     int           `yaml:"queue_size"`
	RunOnStartup  bool          `yaml:"run_on_startup"`
}

type TelemetryConfig struct {
	Enabled      bool   `yaml:"enabled"`
	ServiceName  string `yaml:"service_name"`
	Environment  string `yaml:"environment"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	MetricsPort  string `yaml:"metrics_port"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads configuration from the file named by CONFIG_FILE (if any),
// then applies environment overrides.
func Load() (*Config, error) {
	return LoadFrom(os.Getenv("CONFIG_FILE"))
}

// LoadFrom reads configuration from a YAML file at path (skipped when empty),
// then applies environment overrides and validates the result.
func LoadFrom(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8080",
			Host:            "0.0.0.0",
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:  "postgres",
			Host:    "localhost",
			Port:    5432,
			User:    "bridgesync",
			DBName:  "bridgesync",
			SSLMode: "disable",
		},
		Bridge: BridgeConfig{
			BaseURL: "https://api.bridgeapi.io/v3/aggregation",
			Version: "2025-01-15",
			Timeout: 30 * time.Second,
		},
		Webhook: WebhookConfig{
			AllowedIPs:        append([]string(nil), DefaultWebhookAllowedIPs...),
			TrustForwardedFor: true,
		},
		Scheduler: SchedulerConfig{
			Enabled:       false,
			ScheduleTimes: []string{"05:00", "14:00"},
			WorkerCount:   3,
			JobDelay:      time.Second,
			JobTimeout:    2 * time.Minute,
			QueueSize:     100,
		},
		Telemetry: TelemetryConfig{
			ServiceName:  "bridgesync",
			Environment:  "development",
			OTLPEndpoint: "localhost:4317",
			MetricsPort:  "9464",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

func applyEnv(cfg *Config) error {
	var err error

	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)
	cfg.Server.Host = getEnv("HOST", cfg.Server.Host)
	if cfg.Server.ShutdownTimeout, err = getDurationEnv("SHUTDOWN_TIMEOUT", cfg.Server.ShutdownTimeout); err != nil {
		return err
	}

	cfg.Database.Driver = getEnv("DB_DRIVER", cfg.Database.Driver)
	cfg.Database.URL = getEnv("DATABASE_URL", cfg.Database.URL)
	cfg.Database.Host = getEnv("DB_HOST", cfg.Database.Host)
	if cfg.Database.Port, err = getIntEnv("DB_PORT", cfg.Database.Port); err != nil {
		return err
	}
	cfg.Database.User = getEnv("DB_USER", cfg.Database.User)
	cfg.Database.Password = getEnv("DB_PASSWORD", cfg.Database.Password)
	cfg.Database.DBName = getEnv("DB_NAME", cfg.Database.DBName)
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", cfg.Database.SSLMode)
	cfg.Database.AutoMigrate = getBoolEnv("DB_AUTO_MIGRATE", cfg.Database.AutoMigrate)

	cfg.Bridge.BaseURL = strings.TrimRight(getEnv("BRIDGE_BASE_URL", cfg.Bridge.BaseURL), "/")
	cfg.Bridge.Version = getEnv("BRIDGE_VERSION", cfg.Bridge.Version)
	cfg.Bridge.ClientID = getEnv("BRIDGE_CLIENT_ID", cfg.Bridge.ClientID)
	cfg.Bridge.ClientSecret = getEnv("BRIDGE_CLIENT_SECRET", cfg.Bridge.ClientSecret)
	if cfg.Bridge.Timeout, err = getDurationEnv("BRIDGE_TIMEOUT", cfg.Bridge.Timeout); err != nil {
		return err
	}

	if ips := getListEnv("WEBHOOK_ALLOWED_IPS"); ips != nil {
		cfg.Webhook.AllowedIPs = ips
	}
	cfg.Webhook.TrustForwardedFor = getBoolEnv("WEBHOOK_TRUST_FORWARDED_FOR", cfg.Webhook.TrustForwardedFor)
	cfg.Webhook.RefreshOnCompleted = getBoolEnv("WEBHOOK_REFRESH_ON_COMPLETED", cfg.Webhook.RefreshOnCompleted)

	cfg.Scheduler.Enabled = getBoolEnv("SCHEDULER_ENABLED", cfg.Scheduler.Enabled)
	if times := getListEnv("SCHEDULER_TIMES"); times != nil {
		cfg.Scheduler.ScheduleTimes = times
	}
	if cfg.Scheduler.WorkerCount, err = getIntEnv("SCHEDULER_WORKERS", cfg.Scheduler.WorkerCount); err != nil {
		return err
	}
	if cfg.Scheduler.JobDelay, err = getDurationEnv("SCHEDULER_JOB_DELAY", cfg.Scheduler.JobDelay); err != nil {
		return err
	}
	if cfg.Scheduler.JobTimeout, err = getDurationEnv("SCHEDULER_JOB_TIMEOUT", cfg.Scheduler.JobTimeout); err != nil {
		return err
	}
	if cfg.Scheduler.QueueSize, err = getIntEnv("SCHEDULER_QUEUE_SIZE", cfg.Scheduler.QueueSize); err != nil {
		return err
	}
	cfg.Scheduler.RunOnStartup = getBoolEnv("SCHEDULER_RUN_ON_STARTUP", cfg.Scheduler.RunOnStartup)

	cfg.Telemetry.Enabled = getBoolEnv("OTEL_ENABLED", cfg.Telemetry.Enabled)
	cfg.Telemetry.ServiceName = getEnv("OTEL_SERVICE_NAME", cfg.Telemetry.ServiceName)
	cfg.Telemetry.Environment = getEnv("OTEL_ENVIRONMENT", cfg.Telemetry.Environment)
	cfg.Telemetry.OTLPEndpoint = getEnv("OTEL_EXPORTER_ENDPOINT", cfg.Telemetry.OTLPEndpoint)
	cfg.Telemetry.MetricsPort = getEnv("METRICS_PORT", cfg.Telemetry.MetricsPort)

	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("LOG_FORMAT", cfg.Log.Format)

	return nil
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	if c.Bridge.ClientID == "" {
		return fmt.Errorf("BRIDGE_CLIENT_ID is required")
	}
	if c.Bridge.ClientSecret == "" {
		return fmt.Errorf("BRIDGE_CLIENT_SECRET is required")
	}
	if c.Bridge.Timeout <= 0 {
		return fmt.Errorf("BRIDGE_TIMEOUT must be positive")
	}
	if len(c.Webhook.AllowedIPs) == 0 {
		return fmt.Errorf("WEBHOOK_ALLOWED_IPS must contain at least one address")
	}

	switch c.Database.Driver {
	case "postgres", "pgx", "sqlite3":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (want postgres, pgx or sqlite3)", c.Database.Driver)
	}

	if c.Scheduler.Enabled && c.Scheduler.WorkerCount <= 0 {
		return fmt.Errorf("SCHEDULER_WORKERS must be positive when the scheduler is enabled")
	}

	return nil
}

// ConnectionString returns the DSN handed to sql.Open for the configured driver.
func (c *DatabaseConfig) ConnectionString() string {
	if c.URL != "" {
		return c.URL
	}
	if c.Driver == "sqlite3" {
		return c.DBName + ".db"
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

// getListEnv splits a comma-separated variable, returning nil when unset.
func getListEnv(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getBoolEnv(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	// Accept: true, false, 1, 0, yes, no (case-insensitive)
	switch strings.ToLower(value) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	default:
		return defaultValue
	}
}
