// Package config handles loading and validating the application configuration
// from YAML files with environment variable substitution.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// Backend names shared by the thresholds and alert history sections.
const (
	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendNone     = "none"
)

// Config is the top-level application configuration.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Upstream      UpstreamConfig      `yaml:"upstream"`
	Thresholds    ThresholdsConfig    `yaml:"thresholds"`
	Database      DatabaseConfig      `yaml:"database"`
	Redis         RedisConfig         `yaml:"redis"`
	Schedule      ScheduleConfig      `yaml:"schedule"`
	Alerts        AlertsConfig        `yaml:"alerts"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Stream        StreamConfig        `yaml:"stream"`
	Tracing       TracingConfig       `yaml:"tracing"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// ServerConfig defines the Echo HTTP server settings.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// UpstreamConfig defines where plant snapshots come from.
type UpstreamConfig struct {
	BaseURL   string          `yaml:"base_url"`
	Timeout   time.Duration   `yaml:"timeout"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	// Simulate replaces the plant API with generated data.
	Simulate bool   `yaml:"simulate"`
	Seed     uint64 `yaml:"seed"`
	Zones    int    `yaml:"zones"`
}

// RateLimitConfig defines plant API rate limiting settings.
type RateLimitConfig struct {
	PerSecond float64 `yaml:"per_second"`
	Burst     int     `yaml:"burst"`
}

// ThresholdsConfig selects where threshold configuration is persisted.
type ThresholdsConfig struct {
	Backend string `yaml:"backend"` // file, postgres, redis
	Path    string `yaml:"path"`
}

// DatabaseConfig defines PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
	PoolSize int    `yaml:"pool_size"`
}

// DSN returns a PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s pool_max_conns=%d",
		d.Host, d.Port, d.Name, d.User, d.Password, d.SSLMode, d.PoolSize,
	)
}

// RedisConfig defines Redis connection settings.
type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

// ScheduleConfig defines the poll cadence.
type ScheduleConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
}

// AlertsConfig defines alert feed and history behavior.
type AlertsConfig struct {
	FeedCapacity    int           `yaml:"feed_capacity"`    // default: 50
	Horizon         time.Duration `yaml:"horizon"`          // default: 3h
	HistoryBackend  string        `yaml:"history_backend"`  // memory, postgres, redis, none
	HistoryCapacity int           `yaml:"history_capacity"` // default: 1000
}

// NotificationsConfig defines notification targets.
type NotificationsConfig struct {
	Discord DiscordConfig `yaml:"discord"`
	Kafka   KafkaConfig   `yaml:"kafka"`
}

// DiscordConfig defines Discord webhook settings.
type DiscordConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// KafkaConfig defines the alert topic settings.
type KafkaConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// StreamConfig defines the live websocket push.
type StreamConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	ClientBuffer   int      `yaml:"client_buffer"`
}

// TracingConfig defines OpenTelemetry export. Tracing is off when Endpoint is
// empty.
type TracingConfig struct {
	Endpoint    string  `yaml:"endpoint"`
	Insecure    bool    `yaml:"insecure"`
	ServiceName string  `yaml:"service_name"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// UsesPostgres reports whether any backend needs the database.
func (c *Config) UsesPostgres() bool {
	return c.Thresholds.Backend == BackendPostgres || c.Alerts.HistoryBackend == BackendPostgres
}

// UsesRedis reports whether any backend needs Redis.
func (c *Config) UsesRedis() bool {
	return c.Thresholds.Backend == BackendRedis || c.Alerts.HistoryBackend == BackendRedis
}

// Load reads and parses a YAML config file, performing environment variable
// substitution and validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // config path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return Parse(data)
}

// Parse is Load for config already in memory.
func Parse(data []byte) (*Config, error) {
	// Expand environment variables in the YAML content.
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyUpstreamDefaults(&cfg.Upstream)
	applyThresholdsDefaults(&cfg.Thresholds)
	applyDatabaseDefaults(&cfg.Database)
	applyRedisDefaults(&cfg.Redis)
	applyScheduleDefaults(&cfg.Schedule)
	applyAlertsDefaults(&cfg.Alerts, cfg.Thresholds.Backend)
	applyStreamDefaults(&cfg.Stream)
	applyTracingDefaults(&cfg.Tracing)
	applyLoggingDefaults(&cfg.Logging)
}

func applyServerDefaults(s *ServerConfig) {
	if s.Host == "" {
		s.Host = "0.0.0.0"
	}
	if s.Port == 0 {
		s.Port = 8080
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = 30 * time.Second
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = 30 * time.Second
	}
}

func applyUpstreamDefaults(u *UpstreamConfig) {
	if u.Timeout == 0 {
		u.Timeout = 15 * time.Second
	}
	if u.RateLimit.PerSecond == 0 {
		u.RateLimit.PerSecond = 5.0
	}
	if u.RateLimit.Burst == 0 {
		u.RateLimit.Burst = 3
	}
	if u.Zones == 0 {
		u.Zones = 5
	}
}

func applyThresholdsDefaults(t *ThresholdsConfig) {
	if t.Backend == "" {
		t.Backend = BackendFile
	}
	if t.Backend == BackendFile && t.Path == "" {
		t.Path = "thresholds.yaml"
	}
}

func applyDatabaseDefaults(d *DatabaseConfig) {
	if d.Port == 0 {
		d.Port = 5432
	}
	if d.SSLMode == "" {
		d.SSLMode = "disable"
	}
	if d.PoolSize == 0 {
		d.PoolSize = 10
	}
}

func applyRedisDefaults(r *RedisConfig) {
	if r.KeyPrefix == "" {
		r.KeyPrefix = "ew"
	}
}

func applyScheduleDefaults(s *ScheduleConfig) {
	if s.PollInterval == 0 {
		s.PollInterval = 5 * time.Second
	}
	if s.FetchTimeout == 0 {
		s.FetchTimeout = 10 * time.Second
	}
}

// applyAlertsDefaults keeps history next to the thresholds when they live in
// a shared backend.
func applyAlertsDefaults(a *AlertsConfig, thresholdsBackend string) {
	if a.FeedCapacity == 0 {
		a.FeedCapacity = 50
	}
	if a.Horizon == 0 {
		a.Horizon = 3 * time.Hour
	}
	if a.HistoryBackend == "" {
		switch thresholdsBackend {
		case BackendPostgres, BackendRedis:
			a.HistoryBackend = thresholdsBackend
		default:
			a.HistoryBackend = BackendMemory
		}
	}
	if a.HistoryCapacity == 0 {
		a.HistoryCapacity = 1000
	}
}

func applyStreamDefaults(s *StreamConfig) {
	if s.ClientBuffer == 0 {
		s.ClientBuffer = 16
	}
}

func applyTracingDefaults(t *TracingConfig) {
	if t.ServiceName == "" {
		t.ServiceName = "effluent-watch"
	}
	if t.SampleRatio == 0 {
		t.SampleRatio = 1.0
	}
}

func applyLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = "text"
	}
}

func validate(cfg *Config) error {
	var errs []error

	if !cfg.Upstream.Simulate && cfg.Upstream.BaseURL == "" {
		errs = append(errs, errors.New("upstream.base_url is required unless upstream.simulate is set"))
	}
	if cfg.Upstream.RateLimit.PerSecond < 0 {
		errs = append(errs, errors.New("upstream.rate_limit.per_second must not be negative"))
	}

	if !slices.Contains([]string{BackendFile, BackendPostgres, BackendRedis}, cfg.Thresholds.Backend) {
		errs = append(errs, fmt.Errorf(
			"thresholds.backend must be one of: file, postgres, redis (got %q)",
			cfg.Thresholds.Backend,
		))
	}
	if !slices.Contains(
		[]string{BackendMemory, BackendPostgres, BackendRedis, BackendNone},
		cfg.Alerts.HistoryBackend,
	) {
		errs = append(errs, fmt.Errorf(
			"alerts.history_backend must be one of: memory, postgres, redis, none (got %q)",
			cfg.Alerts.HistoryBackend,
		))
	}

	if cfg.UsesPostgres() {
		errs = append(errs, validateDatabase(&cfg.Database)...)
	}
	if cfg.UsesRedis() && cfg.Redis.Addr == "" {
		errs = append(errs, errors.New("redis.addr is required when a redis backend is selected"))
	}

	if cfg.Schedule.PollInterval < time.Second {
		errs = append(errs, fmt.Errorf(
			"schedule.poll_interval must be at least 1s (got %s)", cfg.Schedule.PollInterval,
		))
	}
	if cfg.Schedule.FetchTimeout < 0 {
		errs = append(errs, errors.New("schedule.fetch_timeout must not be negative"))
	}

	if cfg.Alerts.FeedCapacity < 0 {
		errs = append(errs, errors.New("alerts.feed_capacity must not be negative"))
	}
	if cfg.Alerts.Horizon < 0 {
		errs = append(errs, errors.New("alerts.horizon must not be negative"))
	}

	if cfg.Notifications.Discord.Enabled && cfg.Notifications.Discord.WebhookURL == "" {
		errs = append(errs, errors.New("notifications.discord.webhook_url is required when discord is enabled"))
	}
	if cfg.Notifications.Kafka.Enabled {
		if len(cfg.Notifications.Kafka.Brokers) == 0 {
			errs = append(errs, errors.New("notifications.kafka.brokers is required when kafka is enabled"))
		}
		if cfg.Notifications.Kafka.Topic == "" {
			errs = append(errs, errors.New("notifications.kafka.topic is required when kafka is enabled"))
		}
	}

	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
		errs = append(errs, fmt.Errorf(
			"tracing.sample_ratio must be between 0 and 1 (got %g)", cfg.Tracing.SampleRatio,
		))
	}

	return errors.Join(errs...)
}

func validateDatabase(d *DatabaseConfig) []error {
	var errs []error
	if d.Host == "" {
		errs = append(errs, errors.New("database.host is required"))
	}
	if d.Name == "" {
		errs = append(errs, errors.New("database.name is required"))
	}
	if d.User == "" {
		errs = append(errs, errors.New("database.user is required"))
	}
	return errs
}
