package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"sentinel/internal/logger"
)

// DefaultFileName is the config file looked up when none is given.
const DefaultFileName = "sentinel.yml"

// Config is the root configuration.
type Config struct {
	Sentinel SentinelConfig `yaml:"sentinel"`
}

// SentinelConfig is the project configuration.
type SentinelConfig struct {
	Input          InputConfig    `yaml:"input"`
	Pipeline       PipelineConfig `yaml:"pipeline"`
	Store          StoreConfig    `yaml:"store"`
	Alerts         AlertsConfig   `yaml:"alerts"`
	Notify         NotifyConfig   `yaml:"notify"`
	Rules          RulesConfig    `yaml:"rules"`
	Metrics        MetricsConfig  `yaml:"metrics"`
	API            APIConfig      `yaml:"api"`
	Capture        CaptureConfig  `yaml:"capture"`
	Logging        LoggingConfig  `yaml:"logging"`
	SelfReferences []string       `yaml:"self_references"`
}

// InputConfig controls the change-feed reader.
type InputConfig struct {
	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig controls the Redis change-feed list.
type RedisConfig struct {
	Addr          string        `yaml:"addr"`
	Password      string        `yaml:"password"`
	DB            int           `yaml:"db"`
	Key           string        `yaml:"key"`
	DeadLetterKey string        `yaml:"dead_letter_key"`
	BlockTimeout  time.Duration `yaml:"block_timeout"`
}

// PipelineConfig controls pipeline behavior.
type PipelineConfig struct {
	Workers int `yaml:"workers"`
}

// StoreConfig selects where users and interactions live.
type StoreConfig struct {
	Mode   string            `yaml:"mode"` // redis|sqlite|file
	Redis  RedisStoreConfig  `yaml:"redis"`
	SQLite SQLiteStoreConfig `yaml:"sqlite"`
	File   FileStoreConfig   `yaml:"file"`
}

// RedisStoreConfig config for the Redis interaction store.
type RedisStoreConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

// SQLiteStoreConfig config for the SQLite interaction store.
type SQLiteStoreConfig struct {
	Path string `yaml:"path"`
}

// FileStoreConfig config for the read-only YAML users file.
type FileStoreConfig struct {
	UsersPath string `yaml:"users_path"`
}

// AlertsConfig controls alert persistence.
type AlertsConfig struct {
	Output AlertOutputConfig `yaml:"output"`
}

// AlertOutputConfig selects the alert sink.
type AlertOutputConfig struct {
	Mode       string                 `yaml:"mode"` // store|file|clickhouse
	File       FileOutputConfig       `yaml:"file"`
	ClickHouse ClickHouseOutputConfig `yaml:"clickhouse"`
}

// ClickHouseOutputConfig config for ClickHouse HTTP JSONEachRow writes.
type ClickHouseOutputConfig struct {
	URL      string            `yaml:"url"`
	Database string            `yaml:"database"`
	Table    string            `yaml:"table"`
	Username string            `yaml:"username"`
	Password string            `yaml:"password"`
	Timeout  time.Duration     `yaml:"timeout"`
	Headers  map[string]string `yaml:"headers"`
}

// FileOutputConfig config for local JSON output.
type FileOutputConfig struct {
	Path string `yaml:"path"`
}

// NotifyConfig controls alert notifications.
type NotifyConfig struct {
	Mode               string        `yaml:"mode"` // feishu|webhook|log
	DefaultDestination string        `yaml:"default_destination"`
	MaxSamples         int           `yaml:"max_samples"`
	Feishu             FeishuConfig  `yaml:"feishu"`
	Webhook            WebhookConfig `yaml:"webhook"`
}

// FeishuConfig holds Feishu/Lark app credentials.
type FeishuConfig struct {
	AppID     string `yaml:"app_id"`
	AppSecret string `yaml:"app_secret"`
}

// WebhookConfig config for the HTTP notifier.
type WebhookConfig struct {
	URL     string            `yaml:"url"`
	Timeout time.Duration     `yaml:"timeout"`
	Headers map[string]string `yaml:"headers"`
}

// RulesConfig controls Sigma tagging.
type RulesConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// APIConfig controls the HTTP surface.
type APIConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// CaptureConfig controls snapshot capture.
type CaptureConfig struct {
	TargetPackage string `yaml:"target_package"`
}

// LoggingConfig controls logging output.
type LoggingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"`
	File    string `yaml:"file"`
	Console bool   `yaml:"console"`
}

// LoadConfig reads and parses a YAML config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Load resolves, reads and completes the configuration: file, then .env and
// environment overrides, then defaults. A missing file yields an
// environment-and-defaults configuration.
func Load(configArg string) (*Config, string, error) {
	path := FindConfigFile(configArg)

	cfg := &Config{}
	if _, err := os.Stat(path); err == nil {
		loaded, err := LoadConfig(path)
		if err != nil {
			return nil, path, fmt.Errorf("load config %s: %w", path, err)
		}
		cfg = loaded
	} else if configArg != "" {
		return nil, path, fmt.Errorf("config file not found: %s", configArg)
	}

	if err := godotenv.Load(); err != nil {
		logger.Debugf("No .env file loaded, using environment variables: %v", err)
	}
	ApplyEnv(cfg)
	ApplyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

// FindConfigFile returns the explicit path when given, otherwise
// ./sentinel.yml, otherwise sentinel.yml next to the executable.
func FindConfigFile(configArg string) string {
	if configArg != "" {
		return configArg
	}

	if _, err := os.Stat(DefaultFileName); err == nil {
		return DefaultFileName
	}

	exePath, err := os.Executable()
	if err == nil {
		path := filepath.Join(filepath.Dir(exePath), DefaultFileName)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return DefaultFileName
}

// ApplyEnv overrides secrets from SENTINEL_* environment variables.
func ApplyEnv(cfg *Config) {
	s := &cfg.Sentinel
	if v := os.Getenv("SENTINEL_REDIS_PASSWORD"); v != "" {
		s.Input.Redis.Password = v
		s.Store.Redis.Password = v
	}
	if v := os.Getenv("SENTINEL_FEISHU_APP_ID"); v != "" {
		s.Notify.Feishu.AppID = v
	}
	if v := os.Getenv("SENTINEL_FEISHU_APP_SECRET"); v != "" {
		s.Notify.Feishu.AppSecret = v
	}
	if v := os.Getenv("SENTINEL_FEISHU_CHAT_ID"); v != "" {
		s.Notify.DefaultDestination = v
	}
	if v := os.Getenv("SENTINEL_WEBHOOK_URL"); v != "" {
		s.Notify.Webhook.URL = v
	}
}

// ApplyDefaults fills unset fields.
func ApplyDefaults(cfg *Config) {
	s := &cfg.Sentinel

	if s.Input.Redis.Addr == "" {
		s.Input.Redis.Addr = "127.0.0.1:6379"
	}
	if s.Input.Redis.Key == "" {
		s.Input.Redis.Key = "sentinel:changes"
	}
	if s.Input.Redis.BlockTimeout == 0 {
		s.Input.Redis.BlockTimeout = 5 * time.Second
	}

	if s.Pipeline.Workers <= 0 {
		s.Pipeline.Workers = 8
	}

	if s.Store.Mode == "" {
		s.Store.Mode = "redis"
	}
	if s.Store.Redis.Addr == "" {
		s.Store.Redis.Addr = s.Input.Redis.Addr
		if s.Store.Redis.Password == "" {
			s.Store.Redis.Password = s.Input.Redis.Password
		}
	}
	if s.Store.Redis.KeyPrefix == "" {
		s.Store.Redis.KeyPrefix = "sentinel"
	}
	if s.Store.SQLite.Path == "" {
		s.Store.SQLite.Path = "data/sentinel.db"
	}
	if s.Store.File.UsersPath == "" {
		s.Store.File.UsersPath = "users.yml"
	}

	if s.Alerts.Output.Mode == "" {
		if s.Store.Mode == "file" {
			s.Alerts.Output.Mode = "file"
		} else {
			s.Alerts.Output.Mode = "store"
		}
	}
	if s.Alerts.Output.File.Path == "" {
		s.Alerts.Output.File.Path = "output/alerts.jsonl"
	}
	if s.Alerts.Output.ClickHouse.Database == "" {
		s.Alerts.Output.ClickHouse.Database = "sentinel"
	}
	if s.Alerts.Output.ClickHouse.Table == "" {
		s.Alerts.Output.ClickHouse.Table = "sentinel_alerts"
	}

	if s.Notify.Mode == "" {
		s.Notify.Mode = "log"
	}
	if s.Notify.MaxSamples <= 0 {
		s.Notify.MaxSamples = 5
	}
	if s.Notify.Webhook.Timeout <= 0 {
		s.Notify.Webhook.Timeout = 5 * time.Second
	}

	if s.API.Addr == "" {
		s.API.Addr = ":8080"
	}

	if s.Capture.TargetPackage == "" {
		s.Capture.TargetPackage = "com.whatsapp"
	}

	if s.Logging.Level == "" {
		s.Logging.Level = "info"
	}
}

// Validate checks mode values and cross-section constraints.
func (c *Config) Validate() error {
	s := &c.Sentinel

	switch s.Store.Mode {
	case "redis", "sqlite", "file":
	default:
		return fmt.Errorf("unknown store mode: %s", s.Store.Mode)
	}

	switch s.Alerts.Output.Mode {
	case "store":
		if s.Store.Mode == "file" {
			return fmt.Errorf("alerts.output.mode store requires a writable store (redis or sqlite)")
		}
	case "file", "clickhouse":
	default:
		return fmt.Errorf("unknown alert output mode: %s", s.Alerts.Output.Mode)
	}

	switch s.Notify.Mode {
	case "log":
	case "feishu":
		if strings.TrimSpace(s.Notify.Feishu.AppID) == "" || strings.TrimSpace(s.Notify.Feishu.AppSecret) == "" {
			return fmt.Errorf("notify.feishu.app_id and app_secret are required for feishu mode")
		}
	case "webhook":
		if strings.TrimSpace(s.Notify.Webhook.URL) == "" {
			return fmt.Errorf("notify.webhook.url is required for webhook mode")
		}
	default:
		return fmt.Errorf("unknown notify mode: %s", s.Notify.Mode)
	}

	return nil
}
