// Package config loads crawler settings from defaults, an optional YAML
// file, DEADLINK_* environment variables and command line flags.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Storage backends.
const (
	StorageCSV      = "csv"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config is the complete application configuration.
type Config struct {
	Crawler CrawlerConfig `mapstructure:"crawler" yaml:"crawler"`
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Export  ExportConfig  `mapstructure:"export" yaml:"export"`

	configFileUsed string
}

// CrawlerConfig holds the traversal limits and HTTP behaviour.
type CrawlerConfig struct {
	URL               string        `mapstructure:"url" yaml:"url"`
	MaxPages          int           `mapstructure:"max_pages" yaml:"max_pages"`
	MaxDepth          int           `mapstructure:"max_depth" yaml:"max_depth"`
	RescanWindow      time.Duration `mapstructure:"rescan_window" yaml:"rescan_window"`
	Concurrency       int           `mapstructure:"concurrency" yaml:"concurrency"`
	PageTimeout       time.Duration `mapstructure:"page_timeout" yaml:"page_timeout"`
	LinkTimeout       time.Duration `mapstructure:"link_timeout" yaml:"link_timeout"`
	ProbeTimeout      time.Duration `mapstructure:"probe_timeout" yaml:"probe_timeout"`
	UserAgent         string        `mapstructure:"user_agent" yaml:"user_agent"`
	MaxBodyBytes      int64         `mapstructure:"max_body_bytes" yaml:"max_body_bytes"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	Burst             int           `mapstructure:"burst" yaml:"burst"`
}

// StorageConfig selects where dead links and scan history are kept.
type StorageConfig struct {
	Type          string `mapstructure:"type" yaml:"type"`
	Path          string `mapstructure:"path" yaml:"path"`
	RedisAddr     string `mapstructure:"redis_addr" yaml:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password" yaml:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db" yaml:"redis_db"`
	KeyPrefix     string `mapstructure:"key_prefix" yaml:"key_prefix"`
	DSN           string `mapstructure:"dsn" yaml:"dsn"`
	AutoMigrate   bool   `mapstructure:"auto_migrate" yaml:"auto_migrate"`
}

// LoggingConfig selects log verbosity and format.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	File   string `mapstructure:"file" yaml:"file"`
}

// ExportConfig controls the optional end-of-run report.
type ExportConfig struct {
	Format string `mapstructure:"format" yaml:"format"`
	File   string `mapstructure:"file" yaml:"file"`
}

// flagKeys maps command line flags to configuration keys.
var flagKeys = map[string]string{
	"url":           "crawler.url",
	"max-pages":     "crawler.max_pages",
	"max-depth":     "crawler.max_depth",
	"concurrency":   "crawler.concurrency",
	"rescan-window": "crawler.rescan_window",
	"storage":       "storage.type",
	"storage-path":  "storage.path",
	"log-level":     "logging.level",
	"export":        "export.format",
	"export-file":   "export.file",
}

// RegisterFlags adds the supported command line flags to flags.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "path to a YAML configuration file")
	flags.String("url", "", "seed URL to crawl (prompted when empty)")
	flags.Int("max-pages", 10000, "maximum number of pages to visit")
	flags.Int("max-depth", 20, "maximum link depth from the seed")
	flags.Int("concurrency", 10, "number of pages fetched in parallel per batch")
	flags.Duration("rescan-window", 14*24*time.Hour, "skip pages scanned more recently than this")
	flags.String("storage", StorageCSV, "storage backend: csv, redis, postgres or memory")
	flags.String("storage-path", "./WebScraperResults", "directory for the csv backend")
	flags.String("log-level", "info", "log level: debug, info, warn or error")
	flags.String("export", "", "export a report of this run: csv or json")
	flags.String("export-file", "deadlinks-report", "report file name without extension")
}

// LoadConfig loads configuration with precedence flags > env > file > defaults.
func LoadConfig(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	SetDefaults(v)

	if configPath != "" {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("specified config file does not exist: %s", configPath)
		}
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".deadlink"))
		}
	}

	v.SetEnvPrefix("DEADLINK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	configFileUsed := ""
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		configFileUsed = v.ConfigFileUsed()
	}

	if flags != nil {
		for name, key := range flagKeys {
			flag := flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.configFileUsed = configFileUsed

	if err := ValidateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

// SetDefaults sets all default configuration values
func SetDefaults(v *viper.Viper) {
	v.SetDefault("crawler.url", "")
	v.SetDefault("crawler.max_pages", 10000)
	v.SetDefault("crawler.max_depth", 20)
	v.SetDefault("crawler.rescan_window", "336h")
	v.SetDefault("crawler.concurrency", 10)
	v.SetDefault("crawler.page_timeout", "10s")
	v.SetDefault("crawler.link_timeout", "5s")
	v.SetDefault("crawler.probe_timeout", "10s")
	v.SetDefault("crawler.user_agent", "dead-link-hunter/1.0")
	v.SetDefault("crawler.max_body_bytes", 6*1024*1024)
	v.SetDefault("crawler.requests_per_second", 0.0)
	v.SetDefault("crawler.burst", 1)

	v.SetDefault("storage.type", StorageCSV)
	v.SetDefault("storage.path", "./WebScraperResults")
	v.SetDefault("storage.redis_addr", "localhost:6379")
	v.SetDefault("storage.redis_password", "")
	v.SetDefault("storage.redis_db", 0)
	v.SetDefault("storage.key_prefix", "deadlinks")
	v.SetDefault("storage.dsn", "")
	v.SetDefault("storage.auto_migrate", true)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file", "")

	v.SetDefault("export.format", "")
	v.SetDefault("export.file", "deadlinks-report")
}

// ValidateConfig checks limits and enumerated values.
func ValidateConfig(c *Config) error {
	cr := c.Crawler
	if cr.MaxPages <= 0 {
		return fmt.Errorf("crawler.max_pages must be positive, got %d", cr.MaxPages)
	}
	if cr.MaxDepth < 0 {
		return fmt.Errorf("crawler.max_depth must not be negative, got %d", cr.MaxDepth)
	}
	if cr.Concurrency <= 0 {
		return fmt.Errorf("crawler.concurrency must be positive, got %d", cr.Concurrency)
	}
	if cr.RescanWindow < 0 {
		return fmt.Errorf("crawler.rescan_window must not be negative, got %s", cr.RescanWindow)
	}
	if cr.PageTimeout <= 0 || cr.LinkTimeout <= 0 || cr.ProbeTimeout <= 0 {
		return fmt.Errorf("crawler timeouts must be positive")
	}
	if cr.MaxBodyBytes <= 0 {
		return fmt.Errorf("crawler.max_body_bytes must be positive, got %d", cr.MaxBodyBytes)
	}
	if cr.RequestsPerSecond < 0 {
		return fmt.Errorf("crawler.requests_per_second must not be negative, got %v", cr.RequestsPerSecond)
	}
	if cr.RequestsPerSecond > 0 && cr.Burst <= 0 {
		return fmt.Errorf("crawler.burst must be positive when rate limiting is enabled")
	}

	switch c.Storage.Type {
	case StorageCSV:
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for the csv backend")
		}
	case StorageRedis:
		if c.Storage.RedisAddr == "" {
			return fmt.Errorf("storage.redis_addr is required for the redis backend")
		}
	case StoragePostgres:
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required for the postgres backend")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("unsupported storage type %q", c.Storage.Type)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unsupported log level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("unsupported log format %q", c.Logging.Format)
	}

	switch c.Export.Format {
	case "", "csv", "json":
	default:
		return fmt.Errorf("unsupported export format %q", c.Export.Format)
	}
	return nil
}

// GetLogger creates a configured logger based on logging settings
func (c *Config) GetLogger() (*zap.Logger, error) {
	var zapConfig zap.Config

	if c.Logging.Format == "json" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}

	level := zap.InfoLevel
	switch c.Logging.Level {
	case "debug":
		level = zap.DebugLevel
	case "warn":
		level = zap.WarnLevel
	case "error":
		level = zap.ErrorLevel
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)

	if c.Logging.File != "" {
		zapConfig.OutputPaths = append(zapConfig.OutputPaths, c.Logging.File)
	}

	return zapConfig.Build()
}

// String returns the configuration with secrets redacted.
func (c *Config) String() string {
	configCopy := *c
	configCopy.Storage.RedisPassword = Redact(configCopy.Storage.RedisPassword)
	configCopy.Storage.DSN = RedactConnectionString(configCopy.Storage.DSN)
	return fmt.Sprintf("%+v", configCopy)
}

// Redact replaces sensitive values with asterisks
func Redact(value string) string {
	if value == "" {
		return ""
	}
	if len(value) <= 4 {
		return "****"
	}
	return value[:2] + strings.Repeat("*", len(value)-4) + value[len(value)-2:]
}

// RedactConnectionString hides the password of a postgres DSN, in URL or
// key=value form.
func RedactConnectionString(connStr string) string {
	if u, err := url.Parse(connStr); err == nil && u.Scheme != "" && u.User != nil {
		return u.Redacted()
	}
	if !strings.Contains(connStr, "password=") {
		return connStr
	}
	parts := strings.Split(connStr, " ")
	for i, part := range parts {
		if strings.HasPrefix(part, "password=") {
			parts[i] = "password=****"
		}
	}
	return strings.Join(parts, " ")
}

// ConfigFileUsed returns the path of the configuration file that was read, if any.
func (c *Config) ConfigFileUsed() string {
	return c.configFileUsed
}
