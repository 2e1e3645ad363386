package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// MaxRetriesLimit caps api.max_retries.
const MaxRetriesLimit = 10

type Config struct {
	API      APIConfig      `yaml:"api"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type APIConfig struct {
	Host               string        `yaml:"host"`
	Port               int           `yaml:"port"`
	Scheme             string        `yaml:"scheme"`
	BasePath           string        `yaml:"base_path"`
	ProjectID          int64         `yaml:"project_id"`
	FeatureStoreID     int64         `yaml:"feature_store_id"`
	APIKey             string        `yaml:"api_key"`
	Timeout            time.Duration `yaml:"timeout"`
	RateLimitPerSec    float64       `yaml:"rate_limit_per_sec"`
	RateLimitBurst     int           `yaml:"rate_limit_burst"`
	MaxRetries         int           `yaml:"max_retries"`
	InsecureSkipVerify bool          `yaml:"insecure_skip_verify"`
	UserAgent          string        `yaml:"user_agent"`
}

type DatabaseConfig struct {
	Path            string        `yaml:"path"`
	MaxReadConns    int           `yaml:"max_read_conns"`
	RetentionDays   int           `yaml:"retention_days"`
	RetentionPeriod time.Duration `yaml:"retention_period"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

func Defaults() *Config {
	return &Config{
		API: APIConfig{
			Port:            443,
			Scheme:          "https",
			BasePath:        "/hopsworks-api/api",
			Timeout:         30 * time.Second,
			RateLimitPerSec: 10,
			RateLimitBurst:  5,
			UserAgent:       "fsctl",
		},
		Database: DatabaseConfig{
			Path:            "fsctl.db",
			MaxReadConns:    4,
			RetentionDays:   90,
			RetentionPeriod: 1 * time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.API.BasePath = NormalizeBasePath(cfg.API.BasePath)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if err := c.validateAPI(); err != nil {
		return err
	}
	if err := c.validateDatabase(); err != nil {
		return err
	}
	return validateLogging(c.Logging)
}

func (c *Config) validateAPI() error {
	if strings.TrimSpace(c.API.Host) == "" {
		return fmt.Errorf("api.host is required")
	}
	if strings.ContainsAny(c.API.Host, "/?#") {
		return fmt.Errorf("api.host must be a bare host name")
	}
	if c.API.Port <= 0 || c.API.Port > 65535 {
		return fmt.Errorf("api.port must be between 1 and 65535")
	}
	if c.API.Scheme != "http" && c.API.Scheme != "https" {
		return fmt.Errorf("api.scheme must be one of: http, https")
	}
	if c.API.ProjectID <= 0 {
		return fmt.Errorf("api.project_id must be positive")
	}
	if c.API.FeatureStoreID <= 0 {
		return fmt.Errorf("api.feature_store_id must be positive")
	}
	if c.API.APIKey == "" {
		return fmt.Errorf("api.api_key is required")
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive")
	}
	if c.API.RateLimitPerSec <= 0 {
		return fmt.Errorf("api.rate_limit_per_sec must be positive")
	}
	if c.API.RateLimitBurst <= 0 {
		return fmt.Errorf("api.rate_limit_burst must be positive")
	}
	if c.API.MaxRetries < 0 || c.API.MaxRetries > MaxRetriesLimit {
		return fmt.Errorf("api.max_retries must be between 0 and %d", MaxRetriesLimit)
	}
	if strings.Contains(c.API.BasePath, "..") || strings.ContainsAny(c.API.BasePath, "?#\\") {
		return fmt.Errorf("api.base_path contains invalid characters")
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Database.MaxReadConns <= 0 {
		return fmt.Errorf("database.max_read_conns must be positive")
	}
	if c.Database.RetentionDays <= 0 {
		return fmt.Errorf("database.retention_days must be positive")
	}
	if c.Database.RetentionPeriod <= 0 {
		return fmt.Errorf("database.retention_period must be positive")
	}
	return nil
}

func validateLogging(cfg LoggingConfig) error {
	switch strings.ToLower(cfg.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	switch cfg.Format {
	case "", "text", "json":
		return nil
	default:
		return fmt.Errorf("logging.format must be one of: text, json")
	}
}

func NormalizeBasePath(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || s == "/" {
		return ""
	}
	if !strings.HasPrefix(s, "/") {
		s = "/" + s
	}
	return strings.TrimRight(s, "/")
}

// BaseURL returns the REST root, e.g. https://host:443/hopsworks-api/api.
func (c *APIConfig) BaseURL() string {
	u := url.URL{
		Scheme: c.Scheme,
		Host:   c.Host + ":" + strconv.Itoa(c.Port),
		Path:   c.BasePath,
	}
	return u.String()
}
