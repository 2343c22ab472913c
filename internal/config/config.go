package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the reporter.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Shopify  ShopifyConfig  `yaml:"shopify"`
	Report   ReportConfig   `yaml:"report"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Storage  StorageConfig  `yaml:"storage"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
}

// ServerConfig holds HTTP server settings for cmd/server.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// GetHost returns the bind host, defaulting to localhost.
func (c ServerConfig) GetHost() string {
	if c.Host == "" {
		return "127.0.0.1"
	}
	return c.Host
}

// ShopifyConfig holds Shopify Admin API settings.
type ShopifyConfig struct {
	StoreDomain    string `yaml:"store_domain"` // your-store.myshopify.com
	AccessToken    string `yaml:"access_token"`
	APIVersion     string `yaml:"api_version"`
	DaysBack       int    `yaml:"days_back"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxRetries     int    `yaml:"max_retries"`
}

// Timeout returns the HTTP client timeout for Shopify requests.
func (c ShopifyConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// NullCustomerPolicy controls how orders without a customer id are
// counted in repeat-rate accounting.
type NullCustomerPolicy string

const (
	// NullCustomerNew counts customerless orders as non-repeat orders in
	// the repeat-rate denominator.
	NullCustomerNew NullCustomerPolicy = "new"
	// NullCustomerExclude drops customerless orders from the repeat-rate
	// denominator entirely.
	NullCustomerExclude NullCustomerPolicy = "exclude"
)

// ReportConfig holds reporting semantics: timezone, currency precision
// and repeat-rate accounting.
type ReportConfig struct {
	Timezone           string             `yaml:"timezone"` // IANA name, e.g. "America/New_York"
	MinorDigits        int                `yaml:"minor_digits"`
	NullCustomerPolicy NullCustomerPolicy `yaml:"null_customer_policy"`
	TopProducts        int                `yaml:"top_products"`
}

// PipelineConfig holds normalization settings.
type PipelineConfig struct {
	Workers int `yaml:"workers"` // parallel per-order normalization; <=1 means serial
}

// StorageConfig holds artifact output settings.
type StorageConfig struct {
	OutputDir  string `yaml:"output_dir"`
	S3Bucket   string `yaml:"s3_bucket"` // empty disables S3 upload
	S3Region   string `yaml:"s3_region"`
	S3Prefix   string `yaml:"s3_prefix"`
	AWSProfile string `yaml:"aws_profile"`
}

// DatabaseConfig holds the optional Postgres row sink.
type DatabaseConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
}

// RedisConfig holds the optional pull-checkpoint store.
type RedisConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	DB      int    `yaml:"db"`
}

// Load reads configuration from a YAML file and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// A .env file (if present) is loaded first so secrets can live there
// locally and in real env vars in deployment.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("SHOPIFY_STORE_DOMAIN"); v != "" {
		cfg.Shopify.StoreDomain = v
	}
	if v := os.Getenv("SHOPIFY_ACCESS_TOKEN"); v != "" {
		cfg.Shopify.AccessToken = v
	}
	if v := os.Getenv("SHOPIFY_API_VERSION"); v != "" {
		cfg.Shopify.APIVersion = v
	}
	if v := os.Getenv("OUTPUT_DIR"); v != "" {
		cfg.Storage.OutputDir = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
		cfg.Database.Enabled = true
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
		cfg.Redis.Enabled = true
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Shopify.APIVersion == "" {
		cfg.Shopify.APIVersion = "2025-07"
	}
	if cfg.Shopify.DaysBack == 0 {
		cfg.Shopify.DaysBack = 30
	}
	if cfg.Shopify.TimeoutSeconds == 0 {
		cfg.Shopify.TimeoutSeconds = 30
	}
	if cfg.Shopify.MaxRetries == 0 {
		cfg.Shopify.MaxRetries = 3
	}
	if cfg.Report.Timezone == "" {
		cfg.Report.Timezone = "UTC"
	}
	if cfg.Report.MinorDigits == 0 {
		cfg.Report.MinorDigits = 2
	}
	if cfg.Report.NullCustomerPolicy == "" {
		cfg.Report.NullCustomerPolicy = NullCustomerNew
	}
	if cfg.Report.TopProducts == 0 {
		cfg.Report.TopProducts = 10
	}
	if cfg.Pipeline.Workers == 0 {
		cfg.Pipeline.Workers = 1
	}
	if cfg.Storage.OutputDir == "" {
		cfg.Storage.OutputDir = "output"
	}
	if cfg.Storage.S3Region == "" {
		cfg.Storage.S3Region = "us-east-1"
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
}

func (c *Config) validate() error {
	switch c.Report.NullCustomerPolicy {
	case NullCustomerNew, NullCustomerExclude:
	default:
		return fmt.Errorf("config: unknown null_customer_policy %q", c.Report.NullCustomerPolicy)
	}
	if c.Report.MinorDigits < 0 || c.Report.MinorDigits > 6 {
		return fmt.Errorf("config: minor_digits %d out of range", c.Report.MinorDigits)
	}
	if c.Database.Enabled && c.Database.URL == "" {
		return fmt.Errorf("config: database enabled but no url set")
	}
	return nil
}
