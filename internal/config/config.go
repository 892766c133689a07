// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

const (
	defaultRefreshCron     = "*/5 * * * *"
	defaultQuotesPerMinute = 120
)

type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Filename string `yaml:"filename"`
}

type Config struct {
	App struct {
		Name        string `yaml:"name"`
		Environment string `yaml:"environment"`
		Port        int    `yaml:"port"`
		BaseURL     string `yaml:"base_url"`
	} `yaml:"app"`

	Database DatabaseConfig `yaml:"database"`

	Catalog struct {
		// Cron expression for reloading the in-memory rate catalog.
		RefreshCron string `yaml:"refresh_cron"`
		// Optional YAML rate card imported at startup.
		SeedFile string `yaml:"seed_file"`
	} `yaml:"catalog"`

	RateLimit struct {
		QuotesPerMinute int  `yaml:"quotes_per_minute"`
		TrustProxy      bool `yaml:"trust_proxy"`
	} `yaml:"rate_limit"`

	Features struct {
		EnableDebug bool `yaml:"enable_debug"`
	} `yaml:"features"`
}

// Load loads both .env and yaml configuration
func Load(configPath string) (*Config, error) {
	envPath := filepath.Join(filepath.Dir(configPath), ".env")
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	// Environment overrides
	if filename := os.Getenv("DATABASE_FILENAME"); filename != "" {
		cfg.Database.Filename = filename
	}
	if seed := os.Getenv("CATALOG_SEED_FILE"); seed != "" {
		cfg.Catalog.SeedFile = seed
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Parse decodes YAML configuration and fills defaults. It does not validate.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}
	if cfg.Catalog.RefreshCron == "" {
		cfg.Catalog.RefreshCron = defaultRefreshCron
	}
	if cfg.RateLimit.QuotesPerMinute == 0 {
		cfg.RateLimit.QuotesPerMinute = defaultQuotesPerMinute
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app name is required")
	}
	if c.App.Port == 0 {
		return fmt.Errorf("app port is required")
	}
	if c.Database.Driver == "" {
		return fmt.Errorf("database driver is required")
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Filename == "" {
			return fmt.Errorf("database filename is required for sqlite")
		}
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	if _, err := cron.ParseStandard(c.Catalog.RefreshCron); err != nil {
		return fmt.Errorf("invalid catalog refresh_cron %q: %w", c.Catalog.RefreshCron, err)
	}
	if c.RateLimit.QuotesPerMinute < 0 {
		return fmt.Errorf("rate_limit quotes_per_minute must not be negative")
	}

	return nil
}

// IsDevelopment reports whether the app runs in the development environment.
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}
