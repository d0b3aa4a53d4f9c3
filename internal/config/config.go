// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Prometheus PrometheusConfig `yaml:"prometheus"`
	Logging    LoggingConfig    `yaml:"logging"`
	Seed       SeedConfig       `yaml:"seed"`
}

type ServerConfig struct {
	Port         string        `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type PrometheusConfig struct {
	Enabled     bool   `yaml:"enabled"`
	MetricsPath string `yaml:"metrics_path"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SeedConfig controls the default operator account referenced by utilization
// logs that arrive without a logged_by email.
type SeedConfig struct {
	AdminEmail string `yaml:"admin_email"`
}

// Load reads the YAML config file, applies .env/environment overrides, fills
// defaults and validates. A missing config file is not an error; defaults and
// environment carry a bare deployment.
func Load(filename string) (*Config, error) {
	// .env is optional, environment always wins over file values
	_ = godotenv.Load()

	var config Config
	data, err := os.ReadFile(filename)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case os.IsNotExist(err):
		// run on defaults
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	applyEnv(&config)
	setDefaults(&config)

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("ASSETWATCH_PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("ASSETWATCH_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("ASSETWATCH_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("ASSETWATCH_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("ASSETWATCH_ADMIN_EMAIL"); v != "" {
		cfg.Seed.AdminEmail = v
	}
}

func setDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = ":8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}

	if cfg.Database.Path == "" {
		cfg.Database.Path = "./data/assetwatch.db"
	}

	if cfg.Prometheus.MetricsPath == "" {
		cfg.Prometheus.MetricsPath = "/metrics"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}

	if cfg.Seed.AdminEmail == "" {
		cfg.Seed.AdminEmail = "admin@telecom.demo"
	}
}

func validate(cfg *Config) error {
	if cfg.Server.Port[0] != ':' {
		return fmt.Errorf("server.port must start with ':' (got %q)", cfg.Server.Port)
	}
	if cfg.Database.Path == "" {
		return fmt.Errorf("database.path cannot be empty")
	}
	switch cfg.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json (got %q)", cfg.Logging.Format)
	}
	if cfg.Prometheus.Enabled && cfg.Prometheus.MetricsPath[0] != '/' {
		return fmt.Errorf("prometheus.metrics_path must start with '/'")
	}
	return nil
}
