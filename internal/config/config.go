package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/nconklindev/stockboard/internal/errors"
	"github.com/nconklindev/stockboard/internal/inventory"
	"github.com/nconklindev/stockboard/internal/types"
)

// Config represents the complete application configuration
type Config struct {
	Namespace   string
	Database    DatabaseConfig
	ChartDir    string
	BucketsFile string
	HTTPAddr    string
	Logging     LoggingConfig

	Buckets []types.BucketDef
}

// DatabaseConfig selects the persistence gateway backend
type DatabaseConfig struct {
	Driver string
	DSN    string
}

type LoggingConfig struct {
	Level string
	File  string
}

// bucketsFile is the on-disk shape of STOCKBOARD_BUCKETS_FILE.
type bucketsFile struct {
	Buckets []types.BucketDef `yaml:"buckets"`
}

// Load reads .env (if present) and the environment. Nothing is validated
// yet: callers apply their overrides and then call Finalize.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Namespace: getEnvOrDefault("STOCKBOARD_NAMESPACE", "wika"),
		Database: DatabaseConfig{
			Driver: getEnvOrDefault("STOCKBOARD_DB_DRIVER", "sqlite"),
			DSN:    getEnvOrDefault("STOCKBOARD_DB_DSN", "stockboard.db"),
		},
		ChartDir:    getEnvOrDefault("STOCKBOARD_CHART_DIR", "charts"),
		BucketsFile: os.Getenv("STOCKBOARD_BUCKETS_FILE"),
		HTTPAddr:    getEnvOrDefault("STOCKBOARD_HTTP_ADDR", ":8080"),
		Logging: LoggingConfig{
			Level: getEnvOrDefault("STOCKBOARD_LOG_LEVEL", "info"),
			File:  os.Getenv("STOCKBOARD_LOG_FILE"),
		},
	}

	return cfg, nil
}

// Finalize loads bucket definitions and validates the configuration.
func (c *Config) Finalize() error {
	buckets, err := LoadBuckets(c.BucketsFile)
	if err != nil {
		return err
	}
	c.Buckets = buckets
	return c.Validate()
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Namespace) == "" {
		return errors.ConfigInvalid("STOCKBOARD_NAMESPACE must not be empty")
	}
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return errors.ConfigInvalid("STOCKBOARD_DB_DRIVER must be sqlite or postgres, got " + c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.ConfigInvalid("STOCKBOARD_DB_DSN is required")
	}
	if err := inventory.ValidateBuckets(c.Buckets); err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, errors.Wrap(err, "invalid bucket definitions"))
	}
	return nil
}

// LoadBuckets returns the built-in tabs when path is empty, otherwise the
// definitions in the YAML file. Charts left empty in the file get the defaults.
func LoadBuckets(path string) ([]types.BucketDef, error) {
	if path == "" {
		return inventory.DefaultBuckets(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithCode(errors.CodeConfigInvalid, errors.Wrapf(err, "failed to read buckets file %s", path))
	}

	var file bucketsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.WithCode(errors.CodeConfigInvalid, errors.Wrapf(err, "failed to parse buckets file %s", path))
	}

	for i := range file.Buckets {
		if len(file.Buckets[i].Charts) == 0 {
			file.Buckets[i].Charts = inventory.DefaultCharts()
		}
		if file.Buckets[i].Title == "" {
			file.Buckets[i].Title = file.Buckets[i].Key
		}
	}
	return file.Buckets, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
