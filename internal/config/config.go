package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v2"
)

// Configuration represents the complete application configuration.
type Configuration struct {
	Data       DataConfig       `yaml:"data"`
	Storage    StorageConfig    `yaml:"storage"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
}

// DataConfig represents the DATA block consumed by the data source manager.
// Mode and Seed are optional; the manager applies their defaults when absent,
// which is why Seed is a pointer (an explicit 0 is a valid seed).
type DataConfig struct {
	Type      string `yaml:"type"`
	StartDate string `yaml:"start_date"`
	EndDate   string `yaml:"end_date"`
	Mode      string `yaml:"mode"`
	Seed      *int   `yaml:"seed"`
}

// StorageConfig represents storage backend settings.
type StorageConfig struct {
	URL string   `yaml:"url"`
	S3  S3Config `yaml:"s3"`
}

// S3Config represents object store client settings. When no region and no
// endpoint are configured the backend runs against a local staging directory.
type S3Config struct {
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	ForcePathStyle  bool   `yaml:"force_path_style"`
	StagingDir      string `yaml:"staging_dir"`
}

// MonitoringConfig represents metrics settings.
type MonitoringConfig struct {
	MetricsEnabled bool   `yaml:"metrics_enabled"`
	MetricsPort    int    `yaml:"metrics_port"`
	Namespace      string `yaml:"namespace"`
}

// NewDefault returns a configuration with sensible defaults.
func NewDefault() *Configuration {
	return &Configuration{
		Data: DataConfig{
			Type: "simulator",
			Mode: "rule",
		},
		Storage: StorageConfig{
			URL: "./data",
			S3: S3Config{
				StagingDir: ".mock_s3",
			},
		},
		Monitoring: MonitoringConfig{
			MetricsEnabled: true,
			MetricsPort:    8080,
			Namespace:      "impact_engine",
		},
	}
}

// LoadFromFile loads configuration from a YAML file on top of the defaults
// already present in c.
func (c *Configuration) LoadFromFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// LoadFromEnv loads configuration overrides from environment variables.
func (c *Configuration) LoadFromEnv() error {
	if val := os.Getenv("IMPACT_DATA_TYPE"); val != "" {
		c.Data.Type = val
	}
	if val := os.Getenv("IMPACT_DATA_START_DATE"); val != "" {
		c.Data.StartDate = val
	}
	if val := os.Getenv("IMPACT_DATA_END_DATE"); val != "" {
		c.Data.EndDate = val
	}
	if val := os.Getenv("IMPACT_DATA_MODE"); val != "" {
		c.Data.Mode = val
	}
	if val := os.Getenv("IMPACT_DATA_SEED"); val != "" {
		if seed, err := strconv.Atoi(val); err == nil {
			c.Data.Seed = &seed
		}
	}

	if val := os.Getenv("IMPACT_STORAGE_URL"); val != "" {
		c.Storage.URL = val
	}
	if val := os.Getenv("IMPACT_S3_REGION"); val != "" {
		c.Storage.S3.Region = val
	}
	if val := os.Getenv("IMPACT_S3_ENDPOINT"); val != "" {
		c.Storage.S3.Endpoint = val
	}

	if val := os.Getenv("IMPACT_METRICS_ENABLED"); val != "" {
		c.Monitoring.MetricsEnabled = strings.ToLower(val) == "true"
	}
	if val := os.Getenv("IMPACT_METRICS_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			c.Monitoring.MetricsPort = port
		}
	}

	return nil
}

// Load reads the file at path over the defaults and applies environment
// overrides.
func Load(path string) (*Configuration, error) {
	cfg := NewDefault()
	if err := cfg.LoadFromFile(path); err != nil {
		return nil, err
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate validates the configuration. Semantic validation of the DATA block
// (required fields, date ordering) is owned by the data source manager, which
// is where those rules are enforced at construction time.
func (c *Configuration) Validate() error {
	if c.Storage.URL == "" {
		return fmt.Errorf("storage url cannot be empty")
	}

	if c.Monitoring.MetricsEnabled && c.Monitoring.MetricsPort <= 0 {
		return fmt.Errorf("metrics_port must be greater than 0")
	}

	return nil
}
