package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete pipeline configuration
type Config struct {
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Database  DatabaseConfig  `yaml:"database" envconfig:"DATABASE"`
	Pipeline  PipelineConfig  `yaml:"pipeline" envconfig:"PIPELINE"`
	Companies CompaniesConfig `yaml:"companies" envconfig:"COMPANIES"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Format   string `yaml:"format" envconfig:"FORMAT"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// PathsConfig contains file system paths configuration.
// Relative paths are resolved against DataDir by NewPaths.
type PathsConfig struct {
	DataDir       string `yaml:"data_dir" envconfig:"DATA_DIR"`
	RawDir        string `yaml:"raw_dir" envconfig:"RAW_DIR"`
	NormalizedDir string `yaml:"normalized_dir" envconfig:"NORMALIZED_DIR"`
	AggregatedDir string `yaml:"aggregated_dir" envconfig:"AGGREGATED_DIR"`
	StateDir      string `yaml:"state_dir" envconfig:"STATE_DIR"`
	LogsDir       string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
}

// DatabaseConfig contains the watermark store connection settings
type DatabaseConfig struct {
	Host           string        `yaml:"host" envconfig:"HOST" validate:"required"`
	Port           int           `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	User           string        `yaml:"user" envconfig:"USER" validate:"required"`
	Password       string        `yaml:"password" envconfig:"PASSWORD"`
	Name           string        `yaml:"name" envconfig:"NAME" validate:"required"`
	SSLMode        string        `yaml:"ssl_mode" envconfig:"SSL_MODE"`
	WatermarkTable string        `yaml:"watermark_table" envconfig:"WATERMARK_TABLE" validate:"required"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" envconfig:"CONNECT_TIMEOUT"`
}

// PipelineConfig contains snapshot naming and window settings
type PipelineConfig struct {
	RawPrefix        string `yaml:"raw_prefix" envconfig:"RAW_PREFIX"`
	NormalizedPrefix string `yaml:"normalized_prefix" envconfig:"NORMALIZED_PREFIX"`
	AggregatedPrefix string `yaml:"aggregated_prefix" envconfig:"AGGREGATED_PREFIX"`
	SnapshotExt      string `yaml:"snapshot_ext" envconfig:"SNAPSHOT_EXT"`
	SeedWindows      bool   `yaml:"seed_windows" envconfig:"SEED_WINDOWS"`
}

// CompaniesConfig maps company names to their warehouse dimension IDs
type CompaniesConfig struct {
	Mapping map[string]int64 `yaml:"mapping" envconfig:"MAPPING"`
}

// DefaultCompanyMapping returns the built-in company dimension table. It is
// used when no mapping is configured; configuration replaces it wholesale.
func DefaultCompanyMapping() map[string]int64 {
	return map[string]int64{
		"Apple Inc.":      1,
		"Microsoft Corp.": 2,
		"Alphabet Inc.":   3,
		"Amazon.com Inc.": 4,
		"Netflix Inc.":    5,
	}
}

// defaultConfig returns the built-in configuration. The company mapping is
// left nil here so a configured mapping replaces the default instead of
// merging with it.
func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "stdout",
			FilePath: "logs/etl.log",
		},
		Paths: PathsConfig{
			DataDir:       "data",
			RawDir:        "raw",
			NormalizedDir: "normalized",
			AggregatedDir: "aggregated",
			StateDir:      "state",
			LogsDir:       "logs",
		},
		Database: DatabaseConfig{
			Host:           "localhost",
			Port:           5432,
			User:           "postgres",
			Name:           "warehouse",
			SSLMode:        "prefer",
			WatermarkTable: "stg.stock_data",
			ConnectTimeout: 10 * time.Second,
		},
		Pipeline: PipelineConfig{
			RawPrefix:        "extracted_data",
			NormalizedPrefix: "transformed_data",
			AggregatedPrefix: "aggregated_data",
			SnapshotExt:      ".csv",
			SeedWindows:      true,
		},
	}
}

// Load loads configuration with ascending precedence: built-in defaults, then
// the optional YAML file, then environment variables (prefix ETL).
func Load(configFile string) (*Config, error) {
	cfg := defaultConfig()

	if configFile != "" {
		if _, err := os.Stat(configFile); err == nil {
			if err := loadFromFile(configFile, &cfg); err != nil {
				return nil, fmt.Errorf("failed to load config from file: %w", err)
			}
		}
	}

	if err := envconfig.Process("ETL", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if len(cfg.Companies.Mapping) == 0 {
		cfg.Companies.Mapping = DefaultCompanyMapping()
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile overlays YAML file values onto cfg. Keys absent from the file
// keep their current values.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// validate validates the configuration
func (c *Config) validate() error {
	if err := validator.New().Struct(c.Database); err != nil {
		return fmt.Errorf("database config: %w", err)
	}

	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("invalid logging format: %q", c.Logging.Format)
	}

	switch c.Logging.Output {
	case "stdout", "file", "both":
	default:
		return fmt.Errorf("invalid logging output: %q", c.Logging.Output)
	}

	if c.Logging.Output != "stdout" && c.Logging.FilePath == "" {
		return fmt.Errorf("logging file path required for output %q", c.Logging.Output)
	}

	if c.Pipeline.RawPrefix == "" || c.Pipeline.NormalizedPrefix == "" || c.Pipeline.AggregatedPrefix == "" {
		return fmt.Errorf("snapshot prefixes must not be empty")
	}

	for name, id := range c.Companies.Mapping {
		if id <= 0 {
			return fmt.Errorf("company %q has invalid id %d", name, id)
		}
	}

	return nil
}
