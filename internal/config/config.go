package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override. Keys follow the field path,
// e.g. BILLING_LOG_LEVEL or BILLING_INPUTS_LEDGER_CSV.
const EnvPrefix = "BILLING"

type Config struct {
	Log       LogConfig       `yaml:"log"`
	Inputs    InputsConfig    `yaml:"inputs"`
	Directory DirectoryConfig `yaml:"directory"`
}

type LogConfig struct {
	Level    string `yaml:"level" validate:"omitempty,oneof=DEBUG INFO WARN ERROR debug info warn error"`
	Format   string `yaml:"format" validate:"omitempty,oneof=json text"`
	Detailed bool   `yaml:"detailed"`
	Tracing  bool   `yaml:"tracing"`
}

// InputsConfig names the default data files used when CLI flags are omitted.
type InputsConfig struct {
	BillStore string `yaml:"bill_store" split_words:"true"`
	LedgerCSV string `yaml:"ledger_csv" split_words:"true"`
}

// DirectoryConfig points at the party/broker display-name directory.
type DirectoryConfig struct {
	Path string `yaml:"path"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Log: LogConfig{
			Level:  "INFO",
			Format: "json",
		},
	}
}

// Load reads the YAML file at path (a missing file is not an error), applies
// BILLING_* environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	return validator.New().Struct(c)
}
