package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Weighting schemes for aggregating per-level OFI into one scalar.
const (
	WeightingEqual      = "equal"
	WeightingLevelDecay = "level-decay"
	WeightingPCA        = "pca"
)

// MaxLevels is the deepest book level present in the input encoding.
const MaxLevels = 15

type Config struct {
	Ofiflow  OfiflowConfig  `yaml:"ofiflow"`
	Data     DataConfig     `yaml:"data"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Output   OutputConfig   `yaml:"output"`
	Storage  StorageConfig  `yaml:"storage"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type OfiflowConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

type DataConfig struct {
	CSVPath         string `yaml:"csv_path"`
	TimestampColumn string `yaml:"timestamp_column"`
	MidpointColumn  string `yaml:"midpoint_column"`
}

type AnalysisConfig struct {
	Levels         int    `yaml:"levels"`
	Horizon        int    `yaml:"horizon"`
	Weighting      string `yaml:"weighting"`
	NotionalToSize bool   `yaml:"notional_to_size"`
}

type OutputConfig struct {
	ResultsDir string        `yaml:"results_dir"`
	FiguresDir string        `yaml:"figures_dir"`
	Formats    FormatsConfig `yaml:"formats"`
}

type FormatsConfig struct {
	CSV     bool          `yaml:"csv"`
	Parquet ParquetConfig `yaml:"parquet"`
}

type ParquetConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Compression string `yaml:"compression"`
}

type StorageConfig struct {
	S3 S3Config `yaml:"s3"`
}

type S3Config struct {
	Enabled         bool   `yaml:"enabled"`
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Prefix          string `yaml:"prefix"`
	Endpoint        string `yaml:"endpoint"`
	PathStyle       bool   `yaml:"path_style"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
	MaxAge int    `yaml:"max_age"`
}

func LoadConfig(path string) (*Config, error) {
	// Read configuration file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Override S3 settings from environment variables if available
	if config.Storage.S3.Enabled {
		if v := os.Getenv("AWS_ACCESS_KEY_ID"); v != "" {
			config.Storage.S3.AccessKeyID = strings.TrimSpace(v)
		}
		if v := os.Getenv("AWS_SECRET_ACCESS_KEY"); v != "" {
			config.Storage.S3.SecretAccessKey = strings.TrimSpace(v)
		}
		if v := os.Getenv("AWS_REGION"); v != "" {
			config.Storage.S3.Region = strings.TrimSpace(v)
		}
		if v := os.Getenv("S3_BUCKET"); v != "" {
			config.Storage.S3.Bucket = strings.TrimSpace(v)
		}
	}

	config.Storage.S3.Bucket = strings.TrimSpace(config.Storage.S3.Bucket)

	if err := Validate(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Default returns a configuration carrying the documented defaults:
// five book levels, one-step horizon, equal weighting, CSV results.
func Default() *Config {
	return &Config{
		Data: DataConfig{
			TimestampColumn: "timestamp",
			MidpointColumn:  "midpoint",
		},
		Analysis: AnalysisConfig{
			Levels:    5,
			Horizon:   1,
			Weighting: WeightingEqual,
		},
		Output: OutputConfig{
			ResultsDir: "results",
			FiguresDir: "results/figures",
			Formats: FormatsConfig{
				CSV: true,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

func Validate(cfg *Config) error {
	if cfg.Ofiflow.Name == "" {
		return fmt.Errorf("ofiflow.name is required")
	}

	if cfg.Ofiflow.Version == "" {
		return fmt.Errorf("ofiflow.version is required")
	}

	if cfg.Data.CSVPath == "" {
		return fmt.Errorf("data.csv_path is required")
	}

	if cfg.Data.TimestampColumn == "" {
		return fmt.Errorf("data.timestamp_column is required")
	}

	if cfg.Data.MidpointColumn == "" {
		return fmt.Errorf("data.midpoint_column is required")
	}

	if cfg.Analysis.Levels <= 0 || cfg.Analysis.Levels > MaxLevels {
		return fmt.Errorf("analysis.levels must be between 1 and %d", MaxLevels)
	}

	if cfg.Analysis.Horizon <= 0 {
		return fmt.Errorf("analysis.horizon must be greater than 0")
	}

	switch cfg.Analysis.Weighting {
	case WeightingEqual, WeightingLevelDecay, WeightingPCA:
	default:
		return fmt.Errorf("analysis.weighting must be one of '%s', '%s', '%s'",
			WeightingEqual, WeightingLevelDecay, WeightingPCA)
	}

	if !cfg.Output.Formats.CSV && !cfg.Output.Formats.Parquet.Enabled {
		return fmt.Errorf("at least one output format must be enabled")
	}

	if cfg.Output.Formats.Parquet.Enabled {
		switch cfg.Output.Formats.Parquet.Compression {
		case "", "snappy", "gzip", "uncompressed":
		default:
			return fmt.Errorf("output.formats.parquet.compression must be 'snappy', 'gzip' or 'uncompressed'")
		}
	}

	if cfg.Output.ResultsDir == "" {
		return fmt.Errorf("output.results_dir is required")
	}

	if cfg.Output.FiguresDir == "" {
		return fmt.Errorf("output.figures_dir is required")
	}

	if cfg.Storage.S3.Enabled && cfg.Storage.S3.Bucket == "" {
		return fmt.Errorf("storage.s3.bucket is required when s3 storage is enabled")
	}

	return nil
}
