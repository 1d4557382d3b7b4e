package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	internal "github.com/ZanzyTHEbar/sigtax/sigtax"

	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	Database   DatabaseConfig   `mapstructure:"database"`
	Signatures SignaturesConfig `mapstructure:"signatures"`
	Metric     MetricConfig     `mapstructure:"metric"`
	Classify   ClassifyConfig   `mapstructure:"classify"`
	Log        LogConfig        `mapstructure:"log"`
	Progress   ProgressConfig   `mapstructure:"progress"`
}

// DatabaseConfig stores reference database connection details.
// Type is the database/sql driver name ("sqlite" or "libsql").
type DatabaseConfig struct {
	DSN  string `mapstructure:"dsn"`
	Type string `mapstructure:"type"`
}

// SignaturesConfig locates the reference signatures file.
type SignaturesConfig struct {
	Path string `mapstructure:"path"`
}

// MetricConfig tunes the distance matrix engine.
type MetricConfig struct {
	ChunkSize int `mapstructure:"chunkSize"`
	Workers   int `mapstructure:"workers"`
}

// ClassifyConfig stores classifier behaviour flags.
type ClassifyConfig struct {
	Strict bool `mapstructure:"strict"`
}

// LogConfig stores logger settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// ProgressConfig toggles the terminal progress bar.
type ProgressConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

var AppConfig Config

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join("etc", internal.DefaultAppName))
		v.AddConfigPath(internal.DefaultConfigPath)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetDefault("database.dsn", internal.DefaultDatabaseDSN)
	v.SetDefault("database.type", internal.DefaultDatabaseType)
	v.SetDefault("signatures.path", internal.DefaultSignaturesPath)
	v.SetDefault("metric.chunkSize", internal.DefaultChunkSize)
	v.SetDefault("metric.workers", internal.DefaultWorkers)
	v.SetDefault("classify.strict", false)
	v.SetDefault("log.level", internal.DefaultLogLevel)
	v.SetDefault("log.pretty", false)
	v.SetDefault("progress.enabled", false)

	v.AutomaticEnv()                                   // Read in environment variables that match
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // metric.chunkSize becomes METRIC_CHUNKSIZE

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file in the search path; defaults and environment apply.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	AppConfig = cfg
	return &cfg, nil
}

// Validate rejects values the engine cannot run with.
func (c *Config) Validate() error {
	if c.Metric.ChunkSize < 0 {
		return fmt.Errorf("metric.chunkSize must not be negative: %d", c.Metric.ChunkSize)
	}
	if c.Metric.Workers < 0 {
		return fmt.Errorf("metric.workers must not be negative: %d", c.Metric.Workers)
	}
	switch c.Database.Type {
	case "sqlite", "libsql":
	default:
		return fmt.Errorf("unsupported database.type %q", c.Database.Type)
	}
	return nil
}
