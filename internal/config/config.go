package config

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Paths   PathsConfig   `yaml:"paths" mapstructure:"paths"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Batch   BatchConfig   `yaml:"batch" mapstructure:"batch"`
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
	User    string        `yaml:"user" mapstructure:"user"`
}

// PathsConfig locates the persisted JSON documents.
type PathsConfig struct {
	ThresholdsFile string `yaml:"thresholds_file" mapstructure:"thresholds_file"`
	HistoryFile    string `yaml:"history_file" mapstructure:"history_file"`
	DictionaryFile string `yaml:"dictionary_file" mapstructure:"dictionary_file"`
}

// StoreConfig configures the override and run-log database.
type StoreConfig struct {
	DatabasePath string `yaml:"database_path" mapstructure:"database_path"`
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	MaxWorkers int `yaml:"max_workers" mapstructure:"max_workers"`
	Limit      int `yaml:"limit" mapstructure:"limit"`
}

// MetricsConfig configures the optional textfile export.
type MetricsConfig struct {
	Textfile string `yaml:"textfile" mapstructure:"textfile"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("RELIST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("paths.thresholds_file", "data/thresholds.json")
	v.SetDefault("paths.history_file", "data/threshold_history.json")
	v.SetDefault("paths.dictionary_file", "data/safety_dictionary.json")
	v.SetDefault("store.database_path", "data/relist.db")
	v.SetDefault("batch.max_workers", 4)
	v.SetDefault("batch.limit", 0)
	v.SetDefault("metrics.textfile", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("user", defaultUser())

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

func defaultUser() string {
	for _, k := range []string{"USER", "USERNAME"} {
		if u := os.Getenv(k); u != "" {
			return u
		}
	}
	return "cli"
}

// Validate checks the fields required by a command group: "thresholds",
// "safety", "store" or "classify" (which needs all three).
func (c *Config) Validate(mode string) error {
	var missing []string
	need := func(ok bool, name string) {
		if !ok {
			missing = append(missing, name)
		}
	}

	switch mode {
	case "thresholds":
		need(c.Paths.ThresholdsFile != "", "paths.thresholds_file")
		need(c.Paths.HistoryFile != "", "paths.history_file")
	case "safety":
		need(c.Paths.DictionaryFile != "", "paths.dictionary_file")
	case "store":
		need(c.Store.DatabasePath != "", "store.database_path")
	case "classify":
		need(c.Paths.ThresholdsFile != "", "paths.thresholds_file")
		need(c.Paths.HistoryFile != "", "paths.history_file")
		need(c.Paths.DictionaryFile != "", "paths.dictionary_file")
		need(c.Store.DatabasePath != "", "store.database_path")
		if c.Batch.MaxWorkers < 1 || c.Batch.MaxWorkers > 256 {
			return eris.Errorf("config: batch.max_workers must be between 1 and 256 (got %d)", c.Batch.MaxWorkers)
		}
		if c.Batch.Limit < 0 {
			return eris.Errorf("config: batch.limit must be >= 0 (got %d)", c.Batch.Limit)
		}
	default:
		return eris.Errorf("config: unknown validation mode %q", mode)
	}

	if len(missing) > 0 {
		return eris.Errorf("config: missing required fields for %s: %s", mode, strings.Join(missing, ", "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
