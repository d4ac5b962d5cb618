// Package config loads application configuration from file, environment
// and defaults, and builds the global logger.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Search SearchConfig `yaml:"search" mapstructure:"search"`
	Enrich EnrichConfig `yaml:"enrich" mapstructure:"enrich"`
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// SearchConfig configures the search backends.
type SearchConfig struct {
	// Backends lists enabled backends in preference order.
	Backends []string `yaml:"backends" mapstructure:"backends"`
	// Headless toggles headless mode for the browser backend.
	Headless bool `yaml:"headless" mapstructure:"headless"`
	// MaxPages bounds pagination per query.
	MaxPages int `yaml:"max_pages" mapstructure:"max_pages"`
}

// EnrichConfig configures the enrichment pool.
type EnrichConfig struct {
	Workers            int `yaml:"workers" mapstructure:"workers"`
	RequestTimeoutSecs int `yaml:"request_timeout_secs" mapstructure:"request_timeout_secs"`
}

// RequestTimeout returns the per-request timeout as a duration.
func (c EnrichConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSecs) * time.Second
}

// StoreConfig configures the job store used by the serve command.
type StoreConfig struct {
	// Driver is "memory" or "sqlite".
	Driver string `yaml:"driver" mapstructure:"driver"`
	// Path locates the sqlite database file.
	Path string `yaml:"path" mapstructure:"path"`
	// MaxFinished bounds how many terminal jobs are kept.
	MaxFinished int `yaml:"max_finished" mapstructure:"max_finished"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging output.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from ./config.yaml (optional), LEADENGINE_*
// environment variables and defaults.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LEADENGINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("search.backends", []string{"bing", "google"})
	v.SetDefault("search.headless", true)
	v.SetDefault("search.max_pages", 3)
	v.SetDefault("enrich.workers", 10)
	v.SetDefault("enrich.request_timeout_secs", 5)
	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.path", "leads.db")
	v.SetDefault("store.max_finished", 50)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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

// InitLogger builds the global zap logger from cfg.
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
