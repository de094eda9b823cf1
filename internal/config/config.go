// Package config loads runtime configuration from config.yaml and
// PLANPROOF_-prefixed environment variables, and initializes the global
// logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Rules      RulesConfig      `yaml:"rules" mapstructure:"rules"`
	Resolver   ResolverConfig   `yaml:"resolver" mapstructure:"resolver"`
	Validation ValidationConfig `yaml:"validation" mapstructure:"validation"`
	Batch      BatchConfig      `yaml:"batch" mapstructure:"batch"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// RulesConfig locates the rule catalogue.
type RulesConfig struct {
	CataloguePath string `yaml:"catalogue_path" mapstructure:"catalogue_path"`
}

// ResolverConfig holds Anthropic API settings for field resolution.
type ResolverConfig struct {
	Key              string  `yaml:"key" mapstructure:"key"`
	Model            string  `yaml:"model" mapstructure:"model"`
	MaxTokens        int64   `yaml:"max_tokens" mapstructure:"max_tokens"`
	MaxCalls         int     `yaml:"max_calls" mapstructure:"max_calls"`
	RatePerSecond    float64 `yaml:"rate_per_second" mapstructure:"rate_per_second"`
	RateBurst        int     `yaml:"rate_burst" mapstructure:"rate_burst"`
	RetryMaxAttempts int     `yaml:"retry_max_attempts" mapstructure:"retry_max_attempts"`
	RetryBackoffMs   int     `yaml:"retry_backoff_ms" mapstructure:"retry_backoff_ms"`
	RetryMaxWaitMs   int     `yaml:"retry_max_wait_ms" mapstructure:"retry_max_wait_ms"`
}

// ValidationConfig tunes the validation and delta engines.
type ValidationConfig struct {
	SignificanceThreshold float64 `yaml:"significance_threshold" mapstructure:"significance_threshold"`
}

// BatchConfig bounds the per-submission worker pool.
type BatchConfig struct {
	MaxConcurrentDocuments int `yaml:"max_concurrent_documents" mapstructure:"max_concurrent_documents"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging output.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads config.yaml from the working directory, overlaying
// environment variables prefixed with PLANPROOF_.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("PLANPROOF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", "planproof.db")
	v.SetDefault("rules.catalogue_path", "rules.yaml")
	v.SetDefault("resolver.model", "claude-haiku-4-5-20251001")
	v.SetDefault("resolver.max_tokens", 1024)
	v.SetDefault("resolver.max_calls", 10)
	v.SetDefault("resolver.rate_per_second", 2)
	v.SetDefault("resolver.rate_burst", 4)
	v.SetDefault("resolver.retry_max_attempts", 3)
	v.SetDefault("resolver.retry_backoff_ms", 500)
	v.SetDefault("resolver.retry_max_wait_ms", 30000)
	v.SetDefault("validation.significance_threshold", 0.5)
	v.SetDefault("batch.max_concurrent_documents", 4)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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

// InitLogger builds the global zap logger from the log config.
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
