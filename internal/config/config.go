package config

import (
	"fmt"
	"strings"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Config holds the entire application configuration. It is populated by viper
// from the config file, environment variables (EVENTMODEL_*), and CLI flags.
type Config struct {
	Logger   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Oracle   OracleConfig   `mapstructure:"oracle" yaml:"oracle"`
	Pipeline PipelineConfig `mapstructure:"pipeline" yaml:"pipeline"`
}

// LoggerConfig controls the zap logger and file rotation.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"` // "console" or "json"
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"` // Megabytes before rotation.
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"` // Days.
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig maps log levels to terminal colors for the console encoder.
type ColorConfig struct {
	Debug string `mapstructure:"debug" yaml:"debug"`
	Info  string `mapstructure:"info" yaml:"info"`
	Warn  string `mapstructure:"warn" yaml:"warn"`
	Error string `mapstructure:"error" yaml:"error"`
	Fatal string `mapstructure:"fatal" yaml:"fatal"`
}

// DatabaseConfig holds the Postgres connection settings. The database is
// optional: the pipeline runs without one when tasks come from a file.
type DatabaseConfig struct {
	URL string `mapstructure:"url" yaml:"url"`
}

// OracleConfig configures the external text-generation service.
type OracleConfig struct {
	// Endpoint is an OpenAI-compatible chat completions URL.
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`
	APIKey   string `mapstructure:"api_key" yaml:"api_key"`
	// FastModel serves enrichment passes, PowerfulModel extraction and repair.
	FastModel     string `mapstructure:"fast_model" yaml:"fast_model"`
	PowerfulModel string `mapstructure:"powerful_model" yaml:"powerful_model"`

	Temperature float64       `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens" yaml:"max_tokens"`
	APITimeout  time.Duration `mapstructure:"api_timeout" yaml:"api_timeout"`
	// MaxElapsedRetry bounds the total retry window of a single call.
	MaxElapsedRetry time.Duration `mapstructure:"max_elapsed_retry" yaml:"max_elapsed_retry"`
	// RequestsPerMinute rate-limits outbound oracle calls. 0 disables limiting.
	RequestsPerMinute int `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
}

// PipelineConfig tunes the extraction pipeline.
type PipelineConfig struct {
	// BatchSize is the number of tasks per extraction oracle call.
	BatchSize int `mapstructure:"batch_size" yaml:"batch_size"`
	// MaxValidationAttempts bounds the repair loop: N attempts allow at most
	// N-1 repair oracle calls.
	MaxValidationAttempts int `mapstructure:"max_validation_attempts" yaml:"max_validation_attempts"`
	// ChapterBatchThreshold: above this many commands+read-models, chapter
	// generation is issued per swimlane instead of whole-model.
	ChapterBatchThreshold int `mapstructure:"chapter_batch_threshold" yaml:"chapter_batch_threshold"`
	// ParallelBatches enables concurrent extraction batches. Batch results are
	// still merged in input order, so output stays deterministic.
	ParallelBatches  bool `mapstructure:"parallel_batches" yaml:"parallel_batches"`
	BatchConcurrency int  `mapstructure:"batch_concurrency" yaml:"batch_concurrency"`
}

// SetDefaults initializes default values on the given viper instance.
func SetDefaults(v *viper.Viper) {
	// Logger
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.service_name", "eventmodel-cli")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.fatal", "magenta")

	// Oracle
	v.SetDefault("oracle.endpoint", "https://openrouter.ai/api/v1/chat/completions")
	v.SetDefault("oracle.fast_model", "google/gemini-2.5-flash")
	v.SetDefault("oracle.powerful_model", "google/gemini-2.5-pro")
	v.SetDefault("oracle.temperature", 0.2)
	v.SetDefault("oracle.max_tokens", 16384)
	v.SetDefault("oracle.api_timeout", "120s")
	v.SetDefault("oracle.max_elapsed_retry", "4m")
	v.SetDefault("oracle.requests_per_minute", 0)

	// Pipeline
	v.SetDefault("pipeline.batch_size", 20)
	v.SetDefault("pipeline.max_validation_attempts", 3)
	v.SetDefault("pipeline.chapter_batch_threshold", 30)
	v.SetDefault("pipeline.parallel_batches", false)
	v.SetDefault("pipeline.batch_concurrency", 4)
}

// Load unmarshals the viper state into a validated Config.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Logger.LogFile != "" {
		expanded, err := homedir.Expand(cfg.Logger.LogFile)
		if err != nil {
			return nil, fmt.Errorf("failed to expand log file path: %w", err)
		}
		cfg.Logger.LogFile = expanded
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks invariants that viper cannot express.
func (c *Config) Validate() error {
	if c.Pipeline.BatchSize <= 0 {
		return fmt.Errorf("pipeline.batch_size must be positive, got %d", c.Pipeline.BatchSize)
	}
	if c.Pipeline.MaxValidationAttempts <= 0 {
		return fmt.Errorf("pipeline.max_validation_attempts must be positive, got %d", c.Pipeline.MaxValidationAttempts)
	}
	if c.Pipeline.ChapterBatchThreshold <= 0 {
		return fmt.Errorf("pipeline.chapter_batch_threshold must be positive, got %d", c.Pipeline.ChapterBatchThreshold)
	}
	if c.Pipeline.ParallelBatches && c.Pipeline.BatchConcurrency <= 0 {
		return fmt.Errorf("pipeline.batch_concurrency must be positive when parallel_batches is set")
	}
	if c.Oracle.Endpoint == "" {
		return fmt.Errorf("oracle.endpoint is required")
	}
	if !strings.HasPrefix(c.Oracle.Endpoint, "http://") && !strings.HasPrefix(c.Oracle.Endpoint, "https://") {
		return fmt.Errorf("oracle.endpoint must be an http(s) URL, got %q", c.Oracle.Endpoint)
	}
	if c.Oracle.APITimeout <= 0 {
		return fmt.Errorf("oracle.api_timeout must be positive")
	}
	return nil
}
