// Package config loads tabula configuration from YAML, .env and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/spektr-org/tabula/api"
	"github.com/spektr-org/tabula/formatter"
	"github.com/spektr-org/tabula/llm"
	"github.com/spektr-org/tabula/logging"
	"github.com/spektr-org/tabula/schema"
	"github.com/spektr-org/tabula/translator"
)

// Config is the complete configuration.
type Config struct {
	LLM       LLMConfig       `yaml:"llm"`
	Index     IndexConfig     `yaml:"index"`
	Formatter FormatterConfig `yaml:"formatter"`
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
}

// LLMConfig configures the language model client.
type LLMConfig struct {
	APIKey        string        `yaml:"api_key"`
	Model         string        `yaml:"model"`
	FallbackModel string        `yaml:"fallback_model"`
	BaseURL       string        `yaml:"base_url"`
	Timeout       time.Duration `yaml:"timeout"`
	Temperature   float32       `yaml:"temperature"`
}

// IndexConfig bounds which columns are indexed for keyword search.
type IndexConfig struct {
	MaxNumericDistinct int `yaml:"max_numeric_distinct"`
	MaxStringDistinct  int `yaml:"max_string_distinct"`
}

// FormatterConfig bounds answer rendering.
type FormatterConfig struct {
	MaxPromptRecords int `yaml:"max_prompt_records"`
	FullListLimit    int `yaml:"full_list_limit"`
	PreviewCount     int `yaml:"preview_count"`
	UniqueLimit      int `yaml:"unique_limit"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	MaxBodyBytes   int64         `yaml:"max_body_bytes"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console or json
}

// Environment variables that override file values.
const (
	EnvAPIKey        = "GEMINI_API_KEY"
	EnvModel         = "TABULA_MODEL"
	EnvFallbackModel = "TABULA_FALLBACK_MODEL"
	EnvLogLevel      = "TABULA_LOG_LEVEL"
	EnvLogFormat     = "TABULA_LOG_FORMAT"
	EnvServerAddr    = "TABULA_ADDR"
)

// Load reads the YAML file at path (optional), the .env file in the working
// directory (optional) and the environment, in that order of precedence
// from lowest to highest.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	limits := schema.DefaultLimits()
	fmtCfg := formatter.DefaultConfig()
	return &Config{
		LLM: LLMConfig{
			Model:         llm.DefaultModel,
			FallbackModel: "gemini-2.0-flash",
			Timeout:       30 * time.Second,
			Temperature:   0.1,
		},
		Index: IndexConfig{
			MaxNumericDistinct: limits.MaxNumericDistinct,
			MaxStringDistinct:  limits.MaxStringDistinct,
		},
		Formatter: FormatterConfig{
			MaxPromptRecords: fmtCfg.MaxPromptRecords,
			FullListLimit:    fmtCfg.FullListLimit,
			PreviewCount:     fmtCfg.PreviewCount,
			UniqueLimit:      fmtCfg.UniqueLimit,
		},
		Server: ServerConfig{
			Addr:           ":8080",
			RequestTimeout: 60 * time.Second,
			MaxBodyBytes:   32 << 20,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	var errs []error
	if c.LLM.Timeout < 0 {
		errs = append(errs, errors.New("llm.timeout must not be negative"))
	}
	if c.Index.MaxNumericDistinct <= 0 || c.Index.MaxStringDistinct <= 0 {
		errs = append(errs, errors.New("index limits must be positive"))
	}
	if c.Formatter.PreviewCount > c.Formatter.FullListLimit {
		errs = append(errs, errors.New("formatter.preview_count must not exceed formatter.full_list_limit"))
	}
	switch strings.ToLower(c.Log.Format) {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be console or json, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvAPIKey); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv(EnvModel); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv(EnvFallbackModel); v != "" {
		cfg.LLM.FallbackModel = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv(EnvServerAddr); v != "" {
		cfg.Server.Addr = v
	}
}

// ============================================================================
// CONVERSIONS
// ============================================================================

// Limits returns the index limits for dataset builds.
func (c *Config) Limits() schema.Limits {
	return schema.Limits{
		MaxNumericDistinct: c.Index.MaxNumericDistinct,
		MaxStringDistinct:  c.Index.MaxStringDistinct,
	}
}

// Gemini returns the client configuration.
func (c *Config) Gemini() llm.GeminiConfig {
	return llm.GeminiConfig{
		APIKey:      c.LLM.APIKey,
		Model:       c.LLM.Model,
		BaseURL:     c.LLM.BaseURL,
		Timeout:     c.LLM.Timeout,
		Temperature: c.LLM.Temperature,
	}
}

// Planner returns the planner configuration.
func (c *Config) Planner() translator.Config {
	out := translator.DefaultConfig()
	out.Model = c.LLM.Model
	out.FallbackModel = c.LLM.FallbackModel
	out.Temperature = c.LLM.Temperature
	return out
}

// HTTP returns the API server settings.
func (c *Config) HTTP() api.Config {
	return api.Config{
		RequestTimeout: c.Server.RequestTimeout,
		MaxBodyBytes:   c.Server.MaxBodyBytes,
	}
}

// FormatOptions returns the formatter limits.
func (c *Config) FormatOptions() formatter.Config {
	out := formatter.DefaultConfig()
	out.MaxPromptRecords = c.Formatter.MaxPromptRecords
	out.FullListLimit = c.Formatter.FullListLimit
	out.PreviewCount = c.Formatter.PreviewCount
	out.UniqueLimit = c.Formatter.UniqueLimit
	out.Model = c.LLM.Model
	out.FallbackModel = c.LLM.FallbackModel
	return out
}

// Logging returns the logger configuration.
func (c *Config) Logging() logging.Config {
	return logging.Config{Level: c.Log.Level, Format: c.Log.Format}
}
