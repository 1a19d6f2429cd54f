// Package config loads pip-remove settings from defaults, an optional YAML
// file and PIP_REMOVE_* environment variables.
package config

import (
	"errors"
	"time"
)

// Config is the top-level configuration
type Config struct {
	Python   PythonConfig   `mapstructure:"python"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// PythonConfig selects the interpreter and bounds calls into it
type PythonConfig struct {
	Path         string        `mapstructure:"path"`
	QueryTimeout time.Duration `mapstructure:"query_timeout"`
	LockFile     string        `mapstructure:"lock_file"`
}

// AnalysisConfig holds orphan walk and import scan knobs
type AnalysisConfig struct {
	Concurrency int  `mapstructure:"concurrency"`
	Scan        bool `mapstructure:"scan"`
	CacheSize   int  `mapstructure:"cache_size"`
}

// LoggingConfig controls diagnostic output on stderr
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Defaults.
const (
	DefaultQueryTimeout = 10 * time.Second
	DefaultConcurrency  = 8
	DefaultScan         = true
	DefaultCacheSize    = 1024
	DefaultLogLevel     = "warn"
	DefaultLogFormat    = "text"
)

// Sentinel errors for configuration validation.
var (
	ErrInvalidQueryTimeout = errors.New("python.query_timeout must be positive")
	ErrInvalidConcurrency  = errors.New("analysis.concurrency must be positive")
	ErrInvalidCacheSize    = errors.New("analysis.cache_size must be positive")
	ErrInvalidLogLevel     = errors.New("logging.level must be one of debug, info, warn, error")
	ErrInvalidLogFormat    = errors.New("logging.format must be text or json")
)

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	if c.Python.QueryTimeout <= 0 {
		return ErrInvalidQueryTimeout
	}

	if c.Analysis.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	if c.Analysis.CacheSize <= 0 {
		return ErrInvalidCacheSize
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return ErrInvalidLogLevel
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		return ErrInvalidLogFormat
	}

	return nil
}
