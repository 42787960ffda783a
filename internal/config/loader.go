// Package config loads llamabridge settings from YAML, JSON or TOML files.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the service.
// Zero values mean "unspecified"; WithDefaults fills them in.
type Config struct {
	Addr         string `json:"addr" yaml:"addr" toml:"addr"`
	ModelsDir    string `json:"models_dir" yaml:"models_dir" toml:"models_dir"`
	ResourcesDir string `json:"resources_dir" yaml:"resources_dir" toml:"resources_dir"`
	// Model is loaded at startup when set: a model ID from ModelsDir or a path.
	Model       string `json:"model" yaml:"model" toml:"model"`
	ContextSize int    `json:"context_size" yaml:"context_size" toml:"context_size"`
	Threads     int    `json:"threads" yaml:"threads" toml:"threads"`
	Workers     int    `json:"workers" yaml:"workers" toml:"workers"`

	MaxWaitMS        int   `json:"max_wait_ms" yaml:"max_wait_ms" toml:"max_wait_ms"`
	HistoryWindow    int   `json:"history_window" yaml:"history_window" toml:"history_window"`
	MaxResourceBytes int64 `json:"max_resource_bytes" yaml:"max_resource_bytes" toml:"max_resource_bytes"`
	MaxBodyBytes     int64 `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`
	GenerateTimeoutS int   `json:"generate_timeout_s" yaml:"generate_timeout_s" toml:"generate_timeout_s"`

	LogLevel string `json:"log_level" yaml:"log_level" toml:"log_level"`

	CORSEnabled bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSOrigins []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
	CORSMethods []string `json:"cors_methods" yaml:"cors_methods" toml:"cors_methods"`
	CORSHeaders []string `json:"cors_headers" yaml:"cors_headers" toml:"cors_headers"`
}

// Defaults used by WithDefaults.
const (
	DefaultAddr         = ":8080"
	DefaultContextSize  = 2048
	DefaultThreads      = 4
	DefaultWorkers      = 4
	DefaultMaxBodyBytes = 1 << 20
	DefaultLogLevel     = "info"
)

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// WithDefaults returns a copy with unset fields filled in.
func (c Config) WithDefaults() Config {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.ContextSize <= 0 {
		c.ContextSize = DefaultContextSize
	}
	if c.Threads <= 0 {
		c.Threads = DefaultThreads
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	return c
}

// Validate rejects negative limits.
func (c Config) Validate() error {
	var errs []error
	if c.MaxWaitMS < 0 {
		errs = append(errs, fmt.Errorf("max_wait_ms must be >= 0, got %d", c.MaxWaitMS))
	}
	if c.HistoryWindow < 0 {
		errs = append(errs, fmt.Errorf("history_window must be >= 0, got %d", c.HistoryWindow))
	}
	if c.MaxResourceBytes < 0 {
		errs = append(errs, fmt.Errorf("max_resource_bytes must be >= 0, got %d", c.MaxResourceBytes))
	}
	if c.GenerateTimeoutS < 0 {
		errs = append(errs, fmt.Errorf("generate_timeout_s must be >= 0, got %d", c.GenerateTimeoutS))
	}
	return errors.Join(errs...)
}

// MaxWait is MaxWaitMS as a duration.
func (c Config) MaxWait() time.Duration { return time.Duration(c.MaxWaitMS) * time.Millisecond }

// GenerateTimeout is GenerateTimeoutS as a duration.
func (c Config) GenerateTimeout() time.Duration {
	return time.Duration(c.GenerateTimeoutS) * time.Second
}
