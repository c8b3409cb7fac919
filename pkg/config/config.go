// Package config provides toolchain configuration: compiled-in defaults,
// optionally overridden by a flare.yaml file, overridden again by CLI flags.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the file name probed in the working directory when
// no --config flag is given.
const DefaultConfigFile = "flare.yaml"

// Config holds all toolchain settings.
type Config struct {
	// OptLevel selects optimization: 0 disables, anything higher enables
	// the peephole pass.
	OptLevel int `yaml:"opt_level"`

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"` // "text" or "json"
	LogFile   string `yaml:"log_file"`

	// MetricsAddr is the listen address for the Prometheus endpoint;
	// empty disables it.
	MetricsAddr string `yaml:"metrics_addr"`

	// Tracing
	TraceEnabled  bool    `yaml:"trace_enabled"`
	TraceExporter string  `yaml:"trace_exporter"` // "stdout" or "otlp"
	TraceEndpoint string  `yaml:"trace_endpoint"`
	TraceSampling float64 `yaml:"trace_sampling"`

	// WatchDebounceMs is the rebuild debounce for watch mode.
	WatchDebounceMs int `yaml:"watch_debounce_ms"`
}

// Default returns the compiled-in defaults.
func Default() *Config {
	return &Config{
		OptLevel:        1,
		LogLevel:        "info",
		LogFormat:       "text",
		TraceExporter:   "stdout",
		TraceSampling:   1.0,
		WatchDebounceMs: 100,
	}
}

// Load reads a YAML config file over the defaults. A missing file at the
// default path is not an error; a missing explicit path is.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}
