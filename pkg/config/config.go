// Package config loads the optional YAML file that supplies defaults
// for CLI flags. Flags always override file values; file values
// override built-in defaults.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the root of the YAML configuration file. Zero values mean
// "not set": the CLI only applies fields the file actually provides.
type Config struct {
	Source  SourceConfig  `yaml:"source"`
	Fetch   FetchConfig   `yaml:"fetch"`
	Filter  string        `yaml:"filter"`
	Exports ExportConfig  `yaml:"exports"`
	Console ConsoleConfig `yaml:"console"`
	Hooks   HooksConfig   `yaml:"hooks"`
	History HistoryConfig `yaml:"history"`
}

// SourceConfig selects where reports come from.
type SourceConfig struct {
	// Service is the reporting service base URL.
	Service string `yaml:"service"`

	// File is a local JSON report file. Mutually exclusive with Service.
	File string `yaml:"file"`
}

// FetchConfig tunes report retrieval from the service.
type FetchConfig struct {
	Concurrency int `yaml:"concurrency"`
	TimeoutSec  int `yaml:"timeout_sec"`
	Retries     int `yaml:"retries"`
	RateLimit   int `yaml:"rate_limit"`
}

// ExportConfig holds default export paths, matching the CLI export flags.
type ExportConfig struct {
	JSON         string `yaml:"json"`
	JSONL        string `yaml:"jsonl"`
	CSV          string `yaml:"csv"`
	Markdown     string `yaml:"markdown"`
	PDF          string `yaml:"pdf"`
	Template     string `yaml:"template"`
	TemplateFile string `yaml:"template_file"`
	TemplateName string `yaml:"template_name"`
}

// ConsoleConfig holds console presentation defaults.
type ConsoleConfig struct {
	Silent    bool   `yaml:"silent"`
	NoColor   bool   `yaml:"no_color"`
	TableMode string `yaml:"table_mode"`
}

// HooksConfig holds event hook defaults.
type HooksConfig struct {
	Webhook      string `yaml:"webhook"`
	WebhookAll   bool   `yaml:"webhook_all"`
	MetricsPort  int    `yaml:"metrics_port"`
	OTelEndpoint string `yaml:"otel_endpoint"`
	OTelInsecure bool   `yaml:"otel_insecure"`
	DebugEvents  bool   `yaml:"debug_events"`
}

// HistoryConfig holds run archive defaults.
type HistoryConfig struct {
	Path string   `yaml:"path"`
	Tags []string `yaml:"tags"`
}

// Load reads and parses the configuration file at path.
// Returns ErrNotFound if the file does not exist and ErrInvalidConfig
// if it is malformed or fails validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data. Decoding is strict: unknown
// keys are rejected so typos fail loudly instead of silently losing
// settings. An empty document yields an all-defaults config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field consistency. Absent fields are never an
// error; the file is an overlay, not a complete configuration.
func (c *Config) Validate() error {
	if c.Source.Service != "" && c.Source.File != "" {
		return fmt.Errorf("%w: source.service and source.file are mutually exclusive", ErrInvalidConfig)
	}
	if c.Source.Service != "" {
		u, err := url.Parse(c.Source.Service)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: source.service %q is not an http(s) URL", ErrInvalidConfig, c.Source.Service)
		}
	}

	if c.Fetch.Concurrency < 0 || c.Fetch.TimeoutSec < 0 || c.Fetch.Retries < 0 || c.Fetch.RateLimit < 0 {
		return fmt.Errorf("%w: fetch settings must not be negative", ErrInvalidConfig)
	}

	switch c.Console.TableMode {
	case "", "summary", "detailed", "minimal", "streaming":
	default:
		return fmt.Errorf("%w: console.table_mode %q (want summary, detailed, minimal, or streaming)",
			ErrInvalidConfig, c.Console.TableMode)
	}

	if c.Hooks.MetricsPort < 0 || c.Hooks.MetricsPort > 65535 {
		return fmt.Errorf("%w: hooks.metrics_port %d out of range", ErrInvalidConfig, c.Hooks.MetricsPort)
	}

	if c.Exports.Template != "" && c.Exports.TemplateFile == "" && c.Exports.TemplateName == "" {
		return fmt.Errorf("%w: exports.template needs template_file or template_name", ErrMissingRequired)
	}
	if c.Exports.TemplateFile != "" && c.Exports.TemplateName != "" {
		return fmt.Errorf("%w: exports.template_file and exports.template_name are mutually exclusive", ErrInvalidConfig)
	}

	return nil
}
