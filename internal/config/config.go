// Package config provides configuration types and defaults for the selections tool.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/schhibra/ntuple-tools/internal/flags"
	"github.com/schhibra/ntuple-tools/internal/log"
	"github.com/schhibra/ntuple-tools/internal/selector"
	"github.com/schhibra/ntuple-tools/internal/tracing"
)

// DefaultConfigPath is where a missing config is written.
const DefaultConfigPath = ".selections/config.yaml"

// Config holds all configuration options.
type Config struct {
	Catalog       CatalogConfig       `mapstructure:"catalog"`
	WorkingPoints WorkingPointsConfig `mapstructure:"working_points"`
	Selector      SelectorConfig      `mapstructure:"selector"`
	Tracing       TracingConfig       `mapstructure:"tracing"`
	Log           LogConfig           `mapstructure:"log"`
	Flags         map[string]bool     `mapstructure:"flags"`
}

// LogConfig tunes the debug log written with --debug.
type LogConfig struct {
	// Level is the minimum level written: debug, info, warn or error.
	Level string `mapstructure:"level"`
}

// CatalogConfig selects the catalog definition.
type CatalogConfig struct {
	// Path to a catalog YAML file. Empty uses the embedded catalog.
	Path string `mapstructure:"path"`
}

// WorkingPointsConfig locates working-point documents.
type WorkingPointsConfig struct {
	// DataDir is the directory catalog working-point file paths are relative to.
	DataDir string `mapstructure:"data_dir"`
}

// SelectorConfig tunes the selector pool.
type SelectorConfig struct {
	Diagnostics bool          `mapstructure:"diagnostics"` // log names after each selector step
	CacheTTL    time.Duration `mapstructure:"cache_ttl"`
}

// TracingConfig holds tracing configuration for catalog builds.
type TracingConfig struct {
	// Enabled controls whether tracing is active.
	// Default: false
	Enabled bool `mapstructure:"enabled"`

	// Exporter selects the trace export backend.
	// Options: "none", "file", "stdout", "otlp"
	// Default: "file"
	Exporter string `mapstructure:"exporter"`

	// FilePath is the output file for "file" exporter.
	// Default: ~/.config/selections/traces/traces.jsonl
	FilePath string `mapstructure:"file_path"`

	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	SampleRate   float64 `mapstructure:"sample_rate"`
}

// TracingOptions converts the tracing section to tracing.Config.
func (c Config) TracingOptions() tracing.Config {
	t := tracing.DefaultConfig()
	t.Enabled = c.Tracing.Enabled
	if c.Tracing.Exporter != "" {
		t.Exporter = c.Tracing.Exporter
	}
	t.FilePath = c.Tracing.FilePath
	if t.FilePath == "" {
		t.FilePath = DefaultTracesFilePath()
	}
	if c.Tracing.OTLPEndpoint != "" {
		t.OTLPEndpoint = c.Tracing.OTLPEndpoint
	}
	if c.Tracing.SampleRate > 0 {
		t.SampleRate = c.Tracing.SampleRate
	}
	return t
}

// DefaultTracesFilePath returns ~/.config/selections/traces/traces.jsonl, or
// an empty string when the home directory is unknown.
func DefaultTracesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "selections", "traces", "traces.jsonl")
}

// Defaults returns a Config with default values. Every feature flag is off.
func Defaults() Config {
	defaultFlags := make(map[string]bool, len(flags.Known()))
	for _, name := range flags.Known() {
		defaultFlags[name] = false
	}
	return Config{
		WorkingPoints: WorkingPointsConfig{
			DataDir: ".",
		},
		Selector: SelectorConfig{
			CacheTTL: selector.DefaultCacheTTL,
		},
		Tracing: TracingConfig{
			Enabled:      false,
			Exporter:     "file",
			OTLPEndpoint: tracing.DefaultOTLPEndpoint,
			SampleRate:   1.0,
		},
		Log: LogConfig{
			Level: "debug",
		},
		Flags: defaultFlags,
	}
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := ValidateTracing(c.Tracing); err != nil {
		return err
	}
	if err := ValidateFlags(c.Flags); err != nil {
		return err
	}
	if err := ValidateLog(c.Log); err != nil {
		return err
	}
	if c.Selector.CacheTTL < 0 {
		return fmt.Errorf("selector.cache_ttl must not be negative, got %s", c.Selector.CacheTTL)
	}
	return nil
}

// ValidateFlags rejects flags the catalog does not know.
func ValidateFlags(f map[string]bool) error {
	for name := range f {
		if !slices.Contains(flags.Known(), name) {
			return fmt.Errorf("flags.%s is not a known flag (known: %v)", name, flags.Known())
		}
	}
	return nil
}

// ValidateLog rejects unknown log levels. An empty level means debug.
func ValidateLog(l LogConfig) error {
	switch strings.ToLower(l.Level) {
	case "", "debug", "info", "warn", "warning", "error":
		return nil
	}
	return fmt.Errorf("log.level must be \"debug\", \"info\", \"warn\", or \"error\", got %q", l.Level)
}

// ValidateTracing checks tracing configuration for errors.
func ValidateTracing(t TracingConfig) error {
	if t.SampleRate < 0.0 || t.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", t.SampleRate)
	}

	switch t.Exporter {
	case "", "none", "file", "stdout", "otlp":
	default:
		return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", t.Exporter)
	}

	if t.Enabled && t.Exporter == "otlp" && t.OTLPEndpoint == "" {
		return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
	}
	return nil
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# Selections configuration

catalog:
  # Catalog definition file. Empty uses the built-in catalog.
  # path: ./catalog.yaml

working_points:
  # Directory the catalog's working-point files (data/iso_wps.json, ...) are read from.
  data_dir: .

selector:
  diagnostics: false   # log selection names after every selector step
  cache_ttl: 10m       # lifetime of cached pattern results

# Cold paths of the catalog, all off by default.
flags:
  iso-working-points: false      # extend isolation lists from data/iso_wps.json
  iso-pt-working-points: false   # build iso/pt families from data/iso_pt_wps.json
  iso-grid: false                # expand the hand-written isolation/pt grids

log:
  level: debug         # minimum level written with --debug: debug, info, warn, error

tracing:
  enabled: false
  exporter: file       # none, file, stdout, otlp
  # file_path: ~/.config/selections/traces/traces.jsonl
  otlp_endpoint: localhost:4317
  sample_rate: 1.0
`
}

// WriteDefaultConfig creates a config file at configPath with default settings.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	if err := os.MkdirAll(filepath.Dir(configPath), 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "path", configPath)
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
