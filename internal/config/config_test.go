package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/schhibra/ntuple-tools/internal/flags"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	require.Empty(t, cfg.Catalog.Path, "embedded catalog by default")
	require.Equal(t, ".", cfg.WorkingPoints.DataDir)
	require.Equal(t, 10*time.Minute, cfg.Selector.CacheTTL)
	require.False(t, cfg.Selector.Diagnostics)
	require.False(t, cfg.Tracing.Enabled)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Len(t, cfg.Flags, len(flags.Known()))
	for name, on := range cfg.Flags {
		require.False(t, on, name)
	}
	require.NoError(t, cfg.Validate())
}

func TestValidateTracing(t *testing.T) {
	tests := []struct {
		name    string
		tracing TracingConfig
		wantErr string
	}{
		{"defaults", Defaults().Tracing, ""},
		{"empty exporter", TracingConfig{}, ""},
		{"sample rate too high", TracingConfig{SampleRate: 1.5}, "sample_rate"},
		{"negative sample rate", TracingConfig{SampleRate: -0.1}, "sample_rate"},
		{"unknown exporter", TracingConfig{Exporter: "jaeger"}, "tracing.exporter"},
		{"otlp without endpoint", TracingConfig{Enabled: true, Exporter: "otlp"}, "otlp_endpoint"},
		{"otlp disabled without endpoint", TracingConfig{Exporter: "otlp"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTracing(tt.tracing)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestValidate(t *testing.T) {
	cfg := Defaults()
	cfg.Flags["iso-workingpoints"] = true
	require.ErrorContains(t, cfg.Validate(), "flags.iso-workingpoints is not a known flag")

	cfg = Defaults()
	cfg.Selector.CacheTTL = -time.Second
	require.ErrorContains(t, cfg.Validate(), "cache_ttl")

	cfg = Defaults()
	cfg.Log.Level = "verbose"
	require.ErrorContains(t, cfg.Validate(), "log.level")
}

func TestValidateLog(t *testing.T) {
	for _, level := range []string{"", "debug", "INFO", "warn", "warning", "error"} {
		require.NoError(t, ValidateLog(LogConfig{Level: level}), level)
	}
	require.Error(t, ValidateLog(LogConfig{Level: "trace"}))
}

func TestTracingOptions(t *testing.T) {
	cfg := Defaults()
	cfg.Tracing.Enabled = true
	cfg.Tracing.FilePath = "/tmp/traces.jsonl"
	cfg.Tracing.SampleRate = 0.5

	opts := cfg.TracingOptions()
	require.True(t, opts.Enabled)
	require.Equal(t, "file", opts.Exporter)
	require.Equal(t, "/tmp/traces.jsonl", opts.FilePath)
	require.Equal(t, 0.5, opts.SampleRate)
	require.Equal(t, "selections", opts.ServiceName)

	cfg.Tracing.FilePath = ""
	require.Equal(t, DefaultTracesFilePath(), cfg.TracingOptions().FilePath)
}

func TestDefaultConfigTemplate_MatchesDefaults(t *testing.T) {
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(DefaultConfigTemplate())))

	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))

	defaults := Defaults()
	defaults.Tracing.FilePath = ""
	require.Equal(t, defaults, cfg)
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".selections", "config.yaml")

	require.NoError(t, WriteDefaultConfig(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, DefaultConfigTemplate(), string(data))
}
