package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/schhibra/ntuple-tools/internal/config"
	"github.com/schhibra/ntuple-tools/internal/log"
)

var (
	version   = "dev"
	cfgFile   string
	debugFlag bool
	cfg       config.Config

	// sess is set up before every subcommand and closed once it returns.
	sess *session
)

// skipCatalog marks commands that run without building the catalog.
const skipCatalog = "skip-catalog"

var rootCmd = &cobra.Command{
	Use:   "selections",
	Short: "Inspect the selection catalog of an ntuple analysis",
	Long: `Build the selection catalog (lists, working-point extensions and the
families derived from them) and inspect it: list collections, print their
selections, compare two collections or browse them interactively.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/selections/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false,
		"write debug logs (also SELECTIONS_DEBUG; file from SELECTIONS_LOG)")
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("catalog.path", defaults.Catalog.Path)
	viper.SetDefault("working_points.data_dir", defaults.WorkingPoints.DataDir)
	viper.SetDefault("selector.diagnostics", defaults.Selector.Diagnostics)
	viper.SetDefault("selector.cache_ttl", defaults.Selector.CacheTTL)
	viper.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	viper.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	viper.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	viper.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)
	viper.SetDefault("log.level", defaults.Log.Level)
	for name, enabled := range defaults.Flags {
		viper.SetDefault("flags."+name, enabled)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .selections/config.yaml (current directory)
		// 2. ~/.config/selections/config.yaml (user config)
		if _, err := os.Stat(config.DefaultConfigPath); err == nil {
			viper.SetConfigFile(config.DefaultConfigPath)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "selections"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			if writeErr := config.WriteDefaultConfig(config.DefaultConfigPath); writeErr == nil {
				viper.SetConfigFile(config.DefaultConfigPath)
				_ = viper.ReadInConfig()
			}
			// If write fails, continue with defaults
		}
	}

	cfg = config.Config{}
	_ = viper.Unmarshal(&cfg)
}

// configPath is the file flag changes are saved to.
func configPath() string {
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	return config.DefaultConfigPath
}

func setup(cmd *cobra.Command, _ []string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	s := &session{}
	debug := os.Getenv("SELECTIONS_DEBUG") != "" || debugFlag
	if debug {
		logPath := os.Getenv("SELECTIONS_LOG")
		if logPath == "" {
			logPath = "debug.log"
		}
		cleanup, err := log.InitWithTeaLog(logPath, "selections")
		if err != nil {
			return fmt.Errorf("init debug log: %w", err)
		}
		s.logCleanup = cleanup
		log.SetMinLevel(log.ParseLevel(cfg.Log.Level))
		log.Info(log.CatConfig, "selections starting", "command", cmd.Name(), "config", viper.ConfigFileUsed(), "logPath", logPath)
	}
	sess = s

	if cmd.Annotations[skipCatalog] == "true" {
		return nil
	}
	return s.open(cmd.Context(), cfg)
}

// execute runs the root command and closes the session it opened, whether or
// not the command failed.
func execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if sess != nil {
		err = errors.Join(err, sess.close(ctx))
		sess = nil
	}
	return err
}

// Execute runs the root command
func Execute() error {
	return execute(context.Background())
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
