package config

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/VatsalSy/stepwatch/internal/errors"
	"github.com/VatsalSy/stepwatch/pkg/progress"
)

// EnvPrefix is the prefix of environment variables overriding config keys,
// e.g. STEPWATCH_REPORTER_FORMAT.
const EnvPrefix = "STEPWATCH"

// Config represents the application configuration
type Config struct {
	// Estimator tuning
	Progress ProgressConfig `mapstructure:"progress"`

	// Progress output
	Reporter ReporterConfig `mapstructure:"reporter"`

	// Step journal
	Journal JournalConfig `mapstructure:"journal"`

	// Prometheus export
	Metrics MetricsConfig `mapstructure:"metrics"`

	// Logging
	Log LogConfig `mapstructure:"log"`

	// Application
	Version string `mapstructure:"version"`
}

// ProgressConfig tunes the time-remaining estimate
type ProgressConfig struct {
	MinDurationForEstimate time.Duration `mapstructure:"min_duration_for_estimate"`
	EstimateWindow         time.Duration `mapstructure:"estimate_window"` // 0 = whole step
}

// ReporterConfig contains progress output settings
type ReporterConfig struct {
	Format        string        `mapstructure:"format"` // text, json, bar, none
	Output        string        `mapstructure:"output"` // stdout, stderr
	PrintInterval time.Duration `mapstructure:"print_interval"`
}

// JournalConfig contains step journal settings
type JournalConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// MetricsConfig contains Prometheus settings
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level      string `mapstructure:"level"`  // trace, debug, info, warn, error
	Format     string `mapstructure:"format"` // json, pretty
	Output     string `mapstructure:"output"` // stderr, stdout, file
	File       string `mapstructure:"file"`
	MaxSize    int    `mapstructure:"max_size"` // MB
	MaxBackups int    `mapstructure:"max_backups"`
}

// Load reads the config file (or the default location when cfgFile is
// empty), environment overrides and defaults into a new Config.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	if err := InitViper(v, cfgFile); err != nil {
		return nil, err
	}
	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already populated viper instance.
func LoadFromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.New(errors.ErrorTypeConfiguration, "unmarshal_config", err)
	}

	setDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// InitViper points v at the config file, enables environment overrides and
// registers defaults. A missing config file is not an error.
func InitViper(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(DataDir())
		v.SetConfigType("yaml")
		v.SetConfigName("config")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetViperDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if stderrors.As(err, &notFound) || stderrors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return errors.New(errors.ErrorTypeConfiguration, "read_config", err)
	}

	return nil
}

// SetViperDefaults sets default values in v
func SetViperDefaults(v *viper.Viper) {
	// Estimator defaults
	v.SetDefault("progress.min_duration_for_estimate", progress.DefaultMinDurationForEstimate)
	v.SetDefault("progress.estimate_window", time.Duration(0))

	// Reporter defaults
	v.SetDefault("reporter.format", string(progress.OutputFormatText))
	v.SetDefault("reporter.output", "stdout")
	v.SetDefault("reporter.print_interval", progress.DefaultPrintInterval)

	// Journal defaults
	v.SetDefault("journal.enabled", true)
	v.SetDefault("journal.path", filepath.Join(DataDir(), "journal.db"))

	// Metrics defaults
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.addr", ":9464")

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "pretty")
	v.SetDefault("log.output", "stderr")
	v.SetDefault("log.file", filepath.Join(DataDir(), "stepwatch.log"))
	v.SetDefault("log.max_size", 10)
	v.SetDefault("log.max_backups", 3)

	v.SetDefault("version", "0.1.0")
}

// setDefaults fills fields a config file may have blanked out
func setDefaults(cfg *Config) {
	if cfg.Reporter.Format == "" {
		cfg.Reporter.Format = string(progress.OutputFormatText)
	}
	if cfg.Reporter.Output == "" {
		cfg.Reporter.Output = "stdout"
	}
	if cfg.Reporter.PrintInterval == 0 {
		cfg.Reporter.PrintInterval = progress.DefaultPrintInterval
	}
	if cfg.Journal.Path == "" {
		cfg.Journal.Path = filepath.Join(DataDir(), "journal.db")
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stderr"
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	invalid := func(format string, args ...interface{}) error {
		return errors.New(errors.ErrorTypeConfiguration, "validate", fmt.Errorf(format, args...))
	}

	if c.Progress.MinDurationForEstimate < 0 {
		return invalid("progress.min_duration_for_estimate must not be negative")
	}
	if c.Progress.EstimateWindow < 0 {
		return invalid("progress.estimate_window must not be negative")
	}
	if c.Reporter.PrintInterval < 0 {
		return invalid("reporter.print_interval must not be negative")
	}
	if _, err := progress.ParseOutputFormat(c.Reporter.Format); err != nil {
		return invalid("reporter.format: %v", err)
	}
	switch c.Reporter.Output {
	case "stdout", "stderr":
	default:
		return invalid("reporter.output must be stdout or stderr, got %q", c.Reporter.Output)
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return invalid("log.level: %v", err)
	}
	switch c.Log.Output {
	case "stdout", "stderr", "file":
	default:
		return invalid("log.output must be stdout, stderr or file, got %q", c.Log.Output)
	}

	return nil
}

// OutputFormat returns the parsed reporter format.
func (c *Config) OutputFormat() progress.OutputFormat {
	f, err := progress.ParseOutputFormat(c.Reporter.Format)
	if err != nil {
		return progress.OutputFormatText
	}
	return f
}

// EstimatorOptions translates the progress section into estimator options.
func (c *Config) EstimatorOptions() []progress.Option {
	return []progress.Option{
		progress.WithMinDurationForEstimate(c.Progress.MinDurationForEstimate),
		progress.WithEstimateWindow(c.Progress.EstimateWindow),
	}
}

// Save writes the settings held by v to path, creating its directory.
func Save(v *viper.Viper, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}

	if err := v.WriteConfigAs(path); err != nil {
		return errors.New(errors.ErrorTypeConfiguration, "write_config", err)
	}
	return nil
}

// DefaultConfigPath returns the config file used when none is given.
func DefaultConfigPath() string {
	return filepath.Join(DataDir(), "config.yaml")
}

// DataDir returns the StepWatch data directory
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".stepwatch"
	}
	return filepath.Join(home, ".stepwatch")
}
