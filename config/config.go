// file: config/config.go

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g.
// AUTHCTL_CREDENTIAL_REFRESHCOMMAND
const EnvPrefix = "AUTHCTL"

type Config struct {
	Credential CredentialConfig `mapstructure:"credential" yaml:"credential"`
	Logging    LogConfig        `mapstructure:"logging" yaml:"logging"`
	Metrics    MetricsConfig    `mapstructure:"metrics" yaml:"metrics"`
}

// CredentialConfig describes a single credential provider
type CredentialConfig struct {
	Scheme         string        `mapstructure:"scheme" yaml:"scheme"`                 // only "bearer" today
	RefreshCommand string        `mapstructure:"refreshCommand" yaml:"refreshCommand"` // empty disables the header
	RefreshTimeout time.Duration `mapstructure:"refreshTimeout" yaml:"refreshTimeout"` // 0 = no bound
}

type LogConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`           // debug, info, warn, error
	OutputPath string `mapstructure:"outputPath" yaml:"outputPath"` // file path or "stdout"
	Encoding   string `mapstructure:"encoding" yaml:"encoding"`     // json or console
}

type MetricsConfig struct {
	Enabled        bool          `mapstructure:"enabled" yaml:"enabled"`
	Address        string        `mapstructure:"address" yaml:"address"`
	Path           string        `mapstructure:"path" yaml:"path"`
	UpdateInterval time.Duration `mapstructure:"updateInterval" yaml:"updateInterval"`
}

// Load reads configuration from an optional file plus AUTHCTL_* environment
// variables. An empty path uses defaults and the environment only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Default returns the configuration Load produces with no file and no
// environment overrides
func Default() *Config {
	return &Config{
		Credential: CredentialConfig{
			Scheme: "bearer",
		},
		Logging: LogConfig{
			Level:      "info",
			OutputPath: "stdout",
			Encoding:   "json",
		},
		Metrics: MetricsConfig{
			Address:        ":2112",
			Path:           "/metrics",
			UpdateInterval: 15 * time.Second,
		},
	}
}

// setDefaults registers every key with viper so environment overrides are
// picked up by Unmarshal
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("credential.scheme", d.Credential.Scheme)
	v.SetDefault("credential.refreshCommand", d.Credential.RefreshCommand)
	v.SetDefault("credential.refreshTimeout", d.Credential.RefreshTimeout)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.outputPath", d.Logging.OutputPath)
	v.SetDefault("logging.encoding", d.Logging.Encoding)

	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.address", d.Metrics.Address)
	v.SetDefault("metrics.path", d.Metrics.Path)
	v.SetDefault("metrics.updateInterval", d.Metrics.UpdateInterval)
}

func validate(cfg *Config) error {
	if strings.TrimSpace(cfg.Credential.Scheme) == "" {
		return fmt.Errorf("credential scheme cannot be empty")
	}
	if cfg.Credential.RefreshTimeout < 0 {
		return fmt.Errorf("credential refreshTimeout cannot be negative: %s", cfg.Credential.RefreshTimeout)
	}

	if err := ValidateLogConfig(&cfg.Logging); err != nil {
		return err
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Address == "" {
			return fmt.Errorf("metrics address required when metrics are enabled")
		}
		if !strings.HasPrefix(cfg.Metrics.Path, "/") {
			return fmt.Errorf("metrics path must start with '/': %q", cfg.Metrics.Path)
		}
		if cfg.Metrics.UpdateInterval <= 0 {
			return fmt.Errorf("metrics updateInterval must be positive")
		}
	}

	return nil
}

// ValidateLogConfig checks level and encoding values
func ValidateLogConfig(cfg *LogConfig) error {
	switch cfg.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q (must be debug, info, warn or error)", cfg.Level)
	}
	switch cfg.Encoding {
	case "json", "console":
	default:
		return fmt.Errorf("invalid log encoding %q (must be json or console)", cfg.Encoding)
	}
	if cfg.OutputPath == "" {
		return fmt.Errorf("log outputPath cannot be empty")
	}
	return nil
}
