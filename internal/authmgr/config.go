// file: internal/authmgr/config.go

package authmgr

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/nats-io/nkeys"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"

	"auth-refresher/config"
	"auth-refresher/internal/auth"
)

// Config represents the complete auth-publisher configuration
type Config struct {
	NATS      NATSConfig           `mapstructure:"nats"`
	Storage   StorageConfig        `mapstructure:"storage"`
	Logging   config.LogConfig     `mapstructure:"logging"`
	Metrics   config.MetricsConfig `mapstructure:"metrics"`
	Providers []ProviderConfig     `mapstructure:"providers"`
}

// NATSConfig holds connection settings (connection only, no streams)
type NATSConfig struct {
	URLs      []string `mapstructure:"urls"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	Token     string   `mapstructure:"token"`
	NKeySeed  string   `mapstructure:"nkeySeed"` // user seed, "SU..."
	CredsFile string   `mapstructure:"credsFile"`

	TLS struct {
		Enable   bool   `mapstructure:"enable"`
		CertFile string `mapstructure:"certFile"`
		KeyFile  string `mapstructure:"keyFile"`
		CAFile   string `mapstructure:"caFile"`
		Insecure bool   `mapstructure:"insecure"`
	} `mapstructure:"tls"`
}

// StorageConfig defines where to store token records
type StorageConfig struct {
	Bucket    string `mapstructure:"bucket"`    // KV bucket name
	KeyPrefix string `mapstructure:"keyPrefix"` // Optional prefix for keys
}

// ProviderConfig defines one refresh command to publish
type ProviderConfig struct {
	ID             string        `mapstructure:"id"`
	Scheme         string        `mapstructure:"scheme"`
	Command        string        `mapstructure:"command"`
	KVKey          string        `mapstructure:"kvKey"`
	RefreshEvery   string        `mapstructure:"refreshEvery"`   // duration, e.g. "30s"
	Schedule       string        `mapstructure:"schedule"`       // cron expression, alternative to refreshEvery
	RefreshTimeout time.Duration `mapstructure:"refreshTimeout"` // bound on one command run
}

// kvKeyPattern is the character set JetStream KV accepts in keys
var kvKeyPattern = regexp.MustCompile(`^[-/_=.a-zA-Z0-9]+$`)

// Load reads configuration from file using Viper
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)

	// Environment variable support
	v.SetEnvPrefix("AUTH_MGR")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// setDefaults applies sensible defaults
func setDefaults(cfg *Config) {
	if len(cfg.NATS.URLs) == 0 {
		cfg.NATS.URLs = []string{"nats://localhost:4222"}
	}
	if cfg.Storage.Bucket == "" {
		cfg.Storage.Bucket = "tokens"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Encoding == "" {
		cfg.Logging.Encoding = "json"
	}
	if cfg.Logging.OutputPath == "" {
		cfg.Logging.OutputPath = "stdout"
	}
	if cfg.Metrics.Address == "" {
		cfg.Metrics.Address = ":2113"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
	if cfg.Metrics.UpdateInterval == 0 {
		cfg.Metrics.UpdateInterval = 15 * time.Second
	}
	for i := range cfg.Providers {
		if cfg.Providers[i].Scheme == "" {
			cfg.Providers[i].Scheme = "bearer"
		}
		if cfg.Providers[i].KVKey == "" {
			cfg.Providers[i].KVKey = cfg.Providers[i].ID
		}
		if cfg.Providers[i].RefreshTimeout == 0 {
			cfg.Providers[i].RefreshTimeout = defaultRefreshTimeout
		}
	}
}

// validate ensures configuration is valid
func validate(cfg *Config) error {
	// NATS validation
	if len(cfg.NATS.URLs) == 0 {
		return fmt.Errorf("at least one NATS URL required")
	}

	// Auth method validation (only one allowed)
	authCount := 0
	if cfg.NATS.Username != "" {
		authCount++
	}
	if cfg.NATS.Token != "" {
		authCount++
	}
	if cfg.NATS.NKeySeed != "" {
		authCount++
	}
	if cfg.NATS.CredsFile != "" {
		authCount++
	}
	if authCount > 1 {
		return fmt.Errorf("only one NATS auth method allowed")
	}

	if cfg.NATS.NKeySeed != "" {
		if _, err := userKeyPair(cfg.NATS.NKeySeed); err != nil {
			return err
		}
	}

	if err := config.ValidateLogConfig(&cfg.Logging); err != nil {
		return err
	}

	// Providers validation
	if len(cfg.Providers) == 0 {
		return fmt.Errorf("at least one provider required")
	}

	seenIDs := make(map[string]bool)
	seenKeys := make(map[string]string)
	for i, p := range cfg.Providers {
		if p.ID == "" {
			return fmt.Errorf("provider %d: id is required", i)
		}
		if seenIDs[p.ID] {
			return fmt.Errorf("provider %d: duplicate id '%s'", i, p.ID)
		}
		seenIDs[p.ID] = true

		if other, ok := seenKeys[p.KVKey]; ok {
			return fmt.Errorf("provider %s: kvKey '%s' already used by provider %s", p.ID, p.KVKey, other)
		}
		seenKeys[p.KVKey] = p.ID

		key := cfg.KeyFor(p)
		if !kvKeyPattern.MatchString(key) || strings.HasPrefix(key, ".") || strings.HasSuffix(key, ".") {
			return fmt.Errorf("provider %s: invalid KV key '%s'", p.ID, key)
		}

		if _, err := auth.ParseScheme(p.Scheme); err != nil {
			return fmt.Errorf("provider %s: %w", p.ID, err)
		}
		if p.Command == "" {
			return fmt.Errorf("provider %s: command is required", p.ID)
		}
		if p.RefreshTimeout < 0 {
			return fmt.Errorf("provider %s: refreshTimeout cannot be negative", p.ID)
		}

		switch {
		case p.RefreshEvery != "" && p.Schedule != "":
			return fmt.Errorf("provider %s: set either refreshEvery or schedule, not both", p.ID)
		case p.RefreshEvery != "":
			d, err := time.ParseDuration(p.RefreshEvery)
			if err != nil {
				return fmt.Errorf("provider %s: invalid refreshEvery duration: %w", p.ID, err)
			}
			if d < minPublishInterval {
				return fmt.Errorf("provider %s: refreshEvery must be at least %s", p.ID, minPublishInterval)
			}
		case p.Schedule != "":
			if _, err := cron.ParseStandard(p.Schedule); err != nil {
				return fmt.Errorf("provider %s: invalid schedule: %w", p.ID, err)
			}
		default:
			return fmt.Errorf("provider %s: refreshEvery or schedule required", p.ID)
		}
	}

	// Storage validation
	if cfg.Storage.Bucket == "" {
		return fmt.Errorf("storage bucket name cannot be empty")
	}

	// TLS validation
	if cfg.NATS.TLS.Enable {
		if cfg.NATS.TLS.CertFile != "" && cfg.NATS.TLS.KeyFile == "" {
			return fmt.Errorf("NATS TLS key file required when cert file provided")
		}
		if cfg.NATS.TLS.KeyFile != "" && cfg.NATS.TLS.CertFile == "" {
			return fmt.Errorf("NATS TLS cert file required when key file provided")
		}
	}

	// Validate creds file exists if specified
	if cfg.NATS.CredsFile != "" {
		if _, err := os.Stat(cfg.NATS.CredsFile); os.IsNotExist(err) {
			return fmt.Errorf("NATS creds file does not exist: %s", cfg.NATS.CredsFile)
		}
	}

	return nil
}

// userKeyPair decodes an NKey user seed
func userKeyPair(seed string) (nkeys.KeyPair, error) {
	kp, err := nkeys.FromSeed([]byte(seed))
	if err != nil {
		return nil, fmt.Errorf("invalid NATS nkey seed: %w", err)
	}
	pub, err := kp.PublicKey()
	if err != nil {
		return nil, fmt.Errorf("invalid NATS nkey seed: %w", err)
	}
	if !nkeys.IsValidPublicUserKey(pub) {
		return nil, fmt.Errorf("NATS nkey seed is not a user seed")
	}
	return kp, nil
}

// KeyFor returns the KV key a provider's record is stored under
func (c *Config) KeyFor(p ProviderConfig) string {
	return c.Storage.KeyPrefix + p.KVKey
}
