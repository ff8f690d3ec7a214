package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// StoreConfig selects and configures the capsule record store.
type StoreConfig struct {
	Kind    string        `yaml:"kind"`
	DBPath  string        `yaml:"db_path,omitempty"`
	APIURL  string        `yaml:"api_url,omitempty"`
	Timeout time.Duration `yaml:"timeout"`
}

// UnlockConfig tunes the unlock flow.
type UnlockConfig struct {
	FetchTimeout       time.Duration `yaml:"fetch_timeout"`
	DecryptDelay       time.Duration `yaml:"decrypt_delay"`
	TickInterval       time.Duration `yaml:"tick_interval"`
	MaxAttempts        int           `yaml:"max_attempts"`
	PassphraseCooldown time.Duration `yaml:"passphrase_cooldown"`
	AllowForce         bool          `yaml:"allow_force"`
}

// UIConfig holds presentation settings.
type UIConfig struct {
	Theme string `yaml:"theme"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file,omitempty"`
}

// Config is the client configuration.
type Config struct {
	Store  StoreConfig  `yaml:"store"`
	Unlock UnlockConfig `yaml:"unlock"`
	UI     UIConfig     `yaml:"ui"`
	Log    LogConfig    `yaml:"log"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Store: StoreConfig{
			Kind:    StoreSQLite,
			Timeout: FetchTimeout,
		},
		Unlock: UnlockConfig{
			FetchTimeout:       FetchTimeout,
			DecryptDelay:       DecryptDelay,
			TickInterval:       TickInterval,
			MaxAttempts:        MaxPassphraseAttempts,
			PassphraseCooldown: PassphraseCooldown,
			AllowForce:         true,
		},
		UI:  UIConfig{Theme: "default"},
		Log: LogConfig{Level: "warn"},
	}
}

// Load reads a YAML config file. A missing file yields the defaults; missing
// fields are filled from defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("cannot read config at %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("invalid %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Save writes cfg to path.
func Save(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// LoadDotEnv loads KEY=VALUE files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(files ...string) {
	for _, f := range files {
		_ = godotenv.Load(f)
	}
}

// ApplyEnv overlays CAPSULE_* variables read through getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := strings.TrimSpace(getenv(EnvPrefix + "STORE")); v != "" {
		c.Store.Kind = v
	}
	if v := strings.TrimSpace(getenv(EnvPrefix + "DB")); v != "" {
		c.Store.DBPath = v
	}
	if v := strings.TrimSpace(getenv(EnvPrefix + "API_URL")); v != "" {
		c.Store.APIURL = v
	}
	if v := strings.TrimSpace(getenv(EnvPrefix + "LOG_LEVEL")); v != "" {
		c.Log.Level = v
	}
	if v := strings.TrimSpace(getenv(EnvPrefix + "THEME")); v != "" {
		c.UI.Theme = v
	}
	if v := strings.TrimSpace(getenv(EnvPrefix + "FETCH_TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sFETCH_TIMEOUT: %w", EnvPrefix, err)
		}
		c.Unlock.FetchTimeout = d
	}
	return c.Validate()
}

// Validate checks field ranges and the store selection.
func (c Config) Validate() error {
	switch c.Store.Kind {
	case StoreSQLite, StoreMemory:
	case StoreRemote:
		if strings.TrimSpace(c.Store.APIURL) == "" {
			return errors.New("remote store requires api_url")
		}
	default:
		return fmt.Errorf("unknown store kind %q", c.Store.Kind)
	}
	if c.Unlock.FetchTimeout <= 0 {
		return errors.New("fetch_timeout must be positive")
	}
	if c.Unlock.TickInterval <= 0 {
		return errors.New("tick_interval must be positive")
	}
	if c.Unlock.DecryptDelay < 0 {
		return errors.New("decrypt_delay must not be negative")
	}
	if c.Unlock.MaxAttempts <= 0 {
		return errors.New("max_attempts must be positive")
	}
	if c.Unlock.PassphraseCooldown <= 0 {
		return errors.New("passphrase_cooldown must be positive")
	}
	return nil
}
