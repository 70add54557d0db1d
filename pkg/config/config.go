package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	xdgAppName = "grind"
	configFile = "config.yaml"
	envPrefix  = "GRIND"

	DefaultAPIURL    = "http://localhost:3000/api"
	DefaultStateFile = "task.txt"
	DefaultTimeout   = 30 * time.Second
)

// ErrNotConfigured is returned when an optional integration is used without its settings.
var ErrNotConfigured = errors.New("not configured")

type Config struct {
	APIURL     string        `mapstructure:"api_url" yaml:"api_url"`
	OrgAPIURL  string        `mapstructure:"org_api_url" yaml:"org_api_url,omitempty"`
	OrgToken   string        `mapstructure:"org_token" yaml:"org_token,omitempty"`
	WebhookURL string        `mapstructure:"webhook_url" yaml:"webhook_url,omitempty"`
	StateFile  string        `mapstructure:"state_file" yaml:"state_file"`
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout"`
	Calendar   string        `mapstructure:"calendar" yaml:"calendar,omitempty"`
}

// Webhook reports whether the approval notification chain can run.
func (c *Config) Webhook() error {
	switch {
	case c.WebhookURL == "":
		return fmt.Errorf("webhook_url: %w", ErrNotConfigured)
	case c.OrgAPIURL == "":
		return fmt.Errorf("org_api_url: %w", ErrNotConfigured)
	case c.OrgToken == "":
		return fmt.Errorf("org_token: %w", ErrNotConfigured)
	}
	return nil
}

func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", xdgAppName), nil
}

func GetConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api_url", DefaultAPIURL)
	v.SetDefault("org_api_url", "")
	v.SetDefault("org_token", "")
	v.SetDefault("webhook_url", "")
	v.SetDefault("state_file", DefaultStateFile)
	v.SetDefault("timeout", DefaultTimeout)
	v.SetDefault("calendar", "")
}

// Load reads the config file at path (or the default location when path is
// empty). A missing file is not an error. GRIND_* environment variables
// override file values, e.g. GRIND_ORG_TOKEN.
func Load(path string) (*Config, error) {
	return load(path, true)
}

// Update applies fn to the settings stored in the file at path and writes
// them back. Environment overrides are not read, so they never end up on disk.
func Update(path string, fn func(*Config)) error {
	if path == "" {
		p, err := GetConfigPath()
		if err != nil {
			return err
		}
		path = p
	}

	cfg, err := load(path, false)
	if err != nil {
		return err
	}
	fn(cfg)
	return Save(path, cfg)
}

func load(path string, env bool) (*Config, error) {
	if path == "" {
		p, err := GetConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	v := viper.New()
	setDefaults(v)
	if env {
		v.SetEnvPrefix(envPrefix)
		v.AutomaticEnv()
	}

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if cfg.StateFile == "" {
		cfg.StateFile = DefaultStateFile
	}
	return &cfg, nil
}

func Save(path string, cfg *Config) error {
	if path == "" {
		p, err := GetConfigPath()
		if err != nil {
			return err
		}
		path = p
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open config file for writing: %w", err)
	}
	defer f.Close()

	encoder := yaml.NewEncoder(f)
	encoder.SetIndent(2)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return encoder.Close()
}
