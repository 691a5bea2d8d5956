// Package config loads the settings of the nvme-config tool.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/lxc/incus-os/nvme-config/internal/keyring"
)

// DefaultPath is where the tool looks for its settings.
const DefaultPath = "/etc/nvme/config-tool.yaml"

// Supported keyring backends.
const (
	BackendKernel = "kernel"
	BackendMemory = "memory"
)

// Config defines the tool settings.
type Config struct {
	ConfigFile     string `json:"config_file"     yaml:"config_file"`     // NVMe JSON configuration file.
	Keyring        string `json:"keyring"         yaml:"keyring"`         // Default keyring description for TLS keys.
	KeyringBackend string `json:"keyring_backend" yaml:"keyring_backend"` // Either "kernel" or "memory".
	LogLevel       string `json:"log_level"       yaml:"log_level"`       // One of debug, info, warn or error.
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		ConfigFile:     "/etc/nvme/config.json",
		Keyring:        keyring.DefaultKeyring,
		KeyringBackend: BackendKernel,
		LogLevel:       "info",
	}
}

// Load reads the settings file at path, applies environment overrides and validates the result.
// A missing file isn't an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	content, err := os.ReadFile(path) //nolint:gosec
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	if err == nil {
		err = yaml.Unmarshal(content, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %q: %w", path, err)
		}
	}

	cfg.applyEnv()

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() {
	for env, target := range map[string]*string{
		"NVME_CONFIG_FILE":     &c.ConfigFile,
		"NVME_KEYRING":         &c.Keyring,
		"NVME_KEYRING_BACKEND": &c.KeyringBackend,
		"NVME_LOG_LEVEL":       &c.LogLevel,
	} {
		value := os.Getenv(env)
		if value != "" {
			*target = value
		}
	}
}

// Validate checks the settings.
func (c *Config) Validate() error {
	if !slices.Contains([]string{BackendKernel, BackendMemory}, c.KeyringBackend) {
		return fmt.Errorf("invalid keyring backend %q", c.KeyringBackend)
	}

	var level slog.Level

	err := level.UnmarshalText([]byte(c.LogLevel))
	if err != nil {
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}

	return nil
}

// Level returns the configured log level.
func (c *Config) Level() slog.Level {
	var level slog.Level

	_ = level.UnmarshalText([]byte(c.LogLevel))

	return level
}

// OpenKeyring returns the configured keyring backend.
func (c *Config) OpenKeyring() (keyring.Keyring, error) {
	if c.KeyringBackend == BackendMemory {
		return keyring.NewMemory(c.Keyring), nil
	}

	kr, err := keyring.NewKernel()
	if err != nil {
		return nil, err
	}

	return kr, nil
}
