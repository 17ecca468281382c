// Package agent holds the daemon-level configuration loaded at startup.
package agent

import (
	"os"
	"time"

	"github.com/awim-deck/awimd/pkg/errors"

	"gopkg.in/yaml.v3"
)

// Config is the top-level daemon configuration file structure.
type Config struct {
	Supervisor SupervisorConfig `yaml:"supervisor"`
	Bridge     BridgeConfig     `yaml:"bridge"`
}

// SupervisorConfig configures the daemon itself.
type SupervisorConfig struct {
	ListenAddress   string        `yaml:"listen_address"`
	LogLevel        string        `yaml:"log_level,omitempty"`
	GracefulTimeout time.Duration `yaml:"graceful_timeout,omitempty"`
}

// BridgeConfig configures how the bridge binary is found and observed.
type BridgeConfig struct {
	// BinaryPaths are candidate executable paths, first existing wins.
	BinaryPaths []string `yaml:"binary_paths"`

	// SettingsPath is where the last-known bridge endpoint is persisted.
	SettingsPath string `yaml:"settings_path"`

	// Stdout markers used by the log-based liveness monitor.
	ServingMarker   string `yaml:"serving_marker,omitempty"`
	ConnectedMarker string `yaml:"connected_marker,omitempty"`
}

// LoadConfigFromFile loads daemon configuration from a YAML file, applies
// defaults and validates the result.
func LoadConfigFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.NewIOError("failed to read configuration file", err).
			WithContext("filename", filename)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, errors.NewValidationError("failed to parse YAML configuration", err).
			WithContext("filename", filename)
	}

	setConfigDefaults(&config)

	if err := ValidateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	config := &Config{}
	setConfigDefaults(config)
	return config
}

func setConfigDefaults(config *Config) {
	if config.Supervisor.ListenAddress == "" {
		config.Supervisor.ListenAddress = "127.0.0.1:8787"
	}
	if config.Supervisor.LogLevel == "" {
		config.Supervisor.LogLevel = "info"
	}
	if config.Supervisor.GracefulTimeout == 0 {
		config.Supervisor.GracefulTimeout = 3 * time.Second
	}
	if len(config.Bridge.BinaryPaths) == 0 {
		config.Bridge.BinaryPaths = []string{"bin/awim", "backend/out/awim"}
	}
	if config.Bridge.SettingsPath == "" {
		config.Bridge.SettingsPath = "settings.yaml"
	}
	if config.Bridge.ServingMarker == "" {
		config.Bridge.ServingMarker = "listening"
	}
	if config.Bridge.ConnectedMarker == "" {
		config.Bridge.ConnectedMarker = "connected"
	}
}

// ValidateConfig validates the whole configuration structure.
func ValidateConfig(config *Config) error {
	if config == nil {
		return errors.NewValidationError("configuration cannot be nil", nil)
	}
	if config.Supervisor.ListenAddress == "" {
		return errors.NewValidationError("listen_address cannot be empty", nil)
	}
	if config.Supervisor.GracefulTimeout < 0 {
		return errors.NewValidationError("graceful_timeout cannot be negative", nil)
	}
	if len(config.Bridge.BinaryPaths) == 0 {
		return errors.NewValidationError("at least one bridge binary path is required", nil)
	}
	if config.Bridge.SettingsPath == "" {
		return errors.NewValidationError("settings_path cannot be empty", nil)
	}
	return nil
}
