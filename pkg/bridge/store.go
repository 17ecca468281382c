package bridge

import (
	"os"
	"path/filepath"

	"github.com/awim-deck/awimd/pkg/errors"
	"github.com/awim-deck/awimd/pkg/logging"

	"gopkg.in/yaml.v3"
)

// Store persists the last-known bridge configuration to a YAML settings
// file so it survives daemon restarts.
type Store struct {
	path   string
	logger logging.Logger
}

func NewStore(path string, logger logging.Logger) *Store {
	return &Store{
		path:   path,
		logger: logger,
	}
}

// persistedConfig uses pointers to distinguish absent fields from zero values
type persistedConfig struct {
	Address *string `yaml:"address"`
	Port    *int    `yaml:"port"`
	TCPMode *bool   `yaml:"tcp_mode"`
}

// Load reads the settings file and returns a validated configuration.
// A missing, unreadable or partially invalid file degrades to defaults
// field by field; Load never returns an invalid Config.
func (s *Store) Load() Config {
	config := DefaultConfig()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warnf("Failed to read settings file %s: %v", s.path, err)
		}
		return config
	}

	var persisted persistedConfig
	if err := yaml.Unmarshal(data, &persisted); err != nil {
		s.logger.Warnf("Failed to parse settings file %s: %v", s.path, err)
		return config
	}

	if persisted.Address != nil {
		if ValidAddress(*persisted.Address) {
			config.Address = *persisted.Address
		} else {
			s.logger.Warnf("Ignoring invalid persisted address: %s", *persisted.Address)
		}
	}
	if persisted.Port != nil {
		if ValidPort(*persisted.Port) {
			config.Port = *persisted.Port
		} else {
			s.logger.Warnf("Ignoring invalid persisted port: %d", *persisted.Port)
		}
	}
	if persisted.TCPMode != nil {
		config.TCPMode = *persisted.TCPMode
	}

	return config
}

// Save writes the configuration to the settings file, creating the parent
// directory if needed.
func (s *Store) Save(config Config) error {
	if err := config.Validate(); err != nil {
		return errors.NewValidationError("refusing to persist invalid configuration", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return errors.NewInternalError("failed to marshal settings", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return errors.NewIOError("failed to create settings directory", err).
			WithContext("path", s.path)
	}

	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return errors.NewIOError("failed to write settings file", err).
			WithContext("path", s.path)
	}

	return nil
}
