// Package bridge defines the configuration of the external audio bridge
// process and its validation rules.
package bridge

import (
	"fmt"
	"net"

	"github.com/awim-deck/awimd/pkg/errors"
)

// Port bounds accepted for the bridge endpoint. Privileged ports are
// rejected because the bridge runs unprivileged on the console.
const (
	MinPort = 1024
	MaxPort = 65535
)

// Config is the launch configuration of the bridge process. A Config held
// by the supervisor has always passed Validate.
type Config struct {
	Address string `yaml:"address"`
	Port    int    `yaml:"port"`
	TCPMode bool   `yaml:"tcp_mode"`
}

// DefaultConfig returns the configuration used before the operator has
// saved anything.
func DefaultConfig() Config {
	return Config{
		Address: "127.0.0.1",
		Port:    1242,
		TCPMode: false,
	}
}

// ValidAddress reports whether candidate parses as an IPv4 or IPv6 literal.
// No DNS resolution is attempted.
func ValidAddress(candidate string) bool {
	return net.ParseIP(candidate) != nil
}

// ValidPort reports whether candidate is within the accepted port range.
func ValidPort(candidate int) bool {
	return candidate >= MinPort && candidate <= MaxPort
}

// Validate checks the whole configuration and names the offending field.
func (c Config) Validate() error {
	if !ValidAddress(c.Address) {
		return errors.NewValidationError("address must be a valid IPv4 or IPv6 literal", nil).
			WithContext("address", c.Address)
	}
	if !ValidPort(c.Port) {
		return errors.NewValidationError(
			fmt.Sprintf("port must be in range %d-%d", MinPort, MaxPort), nil).
			WithContext("port", c.Port)
	}
	return nil
}
