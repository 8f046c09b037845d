// Package config loads the diagnostic/wiring configuration for
// cmd/aautoctl: which transport to open and how. The transport/messenger
// core itself takes no configuration beyond what is wired by its caller
// (spec §6: "There is no CLI, no persisted state, no environment variables
// in the core"); this package only serves the orchestrator built on top,
// mirroring the shape of the teacher's root configuration.go.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Config is the top-level TOML document.
type Config struct {
	Transport TransportConf
	Log       LogConf
}

// TransportConf selects and parameterizes one transport variant.
type TransportConf struct {
	// Kind is "tcp", "usb", or "ws".
	Kind string

	TCP TCPConf
	USB USBConf
}

// TCPConf configures the TCP variant.
type TCPConf struct {
	Host string
	Port int

	// FallbackHosts are tried, in order, after Host fails to dial -- a
	// head unit with both a wired and a wireless projection bridge on the
	// same phone may expose the same port on more than one address.
	FallbackHosts []string
}

// USBConf overrides the default Google vendor/product ids, useful for
// testing against a device already known to be in accessory mode under a
// different product id.
type USBConf struct {
	VendorId  uint16
	ProductId uint16
}

// LogConf configures logrus's level.
type LogConf struct {
	Level string
}

// Load parses filename as TOML into a Config, applying defaults for any
// unset transport parameters.
func Load(filename string) (*Config, error) {
	var c Config
	if _, err := toml.DecodeFile(filename, &c); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	switch c.Transport.Kind {
	case "":
		c.Transport.Kind = "tcp"
	case "tcp", "usb", "ws":
	default:
		return nil, fmt.Errorf("config: unknown transport.kind %q", c.Transport.Kind)
	}

	if c.Transport.Kind == "tcp" {
		if c.Transport.TCP.Port == 0 {
			c.Transport.TCP.Port = DefaultTCPPort
		}
		if c.Transport.TCP.Host == "" {
			c.Transport.TCP.Host = "0.0.0.0"
		}
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	return &c, nil
}

// DefaultTCPPort is the Android Auto wireless TCP port used in practice
// (spec §6).
const DefaultTCPPort = 5277
