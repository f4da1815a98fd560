// Package config loads the dashboard configuration file and merges it with
// the defaults.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/luki/hasensors/internal/hass"
	"github.com/luki/hasensors/internal/sensor"
)

const (
	// DefaultUpdateInterval is five minutes, in milliseconds.
	DefaultUpdateInterval = 300000
	// DefaultTimeout is the fetch timeout in milliseconds.
	DefaultTimeout = 10000

	// TokenEnv overrides the token from the file.
	TokenEnv = "HASS_TOKEN"
)

// Config is the full set of recognised options. Intervals are in
// milliseconds to stay compatible with existing configuration files.
type Config struct {
	Title              string          `yaml:"title"`
	Host               string          `yaml:"host"`
	Port               string          `yaml:"port"`
	HTTPS              bool            `yaml:"https"`
	Token              string          `yaml:"token"`
	UpdateInterval     int             `yaml:"updateInterval"`
	Timeout            int             `yaml:"timeout"`
	DisplaySymbol      bool            `yaml:"displaySymbol"`
	PrettyName         bool            `yaml:"prettyName"`
	StripName          bool            `yaml:"stripName"`
	ShowUnit           bool            `yaml:"showUnit"`
	DebugLogging       bool            `yaml:"debuglogging"`
	RejectUnauthorized *bool           `yaml:"rejectUnauthorized,omitempty"`
	Values             []sensor.Config `yaml:"values"`
}

// Default returns the configuration used for every option the file leaves out.
func Default() Config {
	return Config{
		Title:          "Home Assistant",
		Host:           "homeassistant.local",
		Port:           "8123",
		UpdateInterval: DefaultUpdateInterval,
		Timeout:        DefaultTimeout,
		DisplaySymbol:  true,
		PrettyName:     true,
		StripName:      true,
		ShowUnit:       true,
	}
}

// Load reads and parses a configuration file. JSON files are accepted too
// since every JSON document is valid YAML.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to read config %s", path)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to parse config %s", path)
	}
	return cfg, nil
}

// Parse decodes a configuration document on top of Default().
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, eris.Wrap(err, "invalid yaml")
	}
	return &cfg, nil
}

// ApplyEnv lets HASS_TOKEN replace the token from the file.
func (c *Config) ApplyEnv() {
	if tok := os.Getenv(TokenEnv); tok != "" {
		c.Token = tok
	}
}

// Validate reports configuration errors that must be fixed before polling.
// Only the token is required.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Token) == "" {
		return eris.Wrap(hass.ErrMissingToken, "invalid configuration")
	}
	return nil
}

// Interval returns the poll interval, falling back to the default for
// values that are not positive.
func (c *Config) Interval() time.Duration {
	return millis(c.UpdateInterval, DefaultUpdateInterval)
}

// FetchTimeout returns the timeout of a single fetch.
func (c *Config) FetchTimeout() time.Duration {
	return millis(c.Timeout, DefaultTimeout)
}

// Endpoint returns the fetch settings.
func (c *Config) Endpoint() hass.Endpoint {
	return hass.Endpoint{
		Host:               c.Host,
		Port:               c.Port,
		HTTPS:              c.HTTPS,
		Token:              c.Token,
		RejectUnauthorized: c.RejectUnauthorized,
		Timeout:            c.FetchTimeout(),
	}
}

// Settings returns the global display settings.
func (c *Config) Settings() sensor.DisplaySettings {
	return sensor.DisplaySettings{
		StripName:     c.StripName,
		PrettyName:    c.PrettyName,
		ShowUnit:      c.ShowUnit,
		DisplaySymbol: c.DisplaySymbol,
	}
}

// Thresholds maps each configured sensor to its alert threshold.
func (c *Config) Thresholds() map[string]sensor.Number {
	out := make(map[string]sensor.Number, len(c.Values))
	for _, v := range c.Values {
		if v.Sensor != "" && v.AlertThreshold.Valid() {
			out[v.Sensor] = v.AlertThreshold
		}
	}
	return out
}

func millis(v, fallback int) time.Duration {
	if v <= 0 {
		v = fallback
	}
	return time.Duration(v) * time.Millisecond
}
