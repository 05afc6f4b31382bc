// Package config loads the clock monitor settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Config is the clockmon configuration file.
//
//	device: /dev/ttyACM0
//	baud: 250000
//	samples: 20
//	interval: 500ms
//	window: 64
type Config struct {
	Device   string        `yaml:"device"`
	Baud     int           `yaml:"baud"`
	Timeout  time.Duration `yaml:"timeout"`
	Samples  int           `yaml:"samples"`
	Interval time.Duration `yaml:"interval"`
	Window   int           `yaml:"window"`
}

// LoadConfig parses YAML and fills in defaults.
func LoadConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(&cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFile reads path. A missing file yields the defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, err
	}
	return LoadConfig(data)
}

// Default returns the configuration used without a file.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Device == "" {
		cfg.Device = "/dev/ttyACM0"
	}
	if cfg.Baud == 0 {
		cfg.Baud = 250000
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = time.Second
	}
	if cfg.Samples == 0 {
		cfg.Samples = 20
	}
	if cfg.Interval == 0 {
		cfg.Interval = 500 * time.Millisecond
	}
	if cfg.Window == 0 {
		cfg.Window = 64
	}
}

func (c *Config) validate() error {
	switch {
	case c.Baud < 0:
		return fmt.Errorf("baud %d: must be positive", c.Baud)
	case c.Samples < 2:
		return fmt.Errorf("samples %d: need at least 2", c.Samples)
	case c.Interval < 0 || c.Timeout < 0:
		return errors.New("interval and timeout must be positive")
	case c.Window < 2:
		return fmt.Errorf("window %d: need at least 2", c.Window)
	}
	return nil
}

// Marshal renders cfg as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
