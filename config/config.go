package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ControllerModel identifies the kind of controller on a port
type ControllerModel string

const (
	ControllerAPC40 ControllerModel = "apc40"
	ControllerAPC20 ControllerModel = "apc20"
)

// ControllerConfig defines a saved controller configuration
type ControllerConfig struct {
	PortName    string          `yaml:"portName"`
	Model       ControllerModel `yaml:"model"`
	AutoConnect bool            `yaml:"autoConnect"`
}

// SynthOutputConfig defines the port notes are sent to
type SynthOutputConfig struct {
	PortName string `yaml:"portName,omitempty"`
}

// KeyboardConfig defines the input port recorded from
type KeyboardConfig struct {
	PortName string `yaml:"portName,omitempty"`
}

// DebugConfig controls the debug log
type DebugConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"`
}

// Config is the main configuration structure
type Config struct {
	FrameRate    uint32             `yaml:"frameRate"`
	BufferSize   uint32             `yaml:"bufferSize"`
	BPM          float64            `yaml:"bpm"`
	AutoDetect   bool               `yaml:"autoDetect"`
	PollInterval time.Duration      `yaml:"pollInterval"` // between scans for plugged ports
	SynthOutput  SynthOutputConfig  `yaml:"synthOutput,omitempty"`
	Keyboard     KeyboardConfig     `yaml:"keyboard,omitempty"`
	Controllers  []ControllerConfig `yaml:"controllers,omitempty"`
	Debug        DebugConfig        `yaml:"debug"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		FrameRate:    48000,
		BufferSize:   256,
		BPM:          120,
		AutoDetect:   true,
		PollInterval: time.Second,
		Controllers: []ControllerConfig{
			{PortName: "Akai APC40", Model: ControllerAPC40, AutoConnect: true},
			{PortName: "Akai APC20", Model: ControllerAPC20, AutoConnect: true},
		},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "apc-sequence"), nil
}

// ConfigPath returns the full path to config.yaml
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the config from the default path, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFile(path)
}

// LoadFile reads a config file. Missing fields keep their defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the values the engine cannot run with
func (c *Config) Validate() error {
	if c.FrameRate == 0 {
		return errors.New("frameRate must be positive")
	}
	if c.BufferSize == 0 || c.BufferSize > c.FrameRate {
		return fmt.Errorf("bufferSize %d out of range", c.BufferSize)
	}
	if c.PollInterval < 10*time.Millisecond {
		return fmt.Errorf("pollInterval %s too short", c.PollInterval)
	}
	if c.BPM <= 0 {
		return fmt.Errorf("bpm %v out of range", c.BPM)
	}
	for _, ctrl := range c.Controllers {
		switch ctrl.Model {
		case ControllerAPC40, ControllerAPC20:
		default:
			return fmt.Errorf("controller %q: unknown model %q", ctrl.PortName, ctrl.Model)
		}
	}
	return nil
}

// Save writes the config to the default path
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveFile(path)
}

// SaveFile writes the config to path, creating its directory
func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// FindController finds a controller config by port name (case-insensitive)
func (c *Config) FindController(portName string) *ControllerConfig {
	for i := range c.Controllers {
		if strings.EqualFold(c.Controllers[i].PortName, portName) {
			return &c.Controllers[i]
		}
	}
	return nil
}

// AddController adds or updates a controller config
func (c *Config) AddController(ctrl ControllerConfig) {
	if existing := c.FindController(ctrl.PortName); existing != nil {
		*existing = ctrl
		return
	}
	c.Controllers = append(c.Controllers, ctrl)
}

// AutoConnectControllers returns controllers with autoConnect enabled
func (c *Config) AutoConnectControllers() []ControllerConfig {
	var result []ControllerConfig
	for _, ctrl := range c.Controllers {
		if ctrl.AutoConnect {
			result = append(result, ctrl)
		}
	}
	return result
}
