package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by Validate failures.
var ErrInvalid = errors.New("invalid config")

// Load loads configuration with priority: defaults < file < flags.
func Load() (*Config, error) {
	cfg := Default()

	configPath := ConfigPath()
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	applyFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise surface as asset bake failures.
func (c *Config) Validate() error {
	if c.Assets.PositionScale <= 0 {
		return fmt.Errorf("%w: assets.position_scale must be positive, got %v", ErrInvalid, c.Assets.PositionScale)
	}
	if c.Assets.PositionBound <= 0 || c.Assets.PositionBound > 127 {
		return fmt.Errorf("%w: assets.position_bound must be in 1..127, got %d", ErrInvalid, c.Assets.PositionBound)
	}
	if c.Assets.GeometryExt == "" || c.Assets.ImageExt == "" {
		return fmt.Errorf("%w: assets.geometry_ext and assets.image_ext are required", ErrInvalid)
	}
	if c.Graphics.Width <= 0 || c.Graphics.Height <= 0 {
		return fmt.Errorf("%w: graphics size %dx%d", ErrInvalid, c.Graphics.Width, c.Graphics.Height)
	}
	return nil
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./lilcraft.yaml",
		filepath.Join(ConfigDir(), "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "lilcraft")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "lilcraft")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "lilcraft")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "lilcraft")
	}
}

// loadFromFile loads config from a YAML file, merging with existing values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}
