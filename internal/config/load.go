package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// EnvConfig names the environment variable that points at a config file.
const EnvConfig = "TREKSCAPE_CONFIG"

// Load loads configuration with priority: defaults < file < flags.
// The result is validated before it is returned.
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
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// findConfigFile looks for config in standard locations. An explicit
// TREKSCAPE_CONFIG wins over the working directory and the user config dir.
func findConfigFile() string {
	var candidates []string
	if env := os.Getenv(EnvConfig); env != "" {
		candidates = append(candidates, env)
	}
	candidates = append(candidates,
		"./config.yaml",
		filepath.Join(ConfigDir(), "config.yaml"),
	)

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
		return filepath.Join(home, "Library", "Application Support", "Trekscape")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "Trekscape")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "trekscape")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "trekscape")
	}
}

// loadFromFile merges a YAML file over cfg. Unknown keys are rejected so a
// misspelt setting does not silently fall back to its default. An empty file
// leaves cfg untouched.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate reports the first setting the scene cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Graphics.Width <= 0 || c.Graphics.Height <= 0:
		return fmt.Errorf("graphics size %dx%d must be positive", c.Graphics.Width, c.Graphics.Height)
	case c.Trek.Path == "":
		return errors.New("trek path is empty")
	case c.Trek.Fill <= 0 || c.Trek.Fill > 1:
		return fmt.Errorf("trek fill %v must be in (0, 1]", c.Trek.Fill)
	case c.Terrain.Rows < 1 || c.Terrain.Cols < 1:
		return fmt.Errorf("terrain grid %dx%d must have at least one cell", c.Terrain.Rows, c.Terrain.Cols)
	case c.Particles.Count < 0:
		return fmt.Errorf("particle count %d is negative", c.Particles.Count)
	case c.Route.Step < 0:
		return fmt.Errorf("route step %d is negative", c.Route.Step)
	case c.Camera.MinDistance > c.Camera.MaxDistance:
		return fmt.Errorf("camera min_distance %v exceeds max_distance %v", c.Camera.MinDistance, c.Camera.MaxDistance)
	}
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging level: %w", err)
	}
	return nil
}
