// Package config loads the service's YAML configuration: listen
// address, gcode storage directory, and the default kinematic profile
// new estimator.Estimator instances are seeded with.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/john/gcodetime/dialect"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Profile ProfileConfig `yaml:"profile"`
	Files   FilesConfig   `yaml:"files"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// ProfileConfig is the default kinematic profile (spec.md §6) applied
// to every Estimator the service creates, before any per-request
// override. Zero values mean "use the built-in Marlin default" for
// that field.
type ProfileConfig struct {
	Dialect      string  `yaml:"dialect"`
	Junction     string  `yaml:"junction"`
	Acceleration float64 `yaml:"acceleration"`
	Axis         struct {
		X AxisLimits `yaml:"x"`
		Y AxisLimits `yaml:"y"`
		Z AxisLimits `yaml:"z"`
		E AxisLimits `yaml:"e"`
	} `yaml:"axis"`
}

type AxisLimits struct {
	MaxFeedrate     float64 `yaml:"max_feedrate"`
	MaxAcceleration float64 `yaml:"max_acceleration"`
	MaxJerk         float64 `yaml:"max_jerk"`
}

type FilesConfig struct {
	// GCodeDir is the local directory for storing uploaded gcode files.
	GCodeDir string `yaml:"gcode_dir"`
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 7125,
		},
		Profile: ProfileConfig{
			Dialect:  dialect.Marlin.String(),
			Junction: "jerk",
		},
		Files: FilesConfig{
			GCodeDir: "gcodes",
		},
	}
}

func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if !filepath.IsAbs(cfg.Files.GCodeDir) {
		dir, _ := os.Getwd()
		cfg.Files.GCodeDir = filepath.Join(dir, cfg.Files.GCodeDir)
	}

	return cfg, nil
}

func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
