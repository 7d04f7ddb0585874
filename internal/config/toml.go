// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Experiment ExperimentConfig `toml:"experiment"`
	Log        LogConfig        `toml:"log"`
}

// ExperimentConfig maps experiment-related settings. Nil fields are unset.
type ExperimentConfig struct {
	Participant     *int     `toml:"participant"`
	ShapeWidth      *int     `toml:"shape-width"`
	Shapes          *int     `toml:"shapes"`
	Targets         *int     `toml:"targets"`
	ScreenWidth     *int     `toml:"screen-width"`
	ScreenHeight    *int     `toml:"screen-height"`
	Repetitions     *int     `toml:"repetitions"`
	Spacing         *int     `toml:"spacing"`
	Helper          *bool    `toml:"helper"`
	GravityDistance *int     `toml:"gravity"`
	Smoothing       *float64 `toml:"smoothing"`
	TestType        *string  `toml:"test-type"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	Level      string `toml:"level"`
	Format     string `toml:"format"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max-size"`
	MaxBackups int    `toml:"max-backups"`
	MaxAgeDays int    `toml:"max-age"`
	Compress   bool   `toml:"compress"`
}

// DefaultLogConfig returns the logging settings used when the file leaves them unset.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:      "info",
		Format:     "json",
		File:       DefaultLogPath(),
		MaxSizeMB:  10,
		MaxBackups: 3,
		MaxAgeDays: 28,
	}
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	cfg := FileConfig{Log: DefaultLogConfig()}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}
