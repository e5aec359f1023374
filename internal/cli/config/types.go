// Package config provides configuration management for the resload CLI.
package config

import "time"

// Default configuration values.
const (
	DefaultAssetsDir = "."
	DefaultTimeout   = 10 * time.Second
	DefaultOutput    = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultPort      = 8765
)

// ServeConfig holds configuration for the dev server.
type ServeConfig struct {
	Port   int  `koanf:"port"`
	Watch  bool `koanf:"watch"`
	Minify bool `koanf:"minify"`
}

// Config holds all CLI configuration options.
type Config struct {
	AssetsDir    string        `koanf:"assets_dir"`
	BaseURL      string        `koanf:"base_url"`
	Timeout      time.Duration `koanf:"timeout"`
	Verbose      bool          `koanf:"verbose"`
	OutputFormat string        `koanf:"output"`
	Serve        ServeConfig   `koanf:"serve"`
}

// Default returns the configuration used when nothing is loaded.
func Default() *Config {
	return &Config{
		AssetsDir:    DefaultAssetsDir,
		Timeout:      DefaultTimeout,
		OutputFormat: DefaultOutput,
		Serve: ServeConfig{
			Port:  DefaultPort,
			Watch: true,
		},
	}
}
