package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Config is the tool configuration, loaded from an optional TOML file with
// CLI flags taking precedence.
type Config struct {
	CacheDir string           `toml:"cache_dir"`
	Log      LogSettings      `toml:"log"`
	Server   ServerSettings   `toml:"server"`
	Analyzer AnalyzerSettings `toml:"analyzer"`
}

type LogSettings struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type ServerSettings struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

type AnalyzerSettings struct {
	Mode     string `toml:"mode"` // standard or ultra
	MaxPages int    `toml:"max_pages"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		CacheDir: ".cache",
		Log: LogSettings{
			Level:  "warn",
			Format: "pretty",
		},
		Server: ServerSettings{
			Host: "127.0.0.1",
			Port: 8750,
		},
		Analyzer: AnalyzerSettings{
			Mode:     "standard",
			MaxPages: 0, // unlimited
		},
	}
}

// Load reads the config file at path, falling back to defaults when the
// file does not exist. A file that exists but fails to parse is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}
