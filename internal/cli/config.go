package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the user configuration file, read from
// ~/.config/stepgraph/config.toml. Every field has a working zero value, so
// the file is optional and may set any subset of keys. Command-line flags
// override config values.
type Config struct {
	// Head is the default entry node ID.
	Head string `toml:"head"`

	// Layout defaults.
	Width    int    `toml:"width"`
	Height   int    `toml:"height"`
	Margin   int    `toml:"margin"`
	Softness int    `toml:"softness"`
	Squeeze  int    `toml:"squeeze"`
	Seed     uint64 `toml:"seed"`

	// Server holds defaults for the serve command.
	Server ServerConfig `toml:"server"`

	// Mongo enables layout persistence when a URI is set.
	Mongo MongoConfig `toml:"mongo"`

	// Redis switches the cache backend from local files to Redis when an
	// address is set.
	Redis RedisConfig `toml:"redis"`
}

// ServerConfig holds serve command defaults.
type ServerConfig struct {
	Addr  string `toml:"addr"`
	Watch bool   `toml:"watch"`
}

// MongoConfig holds the layout store connection settings.
type MongoConfig struct {
	URI      string `toml:"uri"`
	Database string `toml:"database"`
}

// RedisConfig holds the cache backend connection settings.
type RedisConfig struct {
	Addr string `toml:"addr"`
}

// configPath returns the expected location of the config file.
func configPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// LoadConfig reads the config file at path. A missing file is not an error
// and yields the zero config.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// loadConfigOrDefault loads the user's config file, falling back to the zero
// config on any failure. Config problems should not make the CLI unusable;
// commands that depend on specific values surface their own errors.
func loadConfigOrDefault() *Config {
	path, err := configPath()
	if err != nil {
		return &Config{}
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		return &Config{}
	}
	return cfg
}
