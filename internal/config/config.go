package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"
)

// Config represents the optional packup configuration file.
type Config struct {
	Defaults DefaultsConfig `toml:"defaults"`
}

// DefaultsConfig holds persistent flag defaults. Nil means "not set";
// explicit CLI flags always win.
type DefaultsConfig struct {
	Verify       *bool `toml:"verify"`
	VerifyStaged *bool `toml:"verify_staged"`
	Workers      *int  `toml:"workers"`
	Color        *bool `toml:"color"`
	IOURing      *bool `toml:"iouring"`
}

// Path returns the resolved path to the config file.
func Path() string {
	return filepath.Join(xdg.ConfigHome, "packup", "config.toml")
}

// Load reads the config file from the XDG path. Returns a zero Config
// (no error) if the file does not exist. Config is always optional.
func Load() (Config, error) {
	return LoadFrom(Path())
}

// LoadFrom reads a config file from an explicit path.
func LoadFrom(path string) (Config, error) {
	var cfg Config
	_, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, err
	}
	return cfg, nil
}
