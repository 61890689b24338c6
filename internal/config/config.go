// Package config loads the optional ~/.keybox/keybox.conf override file.
// It is a facade/CLI concern only; the core never reads
// configuration itself.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"keybox/internal/keybox"
)

// Config is the parsed contents of keybox.conf.
type Config struct {
	// Path overrides the default keybox file location.
	Path string
}

// Load reads ~/.keybox/keybox.conf if present. A missing file is not an
// error; it just means every field falls back to its default.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("config: resolve home directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(filepath.Join(home, ".keybox", "keybox.conf"))
	v.SetConfigType("toml")

	cfg := &Config{}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok || errors.Is(err, os.ErrNotExist) {
			path, derr := keybox.DefaultPath()
			if derr != nil {
				return nil, derr
			}
			cfg.Path = path
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read keybox.conf: %w", err)
	}

	cfg.Path = v.GetString("keybox.path")
	if cfg.Path == "" {
		path, err := keybox.DefaultPath()
		if err != nil {
			return nil, err
		}
		cfg.Path = path
	}
	return cfg, nil
}
