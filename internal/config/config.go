// Package config provides configuration file parsing for npmmirror.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// FileName is the config file looked up inside Dir().
const FileName = "config.toml"

// Dir returns the npmmirror config directory, respecting XDG_CONFIG_HOME.
// Defaults to ~/.config/npmmirror if XDG_CONFIG_HOME is not set.
func Dir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "npmmirror"), nil
}

// Duration is a time.Duration read from a TOML string such as "90s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Config holds file-level defaults. Zero values mean "not set"; command-line
// flags take precedence over anything here.
type Config struct {
	NPM         string   `toml:"npm"`
	Registry    string   `toml:"registry"`
	MaxDepth    int      `toml:"max_depth"`
	PackTimeout Duration `toml:"pack_timeout"`
	OutputDir   string   `toml:"output_dir"`
	LogFile     string   `toml:"log_file"`
	History     bool     `toml:"history"`
	DB          string   `toml:"db"`
}

// Load reads {dir}/config.toml. A missing file yields an empty Config and
// no error. Unknown keys are rejected so typos surface early.
func Load(dir string) (*Config, error) {
	cfg := &Config{}
	path := filepath.Join(dir, FileName)

	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown key %q in %s", undecoded[0].String(), path)
	}
	if cfg.MaxDepth < 0 {
		return nil, fmt.Errorf("max_depth must not be negative in %s", path)
	}
	return cfg, nil
}

// LoadDefault loads the config file from Dir().
func LoadDefault() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, fmt.Errorf("failed to locate config directory: %w", err)
	}
	return Load(dir)
}

// DataDir returns ~/.npmmirror. The directory is not created; writers
// create it on first use.
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, ".npmmirror"), nil
}

// DBPath returns the history database path: cfg.DB if set, otherwise
// ~/.npmmirror/history.db.
func (c *Config) DBPath() (string, error) {
	if c.DB != "" {
		return c.DB, nil
	}
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}
