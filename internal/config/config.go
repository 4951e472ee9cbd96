package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"rehydrator/internal/logging"
)

// DefaultPath is the config file looked up in the working directory when no
// path is given.
const DefaultPath = "rehydrator.toml"

// Formats lists the accepted store.format values.
var Formats = []string{"json", "proto", "bolt"}

type Config struct {
	Store   StoreConfig   `toml:"store"`
	Logging LoggingConfig `toml:"logging"`
}

type StoreConfig struct {
	Dir         string        `toml:"dir"`
	Prefix      string        `toml:"prefix"`
	Format      string        `toml:"format"`
	Lock        bool          `toml:"lock"`
	LockTimeout time.Duration `toml:"lock_timeout"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Defaults returns a Config with sane defaults.
func Defaults() *Config {
	return &Config{
		Store: StoreConfig{
			Dir:         "rehydrator",
			Prefix:      "rehydrator",
			Format:      "json",
			LockTimeout: 5 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a TOML config file over Defaults. An empty path tries
// DefaultPath and silently falls back to defaults when it is missing.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path == "" {
		path = DefaultPath
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("parsing config: unknown key %q", undecoded[0].String())
	}

	cfg.Store.Dir = ExpandHome(cfg.Store.Dir)
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Store.Dir) == "" {
		return errors.New("store.dir must not be empty")
	}
	if c.Store.Prefix == "" {
		return errors.New("store.prefix must not be empty")
	}
	if strings.ContainsAny(c.Store.Prefix, `/\`) {
		return fmt.Errorf("store.prefix %q must not contain path separators", c.Store.Prefix)
	}
	if !validFormat(c.Store.Format) {
		return fmt.Errorf("store.format %q: want one of %s", c.Store.Format, strings.Join(Formats, ", "))
	}
	if c.Store.LockTimeout < 0 {
		return fmt.Errorf("store.lock_timeout %s must not be negative", c.Store.LockTimeout)
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format %q: want text or json", c.Logging.Format)
	}
	return nil
}

func validFormat(f string) bool {
	for _, known := range Formats {
		if f == known {
			return true
		}
	}
	return false
}

// ExpandHome resolves a leading ~/ to the user's home directory.
func ExpandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
