// SPDX-License-Identifier: MPL-2.0

// Package config handles distrocheck configuration using Viper.
//
// Configuration is optional: a missing config file yields the defaults.
// Command-line flags always take precedence over file values.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"
)

const (
	// AppName is the application name, also the config directory name.
	AppName = "distrocheck"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "toml"
)

// Config is the tool configuration.
type Config struct {
	// RepoPath is the default repository root for baseline lookups.
	RepoPath string `mapstructure:"repo_path"`
	// Verbose enables debug logging by default.
	Verbose bool `mapstructure:"verbose"`
	// DiscouragedUnits extends the built-in discouraged systemd unit list
	// with project-specific entries.
	DiscouragedUnits []string `mapstructure:"discouraged_units"`
}

// DefaultConfig returns the built-in defaults. The repository root defaults
// to the parent directory, matching a checkout where the manifest lives in a
// "distributions" subdirectory.
func DefaultConfig() *Config {
	return &Config{RepoPath: ".."}
}

// Dir returns the distrocheck configuration directory using
// platform-specific conventions: Windows uses %APPDATA%, macOS uses
// ~/Library/Application Support, and Linux/others use $XDG_CONFIG_HOME
// (defaulting to ~/.config).
func Dir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default: // Linux and others
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// Load reads the configuration. When path is non-empty it is used
// exclusively and must exist; otherwise the platform config directory is
// searched and a missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("repo_path", defaults.RepoPath)
	v.SetDefault("verbose", defaults.Verbose)
	v.SetDefault("discouraged_units", defaults.DiscouragedUnits)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %q: %w", path, err)
		}
	} else if dir, err := Dir(); err == nil {
		v.AddConfigPath(dir)
		v.SetConfigName(ConfigFileName)
		v.SetConfigType(ConfigFileExt)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}
