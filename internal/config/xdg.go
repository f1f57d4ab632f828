// Package config provides XDG path helpers.
package config

import (
	"os"
	"path/filepath"
)

const appDir = "koch"

// XDGConfigHome returns the XDG config home or a default fallback.
func XDGConfigHome() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".config")
}

// XDGDataHome returns the XDG data home or a default fallback.
func XDGDataHome() string {
	if v := os.Getenv("XDG_DATA_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".local", "share")
}

// XDGStateHome returns the XDG state home or a default fallback.
func XDGStateHome() string {
	if v := os.Getenv("XDG_STATE_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".local", "state")
}

// DefaultMaterialsDir returns the default lesson materials directory.
func DefaultMaterialsDir() string {
	return filepath.Join(XDGDataHome(), appDir, "Resource")
}

// DefaultStatsPath returns the default statistics location for a backend.
func DefaultStatsPath(backend string) string {
	switch backend {
	case "sqlite":
		return filepath.Join(XDGDataHome(), appDir, "statistics.db")
	case "badger":
		return filepath.Join(XDGDataHome(), appDir, "statistics.badger")
	default:
		return filepath.Join(XDGDataHome(), appDir, "statistics.json")
	}
}

// DefaultLogPath returns the default log file path.
func DefaultLogPath() string {
	return filepath.Join(XDGStateHome(), appDir, "koch.log")
}

// DefaultConfigPath returns the default TOML config path.
func DefaultConfigPath() string {
	return filepath.Join(XDGConfigHome(), appDir, "config.toml")
}

// DefaultUserConfigPath returns the default JSON user config path.
func DefaultUserConfigPath() string {
	return filepath.Join(XDGConfigHome(), appDir, "user.json")
}
