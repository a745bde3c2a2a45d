package config

import (
	"os"
	"path/filepath"
)

const appDir = "bopomofo"

// ConfigDir returns $XDG_CONFIG_HOME/bopomofo, or ~/.config/bopomofo.
func ConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, appDir)
	}
	return filepath.Join(homeDir(), ".config", appDir)
}

// DataDir returns $XDG_DATA_HOME/bopomofo, or ~/.local/share/bopomofo.
func DataDir() string {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, appDir)
	}
	return filepath.Join(homeDir(), ".local", "share", appDir)
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return os.TempDir()
	}
	return home
}

// SupportedConfigFormats returns the config file extensions, in search
// order.
func SupportedConfigFormats() []string {
	return []string{
		"toml",
		"json",
		"yaml",
		"yml",
	}
}

// FindConfigFile returns the first existing config file in the config
// directory, or ConfigPath when there is none.
func FindConfigFile() string {
	dir := ConfigDir()
	for _, ext := range SupportedConfigFormats() {
		path := filepath.Join(dir, "config."+ext)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ConfigPath()
}
