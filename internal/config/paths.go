// Package config provides configuration management for vselect.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "vselect"

// Paths holds all the path configurations for vselect.
type Paths struct {
	// ConfigDir is the directory for configuration files (~/.config/vselect)
	ConfigDir string

	// DataDir is the directory for data files (~/.local/share/vselect)
	DataDir string

	// StateDir is the directory for logs (~/.local/state/vselect)
	StateDir string
}

// DefaultPaths returns the default paths based on XDG Base Directory spec.
// On Windows, it uses %APPDATA% instead.
func DefaultPaths() *Paths {
	home := homeDir()

	if runtime.GOOS == "windows" {
		appData := os.Getenv("APPDATA")
		if appData == "" {
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			localAppData = filepath.Join(home, "AppData", "Local")
		}

		return &Paths{
			ConfigDir: filepath.Join(appData, appName),
			DataDir:   filepath.Join(localAppData, appName),
			StateDir:  filepath.Join(localAppData, appName, "state"),
		}
	}

	return &Paths{
		ConfigDir: filepath.Join(xdgDir("XDG_CONFIG_HOME", home, ".config"), appName),
		DataDir:   filepath.Join(xdgDir("XDG_DATA_HOME", home, ".local", "share"), appName),
		StateDir:  filepath.Join(xdgDir("XDG_STATE_HOME", home, ".local", "state"), appName),
	}
}

// xdgDir returns $env, or home joined with fallback when it is unset.
func xdgDir(env, home string, fallback ...string) string {
	if v := os.Getenv(env); v != "" {
		return v
	}
	return filepath.Join(append([]string{home}, fallback...)...)
}

// ConfigFile returns the path to the main configuration file: config.yaml, or
// config.toml when only that exists.
func (p *Paths) ConfigFile() string {
	yamlPath := filepath.Join(p.ConfigDir, "config.yaml")
	if _, err := os.Stat(yamlPath); err == nil {
		return yamlPath
	}
	tomlPath := filepath.Join(p.ConfigDir, "config.toml")
	if _, err := os.Stat(tomlPath); err == nil {
		return tomlPath
	}
	return yamlPath
}

// DatabaseFile returns the path to the SQLite database.
func (p *Paths) DatabaseFile() string {
	return filepath.Join(p.DataDir, "selections.db")
}

// LogFile returns the path to the log file.
func (p *Paths) LogFile() string {
	return filepath.Join(p.StateDir, "vselect.log")
}

// EnsureDirectories creates all necessary directories.
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.ConfigDir, p.DataDir, p.StateDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		if runtime.GOOS == "windows" {
			return os.Getenv("USERPROFILE")
		}
		return os.Getenv("HOME")
	}
	return home
}
