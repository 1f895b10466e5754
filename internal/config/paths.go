// Package config provides configuration management for fritz-wlan.
package config

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/wlantray/fritz-wlan/internal/constants"
)

// ConfigDirectory returns the directory holding config.json, config.key and
// settings.ini.
//
// Resolution order:
//  1. explicit (e.g. from --config-dir)
//  2. FRITZ_WLAN_CONFIG_DIR environment variable
//  3. Windows: %APPDATA%\fritz-wlan, Unix: $XDG_CONFIG_HOME/fritz-wlan or ~/.config/fritz-wlan
func ConfigDirectory(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv(constants.ConfigDirEnv); env != "" {
		return env
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), constants.AppName)
		}
		if runtime.GOOS == "windows" {
			return filepath.Join(homeDir, "AppData", "Roaming", constants.AppName)
		}
		return filepath.Join(homeDir, ".config", constants.AppName)
	}
	return filepath.Join(configDir, constants.AppName)
}

// LogDirectory returns the log directory for tray and settings modes.
//
// Locations:
//   - Windows: %LOCALAPPDATA%\fritz-wlan\logs
//   - Unix: <config directory>/logs
func LogDirectory(configDir string) string {
	if runtime.GOOS == "windows" {
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			return filepath.Join(localAppData, constants.AppName, "logs")
		}
	}
	return filepath.Join(configDir, "logs")
}

// LogFilePath returns the full path of the tray/settings log file.
func LogFilePath(configDir string) string {
	return filepath.Join(LogDirectory(configDir), constants.LogFileName)
}
