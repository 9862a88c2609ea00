// Package config handles configuration loading and validation for askd.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// PlatformDataDir returns the platform-specific data directory.
//
// Platform paths:
//   - macOS:   ~/Library/Application Support/askd/
//   - Linux:   ~/.local/share/askd/
//   - Windows: %APPDATA%\askd\
//
// Falls back to ~/.askd if platform detection fails.
func PlatformDataDir() string {
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir(), "Library", "Application Support", "askd")
	case "linux":
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, "askd")
		}
		return filepath.Join(homeDir(), ".local", "share", "askd")
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "askd")
		}
		return fallbackDataDir()
	default:
		return fallbackDataDir()
	}
}

// PlatformConfigDir returns the platform-specific config directory.
//
// Platform paths:
//   - macOS:   ~/Library/Application Support/askd/
//   - Linux:   ~/.config/askd/
//   - Windows: %APPDATA%\askd\
func PlatformConfigDir() string {
	switch runtime.GOOS {
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "askd")
		}
		return filepath.Join(homeDir(), ".config", "askd")
	default:
		// macOS and Windows keep config next to data.
		return PlatformDataDir()
	}
}

// PlatformLogDir returns the platform-specific log directory.
//
// Platform paths:
//   - macOS:   ~/Library/Logs/askd/
//   - Linux:   ~/.local/share/askd/logs/
//   - Windows: %LOCALAPPDATA%\askd\logs\
func PlatformLogDir() string {
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir(), "Library", "Logs", "askd")
	case "windows":
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			return filepath.Join(localAppData, "askd", "logs")
		}
		return filepath.Join(fallbackDataDir(), "logs")
	default:
		return filepath.Join(PlatformDataDir(), "logs")
	}
}

// PlatformRuntimeDir returns the platform-specific runtime directory
// for sockets.
func PlatformRuntimeDir() string {
	if runtime.GOOS == "linux" {
		if xdgRuntime := os.Getenv("XDG_RUNTIME_DIR"); xdgRuntime != "" {
			return filepath.Join(xdgRuntime, "askd")
		}
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("askd-%d", os.Getuid()))
}

func defaultSocketPath() string {
	if runtime.GOOS == "windows" {
		return `\\.\pipe\askd`
	}
	return filepath.Join(PlatformRuntimeDir(), "askd.sock")
}

func homeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	home, _ := os.UserHomeDir()
	return home
}

func fallbackDataDir() string {
	return filepath.Join(homeDir(), ".askd")
}
