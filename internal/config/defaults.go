package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"
)

const appName = "quwei"

// PlatformDataDir returns the platform-specific data directory.
//
// Platform paths:
//   - macOS:   ~/Library/Application Support/quwei/
//   - Linux:   ~/.local/share/quwei/
//   - Windows: %APPDATA%\quwei\
//
// Falls back to ~/.quwei if platform detection fails.
func PlatformDataDir() string {
	switch runtime.GOOS {
	case "darwin":
		return macOSDataDir()
	case "linux":
		return xdgDir("XDG_DATA_HOME", ".local", "share")
	case "windows":
		return windowsDataDir()
	default:
		return fallbackDataDir()
	}
}

// PlatformConfigDir returns the platform-specific config directory.
//
// Platform paths:
//   - macOS:   ~/Library/Application Support/quwei/
//   - Linux:   ~/.config/quwei/
//   - Windows: %APPDATA%\quwei\
func PlatformConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		return macOSDataDir()
	case "linux":
		return xdgDir("XDG_CONFIG_HOME", ".config")
	case "windows":
		return windowsDataDir()
	default:
		return fallbackDataDir()
	}
}

// PlatformLogDir returns the platform-specific log directory.
//
// Platform paths:
//   - macOS:   ~/Library/Logs/quwei/
//   - Linux:   ~/.local/state/quwei/
//   - Windows: %LOCALAPPDATA%\quwei\logs\
func PlatformLogDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Logs", appName)
	case "linux":
		return xdgDir("XDG_STATE_HOME", ".local", "state")
	case "windows":
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			return filepath.Join(localAppData, appName, "logs")
		}
		return filepath.Join(windowsDataDir(), "logs")
	default:
		return filepath.Join(fallbackDataDir(), "logs")
	}
}

// PlatformRuntimeDir returns the directory for lock files.
//
// Platform paths:
//   - Linux:   $XDG_RUNTIME_DIR/quwei/ or /tmp/quwei-$UID/
//   - others:  /tmp/quwei-$UID/
func PlatformRuntimeDir() string {
	if runtime.GOOS == "linux" {
		if xdgRuntime := os.Getenv("XDG_RUNTIME_DIR"); xdgRuntime != "" {
			return filepath.Join(xdgRuntime, appName)
		}
	}
	return filepath.Join(os.TempDir(), appName+"-"+strconv.Itoa(os.Getuid()))
}

// xdgDir resolves an XDG base directory, falling back to a path under $HOME.
func xdgDir(env string, fallback ...string) string {
	if v := os.Getenv(env); v != "" {
		return filepath.Join(v, appName)
	}
	home, _ := os.UserHomeDir()
	parts := append([]string{home}, fallback...)
	return filepath.Join(append(parts, appName)...)
}

func macOSDataDir() string {
	home := os.Getenv("HOME")
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	return filepath.Join(home, "Library", "Application Support", appName)
}

func windowsDataDir() string {
	if appData := os.Getenv("APPDATA"); appData != "" {
		return filepath.Join(appData, appName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, "AppData", "Roaming", appName)
}

func fallbackDataDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, "."+appName)
}

// SupportedConfigFormats returns the list of supported config file formats.
func SupportedConfigFormats() []string {
	return []string{
		"toml",
		"json",
		"yaml",
		"yml",
	}
}

// findConfigFile returns the first config.<ext> in dir, in
// SupportedConfigFormats order, or "" when there is none.
func findConfigFile(dir string) string {
	for _, ext := range SupportedConfigFormats() {
		path := filepath.Join(dir, "config."+ext)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
