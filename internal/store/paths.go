package store

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// DBFileName is the name of the database created under the refmap home.
const DBFileName = "refmap.db"

// GetRefmapHome returns the root directory for refmap state.
// Priority: $REFMAP_HOME -> $XDG_CACHE_HOME/refmap -> ~/.cache/refmap (Unix) / %LOCALAPPDATA%\refmap (Windows)
func GetRefmapHome() (string, error) {
	if home := os.Getenv("REFMAP_HOME"); home != "" {
		return home, nil
	}

	if runtime.GOOS != "windows" {
		if xdgCache := os.Getenv("XDG_CACHE_HOME"); xdgCache != "" {
			return filepath.Join(xdgCache, "refmap"), nil
		}
	}

	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	switch runtime.GOOS {
	case "windows":
		return filepath.Join(userHome, "AppData", "Local", "refmap"), nil
	default:
		return filepath.Join(userHome, ".cache", "refmap"), nil
	}
}

// DefaultDBPath returns the database path under the refmap home, creating
// the directory if needed.
func DefaultDBPath() (string, error) {
	home, err := GetRefmapHome()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(home, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", home, err)
	}
	return filepath.Join(home, DBFileName), nil
}
