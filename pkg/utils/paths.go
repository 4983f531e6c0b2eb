package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const appDir = "readlater"

// DefaultDBPath returns a system-appropriate default path for the database.
func DefaultDBPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "readlater.db"
	}

	switch runtime.GOOS {
	case "windows":
		return filepath.Join(homeDir, "AppData", "Roaming", appDir, "readlater.db")
	case "darwin":
		return filepath.Join(homeDir, "Library", "Application Support", appDir, "readlater.db")
	default:
		return filepath.Join(homeDir, ".local", "share", appDir, "readlater.db")
	}
}

// ResolveDBPath expands a leading "~/", makes the path absolute and creates
// its parent directory. An empty path resolves to DefaultDBPath.
func ResolveDBPath(providedPath string) (string, error) {
	targetPath := providedPath
	if targetPath == "" {
		targetPath = DefaultDBPath()
	}
	if targetPath == ":memory:" {
		return targetPath, nil
	}

	if strings.HasPrefix(targetPath, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expand %q: %w", targetPath, err)
		}
		targetPath = filepath.Join(homeDir, targetPath[2:])
	}

	absPath, err := filepath.Abs(targetPath)
	if err != nil {
		return "", fmt.Errorf("absolute path for %q: %w", targetPath, err)
	}

	dbDir := filepath.Dir(absPath)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return "", fmt.Errorf("create database directory %q: %w", dbDir, err)
	}
	return absPath, nil
}
