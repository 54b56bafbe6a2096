// Package storage provides persistent storage for transposition table
// snapshots and game statistics.
package storage

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "seega"

// DataDirEnv overrides the platform data directory when set.
const DataDirEnv = "SEEGA_DATA_DIR"

// GetDataDir returns the platform-specific data directory for the application.
// - macOS: ~/Library/Application Support/seega/
// - Linux: ~/.local/share/seega/
// - Windows: %APPDATA%/seega/
//
// $SEEGA_DATA_DIR replaces all of these.
func GetDataDir() (string, error) {
	if dir := os.Getenv(DataDirEnv); dir != "" {
		return dir, os.MkdirAll(dir, 0755)
	}

	var baseDir string

	switch runtime.GOOS {
	case "darwin":
		// macOS: ~/Library/Application Support/
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		baseDir = filepath.Join(homeDir, "Library", "Application Support")

	case "windows":
		// Windows: %APPDATA%
		baseDir = os.Getenv("APPDATA")
		if baseDir == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			baseDir = filepath.Join(homeDir, "AppData", "Roaming")
		}

	default:
		// Linux and other Unix-like: ~/.local/share/
		// Check XDG_DATA_HOME first
		baseDir = os.Getenv("XDG_DATA_HOME")
		if baseDir == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			baseDir = filepath.Join(homeDir, ".local", "share")
		}
	}

	dataDir := filepath.Join(baseDir, appName)

	// Create directory if it doesn't exist
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}

	return dataDir, nil
}

// GetDatabaseDir returns the directory for storing the BadgerDB database.
func GetDatabaseDir() (string, error) {
	dataDir, err := GetDataDir()
	if err != nil {
		return "", err
	}

	dbDir := filepath.Join(dataDir, "db")
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return "", err
	}

	return dbDir, nil
}
