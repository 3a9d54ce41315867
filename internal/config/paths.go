package config

import (
	"os"
	"path/filepath"
)

// Paths contains commonly used file paths.
type Paths struct {
	Database string // Main SQLite cache database
	Logs     string // Log directory
	Journal  string // Local-mode journal repository
}

// GetPaths returns all commonly used paths based on config.
func GetPaths(cfg *Config) Paths {
	journal := cfg.Local.Dir
	if journal == "" {
		journal = filepath.Join(cfg.BaseDir, "journal")
	}
	return Paths{
		Database: filepath.Join(cfg.BaseDir, "casebook.db"),
		Logs:     filepath.Join(cfg.BaseDir, "logs"),
		Journal:  journal,
	}
}

// DefaultBaseDir returns the default base directory (~/.casebook).
func DefaultBaseDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".casebook"
	}
	return filepath.Join(home, ".casebook")
}
