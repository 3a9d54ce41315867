// Package config handles application configuration management.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Backend selects which remote persistence implementation to use.
type Backend string

const (
	// BackendGitHub talks directly to the GitHub contents API.
	BackendGitHub Backend = "github"
	// BackendAPI talks to a hosted casebook REST API.
	BackendAPI Backend = "api"
	// BackendLocal writes to a git repository on the local filesystem
	// (development mode).
	BackendLocal Backend = "local"
)

// Config holds all application configuration.
type Config struct {
	// Base directory for all casebook data (~/.casebook)
	BaseDir string

	// Which remote store backs the sync queue.
	Backend Backend

	GitHub GitHubConfig
	API    APIConfig
	Local  LocalConfig

	// ProbeInterval (seconds) for the connectivity monitor; 0 disables
	// probing and connectivity must be set explicitly.
	ProbeIntervalSec int
}

// GitHubConfig holds GitHub API settings for the journal repository.
type GitHubConfig struct {
	Token string
	Owner string
	Repo  string

	// Requests per minute against the contents API.
	RateLimit int
}

// Validate checks that the GitHub backend is fully configured.
func (g GitHubConfig) Validate() error {
	if g.Token == "" || g.Owner == "" || g.Repo == "" {
		return fmt.Errorf("missing GitHub configuration: set GITHUB_TOKEN, GITHUB_OWNER, and GITHUB_REPO")
	}
	return nil
}

// APIConfig holds settings for the hosted REST API backend.
type APIConfig struct {
	BaseURL string
	Token   string
}

// LocalConfig holds settings for the local filesystem backend.
type LocalConfig struct {
	// Dir is the root of the local journal repository. Defaults to
	// <BaseDir>/journal.
	Dir string
	// Author is used for git commit signatures in local mode.
	Author string
}

// DefaultConfig returns configuration defaults before env overrides.
func DefaultConfig() *Config {
	return &Config{
		BaseDir: DefaultBaseDir(),
		Backend: BackendGitHub,
		GitHub: GitHubConfig{
			RateLimit: 20,
		},
		Local: LocalConfig{
			Author: "casebook",
		},
		ProbeIntervalSec: 30,
	}
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	if dir := os.Getenv("CASEBOOK_DIR"); dir != "" {
		cfg.BaseDir = dir
	}

	if backend := os.Getenv("CASEBOOK_BACKEND"); backend != "" {
		switch Backend(backend) {
		case BackendGitHub, BackendAPI, BackendLocal:
			cfg.Backend = Backend(backend)
		default:
			return nil, fmt.Errorf("unknown backend %q (want github, api, or local)", backend)
		}
	}
	// Legacy toggle from older installs; CASEBOOK_BACKEND wins.
	if os.Getenv("USE_LOCAL_FILES") == "true" && os.Getenv("CASEBOOK_BACKEND") == "" {
		cfg.Backend = BackendLocal
	}

	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		cfg.GitHub.Token = token
	}
	if owner := os.Getenv("GITHUB_OWNER"); owner != "" {
		cfg.GitHub.Owner = owner
	}
	if repo := os.Getenv("GITHUB_REPO"); repo != "" {
		cfg.GitHub.Repo = repo
	}
	if limit := os.Getenv("CASEBOOK_GITHUB_RATE_LIMIT"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil && n > 0 {
			cfg.GitHub.RateLimit = n
		}
	}

	if url := os.Getenv("CASEBOOK_API_URL"); url != "" {
		cfg.API.BaseURL = url
	}
	if token := os.Getenv("CASEBOOK_API_TOKEN"); token != "" {
		cfg.API.Token = token
	}

	if dir := os.Getenv("CASEBOOK_LOCAL_DIR"); dir != "" {
		cfg.Local.Dir = dir
	}
	if author := os.Getenv("CASEBOOK_AUTHOR"); author != "" {
		cfg.Local.Author = author
	}

	if interval := os.Getenv("CASEBOOK_PROBE_INTERVAL"); interval != "" {
		if n, err := strconv.Atoi(interval); err == nil && n >= 0 {
			cfg.ProbeIntervalSec = n
		}
	}

	return cfg, nil
}
