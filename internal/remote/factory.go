package remote

import (
	"fmt"
	"path/filepath"

	"github.com/casebook-dev/casebook/internal/config"
)

// FromConfig constructs the Store selected by the configuration.
func FromConfig(cfg *config.Config) (Store, error) {
	switch cfg.Backend {
	case config.BackendGitHub:
		if err := cfg.GitHub.Validate(); err != nil {
			return nil, err
		}
		return NewGitHubStore(cfg.GitHub.Token, cfg.GitHub.Owner, cfg.GitHub.Repo, cfg.GitHub.RateLimit), nil
	case config.BackendAPI:
		if cfg.API.BaseURL == "" {
			return nil, fmt.Errorf("missing API configuration: set CASEBOOK_API_URL")
		}
		return NewAPIStore(cfg.API.BaseURL, cfg.API.Token), nil
	case config.BackendLocal:
		dir := cfg.Local.Dir
		if dir == "" {
			dir = filepath.Join(cfg.BaseDir, "journal")
		}
		return NewLocalStore(dir, cfg.Local.Author)
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}
