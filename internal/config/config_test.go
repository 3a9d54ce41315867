package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BackendGitHub, cfg.Backend)
	assert.Equal(t, 20, cfg.GitHub.RateLimit)
	assert.NotEmpty(t, cfg.BaseDir)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CASEBOOK_DIR", "/tmp/cb-test")
	t.Setenv("CASEBOOK_BACKEND", "local")
	t.Setenv("CASEBOOK_AUTHOR", "jo")
	t.Setenv("CASEBOOK_PROBE_INTERVAL", "0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/cb-test", cfg.BaseDir)
	assert.Equal(t, BackendLocal, cfg.Backend)
	assert.Equal(t, "jo", cfg.Local.Author)
	assert.Equal(t, 0, cfg.ProbeIntervalSec)
}

func TestLoad_UnknownBackend(t *testing.T) {
	t.Setenv("CASEBOOK_BACKEND", "dropbox")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_LegacyLocalToggle(t *testing.T) {
	t.Setenv("USE_LOCAL_FILES", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendLocal, cfg.Backend)
}

func TestGitHubConfig_Validate(t *testing.T) {
	g := GitHubConfig{Token: "t", Owner: "o", Repo: "r"}
	assert.NoError(t, g.Validate())

	g.Repo = ""
	assert.Error(t, g.Validate())
}

func TestGetPaths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BaseDir = "/data/casebook"

	paths := GetPaths(cfg)
	assert.Equal(t, filepath.Join("/data/casebook", "casebook.db"), paths.Database)
	assert.Equal(t, filepath.Join("/data/casebook", "journal"), paths.Journal)

	cfg.Local.Dir = "/work/journal"
	assert.Equal(t, "/work/journal", GetPaths(cfg).Journal)
}
