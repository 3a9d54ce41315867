package syncer

import (
	"context"
	"errors"
	"fmt"

	"github.com/casebook-dev/casebook/internal/cache"
	"github.com/casebook-dev/casebook/internal/models"
	"github.com/casebook-dev/casebook/internal/remote"
)

// ErrNotCached means the remote was unreachable and the cache has no
// copy either. Distinct from a remote 404, which propagates as
// remote.ErrNotFound.
var ErrNotCached = errors.New("offline and not cached")

// Reads try the remote first, re-cache what they get, and fall back to
// the cached copy when the remote is unreachable. FromCache tells the
// presentation layer to show a staleness indicator.

// ProjectsResult is the outcome of an offline-aware project list read.
type ProjectsResult struct {
	Projects  []models.Project
	FromCache bool
}

// FetchProjects lists all projects.
func (m *Manager) FetchProjects(ctx context.Context) (*ProjectsResult, error) {
	if m.reachable() {
		projects, err := m.remote.ListProjects(ctx)
		if err == nil {
			if cacheErr := m.cache.CacheProjects(projects); cacheErr != nil {
				return nil, cacheErr
			}
			return &ProjectsResult{Projects: projects}, nil
		}
		if !fallbackWorthy(err) {
			return nil, err
		}
	}

	projects, err := m.cache.GetProjects()
	if err != nil {
		return nil, err
	}
	return &ProjectsResult{Projects: projects, FromCache: true}, nil
}

// ProjectResult is the outcome of an offline-aware single-entity read.
type ProjectResult struct {
	Project   *models.Project
	FromCache bool
}

// FetchProject reads one project.
func (m *Manager) FetchProject(ctx context.Context, slug string) (*ProjectResult, error) {
	if m.reachable() {
		p, err := m.remote.GetProject(ctx, slug)
		if err == nil {
			if cacheErr := m.cache.CacheProjects([]models.Project{*p}); cacheErr != nil {
				return nil, cacheErr
			}
			return &ProjectResult{Project: p}, nil
		}
		if !fallbackWorthy(err) {
			return nil, err
		}
	}

	p, err := m.cache.GetProject(slug)
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return nil, fmt.Errorf("project %s: %w", slug, ErrNotCached)
		}
		return nil, err
	}
	return &ProjectResult{Project: p, FromCache: true}, nil
}

// EntriesResult is the outcome of an offline-aware journal list read.
type EntriesResult struct {
	Entries   []models.JournalEntry
	FromCache bool
}

// FetchEntries lists a project's journal entries.
func (m *Manager) FetchEntries(ctx context.Context, projectID string) (*EntriesResult, error) {
	if m.reachable() {
		entries, err := m.remote.ListEntries(ctx, projectID)
		if err == nil {
			if cacheErr := m.cache.CacheEntries(projectID, entries); cacheErr != nil {
				return nil, cacheErr
			}
			return &EntriesResult{Entries: entries}, nil
		}
		if !fallbackWorthy(err) {
			return nil, err
		}
	}

	entries, err := m.cache.GetEntriesForProject(projectID)
	if err != nil {
		return nil, err
	}
	return &EntriesResult{Entries: entries, FromCache: true}, nil
}

// EntryResult is the outcome of an offline-aware single-entry read.
type EntryResult struct {
	Entry     *models.JournalEntry
	FromCache bool
}

// FetchEntry reads one journal entry.
func (m *Manager) FetchEntry(ctx context.Context, projectID, date string) (*EntryResult, error) {
	if m.reachable() {
		e, err := m.remote.GetEntry(ctx, projectID, date)
		if err == nil {
			if cacheErr := m.cache.CacheEntries(projectID, []models.JournalEntry{*e}); cacheErr != nil {
				return nil, cacheErr
			}
			return &EntryResult{Entry: e}, nil
		}
		if !fallbackWorthy(err) {
			return nil, err
		}
	}

	e, err := m.cache.GetEntry(projectID, date)
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return nil, fmt.Errorf("entry %s/%s: %w", projectID, date, ErrNotCached)
		}
		return nil, err
	}
	return &EntryResult{Entry: e, FromCache: true}, nil
}

// AssetsResult is the outcome of an offline-aware asset list read.
type AssetsResult struct {
	Assets    []models.Asset
	FromCache bool
}

// FetchAssets lists a project's assets.
func (m *Manager) FetchAssets(ctx context.Context, projectID string) (*AssetsResult, error) {
	if m.reachable() {
		assets, err := m.remote.ListAssets(ctx, projectID)
		if err == nil {
			if cacheErr := m.cache.CacheAssets(projectID, assets); cacheErr != nil {
				return nil, cacheErr
			}
			return &AssetsResult{Assets: assets}, nil
		}
		if !fallbackWorthy(err) {
			return nil, err
		}
	}

	assets, err := m.cache.GetAssetsForProject(projectID)
	if err != nil {
		return nil, err
	}
	return &AssetsResult{Assets: assets, FromCache: true}, nil
}

// reachable reports whether a remote read should even be attempted.
// Without a monitor the answer is always yes; the failure path falls
// back to the cache anyway.
func (m *Manager) reachable() bool {
	return m.monitor == nil || m.monitor.Online()
}

// fallbackWorthy distinguishes transport failures, which the cache can
// paper over, from authoritative remote answers like "not found" or a
// stale version, which must surface.
func fallbackWorthy(err error) bool {
	return !errors.Is(err, remote.ErrNotFound) && !errors.Is(err, remote.ErrStaleVersion)
}
