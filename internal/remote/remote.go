// Package remote defines the persistence boundary the sync queue
// replays against, plus its three implementations: the GitHub contents
// API, a hosted casebook REST API, and a local git repository for
// development.
//
// Every entity representation returned from a Store carries an opaque
// version token (RemoteSha). Mutating an existing entity requires the
// token the caller last observed; a store rejects the write when the
// token is stale. This compare-and-swap contract is the one piece of
// remote behavior conflict detection depends on.
package remote

import (
	"context"
	"errors"

	"github.com/casebook-dev/casebook/internal/models"
)

var (
	// ErrNotFound means the entity has no remote counterpart.
	ErrNotFound = errors.New("remote: not found")

	// ErrStaleVersion means the supplied base version token no longer
	// matches the remote entity.
	ErrStaleVersion = errors.New("remote: stale version token")
)

// Store is the remote persistence API consumed by the sync queue and
// the offline-aware reads.
type Store interface {
	// Ping reports whether the remote is reachable; used by the
	// connectivity monitor.
	Ping(ctx context.Context) error

	ListProjects(ctx context.Context) ([]models.Project, error)
	GetProject(ctx context.Context, slug string) (*models.Project, error)
	CreateProject(ctx context.Context, p *models.Project) (*models.Project, error)
	// UpdateProject succeeds only if baseSha matches the remote's
	// current token for the project.
	UpdateProject(ctx context.Context, p *models.Project, baseSha string) (*models.Project, error)
	DeleteProject(ctx context.Context, slug string) error

	ListEntries(ctx context.Context, project string) ([]models.JournalEntry, error)
	GetEntry(ctx context.Context, project, date string) (*models.JournalEntry, error)
	// PutEntry creates or overwrites an entry. baseSha is empty for a
	// first write and must match the current token otherwise.
	PutEntry(ctx context.Context, project string, e *models.JournalEntry, baseSha string) (*models.JournalEntry, error)
	DeleteEntry(ctx context.Context, project, date, baseSha string) error

	ListAssets(ctx context.Context, project string) ([]models.Asset, error)
	GetAsset(ctx context.Context, project, filename string) (*models.Asset, error)
	UploadAsset(ctx context.Context, project string, meta *models.Asset, data []byte) (*models.Asset, error)
	DeleteAsset(ctx context.Context, project, filename string) error
}

// IsNotFound reports whether err means the entity is absent remotely,
// which conflict detection treats as "safe to create".
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
