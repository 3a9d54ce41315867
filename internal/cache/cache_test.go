package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casebook-dev/casebook/internal/models"
)

// testStore creates a temporary test database.
func testStore(t *testing.T) *Store {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")

	s, err := New(DefaultConfig(dbPath))
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Logf("Failed to close test store: %v", err)
		}
	})

	return s
}

// seedProject writes one project with n entries and m assets (plus
// blobs) into the store.
func seedProject(t *testing.T, s *Store, id string, n, m int) {
	t.Helper()

	require.NoError(t, s.PutProject(&models.Project{ID: id, Name: id}))

	for i := 0; i < n; i++ {
		require.NoError(t, s.PutEntry(&models.JournalEntry{
			ProjectID:   id,
			Date:        fmt.Sprintf("2026-01-%02d", i+1),
			RawMarkdown: "day",
		}))
	}
	for i := 0; i < m; i++ {
		filename := fmt.Sprintf("%s-asset-%d.png", id, i)
		require.NoError(t, s.PutAsset(&models.Asset{Filename: filename, ProjectID: id}))
		require.NoError(t, s.PutBlob(&models.AssetBlob{
			Filename: filename, ProjectID: id, MimeType: "image/png", Data: []byte{1, 2, 3},
		}))
	}
}

func TestNew(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "casebook.db")

	s, err := New(DefaultConfig(dbPath))
	require.NoError(t, err)
	defer func() {
		if err := s.Close(); err != nil {
			t.Logf("Failed to close store: %v", err)
		}
	}()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
	assert.Equal(t, dbPath, s.Path())

	// Schema version seeded
	v, err := s.GetSyncMeta(models.SyncMetaSchemaVersion)
	require.NoError(t, err)
	assert.Equal(t, "1", v)
}

func TestDeleteProjectCascade(t *testing.T) {
	s := testStore(t)

	seedProject(t, s, "alpha", 3, 2)
	seedProject(t, s, "beta", 1, 1)

	require.NoError(t, s.DeleteProjectCascade("alpha"))

	// Everything under alpha is gone
	_, err := s.GetProject("alpha")
	assert.ErrorIs(t, err, ErrNotFound)
	entries, err := s.GetEntriesForProject("alpha")
	require.NoError(t, err)
	assert.Empty(t, entries)
	assets, err := s.GetAssetsForProject("alpha")
	require.NoError(t, err)
	assert.Empty(t, assets)

	// Beta untouched
	_, err = s.GetProject("beta")
	require.NoError(t, err)
	entries, err = s.GetEntriesForProject("beta")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestCascadeAtomicity_RollbackOnError(t *testing.T) {
	s := testStore(t)
	seedProject(t, s, "alpha", 2, 2)

	boom := errors.New("mid-cascade failure")

	// Replay the cascade's deletes but fail before commit; nothing may
	// be observable afterwards.
	err := s.Transaction(func(tx *Store) error {
		require.NoError(t, tx.Delete(&models.Project{}, "id = ?", "alpha").Error)
		require.NoError(t, tx.Delete(&models.JournalEntry{}, "project_id = ?", "alpha").Error)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = s.GetProject("alpha")
	require.NoError(t, err)
	entries, err := s.GetEntriesForProject("alpha")
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestClearAll_KeepsQueue(t *testing.T) {
	s := testStore(t)
	seedProject(t, s, "alpha", 1, 1)
	require.NoError(t, s.AddOperation(&models.SyncOperation{
		ID: "op-1", Kind: models.KindProject, Action: models.ActionCreate,
		EntityID: "alpha", ProjectID: "alpha", Status: models.StatusPending,
	}))

	require.NoError(t, s.ClearAll())

	_, err := s.GetProject("alpha")
	assert.ErrorIs(t, err, ErrNotFound)

	op, err := s.GetOperation("op-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, op.Status)
}

func TestGetOrCreateTrackingID_Stable(t *testing.T) {
	s := testStore(t)

	first := s.GetOrCreateTrackingID()
	require.NotEmpty(t, first)
	assert.Equal(t, first, s.GetOrCreateTrackingID())
}
