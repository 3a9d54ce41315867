package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casebook-dev/casebook/internal/models"
)

func TestCacheProjects_StampsSyncedAt(t *testing.T) {
	s := testStore(t)

	require.NoError(t, s.CacheProjects([]models.Project{
		{ID: "alpha", Name: "Alpha", RemoteSha: "abc123"},
	}))

	p, err := s.GetProject("alpha")
	require.NoError(t, err)
	require.NotNil(t, p.SyncedAt)
	assert.Equal(t, "abc123", p.RemoteSha)
}

func TestPutProject_LeavesSyncedAtUnset(t *testing.T) {
	s := testStore(t)

	require.NoError(t, s.PutProject(&models.Project{ID: "local-only", Name: "Local"}))

	p, err := s.GetProject("local-only")
	require.NoError(t, err)
	assert.Nil(t, p.SyncedAt)
	assert.False(t, p.HasRemote())
}

func TestSetProjectSha(t *testing.T) {
	s := testStore(t)
	require.NoError(t, s.PutProject(&models.Project{ID: "alpha", Name: "Alpha", ProblemSpace: "space"}))

	require.NoError(t, s.SetProjectSha("alpha", "def456"))

	p, err := s.GetProject("alpha")
	require.NoError(t, err)
	assert.Equal(t, "def456", p.RemoteSha)
	// Content untouched
	assert.Equal(t, "space", p.ProblemSpace)
}

func TestJournalCompoundKey(t *testing.T) {
	s := testStore(t)

	// Same date in two projects must coexist.
	require.NoError(t, s.PutEntry(&models.JournalEntry{ProjectID: "alpha", Date: "2026-02-01", RawMarkdown: "a"}))
	require.NoError(t, s.PutEntry(&models.JournalEntry{ProjectID: "beta", Date: "2026-02-01", RawMarkdown: "b"}))

	e, err := s.GetEntry("beta", "2026-02-01")
	require.NoError(t, err)
	assert.Equal(t, "b", e.RawMarkdown)

	// Re-put replaces within the same project.
	require.NoError(t, s.PutEntry(&models.JournalEntry{ProjectID: "alpha", Date: "2026-02-01", RawMarkdown: "a2"}))
	e, err = s.GetEntry("alpha", "2026-02-01")
	require.NoError(t, err)
	assert.Equal(t, "a2", e.RawMarkdown)

	entries, err := s.GetEntriesForProject("alpha")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestGetEntriesForProject_NewestFirst(t *testing.T) {
	s := testStore(t)
	require.NoError(t, s.CacheEntries("alpha", []models.JournalEntry{
		{Date: "2026-01-05"},
		{Date: "2026-02-01"},
		{Date: "2026-01-20"},
	}))

	entries, err := s.GetEntriesForProject("alpha")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "2026-02-01", entries[0].Date)
	assert.Equal(t, "2026-01-05", entries[2].Date)
	assert.NotNil(t, entries[0].SyncedAt)
}

func TestAssetBlobRoundTrip(t *testing.T) {
	s := testStore(t)

	require.NoError(t, s.PutBlob(&models.AssetBlob{
		Filename:  "1756000000000-sketch.png",
		ProjectID: "alpha",
		MimeType:  "image/png",
		Data:      []byte{0x89, 'P', 'N', 'G'},
	}))

	b, err := s.GetBlob("1756000000000-sketch.png")
	require.NoError(t, err)
	assert.Equal(t, "image/png", b.MimeType)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, b.Data)

	_, err = s.GetBlob("nope.png")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteAsset_RemovesBlob(t *testing.T) {
	s := testStore(t)
	require.NoError(t, s.PutAsset(&models.Asset{Filename: "x.png", ProjectID: "alpha"}))
	require.NoError(t, s.PutBlob(&models.AssetBlob{Filename: "x.png", ProjectID: "alpha", Data: []byte{1}}))

	require.NoError(t, s.DeleteAsset("x.png"))

	_, err := s.GetAsset("x.png")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetBlob("x.png")
	assert.ErrorIs(t, err, ErrNotFound)
}
