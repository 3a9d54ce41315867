package syncer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casebook-dev/casebook/internal/cache"
	"github.com/casebook-dev/casebook/internal/models"
	"github.com/casebook-dev/casebook/internal/netwatch"
)

func TestSlugify(t *testing.T) {
	assert.Equal(t, "checkout-redesign", Slugify("Checkout Redesign"))
	assert.Equal(t, "q3-mobile-app", Slugify("  Q3: Mobile App!  "))
	assert.Equal(t, "a-b", Slugify("a---b"))
	assert.Equal(t, "", Slugify("!!!"))
}

func TestTimestampedFilename(t *testing.T) {
	name := TimestampedFilename("my screen shot.png")
	assert.Regexp(t, `^\d+-my-screen-shot\.png$`, name)

	// Path components are stripped.
	name = TimestampedFilename("../../etc/passwd")
	assert.NotContains(t, name, "/")
}

func TestCreateProject_OptimisticCacheAndQueue(t *testing.T) {
	c := testCache(t)
	r := newFakeRemote()
	mon := netwatch.New(nil, false, 0) // offline
	m := New(c, r, WithMonitor(mon))
	ctx := context.Background()

	p, err := m.CreateProject(ctx, &models.Project{Name: "Checkout Redesign"})
	require.NoError(t, err)
	assert.Equal(t, "checkout-redesign", p.ID)
	assert.NotEmpty(t, p.CreatedAt)

	// Cached immediately, with no remote token yet.
	cached, err := c.GetProject("checkout-redesign")
	require.NoError(t, err)
	assert.False(t, cached.HasRemote())
	assert.Nil(t, cached.SyncedAt)

	// Queued, not synced (offline).
	ops, err := c.ListOperations(models.StatusPending)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, models.KindProject, ops[0].Kind)
	assert.Equal(t, models.ActionCreate, ops[0].Action)
	assert.Empty(t, r.callLog())
}

func TestCreateProject_DuplicateSlug(t *testing.T) {
	m, _, _ := testManager(t)
	ctx := context.Background()

	_, err := m.CreateProject(ctx, &models.Project{Name: "Same Name"})
	require.NoError(t, err)
	_, err = m.CreateProject(ctx, &models.Project{Name: "Same  Name"})
	assert.Error(t, err)
}

func TestCreateProject_OnlineSyncsImmediately(t *testing.T) {
	m, r, c := testManager(t) // no monitor: treated as reachable
	ctx := context.Background()

	_, err := m.CreateProject(ctx, &models.Project{Name: "Checkout Redesign"})
	require.NoError(t, err)

	assert.Equal(t, []string{"create-project:checkout-redesign"}, r.callLog())
	cached, err := c.GetProject("checkout-redesign")
	require.NoError(t, err)
	assert.True(t, cached.HasRemote())
	assert.NotNil(t, cached.SyncedAt)
}

func TestDeleteProject_CascadesAndQueues(t *testing.T) {
	c := testCache(t)
	r := newFakeRemote()
	mon := netwatch.New(nil, false, 0)
	m := New(c, r, WithMonitor(mon))
	ctx := context.Background()

	require.NoError(t, c.PutProject(&models.Project{ID: "p1", Name: "P1"}))
	require.NoError(t, c.PutEntry(&models.JournalEntry{ProjectID: "p1", Date: "2026-01-01"}))
	require.NoError(t, c.PutAsset(&models.Asset{Filename: "1-a.png", ProjectID: "p1"}))

	require.NoError(t, m.DeleteProject(ctx, "p1"))

	_, err := c.GetProject("p1")
	assert.ErrorIs(t, err, cache.ErrNotFound)
	_, err = c.GetEntry("p1", "2026-01-01")
	assert.ErrorIs(t, err, cache.ErrNotFound)
	_, err = c.GetAsset("1-a.png")
	assert.ErrorIs(t, err, cache.ErrNotFound)

	ops, err := c.ListOperations(models.StatusPending)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, models.ActionDelete, ops[0].Action)
}

func TestAddEntry_WithAttachmentChainsDependency(t *testing.T) {
	c := testCache(t)
	r := newFakeRemote()
	mon := netwatch.New(nil, false, 0)
	m := New(c, r, WithMonitor(mon))
	ctx := context.Background()

	e, err := m.AddEntry(ctx, EntryInput{
		ProjectID: "p1",
		Date:      "2026-03-14",
		Tags:      []string{models.TagDecision},
		Content:   models.EntryContent{Decision: "ship"},
		Attachment: &AssetInput{
			Filename: "sketch.png",
			Data:     []byte{1, 2, 3},
			MimeType: "image/png",
			Role:     models.RoleExploration,
		},
	})
	require.NoError(t, err)
	require.Len(t, e.Assets, 1)

	ops, err := c.ListOperations(models.StatusPending)
	require.NoError(t, err)
	require.Len(t, ops, 2)

	// Asset first, entry second, entry depends on asset.
	assert.Equal(t, models.KindAsset, ops[0].Kind)
	assert.Equal(t, models.KindJournal, ops[1].Kind)
	assert.Equal(t, []string{ops[0].ID}, ops[1].DependsOn)

	// Blob staged for later upload.
	blob, err := c.GetBlob(e.Assets[0])
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, blob.Data)
}

func TestAddEntry_SameDateBecomesUpdate(t *testing.T) {
	c := testCache(t)
	r := newFakeRemote()
	mon := netwatch.New(nil, false, 0)
	m := New(c, r, WithMonitor(mon))
	ctx := context.Background()

	_, err := m.AddEntry(ctx, EntryInput{
		ProjectID: "p1", Date: "2026-03-14",
		Content: models.EntryContent{Text: "first"},
	})
	require.NoError(t, err)
	_, err = m.AddEntry(ctx, EntryInput{
		ProjectID: "p1", Date: "2026-03-14",
		Content: models.EntryContent{Text: "second"},
	})
	require.NoError(t, err)

	ops, err := c.ListOperations(models.StatusPending)
	require.NoError(t, err)
	require.Len(t, ops, 2)
	assert.Equal(t, models.ActionCreate, ops[0].Action)
	assert.Equal(t, models.ActionUpdate, ops[1].Action)

	e, err := c.GetEntry("p1", "2026-03-14")
	require.NoError(t, err)
	assert.Equal(t, "second", e.Content.Text)
}

func TestAddEntry_RejectsEmpty(t *testing.T) {
	m, _, _ := testManager(t)

	_, err := m.AddEntry(context.Background(), EntryInput{ProjectID: "p1", Date: "2026-03-14"})
	assert.Error(t, err)
	_, err = m.AddEntry(context.Background(), EntryInput{Date: "2026-03-14", Content: models.EntryContent{Text: "x"}})
	assert.Error(t, err)
}

// The full offline story: author a project, an entry, and an asset
// while offline, then reconnect and watch the queue drain in causal
// order.
func TestOfflineAuthoring_ReplayOnReconnect(t *testing.T) {
	c := testCache(t)
	r := newFakeRemote()
	mon := netwatch.New(nil, false, 0)
	m := New(c, r, WithMonitor(mon))
	ctx := context.Background()

	p, err := m.CreateProject(ctx, &models.Project{Name: "Checkout Redesign"})
	require.NoError(t, err)

	entry, err := m.AddEntry(ctx, EntryInput{
		ProjectID: p.ID,
		Date:      "2026-03-14",
		Content:   models.EntryContent{Decision: "single-page checkout"},
		Attachment: &AssetInput{
			Filename: "flow.png",
			Data:     []byte("png"),
			MimeType: "image/png",
			Role:     models.RoleBefore,
		},
	})
	require.NoError(t, err)

	// Nothing has gone out.
	assert.Empty(t, r.callLog())
	n, err := m.PendingCount()
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	mon.SetOnline(true)

	assert.Equal(t, []string{
		"create-project:" + p.ID,
		"upload-asset:" + p.ID + "/" + entry.Assets[0],
		"put-entry:" + p.ID + "/2026-03-14",
	}, r.callLog())

	n, err = m.PendingCount()
	require.NoError(t, err)
	assert.Zero(t, n)

	// The remote got the blob bytes and the cache holds the tokens.
	r.mu.Lock()
	blob := r.blobs[p.ID+"/"+entry.Assets[0]]
	r.mu.Unlock()
	assert.Equal(t, []byte("png"), blob)

	cached, err := c.GetProject(p.ID)
	require.NoError(t, err)
	assert.True(t, cached.HasRemote())

	// Replaying again is idempotent: the queue is empty.
	conflicts, err := m.ProcessQueue(ctx)
	require.NoError(t, err)
	assert.False(t, conflicts)
	assert.Len(t, r.callLog(), 3)
}
