package syncer

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casebook-dev/casebook/internal/cache"
	"github.com/casebook-dev/casebook/internal/models"
)

// seedDivergence caches a project synced at token abc123 while the
// remote has moved on to def456, then queues a local update.
func seedDivergence(t *testing.T, m *Manager, r *fakeRemote, c *cache.Store) string {
	t.Helper()

	r.mu.Lock()
	r.projects["p1"] = &models.Project{ID: "p1", Name: "Remote Name", RemoteSha: "def456"}
	r.mu.Unlock()

	require.NoError(t, c.CacheProjects([]models.Project{{ID: "p1", Name: "Old Name", RemoteSha: "abc123"}}))

	local := &models.Project{ID: "p1", Name: "Local Name", RemoteSha: "abc123"}
	require.NoError(t, c.PutProject(local))

	id, err := m.Enqueue(models.KindProject, models.ActionUpdate, "p1", "p1", local, nil)
	require.NoError(t, err)
	return id
}

func TestDetectConflict_TokenMismatch(t *testing.T) {
	m, r, c := testManager(t)
	ctx := context.Background()

	id := seedDivergence(t, m, r, c)

	conflicts, err := m.ProcessQueue(ctx)
	require.NoError(t, err)
	assert.True(t, conflicts)

	// The update never reached the remote.
	assert.Equal(t, []string{"get-project:p1"}, r.callLog())

	op, err := c.GetOperation(id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, op.Status)
	// A conflict is not a delivery attempt.
	assert.Zero(t, op.Attempts)

	list := m.Conflicts()
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].OperationID)
	assert.Equal(t, "def456", list[0].RemoteSha)

	var localPayload models.Project
	require.NoError(t, json.Unmarshal(list[0].Local, &localPayload))
	assert.Equal(t, "Local Name", localPayload.Name)
	var remotePayload models.Project
	require.NoError(t, json.Unmarshal(list[0].Remote, &remotePayload))
	assert.Equal(t, "Remote Name", remotePayload.Name)
}

func TestDetectConflict_NotAutoRetried(t *testing.T) {
	m, r, c := testManager(t)
	ctx := context.Background()

	seedDivergence(t, m, r, c)

	conflicts, err := m.ProcessQueue(ctx)
	require.NoError(t, err)
	assert.True(t, conflicts)

	// A second pass does not touch the conflicted operation and reports
	// nothing new.
	conflicts, err = m.ProcessQueue(ctx)
	require.NoError(t, err)
	assert.False(t, conflicts)
	assert.Equal(t, []string{"get-project:p1"}, r.callLog())
	assert.Len(t, m.Conflicts(), 1)
}

func TestDetectConflict_NotCountedAsCompletion(t *testing.T) {
	m, r, c := testManager(t)
	ctx := context.Background()

	seedDivergence(t, m, r, c)

	conflicts, err := m.ProcessQueue(ctx)
	require.NoError(t, err)
	assert.True(t, conflicts)

	// A conflicted operation leaves the pending pool but is a failure,
	// not a completion; status counts must reflect that.
	completed, err := c.CountOperations(models.StatusCompleted)
	require.NoError(t, err)
	assert.Zero(t, completed)

	failed, err := c.CountOperations(models.StatusFailed)
	require.NoError(t, err)
	assert.EqualValues(t, 1, failed)
}

func TestDetectConflict_MatchingTokenProceeds(t *testing.T) {
	m, r, c := testManager(t)
	ctx := context.Background()

	r.mu.Lock()
	r.projects["p1"] = &models.Project{ID: "p1", Name: "Same", RemoteSha: "abc123"}
	r.mu.Unlock()
	require.NoError(t, c.CacheProjects([]models.Project{{ID: "p1", Name: "Same", RemoteSha: "abc123"}}))

	_, err := m.Enqueue(models.KindProject, models.ActionUpdate, "p1", "p1",
		&models.Project{ID: "p1", Name: "Edited"}, nil)
	require.NoError(t, err)

	conflicts, err := m.ProcessQueue(ctx)
	require.NoError(t, err)
	assert.False(t, conflicts)
	assert.Equal(t, []string{"get-project:p1", "update-project:p1"}, r.callLog())
}

func TestDetectConflict_RemoteMissingIsNoConflict(t *testing.T) {
	m, r, c := testManager(t)
	ctx := context.Background()

	// Local copy was synced once, but the remote entity is gone.
	require.NoError(t, c.CacheProjects([]models.Project{{ID: "p1", Name: "P", RemoteSha: "abc123"}}))

	_, err := m.Enqueue(models.KindProject, models.ActionUpdate, "p1", "p1",
		&models.Project{ID: "p1", Name: "Edited"}, nil)
	require.NoError(t, err)

	conflicts, err := m.ProcessQueue(ctx)
	require.NoError(t, err)
	assert.False(t, conflicts)

	// Replayed as a create since nothing exists remotely.
	r.mu.Lock()
	created := r.projects["p1"]
	r.mu.Unlock()
	require.NotNil(t, created)
	assert.Equal(t, "Edited", created.Name)
}

func TestDetectConflict_NoLocalTokenIsNoConflict(t *testing.T) {
	m, r, c := testManager(t)
	ctx := context.Background()

	// Remote has the entity, local copy was never synced.
	r.mu.Lock()
	r.projects["p1"] = &models.Project{ID: "p1", Name: "Remote", RemoteSha: "def456"}
	r.mu.Unlock()
	require.NoError(t, c.PutProject(&models.Project{ID: "p1", Name: "Local"}))

	_, err := m.Enqueue(models.KindProject, models.ActionUpdate, "p1", "p1",
		&models.Project{ID: "p1", Name: "Local"}, nil)
	require.NoError(t, err)

	conflicts, err := m.ProcessQueue(ctx)
	require.NoError(t, err)
	assert.False(t, conflicts)
}

func TestResolveKeepLocal_FastForwards(t *testing.T) {
	m, r, c := testManager(t)
	ctx := context.Background()

	id := seedDivergence(t, m, r, c)
	_, err := m.ProcessQueue(ctx)
	require.NoError(t, err)
	require.Len(t, m.Conflicts(), 1)

	require.NoError(t, m.ResolveKeepLocal(id))
	assert.Empty(t, m.Conflicts())

	// The remote token became the new base.
	p, err := c.GetProject("p1")
	require.NoError(t, err)
	assert.Equal(t, "def456", p.RemoteSha)

	op, err := c.GetOperation(id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, op.Status)

	// The next pass fast-forwards the remote to the local edits.
	conflicts, err := m.ProcessQueue(ctx)
	require.NoError(t, err)
	assert.False(t, conflicts)

	r.mu.Lock()
	remoteNow := r.projects["p1"]
	r.mu.Unlock()
	assert.Equal(t, "Local Name", remoteNow.Name)

	op, err = c.GetOperation(id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, op.Status)
}

func TestResolveKeepRemote_DiscardsLocalEdits(t *testing.T) {
	m, r, c := testManager(t)
	ctx := context.Background()

	id := seedDivergence(t, m, r, c)
	_, err := m.ProcessQueue(ctx)
	require.NoError(t, err)
	require.Len(t, m.Conflicts(), 1)

	require.NoError(t, m.ResolveKeepRemote(id))
	assert.Empty(t, m.Conflicts())

	// Cache now mirrors the remote.
	p, err := c.GetProject("p1")
	require.NoError(t, err)
	assert.Equal(t, "Remote Name", p.Name)
	assert.Equal(t, "def456", p.RemoteSha)

	// The local operation is gone.
	_, err = c.GetOperation(id)
	assert.ErrorIs(t, err, cache.ErrNotFound)

	// Nothing was written remotely.
	assert.Equal(t, []string{"get-project:p1"}, r.callLog())
}

func TestConflicts_ResolvedOneAtATime(t *testing.T) {
	m, r, c := testManager(t)
	ctx := context.Background()

	r.mu.Lock()
	r.projects["p1"] = &models.Project{ID: "p1", Name: "R1", RemoteSha: "r1-new"}
	r.entries["p1/2026-01-01"] = &models.JournalEntry{ProjectID: "p1", Date: "2026-01-01", RemoteSha: "e1-new"}
	r.mu.Unlock()

	require.NoError(t, c.CacheProjects([]models.Project{{ID: "p1", Name: "L1", RemoteSha: "r1-old"}}))
	require.NoError(t, c.CacheEntries("p1", []models.JournalEntry{{Date: "2026-01-01", RemoteSha: "e1-old"}}))

	first, err := m.Enqueue(models.KindProject, models.ActionUpdate, "p1", "p1",
		&models.Project{ID: "p1", Name: "L1 edited"}, nil)
	require.NoError(t, err)
	second, err := m.Enqueue(models.KindJournal, models.ActionUpdate, "2026-01-01", "p1",
		&models.JournalEntry{Date: "2026-01-01", RawMarkdown: "edited"}, nil)
	require.NoError(t, err)

	conflicts, err := m.ProcessQueue(ctx)
	require.NoError(t, err)
	assert.True(t, conflicts)

	// Presented in detection order.
	list := m.Conflicts()
	require.Len(t, list, 2)
	assert.Equal(t, first, list[0].OperationID)
	assert.Equal(t, second, list[1].OperationID)

	// Resolving one leaves the other untouched.
	require.NoError(t, m.ResolveKeepRemote(first))
	list = m.Conflicts()
	require.Len(t, list, 1)
	assert.Equal(t, second, list[0].OperationID)
}

func TestMemoryConflicts_Order(t *testing.T) {
	cs := NewMemoryConflicts()
	cs.Add(&models.SyncConflict{OperationID: "a"})
	cs.Add(&models.SyncConflict{OperationID: "b"})
	cs.Add(&models.SyncConflict{OperationID: "c"})
	cs.Remove("b")

	list := cs.List()
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].OperationID)
	assert.Equal(t, "c", list[1].OperationID)

	_, ok := cs.Get("b")
	assert.False(t, ok)
}
