package syncer

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/casebook-dev/casebook/internal/models"
	"github.com/casebook-dev/casebook/internal/remote"
)

// ConflictStore holds detected conflicts for the current session.
// Conflicts are deliberately not persisted: after a restart the next
// replay pass re-detects any divergence that still exists, so stored
// records could only ever be stale.
type ConflictStore interface {
	Add(c *models.SyncConflict)
	Get(operationID string) (*models.SyncConflict, bool)
	// List returns conflicts in detection order.
	List() []*models.SyncConflict
	Remove(operationID string)
}

// MemoryConflicts is the in-memory ConflictStore used in production.
type MemoryConflicts struct {
	mu    sync.Mutex
	byOp  map[string]*models.SyncConflict
	order []string
}

// NewMemoryConflicts creates an empty conflict store.
func NewMemoryConflicts() *MemoryConflicts {
	return &MemoryConflicts{byOp: make(map[string]*models.SyncConflict)}
}

func (m *MemoryConflicts) Add(c *models.SyncConflict) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byOp[c.OperationID]; !exists {
		m.order = append(m.order, c.OperationID)
	}
	m.byOp[c.OperationID] = c
}

func (m *MemoryConflicts) Get(operationID string) (*models.SyncConflict, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byOp[operationID]
	return c, ok
}

func (m *MemoryConflicts) List() []*models.SyncConflict {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.SyncConflict, 0, len(m.order))
	for _, id := range m.order {
		if c, ok := m.byOp[id]; ok {
			out = append(out, c)
		}
	}
	return out
}

func (m *MemoryConflicts) Remove(operationID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byOp, operationID)
	for i, id := range m.order {
		if id == operationID {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

// detectConflict checks an update operation against the remote's
// current state. It returns a conflict when the remote entity has
// moved past the version the operation was based on, nil otherwise.
//
// A missing remote entity is never a conflict (safe to create), and
// neither is a missing local token (first sync of a locally originated
// entity).
func (m *Manager) detectConflict(ctx context.Context, op *models.SyncOperation) (*models.SyncConflict, error) {
	if op.Action != models.ActionUpdate {
		return nil, nil
	}

	var (
		remotePayload []byte
		remoteSha     string
	)
	switch op.Kind {
	case models.KindProject:
		p, err := m.remote.GetProject(ctx, op.EntityID)
		if err != nil {
			if remote.IsNotFound(err) {
				return nil, nil
			}
			return nil, err
		}
		remoteSha = p.RemoteSha
		remotePayload, err = json.Marshal(p)
		if err != nil {
			return nil, err
		}
	case models.KindJournal:
		e, err := m.remote.GetEntry(ctx, op.ProjectID, op.EntityID)
		if err != nil {
			if remote.IsNotFound(err) {
				return nil, nil
			}
			return nil, err
		}
		remoteSha = e.RemoteSha
		remotePayload, err = json.Marshal(e)
		if err != nil {
			return nil, err
		}
	default:
		return nil, nil
	}

	localSha, err := m.localSha(op)
	if err != nil {
		return nil, err
	}
	if localSha == "" || localSha == remoteSha {
		return nil, nil
	}

	return &models.SyncConflict{
		OperationID: op.ID,
		Kind:        op.Kind,
		EntityID:    op.EntityID,
		ProjectID:   op.ProjectID,
		Local:       op.Payload,
		Remote:      remotePayload,
		RemoteSha:   remoteSha,
		DetectedAt:  time.Now(),
	}, nil
}

// localSha returns the version token recorded for the operation's
// target entity at its last successful sync.
func (m *Manager) localSha(op *models.SyncOperation) (string, error) {
	switch op.Kind {
	case models.KindProject:
		p, err := m.cache.GetProject(op.EntityID)
		if err != nil {
			return "", ignoreCacheMiss(err)
		}
		return p.RemoteSha, nil
	case models.KindJournal:
		e, err := m.cache.GetEntry(op.ProjectID, op.EntityID)
		if err != nil {
			return "", ignoreCacheMiss(err)
		}
		return e.RemoteSha, nil
	case models.KindAsset:
		a, err := m.cache.GetAsset(op.EntityID)
		if err != nil {
			return "", ignoreCacheMiss(err)
		}
		return a.RemoteSha, nil
	}
	return "", nil
}

// Conflicts returns the currently unresolved conflicts in detection
// order.
func (m *Manager) Conflicts() []*models.SyncConflict {
	return m.conflicts.List()
}

// ResolveKeepLocal keeps the local edits: the fetched remote token
// becomes the operation's new base, so the next replay overwrites the
// remote as a fast-forward. The operation goes back to pending.
func (m *Manager) ResolveKeepLocal(operationID string) error {
	c, ok := m.conflicts.Get(operationID)
	if !ok {
		return fmt.Errorf("no conflict recorded for operation %s", operationID)
	}

	var err error
	switch c.Kind {
	case models.KindProject:
		err = m.cache.SetProjectSha(c.EntityID, c.RemoteSha)
	case models.KindJournal:
		err = m.cache.SetEntrySha(c.ProjectID, c.EntityID, c.RemoteSha)
	case models.KindAsset:
		err = m.cache.SetAssetSha(c.EntityID, c.RemoteSha)
	}
	if err != nil {
		return fmt.Errorf("adopt remote token: %w", err)
	}

	if err := m.cache.MarkPending(operationID); err != nil {
		return err
	}
	m.conflicts.Remove(operationID)
	return nil
}

// ResolveKeepRemote discards the local edits: the cached entity is
// overwritten with the fetched remote state and the pending operation
// is deleted.
func (m *Manager) ResolveKeepRemote(operationID string) error {
	c, ok := m.conflicts.Get(operationID)
	if !ok {
		return fmt.Errorf("no conflict recorded for operation %s", operationID)
	}

	switch c.Kind {
	case models.KindProject:
		var p models.Project
		if err := json.Unmarshal(c.Remote, &p); err != nil {
			return fmt.Errorf("decode remote project: %w", err)
		}
		p.ID = c.EntityID
		p.RemoteSha = c.RemoteSha
		if err := m.cache.CacheProjects([]models.Project{p}); err != nil {
			return err
		}
	case models.KindJournal:
		var e models.JournalEntry
		if err := json.Unmarshal(c.Remote, &e); err != nil {
			return fmt.Errorf("decode remote entry: %w", err)
		}
		e.ProjectID = c.ProjectID
		e.Date = c.EntityID
		e.RemoteSha = c.RemoteSha
		if err := m.cache.CacheEntries(c.ProjectID, []models.JournalEntry{e}); err != nil {
			return err
		}
	case models.KindAsset:
		var a models.Asset
		if err := json.Unmarshal(c.Remote, &a); err != nil {
			return fmt.Errorf("decode remote asset: %w", err)
		}
		a.Filename = c.EntityID
		a.ProjectID = c.ProjectID
		a.RemoteSha = c.RemoteSha
		if err := m.cache.CacheAssets(c.ProjectID, []models.Asset{a}); err != nil {
			return err
		}
	}

	if err := m.cache.DeleteOperation(operationID); err != nil {
		return err
	}
	m.conflicts.Remove(operationID)
	return nil
}
