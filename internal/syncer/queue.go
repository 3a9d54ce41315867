// Package syncer owns the offline mutation queue: enqueueing pending
// mutations, replaying them against the remote store in causal order,
// and detecting and resolving version conflicts along the way.
package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/casebook-dev/casebook/internal/cache"
	"github.com/casebook-dev/casebook/internal/log"
	"github.com/casebook-dev/casebook/internal/models"
	"github.com/casebook-dev/casebook/internal/netwatch"
	"github.com/casebook-dev/casebook/internal/remote"
)

// Manager drives the sync queue. All queue state lives in the cache
// store; the manager itself only holds the session-scoped conflict
// records and the replay re-entrancy guard.
type Manager struct {
	cache     *cache.Store
	remote    remote.Store
	conflicts ConflictStore
	monitor   *netwatch.Monitor

	// Collapses overlapping replay triggers into a single pass.
	processing atomic.Bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithConflictStore overrides the in-memory conflict store.
func WithConflictStore(cs ConflictStore) Option {
	return func(m *Manager) { m.conflicts = cs }
}

// WithMonitor wires a connectivity monitor. The manager subscribes and
// runs one replay pass per offline-to-online transition.
func WithMonitor(mon *netwatch.Monitor) Option {
	return func(m *Manager) { m.monitor = mon }
}

// New creates a Manager on top of the cache and remote stores.
func New(c *cache.Store, r remote.Store, opts ...Option) *Manager {
	m := &Manager{
		cache:     c,
		remote:    r,
		conflicts: NewMemoryConflicts(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.monitor != nil {
		m.monitor.Subscribe(func(online bool) {
			if !online {
				return
			}
			if _, err := m.ProcessQueue(context.Background()); err != nil {
				log.Errorf("replay on reconnect: %v", err)
			}
		})
	}
	return m
}

// newOperationID builds a sortable id: millisecond timestamp plus a
// random suffix for same-millisecond uniqueness.
func newOperationID() string {
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}

// Enqueue appends a mutation to the queue and returns its id so the
// caller can chain dependent operations. Every id in dependsOn must
// name an operation already in the queue.
func (m *Manager) Enqueue(kind models.EntityKind, action models.SyncAction, entityID, projectID string, payload interface{}, dependsOn []string) (string, error) {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return "", fmt.Errorf("marshal payload: %w", err)
		}
		raw = data
	}

	if len(dependsOn) > 0 {
		deps, err := m.cache.GetOperations(dependsOn)
		if err != nil {
			return "", err
		}
		if len(deps) != len(dependsOn) {
			return "", fmt.Errorf("dependency references unknown operation")
		}
	}

	op := &models.SyncOperation{
		ID:        newOperationID(),
		Kind:      kind,
		Action:    action,
		EntityID:  entityID,
		ProjectID: projectID,
		Payload:   raw,
		DependsOn: dependsOn,
		Status:    models.StatusPending,
		CreatedAt: time.Now(),
	}
	if err := m.cache.AddOperation(op); err != nil {
		return "", err
	}
	return op.ID, nil
}

// ProcessQueue replays pending and transiently failed operations in
// FIFO creation order, gated by dependencies. It loops until a pass
// completes nothing, so operations unblocked mid-run still go out in
// the same call. Operations at the attempt cap and conflict-parked
// operations are left alone until retried or resolved by hand.
//
// Overlapping calls collapse: while one replay is running, any other
// caller returns immediately reporting no new conflicts.
//
// The returned bool reports whether any conflicts were newly detected,
// so the caller can prompt for resolution.
func (m *Manager) ProcessQueue(ctx context.Context) (bool, error) {
	if !m.processing.CompareAndSwap(false, true) {
		return false, nil
	}
	defer m.processing.Store(false)

	if m.monitor != nil && !m.monitor.Online() {
		return false, nil
	}

	newConflicts := false
	for {
		completed, conflicted, err := m.runPass(ctx)
		if err != nil {
			return newConflicts, err
		}
		newConflicts = newConflicts || conflicted
		if completed == 0 {
			break
		}
	}

	if err := m.cache.SetSyncMeta(models.SyncMetaLastSync, time.Now().Format(time.RFC3339)); err != nil {
		log.Errorf("record last sync: %v", err)
	}
	return newConflicts, nil
}

// runPass attempts every currently eligible operation once. Failed
// operations ride along with pending ones so a transient error retries
// on the next run; conflict-parked operations wait for resolution.
func (m *Manager) runPass(ctx context.Context) (completed int, conflicted bool, err error) {
	ops, err := m.cache.ListOperations(models.StatusPending, models.StatusFailed)
	if err != nil {
		return 0, false, err
	}

	for i := range ops {
		op := &ops[i]
		if err := ctx.Err(); err != nil {
			return completed, conflicted, err
		}
		if _, parked := m.conflicts.Get(op.ID); parked {
			continue
		}
		if op.Attempts >= models.MaxSyncAttempts {
			continue
		}

		ready, err := m.dependenciesCompleted(op)
		if err != nil {
			return completed, conflicted, err
		}
		if !ready {
			continue
		}

		conflict, err := m.detectConflict(ctx, op)
		if err != nil {
			log.Errorf("sync %s: conflict check: %v", op.ID, err)
			if markErr := m.cache.MarkFailed(op.ID, err.Error()); markErr != nil {
				return completed, conflicted, markErr
			}
			continue
		}
		if conflict != nil {
			m.conflicts.Add(conflict)
			conflicted = true
			if err := m.cache.MarkConflicted(op.ID, "version conflict with remote"); err != nil {
				return completed, conflicted, err
			}
			log.Printf("sync %s: conflict on %s %s", op.ID, op.Kind, op.EntityID)
			continue
		}

		if err := m.cache.MarkSyncing(op.ID); err != nil {
			return completed, conflicted, err
		}
		if err := m.execute(ctx, op); err != nil {
			log.Errorf("sync %s: %s %s %s: %v", op.ID, op.Action, op.Kind, op.EntityID, err)
			if markErr := m.cache.MarkFailed(op.ID, err.Error()); markErr != nil {
				return completed, conflicted, markErr
			}
			continue
		}
		if err := m.cache.MarkCompleted(op.ID); err != nil {
			return completed, conflicted, err
		}
		completed++
	}
	return completed, conflicted, nil
}

// dependenciesCompleted reports whether every dependency has reached
// completed. A dependency that no longer exists (cancelled) blocks its
// dependents until they are cancelled too.
func (m *Manager) dependenciesCompleted(op *models.SyncOperation) (bool, error) {
	if len(op.DependsOn) == 0 {
		return true, nil
	}
	deps, err := m.cache.GetOperations(op.DependsOn)
	if err != nil {
		return false, err
	}
	if len(deps) != len(op.DependsOn) {
		return false, nil
	}
	for i := range deps {
		if !deps[i].IsTerminal() {
			return false, nil
		}
	}
	return true, nil
}

// execute performs the remote call for one operation and re-caches the
// authoritative remote result on success.
func (m *Manager) execute(ctx context.Context, op *models.SyncOperation) error {
	switch op.Kind {
	case models.KindProject:
		return m.executeProject(ctx, op)
	case models.KindJournal:
		return m.executeJournal(ctx, op)
	case models.KindAsset:
		return m.executeAsset(ctx, op)
	}
	return fmt.Errorf("unknown entity kind %q", op.Kind)
}

func (m *Manager) executeProject(ctx context.Context, op *models.SyncOperation) error {
	switch op.Action {
	case models.ActionCreate, models.ActionUpdate:
		var p models.Project
		if err := json.Unmarshal(op.Payload, &p); err != nil {
			return fmt.Errorf("decode payload: %w", err)
		}
		p.ID = op.EntityID

		var (
			out *models.Project
			err error
		)
		baseSha, shaErr := m.localSha(op)
		if shaErr != nil {
			return shaErr
		}
		if op.Action == models.ActionCreate || baseSha == "" {
			// No known remote counterpart yet: first sync of a locally
			// originated project is a create even when enqueued as an
			// update.
			out, err = m.remote.CreateProject(ctx, &p)
		} else {
			out, err = m.remote.UpdateProject(ctx, &p, baseSha)
			if remote.IsNotFound(err) {
				// Remote copy vanished; safe to recreate from local.
				out, err = m.remote.CreateProject(ctx, &p)
			}
		}
		if err != nil {
			return err
		}
		return m.cache.CacheProjects([]models.Project{*out})
	case models.ActionDelete:
		err := m.remote.DeleteProject(ctx, op.EntityID)
		if remote.IsNotFound(err) {
			return nil
		}
		return err
	}
	return fmt.Errorf("unknown action %q", op.Action)
}

func (m *Manager) executeJournal(ctx context.Context, op *models.SyncOperation) error {
	switch op.Action {
	case models.ActionCreate, models.ActionUpdate:
		var e models.JournalEntry
		if err := json.Unmarshal(op.Payload, &e); err != nil {
			return fmt.Errorf("decode payload: %w", err)
		}
		e.Date = op.EntityID

		baseSha, err := m.localSha(op)
		if err != nil {
			return err
		}
		out, err := m.remote.PutEntry(ctx, op.ProjectID, &e, baseSha)
		if remote.IsNotFound(err) && baseSha != "" {
			// Remote copy vanished; safe to recreate from local.
			out, err = m.remote.PutEntry(ctx, op.ProjectID, &e, "")
		}
		if err != nil {
			return err
		}
		return m.cache.CacheEntries(op.ProjectID, []models.JournalEntry{*out})
	case models.ActionDelete:
		err := m.remote.DeleteEntry(ctx, op.ProjectID, op.EntityID, "")
		if remote.IsNotFound(err) {
			return nil
		}
		return err
	}
	return fmt.Errorf("unknown action %q", op.Action)
}

func (m *Manager) executeAsset(ctx context.Context, op *models.SyncOperation) error {
	switch op.Action {
	case models.ActionCreate:
		var a models.Asset
		if err := json.Unmarshal(op.Payload, &a); err != nil {
			return fmt.Errorf("decode payload: %w", err)
		}
		a.Filename = op.EntityID

		blob, err := m.cache.GetBlob(op.EntityID)
		if err != nil {
			return fmt.Errorf("load asset blob: %w", err)
		}
		out, err := m.remote.UploadAsset(ctx, op.ProjectID, &a, blob.Data)
		if err != nil {
			return err
		}
		return m.cache.CacheAssets(op.ProjectID, []models.Asset{*out})
	case models.ActionDelete:
		err := m.remote.DeleteAsset(ctx, op.ProjectID, op.EntityID)
		if remote.IsNotFound(err) {
			return nil
		}
		return err
	}
	return fmt.Errorf("asset action %q not supported", op.Action)
}

// Retry resets a failed operation to pending with a fresh attempt
// budget and runs a replay pass. A manual retry always gets another
// shot, even past the automatic attempt cap.
func (m *Manager) Retry(ctx context.Context, operationID string) (bool, error) {
	op, err := m.cache.GetOperation(operationID)
	if err != nil {
		return false, err
	}
	if op.Status != models.StatusFailed {
		return false, fmt.Errorf("operation %s is %s, only failed operations can be retried", operationID, op.Status)
	}
	m.conflicts.Remove(operationID)
	if err := m.cache.ResetOperation(operationID); err != nil {
		return false, err
	}
	return m.ProcessQueue(ctx)
}

// Cancel deletes a pending or failed operation outright. Dependents of
// a cancelled operation stay blocked until cancelled themselves.
func (m *Manager) Cancel(operationID string) error {
	op, err := m.cache.GetOperation(operationID)
	if err != nil {
		return err
	}
	if !op.IsCancelable() {
		return fmt.Errorf("operation %s is %s and cannot be cancelled", operationID, op.Status)
	}
	m.conflicts.Remove(operationID)
	return m.cache.DeleteOperation(operationID)
}

// ClearCompleted removes completed operations from the queue.
func (m *Manager) ClearCompleted() error {
	return m.cache.DeleteCompletedOperations()
}

// PendingCount returns the number of operations still awaiting replay,
// counting failed ones since they retry on the next run.
func (m *Manager) PendingCount() (int64, error) {
	return m.cache.CountOperations(models.StatusPending, models.StatusSyncing, models.StatusFailed)
}

// Operations lists queued operations, optionally filtered by status,
// oldest first.
func (m *Manager) Operations(statuses ...models.SyncStatus) ([]models.SyncOperation, error) {
	return m.cache.ListOperations(statuses...)
}

// kick runs a replay pass when the remote is believed reachable. Used
// after optimistic mutations for the online fast path.
func (m *Manager) kick(ctx context.Context) {
	if m.monitor != nil && !m.monitor.Online() {
		return
	}
	if _, err := m.ProcessQueue(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Errorf("replay after mutation: %v", err)
	}
}

func ignoreCacheMiss(err error) error {
	if errors.Is(err, cache.ErrNotFound) {
		return nil
	}
	return err
}
