package cache

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/casebook-dev/casebook/internal/models"
)

// AddOperation appends a new operation to the sync queue.
func (s *Store) AddOperation(op *models.SyncOperation) error {
	return s.Create(op).Error
}

// GetOperation returns a single queued operation.
func (s *Store) GetOperation(id string) (*models.SyncOperation, error) {
	var op models.SyncOperation
	err := s.First(&op, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &op, nil
}

// GetOperations returns the queued operations with the given IDs, in
// no particular order. Missing IDs are silently absent from the result.
func (s *Store) GetOperations(ids []string) ([]models.SyncOperation, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var ops []models.SyncOperation
	if err := s.Where("id IN ?", ids).Find(&ops).Error; err != nil {
		return nil, err
	}
	return ops, nil
}

// ListOperations returns all operations with one of the given
// statuses, oldest first. FIFO creation order preserves causal intent
// across entity kinds.
func (s *Store) ListOperations(statuses ...models.SyncStatus) ([]models.SyncOperation, error) {
	var ops []models.SyncOperation
	q := s.Order("created_at ASC")
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	if err := q.Find(&ops).Error; err != nil {
		return nil, err
	}
	return ops, nil
}

// CountOperations returns the number of operations in the given
// statuses.
func (s *Store) CountOperations(statuses ...models.SyncStatus) (int64, error) {
	var count int64
	q := s.Model(&models.SyncOperation{})
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	if err := q.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// MarkSyncing transitions an operation to syncing.
func (s *Store) MarkSyncing(id string) error {
	return s.Model(&models.SyncOperation{}).Where("id = ?", id).
		Update("status", models.StatusSyncing).Error
}

// MarkCompleted transitions an operation to completed and stamps
// CompletedAt.
func (s *Store) MarkCompleted(id string) error {
	return s.Model(&models.SyncOperation{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       models.StatusCompleted,
			"completed_at": time.Now(),
		}).Error
}

// MarkFailed transitions an operation to failed, recording the error
// and bumping the attempt counter.
func (s *Store) MarkFailed(id, lastError string) error {
	return s.Model(&models.SyncOperation{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     models.StatusFailed,
			"last_error": lastError,
			"attempts":   gorm.Expr("attempts + 1"),
		}).Error
}

// MarkConflicted transitions an update operation to failed with a
// conflict marker, without counting it as a delivery attempt.
func (s *Store) MarkConflicted(id, lastError string) error {
	return s.Model(&models.SyncOperation{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     models.StatusFailed,
			"last_error": lastError,
		}).Error
}

// MarkPending resets an operation for another replay attempt and
// clears its recorded error.
func (s *Store) MarkPending(id string) error {
	return s.Model(&models.SyncOperation{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     models.StatusPending,
			"last_error": "",
		}).Error
}

// ResetOperation returns an operation to pending with a fresh attempt
// budget; used by manual retry.
func (s *Store) ResetOperation(id string) error {
	return s.Model(&models.SyncOperation{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     models.StatusPending,
			"last_error": "",
			"attempts":   0,
		}).Error
}

// DeleteOperation removes an operation outright.
func (s *Store) DeleteOperation(id string) error {
	return s.Delete(&models.SyncOperation{}, "id = ?", id).Error
}

// DeleteCompletedOperations bulk-deletes all completed rows.
func (s *Store) DeleteCompletedOperations() error {
	return s.Delete(&models.SyncOperation{}, "status = ?", models.StatusCompleted).Error
}
