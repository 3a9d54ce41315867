package cache

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/casebook-dev/casebook/internal/models"
)

// PutEntry inserts or replaces a journal entry as-is (optimistic local
// write).
func (s *Store) PutEntry(e *models.JournalEntry) error {
	return s.Clauses(clause.OnConflict{UpdateAll: true}).Create(e).Error
}

// CacheEntries bulk-stores journal entries fetched from the remote for
// one project, stamping SyncedAt.
func (s *Store) CacheEntries(projectID string, entries []models.JournalEntry) error {
	if len(entries) == 0 {
		return nil
	}
	now := nowPtr()
	for i := range entries {
		entries[i].ProjectID = projectID
		entries[i].SyncedAt = now
	}
	return s.Clauses(clause.OnConflict{UpdateAll: true}).Create(&entries).Error
}

// GetEntry returns one cached journal entry by its compound key.
func (s *Store) GetEntry(projectID, date string) (*models.JournalEntry, error) {
	var e models.JournalEntry
	err := s.First(&e, "project_id = ? AND date = ?", projectID, date).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

// GetEntriesForProject returns all cached entries for a project,
// newest first.
func (s *Store) GetEntriesForProject(projectID string) ([]models.JournalEntry, error) {
	var entries []models.JournalEntry
	if err := s.Where("project_id = ?", projectID).Order("date DESC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// DeleteEntry removes a cached journal entry.
func (s *Store) DeleteEntry(projectID, date string) error {
	return s.Delete(&models.JournalEntry{}, "project_id = ? AND date = ?", projectID, date).Error
}

// SetEntrySha records a new remote version token for a journal entry.
func (s *Store) SetEntrySha(projectID, date, sha string) error {
	return s.Model(&models.JournalEntry{}).
		Where("project_id = ? AND date = ?", projectID, date).
		Update("remote_sha", sha).Error
}
