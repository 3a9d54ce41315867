package cache

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/casebook-dev/casebook/internal/models"
)

// ErrNotFound is returned for point reads that match nothing.
var ErrNotFound = errors.New("not found in cache")

func nowPtr() *time.Time {
	now := time.Now()
	return &now
}

// PutProject inserts or replaces a project row as-is. Used for
// optimistic local writes; SyncedAt is left untouched.
func (s *Store) PutProject(p *models.Project) error {
	return s.Clauses(clause.OnConflict{UpdateAll: true}).Create(p).Error
}

// CacheProjects bulk-stores projects fetched from the remote, stamping
// SyncedAt with the current time.
func (s *Store) CacheProjects(projects []models.Project) error {
	if len(projects) == 0 {
		return nil
	}
	now := nowPtr()
	for i := range projects {
		projects[i].SyncedAt = now
	}
	return s.Clauses(clause.OnConflict{UpdateAll: true}).Create(&projects).Error
}

// GetProject returns a single cached project.
func (s *Store) GetProject(id string) (*models.Project, error) {
	var p models.Project
	err := s.First(&p, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// GetProjects returns all cached projects ordered by name.
func (s *Store) GetProjects() ([]models.Project, error) {
	var projects []models.Project
	if err := s.Order("name").Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

// SetProjectSha records a new remote version token for a project
// without touching its content fields.
func (s *Store) SetProjectSha(id, sha string) error {
	return s.Model(&models.Project{}).Where("id = ?", id).
		Update("remote_sha", sha).Error
}
