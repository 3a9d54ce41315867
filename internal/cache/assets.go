package cache

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/casebook-dev/casebook/internal/models"
)

// PutAsset inserts or replaces an asset metadata row as-is.
func (s *Store) PutAsset(a *models.Asset) error {
	return s.Clauses(clause.OnConflict{UpdateAll: true}).Create(a).Error
}

// CacheAssets bulk-stores asset metadata fetched from the remote for
// one project, stamping SyncedAt.
func (s *Store) CacheAssets(projectID string, assets []models.Asset) error {
	if len(assets) == 0 {
		return nil
	}
	now := nowPtr()
	for i := range assets {
		assets[i].ProjectID = projectID
		assets[i].SyncedAt = now
	}
	return s.Clauses(clause.OnConflict{UpdateAll: true}).Create(&assets).Error
}

// GetAsset returns one cached asset by filename.
func (s *Store) GetAsset(filename string) (*models.Asset, error) {
	var a models.Asset
	err := s.First(&a, "filename = ?", filename).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// GetAssetsForProject returns all cached asset metadata for a project.
func (s *Store) GetAssetsForProject(projectID string) ([]models.Asset, error) {
	var assets []models.Asset
	if err := s.Where("project_id = ?", projectID).Order("uploaded_at DESC").Find(&assets).Error; err != nil {
		return nil, err
	}
	return assets, nil
}

// SetAssetSha records a new remote version token for an asset.
func (s *Store) SetAssetSha(filename, sha string) error {
	return s.Model(&models.Asset{}).Where("filename = ?", filename).
		Update("remote_sha", sha).Error
}

// DeleteAsset removes one asset's metadata and blob together.
func (s *Store) DeleteAsset(filename string) error {
	return s.Transaction(func(tx *Store) error {
		if err := tx.Delete(&models.Asset{}, "filename = ?", filename).Error; err != nil {
			return err
		}
		return tx.Delete(&models.AssetBlob{}, "filename = ?", filename).Error
	})
}

// PutBlob stores the binary payload for an asset. Blobs live in their
// own table so metadata listings never load image bytes.
func (s *Store) PutBlob(blob *models.AssetBlob) error {
	return s.Clauses(clause.OnConflict{UpdateAll: true}).Create(blob).Error
}

// GetBlob returns the binary payload for an asset, if cached.
func (s *Store) GetBlob(filename string) (*models.AssetBlob, error) {
	var b models.AssetBlob
	err := s.First(&b, "filename = ?", filename).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}
