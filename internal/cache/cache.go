// Package cache provides the GORM-based local cache store for Casebook.
// It holds cached copies of remote entities (projects, journal entries,
// assets, asset blobs) plus the sync queue and sync metadata, all in a
// single SQLite database so the app stays fully usable offline.
package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/casebook-dev/casebook/internal/models"
)

// Store wraps the GORM database connection with Casebook-specific operations.
type Store struct {
	*gorm.DB
	path string
}

// Config holds database configuration options.
type Config struct {
	Path        string
	Debug       bool
	MaxIdleConn int
	MaxOpenConn int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(path string) Config {
	return Config{
		Path:        path,
		Debug:       false,
		MaxIdleConn: 1,
		MaxOpenConn: 1,
	}
}

// New creates a new database connection and runs migrations.
func New(cfg Config) (*Store, error) {
	dir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	logLevel := logger.Silent
	if cfg.Debug {
		logLevel = logger.Info
	}

	// DELETE journal mode for simpler transaction handling
	// (WAL mode has visibility issues with the pure-Go SQLite driver)
	dsn := fmt.Sprintf("%s?_pragma=journal_mode(DELETE)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)", cfg.Path)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(logLevel),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConn)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConn)
	sqlDB.SetConnMaxLifetime(time.Hour)

	wrapped := &Store{DB: db, path: cfg.Path}

	if err := wrapped.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	if err := wrapped.seedSyncMeta(); err != nil {
		return nil, fmt.Errorf("seed sync meta: %w", err)
	}

	return wrapped, nil
}

// migrate runs GORM auto-migrations for all models.
func (s *Store) migrate() error {
	return s.AutoMigrate(
		&models.Project{},
		&models.JournalEntry{},
		&models.Asset{},
		&models.AssetBlob{},
		&models.SyncOperation{},
		&models.SyncMeta{},
	)
}

// seedSyncMeta inserts default sync metadata if not present.
func (s *Store) seedSyncMeta() error {
	defaults := []models.SyncMeta{
		{Key: models.SyncMetaLastSync, Value: ""},
		{Key: models.SyncMetaSchemaVersion, Value: "1"},
	}

	for _, meta := range defaults {
		result := s.Where("key = ?", meta.Key).FirstOrCreate(&meta)
		if result.Error != nil {
			return result.Error
		}
	}

	return nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *Store) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Transaction executes a function within a database transaction.
// The callback receives a *Store wrapper that uses the transaction.
// If the callback returns an error, the transaction is rolled back.
func (s *Store) Transaction(fc func(tx *Store) error) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		wrappedTx := &Store{DB: tx, path: s.path}
		return fc(wrappedTx)
	})
}

// DeleteProjectCascade removes the project and every journal entry,
// asset, and asset blob scoped to it as one all-or-nothing transaction.
// A partial cascade is never observable.
func (s *Store) DeleteProjectCascade(projectID string) error {
	return s.Transaction(func(tx *Store) error {
		if err := tx.Delete(&models.Project{}, "id = ?", projectID).Error; err != nil {
			return fmt.Errorf("delete project: %w", err)
		}
		if err := tx.Delete(&models.JournalEntry{}, "project_id = ?", projectID).Error; err != nil {
			return fmt.Errorf("delete journal entries: %w", err)
		}
		if err := tx.Delete(&models.Asset{}, "project_id = ?", projectID).Error; err != nil {
			return fmt.Errorf("delete assets: %w", err)
		}
		if err := tx.Delete(&models.AssetBlob{}, "project_id = ?", projectID).Error; err != nil {
			return fmt.Errorf("delete asset blobs: %w", err)
		}
		return nil
	})
}

// ClearAll drops every cached entity and blob. The sync queue and sync
// metadata are left untouched.
func (s *Store) ClearAll() error {
	return s.Transaction(func(tx *Store) error {
		for _, model := range []interface{}{
			&models.Project{}, &models.JournalEntry{}, &models.Asset{}, &models.AssetBlob{},
		} {
			if err := tx.Where("1 = 1").Delete(model).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
