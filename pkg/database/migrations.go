package database

import (
	"hydrozap/internal/store"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the Postgres connection used by the jsonb document backend.
func Connect(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
}

func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&store.Document{}); err != nil {
		return err
	}
	return createDocumentIndexes(db)
}

func createDocumentIndexes(db *gorm.DB) error {
	// Prefix scans back every subtree read; text_pattern_ops makes LIKE
	// 'path/%' use the index.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_documents_path_prefix
		ON hydrozap_documents (path text_pattern_ops)
	`).Error; err != nil {
		return err
	}

	// Equality queries on one child field per collection (user_id, device_id).
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_documents_user_id
		ON hydrozap_documents ((data->>'user_id'))
	`).Error; err != nil {
		return err
	}

	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_documents_device_id
		ON hydrozap_documents ((data->>'device_id'))
	`).Error; err != nil {
		return err
	}

	return nil
}
