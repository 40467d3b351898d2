package model

import "gorm.io/gorm"

// AutoMigrate runs GORM auto-migration for all models and creates custom indexes.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&Token{}); err != nil {
		return err
	}

	// Reporting queries scan a recipient's tokens newest-first.
	return db.Exec(
		"CREATE INDEX IF NOT EXISTS idx_tokens_recipient_created " +
			"ON tokens (recipient_id, created_at DESC)",
	).Error
}
