package migrations

import (
	"gorm.io/gorm"
)

// Migration002AddNotificationIndexes covers the notification stream:
//  1. Listing order (user_id, created_at DESC).
//  2. Partial index over rows carrying an expiry, for the purge sweep and
//     the not-expired filter.
func Migration002AddNotificationIndexes() Migration {
	return Migration{
		ID:   "002_add_notification_indexes",
		Name: "Add listing and expiry indexes for notifications",
		Up: func(db *gorm.DB) error {
			if db.Dialector.Name() != "postgres" {
				return nil
			}

			// Optimizes: WHERE user_id = ? ORDER BY created_at DESC
			listIdx := `
				CREATE INDEX IF NOT EXISTS idx_notifications_user_created
				ON notifications (user_id, created_at DESC)
			`
			if err := db.Exec(listIdx).Error; err != nil {
				return err
			}

			// Optimizes: WHERE expires_at IS NOT NULL AND expires_at <= now()
			expiryIdx := `
				CREATE INDEX IF NOT EXISTS idx_notifications_expires_at
				ON notifications (expires_at)
				WHERE expires_at IS NOT NULL
			`
			return db.Exec(expiryIdx).Error
		},
		Down: func(db *gorm.DB) error {
			if db.Dialector.Name() != "postgres" {
				return nil
			}
			if err := db.Exec(`DROP INDEX IF EXISTS idx_notifications_user_created`).Error; err != nil {
				return err
			}
			return db.Exec(`DROP INDEX IF EXISTS idx_notifications_expires_at`).Error
		},
	}
}
