package migrations

import (
	"gorm.io/gorm"
)

// Migration001AddMessageIndexes adds the hot-path indexes AutoMigrate
// cannot express:
//  1. Partial index over unread messages, backing the counter
//     reconciliation on mark-read.
//  2. Expression index matching the inbox ordering
//     COALESCE(last_message_at, created_at) DESC.
//
// Both are PostgreSQL features, so the migration is a no-op elsewhere
// (tests run on SQLite with AutoMigrate only).
func Migration001AddMessageIndexes() Migration {
	return Migration{
		ID:   "001_add_message_indexes",
		Name: "Add partial and expression indexes for messaging hot paths",
		Up: func(db *gorm.DB) error {
			if db.Dialector.Name() != "postgres" {
				return nil
			}

			// Optimizes: WHERE conversation_id = ? AND recipient_id = ? AND is_read = false
			unreadIdx := `
				CREATE INDEX IF NOT EXISTS idx_messages_recipient_unread
				ON messages (conversation_id, recipient_id)
				WHERE is_read = false
			`
			if err := db.Exec(unreadIdx).Error; err != nil {
				return err
			}

			// Optimizes: ORDER BY COALESCE(last_message_at, created_at) DESC
			activityIdx := `
				CREATE INDEX IF NOT EXISTS idx_conversations_activity
				ON conversations (COALESCE(last_message_at, created_at) DESC)
			`
			return db.Exec(activityIdx).Error
		},
		Down: func(db *gorm.DB) error {
			if db.Dialector.Name() != "postgres" {
				return nil
			}
			if err := db.Exec(`DROP INDEX IF EXISTS idx_messages_recipient_unread`).Error; err != nil {
				return err
			}
			return db.Exec(`DROP INDEX IF EXISTS idx_conversations_activity`).Error
		},
	}
}
