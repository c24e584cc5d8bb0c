package tasks

import (
	"log"
	"surecover/database"
	"surecover/models"
	"time"
)

// ExpireStalePendingTransactions flips pending transactions that never
// received a callback to failed after the given age. Rows are expired
// by status, never deleted: the table is the permanent audit record.
func ExpireStalePendingTransactions(olderThan time.Duration) {
	cutoff := time.Now().Add(-olderThan)
	result := database.DB.Model(&models.Transaction{}).
		Where("status = ? AND created_at < ?", models.TxStatusPending, cutoff).
		Update("status", models.TxStatusFailed)

	if result.Error != nil {
		log.Println("❌ Failed to expire stale pending transactions:", result.Error)
	} else if result.RowsAffected > 0 {
		log.Printf("✅ Expired %d pending transactions older than %s\n", result.RowsAffected, olderThan)
	}
}
