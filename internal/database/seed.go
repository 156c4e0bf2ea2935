package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/avezina/identity-service/internal/domain"

	"gorm.io/gorm"
)

// MarkEmailVerified flips a user's verification flag directly in the store.
// Operator tooling only; the normal path is the mailed token.
func MarkEmailVerified(db *gorm.DB, email string) error {
	normalized := strings.TrimSpace(strings.ToLower(email))
	if normalized == "" {
		return fmt.Errorf("email is required")
	}
	tx := db.Model(&domain.User{}).Where("email = ?", normalized).
		Updates(map[string]any{"is_verified": true, "updated_at": time.Now().UTC()})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
