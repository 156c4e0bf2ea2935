package database

import (
	"github.com/avezina/identity-service/internal/domain"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.VerificationToken{},
		&domain.Session{},
	)
}
