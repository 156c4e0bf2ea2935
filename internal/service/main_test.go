package service

import (
	"testing"
	"time"

	"github.com/avezina/identity-service/internal/domain"
	"github.com/avezina/identity-service/internal/security"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newServiceDBForTest opens an isolated in-memory sqlite database with the
// identity schema applied, matching the runtime gorm configuration.
func newServiceDBForTest(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&domain.User{}, &domain.VerificationToken{}, &domain.Session{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, email string, verified bool) *domain.User {
	t.Helper()
	hash, err := security.HashPassword("hunter2secret")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := &domain.User{
		ID:           uuid.NewString(),
		Name:         "Test User",
		Email:        email,
		PasswordHash: hash,
		IsVerified:   verified,
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func forceTokenExpiry(t *testing.T, db *gorm.DB, digest string, expiresAt time.Time) {
	t.Helper()
	res := db.Model(&domain.VerificationToken{}).Where("token = ?", digest).
		Update("expires_at", expiresAt)
	if res.Error != nil {
		t.Fatalf("rewrite expiry: %v", res.Error)
	}
	if res.RowsAffected != 1 {
		t.Fatalf("token %q not found", digest)
	}
}
