package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/avezina/identity-service/internal/domain"

	"gorm.io/gorm"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

type UserRepository interface {
	Create(user *domain.User) error
	FindByID(id string) (*domain.User, error)
	FindByEmail(email string) (*domain.User, error)
	MarkVerified(id string, now time.Time) error
	UpdatePassword(id, newHash string, now time.Time) error
}

type GormUserRepository struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) UserRepository { return &GormUserRepository{db: db} }

func (r *GormUserRepository) Create(user *domain.User) error {
	user.Email = strings.TrimSpace(strings.ToLower(user.Email))
	if err := r.db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (r *GormUserRepository) FindByID(id string) (*domain.User, error) {
	var u domain.User
	if err := r.db.Where("id = ?", id).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *GormUserRepository) FindByEmail(email string) (*domain.User, error) {
	normalized := strings.TrimSpace(strings.ToLower(email))
	var u domain.User
	if err := r.db.Where("email = ?", normalized).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// MarkVerified flips is_verified to true. The flag is monotonic: nothing in
// this store ever writes it back to false.
func (r *GormUserRepository) MarkVerified(id string, now time.Time) error {
	res := r.db.Model(&domain.User{}).Where("id = ?", id).
		Updates(map[string]any{"is_verified": true, "updated_at": now})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *GormUserRepository) UpdatePassword(id, newHash string, now time.Time) error {
	res := r.db.Model(&domain.User{}).Where("id = ?", id).
		Updates(map[string]any{"password_hash": newHash, "updated_at": now})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
