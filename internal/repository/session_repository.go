package repository

import (
	"errors"
	"time"

	"github.com/avezina/identity-service/internal/domain"

	"gorm.io/gorm"
)

var ErrSessionNotFound = errors.New("session not found")

type SessionRepository interface {
	Create(s *domain.Session) error
	FindByID(id string) (*domain.Session, error)
	// Replace atomically swaps oldID for the given fresh session (sliding
	// expiration). It returns false when oldID is already gone, which is how
	// the loser of a concurrent rotation finds out.
	Replace(oldID string, fresh *domain.Session) (bool, error)
	DeleteByID(id string) error
	DeleteByUserID(userID string) (int64, error)
	DeleteExpired(now time.Time) (int64, error)
}

type GormSessionRepository struct{ db *gorm.DB }

func NewSessionRepository(db *gorm.DB) SessionRepository { return &GormSessionRepository{db: db} }

func (r *GormSessionRepository) Create(s *domain.Session) error { return r.db.Create(s).Error }

func (r *GormSessionRepository) FindByID(id string) (*domain.Session, error) {
	var s domain.Session
	if err := r.db.Where("id = ?", id).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *GormSessionRepository) Replace(oldID string, fresh *domain.Session) (bool, error) {
	replaced := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", oldID).Delete(&domain.Session{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		if err := tx.Create(fresh).Error; err != nil {
			return err
		}
		replaced = true
		return nil
	})
	return replaced, err
}

func (r *GormSessionRepository) DeleteByID(id string) error {
	res := r.db.Where("id = ?", id).Delete(&domain.Session{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (r *GormSessionRepository) DeleteByUserID(userID string) (int64, error) {
	res := r.db.Where("user_id = ?", userID).Delete(&domain.Session{})
	return res.RowsAffected, res.Error
}

func (r *GormSessionRepository) DeleteExpired(now time.Time) (int64, error) {
	res := r.db.Where("expires_at <= ?", now).Delete(&domain.Session{})
	return res.RowsAffected, res.Error
}
