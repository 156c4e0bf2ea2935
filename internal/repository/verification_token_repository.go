package repository

import (
	"errors"
	"time"

	"github.com/avezina/identity-service/internal/domain"

	"gorm.io/gorm"
)

var ErrTokenNotFound = errors.New("verification token not found")

// VerificationTokenRepository persists verification tokens. The conditional
// mutations (ConsumeByKind, PromoteKind) carry the kind in their WHERE clause
// so two concurrent verifications of the same token cannot both transition
// it: the loser affects zero rows and gets ErrTokenNotFound.
type VerificationTokenRepository interface {
	Create(token *domain.VerificationToken) error
	FindByToken(token string) (*domain.VerificationToken, error)
	ConsumeByKind(token string, kind domain.TokenKind) error
	PromoteKind(token string, from, to domain.TokenKind) error
	DeleteExpired(now time.Time) (int64, error)
}

type GormVerificationTokenRepository struct{ db *gorm.DB }

func NewVerificationTokenRepository(db *gorm.DB) VerificationTokenRepository {
	return &GormVerificationTokenRepository{db: db}
}

func (r *GormVerificationTokenRepository) Create(token *domain.VerificationToken) error {
	return r.db.Create(token).Error
}

func (r *GormVerificationTokenRepository) FindByToken(token string) (*domain.VerificationToken, error) {
	var rec domain.VerificationToken
	if err := r.db.Where("token = ?", token).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}
	return &rec, nil
}

func (r *GormVerificationTokenRepository) ConsumeByKind(token string, kind domain.TokenKind) error {
	res := r.db.Where("token = ? AND kind = ?", token, kind).Delete(&domain.VerificationToken{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrTokenNotFound
	}
	return nil
}

func (r *GormVerificationTokenRepository) PromoteKind(token string, from, to domain.TokenKind) error {
	res := r.db.Model(&domain.VerificationToken{}).
		Where("token = ? AND kind = ?", token, from).
		Update("kind", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrTokenNotFound
	}
	return nil
}

func (r *GormVerificationTokenRepository) DeleteExpired(now time.Time) (int64, error) {
	res := r.db.Where("expires_at <= ?", now).Delete(&domain.VerificationToken{})
	return res.RowsAffected, res.Error
}
