package domain

import "time"

// VerificationToken is a single-use, typed, time-bounded token gating one
// account-state transition. Token holds the SHA-256 digest of the random
// value mailed to the user and acts as the primary key. Rows are only ever
// mutated (kind promotion) or deleted by the verifier.
type VerificationToken struct {
	Token     string    `gorm:"primaryKey;size:128" json:"-"`
	UserID    string    `gorm:"size:128;index;not null" json:"user_id"`
	Kind      TokenKind `gorm:"size:32;not null" json:"kind"`
	ExpiresAt time.Time `gorm:"index;not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

func (t *VerificationToken) Expired(now time.Time) bool {
	return t.ExpiresAt.Before(now)
}
