package domain

import "time"

// Session is an opaque server-side session. The ID is the only thing the
// client ever holds; validation past the midpoint of the lifetime replaces
// the row with a fresh ID and a full window (sliding expiration).
type Session struct {
	ID        string    `gorm:"primaryKey;size:128" json:"id"`
	UserID    string    `gorm:"size:128;index;not null" json:"user_id"`
	ExpiresAt time.Time `gorm:"index;not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Session) Expired(now time.Time) bool {
	return s.ExpiresAt.Before(now)
}
