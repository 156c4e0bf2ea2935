package service

import (
	"context"
	"errors"
	"time"

	"github.com/avezina/identity-service/internal/domain"
	"github.com/avezina/identity-service/internal/observability"
	"github.com/avezina/identity-service/internal/repository"

	"github.com/google/uuid"
)

// SessionService issues opaque session ids and validates them with a sliding
// window: a session seen in the second half of its lifetime is replaced by a
// fresh id with a full TTL. The store is an injected repository, never
// process-global state.
type SessionService struct {
	sessionRepo repository.SessionRepository
	userRepo    repository.UserRepository
	ttl         time.Duration
}

func NewSessionService(sessionRepo repository.SessionRepository, userRepo repository.UserRepository, ttl time.Duration) *SessionService {
	return &SessionService{sessionRepo: sessionRepo, userRepo: userRepo, ttl: ttl}
}

func (s *SessionService) Create(ctx context.Context, userID string) (*domain.Session, error) {
	session := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		ExpiresAt: time.Now().UTC().Add(s.ttl),
	}
	if err := s.sessionRepo.Create(session); err != nil {
		observability.RecordSessionEvent(ctx, "create", "error")
		return nil, err
	}
	observability.RecordSessionEvent(ctx, "create", "success")
	return session, nil
}

// Validate resolves a presented session id to its user. A missing, expired,
// or orphaned session yields (nil, nil, nil) — absence of a session is not a
// business error. When the returned session's ID differs from the presented
// one the caller must hand the new id back to the client.
func (s *SessionService) Validate(ctx context.Context, sessionID string) (*domain.User, *domain.Session, error) {
	if sessionID == "" {
		return nil, nil, nil
	}
	session, err := s.sessionRepo.FindByID(sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, nil, nil
		}
		return nil, nil, err
	}

	now := time.Now().UTC()
	if session.Expired(now) {
		// Expired rows are deleted on sight; losing that delete to a
		// concurrent validator changes nothing.
		_ = s.sessionRepo.DeleteByID(session.ID)
		observability.RecordSessionEvent(ctx, "validate", "expired")
		return nil, nil, nil
	}

	if now.After(session.ExpiresAt.Add(-s.ttl / 2)) {
		fresh := &domain.Session{
			ID:        uuid.NewString(),
			UserID:    session.UserID,
			ExpiresAt: now.Add(s.ttl),
		}
		replaced, err := s.sessionRepo.Replace(session.ID, fresh)
		if err != nil {
			return nil, nil, err
		}
		if !replaced {
			// A concurrent validator rotated first; this caller's id is
			// dead and it cannot know the winner's.
			observability.RecordSessionEvent(ctx, "rotate", "lost_race")
			return nil, nil, nil
		}
		observability.RecordSessionEvent(ctx, "rotate", "success")
		session = fresh
	}

	user, err := s.userRepo.FindByID(session.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			_ = s.sessionRepo.DeleteByID(session.ID)
			return nil, nil, nil
		}
		return nil, nil, err
	}
	return user, session, nil
}

func (s *SessionService) Invalidate(ctx context.Context, sessionID string) error {
	if err := s.sessionRepo.DeleteByID(sessionID); err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			observability.RecordSessionEvent(ctx, "invalidate", "not_found")
		}
		return err
	}
	observability.RecordSessionEvent(ctx, "invalidate", "success")
	return nil
}

// InvalidateAll drops every session a user holds, returning how many died.
func (s *SessionService) InvalidateAll(ctx context.Context, userID string) (int64, error) {
	n, err := s.sessionRepo.DeleteByUserID(userID)
	if err != nil {
		return n, err
	}
	observability.RecordSessionsRevoked(ctx, "invalidate_all", n)
	return n, nil
}

// PurgeExpired removes expired session rows. Exposed for the maintenance
// tooling; stores with native expiry only prune their indexes here.
func (s *SessionService) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	return s.sessionRepo.DeleteExpired(now)
}
