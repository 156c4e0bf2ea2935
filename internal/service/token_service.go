package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/avezina/identity-service/internal/domain"
	"github.com/avezina/identity-service/internal/observability"
	"github.com/avezina/identity-service/internal/repository"
	"github.com/avezina/identity-service/internal/security"
)

// TokenService owns the verification-token lifecycle: minting raw tokens and
// walking accepted tokens through the kind transition table. Only digests of
// tokens ever reach storage.
type TokenService struct {
	userRepo  repository.UserRepository
	tokenRepo repository.VerificationTokenRepository
	ttl       time.Duration
}

func NewTokenService(userRepo repository.UserRepository, tokenRepo repository.VerificationTokenRepository, ttl time.Duration) *TokenService {
	return &TokenService{userRepo: userRepo, tokenRepo: tokenRepo, ttl: ttl}
}

// IssuedToken carries the raw token back to the caller exactly once; after
// this the raw value exists only in the outbound mail.
type IssuedToken struct {
	Token     string
	Kind      domain.TokenKind
	ExpiresAt time.Time
	TTL       time.Duration
}

// VerifyOutcome reports who the token belonged to and which kind it became:
// consumed for the terminal transitions, new_password for the promotion.
type VerifyOutcome struct {
	UserID string
	Kind   domain.TokenKind
}

func (s *TokenService) Issue(ctx context.Context, kind domain.TokenKind, userID string) (*IssuedToken, error) {
	if !kind.Issuable() {
		return nil, fmt.Errorf("token kind %q is not issuable", kind)
	}
	raw, err := security.NewVerificationToken()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	expiresAt := now.Add(s.ttl)
	record := &domain.VerificationToken{
		Token:     hashToken(raw),
		UserID:    userID,
		Kind:      kind,
		ExpiresAt: expiresAt,
	}
	if err := s.tokenRepo.Create(record); err != nil {
		observability.RecordTokenIssued(ctx, kind.String(), "error")
		return nil, err
	}
	observability.RecordTokenIssued(ctx, kind.String(), "success")
	return &IssuedToken{Token: raw, Kind: kind, ExpiresAt: expiresAt, TTL: s.ttl}, nil
}

// Verify runs the acceptance checks in order and, on acceptance, applies the
// kind's transition. Every rejected shape maps to ErrTokenInvalid; the
// conditional repository mutations make each transition single-winner under
// concurrent verification of the same token.
func (s *TokenService) Verify(ctx context.Context, token string, expectedKind domain.TokenKind) (*VerifyOutcome, error) {
	token = strings.TrimSpace(token)
	if token == "" || !expectedKind.Verifiable() {
		observability.RecordTokenVerified(ctx, expectedKind.String(), "invalid")
		return nil, ErrTokenInvalid
	}

	digest := hashToken(token)
	stored, err := s.tokenRepo.FindByToken(digest)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			observability.RecordTokenVerified(ctx, expectedKind.String(), "invalid")
			return nil, ErrTokenInvalid
		}
		return nil, err
	}
	if stored.Kind != expectedKind || stored.Expired(time.Now().UTC()) {
		observability.RecordTokenVerified(ctx, expectedKind.String(), "invalid")
		return nil, ErrTokenInvalid
	}

	next, ok := stored.Kind.Next()
	if !ok {
		observability.RecordTokenVerified(ctx, expectedKind.String(), "invalid")
		return nil, ErrTokenInvalid
	}

	if next == domain.KindConsumed {
		// Delete first: a zero-row delete means a concurrent verifier
		// already took this token, and only the winner touches the user.
		if err := s.tokenRepo.ConsumeByKind(digest, stored.Kind); err != nil {
			if errors.Is(err, repository.ErrTokenNotFound) {
				observability.RecordTokenVerified(ctx, expectedKind.String(), "lost_race")
				return nil, ErrTokenInvalid
			}
			return nil, err
		}
		if stored.Kind.MarksUserVerified() {
			if err := s.userRepo.MarkVerified(stored.UserID, time.Now().UTC()); err != nil && !errors.Is(err, repository.ErrUserNotFound) {
				return nil, err
			}
		}
	} else {
		if err := s.tokenRepo.PromoteKind(digest, stored.Kind, next); err != nil {
			if errors.Is(err, repository.ErrTokenNotFound) {
				observability.RecordTokenVerified(ctx, expectedKind.String(), "lost_race")
				return nil, ErrTokenInvalid
			}
			return nil, err
		}
	}

	observability.RecordTokenVerified(ctx, expectedKind.String(), "success")
	return &VerifyOutcome{UserID: stored.UserID, Kind: next}, nil
}

// PurgeExpired removes dead token rows. Exposed for the maintenance tooling.
func (s *TokenService) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	return s.tokenRepo.DeleteExpired(now)
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
