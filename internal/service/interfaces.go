package service

import (
	"context"

	"github.com/avezina/identity-service/internal/domain"
)

type AuthServiceInterface interface {
	Register(ctx context.Context, name, email, password string) (*RegisterResult, error)
	SignIn(ctx context.Context, email, password string) (*SignInResult, error)
	SignOut(ctx context.Context, sessionID string) error
	VerifyToken(ctx context.Context, token string, kind domain.TokenKind) (*VerifyOutcome, error)
	RequestEmailVerificationResend(ctx context.Context, email string) error
	RequestPasswordReset(ctx context.Context, email string) error
	ConfirmNewPassword(ctx context.Context, newPassword, token string) error
}

type SessionServiceInterface interface {
	Create(ctx context.Context, userID string) (*domain.Session, error)
	Validate(ctx context.Context, sessionID string) (*domain.User, *domain.Session, error)
	Invalidate(ctx context.Context, sessionID string) error
	InvalidateAll(ctx context.Context, userID string) (int64, error)
}
