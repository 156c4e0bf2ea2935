package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	netmail "net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/avezina/identity-service/internal/config"
	"github.com/avezina/identity-service/internal/domain"
	"github.com/avezina/identity-service/internal/mail"
	"github.com/avezina/identity-service/internal/observability"
	"github.com/avezina/identity-service/internal/repository"
	"github.com/avezina/identity-service/internal/security"

	"github.com/google/uuid"
)

// AuthService drives the identity lifecycle: registration, credential
// verification, sign-in/out, and the mailed token flows. It composes the
// token and session services rather than reaching into their stores.
type AuthService struct {
	cfg        *config.Config
	userRepo   repository.UserRepository
	tokenSvc   *TokenService
	sessionSvc *SessionService
	sender     mail.Sender
	logger     *slog.Logger
}

func NewAuthService(
	cfg *config.Config,
	userRepo repository.UserRepository,
	tokenSvc *TokenService,
	sessionSvc *SessionService,
	sender mail.Sender,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		cfg:        cfg,
		userRepo:   userRepo,
		tokenSvc:   tokenSvc,
		sessionSvc: sessionSvc,
		sender:     sender,
		logger:     logger,
	}
}

type RegisterResult struct {
	User    *domain.User    `json:"user"`
	Session *domain.Session `json:"-"`
}

type SignInResult struct {
	User    *domain.User    `json:"user"`
	Session *domain.Session `json:"-"`
}

// Register creates the user, issues a signup_verify token, and mails the
// link. User and token writes are durable even when the mail bounces: the
// returned result is non-nil alongside a mail.DeliveryError, and the caller
// decides how loudly to report the failed send.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*RegisterResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	name = strings.TrimSpace(name)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if len(name) < 2 || len(name) > 50 {
		return nil, ErrInvalidName
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &domain.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.userRepo.Create(user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			observability.RecordRegistration(ctx, "duplicate_email")
			return nil, ErrDuplicateEmail
		}
		observability.RecordRegistration(ctx, "error")
		return nil, err
	}
	observability.RecordRegistration(ctx, "success")

	result := &RegisterResult{User: user}
	if s.cfg.AuthSessionOnRegister {
		session, err := s.sessionSvc.Create(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		result.Session = session
	}

	issued, err := s.tokenSvc.Issue(ctx, domain.KindSignUpVerify, user.ID)
	if err != nil {
		return nil, err
	}
	if err := s.sendTokenMail(ctx, user, issued); err != nil {
		return result, err
	}
	return result, nil
}

// SignIn checks existence, verification, then the password, in that order,
// and hands back a fresh session on success.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*SignInResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			observability.RecordSignIn(ctx, "unknown_email")
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !user.IsVerified {
		observability.RecordSignIn(ctx, "unverified")
		return nil, ErrEmailNotVerified
	}
	ok, err := security.VerifyPassword(user.PasswordHash, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		observability.RecordSignIn(ctx, "bad_password")
		return nil, ErrInvalidCredentials
	}
	session, err := s.sessionSvc.Create(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	observability.RecordSignIn(ctx, "success")
	return &SignInResult{User: user, Session: session}, nil
}

// SignOut invalidates the presented session. An id that resolves to nothing
// is ErrUnauthorized: there was no session to sign out of.
func (s *AuthService) SignOut(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrUnauthorized
	}
	if err := s.sessionSvc.Invalidate(ctx, sessionID); err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return ErrUnauthorized
		}
		return err
	}
	return nil
}

// VerifyToken applies the presented token against the expected kind.
func (s *AuthService) VerifyToken(ctx context.Context, token string, kind domain.TokenKind) (*VerifyOutcome, error) {
	return s.tokenSvc.Verify(ctx, token, kind)
}

// RequestEmailVerificationResend mails a fresh signup_verify token. Earlier
// tokens stay live until they expire.
func (s *AuthService) RequestEmailVerificationResend(ctx context.Context, email string) error {
	user, err := s.findRegistered(email)
	if err != nil {
		return err
	}
	if user.IsVerified {
		return ErrAlreadyVerified
	}
	issued, err := s.tokenSvc.Issue(ctx, domain.KindSignUpVerify, user.ID)
	if err != nil {
		return err
	}
	return s.sendTokenMail(ctx, user, issued)
}

// RequestPasswordReset mails a reset_password token. Resetting a password is
// an action on a verified identity; unverified accounts are routed to the
// verification flow instead.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.findRegistered(email)
	if err != nil {
		return err
	}
	if !user.IsVerified {
		return ErrEmailNotVerified
	}
	issued, err := s.tokenSvc.Issue(ctx, domain.KindResetPassword, user.ID)
	if err != nil {
		return err
	}
	return s.sendTokenMail(ctx, user, issued)
}

// ConfirmNewPassword spends a new_password token and stores the replacement
// password. Every live session the user held is dropped; whoever knows the
// new password signs in again.
func (s *AuthService) ConfirmNewPassword(ctx context.Context, newPassword, token string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	outcome, err := s.tokenSvc.Verify(ctx, token, domain.KindNewPassword)
	if err != nil {
		return err
	}
	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePassword(outcome.UserID, hash, time.Now().UTC()); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if _, err := s.sessionSvc.InvalidateAll(ctx, outcome.UserID); err != nil {
		s.logger.WarnContext(ctx, "failed to revoke sessions after password change",
			"user_id", outcome.UserID, "error", err)
	}
	return nil
}

func (s *AuthService) findRegistered(email string) (*domain.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrEmailNotRegistered
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) sendTokenMail(ctx context.Context, user *domain.User, issued *IssuedToken) error {
	subject := "Verify your email address"
	if issued.Kind == domain.KindResetPassword {
		subject = "Reset your password"
	}
	msg := mail.Message{
		To:           user.Email,
		Subject:      subject,
		BodyKind:     issued.Kind,
		Token:        issued.Token,
		TokenURL:     s.tokenURL(issued),
		ExpiresLabel: expiresLabel(issued.TTL),
	}
	id, err := s.sender.Send(ctx, msg)
	if err != nil {
		observability.RecordMailDelivery(ctx, issued.Kind.String(), "error")
		s.logger.ErrorContext(ctx, "token mail delivery failed",
			"user_id", user.ID, "kind", issued.Kind.String(), "error", err)
		return err
	}
	observability.RecordMailDelivery(ctx, issued.Kind.String(), "success")
	s.logger.InfoContext(ctx, "token mail sent",
		"user_id", user.ID, "kind", issued.Kind.String(), "message_id", id)
	return nil
}

func (s *AuthService) tokenURL(issued *IssuedToken) string {
	q := url.Values{}
	q.Set("token", issued.Token)
	q.Set("type", issued.Kind.String())
	return s.cfg.BaseURL + "/verify-token?" + q.Encode()
}

func expiresLabel(ttl time.Duration) string {
	hours := int(ttl.Hours())
	if hours == 1 {
		return "1 hour"
	}
	return fmt.Sprintf("%d hours", hours)
}

func validateEmail(email string) error {
	if email == "" {
		return ErrInvalidEmail
	}
	addr, err := netmail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrInvalidEmail
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 6 {
		return ErrWeakPassword
	}
	return nil
}
