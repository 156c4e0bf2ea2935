package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/avezina/identity-service/internal/domain"
	"github.com/avezina/identity-service/internal/http/middleware"
	"github.com/avezina/identity-service/internal/http/response"
	"github.com/avezina/identity-service/internal/mail"
	"github.com/avezina/identity-service/internal/observability"
	"github.com/avezina/identity-service/internal/security"
	"github.com/avezina/identity-service/internal/service"
)

type AuthHandler struct {
	authSvc   service.AuthServiceInterface
	cookieMgr *security.CookieManager
}

func NewAuthHandler(authSvc service.AuthServiceInterface, cookieMgr *security.CookieManager) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, cookieMgr: cookieMgr}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "register", status, time.Since(start))
	}()

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		status = "failure"
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}

	result, err := h.authSvc.Register(r.Context(), req.Name, req.Email, req.Password)
	var deliveryErr *mail.DeliveryError
	if err != nil && !errors.As(err, &deliveryErr) {
		status = "failure"
		observability.Audit(r, "auth.register.failed", "reason", err.Error())
		writeServiceError(w, r, err)
		return
	}
	if result.Session != nil {
		http.SetCookie(w, h.cookieMgr.SessionCookie(result.Session.ID, result.Session.ExpiresAt))
	}
	observability.Audit(r, "auth.register.success", "user_id", result.User.ID)
	payload := map[string]any{"user": result.User}
	if deliveryErr != nil {
		// The account exists but the verification mail bounced; the client
		// can route the user to the resend flow.
		payload["warning"] = "verification email could not be sent"
	}
	response.JSON(w, r, http.StatusCreated, payload)
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "sign-in", status, time.Since(start))
	}()

	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		status = "failure"
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}

	result, err := h.authSvc.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		status = "failure"
		observability.Audit(r, "auth.sign_in.failed", "reason", err.Error())
		writeServiceError(w, r, err)
		return
	}
	http.SetCookie(w, h.cookieMgr.SessionCookie(result.Session.ID, result.Session.ExpiresAt))
	observability.Audit(r, "auth.sign_in.success", "user_id", result.User.ID)
	response.JSON(w, r, http.StatusOK, map[string]any{"user": result.User})
}

func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "sign-out", status, time.Since(start))
	}()

	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		status = "failure"
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	if err := h.authSvc.SignOut(r.Context(), session.ID); err != nil {
		status = "failure"
		observability.Audit(r, "auth.sign_out.failed", "reason", err.Error())
		writeServiceError(w, r, err)
		return
	}
	http.SetCookie(w, h.cookieMgr.BlankSessionCookie())
	observability.Audit(r, "auth.sign_out.success", "user_id", session.UserID)
	response.JSON(w, r, http.StatusNoContent, nil)
}

type verifyTokenRequest struct {
	Token string `json:"token"`
	Type  string `json:"type"`
}

func (h *AuthHandler) VerifyToken(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "verify-token", status, time.Since(start))
	}()

	var req verifyTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		status = "failure"
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}
	kind := domain.TokenKind(req.Type)
	if !kind.Verifiable() {
		status = "failure"
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "unknown token type", nil)
		return
	}

	outcome, err := h.authSvc.VerifyToken(r.Context(), req.Token, kind)
	if err != nil {
		status = "failure"
		observability.Audit(r, "auth.verify_token.failed", "type", req.Type)
		writeServiceError(w, r, err)
		return
	}
	observability.Audit(r, "auth.verify_token.success", "user_id", outcome.UserID, "result", outcome.Kind.String())
	response.JSON(w, r, http.StatusOK, map[string]any{
		"user_id": outcome.UserID,
		"result":  outcome.Kind.String(),
	})
}

type emailRequest struct {
	Email string `json:"email"`
}

func (h *AuthHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "verify-resend", status, time.Since(start))
	}()

	var req emailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		status = "failure"
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}
	if err := h.authSvc.RequestEmailVerificationResend(r.Context(), req.Email); err != nil {
		status = "failure"
		observability.Audit(r, "auth.verify_resend.failed", "reason", err.Error())
		writeServiceError(w, r, err)
		return
	}
	observability.Audit(r, "auth.verify_resend.success")
	response.JSON(w, r, http.StatusAccepted, map[string]string{
		"message": "We have sent an email verification link to your email.",
	})
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "password-forgot", status, time.Since(start))
	}()

	var req emailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		status = "failure"
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}
	if err := h.authSvc.RequestPasswordReset(r.Context(), req.Email); err != nil {
		status = "failure"
		observability.Audit(r, "auth.password_forgot.failed", "reason", err.Error())
		writeServiceError(w, r, err)
		return
	}
	observability.Audit(r, "auth.password_forgot.success")
	response.JSON(w, r, http.StatusAccepted, map[string]string{
		"message": "Reset password link is sent to your email.",
	})
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "password-reset", status, time.Since(start))
	}()

	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		status = "failure"
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}
	if err := h.authSvc.ConfirmNewPassword(r.Context(), req.Password, req.Token); err != nil {
		status = "failure"
		observability.Audit(r, "auth.password_reset.failed", "reason", err.Error())
		writeServiceError(w, r, err)
		return
	}
	observability.Audit(r, "auth.password_reset.success")
	response.JSON(w, r, http.StatusOK, map[string]string{
		"message": "Password updated. Please sign in with your new password.",
	})
}

// writeServiceError translates business sentinels to status codes; anything
// unrecognized is an internal failure and keeps its detail out of the body.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrInvalidName),
		errors.Is(err, service.ErrWeakPassword):
		response.Error(w, r, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
	case errors.Is(err, service.ErrDuplicateEmail):
		response.Error(w, r, http.StatusConflict, "DUPLICATE_EMAIL", err.Error(), nil)
	case errors.Is(err, service.ErrEmailNotRegistered):
		response.Error(w, r, http.StatusNotFound, "EMAIL_NOT_REGISTERED", err.Error(), nil)
	case errors.Is(err, service.ErrUserNotFound):
		response.Error(w, r, http.StatusNotFound, "USER_NOT_FOUND", err.Error(), nil)
	case errors.Is(err, service.ErrEmailNotVerified):
		response.Error(w, r, http.StatusForbidden, "EMAIL_NOT_VERIFIED", err.Error(), nil)
	case errors.Is(err, service.ErrAlreadyVerified):
		response.Error(w, r, http.StatusConflict, "ALREADY_VERIFIED", err.Error(), nil)
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Error(w, r, http.StatusUnauthorized, "INVALID_CREDENTIALS", err.Error(), nil)
	case errors.Is(err, service.ErrTokenInvalid):
		response.Error(w, r, http.StatusUnauthorized, "TOKEN_INVALID", err.Error(), nil)
	case errors.Is(err, service.ErrUnauthorized):
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", err.Error(), nil)
	default:
		var deliveryErr *mail.DeliveryError
		if errors.As(err, &deliveryErr) {
			response.Error(w, r, http.StatusBadGateway, "MAIL_DELIVERY_FAILED", "could not send email", nil)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
	}
}
