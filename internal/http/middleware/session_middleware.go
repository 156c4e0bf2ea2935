package middleware

import (
	"context"
	"net/http"

	"github.com/avezina/identity-service/internal/domain"
	"github.com/avezina/identity-service/internal/http/response"
	"github.com/avezina/identity-service/internal/security"
	"github.com/avezina/identity-service/internal/service"
)

type contextKey string

const (
	userContextKey    contextKey = "current_user"
	sessionContextKey contextKey = "current_session"
)

// SessionResolver resolves the session cookie on every request. A resolvable
// session puts user and session on the context; anything else passes through
// anonymous with the stale cookie cleared. When validation rotated the
// session the fresh id is written back before the handler runs, so the
// client always holds the live cookie.
func SessionResolver(sessionSvc service.SessionServiceInterface, cookieMgr *security.CookieManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := security.GetCookie(r, security.SessionCookieName)
			if presented == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, session, err := sessionSvc.Validate(r.Context(), presented)
			if err != nil {
				response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to validate session", nil)
				return
			}
			if session == nil {
				http.SetCookie(w, cookieMgr.BlankSessionCookie())
				next.ServeHTTP(w, r)
				return
			}
			if session.ID != presented {
				http.SetCookie(w, cookieMgr.SessionCookie(session.ID, session.ExpiresAt))
			}

			next.ServeHTTP(w, r.WithContext(ContextWithSession(r.Context(), user, session)))
		})
	}
}

// RequireSession guards routes that only make sense for a signed-in user.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFromContext(r.Context()); !ok {
			response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ContextWithSession attaches an authenticated user and their session to the
// context.
func ContextWithSession(ctx context.Context, user *domain.User, session *domain.Session) context.Context {
	ctx = context.WithValue(ctx, userContextKey, user)
	return context.WithValue(ctx, sessionContextKey, session)
}

func UserFromContext(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(userContextKey).(*domain.User)
	return user, ok && user != nil
}

func SessionFromContext(ctx context.Context) (*domain.Session, bool) {
	session, ok := ctx.Value(sessionContextKey).(*domain.Session)
	return session, ok && session != nil
}
