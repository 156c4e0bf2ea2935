package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/avezina/identity-service/internal/health"
	"github.com/avezina/identity-service/internal/http/handler"
	"github.com/avezina/identity-service/internal/http/middleware"
	"github.com/avezina/identity-service/internal/http/response"
	"github.com/avezina/identity-service/internal/security"
	"github.com/avezina/identity-service/internal/service"
)

type Dependencies struct {
	AuthHandler    *handler.AuthHandler
	UserHandler    *handler.UserHandler
	SessionService service.SessionServiceInterface
	CookieManager  *security.CookieManager
	CORSOrigins    []string
	MaxBodyBytes   int64
	Readiness      *health.ProbeRunner
	EnableOTelHTTP bool
}

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.StructuredRequestLogger)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(dep.CORSOrigins))
	maxBody := dep.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 1 << 20
	}
	r.Use(middleware.BodyLimit(maxBody))

	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if dep.Readiness == nil {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": []any{}})
			return
		}
		ready, results := dep.Readiness.Ready(r.Context())
		if ready {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": results})
			return
		}
		response.Error(w, r, http.StatusServiceUnavailable, "DEPENDENCY_UNREADY", "dependencies are not ready", map[string]any{"checks": results})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.SessionResolver(dep.SessionService, dep.CookieManager))

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", dep.AuthHandler.Register)
			r.Post("/sign-in", dep.AuthHandler.SignIn)
			r.With(middleware.RequireSession).Post("/sign-out", dep.AuthHandler.SignOut)
			r.Post("/verify-token", dep.AuthHandler.VerifyToken)
			r.Post("/verify/resend", dep.AuthHandler.ResendVerification)
			r.Post("/password/forgot", dep.AuthHandler.ForgotPassword)
			r.Post("/password/reset", dep.AuthHandler.ResetPassword)
		})

		r.With(middleware.RequireSession).Get("/me", dep.UserHandler.Me)
	})

	var h http.Handler = r
	if dep.EnableOTelHTTP {
		h = otelhttp.NewHandler(r, "http.server")
	}
	return h
}
