package di

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/avezina/identity-service/internal/app"
	"github.com/avezina/identity-service/internal/config"
	"github.com/avezina/identity-service/internal/database"
	"github.com/avezina/identity-service/internal/health"
	"github.com/avezina/identity-service/internal/http/handler"
	"github.com/avezina/identity-service/internal/http/router"
	"github.com/avezina/identity-service/internal/mail"
	"github.com/avezina/identity-service/internal/observability"
	"github.com/avezina/identity-service/internal/repository"
	"github.com/avezina/identity-service/internal/security"
	"github.com/avezina/identity-service/internal/service"
)

var ConfigSet = wire.NewSet(config.Load)

var ObservabilitySet = wire.NewSet(
	provideObservabilityRuntime,
	provideAppLogger,
)

var RuntimeInfraSet = wire.NewSet(
	provideRuntimeDB,
	provideRedisClient,
	provideReadinessProbeRunner,
)

var RepositorySet = wire.NewSet(
	repository.NewUserRepository,
	repository.NewVerificationTokenRepository,
	provideSessionRepository,
)

var SecuritySet = wire.NewSet(provideCookieManager)

var MailSet = wire.NewSet(provideMailSender)

var ServiceSet = wire.NewSet(
	provideTokenService,
	provideSessionService,
	service.NewAuthService,
	wire.Bind(new(service.AuthServiceInterface), new(*service.AuthService)),
	wire.Bind(new(service.SessionServiceInterface), new(*service.SessionService)),
)

var HTTPSet = wire.NewSet(
	handler.NewAuthHandler,
	handler.NewUserHandler,
	provideRouterDependencies,
	router.NewRouter,
	provideHTTPServer,
)

var AppSet = wire.NewSet(provideApp)

func provideObservabilityRuntime(cfg *config.Config) (*observability.Runtime, error) {
	bootstrapLogger := observability.NewBootstrapLogger(cfg)
	return observability.InitRuntime(context.Background(), cfg, bootstrapLogger)
}

func provideAppLogger(cfg *config.Config, runtime *observability.Runtime) *slog.Logger {
	return observability.InitLogger(cfg, runtime.LoggerProvider)
}

func provideRuntimeDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func provideRedisClient(cfg *config.Config) redis.UniversalClient {
	if cfg.SessionStore != "redis" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

func provideSessionRepository(cfg *config.Config, db *gorm.DB, redisClient redis.UniversalClient) repository.SessionRepository {
	if cfg.SessionStore == "redis" && redisClient != nil {
		return repository.NewRedisSessionRepository(redisClient)
	}
	return repository.NewSessionRepository(db)
}

func provideCookieManager(cfg *config.Config) *security.CookieManager {
	return security.NewCookieManager(cfg.CookieDomain, cfg.CookieSecure, cfg.CookieSameSite)
}

func provideMailSender(cfg *config.Config, logger *slog.Logger) mail.Sender {
	if cfg.MailDriver == "smtp" {
		return mail.NewSMTPSender(cfg.SMTPAddr, cfg.MailFrom, cfg.SMTPUsername, cfg.SMTPPassword)
	}
	return mail.NewLogSender(logger)
}

func provideTokenService(cfg *config.Config, userRepo repository.UserRepository, tokenRepo repository.VerificationTokenRepository) *service.TokenService {
	return service.NewTokenService(userRepo, tokenRepo, cfg.TokenTTL())
}

func provideSessionService(cfg *config.Config, sessionRepo repository.SessionRepository, userRepo repository.UserRepository) *service.SessionService {
	return service.NewSessionService(sessionRepo, userRepo, cfg.SessionTTL)
}

func provideRouterDependencies(
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	sessionSvc service.SessionServiceInterface,
	cookieMgr *security.CookieManager,
	readiness *health.ProbeRunner,
	cfg *config.Config,
) router.Dependencies {
	return router.Dependencies{
		AuthHandler:    authHandler,
		UserHandler:    userHandler,
		SessionService: sessionSvc,
		CookieManager:  cookieMgr,
		CORSOrigins:    cfg.CORSAllowedOrigins,
		MaxBodyBytes:   cfg.MaxRequestBodyBytes,
		Readiness:      readiness,
		EnableOTelHTTP: cfg.OTELMetricsEnabled || cfg.OTELTracingEnabled,
	}
}

func provideHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           h,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func provideReadinessProbeRunner(cfg *config.Config, db *gorm.DB, redisClient redis.UniversalClient) *health.ProbeRunner {
	checkers := make([]health.Checker, 0, 2)
	if c := health.NewDBChecker(db); c != nil {
		checkers = append(checkers, c)
	}
	if cfg.SessionStore == "redis" {
		if c := health.NewRedisChecker(redisClient); c != nil {
			checkers = append(checkers, c)
		}
	}
	return health.NewProbeRunner(2*time.Second, cfg.ReadinessGracePeriod, checkers...)
}

func provideApp(
	cfg *config.Config,
	logger *slog.Logger,
	server *http.Server,
	runtime *observability.Runtime,
	db *gorm.DB,
	redisClient redis.UniversalClient,
	readiness *health.ProbeRunner,
) *app.App {
	return app.New(cfg, logger, server, runtime, db, redisClient, readiness)
}
