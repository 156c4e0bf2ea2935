package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/avezina/identity-service/internal/config"
	"github.com/avezina/identity-service/internal/health"
	"github.com/avezina/identity-service/internal/observability"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// App holds everything the process owns so main can start and tear it down
// in order.
type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	Server        *http.Server
	Observability *observability.Runtime
	DB            *gorm.DB
	Redis         redis.UniversalClient
	Readiness     *health.ProbeRunner
}

func New(
	cfg *config.Config,
	logger *slog.Logger,
	server *http.Server,
	runtime *observability.Runtime,
	db *gorm.DB,
	redisClient redis.UniversalClient,
	readiness *health.ProbeRunner,
) *App {
	return &App{
		Config:        cfg,
		Logger:        logger,
		Server:        server,
		Observability: runtime,
		DB:            db,
		Redis:         redisClient,
		Readiness:     readiness,
	}
}

func (a *App) ShutdownTimeout() time.Duration {
	if a.Config == nil || a.Config.ShutdownTimeout <= 0 {
		return 15 * time.Second
	}
	return a.Config.ShutdownTimeout
}
