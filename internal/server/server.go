package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Abhayaj247/plexidraw-hub/internal/config"
	"github.com/Abhayaj247/plexidraw-hub/internal/hub"
	"github.com/Abhayaj247/plexidraw-hub/internal/identity"
)

type Server struct {
	echo      *echo.Echo
	config    *config.Config
	hub       *hub.Hub
	validator *identity.Validator
	limits    *ConnectionLimits
	startTime time.Time

	// Health check dependencies. redisClient is nil when no Redis is
	// configured and the readiness probe skips it.
	db          *pgxpool.Pool
	redisClient *goredis.Client
}

func NewServer(cfg *config.Config, h *hub.Hub, validator *identity.Validator, db *pgxpool.Pool, redisClient *goredis.Client) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	srv := &Server{
		echo:        e,
		config:      cfg,
		hub:         h,
		validator:   validator,
		limits:      NewConnectionLimits(int64(cfg.MaxConnections), cfg.WSConnectRate, cfg.WSConnectBurst),
		startTime:   time.Now(),
		db:          db,
		redisClient: redisClient,
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	slog.Info("starting server", "port", s.config.Port)
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Handler exposes the HTTP handler for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}
