package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Abhayaj247/plexidraw-hub/internal/config"
	"github.com/Abhayaj247/plexidraw-hub/internal/displayname"
	"github.com/Abhayaj247/plexidraw-hub/internal/hub"
	"github.com/Abhayaj247/plexidraw-hub/internal/identity"
	"github.com/Abhayaj247/plexidraw-hub/internal/logging"
	"github.com/Abhayaj247/plexidraw-hub/internal/postgres"
	"github.com/Abhayaj247/plexidraw-hub/internal/server"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(cfg *config.Config) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	return pool
}

func setupRedis(cfg *config.Config) *goredis.Client {
	if cfg.RedisURL == "" {
		return nil
	}

	opts, err := goredis.ParseURL(cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to parse redis URL", "error", err)
		os.Exit(1)
	}

	client := goredis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

func runGracefulShutdown(srv *server.Server, h *hub.Hub) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		h.Stop()
		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	pool := setupDB(cfg)
	defer pool.Close()

	redisClient := setupRedis(cfg)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	gateway := postgres.NewBreakerGateway(postgres.NewGateway(pool))

	var nameCache displayname.Cache
	if redisClient != nil {
		nameCache = displayname.NewRedisCache(redisClient, cfg.NameCacheTTL)
	} else {
		nameCache = displayname.NewMemoryCache(cfg.NameCacheTTL, clock)
	}
	names := displayname.NewService(gateway, nameCache)

	h := hub.New(gateway, names, clock, cfg.MaxConnections, cfg.MaxRoomClients)

	validator := identity.NewValidator(cfg.JWTSecret)
	srv := server.NewServer(cfg, h, validator, pool, redisClient)

	done := runGracefulShutdown(srv, h)

	slog.Info("Server starting", "port", cfg.Port)
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
