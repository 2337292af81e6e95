package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv      string `env:"APP_ENV" default:"development"`
	Port        string `env:"PORT" default:"8080"`
	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`
	JWTSecret   string `env:"JWT_SECRET"`
	LogLevel    string `env:"LOG_LEVEL" default:"info"`
	LogFormat   string `env:"LOG_FORMAT" default:"text"`

	MaxConnections int `env:"MAX_CONNECTIONS" default:"10000"`
	// MaxRoomClients of 0 means unlimited.
	MaxRoomClients int `env:"MAX_ROOM_CLIENTS" default:"0"`

	NameCacheTTL time.Duration `env:"NAME_CACHE_TTL" default:"5m"`

	WSConnectRate  float64 `env:"WS_CONNECT_RATE" default:"5"`
	WSConnectBurst int     `env:"WS_CONNECT_BURST" default:"10"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	required := map[string]string{
		"DATABASE_URL": cfg.DatabaseURL,
		"JWT_SECRET":   cfg.JWTSecret,
	}
	for name, value := range required {
		if value == "" {
			return fmt.Errorf("%s is required", name)
		}
	}

	if cfg.MaxConnections <= 0 {
		return fmt.Errorf("MAX_CONNECTIONS must be positive, got %d", cfg.MaxConnections)
	}
	if cfg.MaxRoomClients < 0 {
		return fmt.Errorf("MAX_ROOM_CLIENTS must not be negative, got %d", cfg.MaxRoomClients)
	}
	if cfg.WSConnectRate <= 0 {
		return fmt.Errorf("WS_CONNECT_RATE must be positive, got %v", cfg.WSConnectRate)
	}
	if cfg.WSConnectBurst <= 0 {
		return fmt.Errorf("WS_CONNECT_BURST must be positive, got %d", cfg.WSConnectBurst)
	}

	return nil
}
