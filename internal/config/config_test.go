package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/plexidraw")
	t.Setenv("JWT_SECRET", "test-secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 10000, cfg.MaxConnections)
	assert.Equal(t, 0, cfg.MaxRoomClients)
	assert.Equal(t, 5*time.Minute, cfg.NameCacheTTL)
	assert.Equal(t, 5.0, cfg.WSConnectRate)
	assert.Equal(t, 10, cfg.WSConnectBurst)
	assert.Empty(t, cfg.RedisURL)
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("MAX_ROOM_CLIENTS", "25")
	t.Setenv("NAME_CACHE_TTL", "30s")
	t.Setenv("REDIS_URL", "redis://localhost:6379")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 25, cfg.MaxRoomClients)
	assert.Equal(t, 30*time.Second, cfg.NameCacheTTL)
	assert.Equal(t, "redis://localhost:6379", cfg.RedisURL)
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/plexidraw")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoad_InvalidLimits(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"zero max connections", "MAX_CONNECTIONS", "0"},
		{"negative room cap", "MAX_ROOM_CLIENTS", "-1"},
		{"zero connect rate", "WS_CONNECT_RATE", "0"},
		{"zero connect burst", "WS_CONNECT_BURST", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
