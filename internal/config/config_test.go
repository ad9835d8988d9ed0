package config_test

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fkhayef/billsplit/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, config.StoragePostgres, cfg.StorageDriver)
	assert.True(t, cfg.MigrateOnStart)
	assert.False(t, cfg.IsProduction)
	assert.True(t, cfg.DevAuthHeader)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, 2*time.Second, cfg.LedgerLockTimeout)
	assert.Equal(t, 4, cfg.AggregateConcurrency)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORAGE_DRIVER", "MEMORY")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LEDGER_LOCK_TIMEOUT", "750ms")
	t.Setenv("AGGREGATE_CONCURRENCY", "8")
	t.Setenv("DEV_AUTH_HEADER", "false")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, config.StorageMemory, cfg.StorageDriver)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, 750*time.Millisecond, cfg.LedgerLockTimeout)
	assert.Equal(t, 8, cfg.AggregateConcurrency)
	assert.False(t, cfg.DevAuthHeader)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("LOG_LEVEL", "loud")
	t.Setenv("LEDGER_LOCK_TIMEOUT", "soon")
	t.Setenv("AGGREGATE_CONCURRENCY", "0")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, 2*time.Second, cfg.LedgerLockTimeout)
	assert.Equal(t, 4, cfg.AggregateConcurrency)
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"unknown driver", map[string]string{"STORAGE_DRIVER": "sqlite"}, "STORAGE_DRIVER"},
		{"production without secret", map[string]string{"IS_PRODUCTION": "true"}, "JWT_SECRET"},
		{"production on memory", map[string]string{"IS_PRODUCTION": "true", "JWT_SECRET": "s3cret", "STORAGE_DRIVER": "memory"}, "postgres"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := config.Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_ProductionDisablesDevHeader(t *testing.T) {
	t.Setenv("IS_PRODUCTION", "true")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.False(t, cfg.DevAuthHeader)
}
