package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setSecrets(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_ACCESS_SECRET", "access")
	t.Setenv("JWT_REFRESH_SECRET", "refresh")
}

func TestLoadDefaults(t *testing.T) {
	setSecrets(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.Timeout)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "blogflow.db", cfg.Database.Path)
	assert.Equal(t, time.Hour, cfg.Auth.AccessTTL)
	assert.Equal(t, 168*time.Hour, cfg.Auth.RefreshTTL)
	assert.Equal(t, "blogflow", cfg.Auth.Issuer)
	assert.Equal(t, 4, cfg.Views.Workers)
	assert.False(t, cfg.Tracing.Enabled)
	assert.False(t, cfg.IsDevelopment())
}

func TestLoadFromEnvironment(t *testing.T) {
	setSecrets(t)
	t.Setenv("APP_ENV", "development")
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("JWT_ACCESS_TTL", "15m")
	t.Setenv("VIEW_WORKERS", "0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTTL)
	assert.Equal(t, 1, cfg.Views.Workers, "workers are clamped")
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing secrets", env: map[string]string{"JWT_ACCESS_SECRET": "", "JWT_REFRESH_SECRET": ""}},
		{name: "equal secrets", env: map[string]string{"JWT_ACCESS_SECRET": "same", "JWT_REFRESH_SECRET": "same"}},
		{name: "unknown driver", env: map[string]string{"JWT_ACCESS_SECRET": "a", "JWT_REFRESH_SECRET": "b", "DB_DRIVER": "mysql"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
