package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDevelopmentDefaults(t *testing.T) {
	t.Setenv("ENV", "development")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", "file::memory:")
	t.Setenv("ALLOWED_ORIGINS", "https://veryus.app, http://localhost:5173")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "disk", cfg.Storage.Driver)
	assert.Equal(t, []string{"https://veryus.app", "http://localhost:5173"}, cfg.Server.AllowedOrigins)
	assert.False(t, cfg.Mail.Enabled())
	assert.True(t, cfg.Development())
}

func TestLoadRejectsDefaultSecretInProduction(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("REALTIME_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Database: DatabaseConfig{Driver: "postgres", URL: "postgres://x"},
			Storage:  StorageConfig{Driver: "disk", Dir: "/tmp/x"},
			Log:      LogConfig{Env: "development"},
		}
	}

	assert.NoError(t, base().Validate())

	cfg := base()
	cfg.Database.Driver = "mysql"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Storage.Driver = "s3"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Storage = StorageConfig{Driver: "gridfs"}
	assert.Error(t, cfg.Validate())
}

func TestGetDurationEnvFallsBack(t *testing.T) {
	t.Setenv("SOME_TIMEOUT", "not-a-duration")
	assert.Equal(t, 3*time.Second, getDurationEnv("SOME_TIMEOUT", 3*time.Second))
}
