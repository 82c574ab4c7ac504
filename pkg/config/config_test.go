package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")

	cfg, err := Load("contact-service")
	require.NoError(t, err)

	assert.Equal(t, "contact-service", cfg.ServiceName)
	assert.Equal(t, DriverPostgres, cfg.DB.Driver)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "91", cfg.Import.DefaultCountryCode)
	assert.Equal(t, int64(10<<20), cfg.Import.MaxUploadBytes)
	assert.Contains(t, cfg.DB.GetDSN(), "dbname=")
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("DB_SQLITE_PATH", "/tmp/x.db")
	t.Setenv("AUTH_REQUIRED", "true")
	t.Setenv("DB_CONN_MAX_LIFETIME", "5m")
	t.Setenv("DB_LOG_LEVEL", "silent")
	t.Setenv("DB_MAX_OPEN_CONNS", "7")

	cfg, err := Load("contact-service")
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.DB.Driver)
	assert.Equal(t, "/tmp/x.db", cfg.DB.GetDSN())
	assert.True(t, cfg.Auth.Required)
	assert.Equal(t, 5*time.Minute, cfg.DB.ConnMaxLifetime)
	assert.Equal(t, logger.Silent, cfg.DB.LogLevel)
	assert.Equal(t, 7, cfg.DB.MaxOpenConns)
}

func TestLoad_UnknownDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "oracle")

	_, err := Load("contact-service")
	assert.Error(t, err)
}

func TestGetEnvHelpers_FallBackOnGarbage(t *testing.T) {
	t.Setenv("SOME_INT", "abc")
	t.Setenv("SOME_BOOL", "maybe")

	assert.Equal(t, 3, getEnvAsInt("SOME_INT", 3))
	assert.False(t, getEnvAsBool("SOME_BOOL", false))
	assert.Equal(t, logger.Warn, getEnvAsLogLevel("UNSET_LEVEL_KEY", logger.Warn))
}
