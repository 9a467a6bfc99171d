package database

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/emilythestrangee/cheffry/backend/internal/config"
)

func TestNew_SQLite(t *testing.T) {
	svc, err := New(config.DatabaseConfig{
		Driver:       "sqlite",
		DSN:          fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()),
		MaxOpenConns: 1,
		LogLevel:     "silent",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })

	health := svc.Health()
	assert.Equal(t, "up", health["status"])

	for _, m := range Models() {
		assert.True(t, svc.GetDB().Migrator().HasTable(m), "missing table for %T", m)
	}
}

func TestNew_UnsupportedDriver(t *testing.T) {
	_, err := New(config.DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)
}

func TestHealth_Down(t *testing.T) {
	svc, err := New(config.DatabaseConfig{
		Driver:   "sqlite",
		DSN:      fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()),
		LogLevel: "silent",
	})
	require.NoError(t, err)
	require.NoError(t, svc.Close())

	assert.Equal(t, "down", svc.Health()["status"])
}

func TestGormLogLevel(t *testing.T) {
	assert.Equal(t, logger.Silent, gormLogLevel("silent"))
	assert.Equal(t, logger.Info, gormLogLevel("INFO"))
	assert.Equal(t, logger.Warn, gormLogLevel(""))
}
