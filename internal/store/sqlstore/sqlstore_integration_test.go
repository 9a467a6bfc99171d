//go:build integration

package sqlstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"gorm.io/gorm"

	"github.com/emilythestrangee/cheffry/backend/internal/config"
	"github.com/emilythestrangee/cheffry/backend/internal/database"
	"github.com/emilythestrangee/cheffry/backend/internal/store"
	"github.com/emilythestrangee/cheffry/backend/internal/store/storetest"
)

func startPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("cheffry"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		tcpostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return dsn
}

func TestStoreContract_Postgres(t *testing.T) {
	dsn := startPostgres(t)

	storetest.Run(t, func(t *testing.T) store.Store {
		svc, err := database.New(config.DatabaseConfig{
			Driver:          "postgres",
			DSN:             dsn,
			MaxOpenConns:    5,
			ConnMaxLifetime: time.Minute,
			LogLevel:        "silent",
		})
		require.NoError(t, err)
		db := svc.GetDB()
		truncate(t, db)
		t.Cleanup(func() { _ = svc.Close() })
		return New(db)
	})
}

func truncate(t *testing.T, db *gorm.DB) {
	t.Helper()
	for _, m := range database.Models() {
		require.NoError(t, db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(m).Error)
	}
}
