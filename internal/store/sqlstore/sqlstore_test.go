package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/emilythestrangee/cheffry/backend/internal/database"
	"github.com/emilythestrangee/cheffry/backend/internal/models"
	"github.com/emilythestrangee/cheffry/backend/internal/store"
	"github.com/emilythestrangee/cheffry/backend/internal/store/storetest"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return New(setupTestDB(t))
	})
}

func TestPing(t *testing.T) {
	s := New(setupTestDB(t))
	assert.NoError(t, s.Ping(context.Background()))
	require.NoError(t, s.Close())
	assert.Error(t, s.Ping(context.Background()))
}

func TestIncrementCountryInteraction_Upsert(t *testing.T) {
	db := setupTestDB(t)
	s := New(db)
	ctx := context.Background()

	require.NoError(t, s.IncrementCountryInteraction(ctx, "u1", "Japan"))
	require.NoError(t, s.IncrementCountryInteraction(ctx, "u1", "Japan"))

	var rows []models.CountryInteraction
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.EqualValues(t, 2, rows[0].InteractionCount)
}

func TestCreatePost_EmptyMediaURLs(t *testing.T) {
	s := New(setupTestDB(t))
	ctx := context.Background()

	p := &models.Post{UserID: "u1", Content: "plain", Country: "Peru"}
	require.NoError(t, s.CreatePost(ctx, p))

	got, err := s.GetPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, got.MediaURLs)
}
