package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/example/blazehunter/internal/models"
)

func TestMigrateCreatesTables(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, Migrate(db))

	for _, table := range []string{"nation_banners", "home_settings", "admin_access"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
	assert.True(t, db.Migrator().HasColumn(&models.ContentItem{}, "banner_link"))
}

func TestEnsureDatabaseIgnoresNonURLDSN(t *testing.T) {
	assert.NoError(t, ensureDatabase("host=localhost user=x dbname=y"))
	assert.NoError(t, ensureDatabase("postgres://localhost:5432/"))
}

func TestConnectRedisRejectsBadURL(t *testing.T) {
	_, err := ConnectRedis(context.Background(), "not-a-url")
	assert.Error(t, err)
}
