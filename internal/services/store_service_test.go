package services

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/blazehunter/internal/models"
	"github.com/example/blazehunter/internal/utils"
)

type recordingNotifier struct {
	mu     sync.Mutex
	tables []string
}

func (r *recordingNotifier) Notify(_ context.Context, table string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tables = append(r.tables, table)
	return nil
}

var (
	senior = Credentials{Email: "boss@example.com", Key: "boss-key"}
	junior = Credentials{Email: "helper@example.com", Key: "helper-key"}
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func setupStore(t *testing.T) (*StoreGateway, *recordingNotifier) {
	t.Helper()

	db := openTestDB(t)
	require.NoError(t, db.AutoMigrate(&models.ContentItem{}, &models.HomeSettings{}, &models.AdminAccount{}))

	for _, acc := range []struct {
		creds Credentials
		role  string
	}{{senior, models.RoleSeniorAdmin}, {junior, models.RoleAdmin}} {
		hash, err := utils.HashAccessKey(acc.creds.Key)
		require.NoError(t, err)
		require.NoError(t, db.Create(&models.AdminAccount{Email: acc.creds.Email, AccessKey: hash, Role: acc.role}).Error)
	}

	notifier := &recordingNotifier{}
	return NewStoreGateway(db, notifier, zerolog.Nop()), notifier
}

func TestStore_VerifyAdminKey(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	ok, err := store.VerifyAdminKey(ctx, junior)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.VerifyAdminKey(ctx, Credentials{Email: junior.Email, Key: "wrong"})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = store.VerifyAdminKey(ctx, Credentials{Email: "nobody@example.com", Key: "x"})
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = store.VerifyAdminKey(ctx, Credentials{Email: junior.Email})
	var validation *ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestStore_UpsertThenListRoundTrip(t *testing.T) {
	store, notifier := setupStore(t)
	ctx := context.Background()

	input := models.ContentItem{
		NationKey:  "brazil",
		Title:      "Carnival",
		URL:        "https://cdn.example.com/carnival.png",
		BannerLink: "https://example.com/carnival",
		StartDate:  "01/02/2024",
		EndDate:    "15/02/2024",
	}

	created, err := store.Upsert(ctx, input, junior)
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	items, err := store.List(ctx, "brazil")
	require.NoError(t, err)
	require.Len(t, items, 1)

	got := items[0]
	assert.Equal(t, input.NationKey, got.NationKey)
	assert.Equal(t, input.Title, got.Title)
	assert.Equal(t, input.URL, got.URL)
	assert.Equal(t, input.BannerLink, got.BannerLink)
	assert.Equal(t, input.StartDate, got.StartDate)
	assert.Equal(t, input.EndDate, got.EndDate)
	assert.Equal(t, []string{"nation_banners"}, notifier.tables)
}

func TestStore_UpsertUpdatesExisting(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	created, err := store.Upsert(ctx, models.ContentItem{NationKey: "india", URL: "a.png", StartDate: "01/01/2024"}, junior)
	require.NoError(t, err)

	created.Title = "Updated"
	created.EndDate = "20/01/2024"
	updated, err := store.Upsert(ctx, created, junior)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Updated", updated.Title)

	items, err := store.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "20/01/2024", items[0].EndDate)

	_, err = store.Upsert(ctx, models.ContentItem{ID: 999, NationKey: "india", URL: "b.png"}, junior)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_UpsertRejects(t *testing.T) {
	store, notifier := setupStore(t)
	ctx := context.Background()

	_, err := store.Upsert(ctx, models.ContentItem{NationKey: "india", URL: "a.png"}, Credentials{Email: junior.Email, Key: "bad"})
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = store.Upsert(ctx, models.ContentItem{NationKey: "india"}, junior)
	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "url", validation.Field)

	items, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Empty(t, notifier.tables)
}

func TestStore_Delete(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	var ids []int64
	for _, key := range []string{"brazil", "news", "india"} {
		item, err := store.Upsert(ctx, models.ContentItem{NationKey: key, URL: key + ".png"}, junior)
		require.NoError(t, err)
		ids = append(ids, item.ID)
	}

	require.NoError(t, store.Delete(ctx, ids[:2], junior))

	items, err := store.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "india", items[0].NationKey)

	assert.ErrorIs(t, store.Delete(ctx, ids[2:], Credentials{Email: "x@y.z", Key: "k"}), ErrUnauthorized)
	var validation *ValidationError
	assert.ErrorAs(t, store.Delete(ctx, nil, junior), &validation)
}

func TestStore_HomeSettings(t *testing.T) {
	store, notifier := setupStore(t)
	ctx := context.Background()

	settings, err := store.GetHomeSettings(ctx)
	require.NoError(t, err)
	assert.Nil(t, settings)

	require.NoError(t, store.SetHomeSettings(ctx, models.HomeSettings{BgPcURL: " pc.mp4 ", BgMobileURL: "m.png"}, junior))
	require.NoError(t, store.SetHomeSettings(ctx, models.HomeSettings{BgPcURL: "pc2.png", BgMobileURL: "m2.png"}, junior))

	settings, err = store.GetHomeSettings(ctx)
	require.NoError(t, err)
	require.NotNil(t, settings)
	assert.Equal(t, models.HomeSettingsID, settings.ID)
	assert.Equal(t, "pc2.png", settings.BgPcURL)
	assert.Equal(t, "m2.png", settings.BgMobileURL)
	assert.Equal(t, []string{"home_settings", "home_settings"}, notifier.tables)

	assert.ErrorIs(t, store.SetHomeSettings(ctx, models.HomeSettings{}, Credentials{Email: junior.Email, Key: "no"}), ErrUnauthorized)
}

func TestStore_ListAdminsOmitsKeys(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	admins, err := store.ListAdmins(ctx, junior)
	require.NoError(t, err)
	require.Len(t, admins, 2)
	assert.Equal(t, senior.Email, admins[0].Email)
	assert.Equal(t, models.RoleSeniorAdmin, admins[0].Role)
	for _, a := range admins {
		assert.Empty(t, a.AccessKey)
	}

	_, err = store.ListAdmins(ctx, Credentials{Email: junior.Email, Key: "bad"})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestStore_ManageAdminRequiresSenior(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	err := store.ManageAdmin(ctx, AdminAdd, AdminTarget{Email: "new@example.com", Role: models.RoleAdmin, Password: "pw"}, junior)
	assert.ErrorIs(t, err, ErrForbidden)

	err = store.ManageAdmin(ctx, AdminDelete, AdminTarget{Email: senior.Email}, junior)
	assert.ErrorIs(t, err, ErrForbidden)

	admins, err := store.ListAdmins(ctx, senior)
	require.NoError(t, err)
	assert.Len(t, admins, 2)
}

func TestStore_ManageAdminLifecycle(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	target := AdminTarget{Email: "new@example.com", Role: models.RoleAdmin, Password: "first"}
	require.NoError(t, store.ManageAdmin(ctx, AdminAdd, target, senior))

	var validation *ValidationError
	assert.ErrorAs(t, store.ManageAdmin(ctx, AdminAdd, target, senior), &validation)

	ok, err := store.VerifyAdminKey(ctx, Credentials{Email: target.Email, Key: "first"})
	require.NoError(t, err)
	assert.True(t, ok)

	// Blank password keeps the current key.
	require.NoError(t, store.ManageAdmin(ctx, AdminUpdate, AdminTarget{Email: target.Email, Role: models.RoleSeniorAdmin}, senior))
	ok, err = store.VerifyAdminKey(ctx, Credentials{Email: target.Email, Key: "first"})
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, store.ManageAdmin(ctx, AdminUpdate, AdminTarget{Email: target.Email, Role: models.RoleSeniorAdmin, Password: "second"}, senior))
	ok, err = store.VerifyAdminKey(ctx, Credentials{Email: target.Email, Key: "second"})
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, store.ManageAdmin(ctx, AdminDelete, AdminTarget{Email: target.Email}, senior))
	assert.ErrorIs(t, store.ManageAdmin(ctx, AdminDelete, AdminTarget{Email: target.Email}, senior), ErrNotFound)
	assert.ErrorIs(t, store.ManageAdmin(ctx, AdminUpdate, AdminTarget{Email: target.Email, Role: models.RoleAdmin}, senior), ErrNotFound)

	assert.ErrorAs(t, store.ManageAdmin(ctx, AdminDelete, AdminTarget{Email: senior.Email}, senior), &validation)

	// A senior cannot demote themselves, but may rotate their own key.
	assert.ErrorAs(t, store.ManageAdmin(ctx, AdminUpdate, AdminTarget{Email: senior.Email, Role: models.RoleAdmin}, senior), &validation)
	admins, err := store.ListAdmins(ctx, senior)
	require.NoError(t, err)
	for _, admin := range admins {
		if admin.Email == senior.Email {
			assert.Equal(t, models.RoleSeniorAdmin, admin.Role)
		}
	}
	require.NoError(t, store.ManageAdmin(ctx, AdminUpdate, AdminTarget{Email: senior.Email, Role: models.RoleSeniorAdmin, Password: "boss-key"}, senior))

	assert.ErrorAs(t, store.ManageAdmin(ctx, AdminAction("PROMOTE"), target, senior), &validation)
	assert.ErrorAs(t, store.ManageAdmin(ctx, AdminAdd, AdminTarget{Email: "x@y.z", Role: "root", Password: "p"}, senior), &validation)
}

func TestStore_EnsureSeniorAdmin(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.AutoMigrate(&models.AdminAccount{}))

	store := NewStoreGateway(db, nil, zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, store.EnsureSeniorAdmin(ctx, "root@example.com", "root-key"))
	require.NoError(t, store.EnsureSeniorAdmin(ctx, "other@example.com", "other-key"))

	admins, err := store.ListAdmins(ctx, Credentials{Email: "root@example.com", Key: "root-key"})
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, models.RoleSeniorAdmin, admins[0].Role)
}
