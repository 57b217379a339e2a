package repo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"PortalAPI/internal/model"
)

func TestUserRepository_CreateBootstrapsDefaultSetting(t *testing.T) {
	db := newTestDB(t)
	r := NewUserRepository(db)
	ctx := context.Background()

	u, err := r.Create(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, u.ID)

	// инвариант: у нового пользователя сразу есть активная дефолтная настройка
	require.NotNil(t, u.CurrentSettingID)
	cur := u.CurrentSetting()
	require.NotNil(t, cur, "current setting must be a member of the settings collection")
	assert.Equal(t, model.DefaultLocale, cur.Locale)
	assert.Equal(t, model.DefaultRecipeMode, cur.RecipeMode)
	assert.False(t, cur.IsTemporary)

	// дефолтная настройка привязана к комбинации базовой игры
	assert.Equal(t, model.CombinationIDForModNames(nil), cur.CombinationID)
	assert.Empty(t, cur.Combination.ModNames)

	// состояние читается обратно вместе с настройками
	loaded, err := r.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, loaded.Settings, 1)
	assert.Equal(t, cur.ID, *loaded.CurrentSettingID)
}

func TestUserRepository_SecondUserSharesBaseCombination(t *testing.T) {
	db := newTestDB(t)
	r := NewUserRepository(db)
	ctx := context.Background()

	u1, err := r.Create(ctx)
	require.NoError(t, err)
	u2, err := r.Create(ctx)
	require.NoError(t, err)

	// комбинация базовой игры дедуплицируется между пользователями
	assert.Equal(t, u1.Settings[0].CombinationID, u2.Settings[0].CombinationID)
	var count int64
	db.Model(&model.Combination{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestUserRepository_FindByIDNotFound(t *testing.T) {
	db := newTestDB(t)
	r := NewUserRepository(db)

	got, err := r.FindByID(context.Background(), "00000000-0000-0000-0000-000000000000")
	assert.Nil(t, got)
	assert.Equal(t, gorm.ErrRecordNotFound, err)
}

func TestUserRepository_PersistDoesNotClobberSiblingSetting(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	settings := NewSettingRepository(db)
	combinations := NewCombinationRepository(db)
	ctx := context.Background()

	u, err := users.Create(ctx)
	require.NoError(t, err)

	// вторая настройка того же пользователя
	comb, err := combinations.FindOrCreate(ctx, []string{"flib"})
	require.NoError(t, err)
	sibling := &model.Setting{
		ID:            "11111111-1111-1111-1111-111111111111",
		UserID:        u.ID,
		CombinationID: comb.ID,
		Name:          "Modded",
		Locale:        "de",
		RecipeMode:    model.RecipeModeNormal,
		LastUsageTime: time.Now().UTC(),
	}
	require.NoError(t, settings.Create(ctx, sibling))

	// параллельный запрос успел поменять соседнюю настройку в БД
	sibling.Name = "Modded v2"
	require.NoError(t, settings.Save(ctx, sibling))

	// persist пользователя со «старой» копией агрегата в памяти
	u.LastVisitTime = time.Now().UTC().Add(time.Minute)
	active := u.CurrentSetting()
	require.NotNil(t, active)
	active.LastUsageTime = u.LastVisitTime
	require.NoError(t, users.Persist(ctx, u, active))

	// изменение соседней настройки не потеряно
	got, err := settings.FindByID(ctx, sibling.ID)
	require.NoError(t, err)
	assert.Equal(t, "Modded v2", got.Name)
}

func TestUserRepository_PersistDoesNotRevertEditedActiveSetting(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	settings := NewSettingRepository(db)
	ctx := context.Background()

	u, err := users.Create(ctx)
	require.NoError(t, err)

	// хендлер в том же запросе закоммитил правку активной настройки
	// через свежую копию из БД
	edited, err := settings.FindByID(ctx, *u.CurrentSettingID)
	require.NoError(t, err)
	edited.Name = "My base game"
	edited.Locale = "de"
	edited.RecipeMode = model.RecipeModeNormal
	require.NoError(t, settings.Save(ctx, edited))

	// persist после обработки работает со старой копией из резолва
	stale := u.CurrentSetting()
	require.NotNil(t, stale)
	usage := time.Now().UTC().Add(time.Minute)
	stale.LastUsageTime = usage
	u.LastVisitTime = usage
	require.NoError(t, users.Persist(ctx, u, stale))

	// правка хендлера пережила persist, отметка использования обновлена
	got, err := settings.FindByID(ctx, edited.ID)
	require.NoError(t, err)
	assert.Equal(t, "My base game", got.Name)
	assert.Equal(t, "de", got.Locale)
	assert.Equal(t, model.RecipeModeNormal, got.RecipeMode)
	assert.WithinDuration(t, usage, got.LastUsageTime, time.Second)
}

func TestUserRepository_DeleteOlderThan(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	ctx := context.Background()

	stale, err := users.Create(ctx)
	require.NoError(t, err)
	fresh, err := users.Create(ctx)
	require.NoError(t, err)

	// состарим первого пользователя
	old := time.Now().UTC().Add(-48 * time.Hour)
	require.NoError(t, db.Model(&model.User{ID: stale.ID}).Update("last_visit_time", old).Error)

	deleted, err := users.DeleteOlderThan(ctx, time.Now().UTC().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	_, err = users.FindByID(ctx, stale.ID)
	assert.Equal(t, gorm.ErrRecordNotFound, err)
	_, err = users.FindByID(ctx, fresh.ID)
	assert.NoError(t, err)

	// настройки удалённого пользователя зачищены
	var count int64
	db.Model(&model.Setting{}).Where("user_id = ?", stale.ID).Count(&count)
	assert.EqualValues(t, 0, count)
}
