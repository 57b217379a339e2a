package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"PortalAPI/internal/model"
)

// UserRepository — контракт доступа к пользователям и их сессионному состоянию.
type UserRepository interface {
	// FindByID возвращает пользователя со всеми настройками (включая их
	// комбинации и сущности сайдбара).
	FindByID(ctx context.Context, id string) (*model.User, error)

	// Create создаёт нового пользователя вместе с дефолтной постоянной
	// настройкой на комбинацию базовой игры (пустой список модов).
	Create(ctx context.Context) (*model.User, error)

	// Persist сохраняет строку пользователя и сессионные колонки затронутой
	// настройки. Запись намеренно ограничена колонками, которыми владеет
	// сессия: у настройки это только отметка использования. Резолв держит
	// копию агрегата с начала запроса, и перезапись строки целиком стёрла бы
	// правки, которые хендлер успел закоммитить через свежую копию.
	Persist(ctx context.Context, u *model.User, active *model.Setting) error

	// DeleteOlderThan массово удаляет пользователей, не появлявшихся после
	// cutoff, вместе с их настройками и сущностями сайдбара.
	// Возвращает число удалённых пользователей.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type userRepo struct {
	db *gorm.DB
}

// NewUserRepository создаёт реализацию репозитория пользователей.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	err := r.db.WithContext(ctx).
		Preload("Settings").
		Preload("Settings.Combination").
		Preload("Settings.SidebarEntities").
		First(&u, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) Create(ctx context.Context) (*model.User, error) {
	now := time.Now().UTC()
	comb := model.NewCombination(nil)
	user := &model.User{
		ID:            uuid.NewString(),
		Locale:        model.DefaultLocale,
		LastVisitTime: now,
	}
	setting := &model.Setting{
		ID:            uuid.NewString(),
		UserID:        user.ID,
		CombinationID: comb.ID,
		Name:          model.DefaultSettingName,
		Locale:        model.DefaultLocale,
		RecipeMode:    model.DefaultRecipeMode,
		LastUsageTime: now,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// комбинация базовой игры разделяется всеми пользователями
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).Create(comb)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			if err := tx.First(comb, "id = ?", comb.ID).Error; err != nil {
				return err
			}
		}
		setting.HasData = comb.Status == model.CombinationStatusAvailable

		if err := tx.Omit(clause.Associations).Create(user).Error; err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(setting).Error; err != nil {
			return err
		}
		user.CurrentSettingID = &setting.ID
		return tx.Model(&model.User{ID: user.ID}).Update("current_setting_id", setting.ID).Error
	})
	if err != nil {
		return nil, err
	}

	setting.Combination = *comb
	user.Settings = []model.Setting{*setting}
	return user, nil
}

func (r *userRepo) Persist(ctx context.Context, u *model.User, active *model.Setting) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&model.User{ID: u.ID}).Updates(map[string]any{
			"locale":             u.Locale,
			"last_visit_time":    u.LastVisitTime,
			"current_setting_id": u.CurrentSettingID,
		}).Error
		if err != nil {
			return err
		}
		if active == nil {
			return nil
		}
		return tx.Model(&model.Setting{ID: active.ID}).
			Update("last_usage_time", active.LastUsageTime).Error
	})
}

func (r *userRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var userIDs []string
		if err := tx.Model(&model.User{}).Where("last_visit_time < ?", cutoff).Pluck("id", &userIDs).Error; err != nil {
			return err
		}
		if len(userIDs) == 0 {
			return nil
		}
		var settingIDs []string
		if err := tx.Model(&model.Setting{}).Where("user_id IN ?", userIDs).Pluck("id", &settingIDs).Error; err != nil {
			return err
		}
		if len(settingIDs) > 0 {
			if err := tx.Where("setting_id IN ?", settingIDs).Delete(&model.SidebarEntity{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", settingIDs).Delete(&model.Setting{}).Error; err != nil {
				return err
			}
		}
		res := tx.Where("id IN ?", userIDs).Delete(&model.User{})
		deleted = res.RowsAffected
		return res.Error
	})
	return deleted, err
}
