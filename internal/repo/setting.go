package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"PortalAPI/internal/model"
)

// SettingRepository — контракт доступа к настройкам и их сущностям сайдбара.
type SettingRepository interface {
	// FindByID возвращает настройку с комбинацией и сайдбаром.
	FindByID(ctx context.Context, id string) (*model.Setting, error)

	// FindByUserAndCombination ищет настройку пользователя для комбинации.
	FindByUserAndCombination(ctx context.Context, userID, combinationID string) (*model.Setting, error)

	// ListByUser возвращает все настройки пользователя с их комбинациями.
	ListByUser(ctx context.Context, userID string) ([]model.Setting, error)

	// Create вставляет новую настройку. Комбинация должна уже существовать.
	Create(ctx context.Context, s *model.Setting) error

	// Save записывает строку настройки без каскада ассоциаций.
	Save(ctx context.Context, s *model.Setting) error

	// Delete удаляет настройку вместе с её сущностями сайдбара.
	Delete(ctx context.Context, s *model.Setting) error

	// FindExpiredTemporary возвращает временные настройки, не использовавшиеся
	// после cutoff.
	FindExpiredTemporary(ctx context.Context, cutoff time.Time) ([]model.Setting, error)

	// IsCurrentForAnyUser сообщает, является ли настройка чьей-то активной.
	IsCurrentForAnyUser(ctx context.Context, settingID string) (bool, error)

	// ReplaceSidebarEntities сводит присланный клиентом полный список с
	// сохранённым diff-ом по ключу (type, name): выжившие записи обновляются
	// на месте (id сохраняется), отсутствующие удаляются, новые вставляются.
	ReplaceSidebarEntities(ctx context.Context, settingID string, entities []model.SidebarEntity) ([]model.SidebarEntity, error)
}

type settingRepo struct {
	db *gorm.DB
}

// NewSettingRepository создаёт реализацию репозитория настроек.
func NewSettingRepository(db *gorm.DB) SettingRepository {
	return &settingRepo{db: db}
}

func (r *settingRepo) FindByID(ctx context.Context, id string) (*model.Setting, error) {
	var s model.Setting
	err := r.db.WithContext(ctx).
		Preload("Combination").
		Preload("SidebarEntities").
		First(&s, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *settingRepo) FindByUserAndCombination(ctx context.Context, userID, combinationID string) (*model.Setting, error) {
	var s model.Setting
	err := r.db.WithContext(ctx).
		Preload("Combination").
		Preload("SidebarEntities").
		First(&s, "user_id = ? AND combination_id = ?", userID, combinationID).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *settingRepo) ListByUser(ctx context.Context, userID string) ([]model.Setting, error) {
	var settings []model.Setting
	err := r.db.WithContext(ctx).
		Preload("Combination").
		Where("user_id = ?", userID).
		Order("created_at").
		Find(&settings).Error
	if err != nil {
		return nil, err
	}
	return settings, nil
}

func (r *settingRepo) Create(ctx context.Context, s *model.Setting) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(s).Error
}

func (r *settingRepo) Save(ctx context.Context, s *model.Setting) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(s).Error
}

func (r *settingRepo) Delete(ctx context.Context, s *model.Setting) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("setting_id = ?", s.ID).Delete(&model.SidebarEntity{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Setting{}, "id = ?", s.ID).Error
	})
}

func (r *settingRepo) FindExpiredTemporary(ctx context.Context, cutoff time.Time) ([]model.Setting, error) {
	var settings []model.Setting
	err := r.db.WithContext(ctx).
		Where("is_temporary = ? AND last_usage_time < ?", true, cutoff).
		Find(&settings).Error
	if err != nil {
		return nil, err
	}
	return settings, nil
}

func (r *settingRepo) IsCurrentForAnyUser(ctx context.Context, settingID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("current_setting_id = ?", settingID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *settingRepo) ReplaceSidebarEntities(ctx context.Context, settingID string, entities []model.SidebarEntity) ([]model.SidebarEntity, error) {
	result := make([]model.SidebarEntity, 0, len(entities))
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []model.SidebarEntity
		if err := tx.Where("setting_id = ?", settingID).Find(&existing).Error; err != nil {
			return err
		}
		byKey := make(map[string]*model.SidebarEntity, len(existing))
		for i := range existing {
			byKey[existing[i].Type+"|"+existing[i].Name] = &existing[i]
		}

		seen := make(map[string]struct{}, len(entities))
		for _, in := range entities {
			key := in.Type + "|" + in.Name
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}

			if cur, ok := byKey[key]; ok {
				cur.Label = in.Label
				cur.PinnedPosition = in.PinnedPosition
				cur.LastViewTime = in.LastViewTime
				if err := tx.Save(cur).Error; err != nil {
					return err
				}
				result = append(result, *cur)
				delete(byKey, key)
			} else {
				created := model.SidebarEntity{
					SettingID:      settingID,
					Type:           in.Type,
					Name:           in.Name,
					Label:          in.Label,
					PinnedPosition: in.PinnedPosition,
					LastViewTime:   in.LastViewTime,
				}
				if err := tx.Create(&created).Error; err != nil {
					return err
				}
				result = append(result, created)
			}
		}

		// всё, что клиент больше не прислал, удаляется
		for _, leftover := range byKey {
			if err := tx.Delete(&model.SidebarEntity{}, leftover.ID).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
