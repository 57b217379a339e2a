package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"PortalAPI/internal/apperr"
	"PortalAPI/internal/model"
	"PortalAPI/internal/repo"
	"PortalAPI/internal/upstream"
)

// SettingService — жизненный цикл настроек: создание, сохранение, удаление,
// сверка кэша доступности данных и чистка просроченных временных настроек.
type SettingService struct {
	settings repo.SettingRepository
	status   *StatusService
	data     upstream.DataClient
	logger   *zap.SugaredLogger
}

// NewSettingService создаёт менеджер жизненного цикла настроек.
func NewSettingService(settings repo.SettingRepository, status *StatusService, data upstream.DataClient, logger *zap.SugaredLogger) *SettingService {
	return &SettingService{
		settings: settings,
		status:   status,
		data:     data,
		logger:   logger,
	}
}

// Create создаёт постоянную настройку пользователя на указанный набор модов.
// Для набора, совпадающего с уже существующей настройкой пользователя,
// возвращается существующая запись — дубли исключены дедупликацией комбинаций.
func (s *SettingService) Create(ctx context.Context, user *model.User, modNames []string, name, locale, recipeMode string) (*model.Setting, error) {
	comb, err := s.status.CreateForModNames(ctx, modNames)
	if err != nil {
		return nil, err
	}

	existing, err := s.settings.FindByUserAndCombination(ctx, user.ID, comb.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Wrap(apperr.KindStorageInconsistency, "setting.create", "failed to look up setting", err)
	}

	// комбинация, которую никто ещё не выгружал, ставится в очередь ровно
	// один раз: резолв идемпотентен, повторное создание попадает в pending
	if comb.Status == model.CombinationStatusUnknown {
		if err := s.status.RequestExport(ctx, comb); err != nil {
			return nil, err
		}
	}

	setting := &model.Setting{
		ID:            uuid.NewString(),
		UserID:        user.ID,
		CombinationID: comb.ID,
		Name:          name,
		Locale:        locale,
		RecipeMode:    recipeMode,
		HasData:       comb.Status == model.CombinationStatusAvailable,
		LastUsageTime: time.Now().UTC(),
	}
	if err := s.settings.Create(ctx, setting); err != nil {
		return nil, apperr.Wrap(apperr.KindStorageInconsistency, "setting.create", "failed to create setting", err)
	}
	setting.Combination = *comb

	s.logger.Infow("setting created",
		"user_id", user.ID,
		"setting_id", setting.ID,
		"combination_id", comb.ID,
	)
	return setting, nil
}

// Save сохраняет пользовательские правки настройки. Отредактированная
// временная настройка становится постоянной; подписи сайдбара обновляются,
// так как закэшированы в прежней локали.
func (s *SettingService) Save(ctx context.Context, setting *model.Setting, name, locale, recipeMode string) error {
	setting.Name = name
	setting.Locale = locale
	setting.RecipeMode = recipeMode
	setting.IsTemporary = false
	if err := s.settings.Save(ctx, setting); err != nil {
		return apperr.Wrap(apperr.KindStorageInconsistency, "setting.save", "failed to save setting", err)
	}

	if err := s.RefreshSidebarLabels(ctx, setting); err != nil {
		// подписи — только кэш; недоступный upstream не отменяет сохранение
		s.logger.Warnw("failed to refresh sidebar labels", "setting_id", setting.ID, "error", err)
	}
	return nil
}

// List возвращает настройки пользователя для отображения. Временные
// настройки скрываются, кроме активной.
func (s *SettingService) List(ctx context.Context, user *model.User) ([]model.Setting, error) {
	all, err := s.settings.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStorageInconsistency, "setting.list", "failed to list settings", err)
	}
	visible := make([]model.Setting, 0, len(all))
	for _, setting := range all {
		if setting.IsTemporary && (user.CurrentSettingID == nil || *user.CurrentSettingID != setting.ID) {
			continue
		}
		visible = append(visible, setting)
	}
	return visible, nil
}

// Get возвращает настройку пользователя по id. Чужая или несуществующая
// настройка неразличимы для клиента.
func (s *SettingService) Get(ctx context.Context, user *model.User, settingID string) (*model.Setting, error) {
	setting, err := s.settings.FindByID(ctx, settingID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New(apperr.KindUnknownEntity, "setting.get", "setting not found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStorageInconsistency, "setting.get", "failed to load setting", err)
	}
	if setting.UserID != user.ID {
		return nil, apperr.New(apperr.KindUnknownEntity, "setting.get", "setting not found")
	}
	return setting, nil
}

// Delete удаляет настройку вместе с её сайдбаром. Активную настройку
// удалить нельзя.
func (s *SettingService) Delete(ctx context.Context, user *model.User, setting *model.Setting) error {
	if user.CurrentSettingID != nil && *user.CurrentSettingID == setting.ID {
		return apperr.New(apperr.KindConflict, "setting.delete", "cannot delete the currently active setting")
	}
	if err := s.settings.Delete(ctx, setting); err != nil {
		return apperr.Wrap(apperr.KindStorageInconsistency, "setting.delete", "failed to delete setting", err)
	}
	s.logger.Infow("setting deleted", "user_id", user.ID, "setting_id", setting.ID)
	return nil
}

// ReconcileDataFlag сверяет кэш hasData со статусом комбинации. При смене
// доступности токен авторизации сбрасывается (он больше не действителен),
// а подписи сайдбара обновляются из свежих данных.
func (s *SettingService) ReconcileDataFlag(ctx context.Context, setting *model.Setting) error {
	hasData := setting.Combination.Status == model.CombinationStatusAvailable
	if hasData == setting.HasData {
		return nil
	}

	setting.HasData = hasData
	setting.APIToken = ""
	if err := s.settings.Save(ctx, setting); err != nil {
		return apperr.Wrap(apperr.KindStorageInconsistency, "setting.reconcile", "failed to save setting", err)
	}
	s.logger.Infow("setting data flag reconciled", "setting_id", setting.ID, "has_data", hasData)

	if hasData {
		if err := s.RefreshSidebarLabels(ctx, setting); err != nil {
			s.logger.Warnw("failed to refresh sidebar labels", "setting_id", setting.ID, "error", err)
		}
	}
	return nil
}

// SyncSidebar сводит присланный клиентом полный список закладок с хранимым.
func (s *SettingService) SyncSidebar(ctx context.Context, setting *model.Setting, entities []model.SidebarEntity) ([]model.SidebarEntity, error) {
	result, err := s.settings.ReplaceSidebarEntities(ctx, setting.ID, entities)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStorageInconsistency, "sidebar.sync", "failed to replace sidebar entities", err)
	}
	setting.SidebarEntities = result
	return result, nil
}

// SweepExpiredTemporary удаляет временные настройки, не использовавшиеся
// после cutoff. Чья-то активная настройка не удаляется никогда, даже
// просроченная — она пропускается с записью в лог.
func (s *SettingService) SweepExpiredTemporary(ctx context.Context, cutoff time.Time) (int, error) {
	expired, err := s.settings.FindExpiredTemporary(ctx, cutoff)
	if err != nil {
		return 0, apperr.Wrap(apperr.KindStorageInconsistency, "setting.sweep", "failed to list expired settings", err)
	}

	removed := 0
	for i := range expired {
		setting := &expired[i]
		active, err := s.settings.IsCurrentForAnyUser(ctx, setting.ID)
		if err != nil {
			return removed, apperr.Wrap(apperr.KindStorageInconsistency, "setting.sweep", "failed to check setting usage", err)
		}
		if active {
			s.logger.Infow("skipping expired temporary setting still in use", "setting_id", setting.ID)
			continue
		}
		if err := s.settings.Delete(ctx, setting); err != nil {
			return removed, apperr.Wrap(apperr.KindStorageInconsistency, "setting.sweep", "failed to delete setting", err)
		}
		removed++
	}
	if removed > 0 {
		s.logger.Infow("expired temporary settings removed", "count", removed)
	}
	return removed, nil
}

// EnsureToken гарантирует наличие токена авторизации Data API на настройке,
// выпуская новый при необходимости. Токены непрозрачны и ротируются upstream-ом.
func (s *SettingService) EnsureToken(ctx context.Context, setting *model.Setting) error {
	if setting.APIToken != "" {
		return nil
	}
	token, err := s.data.Authenticate(ctx, setting.CombinationID, setting.Combination.ModNames)
	if err != nil {
		return err
	}
	setting.APIToken = token
	if err := s.settings.Save(ctx, setting); err != nil {
		return apperr.Wrap(apperr.KindStorageInconsistency, "setting.token", "failed to store token", err)
	}
	return nil
}

// InvalidateToken сбрасывает отвергнутый upstream-ом токен.
func (s *SettingService) InvalidateToken(ctx context.Context, setting *model.Setting) error {
	setting.APIToken = ""
	return s.settings.Save(ctx, setting)
}

// RefreshSidebarLabels обновляет закэшированные подписи сайдбара из Data API.
func (s *SettingService) RefreshSidebarLabels(ctx context.Context, setting *model.Setting) error {
	if len(setting.SidebarEntities) == 0 || !setting.HasData {
		return nil
	}
	if err := s.EnsureToken(ctx, setting); err != nil {
		return err
	}

	refs := make([]upstream.EntityRef, 0, len(setting.SidebarEntities))
	for _, e := range setting.SidebarEntities {
		refs = append(refs, upstream.EntityRef{Type: e.Type, Name: e.Name})
	}
	entities, err := s.data.Metadata(ctx, upstream.Auth{Token: setting.APIToken, Locale: setting.Locale}, refs)
	if err != nil {
		return err
	}

	labels := make(map[string]string, len(entities))
	for _, e := range entities {
		labels[e.Type+"|"+e.Name] = e.Label
	}
	for i := range setting.SidebarEntities {
		if label, ok := labels[setting.SidebarEntities[i].Type+"|"+setting.SidebarEntities[i].Name]; ok && label != "" {
			setting.SidebarEntities[i].Label = label
		}
	}

	updated, err := s.settings.ReplaceSidebarEntities(ctx, setting.ID, setting.SidebarEntities)
	if err != nil {
		return apperr.Wrap(apperr.KindStorageInconsistency, "sidebar.labels", "failed to store labels", err)
	}
	setting.SidebarEntities = updated
	return nil
}
