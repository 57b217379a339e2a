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
)

// Signals — сигналы идентичности входящего запроса: id пользователя из
// заголовка или cookie, id комбинации из заголовка, признак bootstrap-маршрута.
// Невалидные значения отбрасываются до резолва и сюда не попадают.
type Signals struct {
	UserID        string
	CombinationID string
	Bootstrap     bool
}

// Session — результат резолва: ровно одна пара (пользователь, настройка).
type Session struct {
	User    *model.User
	Setting *model.Setting
}

// SessionService определяет пользователя и активную настройку запроса,
// лениво создавая дефолтное состояние на bootstrap-маршруте.
type SessionService struct {
	users        repo.UserRepository
	settings     repo.SettingRepository
	combinations repo.CombinationRepository
	logger       *zap.SugaredLogger
}

// NewSessionService создаёт резолвер сессий.
func NewSessionService(users repo.UserRepository, settings repo.SettingRepository, combinations repo.CombinationRepository, logger *zap.SugaredLogger) *SessionService {
	return &SessionService{
		users:        users,
		settings:     settings,
		combinations: combinations,
		logger:       logger,
	}
}

// Resolve выполняет машину состояний резолва сессии.
func (s *SessionService) Resolve(ctx context.Context, sig Signals) (*Session, error) {
	const op = "session.resolve"

	// 1. Пользователь: известный id, иначе создание на bootstrap-маршруте.
	var user *model.User
	if sig.UserID != "" {
		u, err := s.users.FindByID(ctx, sig.UserID)
		switch {
		case err == nil:
			user = u
		case errors.Is(err, gorm.ErrRecordNotFound):
			// неизвестный id равносилен отсутствию сессии
		default:
			return nil, apperr.Wrap(apperr.KindStorageInconsistency, op, "failed to load user", err)
		}
	}
	if user == nil {
		if !sig.Bootstrap {
			return nil, apperr.New(apperr.KindMissingSession, op, "no session present")
		}
		u, err := s.users.Create(ctx)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindStorageInconsistency, op, "failed to create user", err)
		}
		user = u
		s.logger.Infow("new user created", "user_id", user.ID)
	}

	// 2. Настройка: заголовок комбинации, иначе текущая настройка пользователя.
	var setting *model.Setting
	if sig.CombinationID != "" {
		setting = user.SettingForCombination(sig.CombinationID)
		if setting == nil {
			if !sig.Bootstrap {
				return nil, apperr.New(apperr.KindInvalidCombination, op, "combination does not match any setting of the user")
			}
			// bootstrap с чужой, но существующей комбинацией (шаринг ссылки):
			// пользователь получает временную настройку на неё
			if tmp, err := s.temporarySettingFor(ctx, user, sig.CombinationID); err != nil {
				return nil, err
			} else if tmp != nil {
				setting = tmp
			}
			// неизвестная комбинация — откат на текущую настройку
		}
	}
	if setting == nil {
		setting = user.CurrentSetting()
		if setting == nil {
			// пользователь без текущей настройки существовать не должен
			return nil, apperr.New(apperr.KindStorageInconsistency, op, "user has no current setting")
		}
	}

	// 3. На bootstrap-маршруте резолв переключает активную настройку.
	if sig.Bootstrap {
		user.CurrentSettingID = &setting.ID
	}

	now := time.Now().UTC()
	user.LastVisitTime = now
	setting.LastUsageTime = now

	return &Session{User: user, Setting: setting}, nil
}

// temporarySettingFor создаёт временную настройку на существующую комбинацию.
// Возвращает nil без ошибки, если комбинация неизвестна хранилищу.
func (s *SessionService) temporarySettingFor(ctx context.Context, user *model.User, combinationID string) (*model.Setting, error) {
	const op = "session.resolve"

	comb, err := s.combinations.FindByID(ctx, combinationID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStorageInconsistency, op, "failed to load combination", err)
	}

	setting := &model.Setting{
		ID:            uuid.NewString(),
		UserID:        user.ID,
		CombinationID: comb.ID,
		Name:          model.DefaultSettingName,
		Locale:        user.Locale,
		RecipeMode:    model.DefaultRecipeMode,
		HasData:       comb.Status == model.CombinationStatusAvailable,
		IsTemporary:   true,
		LastUsageTime: time.Now().UTC(),
	}
	if err := s.settings.Create(ctx, setting); err != nil {
		return nil, apperr.Wrap(apperr.KindStorageInconsistency, op, "failed to create temporary setting", err)
	}
	setting.Combination = *comb
	user.Settings = append(user.Settings, *setting)
	cur := &user.Settings[len(user.Settings)-1]

	s.logger.Infow("temporary setting created",
		"user_id", user.ID,
		"setting_id", setting.ID,
		"combination_id", comb.ID,
	)
	return cur, nil
}

// Persist сохраняет сессионное состояние после обработки запроса:
// строку пользователя и отметку использования активной настройки.
// Вызывается безусловно: изменение времени визита и переключение
// активной настройки обязаны пережить запрос.
func (s *SessionService) Persist(ctx context.Context, sess *Session) error {
	return s.users.Persist(ctx, sess.User, sess.Setting)
}
