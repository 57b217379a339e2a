package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"PortalAPI/internal/apperr"
	"PortalAPI/internal/config"
	"PortalAPI/internal/middleware"
	"PortalAPI/internal/service"
)

// SessionHandler обрабатывает вход фронтенда в приложение.
type SessionHandler struct {
	Settings *service.SettingService
	Status   *service.StatusService
	Logger   *zap.SugaredLogger
	Config   *config.Config
}

// NewSessionHandler создаёт хендлер сессии.
func NewSessionHandler(settings *service.SettingService, status *service.StatusService, logger *zap.SugaredLogger, cfg *config.Config) *SessionHandler {
	return &SessionHandler{Settings: settings, Status: status, Logger: logger, Config: cfg}
}

type sessionInitResponse struct {
	Setting         settingMetaDTO     `json:"setting"`
	SidebarEntities []sidebarEntityDTO `json:"sidebarEntities"`
}

// Init — bootstrap-маршрут: пользователь и настройка уже резолвлены
// middleware-ом (включая ленивое создание), здесь сверяется статус
// комбинации и кэш доступности данных.
func (h *SessionHandler) Init(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		respondError(w, h.Logger, h.Config.Debug,
			apperr.New(apperr.KindStorageInconsistency, "session.init", "no session in context"))
		return
	}
	setting := sess.Setting

	// статус выгрузки сверяется с upstream не чаще окна устаревания
	if h.Status.NeedsRefresh(&setting.Combination, time.Now().UTC()) {
		if err := h.Status.Refresh(r.Context(), &setting.Combination); err != nil {
			respondError(w, h.Logger, h.Config.Debug, err)
			return
		}
	}
	if err := h.Settings.ReconcileDataFlag(r.Context(), setting); err != nil {
		respondError(w, h.Logger, h.Config.Debug, err)
		return
	}

	// токен данных выпускается заранее, чтобы первый запрос данных не ждал
	if setting.HasData && setting.APIToken == "" {
		if err := h.Settings.EnsureToken(r.Context(), setting); err != nil {
			// не фатально: токен выпустится при первом обращении к данным
			h.Logger.Warnw("failed to pre-issue data api token", "setting_id", setting.ID, "error", err)
		}
	}

	respondJSON(w, http.StatusOK, sessionInitResponse{
		Setting:         mapSettingMeta(setting),
		SidebarEntities: mapSidebarEntities(setting.SidebarEntities),
	})
}
