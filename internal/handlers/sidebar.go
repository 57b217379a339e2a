package handlers

import (
	"net/http"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"PortalAPI/internal/apperr"
	"PortalAPI/internal/config"
	"PortalAPI/internal/middleware"
	"PortalAPI/internal/model"
	"PortalAPI/internal/service"
)

// SidebarHandler синхронизирует закладки сайдбара текущей настройки.
type SidebarHandler struct {
	Settings *service.SettingService
	Logger   *zap.SugaredLogger
	Config   *config.Config
}

// NewSidebarHandler создаёт хендлер сайдбара.
func NewSidebarHandler(settings *service.SettingService, logger *zap.SugaredLogger, cfg *config.Config) *SidebarHandler {
	return &SidebarHandler{Settings: settings, Logger: logger, Config: cfg}
}

// Sync принимает авторитетный полный список закладок от клиента и сводит
// его с хранимым diff-ом по (type, name).
func (h *SidebarHandler) Sync(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		respondError(w, h.Logger, h.Config.Debug, apperr.New(apperr.KindStorageInconsistency, "sidebar.sync", "no session in context"))
		return
	}

	var req []sidebarEntityDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Warnw("Sync: invalid request body", "error", err)
		respondBadRequest(w, "invalid request body")
		return
	}

	entities := make([]model.SidebarEntity, 0, len(req))
	for _, e := range req {
		if !model.IsValidSidebarEntityType(e.Type) {
			respondBadRequest(w, "unknown sidebar entity type")
			return
		}
		if e.Name == "" {
			respondBadRequest(w, "sidebar entity name must not be empty")
			return
		}
		entities = append(entities, model.SidebarEntity{
			Type:           e.Type,
			Name:           e.Name,
			Label:          e.Label,
			PinnedPosition: e.PinnedPosition,
			LastViewTime:   e.LastViewTime,
		})
	}

	result, err := h.Settings.SyncSidebar(r.Context(), sess.Setting, entities)
	if err != nil {
		respondError(w, h.Logger, h.Config.Debug, err)
		return
	}
	respondJSON(w, http.StatusOK, mapSidebarEntities(result))
}
