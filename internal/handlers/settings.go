package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"PortalAPI/internal/apperr"
	"PortalAPI/internal/config"
	"PortalAPI/internal/middleware"
	"PortalAPI/internal/model"
	"PortalAPI/internal/service"
)

// SettingsHandler — CRUD настроек пользователя.
type SettingsHandler struct {
	Settings *service.SettingService
	Logger   *zap.SugaredLogger
	Config   *config.Config
}

// NewSettingsHandler создаёт хендлер настроек.
func NewSettingsHandler(settings *service.SettingService, logger *zap.SugaredLogger, cfg *config.Config) *SettingsHandler {
	return &SettingsHandler{Settings: settings, Logger: logger, Config: cfg}
}

// List отдаёт настройки пользователя; временные скрыты, кроме активной.
func (h *SettingsHandler) List(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		respondError(w, h.Logger, h.Config.Debug, apperr.New(apperr.KindStorageInconsistency, "settings.list", "no session in context"))
		return
	}

	settings, err := h.Settings.List(r.Context(), sess.User)
	if err != nil {
		respondError(w, h.Logger, h.Config.Debug, err)
		return
	}

	out := make([]settingMetaDTO, 0, len(settings))
	for i := range settings {
		out = append(out, mapSettingMeta(&settings[i]))
	}
	respondJSON(w, http.StatusOK, out)
}

// Details отдаёт настройку вместе со списком модов её комбинации.
func (h *SettingsHandler) Details(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		respondError(w, h.Logger, h.Config.Debug, apperr.New(apperr.KindStorageInconsistency, "settings.details", "no session in context"))
		return
	}

	setting, err := h.Settings.Get(r.Context(), sess.User, chi.URLParam(r, "settingID"))
	if err != nil {
		respondError(w, h.Logger, h.Config.Debug, err)
		return
	}
	respondJSON(w, http.StatusOK, mapSettingDetails(setting))
}

type createSettingRequest struct {
	Name       string   `json:"name"`
	ModNames   []string `json:"modNames"`
	Locale     string   `json:"locale"`
	RecipeMode string   `json:"recipeMode"`
}

// Create создаёт постоянную настройку на набор модов. Повтор набора,
// который у пользователя уже есть, возвращает существующую настройку.
func (h *SettingsHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		respondError(w, h.Logger, h.Config.Debug, apperr.New(apperr.KindStorageInconsistency, "settings.create", "no session in context"))
		return
	}

	var req createSettingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Warnw("Create: invalid request body", "error", err)
		respondBadRequest(w, "invalid request body")
		return
	}
	if req.Name == "" {
		respondBadRequest(w, "name must not be empty")
		return
	}
	if req.Locale == "" {
		req.Locale = model.DefaultLocale
	}
	if req.RecipeMode == "" {
		req.RecipeMode = model.DefaultRecipeMode
	}
	if !model.IsValidRecipeMode(req.RecipeMode) {
		respondBadRequest(w, "unknown recipe mode")
		return
	}

	setting, err := h.Settings.Create(r.Context(), sess.User, req.ModNames, req.Name, req.Locale, req.RecipeMode)
	if err != nil {
		respondError(w, h.Logger, h.Config.Debug, err)
		return
	}
	respondJSON(w, http.StatusOK, mapSettingDetails(setting))
}

type saveSettingRequest struct {
	Name       string `json:"name"`
	Locale     string `json:"locale"`
	RecipeMode string `json:"recipeMode"`
}

// Save применяет пользовательские правки настройки.
func (h *SettingsHandler) Save(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		respondError(w, h.Logger, h.Config.Debug, apperr.New(apperr.KindStorageInconsistency, "settings.save", "no session in context"))
		return
	}

	var req saveSettingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Warnw("Save: invalid request body", "error", err)
		respondBadRequest(w, "invalid request body")
		return
	}
	if req.Name == "" {
		respondBadRequest(w, "name must not be empty")
		return
	}
	if req.Locale == "" {
		req.Locale = model.DefaultLocale
	}
	if !model.IsValidRecipeMode(req.RecipeMode) {
		respondBadRequest(w, "unknown recipe mode")
		return
	}

	setting, err := h.Settings.Get(r.Context(), sess.User, chi.URLParam(r, "settingID"))
	if err != nil {
		respondError(w, h.Logger, h.Config.Debug, err)
		return
	}
	if err := h.Settings.Save(r.Context(), setting, req.Name, req.Locale, req.RecipeMode); err != nil {
		respondError(w, h.Logger, h.Config.Debug, err)
		return
	}
	respondJSON(w, http.StatusOK, mapSettingMeta(setting))
}

// Delete удаляет настройку; активную удалить нельзя (409).
func (h *SettingsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		respondError(w, h.Logger, h.Config.Debug, apperr.New(apperr.KindStorageInconsistency, "settings.delete", "no session in context"))
		return
	}

	setting, err := h.Settings.Get(r.Context(), sess.User, chi.URLParam(r, "settingID"))
	if err != nil {
		respondError(w, h.Logger, h.Config.Debug, err)
		return
	}
	if err := h.Settings.Delete(r.Context(), sess.User, setting); err != nil {
		respondError(w, h.Logger, h.Config.Debug, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
