package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"PortalAPI/internal/apperr"
	"PortalAPI/internal/config"
	"PortalAPI/internal/middleware"
	"PortalAPI/internal/model"
	"PortalAPI/internal/service"
	"PortalAPI/internal/upstream"
)

const (
	defaultFirstResult     = 0
	defaultNumberOfResults = 24
)

// DataHandler — тонкие прокси к Data API в контексте активной настройки.
type DataHandler struct {
	Settings *service.SettingService
	Data     upstream.DataClient
	Logger   *zap.SugaredLogger
	Config   *config.Config
}

// NewDataHandler создаёт хендлер данных.
func NewDataHandler(settings *service.SettingService, data upstream.DataClient, logger *zap.SugaredLogger, cfg *config.Config) *DataHandler {
	return &DataHandler{Settings: settings, Data: data, Logger: logger, Config: cfg}
}

type fetchFunc func(r *http.Request, auth upstream.Auth, setting *model.Setting) (any, error)

// handle выполняет запрос данных от имени активной настройки: гарантирует
// токен, при отвергнутом токене перевыпускает его и повторяет запрос один раз.
func (h *DataHandler) handle(op string, fetch fetchFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := middleware.GetSessionFromContext(r.Context())
		if !ok {
			respondError(w, h.Logger, h.Config.Debug, apperr.New(apperr.KindStorageInconsistency, op, "no session in context"))
			return
		}
		setting := sess.Setting

		if !setting.HasData {
			respondError(w, h.Logger, h.Config.Debug,
				apperr.New(apperr.KindUnknownEntity, op, "no data available for the current setting"))
			return
		}
		if err := h.Settings.EnsureToken(r.Context(), setting); err != nil {
			respondError(w, h.Logger, h.Config.Debug, err)
			return
		}

		result, err := fetch(r, upstream.Auth{Token: setting.APIToken, Locale: setting.Locale}, setting)
		if errors.Is(err, upstream.ErrInvalidAuthToken) {
			// токен протух между запросами, ровно одна повторная попытка
			h.Logger.Infow("data api token rejected, re-authenticating", "setting_id", setting.ID)
			if err = h.Settings.InvalidateToken(r.Context(), setting); err != nil {
				respondError(w, h.Logger, h.Config.Debug, err)
				return
			}
			if err = h.Settings.EnsureToken(r.Context(), setting); err != nil {
				respondError(w, h.Logger, h.Config.Debug, err)
				return
			}
			result, err = fetch(r, upstream.Auth{Token: setting.APIToken, Locale: setting.Locale}, setting)
		}
		if err != nil {
			respondError(w, h.Logger, h.Config.Debug, err)
			return
		}
		respondJSON(w, http.StatusOK, result)
	}
}

// pagination читает indexOfFirstResult и numberOfResults из query-параметров.
func pagination(r *http.Request) (first, count uint) {
	first = defaultFirstResult
	count = defaultNumberOfResults
	if v := r.URL.Query().Get("indexOfFirstResult"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			first = uint(n)
		}
	}
	if v := r.URL.Query().Get("numberOfResults"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil && n > 0 {
			count = uint(n)
		}
	}
	return first, count
}

// Search ищет предметы, жидкости и рецепты по строке запроса.
func (h *DataHandler) Search() http.HandlerFunc {
	return h.handle("data.search", func(r *http.Request, auth upstream.Auth, _ *model.Setting) (any, error) {
		query := r.URL.Query().Get("query")
		if query == "" {
			return &upstream.SearchResultSet{Results: []upstream.GenericEntity{}}, nil
		}
		first, count := pagination(r)
		return h.Data.Search(r.Context(), auth, query, first, count)
	})
}

// ItemIngredients отдаёт рецепты, потребляющие предмет.
func (h *DataHandler) ItemIngredients() http.HandlerFunc {
	return h.handle("data.item.ingredients", func(r *http.Request, auth upstream.Auth, _ *model.Setting) (any, error) {
		first, count := pagination(r)
		return h.Data.ItemIngredients(r.Context(), auth, chi.URLParam(r, "type"), chi.URLParam(r, "name"), first, count)
	})
}

// ItemProducts отдаёт рецепты, производящие предмет.
func (h *DataHandler) ItemProducts() http.HandlerFunc {
	return h.handle("data.item.products", func(r *http.Request, auth upstream.Auth, _ *model.Setting) (any, error) {
		first, count := pagination(r)
		return h.Data.ItemProducts(r.Context(), auth, chi.URLParam(r, "type"), chi.URLParam(r, "name"), first, count)
	})
}

// RecipeDetails отдаёт детали рецепта во всех режимах.
func (h *DataHandler) RecipeDetails() http.HandlerFunc {
	return h.handle("data.recipe.details", func(r *http.Request, auth upstream.Auth, _ *model.Setting) (any, error) {
		recipes, err := h.Data.RecipeDetails(r.Context(), auth, chi.URLParam(r, "name"))
		if err != nil {
			return nil, err
		}
		if len(recipes) == 0 {
			return nil, apperr.New(apperr.KindUnknownEntity, "data.recipe.details", "recipe not found")
		}
		return recipes, nil
	})
}

// RecipeMachines отдаёт машины, способные крафтить рецепт.
func (h *DataHandler) RecipeMachines() http.HandlerFunc {
	return h.handle("data.recipe.machines", func(r *http.Request, auth upstream.Auth, _ *model.Setting) (any, error) {
		first, count := pagination(r)
		return h.Data.RecipeMachines(r.Context(), auth, chi.URLParam(r, "name"), first, count)
	})
}
