package handlers

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"PortalAPI/internal/config"
	"PortalAPI/internal/middleware"
	"PortalAPI/internal/service"
	"PortalAPI/internal/upstream"
)

// BootstrapPath — выделенный маршрут входа, которому позволено создавать
// пользователя и переключать активную настройку.
const BootstrapPath = "/api/session/init"

type Handler struct {
	Router chi.Router
}

// NewHandler разводящий для хендлеров
func NewHandler(
	sessionService *service.SessionService,
	settingService *service.SettingService,
	statusService *service.StatusService,
	dataClient upstream.DataClient,
	logger *zap.SugaredLogger,
	cfg *config.Config,
) *Handler {
	r := chi.NewRouter()

	r.Use(middleware.WithGzip)
	r.Use(middleware.WithLogging)

	// Handlers
	sessionHandler := NewSessionHandler(settingService, statusService, logger, cfg)
	settingsHandler := NewSettingsHandler(settingService, logger, cfg)
	sidebarHandler := NewSidebarHandler(settingService, logger, cfg)
	dataHandler := NewDataHandler(settingService, dataClient, logger, cfg)

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.WithSession(sessionService, cfg.AuthSecret, cfg.SessionLifetime, BootstrapPath))

		// Session route
		api.Post("/session/init", sessionHandler.Init)

		// Setting routes
		api.Get("/settings", settingsHandler.List)
		api.Put("/settings", settingsHandler.Create)
		api.Get("/settings/{settingID}", settingsHandler.Details)
		api.Post("/settings/{settingID}", settingsHandler.Save)
		api.Delete("/settings/{settingID}", settingsHandler.Delete)

		// Sidebar route
		api.Put("/sidebar/entities", sidebarHandler.Sync)

		// Data routes (thin proxies to the Data API)
		api.Get("/search", dataHandler.Search())
		api.Get("/items/{type}/{name}/ingredients", dataHandler.ItemIngredients())
		api.Get("/items/{type}/{name}/products", dataHandler.ItemProducts())
		api.Get("/recipes/{name}", dataHandler.RecipeDetails())
		api.Get("/recipes/{name}/machines", dataHandler.RecipeMachines())
	})

	return &Handler{Router: r}
}
