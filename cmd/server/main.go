package main

import (
	"net/http"

	"go.uber.org/zap"

	"PortalAPI/internal/config"
	"PortalAPI/internal/handlers"
	"PortalAPI/internal/middleware"
	"PortalAPI/internal/repo"
	"PortalAPI/internal/service"
	"PortalAPI/internal/upstream"
)

func main() {
	cfg := config.NewConfig()

	// создаём предустановленный регистратор zap
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}

	// делаем регистратор SugaredLogger
	sugar := logger.Sugar()
	middleware.SetLogger(sugar) // передаём логгер в middleware
	//сброс буфера логгера
	defer func() {
		if err := logger.Sync(); err != nil {
			sugar.Errorw("Failed to sync logger", "error", err)
		}
	}()

	gormDB, err := repo.InitDB(cfg.DatabaseDSN)
	if err != nil {
		sugar.Fatalw("failed to initialize database", "error", err)
	}

	combinationRepo := repo.NewCombinationRepository(gormDB)
	userRepo := repo.NewUserRepository(gormDB)
	settingRepo := repo.NewSettingRepository(gormDB)

	combinationClient := upstream.NewCombinationClient(cfg.CombinationAPIURL, cfg.UpstreamTimeout)
	dataClient := upstream.NewDataClient(cfg.DataAPIURL, cfg.UpstreamTimeout)

	statusService := service.NewStatusService(combinationRepo, combinationClient, cfg.StatusMaxAge, sugar)
	sessionService := service.NewSessionService(userRepo, settingRepo, combinationRepo, sugar)
	settingService := service.NewSettingService(settingRepo, statusService, dataClient, sugar)

	h := handlers.NewHandler(sessionService, settingService, statusService, dataClient, sugar, cfg)

	addr := cfg.BaseURL

	sugar.Infow(
		"Starting server",
		"addr", addr,
	)

	sugar.Infow("Config",
		"BaseURL", cfg.BaseURL,
		"DataAPIURL", cfg.DataAPIURL,
		"CombinationAPIURL", cfg.CombinationAPIURL,
		"StatusMaxAge", cfg.StatusMaxAge,
	)

	if err := http.ListenAndServe(addr, h.Router); err != nil {
		sugar.Fatalw("Server failed", "error", err)
	}
}
