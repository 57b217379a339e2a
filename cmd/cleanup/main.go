package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"PortalAPI/internal/config"
	"PortalAPI/internal/repo"
	"PortalAPI/internal/service"
	"PortalAPI/internal/upstream"
)

// Чистка по расписанию (cron): просроченные временные настройки и
// пользователи, не появлявшиеся дольше времени жизни сессии.
func main() {
	cfg := config.NewConfig()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	sugar := logger.Sugar()
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
	settingService := service.NewSettingService(settingRepo, statusService, dataClient, sugar)

	ctx := context.Background()
	now := time.Now().UTC()

	removed, err := settingService.SweepExpiredTemporary(ctx, now.Add(-cfg.TempSettingLifetime))
	if err != nil {
		sugar.Fatalw("failed to sweep temporary settings", "error", err)
	}
	sugar.Infow("temporary settings swept", "removed", removed)

	deleted, err := userRepo.DeleteOlderThan(ctx, now.Add(-cfg.SessionLifetime))
	if err != nil {
		sugar.Fatalw("failed to delete stale users", "error", err)
	}
	sugar.Infow("stale users deleted", "deleted", deleted)
}
