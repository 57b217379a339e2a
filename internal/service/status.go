package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"PortalAPI/internal/model"
	"PortalAPI/internal/repo"
	"PortalAPI/internal/upstream"
)

// StatusService поддерживает актуальность статуса выгрузки комбинаций,
// опрашивая Combination API не чаще окна устаревания.
type StatusService struct {
	combinations repo.CombinationRepository
	client       upstream.CombinationClient
	maxAge       time.Duration
	logger       *zap.SugaredLogger
}

// NewStatusService создаёт резолвер статусов комбинаций.
func NewStatusService(combinations repo.CombinationRepository, client upstream.CombinationClient, maxAge time.Duration, logger *zap.SugaredLogger) *StatusService {
	return &StatusService{
		combinations: combinations,
		client:       client,
		maxAge:       maxAge,
		logger:       logger,
	}
}

// NeedsRefresh решает, пора ли сверить статус комбинации с upstream.
// Никогда не проверявшаяся комбинация сверяется всегда; доступная —
// только когда последняя проверка старше окна.
func (s *StatusService) NeedsRefresh(c *model.Combination, now time.Time) bool {
	if c.Status != model.CombinationStatusAvailable {
		return true
	}
	if c.LastCheckTime == nil {
		return true
	}
	return now.Sub(*c.LastCheckTime) > s.maxAge
}

// Refresh запрашивает статус у Combination API и записывает результат.
// При сбое upstream комбинация не мутируется, классифицированная ошибка
// поднимается вызывающему.
func (s *StatusService) Refresh(ctx context.Context, c *model.Combination) error {
	status, err := s.client.Status(ctx, c.ModNames)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	c.Status = normalizeStatus(status.Status)
	c.ExportTime = status.ExportTime
	c.LastCheckTime = &now

	s.logger.Infow("combination status refreshed",
		"combination_id", c.ID,
		"status", c.Status,
	)
	return s.combinations.Save(ctx, c)
}

// CreateForModNames резолвит комбинацию по набору модов, создавая её при
// первом обращении, и сверяет статус, если он устарел.
func (s *StatusService) CreateForModNames(ctx context.Context, modNames []string) (*model.Combination, error) {
	c, err := s.combinations.FindOrCreate(ctx, modNames)
	if err != nil {
		return nil, err
	}
	if s.NeedsRefresh(c, time.Now().UTC()) {
		if err := s.Refresh(ctx, c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// RequestExport ставит выгрузку комбинации в очередь и переводит её в pending.
func (s *StatusService) RequestExport(ctx context.Context, c *model.Combination) error {
	if err := s.client.TriggerExport(ctx, c.ModNames); err != nil {
		return err
	}
	now := time.Now().UTC()
	c.Status = model.CombinationStatusPending
	c.LastCheckTime = &now

	s.logger.Infow("combination export requested", "combination_id", c.ID)
	return s.combinations.Save(ctx, c)
}

// normalizeStatus отображает статус upstream в известные значения;
// незнакомое значение трактуется как unknown.
func normalizeStatus(status string) string {
	switch status {
	case model.CombinationStatusPending, model.CombinationStatusAvailable, model.CombinationStatusErrored:
		return status
	}
	return model.CombinationStatusUnknown
}
