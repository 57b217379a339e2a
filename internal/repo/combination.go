package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"PortalAPI/internal/model"
)

// CombinationRepository — контракт доступа к комбинациям модов.
// Отсутствие записи поиск сигналит через gorm.ErrRecordNotFound,
// вызывающие различают его errors.Is-ом, не контролем исключений.
type CombinationRepository interface {
	// FindByID возвращает комбинацию по id.
	FindByID(ctx context.Context, id string) (*model.Combination, error)

	// FindOrCreate вычисляет детерминированный id по набору модов и
	// создаёт комбинацию в статусе unknown, если её ещё не было.
	FindOrCreate(ctx context.Context, modNames []string) (*model.Combination, error)

	// Save записывает состояние комбинации. Единственный пишущий — резолвер
	// статусов; запись идемпотентна («последнее наблюдаемое состояние upstream»).
	Save(ctx context.Context, c *model.Combination) error
}

type combinationRepo struct {
	db *gorm.DB
}

// NewCombinationRepository создаёт реализацию репозитория комбинаций.
func NewCombinationRepository(db *gorm.DB) CombinationRepository {
	return &combinationRepo{db: db}
}

func (r *combinationRepo) FindByID(ctx context.Context, id string) (*model.Combination, error) {
	var c model.Combination
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *combinationRepo) FindOrCreate(ctx context.Context, modNames []string) (*model.Combination, error) {
	c := model.NewCombination(modNames)
	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(c)
	if tx.Error != nil {
		return nil, tx.Error
	}
	if tx.RowsAffected == 0 {
		// уже существует — читаем актуальное состояние вместо свежесозданного
		return r.FindByID(ctx, c.ID)
	}
	return c, nil
}

func (r *combinationRepo) Save(ctx context.Context, c *model.Combination) error {
	return r.db.WithContext(ctx).Save(c).Error
}
