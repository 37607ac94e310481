package repository

import (
	"context"

	"github.com/hr-data-api/internal/domain"
	"gorm.io/gorm"
)

// ImportStatisticRepository определяет интерфейс для сводок импорта
type ImportStatisticRepository interface {
	Create(ctx context.Context, stat *domain.ImportStatistic) error
	List(ctx context.Context, ownerID *int64) ([]domain.ImportStatistic, error)
	GetByImportID(ctx context.Context, importID int64) ([]domain.ImportStatistic, error)
}

type importStatisticRepository struct {
	db *gorm.DB
}

// NewImportStatisticRepository создаёт новый экземпляр репозитория
func NewImportStatisticRepository(db *gorm.DB) ImportStatisticRepository {
	return &importStatisticRepository{db: db}
}

func (r *importStatisticRepository) Create(ctx context.Context, stat *domain.ImportStatistic) error {
	return conn(ctx, r.db).Omit("Import").Create(stat).Error
}

func (r *importStatisticRepository) List(ctx context.Context, ownerID *int64) ([]domain.ImportStatistic, error) {
	query := conn(ctx, r.db).Order("completed_at DESC, id DESC")
	if ownerID != nil {
		query = query.Where("user_id = ?", *ownerID)
	}

	var stats []domain.ImportStatistic
	err := query.Find(&stats).Error
	return stats, err
}

func (r *importStatisticRepository) GetByImportID(ctx context.Context, importID int64) ([]domain.ImportStatistic, error) {
	var stats []domain.ImportStatistic
	err := conn(ctx, r.db).Where("import_id = ?", importID).Order("id ASC").Find(&stats).Error
	return stats, err
}
