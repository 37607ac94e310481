package repository

import (
	"context"
	"errors"

	"github.com/hr-data-api/internal/domain"
	"gorm.io/gorm"
)

// TeamRepository определяет интерфейс для работы с командами
type TeamRepository interface {
	Create(ctx context.Context, team *domain.Team) error
	GetByID(ctx context.Context, id int64) (*domain.Team, error)
	List(ctx context.Context, page Pagination) ([]domain.Team, int64, error)
	Update(ctx context.Context, team *domain.Team) error
	Delete(ctx context.Context, id int64) error
	Exists(ctx context.Context, id int64) (bool, error)
	ExistsByName(ctx context.Context, name string, excludeID *int64) (bool, error)
	ListIDs(ctx context.Context) ([]int64, error)
}

type teamRepository struct {
	db *gorm.DB
}

// NewTeamRepository создаёт новый экземпляр репозитория
func NewTeamRepository(db *gorm.DB) TeamRepository {
	return &teamRepository{db: db}
}

func (r *teamRepository) Create(ctx context.Context, team *domain.Team) error {
	return conn(ctx, r.db).Create(team).Error
}

func (r *teamRepository) GetByID(ctx context.Context, id int64) (*domain.Team, error) {
	var team domain.Team
	err := conn(ctx, r.db).Preload("Organization").First(&team, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTeamNotFound
		}
		return nil, err
	}
	return &team, nil
}

func (r *teamRepository) List(ctx context.Context, page Pagination) ([]domain.Team, int64, error) {
	page = page.Normalize()

	var total int64
	if err := conn(ctx, r.db).Model(&domain.Team{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var teams []domain.Team
	err := conn(ctx, r.db).
		Preload("Organization").
		Order("id ASC").
		Limit(page.PerPage).
		Offset(page.offset()).
		Find(&teams).Error
	return teams, total, err
}

func (r *teamRepository) Update(ctx context.Context, team *domain.Team) error {
	return conn(ctx, r.db).Omit("Organization").Save(team).Error
}

func (r *teamRepository) Delete(ctx context.Context, id int64) error {
	result := conn(ctx, r.db).Delete(&domain.Team{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrTeamNotFound
	}
	return nil
}

func (r *teamRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var count int64
	err := conn(ctx, r.db).Model(&domain.Team{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *teamRepository) ExistsByName(ctx context.Context, name string, excludeID *int64) (bool, error) {
	var count int64
	query := conn(ctx, r.db).Model(&domain.Team{}).Where("name = ?", name)
	if excludeID != nil {
		query = query.Where("id != ?", *excludeID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

func (r *teamRepository) ListIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := conn(ctx, r.db).Model(&domain.Team{}).Order("id ASC").Pluck("id", &ids).Error
	return ids, err
}
