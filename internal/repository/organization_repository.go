package repository

import (
	"context"
	"errors"

	"github.com/hr-data-api/internal/domain"
	"gorm.io/gorm"
)

// OrganizationRepository определяет интерфейс для работы с организациями
type OrganizationRepository interface {
	Create(ctx context.Context, org *domain.Organization) error
	GetByID(ctx context.Context, id int64) (*domain.Organization, error)
	List(ctx context.Context, page Pagination) ([]domain.Organization, int64, error)
	Update(ctx context.Context, org *domain.Organization) error
	Delete(ctx context.Context, id int64) error
	Exists(ctx context.Context, id int64) (bool, error)
	ExistsByName(ctx context.Context, name string, excludeID *int64) (bool, error)
	ListIDs(ctx context.Context) ([]int64, error)
}

type organizationRepository struct {
	db *gorm.DB
}

// NewOrganizationRepository создаёт новый экземпляр репозитория
func NewOrganizationRepository(db *gorm.DB) OrganizationRepository {
	return &organizationRepository{db: db}
}

const organizationCounts = "organizations.*, " +
	"(SELECT COUNT(*) FROM teams WHERE teams.organization_id = organizations.id) AS teams_count, " +
	"(SELECT COUNT(*) FROM employees WHERE employees.organization_id = organizations.id) AS employees_count"

func (r *organizationRepository) Create(ctx context.Context, org *domain.Organization) error {
	return conn(ctx, r.db).Create(org).Error
}

func (r *organizationRepository) GetByID(ctx context.Context, id int64) (*domain.Organization, error) {
	var org domain.Organization
	err := conn(ctx, r.db).
		Select(organizationCounts).
		Preload("Teams", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		Where("organizations.id = ?", id).
		First(&org).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrganizationNotFound
		}
		return nil, err
	}
	return &org, nil
}

func (r *organizationRepository) List(ctx context.Context, page Pagination) ([]domain.Organization, int64, error) {
	page = page.Normalize()

	var total int64
	if err := conn(ctx, r.db).Model(&domain.Organization{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orgs []domain.Organization
	err := conn(ctx, r.db).
		Select(organizationCounts).
		Order("organizations.id ASC").
		Limit(page.PerPage).
		Offset(page.offset()).
		Find(&orgs).Error
	return orgs, total, err
}

func (r *organizationRepository) Update(ctx context.Context, org *domain.Organization) error {
	return conn(ctx, r.db).Omit("Teams").Save(org).Error
}

func (r *organizationRepository) Delete(ctx context.Context, id int64) error {
	result := conn(ctx, r.db).Delete(&domain.Organization{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrOrganizationNotFound
	}
	return nil
}

func (r *organizationRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var count int64
	err := conn(ctx, r.db).Model(&domain.Organization{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *organizationRepository) ExistsByName(ctx context.Context, name string, excludeID *int64) (bool, error) {
	var count int64
	query := conn(ctx, r.db).Model(&domain.Organization{}).Where("name = ?", name)
	if excludeID != nil {
		query = query.Where("id != ?", *excludeID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

func (r *organizationRepository) ListIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := conn(ctx, r.db).Model(&domain.Organization{}).Order("id ASC").Pluck("id", &ids).Error
	return ids, err
}
