package repository

import (
	"context"
	"errors"
	"time"

	"github.com/hr-data-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EmployeeFilter - фильтры списка сотрудников
type EmployeeFilter struct {
	StartDate      *time.Time
	TeamID         *int64
	OrganizationID *int64
}

// EmployeeRepository определяет интерфейс для работы с сотрудниками
type EmployeeRepository interface {
	Create(ctx context.Context, emp *domain.Employee) error
	GetByID(ctx context.Context, id int64) (*domain.Employee, error)
	FindByEmail(ctx context.Context, email string) (*domain.Employee, error)
	List(ctx context.Context, filter EmployeeFilter, page Pagination) ([]domain.Employee, int64, error)
	Save(ctx context.Context, emp *domain.Employee) error
	Delete(ctx context.Context, id int64) error
	ExistsByEmail(ctx context.Context, email string, excludeID *int64) (bool, error)
}

type employeeRepository struct {
	db *gorm.DB
}

// NewEmployeeRepository создаёт новый экземпляр репозитория
func NewEmployeeRepository(db *gorm.DB) EmployeeRepository {
	return &employeeRepository{db: db}
}

func (r *employeeRepository) Create(ctx context.Context, emp *domain.Employee) error {
	return conn(ctx, r.db).Omit(clause.Associations).Create(emp).Error
}

func (r *employeeRepository) GetByID(ctx context.Context, id int64) (*domain.Employee, error) {
	var emp domain.Employee
	err := conn(ctx, r.db).Preload("Team").Preload("Organization").First(&emp, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrEmployeeNotFound
		}
		return nil, err
	}
	return &emp, nil
}

func (r *employeeRepository) FindByEmail(ctx context.Context, email string) (*domain.Employee, error) {
	var emp domain.Employee
	err := conn(ctx, r.db).Where("email = ?", email).First(&emp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrEmployeeNotFound
		}
		return nil, err
	}
	return &emp, nil
}

func (r *employeeRepository) List(ctx context.Context, filter EmployeeFilter, page Pagination) ([]domain.Employee, int64, error) {
	page = page.Normalize()

	query := conn(ctx, r.db).Model(&domain.Employee{})
	if filter.StartDate != nil {
		query = query.Where("DATE(start_date) = ?", filter.StartDate.Format(time.DateOnly))
	}
	if filter.TeamID != nil {
		query = query.Where("team_id = ?", *filter.TeamID)
	}
	if filter.OrganizationID != nil {
		query = query.Where("organization_id = ?", *filter.OrganizationID)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var employees []domain.Employee
	err := query.
		Preload("Team").
		Preload("Organization").
		Order("id ASC").
		Limit(page.PerPage).
		Offset(page.offset()).
		Find(&employees).Error
	return employees, total, err
}

// Save вставляет нового сотрудника или обновляет все поля существующего
func (r *employeeRepository) Save(ctx context.Context, emp *domain.Employee) error {
	return conn(ctx, r.db).Omit(clause.Associations).Save(emp).Error
}

func (r *employeeRepository) Delete(ctx context.Context, id int64) error {
	result := conn(ctx, r.db).Delete(&domain.Employee{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrEmployeeNotFound
	}
	return nil
}

func (r *employeeRepository) ExistsByEmail(ctx context.Context, email string, excludeID *int64) (bool, error) {
	var count int64
	query := conn(ctx, r.db).Model(&domain.Employee{}).Where("email = ?", email)
	if excludeID != nil {
		query = query.Where("id != ?", *excludeID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}
