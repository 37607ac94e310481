package repository

import (
	"context"

	"github.com/hr-data-api/internal/domain"
	"gorm.io/gorm"
)

// SalaryLogFilter - фильтры журнала изменений зарплат
type SalaryLogFilter struct {
	EmployeeName   string
	TeamID         *int64
	OrganizationID *int64
}

// SalaryLogRepository определяет интерфейс журнала изменений зарплат
type SalaryLogRepository interface {
	Record(ctx context.Context, entry *domain.SalaryChangeLog) error
	List(ctx context.Context, filter SalaryLogFilter, page Pagination) ([]domain.SalaryChangeLog, int64, error)
	ListByEmployee(ctx context.Context, employeeID int64) ([]domain.SalaryChangeLog, error)
}

type salaryLogRepository struct {
	db *gorm.DB
}

// NewSalaryLogRepository создаёт новый экземпляр репозитория
func NewSalaryLogRepository(db *gorm.DB) SalaryLogRepository {
	return &salaryLogRepository{db: db}
}

// Record пишет запись аудита. Внутри транзакции из контекста запись идёт под
// SAVEPOINT, поэтому ошибка откатывает только её, а не всю транзакцию.
func (r *salaryLogRepository) Record(ctx context.Context, entry *domain.SalaryChangeLog) error {
	return conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		return tx.Omit("Employee").Create(entry).Error
	})
}

func (r *salaryLogRepository) List(ctx context.Context, filter SalaryLogFilter, page Pagination) ([]domain.SalaryChangeLog, int64, error) {
	page = page.Normalize()

	query := conn(ctx, r.db).Model(&domain.SalaryChangeLog{}).
		Joins("JOIN employees ON employees.id = salary_change_logs.employee_id")
	if filter.EmployeeName != "" {
		query = query.Where("employees.name LIKE ?", "%"+filter.EmployeeName+"%")
	}
	if filter.TeamID != nil {
		query = query.Where("employees.team_id = ?", *filter.TeamID)
	}
	if filter.OrganizationID != nil {
		query = query.Where("employees.organization_id = ?", *filter.OrganizationID)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []domain.SalaryChangeLog
	err := query.
		Select("salary_change_logs.*").
		Preload("Employee").
		Order("salary_change_logs.created_at DESC, salary_change_logs.id DESC").
		Limit(page.PerPage).
		Offset(page.offset()).
		Find(&logs).Error
	return logs, total, err
}

func (r *salaryLogRepository) ListByEmployee(ctx context.Context, employeeID int64) ([]domain.SalaryChangeLog, error) {
	var logs []domain.SalaryChangeLog
	err := conn(ctx, r.db).
		Where("employee_id = ?", employeeID).
		Order("id ASC").
		Find(&logs).Error
	return logs, err
}
