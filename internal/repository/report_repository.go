package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TeamSalary - средняя зарплата по команде
type TeamSalary struct {
	TeamID        int64               `json:"team_id"`
	TeamName      string              `json:"team_name"`
	EmployeeCount int64               `json:"employee_count"`
	AverageSalary decimal.NullDecimal `json:"average_salary"`
}

// OrganizationHeadcount - численность сотрудников организации
type OrganizationHeadcount struct {
	OrganizationID   int64  `json:"organization_id"`
	OrganizationName string `json:"organization_name"`
	EmployeeCount    int64  `json:"employee_count"`
}

// ReportRepository определяет агрегирующие запросы для отчётов
type ReportRepository interface {
	AverageSalaryPerTeam(ctx context.Context) ([]TeamSalary, error)
	OverallAverageSalary(ctx context.Context) (decimal.NullDecimal, error)
	HeadcountPerOrganization(ctx context.Context) ([]OrganizationHeadcount, error)
}

type reportRepository struct {
	db *gorm.DB
}

// NewReportRepository создаёт новый экземпляр репозитория
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) AverageSalaryPerTeam(ctx context.Context) ([]TeamSalary, error) {
	var rows []TeamSalary
	err := conn(ctx, r.db).
		Table("teams").
		Select("teams.id AS team_id, teams.name AS team_name, " +
			"COUNT(employees.id) AS employee_count, AVG(employees.salary) AS average_salary").
		Joins("LEFT JOIN employees ON employees.team_id = teams.id").
		Group("teams.id, teams.name").
		Order("teams.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for i := range rows {
		if rows[i].AverageSalary.Valid {
			rows[i].AverageSalary.Decimal = rows[i].AverageSalary.Decimal.Round(2)
		}
	}
	return rows, nil
}

func (r *reportRepository) OverallAverageSalary(ctx context.Context) (decimal.NullDecimal, error) {
	var avg decimal.NullDecimal
	err := conn(ctx, r.db).Table("employees").Select("AVG(salary)").Row().Scan(&avg)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	if avg.Valid {
		avg.Decimal = avg.Decimal.Round(2)
	}
	return avg, nil
}

func (r *reportRepository) HeadcountPerOrganization(ctx context.Context) ([]OrganizationHeadcount, error) {
	var rows []OrganizationHeadcount
	err := conn(ctx, r.db).
		Table("organizations").
		Select("organizations.id AS organization_id, organizations.name AS organization_name, " +
			"COUNT(employees.id) AS employee_count").
		Joins("LEFT JOIN employees ON employees.organization_id = organizations.id").
		Group("organizations.id, organizations.name").
		Order("organizations.id ASC").
		Scan(&rows).Error
	return rows, err
}
