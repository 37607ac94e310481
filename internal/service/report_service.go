package service

import (
	"context"

	"github.com/hr-data-api/internal/domain"
	"github.com/hr-data-api/internal/dto"
	"github.com/hr-data-api/internal/repository"
)

// TeamSalaryReport - средние зарплаты по командам
type TeamSalaryReport = dto.SalaryReportResponse[repository.TeamSalary]

// ReportService строит отчёты и журнал изменений зарплат
type ReportService interface {
	TeamSalaries(ctx context.Context) (*TeamSalaryReport, error)
	OrganizationHeadcount(ctx context.Context) ([]repository.OrganizationHeadcount, error)
	SalaryLogs(ctx context.Context, query *dto.SalaryLogQuery) ([]domain.SalaryChangeLog, int64, error)
}

type reportService struct {
	reports    repository.ReportRepository
	salaryLogs repository.SalaryLogRepository
}

// NewReportService создаёт новый экземпляр сервиса
func NewReportService(reports repository.ReportRepository, salaryLogs repository.SalaryLogRepository) ReportService {
	return &reportService{
		reports:    reports,
		salaryLogs: salaryLogs,
	}
}

func (s *reportService) TeamSalaries(ctx context.Context) (*TeamSalaryReport, error) {
	teams, err := s.reports.AverageSalaryPerTeam(ctx)
	if err != nil {
		return nil, err
	}
	overall, err := s.reports.OverallAverageSalary(ctx)
	if err != nil {
		return nil, err
	}
	return &TeamSalaryReport{Teams: teams, OverallAverage: overall}, nil
}

func (s *reportService) OrganizationHeadcount(ctx context.Context) ([]repository.OrganizationHeadcount, error) {
	return s.reports.HeadcountPerOrganization(ctx)
}

func (s *reportService) SalaryLogs(ctx context.Context, query *dto.SalaryLogQuery) ([]domain.SalaryChangeLog, int64, error) {
	filter := repository.SalaryLogFilter{
		EmployeeName:   query.EmployeeName,
		TeamID:         query.TeamID,
		OrganizationID: query.OrganizationID,
	}
	return s.salaryLogs.List(ctx, filter, repository.Pagination{Page: query.Page, PerPage: query.PerPage})
}
