package service

import (
	"context"
	"strings"
	"time"

	"github.com/hr-data-api/internal/domain"
	"github.com/hr-data-api/internal/dto"
	"github.com/hr-data-api/internal/events"
	"github.com/hr-data-api/internal/repository"
)

const (
	// ManualActor - автор изменений зарплаты через API
	ManualActor = "api"
	// ManualReason - причина изменения зарплаты через API
	ManualReason = "Manual update"
)

// EmployeeService определяет интерфейс бизнес-логики для сотрудников
type EmployeeService interface {
	Create(ctx context.Context, req *dto.CreateEmployeeRequest) (*domain.Employee, error)
	GetByID(ctx context.Context, id int64) (*domain.Employee, error)
	List(ctx context.Context, query *dto.EmployeeListQuery) ([]domain.Employee, int64, error)
	Update(ctx context.Context, id int64, req *dto.UpdateEmployeeRequest) (*domain.Employee, error)
	Delete(ctx context.Context, id int64) error
}

type employeeService struct {
	empRepo  repository.EmployeeRepository
	teamRepo repository.TeamRepository
	orgRepo  repository.OrganizationRepository
	tx       repository.Transactor
	bus      events.Publisher
}

// NewEmployeeService создаёт новый экземпляр сервиса
func NewEmployeeService(
	empRepo repository.EmployeeRepository,
	teamRepo repository.TeamRepository,
	orgRepo repository.OrganizationRepository,
	tx repository.Transactor,
	bus events.Publisher,
) EmployeeService {
	return &employeeService{
		empRepo:  empRepo,
		teamRepo: teamRepo,
		orgRepo:  orgRepo,
		tx:       tx,
		bus:      bus,
	}
}

func (s *employeeService) Create(ctx context.Context, req *dto.CreateEmployeeRequest) (*domain.Employee, error) {
	if req.Salary.IsNegative() {
		return nil, domain.ErrNegativeSalary
	}
	if err := s.ensureReferences(ctx, &req.TeamID, &req.OrganizationID); err != nil {
		return nil, err
	}

	email := strings.TrimSpace(req.Email)
	exists, err := s.empRepo.ExistsByEmail(ctx, email, nil)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrDuplicateEmployeeEmail
	}

	startDate, err := time.Parse(time.DateOnly, req.StartDate)
	if err != nil {
		return nil, err
	}

	emp := &domain.Employee{
		Name:           strings.TrimSpace(req.Name),
		Email:          email,
		TeamID:         &req.TeamID,
		OrganizationID: &req.OrganizationID,
		Salary:         req.Salary,
		StartDate:      &startDate,
		Position:       req.Position,
	}
	if err := s.empRepo.Create(ctx, emp); err != nil {
		return nil, err
	}

	return s.empRepo.GetByID(ctx, emp.ID)
}

func (s *employeeService) GetByID(ctx context.Context, id int64) (*domain.Employee, error) {
	return s.empRepo.GetByID(ctx, id)
}

func (s *employeeService) List(ctx context.Context, query *dto.EmployeeListQuery) ([]domain.Employee, int64, error) {
	filter := repository.EmployeeFilter{
		TeamID:         query.TeamID,
		OrganizationID: query.OrganizationID,
	}
	if query.StartDate != nil {
		day, err := time.Parse(time.DateOnly, *query.StartDate)
		if err != nil {
			return nil, 0, err
		}
		filter.StartDate = &day
	}

	return s.empRepo.List(ctx, filter, repository.Pagination{Page: query.Page, PerPage: query.PerPage})
}

// Update применяет изменения в транзакции; изменение зарплаты попадает в журнал аудита
func (s *employeeService) Update(ctx context.Context, id int64, req *dto.UpdateEmployeeRequest) (*domain.Employee, error) {
	if req.Salary != nil && req.Salary.IsNegative() {
		return nil, domain.ErrNegativeSalary
	}
	if err := s.ensureReferences(ctx, req.TeamID, req.OrganizationID); err != nil {
		return nil, err
	}

	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		emp, err := s.empRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		emp.Team, emp.Organization = nil, nil
		oldSalary := emp.Salary

		if req.Email != nil {
			email := strings.TrimSpace(*req.Email)
			exists, err := s.empRepo.ExistsByEmail(ctx, email, &id)
			if err != nil {
				return err
			}
			if exists {
				return domain.ErrDuplicateEmployeeEmail
			}
			emp.Email = email
		}
		if req.Name != nil {
			emp.Name = strings.TrimSpace(*req.Name)
		}
		if req.TeamID != nil {
			emp.TeamID = req.TeamID
		}
		if req.OrganizationID != nil {
			emp.OrganizationID = req.OrganizationID
		}
		if req.Salary != nil {
			emp.Salary = *req.Salary
		}
		if req.StartDate != nil {
			day, err := time.Parse(time.DateOnly, *req.StartDate)
			if err != nil {
				return err
			}
			emp.StartDate = &day
		}
		if req.Position != nil {
			emp.Position = req.Position
		}

		if err := s.empRepo.Save(ctx, emp); err != nil {
			return err
		}

		if !oldSalary.Equal(emp.Salary) {
			s.bus.Publish(ctx, events.SalaryUpdated{
				Employee:  *emp,
				OldSalary: oldSalary,
				NewSalary: emp.Salary,
				ChangedBy: ManualActor,
				Reason:    ManualReason,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.empRepo.GetByID(ctx, id)
}

func (s *employeeService) Delete(ctx context.Context, id int64) error {
	return s.empRepo.Delete(ctx, id)
}

func (s *employeeService) ensureReferences(ctx context.Context, teamID, orgID *int64) error {
	if teamID != nil {
		exists, err := s.teamRepo.Exists(ctx, *teamID)
		if err != nil {
			return err
		}
		if !exists {
			return domain.ErrTeamNotFound
		}
	}
	if orgID != nil {
		exists, err := s.orgRepo.Exists(ctx, *orgID)
		if err != nil {
			return err
		}
		if !exists {
			return domain.ErrOrganizationNotFound
		}
	}
	return nil
}
