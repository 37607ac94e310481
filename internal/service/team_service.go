package service

import (
	"context"
	"strings"

	"github.com/hr-data-api/internal/domain"
	"github.com/hr-data-api/internal/dto"
	"github.com/hr-data-api/internal/repository"
)

// TeamService определяет интерфейс бизнес-логики для команд
type TeamService interface {
	Create(ctx context.Context, req *dto.CreateTeamRequest) (*domain.Team, error)
	GetByID(ctx context.Context, id int64) (*domain.Team, error)
	List(ctx context.Context, page repository.Pagination) ([]domain.Team, int64, error)
	Update(ctx context.Context, id int64, req *dto.UpdateTeamRequest) (*domain.Team, error)
	Delete(ctx context.Context, id int64) error
}

type teamService struct {
	teamRepo repository.TeamRepository
	orgRepo  repository.OrganizationRepository
}

// NewTeamService создаёт новый экземпляр сервиса
func NewTeamService(teamRepo repository.TeamRepository, orgRepo repository.OrganizationRepository) TeamService {
	return &teamService{
		teamRepo: teamRepo,
		orgRepo:  orgRepo,
	}
}

func (s *teamService) Create(ctx context.Context, req *dto.CreateTeamRequest) (*domain.Team, error) {
	name := strings.TrimSpace(req.Name)

	if err := s.ensureOrganization(ctx, req.OrganizationID); err != nil {
		return nil, err
	}

	exists, err := s.teamRepo.ExistsByName(ctx, name, nil)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrDuplicateTeamName
	}

	team := &domain.Team{
		Name:           name,
		OrganizationID: req.OrganizationID,
		Department:     req.Department,
	}
	if err := s.teamRepo.Create(ctx, team); err != nil {
		return nil, err
	}

	return s.teamRepo.GetByID(ctx, team.ID)
}

func (s *teamService) GetByID(ctx context.Context, id int64) (*domain.Team, error) {
	return s.teamRepo.GetByID(ctx, id)
}

func (s *teamService) List(ctx context.Context, page repository.Pagination) ([]domain.Team, int64, error) {
	return s.teamRepo.List(ctx, page)
}

func (s *teamService) Update(ctx context.Context, id int64, req *dto.UpdateTeamRequest) (*domain.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		exists, err := s.teamRepo.ExistsByName(ctx, name, &id)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, domain.ErrDuplicateTeamName
		}
		team.Name = name
	}

	if req.OrganizationID != nil {
		if err := s.ensureOrganization(ctx, *req.OrganizationID); err != nil {
			return nil, err
		}
		team.OrganizationID = *req.OrganizationID
		team.Organization = nil
	}

	if req.Department != nil {
		team.Department = req.Department
	}

	if err := s.teamRepo.Update(ctx, team); err != nil {
		return nil, err
	}

	return s.teamRepo.GetByID(ctx, id)
}

func (s *teamService) Delete(ctx context.Context, id int64) error {
	return s.teamRepo.Delete(ctx, id)
}

func (s *teamService) ensureOrganization(ctx context.Context, id int64) error {
	exists, err := s.orgRepo.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrOrganizationNotFound
	}
	return nil
}
