package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hr-data-api/internal/cache"
	"github.com/hr-data-api/internal/domain"
	"github.com/hr-data-api/internal/dto"
	"github.com/hr-data-api/internal/repository"
)

const (
	organizationPagesGroup = "organization_cache_keys"
	organizationPageTTL    = 10 * time.Minute
	organizationTTL        = 30 * time.Minute
)

// OrganizationPage - закэшированная страница организаций
type OrganizationPage struct {
	Items []domain.Organization `json:"items"`
	Total int64                 `json:"total"`
}

// OrganizationService определяет интерфейс бизнес-логики для организаций
type OrganizationService interface {
	Create(ctx context.Context, req *dto.CreateOrganizationRequest) (*domain.Organization, error)
	GetByID(ctx context.Context, id int64) (*domain.Organization, error)
	List(ctx context.Context, page repository.Pagination) (*OrganizationPage, error)
	Update(ctx context.Context, id int64, req *dto.UpdateOrganizationRequest) (*domain.Organization, error)
	Delete(ctx context.Context, id int64) error
}

type organizationService struct {
	orgRepo repository.OrganizationRepository
	cache   cache.Cache
	logger  *slog.Logger
}

// NewOrganizationService создаёт сервис; чтения кэшируются, любая запись сбрасывает кэш
func NewOrganizationService(orgRepo repository.OrganizationRepository, c cache.Cache, logger *slog.Logger) OrganizationService {
	return &organizationService{
		orgRepo: orgRepo,
		cache:   c,
		logger:  logger,
	}
}

func organizationKey(id int64) string {
	return fmt.Sprintf("organization_%d", id)
}

func organizationPageKey(page repository.Pagination) string {
	return fmt.Sprintf("organizations_page_%d_per_page_%d", page.Page, page.PerPage)
}

func (s *organizationService) Create(ctx context.Context, req *dto.CreateOrganizationRequest) (*domain.Organization, error) {
	name := strings.TrimSpace(req.Name)
	if err := s.ensureUniqueName(ctx, name, nil); err != nil {
		return nil, err
	}

	org := &domain.Organization{
		Name:        name,
		Industry:    strings.TrimSpace(req.Industry),
		Location:    req.Location,
		Phone:       req.Phone,
		Email:       req.Email,
		Website:     req.Website,
		FoundedYear: req.FoundedYear,
	}
	if err := s.orgRepo.Create(ctx, org); err != nil {
		return nil, err
	}

	s.invalidate(ctx, nil)
	return org, nil
}

func (s *organizationService) GetByID(ctx context.Context, id int64) (*domain.Organization, error) {
	org, err := cache.Remember(ctx, s.cache, s.logger, "organization", organizationKey(id), organizationTTL,
		func() (*domain.Organization, error) {
			return s.orgRepo.GetByID(ctx, id)
		})
	if err != nil {
		return nil, err
	}
	return org, nil
}

func (s *organizationService) List(ctx context.Context, page repository.Pagination) (*OrganizationPage, error) {
	page = page.Normalize()
	key := organizationPageKey(page)

	result, err := cache.Remember(ctx, s.cache, s.logger, "organizations", key, organizationPageTTL,
		func() (*OrganizationPage, error) {
			items, total, err := s.orgRepo.List(ctx, page)
			if err != nil {
				return nil, err
			}
			return &OrganizationPage{Items: items, Total: total}, nil
		})
	if err != nil {
		return nil, err
	}

	if err := s.cache.Track(ctx, organizationPagesGroup, key, organizationTTL); err != nil {
		s.logger.Warn("cache track failed", slog.String("key", key), slog.Any("error", err))
	}
	return result, nil
}

func (s *organizationService) Update(ctx context.Context, id int64, req *dto.UpdateOrganizationRequest) (*domain.Organization, error) {
	org, err := s.orgRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if err := s.ensureUniqueName(ctx, name, &id); err != nil {
			return nil, err
		}
		org.Name = name
	}
	if req.Industry != nil {
		org.Industry = strings.TrimSpace(*req.Industry)
	}
	if req.Location != nil {
		org.Location = req.Location
	}
	if req.Phone != nil {
		org.Phone = req.Phone
	}
	if req.Email != nil {
		org.Email = req.Email
	}
	if req.Website != nil {
		org.Website = req.Website
	}
	if req.FoundedYear != nil {
		org.FoundedYear = req.FoundedYear
	}

	if err := s.orgRepo.Update(ctx, org); err != nil {
		return nil, err
	}

	s.invalidate(ctx, &id)
	return s.orgRepo.GetByID(ctx, id)
}

func (s *organizationService) Delete(ctx context.Context, id int64) error {
	if err := s.orgRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, &id)
	return nil
}

func (s *organizationService) ensureUniqueName(ctx context.Context, name string, excludeID *int64) error {
	exists, err := s.orgRepo.ExistsByName(ctx, name, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return domain.ErrDuplicateOrganizationName
	}
	return nil
}

// invalidate сбрасывает все страницы списка и, если задан id, карточку организации
func (s *organizationService) invalidate(ctx context.Context, id *int64) {
	if id != nil {
		if err := s.cache.Delete(ctx, organizationKey(*id)); err != nil {
			s.logger.Warn("cache delete failed", slog.Int64("organization_id", *id), slog.Any("error", err))
		}
	}
	if err := s.cache.Flush(ctx, organizationPagesGroup); err != nil {
		s.logger.Warn("cache flush failed", slog.Any("error", err))
	}
}
