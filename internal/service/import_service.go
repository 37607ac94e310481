package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/hr-data-api/internal/domain"
	"github.com/hr-data-api/internal/events"
	"github.com/hr-data-api/internal/repository"
)

// FileStore сохраняет загруженные файлы
type FileStore interface {
	Store(ctx context.Context, name string, r io.Reader) (string, error)
	Delete(ctx context.Context, path string) error
}

// ImportService - операции импорта, доступные снаружи конвейера
type ImportService interface {
	CreateImportJob(ctx context.Context, ownerID int64, filename string, r io.Reader) (*domain.ImportJob, error)
	GetImportJobStatus(ctx context.Context, id int64) (*domain.ImportJob, error)
	ListImportJobs(ctx context.Context, ownerID int64) ([]domain.ImportJob, error)
	ListImportStatistics(ctx context.Context, ownerID *int64) ([]domain.ImportStatistic, error)
	ListNotifications(ctx context.Context, userID int64) ([]domain.Notification, error)
}

type importService struct {
	jobs          repository.ImportJobRepository
	stats         repository.ImportStatisticRepository
	notifications repository.NotificationRepository
	files         FileStore
	bus           events.Publisher
	logger        *slog.Logger
}

// NewImportService создаёт новый экземпляр сервиса
func NewImportService(
	jobs repository.ImportJobRepository,
	stats repository.ImportStatisticRepository,
	notifications repository.NotificationRepository,
	files FileStore,
	bus events.Publisher,
	logger *slog.Logger,
) ImportService {
	return &importService{
		jobs:          jobs,
		stats:         stats,
		notifications: notifications,
		files:         files,
		bus:           bus,
		logger:        logger,
	}
}

// CreateImportJob сохраняет файл, создаёт задачу в статусе pending и публикует ImportRequested
func (s *importService) CreateImportJob(ctx context.Context, ownerID int64, filename string, r io.Reader) (*domain.ImportJob, error) {
	if !strings.EqualFold(filepath.Ext(filename), ".json") {
		return nil, domain.ErrInvalidImportFile
	}

	path, err := s.files.Store(ctx, filename, r)
	if err != nil {
		return nil, fmt.Errorf("store import file: %w", err)
	}

	job := &domain.ImportJob{
		JobToken: uuid.NewString(),
		UserID:   ownerID,
		FilePath: path,
		Status:   domain.ImportStatusPending,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		if delErr := s.files.Delete(ctx, path); delErr != nil {
			s.logger.Warn("failed to remove orphan import file", slog.String("path", path), slog.Any("error", delErr))
		}
		return nil, fmt.Errorf("create import job: %w", err)
	}

	s.logger.Info("import requested",
		slog.Int64("job_id", job.ID),
		slog.String("job_token", job.JobToken),
		slog.Int64("user_id", ownerID),
	)
	s.bus.Publish(ctx, events.ImportRequested{Job: *job})
	return job, nil
}

func (s *importService) GetImportJobStatus(ctx context.Context, id int64) (*domain.ImportJob, error) {
	return s.jobs.GetByID(ctx, id)
}

func (s *importService) ListImportJobs(ctx context.Context, ownerID int64) ([]domain.ImportJob, error) {
	return s.jobs.ListByOwner(ctx, ownerID)
}

func (s *importService) ListImportStatistics(ctx context.Context, ownerID *int64) ([]domain.ImportStatistic, error) {
	return s.stats.List(ctx, ownerID)
}

func (s *importService) ListNotifications(ctx context.Context, userID int64) ([]domain.Notification, error) {
	return s.notifications.ListByUser(ctx, userID)
}
