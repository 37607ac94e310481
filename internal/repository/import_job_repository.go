package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hr-data-api/internal/domain"
	"gorm.io/gorm"
)

// ImportJobRepository - журнал задач импорта. Каждый переход состояния
// выполняется одним UPDATE с условием на текущий статус.
type ImportJobRepository interface {
	Create(ctx context.Context, job *domain.ImportJob) error
	GetByID(ctx context.Context, id int64) (*domain.ImportJob, error)
	GetByToken(ctx context.Context, token string) (*domain.ImportJob, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]domain.ImportJob, error)
	ListPending(ctx context.Context, maxAttempts int) ([]domain.ImportJob, error)
	Start(ctx context.Context, id int64, maxAttempts int) (*domain.ImportJob, error)
	SetTotal(ctx context.Context, id int64, total int64) error
	Increment(ctx context.Context, id int64, processed, failed int64) error
	Complete(ctx context.Context, id int64) (*domain.ImportJob, error)
	Fail(ctx context.Context, id int64, message string) (*domain.ImportJob, error)
}

type importJobRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewImportJobRepository создаёт новый экземпляр репозитория
func NewImportJobRepository(db *gorm.DB) ImportJobRepository {
	return &importJobRepository{db: db, now: time.Now}
}

func (r *importJobRepository) Create(ctx context.Context, job *domain.ImportJob) error {
	if job.Status == "" {
		job.Status = domain.ImportStatusPending
	}
	return conn(ctx, r.db).Omit("User").Create(job).Error
}

func (r *importJobRepository) GetByID(ctx context.Context, id int64) (*domain.ImportJob, error) {
	var job domain.ImportJob
	if err := conn(ctx, r.db).First(&job, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrImportJobNotFound
		}
		return nil, err
	}
	return &job, nil
}

func (r *importJobRepository) GetByToken(ctx context.Context, token string) (*domain.ImportJob, error) {
	var job domain.ImportJob
	if err := conn(ctx, r.db).Where("job_token = ?", token).First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrImportJobNotFound
		}
		return nil, err
	}
	return &job, nil
}

func (r *importJobRepository) ListByOwner(ctx context.Context, ownerID int64) ([]domain.ImportJob, error) {
	var jobs []domain.ImportJob
	err := conn(ctx, r.db).
		Where("user_id = ?", ownerID).
		Order("id DESC").
		Find(&jobs).Error
	return jobs, err
}

// ListPending возвращает задачи, которые нужно поставить в очередь после перезапуска.
// Упавшая задача попадает в список, пока у неё есть попытки и по ней не записана итоговая сводка.
func (r *importJobRepository) ListPending(ctx context.Context, maxAttempts int) ([]domain.ImportJob, error) {
	var jobs []domain.ImportJob
	err := conn(ctx, r.db).
		Where("status IN ?", []domain.ImportStatus{domain.ImportStatusPending, domain.ImportStatusProcessing}).
		Or("status = ? AND attempts < ? AND NOT EXISTS (SELECT 1 FROM import_statistics WHERE import_statistics.import_id = import_jobs.id)",
			domain.ImportStatusFailed, maxAttempts).
		Order("id ASC").
		Find(&jobs).Error
	return jobs, err
}

// Start переводит задачу в processing, обнуляя счётчики перед новой попыткой
func (r *importJobRepository) Start(ctx context.Context, id int64, maxAttempts int) (*domain.ImportJob, error) {
	result := conn(ctx, r.db).Model(&domain.ImportJob{}).
		Where("id = ? AND status IN ? AND attempts < ?", id,
			[]domain.ImportStatus{domain.ImportStatusPending, domain.ImportStatusFailed}, maxAttempts).
		Updates(map[string]any{
			"status":            domain.ImportStatusProcessing,
			"total_records":     0,
			"processed_records": 0,
			"failed_records":    0,
			"error_message":     nil,
			"attempts":          gorm.Expr("attempts + 1"),
			"updated_at":        r.now(),
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		job, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if job.Attempts >= maxAttempts {
			return nil, fmt.Errorf("%w: %d of %d used", domain.ErrAttemptsExhausted, job.Attempts, maxAttempts)
		}
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, job.Status, domain.ImportStatusProcessing)
	}
	return r.GetByID(ctx, id)
}

func (r *importJobRepository) SetTotal(ctx context.Context, id int64, total int64) error {
	return r.guardedUpdate(ctx, id, []domain.ImportStatus{domain.ImportStatusProcessing}, map[string]any{
		"total_records": total,
	})
}

// Increment атомарно прибавляет счётчики, не перечитывая строку
func (r *importJobRepository) Increment(ctx context.Context, id int64, processed, failed int64) error {
	return r.guardedUpdate(ctx, id, []domain.ImportStatus{domain.ImportStatusProcessing}, map[string]any{
		"processed_records": gorm.Expr("processed_records + ?", processed),
		"failed_records":    gorm.Expr("failed_records + ?", failed),
	})
}

func (r *importJobRepository) Complete(ctx context.Context, id int64) (*domain.ImportJob, error) {
	err := r.guardedUpdate(ctx, id, []domain.ImportStatus{domain.ImportStatusProcessing}, map[string]any{
		"status": domain.ImportStatusCompleted,
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *importJobRepository) Fail(ctx context.Context, id int64, message string) (*domain.ImportJob, error) {
	err := r.guardedUpdate(ctx, id, []domain.ImportStatus{domain.ImportStatusPending, domain.ImportStatusProcessing}, map[string]any{
		"status":        domain.ImportStatusFailed,
		"error_message": message,
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *importJobRepository) guardedUpdate(ctx context.Context, id int64, from []domain.ImportStatus, values map[string]any) error {
	values["updated_at"] = r.now()

	result := conn(ctx, r.db).Model(&domain.ImportJob{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(values)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		job, err := r.GetByID(ctx, id)
		if err != nil {
			return err
		}
		return fmt.Errorf("%w: job %d is %s", domain.ErrInvalidTransition, id, job.Status)
	}
	return nil
}
