package importer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hr-data-api/internal/domain"
	"github.com/hr-data-api/internal/events"
	"golang.org/x/sync/errgroup"
)

// Runner выполняет одну попытку задачи
type Runner interface {
	Run(ctx context.Context, jobID int64) error
}

// JobSource - чтение журнала для решений о повторе и восстановлении
type JobSource interface {
	GetByID(ctx context.Context, id int64) (*domain.ImportJob, error)
	ListPending(ctx context.Context, maxAttempts int) ([]domain.ImportJob, error)
	Fail(ctx context.Context, id int64, message string) (*domain.ImportJob, error)
}

// SchedulerConfig - параметры пула воркеров
type SchedulerConfig struct {
	Workers      int
	QueueSize    int
	MaxAttempts  int
	RetryBackoff time.Duration
}

// Scheduler - очередь задач импорта в процессе с пулом воркеров.
// Одна задача обрабатывается не более чем одним воркером одновременно.
type Scheduler struct {
	runner Runner
	jobs   JobSource
	bus    events.Publisher
	cfg    SchedulerConfig
	logger *slog.Logger

	queue chan int64

	mu       sync.Mutex
	inflight map[int64]struct{}
	closed   bool

	ctx    context.Context
	cancel context.CancelFunc
	group  *errgroup.Group
	timers sync.WaitGroup
}

// NewScheduler создаёт планировщик
func NewScheduler(runner Runner, jobs JobSource, bus events.Publisher, cfg SchedulerConfig, logger *slog.Logger) *Scheduler {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 100
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryBackoff < 0 {
		cfg.RetryBackoff = 0
	}
	return &Scheduler{
		runner:   runner,
		jobs:     jobs,
		bus:      bus,
		cfg:      cfg,
		logger:   logger,
		queue:    make(chan int64, cfg.QueueSize),
		inflight: make(map[int64]struct{}),
	}
}

// Start запускает воркеры
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.group != nil {
		return
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	group, gctx := errgroup.WithContext(s.ctx)
	s.group = group
	for range s.cfg.Workers {
		group.Go(func() error {
			s.worker(gctx)
			return nil
		})
	}
	s.logger.Info("import scheduler started", slog.Int("workers", s.cfg.Workers))
}

// Enqueue ставит задачу в очередь без блокировки. Задача, уже стоящая
// в очереди или выполняемая, повторно не ставится.
func (s *Scheduler) Enqueue(jobID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSchedulerClosed
	}
	if _, ok := s.inflight[jobID]; ok {
		return nil
	}

	select {
	case s.queue <- jobID:
		s.inflight[jobID] = struct{}{}
		return nil
	default:
		return fmt.Errorf("%w: job %d", ErrQueueFull, jobID)
	}
}

// Recover ставит в очередь задачи, оставшиеся от прошлого запуска: ожидающие,
// прерванные остановкой и ждавшие повтора. Зависшие в processing сначала
// помечаются failed, чтобы переход оставался допустимым.
func (s *Scheduler) Recover(ctx context.Context) error {
	jobs, err := s.jobs.ListPending(ctx, s.cfg.MaxAttempts)
	if err != nil {
		return fmt.Errorf("list pending import jobs: %w", err)
	}

	for _, job := range jobs {
		if job.Status == domain.ImportStatusProcessing {
			if _, err := s.jobs.Fail(ctx, job.ID, "import interrupted by restart"); err != nil {
				s.logger.Error("failed to reset interrupted import", slog.Int64("job_id", job.ID), slog.Any("error", err))
				continue
			}
			if job.Attempts >= s.cfg.MaxAttempts {
				s.finalize(ctx, job.ID)
				continue
			}
		}
		if err := s.Enqueue(job.ID); err != nil {
			s.logger.Error("failed to recover import", slog.Int64("job_id", job.ID), slog.Any("error", err))
			continue
		}
		s.logger.Info("import recovered", slog.Int64("job_id", job.ID), slog.String("status", string(job.Status)))
	}
	return nil
}

// Shutdown останавливает приём задач и дожидается воркеров
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	cancel, group := s.cancel, s.group
	s.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()

	done := make(chan error, 1)
	go func() {
		err := group.Wait()
		s.timers.Wait()
		done <- err
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case jobID := <-s.queue:
			s.process(ctx, jobID)
		}
	}
}

func (s *Scheduler) process(ctx context.Context, jobID int64) {
	err := s.runner.Run(ctx, jobID)
	if err == nil {
		s.release(jobID)
		return
	}

	logger := s.logger.With(slog.Int64("job_id", jobID))
	if ctx.Err() != nil {
		logger.Warn("import interrupted by shutdown", slog.Any("error", err))
		s.release(jobID)
		return
	}

	if IsPermanent(err) {
		logger.Error("import failed permanently", slog.Any("error", err))
		s.release(jobID)
		s.finalize(ctx, jobID)
		return
	}

	job, getErr := s.jobs.GetByID(ctx, jobID)
	if getErr != nil {
		logger.Error("failed to load import job for retry", slog.Any("error", getErr))
		s.release(jobID)
		return
	}
	if job.Attempts >= s.cfg.MaxAttempts {
		logger.Error("import attempts exhausted", slog.Int("attempts", job.Attempts), slog.Any("error", err))
		s.release(jobID)
		s.finalize(ctx, jobID)
		return
	}

	delay := s.cfg.RetryBackoff * time.Duration(job.Attempts)
	logger.Warn("import attempt failed, retrying",
		slog.Int("attempt", job.Attempts),
		slog.Duration("delay", delay),
		slog.Any("error", err),
	)
	s.retryAfter(ctx, jobID, delay)
}

// retryAfter возвращает задачу в очередь после задержки; задача остаётся в inflight
func (s *Scheduler) retryAfter(ctx context.Context, jobID int64, delay time.Duration) {
	s.timers.Add(1)
	go func() {
		defer s.timers.Done()

		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			s.release(jobID)
			return
		case <-timer.C:
		}

		select {
		case s.queue <- jobID:
		case <-ctx.Done():
			s.release(jobID)
		}
	}()
}

// finalize публикует ImportFailed, если задача осталась в статусе failed
func (s *Scheduler) finalize(ctx context.Context, jobID int64) {
	ctx = context.WithoutCancel(ctx)
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		s.logger.Error("failed to load import job", slog.Int64("job_id", jobID), slog.Any("error", err))
		return
	}
	if job.Status != domain.ImportStatusFailed {
		return
	}
	s.bus.Publish(ctx, events.ImportFailed{Job: *job})
}

func (s *Scheduler) release(jobID int64) {
	s.mu.Lock()
	delete(s.inflight, jobID)
	s.mu.Unlock()
}
