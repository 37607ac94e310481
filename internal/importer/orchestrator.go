package importer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/hr-data-api/internal/domain"
	"github.com/hr-data-api/internal/events"
	"github.com/hr-data-api/internal/metrics"
)

const (
	finalizeTimeout = 10 * time.Second
	maxReasonLength = 1000
	maxLoggedRecord = 512
)

// Ledger - операции журнала задач, которыми владеет оркестратор
type Ledger interface {
	Start(ctx context.Context, id int64, maxAttempts int) (*domain.ImportJob, error)
	SetTotal(ctx context.Context, id int64, total int64) error
	Increment(ctx context.Context, id int64, processed, failed int64) error
	Complete(ctx context.Context, id int64) (*domain.ImportJob, error)
	Fail(ctx context.Context, id int64, message string) (*domain.ImportJob, error)
}

// FileReader читает загруженный файл
type FileReader interface {
	Read(ctx context.Context, path string) ([]byte, error)
}

// RecordApplier применяет одну запись
type RecordApplier interface {
	Apply(ctx context.Context, raw json.RawMessage) *RecordError
}

// Notifier доставляет уведомления владельцу задачи, не блокируя конвейер
type Notifier interface {
	Progress(job domain.ImportJob, percent float64)
	Completed(job domain.ImportJob)
	Failed(job domain.ImportJob)
}

// OrchestratorConfig - параметры одной попытки
type OrchestratorConfig struct {
	MaxAttempts int
	Timeout     time.Duration
}

// Orchestrator выполняет попытку импорта от начала до терминального статуса
type Orchestrator struct {
	ledger   Ledger
	files    FileReader
	engine   RecordApplier
	notifier Notifier
	bus      events.Publisher
	cfg      OrchestratorConfig
	logger   *slog.Logger
}

// NewOrchestrator создаёт оркестратор
func NewOrchestrator(ledger Ledger, files FileReader, engine RecordApplier, notifier Notifier, bus events.Publisher, cfg OrchestratorConfig, logger *slog.Logger) *Orchestrator {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Hour
	}
	return &Orchestrator{
		ledger:   ledger,
		files:    files,
		engine:   engine,
		notifier: notifier,
		bus:      bus,
		cfg:      cfg,
		logger:   logger,
	}
}

// timeoutError - тайм-аут попытки
type timeoutError struct {
	timeout time.Duration
}

func (e *timeoutError) Error() string {
	return fmt.Sprintf("import timed out after %s", e.timeout)
}

func (e *timeoutError) Unwrap() error { return context.DeadlineExceeded }

// Run выполняет одну попытку. Ошибка означает, что задача помечена failed
// (или не могла быть запущена) и решение о повторе остаётся за планировщиком.
func (o *Orchestrator) Run(ctx context.Context, jobID int64) error {
	job, err := o.ledger.Start(ctx, jobID, o.cfg.MaxAttempts)
	if err != nil {
		err = fmt.Errorf("start import job %d: %w", jobID, err)
		if errors.Is(err, domain.ErrInvalidTransition) ||
			errors.Is(err, domain.ErrAttemptsExhausted) ||
			errors.Is(err, domain.ErrImportJobNotFound) {
			return Permanent(err)
		}
		return err
	}

	defer metrics.TrackImportJob()()

	logger := o.logger.With(slog.Int64("job_id", job.ID), slog.Int("attempt", job.Attempts))
	logger.Info("import started", slog.String("file", job.FilePath))

	runCtx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
	defer cancel()

	if err := o.process(runCtx, job, logger); err != nil {
		if ctx.Err() != nil {
			return o.interrupt(job, err, logger)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			err = &timeoutError{timeout: o.cfg.Timeout}
		}
		return o.fail(ctx, job, err, logger)
	}

	completed, err := o.ledger.Complete(runCtx, job.ID)
	if err != nil {
		if ctx.Err() != nil {
			return o.interrupt(job, err, logger)
		}
		return o.fail(ctx, job, fmt.Errorf("complete import job: %w", err), logger)
	}

	metrics.RecordImportJob(string(domain.ImportStatusCompleted))
	logger.Info("import completed",
		slog.Int64("total", completed.TotalRecords),
		slog.Int64("processed", completed.ProcessedRecords),
		slog.Int64("failed", completed.FailedRecords),
	)

	o.notifier.Completed(*completed)
	o.bus.Publish(ctx, events.ImportCompleted{Job: *completed})
	return nil
}

func (o *Orchestrator) process(ctx context.Context, job *domain.ImportJob, logger *slog.Logger) error {
	data, err := o.files.Read(ctx, job.FilePath)
	if err != nil {
		return fmt.Errorf("read import file: %w", err)
	}

	records, err := parseRecords(data)
	if err != nil {
		return Permanent(err)
	}

	total := int64(len(records))
	if err := o.ledger.SetTotal(ctx, job.ID, total); err != nil {
		return fmt.Errorf("set total records: %w", err)
	}
	job.TotalRecords = total

	step := max(1, len(records)/10)
	for i, raw := range records {
		if err := ctx.Err(); err != nil {
			return err
		}

		var failed int64
		if rerr := o.engine.Apply(ctx, raw); rerr != nil {
			rerr.Index = i
			failed = 1
			logger.Warn("import record rejected",
				slog.Int("index", i),
				slog.Any("error", rerr),
				slog.String("record", truncate(string(raw), maxLoggedRecord)),
			)
		}
		metrics.RecordImportRecord(failed == 1)

		if err := o.ledger.Increment(ctx, job.ID, 1, failed); err != nil {
			return fmt.Errorf("update import counters: %w", err)
		}
		job.ProcessedRecords++
		job.FailedRecords += failed

		if i > 0 && i%step == 0 {
			o.notifier.Progress(*job, progressPercent(*job))
		}
	}
	return nil
}

// interrupt оставляет задачу в processing без уведомлений: попытка не закончена,
// и Scheduler.Recover при следующем запуске вернёт её в очередь
func (o *Orchestrator) interrupt(job *domain.ImportJob, cause error, logger *slog.Logger) error {
	logger.Warn("import interrupted, left for recovery",
		slog.Int64("processed", job.ProcessedRecords),
		slog.Any("error", cause),
	)
	return fmt.Errorf("import job %d interrupted: %w", job.ID, cause)
}

// fail фиксирует ошибку в журнале даже после отмены контекста попытки
func (o *Orchestrator) fail(ctx context.Context, job *domain.ImportJob, cause error, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalizeTimeout)
	defer cancel()

	metrics.RecordImportJob(string(domain.ImportStatusFailed))
	logger.Error("import failed", slog.Any("error", cause))

	failed, err := o.ledger.Fail(ctx, job.ID, truncate(strings.TrimSpace(cause.Error()), maxReasonLength))
	if err != nil {
		return errors.Join(cause, fmt.Errorf("mark import job failed: %w", err))
	}

	o.notifier.Failed(*failed)
	return cause
}

// parseRecords проходит массив токенами и собирает сырые записи,
// чтобы общее число было известно до обработки первой
func parseRecords(data []byte) ([]json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	token, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: read start token: %v", ErrInvalidPayload, err)
	}
	if delim, ok := token.(json.Delim); !ok || delim != '[' {
		return nil, ErrInvalidPayload
	}

	var records []json.RawMessage
	for dec.More() {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("%w: decode record %d: %v", ErrInvalidPayload, len(records), err)
		}
		records = append(records, raw)
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: read end token: %v", ErrInvalidPayload, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: unexpected data after array", ErrInvalidPayload)
	}
	return records, nil
}

func progressPercent(job domain.ImportJob) float64 {
	if job.TotalRecords == 0 {
		return 0
	}
	pct := float64(job.ProcessedRecords) / float64(job.TotalRecords) * 100
	return math.Round(pct*100) / 100
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
