package importer

import (
	"context"
	"fmt"

	"github.com/hr-data-api/internal/domain"
	"github.com/hr-data-api/internal/events"
)

// Enqueuer ставит задачу в очередь
type Enqueuer interface {
	Enqueue(jobID int64) error
}

// SalaryRecorder пишет аудит зарплат
type SalaryRecorder interface {
	Record(ctx context.Context, entry *domain.SalaryChangeLog) error
}

// StatisticStore сохраняет сводки
type StatisticStore interface {
	Create(ctx context.Context, stat *domain.ImportStatistic) error
}

// AdminReporter отправляет сводку администратору
type AdminReporter interface {
	AdminSummary(job domain.ImportJob, stat domain.ImportStatistic)
}

// Listeners - зависимости подписчиков шины
type Listeners struct {
	Scheduler  Enqueuer
	SalaryLogs SalaryRecorder
	Statistics StatisticStore
	Reporter   AdminReporter
}

// Register подписывает обработчики конвейера импорта
func (l Listeners) Register(bus *events.Bus) {
	events.Subscribe(bus, "schedule-import", l.scheduleImport)
	events.Subscribe(bus, "salary-audit", l.auditSalary)
	events.Subscribe(bus, "import-statistics", l.recordCompleted, events.Async())
	events.Subscribe(bus, "import-statistics", l.recordFailed, events.Async())
	events.Subscribe(bus, "admin-report", l.reportToAdmin, events.Async())
}

func (l Listeners) scheduleImport(_ context.Context, e events.ImportRequested) error {
	if err := l.Scheduler.Enqueue(e.Job.ID); err != nil {
		return fmt.Errorf("schedule import job %d: %w", e.Job.ID, err)
	}
	return nil
}

// auditSalary выполняется синхронно в транзакции записи
func (l Listeners) auditSalary(ctx context.Context, e events.SalaryUpdated) error {
	entry := &domain.SalaryChangeLog{
		EmployeeID: e.Employee.ID,
		NewSalary:  e.NewSalary,
		ChangedBy:  e.ChangedBy,
	}
	entry.OldSalary.Decimal = e.OldSalary
	entry.OldSalary.Valid = true
	if e.Reason != "" {
		reason := e.Reason
		entry.ChangeReason = &reason
	}
	if err := l.SalaryLogs.Record(ctx, entry); err != nil {
		return fmt.Errorf("record salary change for employee %d: %w", e.Employee.ID, err)
	}
	return nil
}

func (l Listeners) recordCompleted(ctx context.Context, e events.ImportCompleted) error {
	return l.recordStatistic(ctx, e.Job)
}

func (l Listeners) recordFailed(ctx context.Context, e events.ImportFailed) error {
	return l.recordStatistic(ctx, e.Job)
}

func (l Listeners) recordStatistic(ctx context.Context, job domain.ImportJob) error {
	stat := Summarize(job)
	if err := l.Statistics.Create(ctx, &stat); err != nil {
		return fmt.Errorf("store statistics for import %d: %w", job.ID, err)
	}
	return nil
}

func (l Listeners) reportToAdmin(_ context.Context, e events.ImportCompleted) error {
	if !NeedsAdminReport(e.Job) {
		return nil
	}
	l.Reporter.AdminSummary(e.Job, Summarize(e.Job))
	return nil
}
