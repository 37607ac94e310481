package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hr-data-api/internal/domain"
	"github.com/hr-data-api/internal/events"
	"github.com/hr-data-api/internal/repository"
	"github.com/hr-data-api/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type memFiles struct {
	mu    sync.Mutex
	files map[string][]byte
	err   error
}

func (f *memFiles) Read(_ context.Context, path string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	data, ok := f.files[path]
	if !ok {
		return nil, fmt.Errorf("file %s not found", path)
	}
	return data, nil
}

type progressCall struct {
	processed int64
	percent   float64
}

type recordingNotifier struct {
	mu        sync.Mutex
	progress  []progressCall
	completed []domain.ImportJob
	failed    []domain.ImportJob
}

func (n *recordingNotifier) Progress(job domain.ImportJob, percent float64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.progress = append(n.progress, progressCall{processed: job.ProcessedRecords, percent: percent})
}

func (n *recordingNotifier) Completed(job domain.ImportJob) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.completed = append(n.completed, job)
}

func (n *recordingNotifier) Failed(job domain.ImportJob) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failed = append(n.failed, job)
}

type recordingReporter struct {
	mu   sync.Mutex
	jobs []domain.ImportJob
}

func (r *recordingReporter) AdminSummary(job domain.ImportJob, _ domain.ImportStatistic) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = append(r.jobs, job)
}

type noopEnqueuer struct{}

func (noopEnqueuer) Enqueue(int64) error { return nil }

type harness struct {
	db         *gorm.DB
	jobs       repository.ImportJobRepository
	employees  repository.EmployeeRepository
	salaryLogs repository.SalaryLogRepository
	stats      repository.ImportStatisticRepository
	bus        *events.Bus
	files      *memFiles
	notifier   *recordingNotifier
	reporter   *recordingReporter
	orch       *Orchestrator
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.NewDB(t)
	h := &harness{
		db:         db,
		jobs:       repository.NewImportJobRepository(db),
		employees:  repository.NewEmployeeRepository(db),
		salaryLogs: repository.NewSalaryLogRepository(db),
		stats:      repository.NewImportStatisticRepository(db),
		bus:        events.NewBus(discardLogger()),
		files:      &memFiles{files: map[string][]byte{}},
		notifier:   &recordingNotifier{},
		reporter:   &recordingReporter{},
	}

	Listeners{
		Scheduler:  noopEnqueuer{},
		SalaryLogs: h.salaryLogs,
		Statistics: h.stats,
		Reporter:   h.reporter,
	}.Register(h.bus)

	engine := NewEngine(h.employees, repository.NewTransactor(db), h.bus, nil)
	h.orch = NewOrchestrator(h.jobs, h.files, engine, h.notifier, h.bus,
		OrchestratorConfig{MaxAttempts: 3, Timeout: time.Minute}, discardLogger())
	return h
}

func (h *harness) submit(t *testing.T, payload string) *domain.ImportJob {
	t.Helper()
	path := "imports/" + uuid.NewString() + ".json"
	h.files.mu.Lock()
	h.files.files[path] = []byte(payload)
	h.files.mu.Unlock()

	job := &domain.ImportJob{JobToken: uuid.NewString(), UserID: 1, FilePath: path}
	require.NoError(t, h.jobs.Create(context.Background(), job))
	return job
}

func (h *harness) run(t *testing.T, payload string) *domain.ImportJob {
	t.Helper()
	job := h.submit(t, payload)
	require.NoError(t, h.orch.Run(context.Background(), job.ID))
	h.bus.Wait()

	reloaded, err := h.jobs.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	return reloaded
}

func records(n int, salary int) string {
	items := make([]string, 0, n)
	for i := range n {
		items = append(items, fmt.Sprintf(`{"name":"Emp %d","email":"emp%d@example.com","salary":%d,"team_id":1,"organization_id":1,"start_date":"2024-01-15"}`, i, i, salary))
	}
	return "[" + strings.Join(items, ",") + "]"
}

func TestRun_AllRecordsValid(t *testing.T) {
	h := newHarness(t)

	job := h.run(t, records(25, 1000))

	assert.Equal(t, domain.ImportStatusCompleted, job.Status)
	assert.Equal(t, int64(25), job.TotalRecords)
	assert.Equal(t, int64(25), job.ProcessedRecords)
	assert.Equal(t, int64(0), job.FailedRecords)
	assert.Nil(t, job.ErrorMessage)
	require.Len(t, h.notifier.completed, 1)
	assert.Empty(t, h.notifier.failed)
}

func TestRun_MalformedRecordsAreCountedNotFatal(t *testing.T) {
	h := newHarness(t)

	payload := `[
		{"email":"a@x.com","name":"A","salary":50000},
		{"name":"B"},
		{"email":"c@x.com"},
		{"email":"d@x.com","name":"D","salary":-5},
		"not an object",
		{"email":"e@x.com","name":"E","salary":"abc"},
		{"email":"f@x.com","name":"F"}
	]`
	job := h.run(t, payload)

	assert.Equal(t, domain.ImportStatusCompleted, job.Status)
	assert.Equal(t, int64(7), job.TotalRecords)
	assert.Equal(t, int64(7), job.ProcessedRecords)
	assert.Equal(t, int64(6), job.FailedRecords)

	_, err := h.employees.FindByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	_, err = h.employees.FindByEmail(context.Background(), "f@x.com")
	assert.ErrorIs(t, err, domain.ErrEmployeeNotFound)
}

func TestRun_ScenarioImportThenSalaryChange(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first := h.run(t, `[{"email":"a@x.com","name":"A","salary":50000}, {"name":"B"}]`)
	assert.Equal(t, domain.ImportStatusCompleted, first.Status)
	assert.Equal(t, int64(2), first.TotalRecords)
	assert.Equal(t, int64(2), first.ProcessedRecords)
	assert.Equal(t, int64(1), first.FailedRecords)

	emp, err := h.employees.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	logs, err := h.salaryLogs.ListByEmployee(ctx, emp.ID)
	require.NoError(t, err)
	assert.Empty(t, logs, "a new employee produces no salary log")

	h.run(t, `[{"email":"a@x.com","name":"A","salary":60000}]`)

	emp, err = h.employees.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(60000).Equal(emp.Salary))

	logs, err = h.salaryLogs.ListByEmployee(ctx, emp.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.True(t, logs[0].OldSalary.Valid)
	assert.True(t, decimal.NewFromInt(50000).Equal(logs[0].OldSalary.Decimal))
	assert.True(t, decimal.NewFromInt(60000).Equal(logs[0].NewSalary))
	assert.Equal(t, ImportActor, logs[0].ChangedBy)
	require.NotNil(t, logs[0].ChangeReason)
	assert.Equal(t, ImportReason, *logs[0].ChangeReason)
}

func TestRun_ReimportIsIdempotent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	payload := records(5, 2000)

	h.run(t, payload)
	h.run(t, payload)

	_, total, err := h.employees.List(ctx, repository.EmployeeFilter{}, repository.Pagination{PerPage: 100})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)

	emp, err := h.employees.FindByEmail(ctx, "emp3@example.com")
	require.NoError(t, err)
	logs, err := h.salaryLogs.ListByEmployee(ctx, emp.ID)
	require.NoError(t, err)
	assert.Empty(t, logs, "unchanged salary produces no salary log")
}

func TestRun_PartialRecordKeepsUnspecifiedFields(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.run(t, `[{"email":"p@x.com","name":"P","salary":100,"position":"Engineer","team_id":3}]`)
	h.run(t, `[{"email":"p@x.com","name":"P2","team_id":null}]`)

	emp, err := h.employees.FindByEmail(ctx, "p@x.com")
	require.NoError(t, err)
	assert.Equal(t, "P2", emp.Name)
	assert.True(t, decimal.NewFromInt(100).Equal(emp.Salary))
	require.NotNil(t, emp.Position)
	assert.Equal(t, "Engineer", *emp.Position)
	assert.Nil(t, emp.TeamID)
}

func TestRun_ProgressAtDecileBoundaries(t *testing.T) {
	h := newHarness(t)

	h.run(t, records(100, 1000))

	require.Len(t, h.notifier.progress, 9)
	for i, call := range h.notifier.progress {
		index := int64((i + 1) * 10)
		assert.Equal(t, index+1, call.processed)
		assert.InDelta(t, float64(index+1), call.percent, 0.001)
	}
}

func TestRun_ProgressWithFewRecords(t *testing.T) {
	h := newHarness(t)

	h.run(t, records(3, 1000))

	// шаг не меньше одного: индексы 1 и 2
	assert.Len(t, h.notifier.progress, 2)
}

func TestRun_EmptyArrayCompletes(t *testing.T) {
	h := newHarness(t)

	job := h.run(t, `[]`)

	assert.Equal(t, domain.ImportStatusCompleted, job.Status)
	assert.Zero(t, job.TotalRecords)
	assert.Empty(t, h.notifier.progress)

	stats, err := h.stats.GetByImportID(context.Background(), job.ID)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.True(t, stats[0].SuccessRate.IsZero())
}

func TestRun_NonArrayPayloadIsPermanentFailure(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	for _, payload := range []string{`{"email":"a@x.com"}`, `null`, `not json`, `[{"email":`, `[{"email":"a@x.com"}] []`} {
		job := h.submit(t, payload)
		err := h.orch.Run(ctx, job.ID)
		require.Error(t, err, payload)
		assert.True(t, IsPermanent(err), payload)
		assert.ErrorIs(t, err, ErrInvalidPayload)

		failed, err := h.jobs.GetByID(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.ImportStatusFailed, failed.Status)
		require.NotNil(t, failed.ErrorMessage)
		assert.True(t, strings.HasPrefix(*failed.ErrorMessage, ErrInvalidPayload.Error()))
	}
	assert.Len(t, h.notifier.failed, 5)
}

func TestRun_StorageErrorIsRetryable(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	job := h.submit(t, `[]`)
	h.files.err = errors.New("storage unavailable")

	err := h.orch.Run(ctx, job.ID)
	require.Error(t, err)
	assert.False(t, IsPermanent(err))

	failed, err := h.jobs.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ImportStatusFailed, failed.Status)
	assert.Equal(t, "read import file: storage unavailable", *failed.ErrorMessage)

	h.files.err = nil
	require.NoError(t, h.orch.Run(ctx, job.ID))

	done, err := h.jobs.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ImportStatusCompleted, done.Status)
	assert.Equal(t, 2, done.Attempts)
	assert.Nil(t, done.ErrorMessage)
}

func TestRun_CompletedJobIsNotRestarted(t *testing.T) {
	h := newHarness(t)
	job := h.run(t, `[]`)

	err := h.orch.Run(context.Background(), job.ID)
	require.Error(t, err)
	assert.True(t, IsPermanent(err))
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

type blockingApplier struct{}

func (blockingApplier) Apply(ctx context.Context, _ json.RawMessage) *RecordError {
	<-ctx.Done()
	return &RecordError{Err: ctx.Err()}
}

func TestRun_TimeoutFailsJob(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	orch := NewOrchestrator(h.jobs, h.files, blockingApplier{}, h.notifier, h.bus,
		OrchestratorConfig{MaxAttempts: 3, Timeout: 50 * time.Millisecond}, discardLogger())

	job := h.submit(t, records(2, 1))
	err := orch.Run(ctx, job.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	failed, err := h.jobs.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ImportStatusFailed, failed.Status)
	assert.Equal(t, "import timed out after 50ms", *failed.ErrorMessage)
}

func TestRun_CancelledRunStaysProcessing(t *testing.T) {
	h := newHarness(t)
	orch := NewOrchestrator(h.jobs, h.files, blockingApplier{}, h.notifier, h.bus,
		OrchestratorConfig{MaxAttempts: 3, Timeout: time.Minute}, discardLogger())

	job := h.submit(t, records(2, 1))
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	err := orch.Run(ctx, job.ID)
	require.Error(t, err)
	assert.False(t, IsPermanent(err))

	left, err := h.jobs.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ImportStatusProcessing, left.Status)
	assert.Equal(t, 1, left.Attempts)
	assert.Nil(t, left.ErrorMessage)
	assert.Empty(t, h.notifier.failed, "owner is not told about an unfinished attempt")
}

type failingRecorder struct{}

func (failingRecorder) Record(context.Context, *domain.SalaryChangeLog) error {
	return errors.New("audit store unavailable")
}

func TestApply_SalaryAuditFailureKeepsRecord(t *testing.T) {
	ctx := context.Background()

	t.Run("recorder error", func(t *testing.T) {
		h := newHarness(t)
		bus := events.NewBus(discardLogger())
		Listeners{Scheduler: noopEnqueuer{}, SalaryLogs: failingRecorder{}, Statistics: h.stats, Reporter: h.reporter}.Register(bus)
		engine := NewEngine(h.employees, repository.NewTransactor(h.db), bus, nil)

		require.Nil(t, engine.Apply(ctx, json.RawMessage(`{"email":"a@x.com","name":"A","salary":50000}`)))
		require.Nil(t, engine.Apply(ctx, json.RawMessage(`{"email":"a@x.com","name":"A","salary":60000}`)))

		emp, err := h.employees.FindByEmail(ctx, "a@x.com")
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(60000).Equal(emp.Salary))
	})

	t.Run("audit table missing", func(t *testing.T) {
		h := newHarness(t)
		h.run(t, `[{"email":"a@x.com","name":"A","salary":50000}]`)
		require.NoError(t, h.db.Migrator().DropTable(&domain.SalaryChangeLog{}))

		job := h.run(t, `[{"email":"a@x.com","name":"A","salary":60000}]`)
		assert.Equal(t, domain.ImportStatusCompleted, job.Status)
		assert.Zero(t, job.FailedRecords)

		emp, err := h.employees.FindByEmail(ctx, "a@x.com")
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(60000).Equal(emp.Salary))
	})
}

func TestRun_StatisticsAndAdminReport(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	small := h.run(t, records(3, 1))
	stats, err := h.stats.GetByImportID(ctx, small.ID)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, int64(3), stats[0].ProcessedRecords)
	assert.Equal(t, "100.00", stats[0].SuccessRate.StringFixed(2))
	assert.Empty(t, h.reporter.jobs, "small healthy import does not email the admin")

	bad := make([]string, 0, 11)
	for range 11 {
		bad = append(bad, `{"name":"no email"}`)
	}
	noisy := h.run(t, "["+strings.Join(bad, ",")+"]")
	assert.Equal(t, int64(11), noisy.FailedRecords)
	require.Len(t, h.reporter.jobs, 1)
	assert.Equal(t, noisy.ID, h.reporter.jobs[0].ID)
}

func TestSummarize(t *testing.T) {
	created := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	job := domain.ImportJob{
		ID:               3,
		UserID:           9,
		TotalRecords:     100,
		ProcessedRecords: 100,
		FailedRecords:    5,
		CreatedAt:        created,
		UpdatedAt:        created.Add(50*time.Second + 900*time.Millisecond),
	}

	stat := Summarize(job)

	assert.Equal(t, int64(50), stat.Duration)
	assert.Equal(t, "95.00", stat.SuccessRate.StringFixed(2))
	assert.Equal(t, "2.00", stat.RecordsPerSecond.StringFixed(2))
	assert.Equal(t, int64(3), stat.ImportID)
	assert.Equal(t, int64(9), stat.UserID)
	assert.Equal(t, job.UpdatedAt, stat.CompletedAt)
}

func TestSummarize_ZeroGuards(t *testing.T) {
	now := time.Now()
	stat := Summarize(domain.ImportJob{CreatedAt: now, UpdatedAt: now})

	assert.True(t, stat.SuccessRate.IsZero())
	assert.True(t, stat.RecordsPerSecond.IsZero())
	assert.Zero(t, stat.Duration)
}

func TestSummarize_Rounding(t *testing.T) {
	created := time.Now()
	stat := Summarize(domain.ImportJob{
		TotalRecords:     3,
		ProcessedRecords: 3,
		FailedRecords:    1,
		CreatedAt:        created,
		UpdatedAt:        created.Add(7 * time.Second),
	})

	assert.Equal(t, "66.67", stat.SuccessRate.StringFixed(2))
	assert.Equal(t, "0.43", stat.RecordsPerSecond.StringFixed(2))
}

func TestNeedsAdminReport(t *testing.T) {
	assert.False(t, NeedsAdminReport(domain.ImportJob{TotalRecords: 1000, FailedRecords: 10}))
	assert.True(t, NeedsAdminReport(domain.ImportJob{TotalRecords: 1001}))
	assert.True(t, NeedsAdminReport(domain.ImportJob{TotalRecords: 20, FailedRecords: 11}))
}
