// Package notify доставляет уведомления о ходе импорта в базу и по почте.
// Доставка best-effort: ошибки логируются и не возвращаются вызывающему.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hr-data-api/internal/domain"
	"github.com/hr-data-api/internal/metrics"
	"gorm.io/datatypes"
)

const (
	KindImportProgress  = "import_progress"
	KindImportCompleted = "import_completed"
	KindImportFailed    = "import_failed"
	KindAdminSummary    = "import_admin_summary"
)

// Channel - канал доставки
type Channel uint8

const (
	ChannelDatabase Channel = 1 << iota
	ChannelMail
)

// Store сохраняет уведомления в базе
type Store interface {
	Create(ctx context.Context, n *domain.Notification) error
}

// Users находит получателя
type Users interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

// Config - параметры очереди уведомлений
type Config struct {
	Buffer       int
	AdminAddress string
	SendTimeout  time.Duration
}

type message struct {
	kind     string
	userID   int64
	channels Channel
	data     map[string]any
	fallback string
}

// Notifier - очередь уведомлений с одной горутиной доставки
type Notifier struct {
	store  Store
	users  Users
	mailer Mailer
	cfg    Config
	logger *slog.Logger

	queue chan message

	mu     sync.RWMutex
	closed bool
	start  sync.Once
	done   chan struct{}
}

// New создаёт Notifier; Start запускает доставку
func New(store Store, users Users, mailer Mailer, cfg Config, logger *slog.Logger) *Notifier {
	if cfg.Buffer <= 0 {
		cfg.Buffer = 256
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 30 * time.Second
	}
	return &Notifier{
		store:  store,
		users:  users,
		mailer: mailer,
		cfg:    cfg,
		logger: logger,
		queue:  make(chan message, cfg.Buffer),
		done:   make(chan struct{}),
	}
}

// Start запускает горутину доставки
func (n *Notifier) Start() {
	n.start.Do(func() {
		go n.loop()
	})
}

// Close перестаёт принимать сообщения и дожидается доставки очереди
func (n *Notifier) Close() {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.closed = true
	close(n.queue)
	n.mu.Unlock()

	n.Start()
	<-n.done
}

// Progress - промежуточный прогресс, только в базу
func (n *Notifier) Progress(job domain.ImportJob, percent float64) {
	data := jobData(job)
	data["progress"] = percent
	data["message"] = fmt.Sprintf("Import in progress: %.2f%% complete", percent)
	n.enqueue(message{kind: KindImportProgress, userID: job.UserID, channels: ChannelDatabase, data: data})
}

// Completed - импорт завершён, почта и база
func (n *Notifier) Completed(job domain.ImportJob) {
	data := jobData(job)
	data["message"] = "Employee import completed"
	n.enqueue(message{kind: KindImportCompleted, userID: job.UserID, channels: ChannelDatabase | ChannelMail, data: data})
}

// Failed - импорт завершился ошибкой, почта и база
func (n *Notifier) Failed(job domain.ImportJob) {
	data := jobData(job)
	data["message"] = "Employee import failed"
	n.enqueue(message{kind: KindImportFailed, userID: job.UserID, channels: ChannelDatabase | ChannelMail, data: data})
}

// AdminSummary - сводка администратору; без email владельца уходит на адрес администратора
func (n *Notifier) AdminSummary(job domain.ImportJob, stat domain.ImportStatistic) {
	data := jobData(job)
	data["success_rate"] = stat.SuccessRate.StringFixed(2)
	data["duration"] = stat.Duration
	data["records_per_second"] = stat.RecordsPerSecond.StringFixed(2)
	n.enqueue(message{
		kind:     KindAdminSummary,
		userID:   job.UserID,
		channels: ChannelMail,
		data:     data,
		fallback: n.cfg.AdminAddress,
	})
}

func (n *Notifier) enqueue(m message) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if n.closed {
		n.logger.Warn("notification dropped, notifier closed", slog.String("kind", m.kind), slog.Int64("user_id", m.userID))
		return
	}

	select {
	case n.queue <- m:
	default:
		metrics.RecordNotificationDropped(m.kind)
		n.logger.Warn("notification dropped, queue full", slog.String("kind", m.kind), slog.Int64("user_id", m.userID))
	}
}

func (n *Notifier) loop() {
	defer close(n.done)
	for m := range n.queue {
		n.deliver(m)
	}
}

func (n *Notifier) deliver(m message) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.Error("notification delivery panicked", slog.String("kind", m.kind), slog.Any("panic", r))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), n.cfg.SendTimeout)
	defer cancel()

	logger := n.logger.With(slog.String("kind", m.kind), slog.Int64("user_id", m.userID))

	if m.channels&ChannelDatabase != 0 {
		if err := n.saveToDatabase(ctx, m); err != nil {
			logger.Error("failed to store notification", slog.Any("error", err))
		}
	}

	if m.channels&ChannelMail != 0 {
		if err := n.sendMail(ctx, m); err != nil {
			logger.Error("failed to send notification mail", slog.Any("error", err))
		}
	}
}

func (n *Notifier) saveToDatabase(ctx context.Context, m message) error {
	payload, err := json.Marshal(m.data)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return n.store.Create(ctx, &domain.Notification{
		UserID:  m.userID,
		Kind:    m.kind,
		Payload: datatypes.JSON(payload),
	})
}

func (n *Notifier) sendMail(ctx context.Context, m message) error {
	to := m.fallback
	user, err := n.users.GetByID(ctx, m.userID)
	switch {
	case err == nil && user.Email != "":
		to = user.Email
	case err != nil && to == "":
		return fmt.Errorf("resolve recipient: %w", err)
	}
	if to == "" {
		return fmt.Errorf("no recipient for user %d", m.userID)
	}

	mail, err := render(m.kind, to, m.data)
	if err != nil {
		return err
	}
	return n.mailer.Send(ctx, mail)
}

func jobData(job domain.ImportJob) map[string]any {
	errorMessage := ""
	if job.ErrorMessage != nil {
		errorMessage = *job.ErrorMessage
	}
	return map[string]any{
		"import_job_id":     job.ID,
		"job_id":            job.JobToken,
		"status":            job.Status,
		"total_records":     job.TotalRecords,
		"processed_records": job.ProcessedRecords,
		"failed_records":    job.FailedRecords,
		"error_message":     errorMessage,
	}
}
