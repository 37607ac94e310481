package repository

import (
	"context"

	"github.com/hr-data-api/internal/domain"
	"gorm.io/gorm"
)

// NotificationRepository определяет интерфейс для уведомлений в базе
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	ListByUser(ctx context.Context, userID int64) ([]domain.Notification, error)
}

type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository создаёт новый экземпляр репозитория
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	return conn(ctx, r.db).Omit("User").Create(n).Error
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Notification, error) {
	var items []domain.Notification
	err := conn(ctx, r.db).
		Where("user_id = ?", userID).
		Order("id DESC").
		Find(&items).Error
	return items, err
}
