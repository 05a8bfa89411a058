package sqlstore

import (
	"context"
	"time"

	"github.com/condo-notify/internal/domain"
	"gorm.io/gorm"
)

type NotificationRepo struct {
	db *gorm.DB
}

func NewNotificationRepo(db *gorm.DB) *NotificationRepo {
	return &NotificationRepo{db: db}
}

func (r *NotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *NotificationRepo) Get(ctx context.Context, notificationID string) (*domain.Notification, error) {
	var n domain.Notification
	if err := r.db.WithContext(ctx).First(&n, "notification_id = ?", notificationID).Error; err != nil {
		return nil, notFound(err, "notification "+notificationID)
	}
	return &n, nil
}

func (r *NotificationRepo) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Notification, error) {
	notifications := []domain.Notification{}
	err := r.newestFirst(ctx).
		Where("user_id = ?", userID).
		Limit(limit).
		Find(&notifications).Error
	return notifications, err
}

func (r *NotificationRepo) ListUnread(ctx context.Context, userID string) ([]domain.Notification, error) {
	notifications := []domain.Notification{}
	err := r.newestFirst(ctx).
		Where("user_id = ? AND read_at IS NULL", userID).
		Find(&notifications).Error
	return notifications, err
}

func (r *NotificationRepo) CountUnread(ctx context.Context, userID string) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Count(&count).Error
	return int(count), err
}

// MarkRead reports whether this call set read_at. A row that was already read
// is left alone.
func (r *NotificationRepo) MarkRead(ctx context.Context, notificationID string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.Notification{}).
		Where("notification_id = ? AND read_at IS NULL", notificationID).
		Update("read_at", at)
	return res.RowsAffected == 1, res.Error
}

func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID string, at time.Time) (int, error) {
	res := r.db.WithContext(ctx).Model(&domain.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Update("read_at", at)
	return int(res.RowsAffected), res.Error
}

func (r *NotificationRepo) newestFirst(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Order("created_at DESC").Order("notification_id DESC")
}
