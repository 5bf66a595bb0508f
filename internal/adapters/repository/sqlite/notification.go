package sqlite

import (
	"context"
	"errors"

	"github.com/ogurasousui/teamplan/internal/core/notification"
	"gorm.io/gorm"
)

// NotificationRepository は gorm と SQLite を利用した通知ログの実装です。
type NotificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository は notifications テーブルをマイグレーションして NotificationRepository を生成します。
func NewNotificationRepository(db *gorm.DB) (*NotificationRepository, error) {
	if err := db.AutoMigrate(&notificationRow{}); err != nil {
		return nil, err
	}
	return &NotificationRepository{db: db}, nil
}

// Append は通知を追記します。
func (r *NotificationRepository) Append(ctx context.Context, n *notification.Notification) (*notification.Notification, error) {
	row := toNotificationRow(n)
	if err := dbFromContext(ctx, r.db).Create(&row).Error; err != nil {
		return nil, err
	}
	return row.toEntity(), nil
}

// List は条件に合う通知を追記順に返します。
func (r *NotificationRepository) List(ctx context.Context, filter notification.Filter) ([]*notification.Notification, error) {
	var rows []notificationRow
	if err := r.filtered(ctx, filter).Order("seq").Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]*notification.Notification, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.toEntity())
	}
	return result, nil
}

// MarkAsRead は通知を既読にします。
func (r *NotificationRepository) MarkAsRead(ctx context.Context, id string) (*notification.Notification, error) {
	db := dbFromContext(ctx, r.db)
	if err := db.Model(&notificationRow{}).Where("id = ?", id).Update("read", true).Error; err != nil {
		return nil, err
	}

	var row notificationRow
	if err := db.First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notification.ErrNotificationNotFound
		}
		return nil, err
	}
	return row.toEntity(), nil
}

// MarkAllAsRead は条件に合う未読通知をすべて既読にし、更新件数を返します。
func (r *NotificationRepository) MarkAllAsRead(ctx context.Context, filter notification.Filter) (int, error) {
	filter.UnreadOnly = true
	res := r.filtered(ctx, filter).Model(&notificationRow{}).Update("read", true)
	if res.Error != nil {
		return 0, res.Error
	}
	return int(res.RowsAffected), nil
}

func (r *NotificationRepository) filtered(ctx context.Context, filter notification.Filter) *gorm.DB {
	q := dbFromContext(ctx, r.db)
	if filter.ForRole != "" {
		q = q.Where("for_role = ?", string(filter.ForRole))
	}
	if filter.MemberID != "" {
		q = q.Where("member_id = ?", filter.MemberID)
	}
	if filter.UnreadOnly {
		q = q.Where("read = ?", false)
	}
	return q
}
