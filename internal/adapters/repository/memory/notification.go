package memory

import (
	"context"

	"github.com/ogurasousui/teamplan/internal/core/notification"
)

// NotificationRepository はメモリ上の通知ログの実装です。
type NotificationRepository struct {
	store *Store
}

// NewNotificationRepository は NotificationRepository を生成します。
func NewNotificationRepository(store *Store) *NotificationRepository {
	return &NotificationRepository{store: store}
}

// Append は通知を末尾に追加します。
func (r *NotificationRepository) Append(ctx context.Context, n *notification.Notification) (*notification.Notification, error) {
	err := r.store.write(ctx, func() error {
		r.store.notifications = append(r.store.notifications, n.Clone())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return n.Clone(), nil
}

// List は条件に合う通知を追加順に返します。
func (r *NotificationRepository) List(ctx context.Context, filter notification.Filter) ([]*notification.Notification, error) {
	var result []*notification.Notification
	r.store.read(ctx, func() {
		for _, n := range r.store.notifications {
			if filter.Matches(n) {
				result = append(result, n.Clone())
			}
		}
	})
	return result, nil
}

// MarkAsRead は通知を既読にします。
func (r *NotificationRepository) MarkAsRead(ctx context.Context, id string) (*notification.Notification, error) {
	var marked *notification.Notification
	err := r.store.write(ctx, func() error {
		for i, n := range r.store.notifications {
			if n.ID != id {
				continue
			}
			next := n.Clone()
			next.Read = true
			r.store.notifications[i] = next
			marked = next.Clone()
			return nil
		}
		return notification.ErrNotificationNotFound
	})
	return marked, err
}

// MarkAllAsRead は条件に合う通知をすべて既読にし、更新件数を返します。
func (r *NotificationRepository) MarkAllAsRead(ctx context.Context, filter notification.Filter) (int, error) {
	count := 0
	err := r.store.write(ctx, func() error {
		for i, n := range r.store.notifications {
			if n.Read || !filter.Matches(n) {
				continue
			}
			next := n.Clone()
			next.Read = true
			r.store.notifications[i] = next
			count++
		}
		return nil
	})
	return count, err
}
