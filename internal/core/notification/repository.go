package notification

import "context"

// Repository は通知ログの永続化の抽象です。List は作成順に返します。
type Repository interface {
	Append(ctx context.Context, n *Notification) (*Notification, error)
	List(ctx context.Context, filter Filter) ([]*Notification, error)
	MarkAsRead(ctx context.Context, id string) (*Notification, error)
	MarkAllAsRead(ctx context.Context, filter Filter) (int, error)
}
