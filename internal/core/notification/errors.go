package notification

import "errors"

var (
	// ErrInvalidID は ID が不正な場合に返却されます。
	ErrInvalidID = errors.New("notification: invalid id")
	// ErrInvalidType は通知種別が空の場合に返却されます。
	ErrInvalidType = errors.New("notification: invalid type")
	// ErrNoRecipient は宛先の役割もメンバーも指定されていない場合に返却されます。
	ErrNoRecipient = errors.New("notification: recipient role or member is required")
	// ErrNotificationNotFound は通知が存在しない場合に返却されます。
	ErrNotificationNotFound = errors.New("notification: not found")
)
