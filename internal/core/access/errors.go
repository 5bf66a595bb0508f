package access

import "errors"

var (
	// ErrInvalidMemberID はメンバー ID が空の場合に返却されます。
	ErrInvalidMemberID = errors.New("access: invalid member id")
	// ErrForbidden は実効権限が false の場合に Authorize が返却します。
	ErrForbidden = errors.New("access: permission denied")
)
