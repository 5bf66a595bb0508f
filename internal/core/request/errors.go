package request

import "errors"

var (
	// ErrInvalidID は ID が不正な場合に返却されます。
	ErrInvalidID = errors.New("request: invalid id")
	// ErrInvalidMemberID はメンバー ID が空の場合に返却されます。
	ErrInvalidMemberID = errors.New("request: invalid member id")
	// ErrInvalidType は不在種別が不正な場合に返却されます。
	ErrInvalidType = errors.New("request: invalid absence type")
	// ErrInvalidRange は開始日が終了日より後の場合に返却されます。
	ErrInvalidRange = errors.New("request: invalid date range")
	// ErrRangeTooLong は期間が calendar.MaxRangeDays を超える場合に返却されます。
	ErrRangeTooLong = errors.New("request: date range too long")
	// ErrInvalidPartialHours は部分休の時間帯が不正な場合に返却されます。
	ErrInvalidPartialHours = errors.New("request: invalid partial hours")
	// ErrInvalidReviewer は審査者 ID が空の場合に返却されます。
	ErrInvalidReviewer = errors.New("request: invalid reviewer id")
	// ErrInvalidStatus は状態が不明な場合に返却されます。
	ErrInvalidStatus = errors.New("request: invalid status")
	// ErrRequestNotFound は申請が存在しない場合に返却されます。
	ErrRequestNotFound = errors.New("request: not found")
	// ErrInvalidState は現在の状態では許可されない操作の場合に返却されます。
	ErrInvalidState = errors.New("request: invalid state")
	// ErrVersionConflict は楽観ロックに失敗した場合に返却されます。
	ErrVersionConflict = errors.New("request: version conflict")
)
