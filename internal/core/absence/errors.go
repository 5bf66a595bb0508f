package absence

import "errors"

var (
	// ErrInvalidID は ID が不正な場合に返却されます。
	ErrInvalidID = errors.New("absence: invalid id")
	// ErrInvalidMemberID はメンバー ID が空の場合に返却されます。
	ErrInvalidMemberID = errors.New("absence: invalid member id")
	// ErrInvalidType は不在種別が不正な場合に返却されます。
	ErrInvalidType = errors.New("absence: invalid type")
	// ErrInvalidRange は開始日が終了日より後の場合に返却されます。
	ErrInvalidRange = errors.New("absence: invalid date range")
	// ErrRangeTooLong は期間が calendar.MaxRangeDays を超える場合に返却されます。
	ErrRangeTooLong = errors.New("absence: date range too long")
	// ErrInvalidPartialHours は部分休の時間帯が不正な場合に返却されます。
	ErrInvalidPartialHours = errors.New("absence: invalid partial hours")
	// ErrAbsenceNotFound は不在が存在しない場合に返却されます。
	ErrAbsenceNotFound = errors.New("absence: not found")
	// ErrVersionConflict は楽観ロックに失敗した場合に返却されます。
	ErrVersionConflict = errors.New("absence: version conflict")
)
