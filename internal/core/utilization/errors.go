package utilization

import "errors"

var (
	// ErrInvalidMemberID はメンバー ID が空の場合に返却されます。
	ErrInvalidMemberID = errors.New("utilization: invalid member id")
	// ErrInvalidRange は期間が不正な場合に返却されます。
	ErrInvalidRange = errors.New("utilization: invalid range")
	// ErrRangeTooLong は期間が MaxRangeDays を超える場合に返却されます。
	ErrRangeTooLong = errors.New("utilization: range too long")
)
