package assignment

import "errors"

var (
	// ErrInvalidID は ID が不正な場合に返却されます。
	ErrInvalidID = errors.New("assignment: invalid id")
	// ErrInvalidMemberID はメンバー ID が空の場合に返却されます。
	ErrInvalidMemberID = errors.New("assignment: invalid member id")
	// ErrInvalidProjectID はプロジェクト ID が空の場合に返却されます。
	ErrInvalidProjectID = errors.New("assignment: invalid project id")
	// ErrInvalidDates は割り当て日が空、または不正な日付を含む場合に返却されます。
	ErrInvalidDates = errors.New("assignment: dates must not be empty")
	// ErrInvalidTimeSlot は時間帯が不正な場合に返却されます。
	ErrInvalidTimeSlot = errors.New("assignment: invalid time slot")
	// ErrAssignmentNotFound は割り当てが存在しない場合に返却されます。
	ErrAssignmentNotFound = errors.New("assignment: not found")
	// ErrVersionConflict は楽観ロックに失敗した場合に返却されます。
	ErrVersionConflict = errors.New("assignment: version conflict")
)
