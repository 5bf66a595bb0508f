package member

import "errors"

var (
	ErrInvalidID             = errors.New("member: invalid id")
	ErrInvalidAgencyID       = errors.New("member: invalid agency id")
	ErrInvalidName           = errors.New("member: invalid name")
	ErrInvalidEmail          = errors.New("member: invalid email")
	ErrInvalidRole           = errors.New("member: invalid role")
	ErrInvalidEmploymentType = errors.New("member: invalid employment type")
	ErrInvalidWorkingDays    = errors.New("member: working days must not be empty")
	ErrInvalidWorkingHours   = errors.New("member: invalid working hours")
	ErrMemberNotFound        = errors.New("member: not found")
	ErrEmailAlreadyExists    = errors.New("member: email already exists")
	ErrVersionConflict       = errors.New("member: version conflict")
	// ErrReferentialIntegrity は不在や割り当てが残っているメンバーを削除しようとした場合に返却されます。
	// 呼び出し側は代わりに無効化してください。
	ErrReferentialIntegrity = errors.New("member: still referenced by absences or assignments")
)
