package agency

import "errors"

var (
	// ErrSettingsNotFound はエージェンシー設定が保存されていない場合に返却されます。
	ErrSettingsNotFound = errors.New("agency: settings not found")
	// ErrInvalidAgencyID は ID が不正な場合に返却されます。
	ErrInvalidAgencyID = errors.New("agency: invalid agency id")
	// ErrInvalidWorkingDays は勤務曜日が空の場合に返却されます。
	ErrInvalidWorkingDays = errors.New("agency: working days must not be empty")
	// ErrInvalidWorkingHours は勤務時間帯が不正な場合に返却されます。
	ErrInvalidWorkingHours = errors.New("agency: invalid working hours")
	// ErrInvalidHolidayRegion は祝日地域コードが不明な場合に返却されます。
	ErrInvalidHolidayRegion = errors.New("agency: invalid holiday region")
	// ErrVersionConflict は楽観ロックに失敗した場合に返却されます。
	ErrVersionConflict = errors.New("agency: version conflict")
)
