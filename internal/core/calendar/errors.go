package calendar

import "errors"

var (
	ErrInvalidDate      = errors.New("calendar: invalid date, expected YYYY-MM-DD")
	ErrInvalidRange     = errors.New("calendar: end date before start date")
	ErrRangeTooLong     = errors.New("calendar: date range too long")
	ErrInvalidTime      = errors.New("calendar: invalid time of day, expected HH:MM")
	ErrInvalidTimeRange = errors.New("calendar: time range end must be after start")
	ErrInvalidWeekday   = errors.New("calendar: invalid weekday")
	ErrUnknownRegion    = errors.New("calendar: unknown holiday region")
)
