package calendar

import (
	"fmt"
	"strings"
	"time"
)

// TimeOfDay は 0 時からの経過分で表すタイムゾーンなしの時刻です。
type TimeOfDay int

// ParseTimeOfDay は HH:MM 形式の文字列を解析します。
func ParseTimeOfDay(raw string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, raw)
	}
	return TimeOfDay(t.Hour()*60 + t.Minute()), nil
}

// String は HH:MM 形式の文字列を返します。
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// TimeRange は 1 日の中の時間帯です。
type TimeRange struct {
	Start TimeOfDay
	End   TimeOfDay
}

// DefaultWorkingHours は 09:00-18:00 です。
var DefaultWorkingHours = TimeRange{Start: 9 * 60, End: 18 * 60}

// ParseTimeRange は開始・終了の文字列から TimeRange を生成します。
func ParseTimeRange(start, end string) (TimeRange, error) {
	s, err := ParseTimeOfDay(start)
	if err != nil {
		return TimeRange{}, err
	}
	e, err := ParseTimeOfDay(end)
	if err != nil {
		return TimeRange{}, err
	}
	r := TimeRange{Start: s, End: e}
	if err := r.Validate(); err != nil {
		return TimeRange{}, err
	}
	return r, nil
}

// Validate は終了が開始より後であることを検証します。
func (r TimeRange) Validate() error {
	if r.Start < 0 || r.End > 24*60 || r.End <= r.Start {
		return ErrInvalidTimeRange
	}
	return nil
}

// IsZero は未設定かどうかを返します。
func (r TimeRange) IsZero() bool {
	return r.Start == 0 && r.End == 0
}

// Minutes は時間帯の長さを分で返します。
func (r TimeRange) Minutes() int {
	return int(r.End - r.Start)
}

// String は "HH:MM-HH:MM" 形式を返します。
func (r TimeRange) String() string {
	return r.Start.String() + "-" + r.End.String()
}
