package calendar

import (
	"fmt"
	"strings"
	"time"
)

// WeekdaySet は曜日の集合です。ビット i が time.Weekday(i) に対応します。
type WeekdaySet uint8

// DefaultWorkingDays は月曜から金曜です。
var DefaultWorkingDays = NewWeekdaySet(time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday)

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

// NewWeekdaySet は指定した曜日からなる集合を生成します。
func NewWeekdaySet(days ...time.Weekday) WeekdaySet {
	var s WeekdaySet
	for _, d := range days {
		s = s.Add(d)
	}
	return s
}

// ParseWeekdaySet は "mon" や "monday" のような曜日名から集合を生成します。
func ParseWeekdaySet(names []string) (WeekdaySet, error) {
	var s WeekdaySet
	for _, name := range names {
		d, ok := weekdayNames[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrInvalidWeekday, name)
		}
		s = s.Add(d)
	}
	return s, nil
}

// Add は曜日を追加した集合を返します。
func (s WeekdaySet) Add(d time.Weekday) WeekdaySet {
	if d < time.Sunday || d > time.Saturday {
		return s
	}
	return s | 1<<uint(d)
}

// Has は曜日が集合に含まれるかどうかを返します。
func (s WeekdaySet) Has(d time.Weekday) bool {
	return s&(1<<uint(d)) != 0
}

// IsEmpty は空集合かどうかを返します。
func (s WeekdaySet) IsEmpty() bool {
	return s&0x7f == 0
}

// Days は含まれる曜日を日曜始まりで返します。
func (s WeekdaySet) Days() []time.Weekday {
	days := make([]time.Weekday, 0, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		if s.Has(d) {
			days = append(days, d)
		}
	}
	return days
}

// Strings は小文字 3 文字の曜日名に変換します。
func (s WeekdaySet) Strings() []string {
	days := s.Days()
	out := make([]string, 0, len(days))
	for _, d := range days {
		out = append(out, strings.ToLower(d.String()[:3]))
	}
	return out
}
