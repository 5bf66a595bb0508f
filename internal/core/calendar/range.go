package calendar

import "fmt"

// MaxRangeDays は日単位で展開する処理が 1 回に扱う最大日数です。
const MaxRangeDays = 366

const secondsPerDay = 24 * 60 * 60

// Range は開始日と終了日を含む期間です。
type Range struct {
	Start Date
	End   Date
}

// NewRange は期間を生成し、開始日と終了日の順序を検証します。
func NewRange(start, end Date) (Range, error) {
	r := Range{Start: start, End: end}
	if err := r.Validate(); err != nil {
		return Range{}, err
	}
	return r, nil
}

// Validate は期間が正しいかを検証します。
func (r Range) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return ErrInvalidDate
	}
	if r.End.Before(r.Start) {
		return ErrInvalidRange
	}
	return nil
}

// ValidateLength は期間が maxDays 日以内かを検証します。順序の検証も行います。
func (r Range) ValidateLength(maxDays int) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if n := r.Len(); n > maxDays {
		return fmt.Errorf("%w: %d days exceeds %d", ErrRangeTooLong, n, maxDays)
	}
	return nil
}

// Contains は d が期間内かどうかを返します。
func (r Range) Contains(d Date) bool {
	return !d.Before(r.Start) && !d.After(r.End)
}

// Overlaps は 2 つの期間が 1 日以上重なるかどうかを返します。
func (r Range) Overlaps(o Range) bool {
	return !r.End.Before(o.Start) && !o.End.Before(r.Start)
}

// Days は期間内のすべての日付を昇順で返します。
func (r Range) Days() []Date {
	if r.End.Before(r.Start) {
		return nil
	}
	days := make([]Date, 0, 31)
	for d := r.Start; !d.After(r.End); d = d.AddDays(1) {
		days = append(days, d)
	}
	return days
}

// Len は期間の日数を返します。
func (r Range) Len() int {
	if r.End.Before(r.Start) {
		return 0
	}
	// time.Duration は約 292 年で飽和するため秒単位で計算する。
	return int((r.End.Time().Unix()-r.Start.Time().Unix())/secondsPerDay) + 1
}
