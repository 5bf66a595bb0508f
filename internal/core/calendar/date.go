package calendar

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// DateLayout は日付キーの書式です。ゼロ埋めされているため文字列順と日付順が一致します。
const DateLayout = "2006-01-02"

// Date はタイムゾーンを持たない暦日を表す値型です。
// ゼロ値は未設定を意味します。
type Date struct {
	year  int
	month time.Month
	day   int
}

// New は年月日から Date を生成します。範囲外の値は time.Date と同様に正規化されます。
func New(year int, month time.Month, day int) Date {
	return FromTime(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// FromTime は t の暦日部分から Date を生成します。
func FromTime(t time.Time) Date {
	y, m, d := t.Date()
	return Date{year: y, month: m, day: d}
}

// Parse は YYYY-MM-DD 形式の文字列を Date に変換します。
func Parse(raw string) (Date, error) {
	trimmed := strings.TrimSpace(raw)
	if len(trimmed) != len(DateLayout) {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}
	t, err := time.ParseInLocation(DateLayout, trimmed, time.UTC)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}
	return FromTime(t), nil
}

// MustParse は Parse に失敗すると panic します。テストと定数定義向けです。
func MustParse(raw string) Date {
	d, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return d
}

// ParseAll は複数の日付キーをまとめて変換します。
func ParseAll(raws []string) ([]Date, error) {
	dates := make([]Date, 0, len(raws))
	for _, raw := range raws {
		d, err := Parse(raw)
		if err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, nil
}

// IsZero は未設定かどうかを返します。
func (d Date) IsZero() bool {
	return d.year == 0 && d.month == 0 && d.day == 0
}

// String は YYYY-MM-DD 形式のキーを返します。
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.year, int(d.month), d.day)
}

// Time は UTC の 0 時として time.Time を返します。
func (d Date) Time() time.Time {
	return time.Date(d.year, d.month, d.day, 0, 0, 0, 0, time.UTC)
}

// Weekday は曜日を返します。
func (d Date) Weekday() time.Weekday {
	return d.Time().Weekday()
}

// AddDays は n 日後の日付を返します。
func (d Date) AddDays(n int) Date {
	return FromTime(d.Time().AddDate(0, 0, n))
}

// Compare は d が o より前なら -1、同じなら 0、後なら 1 を返します。
func (d Date) Compare(o Date) int {
	switch {
	case d.year != o.year:
		return cmpInt(d.year, o.year)
	case d.month != o.month:
		return cmpInt(int(d.month), int(o.month))
	default:
		return cmpInt(d.day, o.day)
	}
}

// Before は d が o より前かどうかを返します。
func (d Date) Before(o Date) bool { return d.Compare(o) < 0 }

// After は d が o より後かどうかを返します。
func (d Date) After(o Date) bool { return d.Compare(o) > 0 }

// Equal は同じ暦日かどうかを返します。
func (d Date) Equal(o Date) bool { return d == o }

// MarshalText は日付キーを返します。
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText は日付キーを読み込みます。空文字列はゼロ値になります。
func (d *Date) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// SortUnique は日付を昇順に並べ替え、重複を取り除いた新しいスライスを返します。
func SortUnique(dates []Date) []Date {
	if len(dates) == 0 {
		return []Date{}
	}
	sorted := make([]Date, len(dates))
	copy(sorted, dates)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	out := sorted[:1]
	for _, d := range sorted[1:] {
		if d != out[len(out)-1] {
			out = append(out, d)
		}
	}
	return out
}

// Strings は日付キーのスライスに変換します。
func Strings(dates []Date) []string {
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, d.String())
	}
	return out
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
