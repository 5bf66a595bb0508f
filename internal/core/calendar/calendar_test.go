package calendar

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	t.Parallel()

	d, err := Parse(" 2025-01-05 ")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if d.String() != "2025-01-05" {
		t.Fatalf("unexpected key %s", d)
	}
	if d.Weekday() != time.Sunday {
		t.Fatalf("expected sunday, got %s", d.Weekday())
	}

	for _, raw := range []string{"2025-1-5", "2025/01/05", "2025-02-30", ""} {
		if _, err := Parse(raw); !errors.Is(err, ErrInvalidDate) {
			t.Errorf("Parse(%q): expected ErrInvalidDate, got %v", raw, err)
		}
	}
}

func TestDate_OrderingMatchesKeyOrdering(t *testing.T) {
	t.Parallel()

	keys := []string{"2024-12-31", "2025-01-01", "2025-01-10", "2025-02-01", "2025-10-01"}
	for i := 0; i < len(keys)-1; i++ {
		a, b := MustParse(keys[i]), MustParse(keys[i+1])
		if !a.Before(b) || !(keys[i] < keys[i+1]) {
			t.Fatalf("ordering mismatch between %s and %s", a, b)
		}
		if a.Compare(b) != -1 || b.Compare(a) != 1 || a.Compare(a) != 0 {
			t.Fatalf("unexpected compare results for %s and %s", a, b)
		}
	}
}

func TestDate_AddDaysAcrossMonth(t *testing.T) {
	t.Parallel()

	if got := MustParse("2024-02-28").AddDays(1).String(); got != "2024-02-29" {
		t.Fatalf("expected leap day, got %s", got)
	}
	if got := MustParse("2025-03-31").AddDays(1).String(); got != "2025-04-01" {
		t.Fatalf("expected 2025-04-01, got %s", got)
	}
}

func TestSortUnique(t *testing.T) {
	t.Parallel()

	in := []Date{MustParse("2025-01-20"), MustParse("2025-01-22"), MustParse("2025-01-21"), MustParse("2025-01-20")}
	got := Strings(SortUnique(in))
	want := []string{"2025-01-20", "2025-01-21", "2025-01-22"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("want %v, got %v", want, got)
	}
	if in[1].String() != "2025-01-22" {
		t.Fatalf("input slice must not be modified")
	}
}

func TestDate_JSON(t *testing.T) {
	t.Parallel()

	type payload struct {
		Day Date `json:"day"`
	}
	b, err := json.Marshal(payload{Day: MustParse("2025-03-24")})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"day":"2025-03-24"}` {
		t.Fatalf("unexpected json %s", b)
	}

	var decoded payload
	if err := json.Unmarshal([]byte(`{"day":"2025-03-28"}`), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Day != MustParse("2025-03-28") {
		t.Fatalf("unexpected decoded day %s", decoded.Day)
	}
}

func TestRange(t *testing.T) {
	t.Parallel()

	r, err := NewRange(MustParse("2025-03-30"), MustParse("2025-04-02"))
	if err != nil {
		t.Fatalf("NewRange returned error: %v", err)
	}
	if r.Len() != 4 || len(r.Days()) != 4 {
		t.Fatalf("expected 4 days, got %d/%d", r.Len(), len(r.Days()))
	}
	if !r.Contains(MustParse("2025-04-01")) || r.Contains(MustParse("2025-04-03")) {
		t.Fatalf("unexpected Contains result")
	}
	other := Range{Start: MustParse("2025-04-02"), End: MustParse("2025-04-05")}
	if !r.Overlaps(other) {
		t.Fatalf("expected ranges sharing an end day to overlap")
	}

	if _, err := NewRange(MustParse("2025-04-02"), MustParse("2025-04-01")); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}

func TestRange_ValidateLength(t *testing.T) {
	t.Parallel()

	year := Range{Start: MustParse("2024-01-01"), End: MustParse("2024-12-31")}
	if err := year.ValidateLength(MaxRangeDays); err != nil {
		t.Fatalf("expected leap year to fit, got %v", err)
	}

	huge := Range{Start: MustParse("0001-01-01"), End: MustParse("9999-12-31")}
	if got := huge.Len(); got != 3652059 {
		t.Fatalf("expected 3652059 days, got %d", got)
	}
	if err := huge.ValidateLength(MaxRangeDays); !errors.Is(err, ErrRangeTooLong) {
		t.Fatalf("expected ErrRangeTooLong, got %v", err)
	}

	reversed := Range{Start: MustParse("2025-04-02"), End: MustParse("2025-04-01")}
	if err := reversed.ValidateLength(MaxRangeDays); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}

func TestWeekdaySet(t *testing.T) {
	t.Parallel()

	s, err := ParseWeekdaySet([]string{"Mon", "wednesday", "fri"})
	if err != nil {
		t.Fatalf("ParseWeekdaySet returned error: %v", err)
	}
	if !s.Has(time.Monday) || s.Has(time.Tuesday) {
		t.Fatalf("unexpected membership in %v", s.Strings())
	}
	if got := s.Strings(); !reflect.DeepEqual(got, []string{"mon", "wed", "fri"}) {
		t.Fatalf("unexpected names %v", got)
	}
	if _, err := ParseWeekdaySet([]string{"funday"}); !errors.Is(err, ErrInvalidWeekday) {
		t.Fatalf("expected ErrInvalidWeekday, got %v", err)
	}
	if !WeekdaySet(0).IsEmpty() || DefaultWorkingDays.IsEmpty() {
		t.Fatalf("unexpected IsEmpty result")
	}
}

func TestParseTimeRange(t *testing.T) {
	t.Parallel()

	r, err := ParseTimeRange("08:30", "12:00")
	if err != nil {
		t.Fatalf("ParseTimeRange returned error: %v", err)
	}
	if r.String() != "08:30-12:00" || r.Minutes() != 210 {
		t.Fatalf("unexpected range %s (%d minutes)", r, r.Minutes())
	}
	if _, err := ParseTimeRange("12:00", "08:00"); !errors.Is(err, ErrInvalidTimeRange) {
		t.Fatalf("expected ErrInvalidTimeRange, got %v", err)
	}
	if _, err := ParseTimeRange("8h", "12:00"); !errors.Is(err, ErrInvalidTime) {
		t.Fatalf("expected ErrInvalidTime, got %v", err)
	}
}

func TestHolidayCalendar(t *testing.T) {
	t.Parallel()

	none, err := NewHolidayCalendar("none")
	if err != nil || none != nil {
		t.Fatalf("expected nil calendar for NONE, got %v %v", none, err)
	}
	if _, ok := none.Holiday(MustParse("2025-12-25")); ok {
		t.Fatalf("nil calendar must not report holidays")
	}

	de, err := NewHolidayCalendar("de")
	if err != nil {
		t.Fatalf("NewHolidayCalendar returned error: %v", err)
	}
	if _, ok := de.Holiday(MustParse("2025-10-03")); !ok {
		t.Fatalf("expected German Unity Day to be a holiday")
	}
	if _, ok := de.Holiday(MustParse("2025-10-07")); ok {
		t.Fatalf("expected ordinary Tuesday not to be a holiday")
	}

	if _, err := NewHolidayCalendar("XX"); !errors.Is(err, ErrUnknownRegion) {
		t.Fatalf("expected ErrUnknownRegion, got %v", err)
	}
}
