package calendar

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/at"
	"github.com/rickar/cal/v2/be"
	"github.com/rickar/cal/v2/ch"
	"github.com/rickar/cal/v2/de"
	"github.com/rickar/cal/v2/dk"
	"github.com/rickar/cal/v2/es"
	"github.com/rickar/cal/v2/fi"
	"github.com/rickar/cal/v2/fr"
	"github.com/rickar/cal/v2/gb"
	"github.com/rickar/cal/v2/ie"
	"github.com/rickar/cal/v2/it"
	"github.com/rickar/cal/v2/nl"
	"github.com/rickar/cal/v2/no"
	"github.com/rickar/cal/v2/pl"
	"github.com/rickar/cal/v2/pt"
	"github.com/rickar/cal/v2/se"
	"github.com/rickar/cal/v2/us"
)

// RegionNone は祝日カレンダーを使わない設定値です。
const RegionNone = "NONE"

var regionHolidays = map[string][]*cal.Holiday{
	"AT": at.Holidays,
	"BE": be.Holidays,
	"CH": ch.Holidays,
	"DE": de.Holidays,
	"DK": dk.Holidays,
	"ES": es.Holidays,
	"FI": fi.Holidays,
	"FR": fr.Holidays,
	"GB": gb.Holidays,
	"IE": ie.Holidays,
	"IT": it.Holidays,
	"NL": nl.Holidays,
	"NO": no.Holidays,
	"PL": pl.Holidays,
	"PT": pt.Holidays,
	"SE": se.Holidays,
	"US": us.Holidays,
}

// HolidayCalendar はエージェンシー所在地の祝日を判定します。
type HolidayCalendar struct {
	region string
	cal    *cal.BusinessCalendar
}

// NewHolidayCalendar は地域コードから祝日カレンダーを生成します。
// 空文字列または RegionNone の場合は nil を返し、祝日判定を行いません。
func NewHolidayCalendar(region string) (*HolidayCalendar, error) {
	code := strings.ToUpper(strings.TrimSpace(region))
	if code == "" || code == RegionNone {
		return nil, nil
	}
	holidays, ok := regionHolidays[code]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRegion, region)
	}

	c := cal.NewBusinessCalendar()
	c.Name = code
	c.AddHoliday(holidays...)
	return &HolidayCalendar{region: code, cal: c}, nil
}

// Region は地域コードを返します。
func (h *HolidayCalendar) Region() string {
	if h == nil {
		return RegionNone
	}
	return h.region
}

// Holiday は d が祝日であればその名称と true を返します。nil レシーバは常に false です。
func (h *HolidayCalendar) Holiday(d Date) (string, bool) {
	if h == nil || d.IsZero() {
		return "", false
	}
	actual, observed, holiday := h.cal.IsHoliday(d.Time())
	if !actual && !observed {
		return "", false
	}
	if holiday == nil {
		return "", true
	}
	return holiday.Name, true
}

// SupportedRegions は利用可能な地域コードを返します。
func SupportedRegions() []string {
	regions := make([]string, 0, len(regionHolidays)+1)
	for code := range regionHolidays {
		regions = append(regions, code)
	}
	sort.Strings(regions)
	return append(regions, RegionNone)
}
